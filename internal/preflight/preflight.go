// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package preflight combines the structural scan and the layout analysis of a
// PDF into one AnalysisResult and runs them over batches of files.
package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdf-preflight/internal/layout"
	"github.com/pdiddy/pdf-preflight/internal/structural"
	"github.com/pdiddy/pdf-preflight/pkg/types"
)

// pdfExt is matched case-sensitively, as file names are listed.
const pdfExt = ".pdf"

var (
	// ErrInvalidPath is returned when the input is neither a .pdf file nor a directory.
	ErrInvalidPath = errors.New("invalid path: provide a PDF file or a directory")

	// ErrPageCountMismatch is returned when the two scans disagree on the number of pages.
	ErrPageCountMismatch = errors.New("page count mismatch")
)

// Merge combines the findings of both scans. Every key of the result is owned
// by exactly one scan; the page count must agree.
func Merge(s *structural.Findings, l *layout.Findings) (*types.AnalysisResult, error) {
	if s == nil || l == nil {
		return nil, errors.New("merging findings: missing scan")
	}
	if s.PageCount != l.PageCount {
		return nil, fmt.Errorf("%w: structural %d, layout %d", ErrPageCountMismatch, s.PageCount, l.PageCount)
	}

	r := &types.AnalysisResult{
		PageCount:             s.PageCount,
		ScannedPDF:            s.Scanned(),
		ScannedPages:          s.ScannedPages,
		ContainsImages:        s.ContainsImages,
		EmbeddedFonts:         s.EmbeddedFonts,
		Hyperlinks:            s.Hyperlinks,
		Forms:                 s.Forms,
		AspectRatioVariations: l.AspectRatioVariations,
		MathematicalNotation:  l.MathematicalNotation,
		MultiColumnFormat:     l.MultiColumnFormat,
		Tables:                l.Tables,
		MultiPageTables:       l.MultiPageTables,
		TableContinuations:    l.TableContinuations,
		NestedTables:          l.NestedTables,
		Charts:                l.Charts,
		NestedColumns:         l.NestedColumns,
	}
	r.Normalize()
	return r, nil
}

// CollectPDFs resolves the input path to the files to analyse: the file
// itself when it is a .pdf file, or the .pdf entries of a directory
// (non-recursive, lexical order).
func CollectPDFs(path string) ([]string, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPath, path, err)
	}

	if !info.IsDir() {
		if !info.Mode().IsRegular() || !strings.HasSuffix(path, pdfExt) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPath, path)
		}
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("reading directory %s: %w", path, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), pdfExt) {
			continue
		}
		files = append(files, filepath.Join(path, e.Name()))
	}
	return files, nil
}
