// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package layout runs the geometry-aware checks of a preflight: page aspect
// ratios, mathematical notation, column structure, tables and charts. The
// default backend is tabula.
package layout

import (
	"context"
	"fmt"

	"github.com/phuslu/log"
	"github.com/tsawler/tabula/model"

	"github.com/pdiddy/pdf-preflight/internal/logging"
	"github.com/pdiddy/pdf-preflight/pkg/types"
)

// Word is a whitespace-delimited run of text with its horizontal extent.
type Word struct {
	Text   string
	X0, X1 float64
}

// TextLine is one detected line of text.
type TextLine struct {
	Text string
	BBox model.BBox
}

// Table sources.
const (
	SourceText   = "text"
	SourceRuling = "ruling"
)

// Table is a detected table with the regions of its cells.
type Table struct {
	BBox   model.BBox
	Rows   int
	Cols   int
	Cells  []model.BBox
	Source string
}

// Page is what the layout backend extracts from one page.
type Page struct {
	// Number is the 1-indexed page number.
	Number int

	Width, Height float64

	// Text is the assembled page text, lines separated by newlines.
	Text string

	Words  []Word
	Lines  []TextLine
	Tables []Table

	// ImageCount is the number of image XObjects the layout backend found.
	ImageCount int
}

// Document is an opened PDF as seen by the analyzer.
type Document interface {
	PageCount() int
	// Page extracts the 1-indexed page n.
	Page(n int) (Page, error)
	Close() error
}

// Opener opens the document at path.
type Opener func(path string) (Document, error)

// Findings holds the per-check results of a layout analysis.
type Findings struct {
	PageCount             int
	AspectRatioVariations map[string][]int
	MathematicalNotation  []int
	MultiColumnFormat     []int
	Tables                []int
	MultiPageTables       bool
	TableContinuations    []int
	NestedTables          []int
	Charts                []int
	NestedColumns         []int
}

// Analyzer applies the layout heuristics to every page of a document.
type Analyzer struct {
	open   Opener
	cfg    types.HeuristicConfig
	logger *log.Logger
}

// NewAnalyzer returns an Analyzer backed by tabula.
func NewAnalyzer(cfg types.HeuristicConfig, logger *log.Logger) *Analyzer {
	return NewAnalyzerWithOpener(TabulaOpener(cfg), cfg, logger)
}

// NewAnalyzerWithOpener returns an Analyzer that opens documents with open.
func NewAnalyzerWithOpener(open Opener, cfg types.HeuristicConfig, logger *log.Logger) *Analyzer {
	return &Analyzer{open: open, cfg: cfg, logger: logging.OrDiscard(logger)}
}

// Analyze opens the document at path once and runs the layout checks page by
// page. imagePages are the pages the structural scan found images on; a page
// with layout-visible images outside that list is reported as a chart.
func (a *Analyzer) Analyze(ctx context.Context, path string, imagePages []int) (*Findings, error) {
	doc, err := a.open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer doc.Close()

	structuralImages := make(map[int]bool, len(imagePages))
	for _, n := range imagePages {
		structuralImages[n] = true
	}

	f := &Findings{PageCount: doc.PageCount()}
	ratios := make([]string, 0, f.PageCount)
	previousHadTable := false

	for n := 1; n <= f.PageCount; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := doc.Page(n)
		if err != nil {
			return nil, fmt.Errorf("analysing page %d of %s: %w", n, path, err)
		}

		ratio, err := AspectRatio(page.Width, page.Height, a.cfg.AspectRatioPrecision)
		if err != nil {
			return nil, fmt.Errorf("analysing page %d of %s: %w", n, path, err)
		}
		ratios = append(ratios, ratio)

		if HasMath(page.Text, a.cfg.MathSymbols) {
			f.MathematicalNotation = append(f.MathematicalNotation, n)
		}
		if MultiColumn(page.Words, a.cfg.ColumnThreshold) {
			f.MultiColumnFormat = append(f.MultiColumnFormat, n)
		}

		hasTable := len(page.Tables) > 0
		if hasTable {
			f.Tables = append(f.Tables, n)
			if len(f.Tables) >= 2 {
				f.MultiPageTables = true
			}
			if previousHadTable {
				f.TableContinuations = append(f.TableContinuations, n)
			}
		}
		previousHadTable = hasTable

		if NestedTables(page.Tables) {
			f.NestedTables = append(f.NestedTables, n)
		}
		if page.ImageCount > 0 && !structuralImages[n] {
			f.Charts = append(f.Charts, n)
		}
		if NestedColumns(page.Lines, a.cfg.ColumnClusterWidth, a.cfg.NestedColumnThreshold) {
			f.NestedColumns = append(f.NestedColumns, n)
		}

		a.logger.Debug().
			Str("path", path).
			Int("page", n).
			Str("ratio", ratio).
			Int("words", len(page.Words)).
			Int("lines", len(page.Lines)).
			Int("tables", len(page.Tables)).
			Int("images", page.ImageCount).
			Msg("layout page analysed")
	}

	f.AspectRatioVariations = GroupAspectRatios(ratios)
	return f, nil
}
