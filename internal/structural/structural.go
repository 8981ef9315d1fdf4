// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package structural scans the low-level PDF object graph of a document:
// image objects, annotations, fonts and the presence of a text layer.
// The default backend is pdfcpu.
package structural

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"github.com/pdiddy/pdf-preflight/internal/logging"
)

// Annotation subtypes and actions the scanner cares about.
const (
	subtypeLink   = "Link"
	subtypeWidget = "Widget"
)

// Annotation is the part of a page annotation used for classification.
type Annotation struct {
	// Subtype is the annotation /Subtype name (Link, Widget, Text, ...).
	Subtype string

	// URI is true when the annotation targets a URI, either through a
	// URI action or a direct URI entry.
	URI bool

	// FieldType is the form field type (/FT) of a widget, if present.
	FieldType string
}

// Font describes a font used by a page.
type Font struct {
	Name     string
	Subtype  string
	Embedded bool
}

// PageInfo is what the object graph says about one page.
type PageInfo struct {
	// Number is the 1-indexed page number.
	Number int

	// ImageCount is the number of distinct image objects reachable from the
	// page resources, including those nested in form XObjects.
	ImageCount int

	Annotations []Annotation
	Fonts       []Font

	// HasText is true when the page content shows at least one non-empty string.
	HasText bool
}

// Document is an opened PDF as seen by the scanner.
type Document interface {
	PageCount() int
	// Page returns the object-graph facts for the 1-indexed page n.
	Page(n int) (PageInfo, error)
	Close() error
}

// Opener opens the document at path.
type Opener func(path string) (Document, error)

// Findings holds the per-check page lists of a structural scan.
type Findings struct {
	PageCount      int
	ScannedPages   []int
	ContainsImages []int
	EmbeddedFonts  []int
	Hyperlinks     []int
	Forms          []int
}

// PageFlags is the classification of one page.
type PageFlags struct {
	Images        bool
	Hyperlinks    bool
	Forms         bool
	LikelyScanned bool
	EmbeddedFonts bool
}

// Classify applies the structural checks to a page. A page without a text
// layer is likely scanned and its fonts are not considered.
func Classify(p PageInfo) PageFlags {
	var f PageFlags
	f.Images = p.ImageCount > 0
	for _, a := range p.Annotations {
		switch {
		case a.Subtype == subtypeLink && a.URI:
			f.Hyperlinks = true
		case a.Subtype == subtypeWidget:
			f.Forms = true
		}
	}
	if !p.HasText {
		f.LikelyScanned = true
		return f
	}
	for _, font := range p.Fonts {
		if font.Embedded {
			f.EmbeddedFonts = true
			break
		}
	}
	return f
}

// Scanner runs the structural checks over every page of a document.
type Scanner struct {
	open   Opener
	logger *log.Logger
}

// NewScanner returns a Scanner backed by pdfcpu.
func NewScanner(logger *log.Logger) *Scanner {
	return NewScannerWithOpener(OpenPDFCPU, logger)
}

// NewScannerWithOpener returns a Scanner that opens documents with open.
func NewScannerWithOpener(open Opener, logger *log.Logger) *Scanner {
	return &Scanner{open: open, logger: logging.OrDiscard(logger)}
}

// Scan opens the document at path once and classifies its pages in order.
func (s *Scanner) Scan(ctx context.Context, path string) (*Findings, error) {
	doc, err := s.open(path)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", path, err)
	}
	defer doc.Close()

	f := &Findings{PageCount: doc.PageCount()}
	for n := 1; n <= f.PageCount; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := doc.Page(n)
		if err != nil {
			return nil, fmt.Errorf("scanning page %d of %s: %w", n, path, err)
		}

		flags := Classify(info)
		if flags.Images {
			f.ContainsImages = append(f.ContainsImages, n)
		}
		if flags.Hyperlinks {
			f.Hyperlinks = append(f.Hyperlinks, n)
		}
		if flags.Forms {
			f.Forms = append(f.Forms, n)
		}
		if flags.LikelyScanned {
			f.ScannedPages = append(f.ScannedPages, n)
		}
		if flags.EmbeddedFonts {
			f.EmbeddedFonts = append(f.EmbeddedFonts, n)
		}

		s.logger.Debug().
			Str("path", path).
			Int("page", n).
			Int("images", info.ImageCount).
			Int("annotations", len(info.Annotations)).
			Int("fonts", len(info.Fonts)).
			Bool("text", info.HasText).
			Msg("structural page scanned")
	}

	return f, nil
}

// Scanned reports whether every page of a non-empty document lacks text.
func (f *Findings) Scanned() bool {
	return f.PageCount > 0 && len(f.ScannedPages) == f.PageCount
}
