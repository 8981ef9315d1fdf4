// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftest generates small PDF fixtures for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-pdf/fpdf"
)

// Letter page size in points.
const (
	LetterWidth  = 612.0
	LetterHeight = 792.0
)

// Page describes the content of one fixture page.
type Page struct {
	// Width and Height default to US Letter.
	Width, Height float64

	// Lines are written top to bottom at the left margin.
	Lines []string

	// Image places a small PNG on the page.
	Image bool

	// Link adds a URI link annotation over the first line.
	Link string

	// Table draws the given cell texts below the lines, each cell with its
	// own stroked border rectangle.
	Table [][]string

	// RuledTable draws the given cell texts below the lines inside a grid of
	// separate line segments.
	RuledTable [][]string
}

// Write renders pages into dir/name and returns the file path.
func Write(t testing.TB, dir, name string, pages ...Page) string {
	t.Helper()

	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: LetterWidth, Ht: LetterHeight},
	})
	pdf.SetAutoPageBreak(false, 0)

	imageRegistered := false
	for i, p := range pages {
		w, h := p.Width, p.Height
		if w == 0 || h == 0 {
			w, h = LetterWidth, LetterHeight
		}
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		pdf.SetFont("Helvetica", "", 12)

		y := 72.0
		for _, line := range p.Lines {
			pdf.Text(72, y, line)
			y += 18
		}

		if p.Link != "" {
			pdf.LinkString(72, 60, 200, 16, p.Link)
		}

		if p.Image {
			if !imageRegistered {
				pdf.RegisterImageOptionsReader("dot", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(pngBytes(t)))
				imageRegistered = true
			}
			pdf.ImageOptions("dot", 72, y, 48, 48, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
			y += 60
		}

		if len(p.Table) > 0 {
			drawTable(pdf, 72, y+10, p.Table)
			y += 10 + float64(len(p.Table))*cellH
		}

		if len(p.RuledTable) > 0 {
			drawRuledTable(pdf, 72, y+10, p.RuledTable)
		}

		if err := pdf.Error(); err != nil {
			t.Fatalf("rendering page %d: %v", i+1, err)
		}
	}

	path := filepath.Join(dir, name)
	if err := pdf.OutputFileAndClose(path); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// WriteRaw writes arbitrary bytes to dir/name, for corrupt-file fixtures.
func WriteRaw(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

// Table cell size in points.
const cellW, cellH = 120.0, 20.0

func drawTable(pdf *fpdf.Fpdf, x, y float64, rows [][]string) {
	for r, row := range rows {
		for c, cell := range row {
			pdf.SetXY(x+float64(c)*cellW, y+float64(r)*cellH)
			pdf.CellFormat(cellW, cellH, cell, "1", 0, "L", false, 0, "")
		}
	}
}

func drawRuledTable(pdf *fpdf.Fpdf, x, y float64, rows [][]string) {
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	width, height := float64(cols)*cellW, float64(len(rows))*cellH

	for r := 0; r <= len(rows); r++ {
		ry := y + float64(r)*cellH
		pdf.Line(x, ry, x+width, ry)
	}
	for c := 0; c <= cols; c++ {
		cx := x + float64(c)*cellW
		pdf.Line(cx, y, cx, y+height)
	}
	for r, row := range rows {
		for c, cell := range row {
			pdf.SetXY(x+float64(c)*cellW, y+float64(r)*cellH)
			pdf.CellFormat(cellW, cellH, cell, "", 0, "L", false, 0, "")
		}
	}
}

func pngBytes(t testing.TB) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for px := 0; px < 8; px++ {
		for py := 0; py < 8; py++ {
			img.Set(px, py, color.RGBA{R: uint8(px * 30), G: uint8(py * 30), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

// Name returns a fixture file name for index i.
func Name(i int) string {
	return fmt.Sprintf("doc-%02d.pdf", i)
}
