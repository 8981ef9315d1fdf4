// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"fmt"

	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/graphicsstate"
	tlayout "github.com/tsawler/tabula/layout"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
	"github.com/tsawler/tabula/tables"
	"github.com/tsawler/tabula/text"

	"github.com/pdiddy/pdf-preflight/internal/content"
	"github.com/pdiddy/pdf-preflight/pkg/types"
)

// tabulaDocument implements Document with the tabula reader and detectors.
type tabulaDocument struct {
	r         *reader.Reader
	pageCount int
	detector  *tables.GeometricDetector
	minRows   int
	minCols   int
}

// TabulaOpener returns an Opener whose table detection uses the minimum grid
// size and confidence from cfg.
func TabulaOpener(cfg types.HeuristicConfig) Opener {
	return func(path string) (Document, error) {
		return OpenTabula(path, cfg)
	}
}

// OpenTabula opens the document at path for layout analysis.
func OpenTabula(path string, cfg types.HeuristicConfig) (Document, error) {
	r, err := reader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tabula open: %w", err)
	}
	count, err := r.PageCount()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("tabula page count: %w", err)
	}

	tc := tables.DefaultConfig()
	tc.MinRows = cfg.TableMinRows
	tc.MinCols = cfg.TableMinCols
	tc.MinConfidence = cfg.TableMinConfidence
	detector := tables.NewGeometricDetector()
	if err := detector.Configure(tc); err != nil {
		r.Close()
		return nil, fmt.Errorf("configuring table detector: %w", err)
	}

	return &tabulaDocument{
		r:         r,
		pageCount: count,
		detector:  detector,
		minRows:   cfg.TableMinRows,
		minCols:   cfg.TableMinCols,
	}, nil
}

func (d *tabulaDocument) PageCount() int { return d.pageCount }

func (d *tabulaDocument) Close() error { return d.r.Close() }

func (d *tabulaDocument) Page(n int) (Page, error) {
	pg, err := d.r.GetPage(n - 1)
	if err != nil {
		return Page{}, err
	}
	width, err := pg.Width()
	if err != nil {
		return Page{}, fmt.Errorf("reading width: %w", err)
	}
	height, err := pg.Height()
	if err != nil {
		return Page{}, fmt.Errorf("reading height: %w", err)
	}

	page := Page{Number: n, Width: width, Height: height}

	// Text failures leave the page text empty.
	fragments, err := d.r.ExtractTextFragments(pg)
	if err != nil {
		fragments = nil
	}
	lineLayout := tlayout.NewLineDetector().Detect(fragments, width, height)
	if lineLayout != nil {
		page.Text = lineLayout.GetText()
		for _, l := range lineLayout.Lines {
			page.Lines = append(page.Lines, TextLine{Text: l.Text, BBox: l.BBox})
			page.Words = append(page.Words, Words(l.Fragments)...)
		}
	}

	data := pageContent(pg)
	ge := graphicsstate.NewGraphicsExtractor()
	if len(data) > 0 {
		if err := ge.ExtractFromBytes(data); err != nil {
			ge.Clear()
		}
	}
	page.Tables = d.detectTables(width, height, fragments, ge)

	images, err := d.r.ExtractPageImages(pg)
	if err == nil {
		drawn, err := content.DrawnXObjects(data)
		for _, img := range images {
			if err != nil || drawn[img.Name] {
				page.ImageCount++
			}
		}
	}

	return page, nil
}

// detectTables combines ruling-line grids with text-alignment tables.
func (d *tabulaDocument) detectTables(width, height float64, fragments []text.TextFragment, ge *graphicsstate.GraphicsExtractor) []Table {
	var found []Table

	hs, vs := rulingLines(ge)
	for _, h := range tables.NewGridDetector().DetectFromLines(hs, vs) {
		if h.Rows < d.minRows || h.Cols < d.minCols {
			continue
		}
		found = MergeTables(found, gridTable(h))
	}

	mp := &model.Page{
		Width:    width,
		Height:   height,
		RawText:  modelFragments(fragments),
		RawLines: append(ge.ToModelLines(), ge.ToModelRectangles()...),
	}
	detected, err := d.detector.Detect(mp)
	if err != nil {
		return found
	}
	for _, t := range detected {
		found = MergeTables(found, textTable(t))
	}
	return found
}

// rulingLines returns the horizontal and vertical rules of a page, including
// the four edges of every stroked rectangle.
func rulingLines(ge *graphicsstate.GraphicsExtractor) (hs, vs []graphicsstate.ExtractedLine) {
	gl := ge.GetGridLines()
	hs = append(hs, gl.Horizontals...)
	vs = append(vs, gl.Verticals...)
	for _, r := range ge.GetRectangles() {
		if !r.IsStroked {
			continue
		}
		h, v := rectangleEdges(r)
		hs = append(hs, h...)
		vs = append(vs, v...)
	}
	return hs, vs
}

// rectangleEdges splits a rectangle into its bottom and top edges and its
// left and right edges.
func rectangleEdges(r graphicsstate.ExtractedRectangle) (hs, vs []graphicsstate.ExtractedLine) {
	b := r.BBox
	edge := func(x0, y0, x1, y1 float64, horizontal bool) graphicsstate.ExtractedLine {
		return graphicsstate.ExtractedLine{
			Start:        model.Point{X: x0, Y: y0},
			End:          model.Point{X: x1, Y: y1},
			Width:        r.StrokeWidth,
			Color:        r.StrokeColor,
			IsHorizontal: horizontal,
			IsVertical:   !horizontal,
			BBox:         model.BBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0},
		}
	}
	hs = []graphicsstate.ExtractedLine{
		edge(b.X, b.Y, b.X+b.Width, b.Y, true),
		edge(b.X, b.Y+b.Height, b.X+b.Width, b.Y+b.Height, true),
	}
	vs = []graphicsstate.ExtractedLine{
		edge(b.X, b.Y, b.X, b.Y+b.Height, false),
		edge(b.X+b.Width, b.Y, b.X+b.Width, b.Y+b.Height, false),
	}
	return hs, vs
}

// gridTable converts a ruling-line hypothesis. Horizontal lines are sorted top
// to bottom and vertical lines left to right.
func gridTable(h *tables.GridHypothesis) Table {
	t := Table{BBox: h.BBox, Rows: h.Rows, Cols: h.Cols, Source: SourceRuling}
	hs, vs := h.HorizontalLines, h.VerticalLines
	for r := 0; r+1 < len(hs); r++ {
		for c := 0; c+1 < len(vs); c++ {
			t.Cells = append(t.Cells, model.BBox{
				X:      vs[c],
				Y:      hs[r+1],
				Width:  vs[c+1] - vs[c],
				Height: hs[r] - hs[r+1],
			})
		}
	}
	return t
}

func textTable(mt *model.Table) Table {
	t := Table{BBox: mt.BBox, Rows: mt.RowCount(), Cols: mt.ColCount(), Source: SourceText}
	for _, row := range mt.Rows {
		for _, cell := range row {
			if !cell.BBox.IsEmpty() {
				t.Cells = append(t.Cells, cell.BBox)
			}
		}
	}
	return t
}

func modelFragments(fragments []text.TextFragment) []model.TextFragment {
	result := make([]model.TextFragment, len(fragments))
	for i, f := range fragments {
		result[i] = model.TextFragment{
			Text:     f.Text,
			BBox:     model.BBox{X: f.X, Y: f.Y, Width: f.Width, Height: f.Height},
			FontSize: f.FontSize,
			FontName: f.FontName,
		}
	}
	return result
}

// pageContent returns the decoded, concatenated content streams of a page.
func pageContent(pg *pages.Page) []byte {
	contents, err := pg.Contents()
	if err != nil {
		return nil
	}
	var data []byte
	for _, obj := range contents {
		stream, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		decoded, err := stream.Decode()
		if err != nil {
			continue
		}
		data = append(data, decoded...)
	}
	return data
}
