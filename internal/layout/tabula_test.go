// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsawler/tabula/contentstream"
	"github.com/tsawler/tabula/core"
	"github.com/tsawler/tabula/graphicsstate"
	"github.com/tsawler/tabula/model"
	"github.com/tsawler/tabula/tables"

	"github.com/pdiddy/pdf-preflight/internal/pdftest"
	"github.com/pdiddy/pdf-preflight/pkg/types"
)

func TestAnalyzeGeneratedPDF(t *testing.T) {
	wide := pdftest.Page{Width: pdftest.LetterHeight, Height: pdftest.LetterWidth}
	path := pdftest.Write(t, t.TempDir(), "sizes.pdf",
		pdftest.Page{Lines: []string{"Solve 2x + 3 = 7"}},
		wide,
		pdftest.Page{Lines: []string{"Results"}},
		wide,
	)

	f, err := NewAnalyzer(types.DefaultHeuristicConfig(), nil).Analyze(context.Background(), path, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, f.PageCount)
	assert.Equal(t, map[string][]int{"0.77": {1, 3}, "1.29": {2, 4}}, f.AspectRatioVariations)
	assert.Equal(t, []int{1}, f.MathematicalNotation)
	assert.Empty(t, f.Charts)
}

func TestOpenTabulaCorruptFile(t *testing.T) {
	path := pdftest.WriteRaw(t, t.TempDir(), "corrupt.pdf", []byte("not a pdf at all"))

	_, err := NewAnalyzer(types.DefaultHeuristicConfig(), nil).Analyze(context.Background(), path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "corrupt.pdf")
}

func TestAnalyzeGeneratedTables(t *testing.T) {
	rows := [][]string{{"Region", "Q1", "Q2"}, {"North", "12", "14"}, {"South", "9", "11"}}

	tests := []struct {
		name  string
		table pdftest.Page
	}{
		{name: "cell borders", table: pdftest.Page{Lines: []string{"Summary"}, Table: rows}},
		{name: "ruled lines", table: pdftest.Page{Lines: []string{"Summary"}, RuledTable: rows}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := pdftest.Write(t, t.TempDir(), "tables.pdf",
				pdftest.Page{Lines: []string{"Introduction"}},
				pdftest.Page{Lines: []string{"Background"}},
				tt.table,
			)

			f, err := NewAnalyzer(types.DefaultHeuristicConfig(), nil).Analyze(context.Background(), path, nil)
			require.NoError(t, err)

			assert.Equal(t, []int{3}, f.Tables)
			assert.False(t, f.MultiPageTables)
			assert.Empty(t, f.TableContinuations)
		})
	}
}

// rectOps strokes a rows x cols grid of separate cell rectangles.
func rectOps(x, y float64, rows, cols int) []contentstream.Operation {
	const w, h = 120.0, 20.0
	var ops []contentstream.Operation
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			ops = append(ops,
				contentstream.Operation{Operator: "re", Operands: []core.Object{
					core.Real(x + float64(c)*w), core.Real(y - float64(r+1)*h), core.Real(w), core.Real(h),
				}},
				contentstream.Operation{Operator: "S"},
			)
		}
	}
	return ops
}

func TestRectangleEdges(t *testing.T) {
	hs, vs := rectangleEdges(graphicsstate.ExtractedRectangle{
		BBox:      model.BBox{X: 100, Y: 200, Width: 120, Height: 20},
		IsStroked: true,
	})

	require.Len(t, hs, 2)
	require.Len(t, vs, 2)
	assert.Equal(t, model.Point{X: 100, Y: 200}, hs[0].Start)
	assert.Equal(t, model.Point{X: 220, Y: 200}, hs[0].End)
	assert.Equal(t, model.Point{X: 100, Y: 220}, hs[1].Start)
	assert.Equal(t, model.Point{X: 220, Y: 220}, hs[1].End)
	assert.Equal(t, model.Point{X: 100, Y: 200}, vs[0].Start)
	assert.Equal(t, model.Point{X: 100, Y: 220}, vs[0].End)
	assert.Equal(t, model.Point{X: 220, Y: 200}, vs[1].Start)
	assert.Equal(t, model.Point{X: 220, Y: 220}, vs[1].End)
	for _, l := range hs {
		assert.True(t, l.IsHorizontal)
	}
	for _, l := range vs {
		assert.True(t, l.IsVertical)
	}
}

func TestRulingLinesSkipsFilledRectangles(t *testing.T) {
	ge := graphicsstate.NewGraphicsExtractor()
	require.NoError(t, ge.Extract([]contentstream.Operation{
		{Operator: "re", Operands: []core.Object{core.Real(0), core.Real(0), core.Real(300), core.Real(300)}},
		{Operator: "f"},
		{Operator: "re", Operands: []core.Object{core.Real(100), core.Real(100), core.Real(120), core.Real(20)}},
		{Operator: "S"},
	}))

	hs, vs := rulingLines(ge)
	assert.Len(t, hs, 2)
	assert.Len(t, vs, 2)
}

func TestDetectTablesFromCellRectangles(t *testing.T) {
	ge := graphicsstate.NewGraphicsExtractor()
	require.NoError(t, ge.Extract(rectOps(72, 600, 3, 3)))
	require.Len(t, ge.GetRectangles(), 9)

	d := &tabulaDocument{detector: tables.NewGeometricDetector(), minRows: 2, minCols: 2}
	found := d.detectTables(pdftest.LetterWidth, pdftest.LetterHeight, nil, ge)

	require.NotEmpty(t, found)
	grid := found[0]
	assert.Equal(t, SourceRuling, grid.Source)
	assert.Equal(t, 3, grid.Rows)
	assert.Equal(t, 3, grid.Cols)
	assert.Len(t, grid.Cells, 9)
	assert.InDelta(t, 72, grid.BBox.X, 0.01)
	assert.InDelta(t, 540, grid.BBox.Y, 0.01)
	assert.InDelta(t, 360, grid.BBox.Width, 0.01)
	assert.InDelta(t, 60, grid.BBox.Height, 0.01)
}

func TestDetectTablesIgnoresSingleBox(t *testing.T) {
	ge := graphicsstate.NewGraphicsExtractor()
	require.NoError(t, ge.Extract(rectOps(72, 600, 1, 1)))

	d := &tabulaDocument{detector: tables.NewGeometricDetector(), minRows: 2, minCols: 2}
	assert.Empty(t, d.detectTables(pdftest.LetterWidth, pdftest.LetterHeight, nil, ge))
}
