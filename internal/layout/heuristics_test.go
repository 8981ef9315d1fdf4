// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsawler/tabula/model"

	"github.com/pdiddy/pdf-preflight/pkg/types"
)

func TestAspectRatio(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		precision     int
		want          string
	}{
		{name: "letter portrait", width: 612, height: 792, precision: 2, want: "0.77"},
		{name: "a4 portrait", width: 595, height: 842, precision: 2, want: "0.71"},
		{name: "a4 landscape", width: 842, height: 595, precision: 2, want: "1.42"},
		{name: "square", width: 100, height: 100, precision: 2, want: "1.00"},
		{name: "half rounds away from zero", width: 1, height: 8, precision: 2, want: "0.13"},
		{name: "zero precision", width: 612, height: 792, precision: 0, want: "1"},
		{name: "three decimals", width: 612, height: 792, precision: 3, want: "0.773"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AspectRatio(tt.width, tt.height, tt.precision)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAspectRatioRejectsEmptyPage(t *testing.T) {
	_, err := AspectRatio(612, 0, 2)
	assert.ErrorIs(t, err, ErrBadPageSize)

	_, err = AspectRatio(-1, 792, 2)
	assert.ErrorIs(t, err, ErrBadPageSize)
}

func TestGroupAspectRatios(t *testing.T) {
	tests := []struct {
		name   string
		ratios []string
		want   map[string][]int
	}{
		{name: "no pages", ratios: nil, want: map[string][]int{}},
		{name: "uniform", ratios: []string{"0.77", "0.77", "0.77"}, want: map[string][]int{}},
		{
			name:   "two groups partition the pages",
			ratios: []string{"0.77", "1.29", "0.77", "0.77", "1.29"},
			want:   map[string][]int{"0.77": {1, 3, 4}, "1.29": {2, 5}},
		},
		{
			name:   "singleton ratios are dropped",
			ratios: []string{"0.77", "0.77", "1.29"},
			want:   map[string][]int{"0.77": {1, 2}},
		},
		{
			name:   "all distinct",
			ratios: []string{"0.77", "1.29", "1.00"},
			want:   map[string][]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GroupAspectRatios(tt.ratios))
		})
	}
}

func TestHasMath(t *testing.T) {
	symbols := types.DefaultMathSymbols

	tests := []struct {
		name string
		text string
		want bool
	}{
		{name: "empty", text: "", want: false},
		{name: "equation", text: "Solve 2x + 3 = 7", want: true},
		{name: "permissive dimension match", text: "a 3x5 card", want: true},
		{name: "digit then equals", text: "total 1= sum", want: true},
		{name: "summation symbol", text: "∑ of the values", want: true},
		{name: "plus minus", text: "error ±0.5", want: true},
		{name: "plain prose", text: "The year 2024 was good.", want: false},
		{name: "letters only equation", text: "x = y", want: false},
		{name: "decomposed not-equal normalizes", text: "a =\u0338 b", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasMath(tt.text, symbols))
		})
	}
}

func TestHasMathWithoutSymbols(t *testing.T) {
	assert.False(t, HasMath("∑ of the values", ""))
	assert.True(t, HasMath("4y", ""))
}

func TestMultiColumn(t *testing.T) {
	words := func(xs ...float64) []Word {
		var ws []Word
		for _, x := range xs {
			ws = append(ws, Word{Text: "w", X0: x, X1: x + 10})
		}
		return ws
	}

	tests := []struct {
		name      string
		words     []Word
		threshold int
		want      bool
	}{
		{name: "no words", words: nil, threshold: 2, want: false},
		{name: "single left edge", words: words(72, 72, 72), threshold: 2, want: false},
		{name: "two edges", words: words(72, 300, 72, 300), threshold: 2, want: false},
		{name: "three edges", words: words(72, 150, 300), threshold: 2, want: true},
		{name: "near but not equal edges count separately", words: words(72, 72.01, 72.02), threshold: 2, want: true},
		{name: "higher threshold", words: words(72, 150, 300), threshold: 3, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MultiColumn(tt.words, tt.threshold))
		})
	}
}

func TestNestedColumns(t *testing.T) {
	lines := func(xs ...float64) []TextLine {
		var ls []TextLine
		for _, x := range xs {
			ls = append(ls, TextLine{Text: "line", BBox: model.BBox{X: x, Y: 700, Width: 100, Height: 12}})
		}
		return ls
	}

	tests := []struct {
		name  string
		lines []TextLine
		width float64
		want  bool
	}{
		{name: "no lines", lines: nil, width: 10, want: false},
		{name: "same cluster", lines: lines(72, 73, 74), width: 10, want: false},
		{name: "indent within two clusters", lines: lines(72, 88, 72), width: 10, want: false},
		{name: "three clusters", lines: lines(72, 150, 300), width: 10, want: true},
		{name: "coarse width merges", lines: lines(72, 88, 95), width: 50, want: false},
		{name: "zero width disables", lines: lines(72, 150, 300), width: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NestedColumns(tt.lines, tt.width, 2))
		})
	}
}

// grid builds a ruled table of rows x cols cells of the given size whose
// lower-left corner is (x, y).
func grid(x, y float64, rows, cols int, cellW, cellH float64) Table {
	t := Table{
		BBox:   model.BBox{X: x, Y: y, Width: float64(cols) * cellW, Height: float64(rows) * cellH},
		Rows:   rows,
		Cols:   cols,
		Source: SourceRuling,
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			t.Cells = append(t.Cells, model.BBox{X: x + float64(c)*cellW, Y: y + float64(r)*cellH, Width: cellW, Height: cellH})
		}
	}
	return t
}

func TestNestedTables(t *testing.T) {
	outer := grid(100, 100, 2, 2, 200, 100)

	tests := []struct {
		name   string
		tables []Table
		want   bool
	}{
		{name: "no tables", tables: nil, want: false},
		{name: "single table", tables: []Table{outer}, want: false},
		{name: "table inside one cell", tables: []Table{outer, grid(110, 110, 2, 2, 40, 20)}, want: true},
		{name: "inner listed first", tables: []Table{grid(110, 110, 2, 2, 40, 20), outer}, want: true},
		{name: "table spanning two cells", tables: []Table{outer, grid(250, 110, 2, 2, 60, 20)}, want: false},
		{name: "side by side tables", tables: []Table{outer, grid(600, 100, 2, 2, 50, 50)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NestedTables(tt.tables))
		})
	}
}

func TestMergeTables(t *testing.T) {
	ruled := grid(100, 100, 2, 2, 100, 50)
	sameRegion := Table{BBox: model.BBox{X: 102, Y: 101, Width: 196, Height: 98}, Rows: 2, Cols: 2, Source: SourceText}
	nested := grid(110, 110, 2, 2, 30, 15)
	elsewhere := grid(100, 500, 3, 2, 100, 20)

	got := MergeTables(nil, ruled)
	got = MergeTables(got, sameRegion, nested, elsewhere)

	require.Len(t, got, 3)
	assert.Equal(t, SourceRuling, got[0].Source, "first detection of a region wins")
	assert.Equal(t, nested.BBox, got[1].BBox, "a table inside another is not a duplicate")
	assert.Equal(t, elsewhere.BBox, got[2].BBox)
}
