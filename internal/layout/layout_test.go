// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsawler/tabula/model"

	"github.com/pdiddy/pdf-preflight/pkg/types"
)

// fakeDocument implements Document over canned pages.
type fakeDocument struct {
	pages   []Page
	pageErr map[int]error
	closed  bool
}

func (d *fakeDocument) PageCount() int { return len(d.pages) }

func (d *fakeDocument) Page(n int) (Page, error) {
	if err := d.pageErr[n]; err != nil {
		return Page{}, err
	}
	return d.pages[n-1], nil
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

func analyzerFor(doc *fakeDocument) *Analyzer {
	open := func(string) (Document, error) { return doc, nil }
	return NewAnalyzerWithOpener(open, types.DefaultHeuristicConfig(), nil)
}

func letter(n int) Page {
	return Page{Number: n, Width: 612, Height: 792}
}

func landscape(n int) Page {
	return Page{Number: n, Width: 792, Height: 612}
}

func TestAnalyze(t *testing.T) {
	p1 := letter(1)
	p1.Text = "Solve 2x + 3 = 7"
	p1.Words = []Word{{Text: "Solve", X0: 72}, {Text: "2x", X0: 110}, {Text: "+", X0: 130}}
	p1.Lines = []TextLine{
		{BBox: model.BBox{X: 72}},
		{BBox: model.BBox{X: 150}},
		{BBox: model.BBox{X: 320}},
	}

	p2 := landscape(2)
	p2.ImageCount = 1

	p3 := letter(3)
	p3.Tables = []Table{grid(100, 100, 2, 2, 100, 50)}

	p4 := letter(4)
	p4.Tables = []Table{grid(100, 100, 2, 2, 200, 100), grid(110, 110, 2, 2, 40, 20)}
	p4.ImageCount = 2

	p5 := landscape(5)
	p5.Text = "Plain prose without numbers."
	p5.Words = []Word{{Text: "Plain", X0: 72}, {Text: "prose", X0: 72}}

	doc := &fakeDocument{pages: []Page{p1, p2, p3, p4, p5}}
	f, err := analyzerFor(doc).Analyze(context.Background(), "doc.pdf", []int{4})
	require.NoError(t, err)

	assert.Equal(t, 5, f.PageCount)
	assert.Equal(t, map[string][]int{"0.77": {1, 3, 4}, "1.29": {2, 5}}, f.AspectRatioVariations)
	assert.Equal(t, []int{1}, f.MathematicalNotation)
	assert.Equal(t, []int{1}, f.MultiColumnFormat)
	assert.Equal(t, []int{3, 4}, f.Tables)
	assert.True(t, f.MultiPageTables)
	assert.Equal(t, []int{4}, f.TableContinuations)
	assert.Equal(t, []int{4}, f.NestedTables)
	assert.Equal(t, []int{2}, f.Charts, "page 4 images are already structural images")
	assert.Equal(t, []int{1}, f.NestedColumns)
	assert.True(t, doc.closed)
}

func TestAnalyzeUniformAspectRatio(t *testing.T) {
	doc := &fakeDocument{pages: []Page{letter(1), letter(2), letter(3)}}

	f, err := analyzerFor(doc).Analyze(context.Background(), "doc.pdf", nil)
	require.NoError(t, err)
	assert.Empty(t, f.AspectRatioVariations)
	assert.NotNil(t, f.AspectRatioVariations)
}

func TestAnalyzeTextFreeDocument(t *testing.T) {
	doc := &fakeDocument{pages: []Page{letter(1), letter(2)}}

	f, err := analyzerFor(doc).Analyze(context.Background(), "scan.pdf", nil)
	require.NoError(t, err)
	assert.Empty(t, f.MathematicalNotation)
	assert.Empty(t, f.MultiColumnFormat)
	assert.Empty(t, f.NestedColumns)
}

func TestAnalyzeNonAdjacentTables(t *testing.T) {
	p1, p3 := letter(1), letter(3)
	p1.Tables = []Table{grid(100, 100, 2, 2, 100, 50)}
	p3.Tables = []Table{grid(100, 400, 3, 2, 100, 50)}
	doc := &fakeDocument{pages: []Page{p1, letter(2), p3}}

	f, err := analyzerFor(doc).Analyze(context.Background(), "doc.pdf", nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3}, f.Tables)
	assert.True(t, f.MultiPageTables, "any two table pages count")
	assert.Empty(t, f.TableContinuations, "no table page follows another")
}

func TestAnalyzeSingleTablePage(t *testing.T) {
	p3 := letter(3)
	p3.Tables = []Table{grid(100, 100, 2, 3, 100, 20)}
	doc := &fakeDocument{pages: []Page{letter(1), letter(2), p3}}

	f, err := analyzerFor(doc).Analyze(context.Background(), "doc.pdf", []int{2})
	require.NoError(t, err)
	assert.Equal(t, []int{3}, f.Tables)
	assert.False(t, f.MultiPageTables)
}

func TestAnalyzeErrors(t *testing.T) {
	t.Run("open failure carries the path", func(t *testing.T) {
		open := func(string) (Document, error) { return nil, errors.New("no trailer") }
		a := NewAnalyzerWithOpener(open, types.DefaultHeuristicConfig(), nil)
		_, err := a.Analyze(context.Background(), "broken.pdf", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening PDF broken.pdf")
	})

	t.Run("page failure", func(t *testing.T) {
		doc := &fakeDocument{
			pages:   []Page{letter(1), letter(2)},
			pageErr: map[int]error{2: errors.New("missing MediaBox")},
		}
		_, err := analyzerFor(doc).Analyze(context.Background(), "doc.pdf", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "page 2")
		assert.True(t, doc.closed)
	})

	t.Run("zero sized page", func(t *testing.T) {
		doc := &fakeDocument{pages: []Page{{Number: 1, Width: 612}}}
		_, err := analyzerFor(doc).Analyze(context.Background(), "doc.pdf", nil)
		assert.ErrorIs(t, err, ErrBadPageSize)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := analyzerFor(&fakeDocument{pages: []Page{letter(1)}}).Analyze(ctx, "doc.pdf", nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
