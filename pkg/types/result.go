// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Check names double as the keys of the persisted report.
const (
	CheckPageCount             = "page_count"
	CheckScannedPDF            = "scanned_pdf"
	CheckScannedPages          = "scanned_pages"
	CheckContainsImages        = "contains_images"
	CheckEmbeddedFonts         = "embedded_fonts"
	CheckHyperlinks            = "hyperlinks"
	CheckForms                 = "forms"
	CheckAspectRatioVariations = "aspect_ratio_variations"
	CheckMathematicalNotation  = "mathematical_notation"
	CheckMultiColumnFormat     = "multi_column_format"
	CheckTables                = "tables"
	CheckMultiPageTables       = "multi_page_tables"
	CheckTableContinuations    = "table_continuations"
	CheckNestedTables          = "nested_tables"
	CheckCharts                = "charts"
	CheckNestedColumns         = "nested_columns"
)

// AnalysisResult holds the preflight findings for one document. Page lists
// are 1-indexed, unique and in document order.
type AnalysisResult struct {
	// PageCount is the number of pages the document reports.
	PageCount int `json:"page_count" yaml:"page_count"`

	// ScannedPDF is true when every page lacks an extractable text layer.
	ScannedPDF bool `json:"scanned_pdf" yaml:"scanned_pdf"`

	// ScannedPages lists the pages without an extractable text layer.
	ScannedPages []int `json:"scanned_pages" yaml:"scanned_pages"`

	ContainsImages []int `json:"contains_images" yaml:"contains_images"`
	EmbeddedFonts  []int `json:"embedded_fonts" yaml:"embedded_fonts"`
	Hyperlinks     []int `json:"hyperlinks" yaml:"hyperlinks"`
	Forms          []int `json:"forms" yaml:"forms"`

	// AspectRatioVariations maps a quantized width/height ratio to the pages
	// sharing it. Empty unless the document mixes ratios.
	AspectRatioVariations map[string][]int `json:"aspect_ratio_variations" yaml:"aspect_ratio_variations"`

	MathematicalNotation []int `json:"mathematical_notation" yaml:"mathematical_notation"`
	MultiColumnFormat    []int `json:"multi_column_format" yaml:"multi_column_format"`
	Tables               []int `json:"tables" yaml:"tables"`

	// MultiPageTables is true when tables appear on two or more pages,
	// adjacent or not.
	MultiPageTables bool `json:"multi_page_tables" yaml:"multi_page_tables"`

	// TableContinuations lists table pages whose previous page also holds a table.
	TableContinuations []int `json:"table_continuations" yaml:"table_continuations"`

	NestedTables  []int `json:"nested_tables" yaml:"nested_tables"`
	Charts        []int `json:"charts" yaml:"charts"`
	NestedColumns []int `json:"nested_columns" yaml:"nested_columns"`
}

// PageCheck pairs a check name with the pages it flagged.
type PageCheck struct {
	Name  string
	Pages []int
}

// PageChecks returns every page-list check in report order.
func (r *AnalysisResult) PageChecks() []PageCheck {
	return []PageCheck{
		{CheckScannedPages, r.ScannedPages},
		{CheckContainsImages, r.ContainsImages},
		{CheckMultiColumnFormat, r.MultiColumnFormat},
		{CheckEmbeddedFonts, r.EmbeddedFonts},
		{CheckCharts, r.Charts},
		{CheckTables, r.Tables},
		{CheckTableContinuations, r.TableContinuations},
		{CheckNestedTables, r.NestedTables},
		{CheckNestedColumns, r.NestedColumns},
		{CheckHyperlinks, r.Hyperlinks},
		{CheckForms, r.Forms},
		{CheckMathematicalNotation, r.MathematicalNotation},
	}
}

// PageList returns a pointer to the page list stored under name, or nil if
// name is not a page-list check.
func (r *AnalysisResult) PageList(name string) *[]int {
	switch name {
	case CheckScannedPages:
		return &r.ScannedPages
	case CheckContainsImages:
		return &r.ContainsImages
	case CheckEmbeddedFonts:
		return &r.EmbeddedFonts
	case CheckHyperlinks:
		return &r.Hyperlinks
	case CheckForms:
		return &r.Forms
	case CheckMathematicalNotation:
		return &r.MathematicalNotation
	case CheckMultiColumnFormat:
		return &r.MultiColumnFormat
	case CheckTables:
		return &r.Tables
	case CheckTableContinuations:
		return &r.TableContinuations
	case CheckNestedTables:
		return &r.NestedTables
	case CheckCharts:
		return &r.Charts
	case CheckNestedColumns:
		return &r.NestedColumns
	}
	return nil
}

// Normalize replaces nil lists and the nil ratio map with empty values so
// that serialized reports never carry null.
func (r *AnalysisResult) Normalize() {
	for _, c := range r.PageChecks() {
		if p := r.PageList(c.Name); *p == nil {
			*p = []int{}
		}
	}
	if r.AspectRatioVariations == nil {
		r.AspectRatioVariations = map[string][]int{}
	}
}
