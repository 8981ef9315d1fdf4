// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a ReportBundle as a console summary and as a
// persisted JSON or YAML artifact.
package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pdiddy/pdf-preflight/pkg/types"
)

// AllPages replaces a page list that covers every page of the document.
const AllPages = "All pages"

const separator = "=================================================="

// errorProneLabels are the console labels of the page-list checks reported
// as prone to conversion errors, in report order.
var errorProneLabels = []struct {
	check string
	label string
}{
	{types.CheckMultiColumnFormat, "Multi-Column Format"},
	{types.CheckNestedColumns, "Nested Columns"},
	{types.CheckEmbeddedFonts, "Embedded Fonts"},
	{types.CheckCharts, "Charts"},
	{types.CheckTables, "Tables"},
	{types.CheckTableContinuations, "Table Continuations"},
	{types.CheckNestedTables, "Nested Tables"},
	{types.CheckHyperlinks, "Hyperlinks"},
	{types.CheckForms, "Forms"},
	{types.CheckMathematicalNotation, "Mathematical Notation"},
}

// FormatPages renders a page list for display. A list covering every page of
// a total-page document is "All pages"; otherwise pages are listed in order
// with consecutive runs collapsed into ranges ("1-3, 5, 7-8").
func FormatPages(pages []int, total int) string {
	if len(pages) == 0 {
		return ""
	}
	sorted := uniqueSorted(pages)
	if coversAll(sorted, total) {
		return AllPages
	}

	var parts []string
	for i := 0; i < len(sorted); {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[j]+1 {
			j++
		}
		if i == j {
			parts = append(parts, strconv.Itoa(sorted[i]))
		} else {
			parts = append(parts, fmt.Sprintf("%d-%d", sorted[i], sorted[j]))
		}
		i = j + 1
	}
	return strings.Join(parts, ", ")
}

// WriteSummary prints one report block per bundle entry.
func WriteSummary(w io.Writer, bundle *types.ReportBundle) {
	for _, e := range bundle.Entries() {
		fmt.Fprintf(w, "\n📂 PDF Report: %s\n", e.Path)
		fmt.Fprintln(w, separator)

		if e.Failed() {
			fmt.Fprintf(w, "❌ Analysis failed: %v\n", e.Err)
			fmt.Fprintln(w, separator)
			fmt.Fprintln(w)
			continue
		}

		r := e.Result
		fmt.Fprintf(w, "📄 Total Pages: %d\n\n", r.PageCount)

		critical := criticalIssues(r)
		if len(critical) > 0 {
			fmt.Fprintln(w, "🚨 Critical Issues (Must Avoid):")
			for _, issue := range critical {
				fmt.Fprintf(w, "   %s\n", issue)
			}
			fmt.Fprintln(w)
		}

		prone := errorProneIssues(r)
		if len(prone) > 0 {
			fmt.Fprintln(w, "⚠️ Content Prone to Conversion Errors:")
			for _, issue := range prone {
				fmt.Fprintf(w, "   %s\n", issue)
			}
		}

		fmt.Fprintln(w, separator)
		fmt.Fprintln(w)
	}
}

func criticalIssues(r *types.AnalysisResult) []string {
	var issues []string
	if len(r.ContainsImages) > 0 {
		issues = append(issues, fmt.Sprintf("❌ Contains Images (Pages: %s)", FormatPages(r.ContainsImages, r.PageCount)))
	}
	switch {
	case r.ScannedPDF:
		issues = append(issues, "❌ Scanned PDFs / OCR Detected: Yes")
	case len(r.ScannedPages) > 0:
		issues = append(issues, fmt.Sprintf("❌ Scanned PDFs / OCR Detected: Partial (Pages: %s)", FormatPages(r.ScannedPages, r.PageCount)))
	}
	return issues
}

func errorProneIssues(r *types.AnalysisResult) []string {
	var issues []string
	for _, l := range errorProneLabels {
		pages := *r.PageList(l.check)
		if len(pages) > 0 {
			issues = append(issues, fmt.Sprintf("🔸 %s (Pages: %s)", l.label, FormatPages(pages, r.PageCount)))
		}
		if l.check == types.CheckTables && r.MultiPageTables {
			issues = append(issues, "🔸 Multi-Page Tables: Yes")
		}
	}

	ratios := make([]string, 0, len(r.AspectRatioVariations))
	for ratio := range r.AspectRatioVariations {
		ratios = append(ratios, ratio)
	}
	sort.Strings(ratios)
	for _, ratio := range ratios {
		issues = append(issues, fmt.Sprintf("🔸 Aspect Ratio %s (Pages: %s)", ratio, FormatPages(r.AspectRatioVariations[ratio], r.PageCount)))
	}
	return issues
}

func uniqueSorted(pages []int) []int {
	seen := make(map[int]bool, len(pages))
	out := make([]int, 0, len(pages))
	for _, p := range pages {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// coversAll reports whether sorted unique pages are exactly 1..total.
func coversAll(sorted []int, total int) bool {
	if total <= 0 || len(sorted) != total {
		return false
	}
	for i, p := range sorted {
		if p != i+1 {
			return false
		}
	}
	return true
}
