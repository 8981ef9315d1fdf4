// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/tabula/model"
	"golang.org/x/text/unicode/norm"
)

// sameTableRatio is the share of the larger table area two detections must
// have in common to count as one table.
const sameTableRatio = 0.8

// cellTolerance absorbs rounding when testing that a table sits inside a cell.
const cellTolerance = 1.0

// mathPattern matches a digit run followed by a variable or equals sign.
var mathPattern = regexp.MustCompile(`\d+[xy=]+`)

// ErrBadPageSize is returned for pages without a usable width or height.
var ErrBadPageSize = errors.New("page has no usable size")

// AspectRatio returns width/height rounded half away from zero to precision
// decimals and formatted with exactly that many decimals.
func AspectRatio(width, height float64, precision int) (string, error) {
	if width <= 0 || height <= 0 || math.IsNaN(width) || math.IsNaN(height) {
		return "", fmt.Errorf("%w: %gx%g", ErrBadPageSize, width, height)
	}
	scale := math.Pow(10, float64(precision))
	r := math.Round(width/height*scale) / scale
	return strconv.FormatFloat(r, 'f', precision, 64), nil
}

// GroupAspectRatios maps each ratio to the pages that have it, where ratios[i]
// belongs to page i+1. Documents with a single ratio yield an empty map;
// otherwise only ratios shared by at least two pages are kept.
func GroupAspectRatios(ratios []string) map[string][]int {
	groups := make(map[string][]int)
	for i, r := range ratios {
		groups[r] = append(groups[r], i+1)
	}

	result := make(map[string][]int)
	if len(groups) < 2 {
		return result
	}
	for r, pages := range groups {
		if len(pages) >= 2 {
			result[r] = pages
		}
	}
	return result
}

// HasMath reports whether text looks like it carries mathematical notation.
func HasMath(text, symbols string) bool {
	if text == "" {
		return false
	}
	text = norm.NFC.String(text)
	if mathPattern.MatchString(text) {
		return true
	}
	return symbols != "" && strings.ContainsAny(text, norm.NFC.String(symbols))
}

// MultiColumn reports whether the words start at more than threshold
// distinct x positions.
func MultiColumn(words []Word, threshold int) bool {
	seen := make(map[float64]struct{})
	for _, w := range words {
		seen[w.X0] = struct{}{}
		if len(seen) > threshold {
			return true
		}
	}
	return false
}

// NestedColumns reports whether line left edges, rounded to the nearest
// multiple of width, fall into more than threshold clusters.
func NestedColumns(lines []TextLine, width float64, threshold int) bool {
	if width <= 0 {
		return false
	}
	clusters := make(map[float64]struct{})
	for _, l := range lines {
		clusters[math.Round(l.BBox.X/width)*width] = struct{}{}
		if len(clusters) > threshold {
			return true
		}
	}
	return false
}

// NestedTables reports whether any table lies inside a single cell of another
// table on the same page.
func NestedTables(tables []Table) bool {
	for i, inner := range tables {
		for j, outer := range tables {
			if i == j {
				continue
			}
			for _, cell := range outer.Cells {
				if containsBox(cell, inner.BBox, cellTolerance) {
					return true
				}
			}
		}
	}
	return false
}

// MergeTables appends the candidates to tables, skipping any that cover the
// same region as a table already kept.
func MergeTables(tables []Table, candidates ...Table) []Table {
	for _, c := range candidates {
		duplicate := false
		for _, t := range tables {
			if sameRegion(t.BBox, c.BBox) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			tables = append(tables, c)
		}
	}
	return tables
}

func sameRegion(a, b model.BBox) bool {
	if !a.Intersects(b) {
		return false
	}
	larger := math.Max(a.Area(), b.Area())
	if larger == 0 {
		return false
	}
	return a.Intersection(b).Area()/larger >= sameTableRatio
}

func containsBox(outer, inner model.BBox, tol float64) bool {
	if inner.IsEmpty() || outer.IsEmpty() {
		return false
	}
	return inner.X >= outer.X-tol &&
		inner.Y >= outer.Y-tol &&
		inner.Right() <= outer.Right()+tol &&
		inner.Top() <= outer.Top()+tol
}
