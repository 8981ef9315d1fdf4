// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package layout

import (
	"unicode"
	"unicode/utf8"

	"github.com/tsawler/tabula/text"
)

// joinGapFactor is the gap, as a share of the font size, below which two
// adjacent fragments continue the same word.
const joinGapFactor = 0.15

// Words splits the fragments of one text line into words. Fragments must be
// ordered left to right. The x position of a word inside a fragment is
// interpolated from its rune offset.
func Words(fragments []text.TextFragment) []Word {
	var words []Word
	// open is true while the last word may continue into the next fragment.
	open := false
	prevEnd := 0.0

	for _, frag := range fragments {
		n := utf8.RuneCountInString(frag.Text)
		if n == 0 {
			continue
		}
		runeWidth := frag.Width / float64(n)
		joinable := open && frag.X-prevEnd < joinGapFactor*frag.FontSize

		i := 0
		start := -1
		for _, r := range frag.Text {
			if unicode.IsSpace(r) {
				if start >= 0 {
					words = appendWord(words, frag, runeWidth, start, i, joinable)
					start = -1
				}
				joinable = false
			} else if start < 0 {
				start = i
			}
			i++
		}

		open = start >= 0
		if open {
			words = appendWord(words, frag, runeWidth, start, n, joinable)
		}
		prevEnd = frag.X + frag.Width
	}
	return words
}

// appendWord adds the runes [start, end) of frag as a word, or extends the
// previous word when join is set and the run starts the fragment.
func appendWord(words []Word, frag text.TextFragment, runeWidth float64, start, end int, join bool) []Word {
	s := runeSlice(frag.Text, start, end)
	x0 := frag.X + float64(start)*runeWidth
	x1 := frag.X + float64(end)*runeWidth

	if join && start == 0 && len(words) > 0 {
		last := &words[len(words)-1]
		last.Text += s
		last.X1 = x1
		return words
	}
	return append(words, Word{Text: s, X0: x0, X1: x1})
}

func runeSlice(s string, start, end int) string {
	i := 0
	from, to := len(s), len(s)
	for pos := range s {
		if i == start {
			from = pos
		}
		if i == end {
			to = pos
			break
		}
		i++
	}
	return s[from:to]
}
