package layout

import (
	"strings"
	"unicode"

	"github.com/go-text/typesetting/segmenter"
	"github.com/mattn/go-runewidth"
)

// Line is one visual line: text[Start:End] without its line terminator.
type Line struct {
	Start int
	End   int
}

// wrapper breaks hard lines into visual lines at UAX#14 break opportunities.
type wrapper struct {
	cols     int
	tabWidth int
	seg      segmenter.Segmenter
	runes    []rune
	offsets  []int // byte offset of each rune relative to the hard line
}

func newWrapper(cols, tabWidth int) *wrapper {
	return &wrapper{cols: max(cols, 1), tabWidth: max(tabWidth, 1)}
}

func (w *wrapper) runeWidth(r rune) int {
	switch {
	case r == '\t':
		return w.tabWidth
	case unicode.IsControl(r):
		return 0
	default:
		return runewidth.RuneWidth(r)
	}
}

// wrap appends the visual lines of the hard line s, located at base in the
// document, to dst.
func (w *wrapper) wrap(dst []Line, s string, base int) []Line {
	if s == "" {
		return append(dst, Line{Start: base, End: base})
	}

	w.runes = w.runes[:0]
	w.offsets = w.offsets[:0]
	for i, r := range s {
		w.runes = append(w.runes, r)
		w.offsets = append(w.offsets, i)
	}
	w.offsets = append(w.offsets, len(s))

	byteAt := func(runeIdx int) int { return base + w.offsets[runeIdx] }

	w.seg.Init(w.runes)
	iter := w.seg.LineIterator()

	lineStart := 0 // rune index where the current visual line begins
	lineWidth := 0

	for iter.Next() {
		segment := iter.Line()
		segStart := segment.Offset
		segEnd := segment.Offset + len(segment.Text)

		full, visible := w.segmentWidth(segment.Text)

		if lineWidth > 0 && lineWidth+visible > w.cols {
			dst = append(dst, Line{Start: byteAt(lineStart), End: byteAt(segStart)})
			lineStart, lineWidth = segStart, 0
		}

		if visible > w.cols {
			// A single unbreakable run wider than the line: split by cells.
			for i := segStart; i < segEnd; i++ {
				rw := w.runeWidth(w.runes[i])
				if lineWidth > 0 && lineWidth+rw > w.cols {
					dst = append(dst, Line{Start: byteAt(lineStart), End: byteAt(i)})
					lineStart, lineWidth = i, 0
				}
				lineWidth += rw
			}
			continue
		}

		lineWidth += full
	}

	return append(dst, Line{Start: byteAt(lineStart), End: base + len(s)})
}

// segmentWidth returns the cell width of a segment with and without its
// trailing spaces. Trailing spaces may hang past the right edge.
func (w *wrapper) segmentWidth(rs []rune) (full, visible int) {
	trailing := 0
	for i := len(rs) - 1; i >= 0 && unicode.IsSpace(rs[i]); i-- {
		trailing += w.runeWidth(rs[i])
	}
	for _, r := range rs {
		full += w.runeWidth(r)
	}
	return full, full - trailing
}

// nextBreak returns the index of the next hard line terminator ('\n' or
// '\f') in s at or after from, or len(s).
func nextBreak(s string, from int) int {
	if i := strings.IndexAny(s[from:], "\n\f"); i >= 0 {
		return from + i
	}
	return len(s)
}
