// Package layout computes wrap-aware visual layout for logical lines: soft
// wrap, tab expansion, and wide-character cell width, producing an ordered
// list of visual segments per line and the logical<->visual position
// mapping the snapshot generator and cursor motion commands need.
//
// Grounded on the teacher's internal/renderer/layout/line.go (LineLayout,
// LayoutEngine) and tab.go (TabExpander), generalized from a single
// wrapAtWord bool to the three wrap modes and three wrap-indent modes the
// kernel requires, and from whitespace-scan word search to Unicode
// word-boundary search using rivo/uniseg directly.
package layout

import (
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/windoze/editor-core-go/internal/engine/piece"
)

// WrapMode selects how a logical line is broken into visual segments.
type WrapMode uint8

const (
	// WrapNone never wraps; each logical line is exactly one segment.
	WrapNone WrapMode = iota
	// WrapWordBoundary prefers breaking at a Unicode word boundary within
	// the last 25% of the width budget, falling back to WrapAnyChar.
	WrapWordBoundary
	// WrapAnyChar breaks at the last character that fits, never splitting
	// a wide char's two cells across a boundary.
	WrapAnyChar
)

// WrapIndentMode selects how continuation segments are indented.
type WrapIndentMode uint8

const (
	// WrapIndentNone applies no indent to continuation segments.
	WrapIndentNone WrapIndentMode = iota
	// WrapIndentFixed applies a fixed cell-width indent.
	WrapIndentFixed
	// WrapIndentSameAsLineIndent copies the logical line's own leading
	// whitespace cell width, capped so continuation rows keep at least
	// two content cells.
	WrapIndentSameAsLineIndent
)

// Config is the pure-function input to Layout: viewport width, tab width,
// wrap mode, and wrap indent.
type Config struct {
	Width          int
	TabWidth       int
	WrapMode       WrapMode
	WrapIndentMode WrapIndentMode
	WrapIndentN    int // used when WrapIndentMode == WrapIndentFixed
}

// Segment is one visual segment of a logical line: a contiguous run of
// characters rendered on one visual row.
type Segment struct {
	StartChar  piece.Offset // first char offset covered (inclusive)
	EndChar    piece.Offset // last char offset covered (exclusive)
	StartX     int          // starting visual-x in cells, always 0 here (wrap indent is separate)
	Width      int          // cell width of the segment's own content (excludes wrap indent)
	WrapIndent int          // cells of indent applied before content on this segment
}

// cellWidth returns the visual cell width of rune r: 2 for wide glyphs, 0
// for zero-width combining marks, 1 otherwise.
func cellWidth(r rune) int {
	w := runewidth.RuneWidth(r)
	if w < 0 {
		return 0
	}
	return w
}

// lineCells precomputes, for each rune in line, its cell width (tabs
// already expanded relative to a running visual-x) and its column prefix
// sums, so wrap search and inversion never need to rescan the raw text.
type lineCells struct {
	runes  []rune
	widths []int // per-rune cell width, tabs resolved against cumulative x
	prefix []int // prefix[i] = sum(widths[:i]); len == len(runes)+1
}

func computeLineCells(line string, tabWidth int) lineCells {
	runes := []rune(line)
	widths := make([]int, len(runes))
	prefix := make([]int, len(runes)+1)
	x := 0
	for i, r := range runes {
		var w int
		if r == '\t' {
			w = tabWidth - (x % tabWidth)
		} else {
			w = cellWidth(r)
		}
		widths[i] = w
		x += w
		prefix[i+1] = x
	}
	return lineCells{runes: runes, widths: widths, prefix: prefix}
}

// LineIndent computes the cell width of a line's leading whitespace,
// expanding tabs, capped at maxCells.
func LineIndent(line string, tabWidth, maxCells int) int {
	if tabWidth < 1 {
		tabWidth = 1
	}
	x := 0
	for _, r := range line {
		switch r {
		case ' ':
			x++
		case '\t':
			x += tabWidth - (x % tabWidth)
		default:
			return clampInt(x, 0, maxCells)
		}
		if x >= maxCells {
			return maxCells
		}
	}
	return clampInt(x, 0, maxCells)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Layout computes the visual segments for one logical line's text, whose
// first char is at offset lineStart.
func Layout(line string, lineStart piece.Offset, cfg Config) []Segment {
	if cfg.TabWidth < 1 {
		cfg.TabWidth = 1
	}

	lc := computeLineCells(line, cfg.TabWidth)

	wrapIndent := 0
	switch cfg.WrapIndentMode {
	case WrapIndentFixed:
		wrapIndent = cfg.WrapIndentN
		if wrapIndent < 0 {
			wrapIndent = 0
		}
	case WrapIndentSameAsLineIndent:
		// Cap so a continuation row always keeps at least two content
		// cells, the minimum that lets a wide char land on one row.
		wrapIndent = LineIndent(line, cfg.TabWidth, maxInt(cfg.Width-2, 0))
	}

	if cfg.WrapMode == WrapNone || cfg.Width <= 0 || len(lc.runes) == 0 {
		return []Segment{{
			StartChar: lineStart,
			EndChar:   lineStart + piece.Offset(len(lc.runes)),
			Width:     lc.prefix[len(lc.runes)],
		}}
	}

	var segs []Segment
	start := 0
	first := true

	for start < len(lc.runes) {
		budget := cfg.Width
		if !first {
			budget -= wrapIndent
		}
		if budget < 1 {
			budget = 1
		}
		baseX := lc.prefix[start]

		end := start
		for end < len(lc.runes) && lc.prefix[end+1]-baseX <= budget {
			end++
		}
		if end == start {
			end = start + 1 // always make progress even if a single wide char overflows budget
		}

		if cfg.WrapMode == WrapWordBoundary && end < len(lc.runes) {
			if wb := findWordBreak(lc, start, end, budget); wb > start {
				end = wb
			}
		}

		indent := 0
		if !first {
			indent = wrapIndent
		}
		segs = append(segs, Segment{
			StartChar:  lineStart + piece.Offset(start),
			EndChar:    lineStart + piece.Offset(end),
			Width:      lc.prefix[end] - baseX,
			WrapIndent: indent,
		})
		start = end
		first = false
	}

	return segs
}

// findWordBreak looks for a Unicode word boundary within the last 25% of
// the width budget for the candidate run [start, end). Returns a rune
// index to break at, or start if none qualifies (caller keeps the AnyChar
// break already computed).
func findWordBreak(lc lineCells, start, end, budget int) int {
	thresholdX := lc.prefix[end] - maxInt(budget/4, 1)
	sub := string(lc.runes[start:end])

	best := start
	runeIdx := start
	state := -1
	remaining := sub
	for len(remaining) > 0 {
		word, rest, newState := uniseg.FirstWordInString(remaining, state)
		state = newState
		n := utf8.RuneCountInString(word)
		candidate := runeIdx + n
		if candidate <= start || candidate >= end {
			runeIdx += n
			remaining = rest
			continue
		}
		if lc.prefix[candidate] >= thresholdX {
			best = candidate
		}
		runeIdx += n
		remaining = rest
	}
	return best
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// LogicalToVisual locates the segment containing col (a char column within
// the logical line, 0-based from the line start) and returns the visual
// row index (within the line) and the visual-x cell position, computed
// precisely from the line's own cell-width table.
func LogicalToVisual(line string, tabWidth int, segs []Segment, col int) (row, x int) {
	lc := computeLineCells(line, tabWidth)
	if len(segs) == 0 {
		return 0, 0
	}
	for i, s := range segs {
		segStart := int(s.StartChar - segs[0].StartChar)
		segEnd := int(s.EndChar - segs[0].StartChar)
		if col >= segStart && (col < segEnd || i == len(segs)-1) {
			c := clampInt(col, segStart, segEnd)
			return i, s.WrapIndent + (lc.prefix[c] - lc.prefix[segStart])
		}
	}
	last := len(segs) - 1
	return last, segs[last].WrapIndent + segs[last].Width
}

// VisualToLogical is the inverse of LogicalToVisual: given a visual row and
// x, returns the char column on the logical line. When x falls strictly
// inside the wrap-indent prefix of a non-first segment, it clamps to the
// segment-start column, per spec.
func VisualToLogical(line string, tabWidth int, segs []Segment, row, x int) int {
	if len(segs) == 0 {
		return 0
	}
	if row < 0 {
		row = 0
	}
	if row >= len(segs) {
		row = len(segs) - 1
	}
	s := segs[row]
	segStart := int(s.StartChar - segs[0].StartChar)
	segEnd := int(s.EndChar - segs[0].StartChar)

	if x < s.WrapIndent {
		return segStart
	}
	rel := x - s.WrapIndent

	lc := computeLineCells(line, tabWidth)
	baseX := lc.prefix[segStart]
	target := baseX + rel

	col := segStart
	for col < segEnd && lc.prefix[col+1] <= target {
		col++
	}
	return col
}
