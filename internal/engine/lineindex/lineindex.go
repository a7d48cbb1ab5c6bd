// Package lineindex maintains a per-line metadata cache over the document
// text: start byte, start char offset, char count, byte length, and a
// pure-ASCII fast-path flag, supporting O(log N) line<->offset queries.
package lineindex

import (
	"unicode/utf8"

	"github.com/windoze/editor-core-go/internal/engine/piece"
)

// Position is a (line, column-in-chars) pair in the logical document.
// Column is measured in Unicode scalar values from the start of the line.
type Position struct {
	Line   int
	Column int
}

// LineMeta describes one line's cached metadata.
type LineMeta struct {
	StartChar piece.Offset
	StartByte int
	CharLen   piece.Offset
	ByteLen   int
	ASCII     bool
}

// TextSource is the minimal read surface the line index needs from a text
// store. piece.Table satisfies it.
type TextSource interface {
	CharCount() piece.Offset
	GetRange(start, length piece.Offset) string
}

// Index caches per-line metadata for O(log N) line<->offset queries.
// Invariant: line_count = newline_count + 1; line i+1's start char offset
// equals line i's start plus its char count plus one (the newline); the
// final line has no trailing newline.
type Index struct {
	lines []LineMeta
}

// Build constructs an index from scratch over the given text.
func Build(text string) *Index {
	ix := &Index{}
	ix.lines = scanLines(text, 0, 0)
	return ix
}

// scanLines splits text into LineMeta entries, with offsets based at
// (charBase, byteBase).
func scanLines(text string, charBase piece.Offset, byteBase int) []LineMeta {
	var lines []LineMeta
	lineStartChar := charBase
	lineStartByte := byteBase
	charLen := piece.Offset(0)
	byteLen := 0
	ascii := true

	flush := func() {
		lines = append(lines, LineMeta{
			StartChar: lineStartChar,
			StartByte: lineStartByte,
			CharLen:   charLen,
			ByteLen:   byteLen,
			ASCII:     ascii,
		})
	}

	for _, r := range text {
		rb := utf8.RuneLen(r)
		if r == '\n' {
			flush()
			lineStartChar += charLen + 1
			lineStartByte += byteLen + rb
			charLen, byteLen, ascii = 0, 0, true
			continue
		}
		charLen++
		byteLen += rb
		if r > maxASCIIRune {
			ascii = false
		}
	}
	flush()
	return lines
}

const maxASCIIRune = 127

// LineCount returns the number of lines (newline count + 1).
func (ix *Index) LineCount() int {
	return len(ix.lines)
}

// Line returns the cached metadata for the given 0-indexed line.
func (ix *Index) Line(line int) LineMeta {
	if line < 0 {
		line = 0
	}
	if line >= len(ix.lines) {
		line = len(ix.lines) - 1
	}
	return ix.lines[line]
}

// LineToCharOffset returns the char offset of the start of the given line.
func (ix *Index) LineToCharOffset(line int) piece.Offset {
	return ix.Line(line).StartChar
}

// CharOffsetToPosition converts a char offset to a (line, column) position.
// The offset of line i's trailing newline (its start plus its char count)
// resolves to line i with column == char count; column 0 on line i+1 is
// the offset one past it.
func (ix *Index) CharOffsetToPosition(offset piece.Offset) Position {
	lo, hi := 0, len(ix.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if ix.lines[mid].StartChar <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	meta := ix.lines[lo]
	col := int(offset - meta.StartChar)
	if col > int(meta.CharLen) {
		col = int(meta.CharLen)
	}
	return Position{Line: lo, Column: col}
}

// PositionToCharOffset converts a (line, column) position to a char offset,
// clamping the column to the line's length.
func (ix *Index) PositionToCharOffset(pos Position) piece.Offset {
	meta := ix.Line(pos.Line)
	col := pos.Column
	if col < 0 {
		col = 0
	}
	if piece.Offset(col) > meta.CharLen {
		col = int(meta.CharLen)
	}
	return meta.StartChar + piece.Offset(col)
}

// GetLineText returns the text of the given line (not including its
// newline), read from src.
func (ix *Index) GetLineText(line int, src TextSource) string {
	meta := ix.Line(line)
	return src.GetRange(meta.StartChar, meta.CharLen)
}

// ApplyEdit incrementally updates the index after src's text has already
// been mutated by a single edit starting at startChar. Lines strictly before
// the line containing startChar are provably unaffected (nothing before
// startChar changed) and are kept without rescanning; everything from that
// line onward is rebuilt from src, which is cheaper than a full-document
// rescan whenever the edit is not near the start of the document.
func (ix *Index) ApplyEdit(src TextSource, startChar piece.Offset) {
	if len(ix.lines) == 0 {
		ix.lines = scanLines(readAll(src), 0, 0)
		return
	}

	lo := 0
	hi := len(ix.lines) - 1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if ix.lines[mid].StartChar <= startChar {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	keep := append([]LineMeta{}, ix.lines[:lo]...)
	base := ix.lines[lo]
	rest := src.GetRange(base.StartChar, src.CharCount()-base.StartChar)
	tail := scanLines(rest, base.StartChar, base.StartByte)
	ix.lines = append(keep, tail...)
}

func readAll(src TextSource) string {
	return src.GetRange(0, src.CharCount())
}
