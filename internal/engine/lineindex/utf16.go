package lineindex

import (
	"unicode/utf16"

	"github.com/windoze/editor-core-go/internal/engine/piece"
)

// runeLen16 returns the number of UTF-16 code units needed to encode r, or
// -1 if r cannot be encoded in UTF-16. Equivalent to unicode/utf16.RuneLen,
// which is not available on this module's Go version.
func runeLen16(r rune) int {
	r1, r2 := utf16.EncodeRune(r)
	if r1 != 0xFFFD || r2 != 0xFFFD {
		return 2
	}
	if r == 0xFFFD {
		return 1
	}
	if r < 0 || r > 0x10FFFF {
		return -1
	}
	return 1
}

// PositionUTF16 is a (line, column) pair whose column counts UTF-16 code
// units, the addressing LSP-shaped producers use on the wire. Supplementary-
// plane characters (emoji and the like) occupy two units.
type PositionUTF16 struct {
	Line   int
	Column int
}

// PositionUTF16ToCharOffset converts an LSP-style UTF-16 position to a char
// offset. Columns past the end of the line clamp to the line length. Pure-
// ASCII lines skip the per-rune scan since every ASCII rune is one UTF-16
// unit.
func (ix *Index) PositionUTF16ToCharOffset(pos PositionUTF16, src TextSource) piece.Offset {
	meta := ix.Line(pos.Line)
	col := pos.Column
	if col < 0 {
		col = 0
	}
	if meta.ASCII {
		if piece.Offset(col) > meta.CharLen {
			col = int(meta.CharLen)
		}
		return meta.StartChar + piece.Offset(col)
	}

	text := src.GetRange(meta.StartChar, meta.CharLen)
	units := 0
	chars := 0
	for _, r := range text {
		if units >= col {
			break
		}
		units += runeLen16(r)
		chars++
	}
	return meta.StartChar + piece.Offset(chars)
}

// CharOffsetToPositionUTF16 converts a char offset to an LSP-style UTF-16
// position.
func (ix *Index) CharOffsetToPositionUTF16(offset piece.Offset, src TextSource) PositionUTF16 {
	pos := ix.CharOffsetToPosition(offset)
	meta := ix.Line(pos.Line)
	if meta.ASCII {
		return PositionUTF16{Line: pos.Line, Column: pos.Column}
	}

	text := src.GetRange(meta.StartChar, piece.Offset(pos.Column))
	units := 0
	for _, r := range text {
		units += runeLen16(r)
	}
	return PositionUTF16{Line: pos.Line, Column: units}
}
