package lineindex

import (
	"testing"

	"github.com/windoze/editor-core-go/internal/engine/piece"
)

func TestBuildBasic(t *testing.T) {
	ix := Build("abc\nde\n\nf")
	if got, want := ix.LineCount(), 4; got != want {
		t.Fatalf("LineCount() = %d, want %d", got, want)
	}
	if got, want := ix.LineToCharOffset(1), piece.Offset(4); got != want {
		t.Fatalf("LineToCharOffset(1) = %d, want %d", got, want)
	}
	if got, want := ix.LineToCharOffset(2), piece.Offset(7); got != want {
		t.Fatalf("LineToCharOffset(2) = %d, want %d", got, want)
	}
}

func TestPositionRoundTrip(t *testing.T) {
	text := "hello\nworld\nagain"
	ix := Build(text)
	for _, off := range []piece.Offset{0, 3, 5, 6, 11, 12, 17} {
		pos := ix.CharOffsetToPosition(off)
		back := ix.PositionToCharOffset(pos)
		if back != off {
			t.Fatalf("round-trip offset %d -> %v -> %d", off, pos, back)
		}
	}
}

type sliceSource string

func (s sliceSource) CharCount() piece.Offset { return piece.Offset(len([]rune(string(s)))) }
func (s sliceSource) GetRange(start, length piece.Offset) string {
	r := []rune(string(s))
	if start < 0 {
		start = 0
	}
	end := start + length
	if end > piece.Offset(len(r)) {
		end = piece.Offset(len(r))
	}
	if start > end {
		start = end
	}
	return string(r[start:end])
}

func TestApplyEditKeepsUnaffectedPrefix(t *testing.T) {
	ix := Build("line0\nline1\nline2")
	// Simulate inserting "X" at the start of line2 (char offset 12).
	after := sliceSource("line0\nline1\nXline2")
	ix.ApplyEdit(after, 12)

	if got, want := ix.LineCount(), 3; got != want {
		t.Fatalf("LineCount() = %d, want %d", got, want)
	}
	if got := ix.GetLineText(2, after); got != "Xline2" {
		t.Fatalf("GetLineText(2) = %q", got)
	}
	if got := ix.GetLineText(0, after); got != "line0" {
		t.Fatalf("GetLineText(0) = %q", got)
	}
}

func TestCJKAndEmojiLineMetadata(t *testing.T) {
	ix := Build("café\n日本語\n👋🏽b")
	if ix.Line(0).ASCII {
		t.Fatalf("line 0 should not be flagged ASCII")
	}
	if got, want := ix.Line(1).CharLen, piece.Offset(3); got != want {
		t.Fatalf("line 1 CharLen = %d, want %d", got, want)
	}
}
