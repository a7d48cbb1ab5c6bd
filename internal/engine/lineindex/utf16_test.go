package lineindex

import (
	"testing"

	"github.com/windoze/editor-core-go/internal/engine/piece"
)

// Scenario 1 from spec.md §8: text "a👋b\n", LSP (UTF-16) range
// (0,1)..(0,3) maps to char offsets (1, 2) — the emoji is one char but two
// UTF-16 units.
func TestUTF16RangeToCharOffsets(t *testing.T) {
	tb := piece.NewFromString("a👋b\n")
	ix := Build(tb.GetText())

	start := ix.PositionUTF16ToCharOffset(PositionUTF16{Line: 0, Column: 1}, tb)
	end := ix.PositionUTF16ToCharOffset(PositionUTF16{Line: 0, Column: 3}, tb)
	if start != 1 || end != 2 {
		t.Fatalf("range = (%d, %d), want (1, 2)", start, end)
	}
}

func TestUTF16RoundTrip(t *testing.T) {
	tb := piece.NewFromString("ascii\nx👋y\n")
	ix := Build(tb.GetText())

	for _, off := range []piece.Offset{0, 3, 6, 7, 8, 9} {
		pos := ix.CharOffsetToPositionUTF16(off, tb)
		back := ix.PositionUTF16ToCharOffset(pos, tb)
		if back != off {
			t.Fatalf("round trip %d -> %+v -> %d", off, pos, back)
		}
	}
}

func TestUTF16ASCIIFastPathClamps(t *testing.T) {
	tb := piece.NewFromString("ab")
	ix := Build(tb.GetText())
	if got := ix.PositionUTF16ToCharOffset(PositionUTF16{Line: 0, Column: 99}, tb); got != 2 {
		t.Fatalf("clamped offset = %d, want 2", got)
	}
}
