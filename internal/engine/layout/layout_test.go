package layout

import "testing"

func TestLayoutNoWrap(t *testing.T) {
	segs := Layout("hello", 0, Config{Width: 80, TabWidth: 4, WrapMode: WrapNone})
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Width != 5 {
		t.Fatalf("width = %d, want 5", segs[0].Width)
	}
}

// Scenario 2 from spec.md §8: "    abcdefgh", width 6, SameAsLineIndent.
func TestSameAsLineIndentViewportRows(t *testing.T) {
	line := "    abcdefgh"
	cfg := Config{Width: 6, TabWidth: 4, WrapMode: WrapAnyChar, WrapIndentMode: WrapIndentSameAsLineIndent}
	segs := Layout(line, 0, cfg)

	var rows []string
	runes := []rune(line)
	for _, s := range segs {
		start := int(s.StartChar)
		end := int(s.EndChar)
		text := string(runes[start:end])
		pad := ""
		for i := 0; i < s.WrapIndent; i++ {
			pad += " "
		}
		rows = append(rows, pad+text)
	}
	want := []string{"    ab", "    cd", "    ef", "    gh"}
	if len(rows) != len(want) {
		t.Fatalf("rows = %v, want %v", rows, want)
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Fatalf("row %d = %q, want %q", i, rows[i], want[i])
		}
	}
}

func TestWideCharWidth(t *testing.T) {
	segs := Layout("a日b", 0, Config{Width: 80, TabWidth: 4, WrapMode: WrapNone})
	if segs[0].Width != 4 { // a(1) + 日(2) + b(1)
		t.Fatalf("width = %d, want 4", segs[0].Width)
	}
}

func TestLogicalVisualRoundTrip(t *testing.T) {
	line := "    abcdefgh"
	cfg := Config{Width: 6, TabWidth: 4, WrapMode: WrapAnyChar, WrapIndentMode: WrapIndentSameAsLineIndent}
	segs := Layout(line, 0, cfg)

	for col := 0; col <= len([]rune(line)); col++ {
		row, x := LogicalToVisual(line, cfg.TabWidth, segs, col)
		back := VisualToLogical(line, cfg.TabWidth, segs, row, x)
		if back != col {
			// Only acceptable divergence: col landed inside the wrap-indent
			// prefix of a non-first segment, which clamps to segment start.
			segStart := int(segs[row].StartChar - segs[0].StartChar)
			if !(col == segStart) {
				t.Fatalf("round trip col=%d -> (row=%d,x=%d) -> %d", col, row, x, back)
			}
		}
	}
}

func TestWordBoundaryWrapFallsBackToAnyChar(t *testing.T) {
	// A single long unbreakable token longer than the width must still wrap.
	line := "aaaaaaaaaaaaaaaaaaaa"
	cfg := Config{Width: 5, TabWidth: 4, WrapMode: WrapWordBoundary}
	segs := Layout(line, 0, cfg)
	if len(segs) < 4 {
		t.Fatalf("expected multiple segments, got %d", len(segs))
	}
}
