package bridge

import (
	"strings"
	"testing"

	"github.com/windoze/editor-core-go/internal/engine/command"
	"github.com/windoze/editor-core-go/internal/engine/document"
	"github.com/windoze/editor-core-go/internal/engine/process"
)

func TestHighlighterFindsCharOffsets(t *testing.T) {
	// The needle after a multi-byte rune must still be addressed in chars.
	doc := document.New("日foo bar foo")
	h := &Highlighter{Layer: 0x0100, Needle: "foo", Style: 3}

	edits := h.Process(doc)
	if len(edits) != 1 || edits[0].Kind != process.ReplaceStyleLayer {
		t.Fatalf("edits = %+v", edits)
	}
	ivs := edits[0].Intervals
	if len(ivs) != 2 {
		t.Fatalf("intervals = %+v, want 2", ivs)
	}
	if ivs[0].Start != 1 || ivs[0].End != 4 {
		t.Fatalf("first match = [%d, %d), want [1, 4)", ivs[0].Start, ivs[0].End)
	}
	if ivs[1].Start != 9 || ivs[1].End != 12 {
		t.Fatalf("second match = [%d, %d), want [9, 12)", ivs[1].Start, ivs[1].End)
	}

	doc.ApplyProcessingEdits(edits)
	state := doc.GetStyleState()
	for _, li := range state {
		if li.Layer == 0x0100 && len(li.Intervals) == 2 {
			return
		}
	}
	t.Fatalf("layer not applied: %+v", state)
}

func TestHighlighterEmptyNeedleClears(t *testing.T) {
	doc := document.New("x")
	h := &Highlighter{Layer: 1}
	edits := h.Process(doc)
	if len(edits) != 1 || edits[0].Kind != process.ClearStyleLayer {
		t.Fatalf("edits = %+v", edits)
	}
}

func TestDeltaJSONSchema(t *testing.T) {
	doc := document.New("ab")
	res := doc.Dispatch(command.Command{Kind: command.KindInsertText, Text: "x"})
	if res.Delta == nil {
		t.Fatalf("no delta: %+v", res)
	}
	out := DeltaJSON(res.Delta)
	for _, field := range []string{"before_char_count", "after_char_count", "edits", "inserted_text", "undo_group_id"} {
		if !strings.Contains(out, field) {
			t.Fatalf("missing %q in %s", field, out)
		}
	}
}
