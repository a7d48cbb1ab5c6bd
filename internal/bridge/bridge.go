// Package bridge demonstrates the DocumentProcessor extension point: a
// small self-contained processor that computes derived state from document
// text, plus JSON debug rendering of deltas and processing edits for the
// kernelctl harness. Real syntax engines and LSP bridges plug in exactly
// the same way, as out-of-core collaborators.
package bridge

import (
	"strconv"
	"strings"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/windoze/editor-core-go/internal/engine/delta"
	"github.com/windoze/editor-core-go/internal/engine/interval"
	"github.com/windoze/editor-core-go/internal/engine/piece"
	"github.com/windoze/editor-core-go/internal/engine/process"
)

// Highlighter is a reference DocumentProcessor: it tags every occurrence of
// Needle with Style on its own layer. It recomputes from full text on every
// run; an incremental engine would consult state.LastDelta instead.
type Highlighter struct {
	Layer  interval.LayerID
	Needle string
	Style  interval.StyleID
}

// Process scans the document and replaces the highlighter's layer.
func (h *Highlighter) Process(state process.State) []process.ProcessingEdit {
	if h.Needle == "" {
		return []process.ProcessingEdit{{Kind: process.ClearStyleLayer, StyleLayer: h.Layer}}
	}

	text := state.Text()
	needleChars := len([]rune(h.Needle))
	var ivs []interval.Interval

	charOff := piece.Offset(0)
	for {
		idx := strings.Index(text, h.Needle)
		if idx < 0 {
			break
		}
		charOff += piece.Offset(len([]rune(text[:idx])))
		ivs = append(ivs, interval.Interval{
			Start: charOff,
			End:   charOff + piece.Offset(needleChars),
			Style: h.Style,
		})
		charOff += piece.Offset(needleChars)
		text = text[idx+len(h.Needle):]
	}

	return []process.ProcessingEdit{{
		Kind:       process.ReplaceStyleLayer,
		StyleLayer: h.Layer,
		Intervals:  ivs,
	}}
}

// DeltaJSON renders a TextDelta as pretty-printed JSON in the external
// text-delta schema, for debug output.
func DeltaJSON(d *delta.TextDelta) string {
	out := "{}"
	out, _ = sjson.Set(out, "before_char_count", d.BeforeCharCount)
	out, _ = sjson.Set(out, "after_char_count", d.AfterCharCount)
	out, _ = sjson.SetRaw(out, "edits", "[]")
	for i, e := range d.Edits {
		base := "edits." + strconv.Itoa(i)
		out, _ = sjson.Set(out, base+".start", int(e.Start))
		out, _ = sjson.Set(out, base+".deleted_text", e.DeletedText)
		out, _ = sjson.Set(out, base+".inserted_text", e.InsertedText)
	}
	if d.HasUndoGroupID {
		out, _ = sjson.Set(out, "undo_group_id", d.UndoGroupID)
	}
	return string(pretty.Pretty([]byte(out)))
}

// EditsJSON renders a ProcessingEdit batch summary as pretty-printed JSON.
func EditsJSON(edits []process.ProcessingEdit) string {
	out := "[]"
	for i, e := range edits {
		base := strconv.Itoa(i)
		out, _ = sjson.Set(out, base+".kind", int(e.Kind))
		switch e.Kind {
		case process.ReplaceStyleLayer:
			out, _ = sjson.Set(out, base+".layer", uint32(e.StyleLayer))
			out, _ = sjson.Set(out, base+".intervals", len(e.Intervals))
		case process.ReplaceFoldingRegions:
			out, _ = sjson.Set(out, base+".regions", len(e.FoldRegions))
		case process.ReplaceDecorations:
			out, _ = sjson.Set(out, base+".layer", uint32(e.DecorationLayer))
			out, _ = sjson.Set(out, base+".decorations", len(e.Decorations))
		case process.ReplaceDiagnostics:
			out, _ = sjson.Set(out, base+".diagnostics", len(e.Diagnostics))
		case process.ReplaceDocumentSymbols:
			out, _ = sjson.Set(out, base+".symbols", len(e.Outline))
		}
	}
	return string(pretty.Pretty([]byte(out)))
}
