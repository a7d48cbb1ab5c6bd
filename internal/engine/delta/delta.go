// Package delta defines TextDelta, the wire-shaped record of a set of
// primitive text edits that transform a document's pre-state into its
// post-state (spec.md §6's text-delta schema, §4.9). It is grounded on the
// teacher's internal/engine/tracking.Change/ChangeSet, generalized from
// byte offsets to char offsets and reshaped to the spec's exact
// {start, deleted_text, inserted_text} edit record instead of the
// teacher's Type/Range/NewRange/RevisionID fields.
package delta

import (
	"fmt"
	"strings"

	"github.com/windoze/editor-core-go/internal/engine/piece"
)

// Edit is one primitive edit within a TextDelta: replace the length of
// DeletedText starting at Start (in the pre-edit document) with
// InsertedText.
type Edit struct {
	Start        piece.Offset
	DeletedText  string
	InsertedText string
}

// NewInsertEdit creates an edit representing a pure insertion.
func NewInsertEdit(at piece.Offset, text string) Edit {
	return Edit{Start: at, InsertedText: text}
}

// NewDeleteEdit creates an edit representing a pure deletion.
func NewDeleteEdit(at piece.Offset, deleted string) Edit {
	return Edit{Start: at, DeletedText: deleted}
}

// NewReplaceEdit creates an edit representing a replacement.
func NewReplaceEdit(at piece.Offset, deleted, inserted string) Edit {
	return Edit{Start: at, DeletedText: deleted, InsertedText: inserted}
}

// IsInsert reports whether e is a pure insertion.
func (e Edit) IsInsert() bool {
	return e.DeletedText == "" && e.InsertedText != ""
}

// IsDelete reports whether e is a pure deletion.
func (e Edit) IsDelete() bool {
	return e.DeletedText != "" && e.InsertedText == ""
}

// CharDelta returns the change in char count contributed by this edit.
func (e Edit) CharDelta() int {
	return runeLen(e.InsertedText) - runeLen(e.DeletedText)
}

// End returns the offset one past the deleted span, in the pre-edit
// document.
func (e Edit) End() piece.Offset {
	return e.Start + piece.Offset(runeLen(e.DeletedText))
}

// Invert returns the edit that undoes e: the roles of DeletedText and
// InsertedText swap, and Start is unchanged since the inverse is computed
// at apply time against the post-edit document state where the inserted
// text now begins at the same offset (mirrors tracking.Change.Invert,
// generalized: the teacher also swaps Range/NewRange, which this package's
// flat Start-only shape doesn't need).
func (e Edit) Invert() Edit {
	return Edit{Start: e.Start, DeletedText: e.InsertedText, InsertedText: e.DeletedText}
}

func (e Edit) String() string {
	return fmt.Sprintf("Edit{start:%d, -%q, +%q}", e.Start, e.DeletedText, e.InsertedText)
}

func runeLen(s string) int {
	return len([]rune(s))
}

// TextDelta is the ordered set of edits, plus char-count bookends and an
// optional undo group id, transforming a document's before-state into its
// after-state (spec.md §6).
type TextDelta struct {
	BeforeCharCount int
	AfterCharCount  int
	Edits           []Edit
	UndoGroupID     uint64
	HasUndoGroupID  bool
}

// New returns an empty TextDelta bookended by the given char counts.
func New(beforeCharCount int) *TextDelta {
	return &TextDelta{BeforeCharCount: beforeCharCount, AfterCharCount: beforeCharCount}
}

// Add appends an edit and updates AfterCharCount.
func (d *TextDelta) Add(e Edit) {
	d.Edits = append(d.Edits, e)
	d.AfterCharCount += e.CharDelta()
}

// WithUndoGroupID attaches an undo group id and returns d for chaining.
func (d *TextDelta) WithUndoGroupID(id uint64) *TextDelta {
	d.UndoGroupID = id
	d.HasUndoGroupID = true
	return d
}

// IsEmpty reports whether the delta carries no edits.
func (d *TextDelta) IsEmpty() bool {
	return len(d.Edits) == 0
}

// Invert returns the TextDelta that undoes d: edits are inverted and
// reversed, and the before/after char counts swap. This matches the
// teacher's OperationList.Invert ordering (reverse application order).
func (d *TextDelta) Invert() *TextDelta {
	inv := &TextDelta{
		BeforeCharCount: d.AfterCharCount,
		AfterCharCount:  d.BeforeCharCount,
		UndoGroupID:     d.UndoGroupID,
		HasUndoGroupID:  d.HasUndoGroupID,
	}
	inv.Edits = make([]Edit, len(d.Edits))
	for i, e := range d.Edits {
		inv.Edits[len(d.Edits)-1-i] = e.Invert()
	}
	return inv
}

// Apply applies every edit in order to s and returns the resulting string.
// This is the reference projection used by the "applying a TextDelta's
// edits to the pre-state string yields the post-state string" invariant
// (spec.md §8); production code applies edits to the piece table directly
// rather than through string splicing.
func (d *TextDelta) Apply(s string) string {
	runes := []rune(s)
	for _, e := range d.Edits {
		start := int(e.Start)
		if start < 0 {
			start = 0
		}
		if start > len(runes) {
			start = len(runes)
		}
		delLen := runeLen(e.DeletedText)
		end := start + delLen
		if end > len(runes) {
			end = len(runes)
		}
		var b strings.Builder
		b.WriteString(string(runes[:start]))
		b.WriteString(e.InsertedText)
		b.WriteString(string(runes[end:]))
		runes = []rune(b.String())
	}
	return string(runes)
}

// Summary returns a human-readable description, in the style of the
// teacher's ChangeSet.Summary.
func (d *TextDelta) Summary() string {
	if d.IsEmpty() {
		return "no changes"
	}
	inserts, deletes, replaces := 0, 0, 0
	for _, e := range d.Edits {
		switch {
		case e.IsInsert():
			inserts++
		case e.IsDelete():
			deletes++
		default:
			replaces++
		}
	}
	var parts []string
	if inserts > 0 {
		parts = append(parts, fmt.Sprintf("%d inserts", inserts))
	}
	if deletes > 0 {
		parts = append(parts, fmt.Sprintf("%d deletes", deletes))
	}
	if replaces > 0 {
		parts = append(parts, fmt.Sprintf("%d replaces", replaces))
	}
	return strings.Join(parts, ", ")
}
