// Package cursor implements selections and multi-cursor sets, generalized
// from the teacher's internal/engine/cursor package (selection.go,
// cursors.go) from byte offsets to char offsets, and from Range/Point to
// lineindex.Position — this kernel addresses everything in Unicode scalar
// values (spec.md §3).
package cursor

import (
	"fmt"
	"sort"

	"github.com/windoze/editor-core-go/internal/engine/lineindex"
	"github.com/windoze/editor-core-go/internal/engine/piece"
)

// Offset is an alias for piece.Offset for convenience within this package.
type Offset = piece.Offset

// Position is an alias for lineindex.Position (line, column-in-chars).
type Position = lineindex.Position

// Selection represents a range of selected text in char-offset space.
// Anchor is where the selection started; Head is the current cursor
// position (where typing occurs). When Anchor == Head this is a caret.
// Selection is an immutable value type.
type Selection struct {
	Anchor Offset
	Head   Offset
	// PreferredX is the sticky visual column (in cells) used by vertical
	// motion (MoveVisualBy); -1 means "not set, recompute from Head".
	PreferredX int
}

// NewSelection creates a selection from anchor to head.
func NewSelection(anchor, head Offset) Selection {
	return Selection{Anchor: anchor, Head: head, PreferredX: -1}
}

// NewCaret creates a selection representing just a caret (no extent).
func NewCaret(offset Offset) Selection {
	return Selection{Anchor: offset, Head: offset, PreferredX: -1}
}

// IsEmpty returns true if the selection has no extent (a caret).
func (s Selection) IsEmpty() bool {
	return s.Anchor == s.Head
}

// Len returns the length of the selection in chars.
func (s Selection) Len() Offset {
	if s.Anchor <= s.Head {
		return s.Head - s.Anchor
	}
	return s.Anchor - s.Head
}

// Start returns the lower bound of the selection.
func (s Selection) Start() Offset {
	if s.Anchor <= s.Head {
		return s.Anchor
	}
	return s.Head
}

// End returns the upper bound of the selection.
func (s Selection) End() Offset {
	if s.Anchor >= s.Head {
		return s.Anchor
	}
	return s.Head
}

// IsForward reports whether the selection extends forward (head >= anchor).
func (s Selection) IsForward() bool {
	return s.Head >= s.Anchor
}

// IsBackward reports whether the selection extends backward (head < anchor).
func (s Selection) IsBackward() bool {
	return s.Head < s.Anchor
}

// Extend returns a new selection extended to offset; the anchor stays fixed.
func (s Selection) Extend(offset Offset) Selection {
	return Selection{Anchor: s.Anchor, Head: offset, PreferredX: -1}
}

// MoveTo returns a new collapsed selection (caret) at offset.
func (s Selection) MoveTo(offset Offset) Selection {
	return Selection{Anchor: offset, Head: offset, PreferredX: -1}
}

// MoveBy returns a new selection shifted by delta chars (both ends).
func (s Selection) MoveBy(delta int) Selection {
	return Selection{Anchor: s.Anchor + Offset(delta), Head: s.Head + Offset(delta), PreferredX: s.PreferredX}
}

// Collapse collapses the selection to a caret at the head.
func (s Selection) Collapse() Selection {
	return Selection{Anchor: s.Head, Head: s.Head, PreferredX: -1}
}

// CollapseToStart collapses the selection to its start position.
func (s Selection) CollapseToStart() Selection {
	start := s.Start()
	return Selection{Anchor: start, Head: start, PreferredX: -1}
}

// CollapseToEnd collapses the selection to its end position.
func (s Selection) CollapseToEnd() Selection {
	end := s.End()
	return Selection{Anchor: end, Head: end, PreferredX: -1}
}

// Flip returns a selection with anchor and head swapped.
func (s Selection) Flip() Selection {
	return Selection{Anchor: s.Head, Head: s.Anchor, PreferredX: -1}
}

// Normalize returns a forward selection (anchor <= head), canonicalizing
// direction as required by spec.md §4.2's post-mutation invariant.
func (s Selection) Normalize() Selection {
	if s.Anchor <= s.Head {
		return s
	}
	return Selection{Anchor: s.Head, Head: s.Anchor, PreferredX: s.PreferredX}
}

// Contains reports whether offset lies within [start, end).
func (s Selection) Contains(offset Offset) bool {
	return offset >= s.Start() && offset < s.End()
}

// ContainsInclusive reports whether offset lies within [start, end].
func (s Selection) ContainsInclusive(offset Offset) bool {
	return offset >= s.Start() && offset <= s.End()
}

// Overlaps reports whether two selections' ranges overlap.
func (s Selection) Overlaps(other Selection) bool {
	return s.Start() < other.End() && other.Start() < s.End()
}

// Touches reports whether two selections overlap or are adjacent.
func (s Selection) Touches(other Selection) bool {
	return s.Start() <= other.End() && other.Start() <= s.End()
}

// Merge merges two overlapping or adjacent selections into their forward
// union. Direction information from either input is not preserved.
func (s Selection) Merge(other Selection) Selection {
	start := s.Start()
	if other.Start() < start {
		start = other.Start()
	}
	end := s.End()
	if other.End() > end {
		end = other.End()
	}
	return Selection{Anchor: start, Head: end, PreferredX: -1}
}

// Clamp returns a selection clamped to the valid range [0, maxOffset].
func (s Selection) Clamp(maxOffset Offset) Selection {
	clamp := func(o Offset) Offset {
		if o < 0 {
			return 0
		}
		if o > maxOffset {
			return maxOffset
		}
		return o
	}
	return Selection{Anchor: clamp(s.Anchor), Head: clamp(s.Head), PreferredX: s.PreferredX}
}

// Shift propagates an edit delta to both ends of the selection, with the
// same contained/straddle semantics as interval.Tree.Shift: for a deletion
// (delta < 0) an end inside the deleted span [pivot, pivot-delta) moves to
// pivot, and any other end at or after pivot moves by delta.
func (s Selection) Shift(pivot Offset, delta int) Selection {
	move := func(o Offset) Offset {
		if o < pivot {
			return o
		}
		if delta < 0 && o < pivot+Offset(-delta) {
			return pivot
		}
		return o + Offset(delta)
	}
	a, h := move(s.Anchor), move(s.Head)
	if a < 0 {
		a = 0
	}
	if h < 0 {
		h = 0
	}
	return Selection{Anchor: a, Head: h, PreferredX: s.PreferredX}
}

// shiftOffsetForReplace moves a single offset through a replace edit that
// deletes [start, start+oldLen) and inserts insertedLen chars at start: an
// offset strictly inside the deleted span collapses to start, one at or
// after the deleted span's end shifts by the net char delta, and one
// before start is untouched. This mirrors the deleting-aware collapse
// logic in interval.Tree.Shift, generalized to a point instead of a range.
func shiftOffsetForReplace(o, start Offset, oldLen, insertedLen int) Offset {
	end := start + Offset(oldLen)
	switch {
	case o <= start:
		return o
	case o >= end:
		return o + Offset(insertedLen-oldLen)
	default:
		return start
	}
}

// ShiftForReplace propagates a replace-shaped edit (delete oldLen chars at
// start, insert insertedLen chars) to both ends of the selection.
func (s Selection) ShiftForReplace(start Offset, oldLen, insertedLen int) Selection {
	return Selection{
		Anchor:     shiftOffsetForReplace(s.Anchor, start, oldLen, insertedLen),
		Head:       shiftOffsetForReplace(s.Head, start, oldLen, insertedLen),
		PreferredX: s.PreferredX,
	}
}

// ToPosition converts this selection's endpoints to line/column positions.
func (s Selection) ToPosition(ix *lineindex.Index) (start, end, head Position) {
	return ix.CharOffsetToPosition(s.Start()), ix.CharOffsetToPosition(s.End()), ix.CharOffsetToPosition(s.Head)
}

// String returns a human-readable representation of the selection.
func (s Selection) String() string {
	if s.IsEmpty() {
		return fmt.Sprintf("Caret(%d)", s.Head)
	}
	dir := "->"
	if s.IsBackward() {
		dir = "<-"
	}
	return fmt.Sprintf("Selection(%d%s%d)", s.Anchor, dir, s.Head)
}

// Equals reports whether two selections have the same anchor and head.
func (s Selection) Equals(other Selection) bool {
	return s.Anchor == other.Anchor && s.Head == other.Head
}

// SameRange reports whether two selections cover the same range,
// regardless of direction.
func (s Selection) SameRange(other Selection) bool {
	return s.Start() == other.Start() && s.End() == other.End()
}

// CursorSet manages the primary plus zero or more secondary selections.
// Selections are kept sorted by range and non-overlapping; the element at
// primaryIdx is the primary selection (spec.md §4.2).
type CursorSet struct {
	selections []Selection
	primaryIdx int
}

// NewCursorSet creates a cursor set with a single selection as primary.
func NewCursorSet(initial Selection) *CursorSet {
	return &CursorSet{selections: []Selection{initial}}
}

// NewCursorSetAt creates a cursor set with a single caret at offset.
func NewCursorSetAt(offset Offset) *CursorSet {
	return &CursorSet{selections: []Selection{NewCaret(offset)}}
}

// NewCursorSetFromSlice creates a normalized cursor set from selections,
// keeping track of which input selection ends up primary via its head.
func NewCursorSetFromSlice(selections []Selection, primary int) *CursorSet {
	if len(selections) == 0 {
		return &CursorSet{selections: []Selection{NewCaret(0)}}
	}
	prevPrimaryHead := selections[0].Head
	if primary >= 0 && primary < len(selections) {
		prevPrimaryHead = selections[primary].Head
	}
	cs := &CursorSet{selections: append([]Selection(nil), selections...)}
	cs.normalize(prevPrimaryHead)
	return cs
}

// Primary returns the primary selection.
func (cs *CursorSet) Primary() Selection {
	if len(cs.selections) == 0 {
		return Selection{}
	}
	return cs.selections[cs.primaryIdx]
}

// PrimaryIndex returns the index of the primary selection.
func (cs *CursorSet) PrimaryIndex() int {
	return cs.primaryIdx
}

// All returns a copy of all selections, primary first would not generally
// hold (they are in range order) — callers needing the primary use
// Primary()/PrimaryIndex().
func (cs *CursorSet) All() []Selection {
	out := make([]Selection, len(cs.selections))
	copy(out, cs.selections)
	return out
}

// Count returns the number of selections.
func (cs *CursorSet) Count() int {
	return len(cs.selections)
}

// IsMulti reports whether there is more than one selection.
func (cs *CursorSet) IsMulti() bool {
	return len(cs.selections) > 1
}

// Get returns the selection at index, or the zero Selection if out of range.
func (cs *CursorSet) Get(index int) Selection {
	if index < 0 || index >= len(cs.selections) {
		return Selection{}
	}
	return cs.selections[index]
}

// Add adds a new selection, renormalizing (sort, merge overlaps).
func (cs *CursorSet) Add(sel Selection) {
	prevHead := cs.Primary().Head
	cs.selections = append(cs.selections, sel)
	cs.normalize(prevHead)
}

// AddAll adds multiple selections at once.
func (cs *CursorSet) AddAll(sels []Selection) {
	prevHead := cs.Primary().Head
	cs.selections = append(cs.selections, sels...)
	cs.normalize(prevHead)
}

// SetAll replaces all selections (e.g. SetSelections, SetRectSelection).
func (cs *CursorSet) SetAll(sels []Selection) {
	if len(sels) == 0 {
		cs.selections = []Selection{NewCaret(0)}
		cs.primaryIdx = 0
		return
	}
	cs.selections = append([]Selection(nil), sels...)
	cs.normalize(sels[len(sels)-1].Head)
}

// Set replaces all selections with a single selection (SetSelection).
func (cs *CursorSet) Set(sel Selection) {
	cs.selections = []Selection{sel}
	cs.primaryIdx = 0
}

// Clear collapses the set to only the primary selection.
func (cs *CursorSet) Clear() {
	if len(cs.selections) > 1 {
		primary := cs.selections[cs.primaryIdx]
		cs.selections = []Selection{primary}
		cs.primaryIdx = 0
	}
}

// RemoveAt removes the selection at index (for Escape-from-multicursor or
// explicit secondary-cursor removal). If this empties the set, a caret at
// 0 is substituted.
func (cs *CursorSet) RemoveAt(index int) {
	if index < 0 || index >= len(cs.selections) {
		return
	}
	cs.selections = append(cs.selections[:index], cs.selections[index+1:]...)
	if len(cs.selections) == 0 {
		cs.selections = []Selection{NewCaret(0)}
		cs.primaryIdx = 0
		return
	}
	if cs.primaryIdx >= len(cs.selections) {
		cs.primaryIdx = len(cs.selections) - 1
	}
}

// ForEach calls f for each selection with its index, in range order.
func (cs *CursorSet) ForEach(f func(index int, sel Selection)) {
	for i, sel := range cs.selections {
		f(i, sel)
	}
}

// MapInPlace applies f to every selection and renormalizes.
func (cs *CursorSet) MapInPlace(f func(sel Selection) Selection) {
	prevHead := cs.Primary().Head
	for i, sel := range cs.selections {
		cs.selections[i] = f(sel)
	}
	cs.normalize(prevHead)
}

// HasSelection reports whether any selection has extent.
func (cs *CursorSet) HasSelection() bool {
	for _, sel := range cs.selections {
		if !sel.IsEmpty() {
			return true
		}
	}
	return false
}

// CollapseAll collapses every selection to a caret at its head.
func (cs *CursorSet) CollapseAll() {
	prevHead := cs.Primary().Head
	for i, sel := range cs.selections {
		cs.selections[i] = sel.Collapse()
	}
	cs.normalize(prevHead)
}

// Clamp clamps every selection to [0, maxOffset].
func (cs *CursorSet) Clamp(maxOffset Offset) {
	prevHead := cs.Primary().Head
	for i, sel := range cs.selections {
		cs.selections[i] = sel.Clamp(maxOffset)
	}
	cs.normalize(prevHead)
}

// Shift propagates an edit delta to every selection's endpoints, mirroring
// interval.Tree.Shift, then renormalizes.
func (cs *CursorSet) Shift(pivot Offset, delta int) {
	prevHead := cs.Primary().Head
	for i, sel := range cs.selections {
		cs.selections[i] = sel.Shift(pivot, delta)
	}
	cs.normalize(prevHead)
}

// ShiftForReplace propagates a replace-shaped edit to every selection,
// then renormalizes.
func (cs *CursorSet) ShiftForReplace(start Offset, oldLen, insertedLen int) {
	prevHead := cs.Primary().Head
	for i, sel := range cs.selections {
		cs.selections[i] = sel.ShiftForReplace(start, oldLen, insertedLen)
	}
	cs.normalize(prevHead)
}

// Clone returns a deep copy of the cursor set.
func (cs *CursorSet) Clone() *CursorSet {
	clone := &CursorSet{
		selections: make([]Selection, len(cs.selections)),
		primaryIdx: cs.primaryIdx,
	}
	copy(clone.selections, cs.selections)
	return clone
}

// Ranges returns every selection's (start, end) range, in range order.
func (cs *CursorSet) Ranges() []Selection {
	return cs.All()
}

// DescendingRanges returns selections ordered by descending Start, the
// order required for multi-caret edit application so earlier edits don't
// invalidate the offsets of later ones (teacher's
// internal/engine/history/command.go descending-offset pattern).
func (cs *CursorSet) DescendingRanges() []Selection {
	out := cs.All()
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start() > out[j].Start()
	})
	return out
}

// normalize sorts selections by range, merges overlapping/adjacent ones
// into their Forward union, and recomputes the primary index by locating
// the (possibly merged) selection whose range contains prevPrimaryHead —
// mirroring original_source/crates/editor-core/src/selection_set.rs's
// normalize_selections.
func (cs *CursorSet) normalize(prevPrimaryHead Offset) {
	if len(cs.selections) == 0 {
		cs.selections = []Selection{NewCaret(0)}
		cs.primaryIdx = 0
		return
	}
	sort.Slice(cs.selections, func(i, j int) bool {
		si, sj := cs.selections[i].Start(), cs.selections[j].Start()
		if si != sj {
			return si < sj
		}
		return cs.selections[i].End() > cs.selections[j].End()
	})

	merged := cs.selections[:1]
	for _, sel := range cs.selections[1:] {
		last := &merged[len(merged)-1]
		if sel.Start() <= last.End() {
			*last = last.Merge(sel)
		} else {
			merged = append(merged, sel)
		}
	}
	cs.selections = merged

	cs.primaryIdx = 0
	for i, sel := range cs.selections {
		if prevPrimaryHead >= sel.Start() && prevPrimaryHead <= sel.End() {
			cs.primaryIdx = i
			break
		}
		if sel.Start() <= prevPrimaryHead {
			cs.primaryIdx = i
		}
	}
}

// Equals reports whether two cursor sets have the same selections and
// primary index.
func (cs *CursorSet) Equals(other *CursorSet) bool {
	if other == nil || cs.Count() != other.Count() || cs.primaryIdx != other.primaryIdx {
		return false
	}
	for i, sel := range cs.selections {
		if !sel.Equals(other.selections[i]) {
			return false
		}
	}
	return true
}

// ExpandRect expands an anchor/active column pair into one selection per
// covered line, matching selection_set.rs::rect_selections (SPEC_FULL.md
// §12's rectangular-selection supplement). Columns are char columns; lines
// with fewer columns than the rectangle's near edge get a caret at
// end-of-line rather than being skipped.
func ExpandRect(ix *lineindex.Index, anchor, active Position) []Selection {
	startLine, endLine := anchor.Line, active.Line
	if startLine > endLine {
		startLine, endLine = endLine, startLine
	}
	loCol, hiCol := anchor.Column, active.Column
	if loCol > hiCol {
		loCol, hiCol = hiCol, loCol
	}

	out := make([]Selection, 0, endLine-startLine+1)
	for line := startLine; line <= endLine; line++ {
		if line < 0 || line >= ix.LineCount() {
			continue
		}
		meta := ix.Line(line)
		lineLen := int(meta.CharLen)
		a, h := loCol, hiCol
		if a > lineLen {
			a = lineLen
		}
		if h > lineLen {
			h = lineLen
		}
		// Preserve the original gesture's direction: anchor column first.
		if anchor.Column > active.Column {
			a, h = h, a
		}
		startChar := meta.StartChar + piece.Offset(a)
		endChar := meta.StartChar + piece.Offset(h)
		out = append(out, Selection{Anchor: startChar, Head: endChar, PreferredX: -1})
	}
	return out
}
