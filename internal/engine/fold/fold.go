// Package fold implements the folding manager: user and derived fold-region
// sets, anchored by char offset so regions survive edits without per-region
// line rescans, and a visible-line projection for the snapshot generator.
//
// Grounded on spec.md §9's anchor-stability design note and the
// ProcessingEdit::ReplaceFoldingRegions shape implied by
// original_source/crates/editor-core/src/processing.rs; the teacher has no
// folding concept of its own, so this is written fresh in the teacher's
// general style of small owned-state managers with explicit invalidation
// (cf. internal/renderer/layout/cache.go's ShiftLines).
package fold

import (
	"github.com/windoze/editor-core-go/internal/engine/lineindex"
	"github.com/windoze/editor-core-go/internal/engine/piece"
)

// Region is a line-range fold, possibly collapsed.
type Region struct {
	StartLine int
	EndLine   int
	Collapsed bool
}

// anchored pairs a region with its char-offset anchors, which are the
// source of truth across edits; StartLine/EndLine are re-derived from the
// line index after every mutation.
type anchored struct {
	startChar piece.Offset
	endChar   piece.Offset
	collapsed bool
}

// Manager owns the user and derived fold-region sets for one document.
type Manager struct {
	user    []anchored
	derived []anchored
}

// NewManager returns an empty folding manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add creates a new user fold region spanning [startLine, endLine],
// anchored against ix. Regions within the user set may not straddle an
// existing region; overlapping requests are rejected by returning false.
func (m *Manager) Add(ix *lineindex.Index, startLine, endLine int) bool {
	if endLine < startLine {
		startLine, endLine = endLine, startLine
	}
	for _, a := range m.user {
		sl, el := regionLines(ix, a)
		if rangesOverlap(startLine, endLine, sl, el) {
			return false
		}
	}
	sc := ix.LineToCharOffset(startLine)
	ec := lineEndCharOffset(ix, endLine)
	m.user = append(m.user, anchored{startChar: sc, endChar: ec})
	return true
}

// RemoveAt removes any user fold region whose start line equals line.
func (m *Manager) RemoveAt(ix *lineindex.Index, line int) bool {
	for i, a := range m.user {
		sl, _ := regionLines(ix, a)
		if sl == line {
			m.user = append(m.user[:i], m.user[i+1:]...)
			return true
		}
	}
	return false
}

// Toggle flips the collapsed flag of the user region starting at line, or
// does nothing if none exists.
func (m *Manager) Toggle(ix *lineindex.Index, line int) bool {
	for i, a := range m.user {
		sl, _ := regionLines(ix, a)
		if sl == line {
			m.user[i].collapsed = !m.user[i].collapsed
			return true
		}
	}
	return false
}

// Fold sets the collapsed flag true for the user region starting at line.
func (m *Manager) Fold(ix *lineindex.Index, line int) bool {
	return m.setCollapsed(ix, line, true)
}

// Unfold sets the collapsed flag false for the user region starting at line.
func (m *Manager) Unfold(ix *lineindex.Index, line int) bool {
	return m.setCollapsed(ix, line, false)
}

func (m *Manager) setCollapsed(ix *lineindex.Index, line int, collapsed bool) bool {
	for i, a := range m.user {
		sl, _ := regionLines(ix, a)
		if sl == line {
			m.user[i].collapsed = collapsed
			return true
		}
	}
	return false
}

// Shift propagates an edit delta to every anchored region's char offsets,
// mirroring interval.Tree.Shift: offsets at or after pivot move by delta.
// Unlike style intervals, a fold region whose anchors collapse to a
// negative span (end before start) after a deletion is dropped rather than clipped,
// since a fold needs at least one line of extent to mean anything.
func (m *Manager) Shift(pivot piece.Offset, delta int) {
	m.user = shiftAnchors(m.user, pivot, delta)
	m.derived = shiftAnchors(m.derived, pivot, delta)
}

func shiftAnchors(anchors []anchored, pivot piece.Offset, delta int) []anchored {
	out := anchors[:0]
	for _, a := range anchors {
		if a.startChar >= pivot {
			a.startChar += piece.Offset(delta)
		}
		if a.endChar >= pivot {
			a.endChar += piece.Offset(delta)
		}
		if a.startChar < 0 {
			a.startChar = 0
		}
		if a.endChar < a.startChar {
			continue // collapsed to nothing by a deletion spanning the region
		}
		out = append(out, a)
	}
	return out
}

// ReplaceDerived replaces the derived region set wholesale. When
// preserveCollapsed is true, any new region whose (startLine, endLine)
// equals an existing collapsed derived region inherits its collapsed flag.
func (m *Manager) ReplaceDerived(ix *lineindex.Index, regions []Region, preserveCollapsed bool) {
	prevCollapsed := make(map[[2]int]bool)
	if preserveCollapsed {
		for _, a := range m.derived {
			if a.collapsed {
				sl, el := regionLines(ix, a)
				prevCollapsed[[2]int{sl, el}] = true
			}
		}
	}

	next := make([]anchored, 0, len(regions))
	for _, r := range regions {
		startLine, endLine := r.StartLine, r.EndLine
		if endLine < startLine {
			startLine, endLine = endLine, startLine
		}
		collapsed := r.Collapsed
		if preserveCollapsed && prevCollapsed[[2]int{startLine, endLine}] {
			collapsed = true
		}
		next = append(next, anchored{
			startChar: ix.LineToCharOffset(startLine),
			endChar:   lineEndCharOffset(ix, endLine),
			collapsed: collapsed,
		})
	}
	m.derived = next
}

// ClearDerived removes all derived regions.
func (m *Manager) ClearDerived() {
	m.derived = nil
}

// Rederive re-derives line numbers for every anchored region from ix, after
// the document's text has changed underneath the folding manager. Stored
// anchors (char offsets) are authoritative; this is a read-only projection.
func (m *Manager) Rederive(ix *lineindex.Index) {
	// No-op by construction: anchors live in char-offset space and the
	// exported Regions accessors call regionLines(ix, ...) to project to
	// lines on every read, so there is nothing to mutate here. Rederive
	// exists as an explicit call site for hosts that want to force a
	// refresh after an edit, matching the invalidate-then-query style of
	// renderer/layout/cache.go.
	_ = ix
}

// UserRegions returns the user fold regions, with line numbers freshly
// derived from ix.
func (m *Manager) UserRegions(ix *lineindex.Index) []Region {
	return project(ix, m.user)
}

// DerivedRegions returns the derived fold regions, with line numbers
// freshly derived from ix.
func (m *Manager) DerivedRegions(ix *lineindex.Index) []Region {
	return project(ix, m.derived)
}

func project(ix *lineindex.Index, anchors []anchored) []Region {
	out := make([]Region, 0, len(anchors))
	for _, a := range anchors {
		sl, el := regionLines(ix, a)
		out = append(out, Region{StartLine: sl, EndLine: el, Collapsed: a.collapsed})
	}
	return out
}

func regionLines(ix *lineindex.Index, a anchored) (startLine, endLine int) {
	startLine = ix.CharOffsetToPosition(a.startChar).Line
	endLine = ix.CharOffsetToPosition(a.endChar).Line
	return
}

func lineEndCharOffset(ix *lineindex.Index, line int) piece.Offset {
	meta := ix.Line(line)
	return meta.StartChar + meta.CharLen
}

func rangesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart <= bEnd && bStart <= aEnd
}

// VisibleLines returns the set of visible logical lines (all lines except
// those strictly inside a collapsed region) and, for each collapsed
// region's start line, a marker that a fold placeholder cell should be
// appended after its content.
func (m *Manager) VisibleLines(ix *lineindex.Index, lineCount int) (visible []bool, placeholder []bool) {
	visible = make([]bool, lineCount)
	placeholder = make([]bool, lineCount)
	for i := range visible {
		visible[i] = true
	}

	apply := func(anchors []anchored) {
		for _, a := range anchors {
			if !a.collapsed {
				continue
			}
			sl, el := regionLines(ix, a)
			if sl < 0 || sl >= lineCount {
				continue
			}
			if el >= lineCount {
				el = lineCount - 1
			}
			placeholder[sl] = true
			for l := sl + 1; l <= el; l++ {
				visible[l] = false
			}
		}
	}
	apply(m.user)
	apply(m.derived)
	return visible, placeholder
}
