// Package decoration holds the derived, host-agnostic collections anchored
// in char offsets or organized hierarchically: decorations (virtual text),
// diagnostics, and document/workspace symbols (spec.md §3).
//
// Grounded field-for-field on original_source/crates/editor-core/src/
// decorations.rs, diagnostics.rs, and symbols.rs; the opaque per-item JSON
// payload is carried via internal/engine/payload (tidwall/gjson+sjson), and
// workspace-symbol fuzzy filtering uses tidwall/match, mirroring
// symbols.rs's search surface.
package decoration

import (
	"github.com/tidwall/match"

	"github.com/windoze/editor-core-go/internal/engine/payload"
	"github.com/windoze/editor-core-go/internal/engine/piece"
)

// Placement selects where a decoration's virtual content renders relative
// to its anchor.
type Placement uint8

const (
	PlacementBefore Placement = iota
	PlacementAfter
	PlacementAboveLine
)

// LayerID identifies a decoration layer, analogous to interval.LayerID.
type LayerID uint32

// Decoration is a piece of virtual text or visual marker anchored to a
// char-offset range.
type Decoration struct {
	ID        uint64
	Anchor    piece.Offset // for a zero-length anchor, Start == End
	AnchorEnd piece.Offset
	Placement Placement
	Kind      string
	Text      string
	StyleIDs  []uint32
	Tooltip   string
	Payload   payload.Payload
}

// Severity classifies a diagnostic.
type Severity uint8

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityHint
)

// Diagnostic is anchored to a char-offset range in one document.
type Diagnostic struct {
	ID       uint64
	Start    piece.Offset
	End      piece.Offset
	Severity Severity
	Source   string
	Code     string
	Message  string
	Payload  payload.Payload
}

// SymbolKind classifies a DocumentSymbol/WorkspaceSymbol, following the
// naming vocabulary shared by LSP-shaped Go implementations in
// other_examples/ (used only for naming inspiration, never imported).
type SymbolKind uint8

const (
	SymbolKindFile SymbolKind = iota + 1
	SymbolKindModule
	SymbolKindNamespace
	SymbolKindPackage
	SymbolKindClass
	SymbolKindMethod
	SymbolKindProperty
	SymbolKindField
	SymbolKindConstructor
	SymbolKindEnum
	SymbolKindInterface
	SymbolKindFunction
	SymbolKindVariable
	SymbolKindConstant
	SymbolKindStruct
)

// DocumentSymbol is a node in a document's hierarchical outline.
type DocumentSymbol struct {
	Name           string
	Kind           SymbolKind
	Detail         string
	Start          piece.Offset
	End            piece.Offset
	SelectionStart piece.Offset
	SelectionEnd   piece.Offset
	Children       []DocumentSymbol
}

// WorkspaceSymbol is a flat cross-file symbol entry.
type WorkspaceSymbol struct {
	Name          string
	Kind          SymbolKind
	ContainerName string
	URI           string
	Start         piece.Offset
	End           piece.Offset
}

// DecorationLayer owns one layer's decorations, keyed by LayerID at the
// Store level.
type DecorationLayer struct {
	items []Decoration
}

// Store owns all derived decoration/diagnostic/symbol state for one
// document.
type Store struct {
	layers      map[LayerID]*DecorationLayer
	layerOrder  []LayerID
	diagnostics []Diagnostic
	outline     []DocumentSymbol
	workspace   []WorkspaceSymbol
}

// NewStore returns an empty derived-state store.
func NewStore() *Store {
	return &Store{layers: make(map[LayerID]*DecorationLayer)}
}

func (s *Store) layer(id LayerID) *DecorationLayer {
	l, ok := s.layers[id]
	if !ok {
		l = &DecorationLayer{}
		s.layers[id] = l
		s.layerOrder = append(s.layerOrder, id)
	}
	return l
}

// ReplaceDecorations atomically swaps one layer's decorations.
func (s *Store) ReplaceDecorations(id LayerID, decs []Decoration) {
	s.layer(id).items = decs
}

// ClearDecorations empties one layer.
func (s *Store) ClearDecorations(id LayerID) {
	if l, ok := s.layers[id]; ok {
		l.items = nil
	}
}

// Decorations returns a layer's decorations.
func (s *Store) Decorations(id LayerID) []Decoration {
	if l, ok := s.layers[id]; ok {
		return l.items
	}
	return nil
}

// DecorationsInRange returns every decoration across every layer whose
// anchor intersects [a, b), layer ids in insertion order.
func (s *Store) DecorationsInRange(a, b piece.Offset) []Decoration {
	var out []Decoration
	for _, id := range s.layerOrder {
		for _, d := range s.layers[id].items {
			end := d.AnchorEnd
			if end < d.Anchor {
				end = d.Anchor
			}
			if d.Anchor < b && end >= a {
				out = append(out, d)
			}
		}
	}
	return out
}

// ShiftDecorations propagates an edit delta to every decoration anchor, in
// every layer. Offsets follow interval.Tree.Shift: for a deletion
// (delta < 0) an anchor inside the deleted span [pivot, pivot-delta) moves
// to pivot, and any other anchor at or after pivot moves by delta. Unlike
// Tree.Shift, a decoration lying wholly inside a deleted span is kept,
// collapsed to zero length at pivot.
func (s *Store) ShiftDecorations(pivot piece.Offset, delta int) {
	move := func(o piece.Offset) piece.Offset {
		if o < pivot {
			return o
		}
		if delta < 0 && o < pivot+piece.Offset(-delta) {
			return pivot
		}
		return o + piece.Offset(delta)
	}
	for _, l := range s.layers {
		for i := range l.items {
			d := &l.items[i]
			d.Anchor = move(d.Anchor)
			d.AnchorEnd = move(d.AnchorEnd)
			if d.Anchor < 0 {
				d.Anchor = 0
			}
			if d.AnchorEnd < d.Anchor {
				d.AnchorEnd = d.Anchor
			}
		}
	}
}

// ReplaceDiagnostics atomically swaps the diagnostic list.
func (s *Store) ReplaceDiagnostics(diags []Diagnostic) {
	s.diagnostics = diags
}

// ClearDiagnostics empties the diagnostic list.
func (s *Store) ClearDiagnostics() {
	s.diagnostics = nil
}

// Diagnostics returns the current diagnostic list.
func (s *Store) Diagnostics() []Diagnostic {
	return s.diagnostics
}

// ShiftDiagnostics propagates an edit delta to every diagnostic anchor.
func (s *Store) ShiftDiagnostics(pivot piece.Offset, delta int) {
	for i := range s.diagnostics {
		d := &s.diagnostics[i]
		if d.Start >= pivot {
			d.Start += piece.Offset(delta)
		}
		if d.End >= pivot {
			d.End += piece.Offset(delta)
		}
		if d.Start < 0 {
			d.Start = 0
		}
		if d.End < d.Start {
			d.End = d.Start
		}
	}
}

// ReplaceDocumentSymbols atomically swaps the document outline.
func (s *Store) ReplaceDocumentSymbols(outline []DocumentSymbol) {
	s.outline = outline
}

// ClearDocumentSymbols empties the document outline.
func (s *Store) ClearDocumentSymbols() {
	s.outline = nil
}

// DocumentSymbols returns the current outline.
func (s *Store) DocumentSymbols() []DocumentSymbol {
	return s.outline
}

// SetWorkspaceSymbols replaces the flat cross-file symbol registry. Unlike
// the per-document layers above, this is not part of StateChange
// broadcasting — it is populated by a workspace-wide indexer, not a
// per-document DocumentProcessor.
func (s *Store) SetWorkspaceSymbols(syms []WorkspaceSymbol) {
	s.workspace = syms
}

// SearchWorkspaceSymbols returns workspace symbols whose name matches the
// glob-style pattern (tidwall/match), or the pattern wrapped as
// "*"+pattern+"*" (so a plain pattern matches as a case-sensitive
// substring).
func (s *Store) SearchWorkspaceSymbols(pattern string) []WorkspaceSymbol {
	if pattern == "" {
		return s.workspace
	}
	var out []WorkspaceSymbol
	for _, sym := range s.workspace {
		if match.Match(sym.Name, pattern) || match.Match(sym.Name, "*"+pattern+"*") {
			out = append(out, sym)
		}
	}
	return out
}
