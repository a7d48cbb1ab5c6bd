// Package process defines the derived-state application protocol: the
// ProcessingEdit variants external producers hand back to the kernel, and
// the DocumentProcessor extension point that syntax engines, LSP bridges,
// and indexers implement (spec.md §4.10, §6).
//
// Grounded on original_source/crates/editor-core/src/processing.rs's
// ProcessingEdit enum and DocumentProcessor trait, widened to the full set
// of derived-state kinds this kernel owns.
package process

import (
	"github.com/windoze/editor-core-go/internal/engine/decoration"
	"github.com/windoze/editor-core-go/internal/engine/delta"
	"github.com/windoze/editor-core-go/internal/engine/fold"
	"github.com/windoze/editor-core-go/internal/engine/interval"
)

// EditKind tags which ProcessingEdit variant is carried.
type EditKind uint8

const (
	ReplaceStyleLayer EditKind = iota
	ClearStyleLayer
	ReplaceFoldingRegions
	ClearFoldingRegions
	ReplaceDecorations
	ClearDecorations
	ReplaceDiagnostics
	ClearDiagnostics
	ReplaceDocumentSymbols
	ClearDocumentSymbols
)

// ProcessingEdit is one atomic derived-state replacement. Only the fields
// relevant to Kind are read.
type ProcessingEdit struct {
	Kind EditKind

	StyleLayer interval.LayerID
	Intervals  []interval.Interval

	FoldRegions       []fold.Region
	PreserveCollapsed bool

	DecorationLayer decoration.LayerID
	Decorations     []decoration.Decoration

	Diagnostics []decoration.Diagnostic

	Outline []decoration.DocumentSymbol
}

// State is the read surface a DocumentProcessor sees: enough to recompute
// derived layers incrementally without reaching into the document's
// mutable internals.
type State interface {
	// Text returns the full current document text.
	Text() string
	// Version returns the document's monotonic version counter.
	Version() uint64
	// LastDelta returns the TextDelta of the most recent edit, or nil when
	// the document has not been edited; it is not reset when a processor
	// runs.
	LastDelta() *delta.TextDelta
}

// DocumentProcessor is the contract for external derived-state producers.
// Process observes state and returns the edits to apply; it must not
// re-enter the document (spec.md §5).
type DocumentProcessor interface {
	Process(state State) []ProcessingEdit
}
