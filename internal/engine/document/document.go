// Package document assembles the whole engine around one text buffer: the
// piece table, line index, interval layers, folding manager, decoration
// store, cursor set, undo history, and command dispatcher, exposing the
// versioned observation surface and the derived-state inlet (spec.md §4.9,
// §4.10, §6).
//
// Grounded on the teacher's internal/engine/tracking (tracker.go's
// subscription/versioning shape) and internal/engine/buffer (options.go's
// functional-options idiom, doc.go's revision counter), re-centered on the
// char-offset TextDelta schema.
package document

import (
	"errors"
	"strings"

	"github.com/windoze/editor-core-go/internal/engine/command"
	"github.com/windoze/editor-core-go/internal/engine/cursor"
	"github.com/windoze/editor-core-go/internal/engine/decoration"
	"github.com/windoze/editor-core-go/internal/engine/delta"
	"github.com/windoze/editor-core-go/internal/engine/fold"
	"github.com/windoze/editor-core-go/internal/engine/history"
	"github.com/windoze/editor-core-go/internal/engine/interval"
	"github.com/windoze/editor-core-go/internal/engine/layout"
	"github.com/windoze/editor-core-go/internal/engine/lineindex"
	"github.com/windoze/editor-core-go/internal/engine/piece"
	"github.com/windoze/editor-core-go/internal/engine/process"
	"github.com/windoze/editor-core-go/internal/engine/snapshot"
)

// ErrUnknownView is returned when a view id has no registered view.
var ErrUnknownView = errors.New("document: unknown view")

// LineEnding is the preferred on-disk line ending, detected on load.
// Storage is always LF-only; the preference only affects GetTextForSaving.
type LineEnding uint8

const (
	LineEndingLF LineEnding = iota
	LineEndingCRLF
)

// ChangeType classifies a StateChange.
type ChangeType uint8

const (
	ChangeText ChangeType = iota
	ChangeSelection
	ChangeView
	ChangeStyle
	ChangeFolding
	ChangeDecorations
	ChangeDiagnostics
	ChangeSymbols
)

// StateChange is the event emitted to subscribers on every observable
// state transition.
type StateChange struct {
	OldVersion uint64
	NewVersion uint64
	Type       ChangeType
	Delta      *delta.TextDelta
}

// Subscriber observes state changes. Callbacks run inline on the emitting
// goroutine after the mutation has fully completed, and must not re-enter
// the document.
type Subscriber func(StateChange)

// View holds the per-view state several hosts may keep over one shared
// buffer: selections, layout config, and scroll position. View 0 always
// exists.
type View struct {
	ID      int
	Cursors *cursor.CursorSet
	Layout  layout.Config

	ScrollRow int
}

// Document owns one text buffer and all its derived state.
type Document struct {
	table       *piece.Table
	index       *lineindex.Index
	intervals   *interval.LayerSet
	folds       *fold.Manager
	decorations *decoration.Store
	history     *history.Stack
	dispatcher  *command.Dispatcher

	views      map[int]*View
	viewOrder  []int
	activeView int
	nextViewID int

	version    uint64
	lineEnding LineEnding
	modified   bool
	lastDelta  *delta.TextDelta

	subscribers []Subscriber
	pending     []StateChange
	draining    bool
}

// Option configures a Document at construction, in the teacher's
// functional-options idiom.
type Option func(*Document)

// WithTabWidth sets the tab width in cells.
func WithTabWidth(w int) Option {
	return func(d *Document) {
		if w > 0 {
			d.dispatcher.TabWidth = w
			d.dispatcher.Layout.TabWidth = w
		}
	}
}

// WithTabKeyBehavior selects tabs or spaces for the Indent command.
func WithTabKeyBehavior(b command.TabKeyBehavior) Option {
	return func(d *Document) { d.dispatcher.TabBehavior = b }
}

// WithViewportWidth sets the layout width in cells.
func WithViewportWidth(w int) Option {
	return func(d *Document) { d.dispatcher.Layout.Width = w }
}

// WithWrapMode selects the soft-wrap mode.
func WithWrapMode(m layout.WrapMode) Option {
	return func(d *Document) { d.dispatcher.Layout.WrapMode = m }
}

// WithWrapIndent selects the wrap-indent mode and its fixed width.
func WithWrapIndent(m layout.WrapIndentMode, n int) Option {
	return func(d *Document) {
		d.dispatcher.Layout.WrapIndentMode = m
		d.dispatcher.Layout.WrapIndentN = n
	}
}

// WithLineEnding overrides the line-ending preference detected on load.
func WithLineEnding(le LineEnding) Option {
	return func(d *Document) { d.lineEnding = le }
}

// New creates a document from initial text. CRLF/CR are normalized to LF in
// storage; input containing any "\r\n" tags the document CRLF-preferred.
func New(text string, opts ...Option) *Document {
	le := LineEndingLF
	if strings.Contains(text, "\r\n") {
		le = LineEndingCRLF
	}

	table := piece.NewFromString(text)
	index := lineindex.Build(table.GetText())
	intervals := interval.NewLayerSet()
	folds := fold.NewManager()
	decorations := decoration.NewStore()
	hist := history.NewStack(0)
	cursors := cursor.NewCursorSetAt(0)

	d := &Document{
		table:       table,
		index:       index,
		intervals:   intervals,
		folds:       folds,
		decorations: decorations,
		history:     hist,
		lineEnding:  le,
		views:       make(map[int]*View),
	}
	d.dispatcher = command.NewDispatcher(table, index, cursors, intervals, folds, hist)
	d.dispatcher.Decorations = decorations
	d.dispatcher.Layout = layout.Config{Width: 80, TabWidth: d.dispatcher.TabWidth}

	for _, opt := range opts {
		opt(d)
	}

	root := &View{ID: 0, Cursors: cursors, Layout: d.dispatcher.Layout}
	d.views[0] = root
	d.viewOrder = []int{0}
	d.nextViewID = 1
	return d
}

// --- views ----------------------------------------------------------------

// NewView registers an additional view over the shared buffer, with its own
// selection and layout state, and returns it.
func (d *Document) NewView() *View {
	v := &View{
		ID:      d.nextViewID,
		Cursors: cursor.NewCursorSetAt(0),
		Layout:  d.dispatcher.Layout,
	}
	d.nextViewID++
	d.views[v.ID] = v
	d.viewOrder = append(d.viewOrder, v.ID)
	return v
}

// CloseView removes a view. View 0 cannot be closed.
func (d *Document) CloseView(id int) error {
	if id == 0 {
		return ErrUnknownView
	}
	if _, ok := d.views[id]; !ok {
		return ErrUnknownView
	}
	delete(d.views, id)
	for i, vid := range d.viewOrder {
		if vid == id {
			d.viewOrder = append(d.viewOrder[:i], d.viewOrder[i+1:]...)
			break
		}
	}
	if d.activeView == id {
		d.activeView = 0
	}
	return nil
}

// View returns the view with the given id, or nil.
func (d *Document) View(id int) *View {
	return d.views[id]
}

// SetActiveView selects which view Dispatch routes commands through.
func (d *Document) SetActiveView(id int) error {
	if _, ok := d.views[id]; !ok {
		return ErrUnknownView
	}
	d.activeView = id
	return nil
}

// --- command façade -------------------------------------------------------

// Dispatch routes cmd through the active view.
func (d *Document) Dispatch(cmd command.Command) command.CommandResult {
	return d.DispatchFor(d.activeView, cmd)
}

// DispatchFor routes cmd through a specific view: the dispatcher borrows
// that view's selection and layout state, the edit (if any) applies once to
// the shared buffer, and the resulting TextDelta is broadcast to every
// other view in ascending view-id order.
func (d *Document) DispatchFor(viewID int, cmd command.Command) command.CommandResult {
	v, ok := d.views[viewID]
	if !ok {
		return command.Error(command.ErrInvalidOffset, ErrUnknownView)
	}

	d.dispatcher.Cursors = v.Cursors
	d.dispatcher.Layout = v.Layout
	res := d.dispatcher.Dispatch(cmd)
	v.Layout = d.dispatcher.Layout
	if cmd.Kind == command.KindScrollTo && res.IsOK() {
		v.ScrollRow = cmd.ScrollLine
	}

	if res.IsOK() && res.Delta != nil && !res.Delta.IsEmpty() {
		d.modified = true
		d.lastDelta = res.Delta
		d.broadcast(viewID, res.Delta)
		d.emit(ChangeText, res.Delta)
	} else if res.IsOK() && cmd.Kind != command.KindGetViewport {
		d.emit(changeTypeFor(cmd.Kind), nil)
	}
	d.drain()
	return res
}

func changeTypeFor(kind command.Kind) ChangeType {
	switch kind {
	case command.KindSetViewportWidth, command.KindSetTabWidth, command.KindSetTabKeyBehavior,
		command.KindSetWrapMode, command.KindSetWrapIndent, command.KindGetViewport, command.KindScrollTo:
		return ChangeView
	case command.KindAddStyle, command.KindReplaceStyleLayer, command.KindClearStyleLayer:
		return ChangeStyle
	case command.KindAddFoldRegion, command.KindRemoveFoldRegion, command.KindFold,
		command.KindUnfold, command.KindToggleFold:
		return ChangeFolding
	default:
		return ChangeSelection
	}
}

// broadcast shifts every non-originating view's selections through the
// delta's edits, in the order they were applied, ascending view id.
func (d *Document) broadcast(originViewID int, td *delta.TextDelta) {
	for _, id := range d.viewOrder {
		if id == originViewID {
			continue
		}
		v := d.views[id]
		for _, e := range td.Edits {
			v.Cursors.ShiftForReplace(e.Start, len([]rune(e.DeletedText)), len([]rune(e.InsertedText)))
		}
		v.Cursors.Clamp(d.table.CharCount())
	}
}

// --- observation surface --------------------------------------------------

// Subscribe registers a state-change callback.
func (d *Document) Subscribe(s Subscriber) {
	d.subscribers = append(d.subscribers, s)
}

// Version returns the monotonic version counter.
func (d *Document) Version() uint64 {
	return d.version
}

// emit queues a StateChange; notifications drain after the mutation
// returns, never during it (spec.md §9's queue-then-drain note).
func (d *Document) emit(t ChangeType, td *delta.TextDelta) {
	old := d.version
	d.version++
	d.pending = append(d.pending, StateChange{
		OldVersion: old,
		NewVersion: d.version,
		Type:       t,
		Delta:      td,
	})
}

func (d *Document) drain() {
	if d.draining {
		return
	}
	d.draining = true
	for len(d.pending) > 0 {
		batch := d.pending
		d.pending = nil
		for _, sc := range batch {
			for _, s := range d.subscribers {
				s(sc)
			}
		}
	}
	d.draining = false
}

// Text returns the full LF-normalized document text.
func (d *Document) Text() string {
	return d.table.GetText()
}

// CharCount returns the document length in Unicode scalar values.
func (d *Document) CharCount() piece.Offset {
	return d.table.CharCount()
}

// ByteCount returns the document length in UTF-8 bytes.
func (d *Document) ByteCount() int {
	return d.table.ByteCount()
}

// LastDelta returns the most recent edit's TextDelta, or nil.
func (d *Document) LastDelta() *delta.TextDelta {
	return d.lastDelta
}

// Modified reports whether any undoable edit has happened since load or the
// last MarkSaved. Derived-state application never sets this.
func (d *Document) Modified() bool {
	return d.modified
}

// MarkSaved clears the modified flag, e.g. after the host persists the text.
func (d *Document) MarkSaved() {
	d.modified = false
}

// LineEnding returns the preferred line ending detected on load.
func (d *Document) LineEnding() LineEnding {
	return d.lineEnding
}

// GetTextForSaving applies the preferred line ending back onto the
// LF-normalized storage.
func (d *Document) GetTextForSaving() string {
	text := d.table.GetText()
	if d.lineEnding == LineEndingCRLF {
		return strings.ReplaceAll(text, "\n", "\r\n")
	}
	return text
}

// DocumentState is the summary returned by GetDocumentState.
type DocumentState struct {
	CharCount  piece.Offset
	ByteCount  int
	LineCount  int
	Version    uint64
	Modified   bool
	LineEnding LineEnding
}

// GetDocumentState returns the document-level summary.
func (d *Document) GetDocumentState() DocumentState {
	return DocumentState{
		CharCount:  d.table.CharCount(),
		ByteCount:  d.table.ByteCount(),
		LineCount:  d.index.LineCount(),
		Version:    d.version,
		Modified:   d.modified,
		LineEnding: d.lineEnding,
	}
}

// CursorState is the selection summary for one view.
type CursorState struct {
	Selections   []cursor.Selection
	PrimaryIndex int
}

// GetCursorState returns the active view's selections.
func (d *Document) GetCursorState() CursorState {
	v := d.views[d.activeView]
	return CursorState{Selections: v.Cursors.All(), PrimaryIndex: v.Cursors.PrimaryIndex()}
}

// ViewportState is the layout configuration for one view.
type ViewportState struct {
	Width          int
	TabWidth       int
	WrapMode       layout.WrapMode
	WrapIndentMode layout.WrapIndentMode
	WrapIndentN    int
	ScrollRow      int
}

// GetViewportState returns the active view's layout configuration.
func (d *Document) GetViewportState() ViewportState {
	v := d.views[d.activeView]
	return ViewportState{
		Width:          v.Layout.Width,
		TabWidth:       v.Layout.TabWidth,
		WrapMode:       v.Layout.WrapMode,
		WrapIndentMode: v.Layout.WrapIndentMode,
		WrapIndentN:    v.Layout.WrapIndentN,
		ScrollRow:      v.ScrollRow,
	}
}

// GetStyleState returns every layer's full interval contents, layer ids
// ascending.
func (d *Document) GetStyleState() []interval.LayerIntervals {
	return d.intervals.QueryRange(0, d.table.CharCount()+1)
}

// FoldingState is the projection of both fold-region sets to line numbers.
type FoldingState struct {
	User    []fold.Region
	Derived []fold.Region
}

// GetFoldingState returns both fold sets with freshly derived line numbers.
func (d *Document) GetFoldingState() FoldingState {
	return FoldingState{
		User:    d.folds.UserRegions(d.index),
		Derived: d.folds.DerivedRegions(d.index),
	}
}

// GetDecorationsState returns all decorations intersecting the document.
func (d *Document) GetDecorationsState() []decoration.Decoration {
	return d.decorations.DecorationsInRange(0, d.table.CharCount()+1)
}

// GetDiagnosticsState returns the current diagnostics.
func (d *Document) GetDiagnosticsState() []decoration.Diagnostic {
	return d.decorations.Diagnostics()
}

// GetDocumentSymbols returns the current outline.
func (d *Document) GetDocumentSymbols() []decoration.DocumentSymbol {
	return d.decorations.DocumentSymbols()
}

// Index exposes the line index for read-only position queries.
func (d *Document) Index() *lineindex.Index {
	return d.index
}

// Decorations exposes the derived-state store for read-only access and
// workspace-symbol registration.
func (d *Document) Decorations() *decoration.Store {
	return d.decorations
}

// Snapshot returns a generator over the active view's layout.
func (d *Document) Snapshot() *snapshot.Generator {
	v := d.views[d.activeView]
	return &snapshot.Generator{
		Table:       d.table,
		Index:       d.index,
		Layout:      v.Layout,
		Intervals:   d.intervals,
		Folds:       d.folds,
		Decorations: d.decorations,
	}
}

// --- derived-state inlet --------------------------------------------------

// ApplyProcessingEdits applies a batch of derived-state replacements.
// Application is atomic per edit; the batch emits a single trailing
// state-change notification per affected kind. It never marks the document
// modified and never participates in undo (spec.md §4.10).
func (d *Document) ApplyProcessingEdits(edits []process.ProcessingEdit) {
	affected := make(map[ChangeType]bool)
	for _, e := range edits {
		switch e.Kind {
		case process.ReplaceStyleLayer:
			d.intervals.ReplaceLayer(e.StyleLayer, e.Intervals)
			affected[ChangeStyle] = true
		case process.ClearStyleLayer:
			d.intervals.ClearLayer(e.StyleLayer)
			affected[ChangeStyle] = true
		case process.ReplaceFoldingRegions:
			d.folds.ReplaceDerived(d.index, e.FoldRegions, e.PreserveCollapsed)
			affected[ChangeFolding] = true
		case process.ClearFoldingRegions:
			d.folds.ClearDerived()
			affected[ChangeFolding] = true
		case process.ReplaceDecorations:
			d.decorations.ReplaceDecorations(e.DecorationLayer, e.Decorations)
			affected[ChangeDecorations] = true
		case process.ClearDecorations:
			d.decorations.ClearDecorations(e.DecorationLayer)
			affected[ChangeDecorations] = true
		case process.ReplaceDiagnostics:
			d.decorations.ReplaceDiagnostics(e.Diagnostics)
			affected[ChangeDiagnostics] = true
		case process.ClearDiagnostics:
			d.decorations.ClearDiagnostics()
			affected[ChangeDiagnostics] = true
		case process.ReplaceDocumentSymbols:
			d.decorations.ReplaceDocumentSymbols(e.Outline)
			affected[ChangeSymbols] = true
		case process.ClearDocumentSymbols:
			d.decorations.ClearDocumentSymbols()
			affected[ChangeSymbols] = true
		}
	}

	for _, t := range []ChangeType{ChangeStyle, ChangeFolding, ChangeDecorations, ChangeDiagnostics, ChangeSymbols} {
		if affected[t] {
			d.emit(t, nil)
		}
	}
	d.drain()
}

// RunProcessor invokes a DocumentProcessor against this document's state
// and applies whatever edits it returns.
func (d *Document) RunProcessor(p process.DocumentProcessor) {
	d.ApplyProcessingEdits(p.Process(d))
}

// Document satisfies process.State so processors can observe it directly.
var _ process.State = (*Document)(nil)
