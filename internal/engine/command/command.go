package command

import (
	"github.com/windoze/editor-core-go/internal/engine/cursor"
	"github.com/windoze/editor-core-go/internal/engine/layout"
	"github.com/windoze/editor-core-go/internal/engine/piece"
)

// Kind tags which variant of the unified command enum a Command carries
// (spec.md §4.7's non-exhaustive contractually required list).
type Kind uint8

const (
	// Edit primitives, addressed in char offsets.
	KindInsert Kind = iota
	KindDelete
	KindReplace

	// Per-caret edit commands.
	KindInsertText
	KindBackspace
	KindDeleteForward
	KindDeleteWordBack
	KindDeleteWordForward
	KindDeleteGraphemeBack
	KindInsertNewline
	KindIndent
	KindOutdent
	KindDeleteToPrevTabStop
	KindToggleComment
	KindDuplicateLines
	KindDeleteLines
	KindMoveLinesUp
	KindMoveLinesDown
	KindJoinLines
	KindReplaceCurrent
	KindReplaceAll
	KindUndo
	KindRedo
	KindEndUndoGroup

	// Cursor commands.
	KindMoveTo
	KindMoveGraphemeLeft
	KindMoveGraphemeRight
	KindMoveWordLeft
	KindMoveWordRight
	KindMoveToVisual
	KindMoveVisualBy
	KindMoveToVisualLineStart
	KindMoveToVisualLineEnd
	KindSetSelection
	KindSetSelections
	KindSetRectSelection
	KindSelectLine
	KindAddCursorAbove
	KindAddCursorBelow
	KindAddNextOccurrence
	KindAddAllOccurrences
	KindFindNext
	KindFindPrev

	// View commands.
	KindSetViewportWidth
	KindSetTabWidth
	KindSetTabKeyBehavior
	KindSetWrapMode
	KindSetWrapIndent
	KindGetViewport
	KindScrollTo

	// Style commands.
	KindAddStyle
	KindReplaceStyleLayer
	KindClearStyleLayer
	KindAddFoldRegion
	KindRemoveFoldRegion
	KindFold
	KindUnfold
	KindToggleFold
)

// TabKeyBehavior selects what a tab keystroke inserts (spec.md §4.7's
// Edit/Indent semantics).
type TabKeyBehavior uint8

const (
	TabKeyTabs TabKeyBehavior = iota
	TabKeySpaces
)

// CommentConfig configures Edit/ToggleComment.
type CommentConfig struct {
	Line       string
	BlockStart string
	BlockEnd   string
}

// Command is a single tagged-union command accepted by Dispatcher.Dispatch.
// Only the fields relevant to Kind are read; the rest are ignored.
type Command struct {
	Kind Kind

	// Edit primitives and per-caret edits.
	Text          string
	DeleteLen     int
	AutoIndent    bool
	TabBehavior   TabKeyBehavior
	Count         int
	Comment       CommentConfig
	Pattern       string
	Replacement   string
	UseRegex      bool
	CaseSensitive bool

	// TimeMillis is an optional host-reported wall-clock tick used only by
	// insert coalescing; zero means "not reported" and coalescing then
	// relies purely on structural breaks.
	TimeMillis int64

	// Cursor motion.
	Offset     piece.Offset
	Extend     bool
	Row        int
	XCells     int
	DeltaRows  int
	Anchor     cursor.Position
	Active     cursor.Position
	Selections []cursor.Selection

	// View.
	ScrollLine    int
	ViewportCells int
	WrapMode      layout.WrapMode
	WrapIndent    layout.WrapIndentMode
	WrapIndentN   int

	// Style and folding.
	Layer      LayerRef
	Style      uint32
	StyleStart piece.Offset
	StyleEnd   piece.Offset
	EndRow     int
}

// LayerRef is a lightweight reference to a style layer id, kept in the
// command package to avoid importing interval for the single uint32 it
// needs.
type LayerRef uint32
