package command

import (
	"testing"

	"github.com/windoze/editor-core-go/internal/engine/cursor"
	"github.com/windoze/editor-core-go/internal/engine/decoration"
	"github.com/windoze/editor-core-go/internal/engine/fold"
	"github.com/windoze/editor-core-go/internal/engine/history"
	"github.com/windoze/editor-core-go/internal/engine/interval"
	"github.com/windoze/editor-core-go/internal/engine/layout"
	"github.com/windoze/editor-core-go/internal/engine/lineindex"
	"github.com/windoze/editor-core-go/internal/engine/piece"
)

func newTestDispatcher(text string) *Dispatcher {
	tb := piece.NewFromString(text)
	ix := lineindex.Build(tb.GetText())
	d := NewDispatcher(tb, ix, cursor.NewCursorSetAt(0), interval.NewLayerSet(), fold.NewManager(), history.NewStack(0))
	d.Decorations = decoration.NewStore()
	d.Layout = layout.Config{Width: 80, TabWidth: 4}
	return d
}

func (d *Dispatcher) text() string {
	return d.Table.GetText()
}

func TestPrimitiveInsertValidatesOffset(t *testing.T) {
	d := newTestDispatcher("abc")
	res := d.Dispatch(Command{Kind: KindInsert, Offset: 99, Text: "x"})
	if !res.IsError() || res.ErrorKind != ErrInvalidOffset {
		t.Fatalf("expected InvalidOffset, got %+v", res)
	}
	if d.text() != "abc" {
		t.Fatalf("errored command mutated text: %q", d.text())
	}

	res = d.Dispatch(Command{Kind: KindInsert, Offset: 1, Text: ""})
	if !res.IsError() || res.ErrorKind != ErrEmptyText {
		t.Fatalf("expected EmptyText, got %+v", res)
	}
}

func TestPrimitiveInsertDeleteReplace(t *testing.T) {
	d := newTestDispatcher("hello world")
	if res := d.Dispatch(Command{Kind: KindInsert, Offset: 5, Text: ","}); !res.IsOK() {
		t.Fatalf("insert: %+v", res)
	}
	if d.text() != "hello, world" {
		t.Fatalf("after insert: %q", d.text())
	}

	if res := d.Dispatch(Command{Kind: KindDelete, Offset: 5, DeleteLen: 1}); !res.IsOK() {
		t.Fatalf("delete: %+v", res)
	}
	if d.text() != "hello world" {
		t.Fatalf("after delete: %q", d.text())
	}

	res := d.Dispatch(Command{Kind: KindReplace, Offset: 6, DeleteLen: 5, Text: "there"})
	if !res.IsOK() {
		t.Fatalf("replace: %+v", res)
	}
	if d.text() != "hello there" {
		t.Fatalf("after replace: %q", d.text())
	}
	if len(res.Delta.Edits) != 1 || res.Delta.Edits[0].DeletedText != "world" {
		t.Fatalf("replace delta = %+v", res.Delta)
	}
}

func TestPrimitiveInsertShiftsStyleIntervals(t *testing.T) {
	d := newTestDispatcher("abcde")
	d.Dispatch(Command{Kind: KindAddStyle, Layer: 1, StyleStart: 0, StyleEnd: 5, Style: 7})
	d.Dispatch(Command{Kind: KindInsert, Offset: 2, Text: "XYZ"})

	ivs := d.Intervals.Layer(1).All()
	if len(ivs) != 1 || ivs[0].Start != 0 || ivs[0].End != 8 {
		t.Fatalf("intervals after insert = %v", ivs)
	}
}

// Scenario 4 from spec.md §8: three carets at each line start, InsertText
// "X" yields "Xa\nXb\nXc" and a TextDelta with edits in descending start
// order.
func TestMultiCaretInsertDescendingOrder(t *testing.T) {
	d := newTestDispatcher("a\nb\nc")
	d.Dispatch(Command{Kind: KindSetSelections, Selections: []cursor.Selection{
		cursor.NewCaret(0), cursor.NewCaret(2), cursor.NewCaret(4),
	}})

	res := d.Dispatch(Command{Kind: KindInsertText, Text: "X"})
	if d.text() != "Xa\nXb\nXc" {
		t.Fatalf("text = %q", d.text())
	}
	starts := []piece.Offset{}
	for _, e := range res.Delta.Edits {
		starts = append(starts, e.Start)
	}
	if len(starts) != 3 || starts[0] != 4 || starts[1] != 2 || starts[2] != 0 {
		t.Fatalf("edit starts = %v, want [4 2 0]", starts)
	}
}

// Scenario 5 from spec.md §8: consecutive single-caret inserts coalesce
// into one undo group; undo removes both, redo restores both, and the two
// deltas carry the same undo group id.
func TestCoalescedInsertsUndoRedo(t *testing.T) {
	d := newTestDispatcher("")
	res1 := d.Dispatch(Command{Kind: KindInsertText, Text: "A"})
	res2 := d.Dispatch(Command{Kind: KindInsertText, Text: "B"})
	if d.text() != "AB" {
		t.Fatalf("text = %q", d.text())
	}
	if !res1.Delta.HasUndoGroupID || !res2.Delta.HasUndoGroupID {
		t.Fatal("deltas missing undo group ids")
	}
	if res1.Delta.UndoGroupID != res2.Delta.UndoGroupID {
		t.Fatalf("group ids differ: %d vs %d", res1.Delta.UndoGroupID, res2.Delta.UndoGroupID)
	}

	if res := d.Dispatch(Command{Kind: KindUndo}); res.IsError() {
		t.Fatalf("undo: %+v", res)
	}
	if d.text() != "" {
		t.Fatalf("after undo: %q", d.text())
	}
	if res := d.Dispatch(Command{Kind: KindRedo}); res.IsError() {
		t.Fatalf("redo: %+v", res)
	}
	if d.text() != "AB" {
		t.Fatalf("after redo: %q", d.text())
	}
}

func TestEndUndoGroupBreaksCoalescing(t *testing.T) {
	d := newTestDispatcher("")
	d.Dispatch(Command{Kind: KindInsertText, Text: "A"})
	d.Dispatch(Command{Kind: KindEndUndoGroup})
	d.Dispatch(Command{Kind: KindInsertText, Text: "B"})
	d.Dispatch(Command{Kind: KindEndUndoGroup})

	d.Dispatch(Command{Kind: KindUndo})
	if d.text() != "A" {
		t.Fatalf("after one undo: %q, want %q", d.text(), "A")
	}
}

func TestHostTimestampBreaksCoalescing(t *testing.T) {
	d := newTestDispatcher("")
	d.Dispatch(Command{Kind: KindInsertText, Text: "A", TimeMillis: 1000})
	d.Dispatch(Command{Kind: KindInsertText, Text: "B", TimeMillis: 2000})

	d.Dispatch(Command{Kind: KindUndo})
	if d.text() != "A" {
		t.Fatalf("after undo: %q, want %q (timestamp gap should split groups)", d.text(), "A")
	}
}

func TestBackspaceDeletesSelectionFirst(t *testing.T) {
	d := newTestDispatcher("hello")
	d.Dispatch(Command{Kind: KindSetSelections, Selections: []cursor.Selection{cursor.NewSelection(1, 4)}})
	d.Dispatch(Command{Kind: KindBackspace})
	if d.text() != "ho" {
		t.Fatalf("text = %q", d.text())
	}
	if head := d.Cursors.Primary().Head; head != 1 {
		t.Fatalf("caret = %d, want 1", head)
	}
}

func TestDeleteWordForward(t *testing.T) {
	d := newTestDispatcher("foo bar baz")
	d.Dispatch(Command{Kind: KindSetSelection, Offset: 0})
	d.Dispatch(Command{Kind: KindDeleteWordForward})
	if d.text() != "bar baz" {
		t.Fatalf("text = %q", d.text())
	}
}

func TestDeleteGraphemeBackRemovesCluster(t *testing.T) {
	// é as e + combining acute: one grapheme, two chars.
	d := newTestDispatcher("aé")
	d.Dispatch(Command{Kind: KindSetSelection, Offset: 3})
	d.Dispatch(Command{Kind: KindDeleteGraphemeBack})
	if d.text() != "a" {
		t.Fatalf("text = %q, want %q", d.text(), "a")
	}
}

func TestInsertNewlineAutoIndent(t *testing.T) {
	d := newTestDispatcher("    code")
	d.Dispatch(Command{Kind: KindSetSelection, Offset: 8})
	d.Dispatch(Command{Kind: KindInsertNewline, AutoIndent: true})
	if d.text() != "    code\n    " {
		t.Fatalf("text = %q", d.text())
	}
	if head := d.Cursors.Primary().Head; head != 13 {
		t.Fatalf("caret = %d, want 13 (after inserted indent)", head)
	}
}

func TestIndentOutdentRoundTrip(t *testing.T) {
	d := newTestDispatcher("one\ntwo")
	d.Dispatch(Command{Kind: KindSetSelections, Selections: []cursor.Selection{cursor.NewSelection(0, 5)}})
	d.Dispatch(Command{Kind: KindIndent})
	if d.text() != "    one\n    two" {
		t.Fatalf("after indent: %q", d.text())
	}
	d.Dispatch(Command{Kind: KindOutdent})
	if d.text() != "one\ntwo" {
		t.Fatalf("after outdent: %q", d.text())
	}
}

func TestDeleteToPrevTabStop(t *testing.T) {
	d := newTestDispatcher("      x")
	d.Dispatch(Command{Kind: KindSetSelection, Offset: 6})
	d.Dispatch(Command{Kind: KindDeleteToPrevTabStop})
	if d.text() != "    x" {
		t.Fatalf("text = %q, want %q", d.text(), "    x")
	}
}

// Scenario 3 from spec.md §8: ToggleComment with line="//" comments the
// selected line; toggling again restores the original.
func TestToggleCommentRoundTrip(t *testing.T) {
	orig := "fn main() {\n    println!(\"hi\");\n}\n"
	d := newTestDispatcher(orig)
	caret := d.Index.PositionToCharOffset(lineindex.Position{Line: 1, Column: 4})
	d.Dispatch(Command{Kind: KindSetSelection, Offset: caret})

	cfg := CommentConfig{Line: "//"}
	d.Dispatch(Command{Kind: KindToggleComment, Comment: cfg})
	if want := "fn main() {\n    // println!(\"hi\");\n}\n"; d.text() != want {
		t.Fatalf("after toggle: %q, want %q", d.text(), want)
	}
	d.Dispatch(Command{Kind: KindToggleComment, Comment: cfg})
	if d.text() != orig {
		t.Fatalf("after second toggle: %q, want %q", d.text(), orig)
	}
}

func TestToggleBlockComment(t *testing.T) {
	d := newTestDispatcher("body")
	d.Dispatch(Command{Kind: KindSetSelections, Selections: []cursor.Selection{cursor.NewSelection(0, 4)}})
	cfg := CommentConfig{BlockStart: "/*", BlockEnd: "*/"}
	d.Dispatch(Command{Kind: KindToggleComment, Comment: cfg})
	if d.text() != "/*body*/" {
		t.Fatalf("after wrap: %q", d.text())
	}
	d.Dispatch(Command{Kind: KindToggleComment, Comment: cfg})
	if d.text() != "body" {
		t.Fatalf("after unwrap: %q", d.text())
	}
}

func TestDuplicateAndDeleteLines(t *testing.T) {
	d := newTestDispatcher("a\nb")
	d.Dispatch(Command{Kind: KindSetSelection, Offset: 0})
	d.Dispatch(Command{Kind: KindDuplicateLines})
	if d.text() != "a\na\nb" {
		t.Fatalf("after duplicate: %q", d.text())
	}
	d.Dispatch(Command{Kind: KindDeleteLines})
	if d.text() != "a\nb" {
		t.Fatalf("after delete lines: %q", d.text())
	}
}

func TestMoveLinesDown(t *testing.T) {
	d := newTestDispatcher("a\nb\nc")
	d.Dispatch(Command{Kind: KindSetSelection, Offset: 0})
	d.Dispatch(Command{Kind: KindMoveLinesDown})
	if d.text() != "b\na\nc" {
		t.Fatalf("text = %q", d.text())
	}
}

func TestJoinLinesTrimsAndSeparates(t *testing.T) {
	d := newTestDispatcher("first\n    second")
	d.Dispatch(Command{Kind: KindSetSelection, Offset: 0})
	d.Dispatch(Command{Kind: KindJoinLines})
	if d.text() != "first second" {
		t.Fatalf("text = %q", d.text())
	}
}

func TestReplaceAllWithCaptures(t *testing.T) {
	d := newTestDispatcher("foo bar foo")
	res := d.Dispatch(Command{
		Kind:          KindReplaceAll,
		Pattern:       `f(o+)`,
		Replacement:   "${1}d",
		UseRegex:      true,
		CaseSensitive: true,
	})
	if !res.IsOK() {
		t.Fatalf("replace all: %+v", res)
	}
	if d.text() != "ood bar ood" {
		t.Fatalf("text = %q", d.text())
	}

	// All replacements form one undoable transaction.
	d.Dispatch(Command{Kind: KindUndo})
	if d.text() != "foo bar foo" {
		t.Fatalf("after undo: %q", d.text())
	}
}

func TestReplaceAllBadRegex(t *testing.T) {
	d := newTestDispatcher("x")
	res := d.Dispatch(Command{Kind: KindReplaceAll, Pattern: "(", UseRegex: true})
	if !res.IsError() || res.ErrorKind != ErrRegexCompile {
		t.Fatalf("expected RegexCompile error, got %+v", res)
	}
}

func TestAddAllOccurrences(t *testing.T) {
	d := newTestDispatcher("ab ab ab")
	d.Dispatch(Command{Kind: KindSetSelections, Selections: []cursor.Selection{cursor.NewSelection(0, 2)}})
	d.Dispatch(Command{Kind: KindAddAllOccurrences})
	if got := d.Cursors.Count(); got != 3 {
		t.Fatalf("cursor count = %d, want 3", got)
	}
}

func TestFindNextRegex(t *testing.T) {
	d := newTestDispatcher("one two three")
	d.Dispatch(Command{Kind: KindSetSelection, Offset: 0})
	res := d.Dispatch(Command{Kind: KindFindNext, Pattern: `t\w+`, UseRegex: true, CaseSensitive: true})
	if !res.IsOK() {
		t.Fatalf("find: %+v", res)
	}
	sel := d.Cursors.Primary()
	if sel.Start() != 4 || sel.End() != 7 {
		t.Fatalf("match = [%d, %d), want [4, 7)", sel.Start(), sel.End())
	}
}

func TestWordMotion(t *testing.T) {
	d := newTestDispatcher("foo_bar baz")
	d.Dispatch(Command{Kind: KindSetSelection, Offset: 0})
	d.Dispatch(Command{Kind: KindMoveWordRight})
	if head := d.Cursors.Primary().Head; head != 8 {
		t.Fatalf("after word right head = %d, want 8 (underscore joins words)", head)
	}
	d.Dispatch(Command{Kind: KindMoveWordLeft})
	if head := d.Cursors.Primary().Head; head != 0 {
		t.Fatalf("after word left head = %d, want 0", head)
	}
}

func TestRectSelection(t *testing.T) {
	d := newTestDispatcher("abcd\nefgh\nijkl")
	d.Dispatch(Command{
		Kind:   KindSetRectSelection,
		Anchor: lineindex.Position{Line: 0, Column: 1},
		Active: lineindex.Position{Line: 2, Column: 3},
	})
	if got := d.Cursors.Count(); got != 3 {
		t.Fatalf("cursor count = %d, want 3", got)
	}
	for i, sel := range d.Cursors.All() {
		if sel.End()-sel.Start() != 2 {
			t.Fatalf("selection %d = %v, want width 2", i, sel)
		}
	}
}

func TestFoldCommands(t *testing.T) {
	d := newTestDispatcher("a\nb\nc\nd")
	if res := d.Dispatch(Command{Kind: KindAddFoldRegion, Row: 1, EndRow: 2}); !res.IsOK() {
		t.Fatalf("add fold: %+v", res)
	}
	if res := d.Dispatch(Command{Kind: KindFold, Row: 1}); !res.IsOK() {
		t.Fatalf("fold: %+v", res)
	}
	regions := d.Folds.UserRegions(d.Index)
	if len(regions) != 1 || !regions[0].Collapsed {
		t.Fatalf("regions = %v", regions)
	}
	d.Dispatch(Command{Kind: KindToggleFold, Row: 1})
	if regions := d.Folds.UserRegions(d.Index); regions[0].Collapsed {
		t.Fatalf("toggle did not expand: %v", regions)
	}
}

func TestClearUnknownStyleLayerErrors(t *testing.T) {
	d := newTestDispatcher("x")
	res := d.Dispatch(Command{Kind: KindClearStyleLayer, Layer: 42})
	if !res.IsError() || res.ErrorKind != ErrUnknownLayer {
		t.Fatalf("expected UnknownLayer, got %+v", res)
	}
}

func TestVisualMotionAcrossWrapRows(t *testing.T) {
	d := newTestDispatcher("abcdefgh")
	d.Layout = layout.Config{Width: 4, TabWidth: 4, WrapMode: layout.WrapAnyChar}

	// Visual rows: "abcd" (row 0), "efgh" (row 1).
	d.Dispatch(Command{Kind: KindMoveToVisual, Row: 1, XCells: 1})
	if head := d.Cursors.Primary().Head; head != 5 {
		t.Fatalf("head = %d, want 5 (row 1, x 1)", head)
	}

	d.Dispatch(Command{Kind: KindMoveVisualBy, DeltaRows: -1})
	if head := d.Cursors.Primary().Head; head != 1 {
		t.Fatalf("after up: head = %d, want 1 (sticky x)", head)
	}

	d.Dispatch(Command{Kind: KindMoveToVisualLineEnd})
	if head := d.Cursors.Primary().Head; head != 4 {
		t.Fatalf("visual line end = %d, want 4 (end of first wrap row)", head)
	}
}

func TestVisualMotionSkipsCollapsedFold(t *testing.T) {
	d := newTestDispatcher("a\nb\nc\nd")
	d.Dispatch(Command{Kind: KindAddFoldRegion, Row: 0, EndRow: 2})
	d.Dispatch(Command{Kind: KindFold, Row: 0})

	// Visual row 1 is logical line 3 (lines 1 and 2 are hidden).
	d.Dispatch(Command{Kind: KindMoveToVisual, Row: 1, XCells: 0})
	pos := d.Index.CharOffsetToPosition(d.Cursors.Primary().Head)
	if pos.Line != 3 {
		t.Fatalf("line = %d, want 3", pos.Line)
	}
}

func TestAddCursorBelow(t *testing.T) {
	d := newTestDispatcher("one\ntwo")
	d.Dispatch(Command{Kind: KindSetSelection, Offset: 1})
	d.Dispatch(Command{Kind: KindAddCursorBelow})
	if d.Cursors.Count() != 2 {
		t.Fatalf("count = %d, want 2", d.Cursors.Count())
	}
	heads := []piece.Offset{d.Cursors.Get(0).Head, d.Cursors.Get(1).Head}
	if heads[0] != 1 || heads[1] != 5 {
		t.Fatalf("heads = %v, want [1 5]", heads)
	}
}

func TestUndoRestoresSelections(t *testing.T) {
	d := newTestDispatcher("hello")
	d.Dispatch(Command{Kind: KindSetSelections, Selections: []cursor.Selection{cursor.NewSelection(0, 5)}})
	d.Dispatch(Command{Kind: KindInsertText, Text: "bye"})
	if d.text() != "bye" {
		t.Fatalf("text = %q", d.text())
	}
	d.Dispatch(Command{Kind: KindUndo})
	if d.text() != "hello" {
		t.Fatalf("after undo: %q", d.text())
	}
	sel := d.Cursors.Primary()
	if sel.Start() != 0 || sel.End() != 5 {
		t.Fatalf("restored selection = %v, want [0, 5)", sel)
	}
}
