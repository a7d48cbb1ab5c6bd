package command

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/windoze/editor-core-go/internal/engine/cursor"
	"github.com/windoze/editor-core-go/internal/engine/decoration"
	"github.com/windoze/editor-core-go/internal/engine/delta"
	"github.com/windoze/editor-core-go/internal/engine/fold"
	"github.com/windoze/editor-core-go/internal/engine/history"
	"github.com/windoze/editor-core-go/internal/engine/interval"
	"github.com/windoze/editor-core-go/internal/engine/layout"
	"github.com/windoze/editor-core-go/internal/engine/lineindex"
	"github.com/windoze/editor-core-go/internal/engine/piece"
	"github.com/windoze/editor-core-go/internal/engine/segment"
	"github.com/windoze/editor-core-go/internal/engine/snapshot"
)

// Dispatcher applies Commands against one document's owned components: the
// piece table, line index, interval layers, folding manager, and cursor
// set, recording undo transactions on the history stack. Grounded on the
// teacher's Command.Execute(buf, cursors) shape but generalized to also
// own the derived-state shifting that the teacher's buffer package doesn't
// need (no interval trees or folding there).
type Dispatcher struct {
	Table       *piece.Table
	Index       *lineindex.Index
	Cursors     *cursor.CursorSet
	Intervals   *interval.LayerSet
	Folds       *fold.Manager
	Decorations *decoration.Store
	History     *history.Stack

	TabWidth    int
	TabBehavior TabKeyBehavior
	Layout      layout.Config

	coalescing       bool
	lastCaretEnd     piece.Offset
	lastInsertMillis int64
	openGroupID      uint64
}

// coalesceWindowMillis is the host-reported wall-time gap beyond which
// consecutive single-caret inserts stop coalescing into one transaction.
const coalesceWindowMillis = 500

// NewDispatcher wires a Dispatcher around already-constructed components.
func NewDispatcher(table *piece.Table, idx *lineindex.Index, cursors *cursor.CursorSet, intervals *interval.LayerSet, folds *fold.Manager, hist *history.Stack) *Dispatcher {
	return &Dispatcher{
		Table:       table,
		Index:       idx,
		Cursors:     cursors,
		Intervals:   intervals,
		Folds:       folds,
		History:     hist,
		TabWidth:    4,
		TabBehavior: TabKeySpaces,
	}
}

// Dispatch routes cmd to its handler, flushing any open coalesced-insert
// undo group first unless cmd itself extends that group.
func (d *Dispatcher) Dispatch(cmd Command) CommandResult {
	if !d.continuesCoalesce(cmd) {
		d.flushCoalesce()
	}

	switch cmd.Kind {
	case KindInsert:
		return d.dispatchPrimitiveInsert(cmd)
	case KindDelete:
		return d.dispatchPrimitiveDelete(cmd)
	case KindReplace:
		return d.dispatchPrimitiveReplace(cmd)
	case KindInsertText:
		return d.dispatchInsertAtCarets(cmd)
	case KindBackspace:
		return d.dispatchDeleteAtCarets(cmd, false, deleteUnitChar)
	case KindDeleteForward:
		return d.dispatchDeleteAtCarets(cmd, true, deleteUnitChar)
	case KindDeleteWordBack:
		return d.dispatchDeleteAtCarets(cmd, false, deleteUnitWord)
	case KindDeleteWordForward:
		return d.dispatchDeleteAtCarets(cmd, true, deleteUnitWord)
	case KindDeleteGraphemeBack:
		return d.dispatchDeleteAtCarets(cmd, false, deleteUnitGrapheme)
	case KindInsertNewline:
		return d.dispatchInsertNewline(cmd)
	case KindIndent:
		return d.dispatchIndent(cmd, true)
	case KindOutdent:
		return d.dispatchIndent(cmd, false)
	case KindDeleteToPrevTabStop:
		return d.dispatchDeleteToPrevTabStop()
	case KindToggleComment:
		return d.dispatchToggleComment(cmd)
	case KindDuplicateLines:
		return d.dispatchDuplicateLines()
	case KindDeleteLines:
		return d.dispatchDeleteLines()
	case KindMoveLinesUp:
		return d.dispatchMoveLines(-1)
	case KindMoveLinesDown:
		return d.dispatchMoveLines(1)
	case KindJoinLines:
		return d.dispatchJoinLines()
	case KindReplaceCurrent:
		return d.dispatchReplaceMatch(cmd, false)
	case KindReplaceAll:
		return d.dispatchReplaceMatch(cmd, true)
	case KindUndo:
		return d.dispatchUndo()
	case KindRedo:
		return d.dispatchRedo()
	case KindEndUndoGroup:
		d.flushCoalesce()
		return NoOp()

	case KindMoveTo:
		return d.dispatchMoveTo(cmd)
	case KindMoveGraphemeLeft:
		return d.dispatchMoveGrapheme(false, cmd.Extend)
	case KindMoveGraphemeRight:
		return d.dispatchMoveGrapheme(true, cmd.Extend)
	case KindMoveWordLeft:
		return d.dispatchMoveWord(false, cmd.Extend)
	case KindMoveWordRight:
		return d.dispatchMoveWord(true, cmd.Extend)
	case KindMoveToVisual:
		return d.dispatchMoveToVisual(cmd)
	case KindMoveVisualBy:
		return d.dispatchMoveVisualBy(cmd)
	case KindMoveToVisualLineStart:
		return d.dispatchMoveToVisualLineEdge(cmd, true)
	case KindMoveToVisualLineEnd:
		return d.dispatchMoveToVisualLineEdge(cmd, false)
	case KindSetSelection:
		anchor := cmd.Offset
		if cmd.Extend {
			anchor = d.Cursors.Primary().Anchor
		}
		d.Cursors.Set(cursor.NewSelection(clampOffset(anchor, d.Table.CharCount()), clampOffset(cmd.Offset, d.Table.CharCount())))
		return OK(nil)
	case KindSetSelections:
		d.Cursors.SetAll(cmd.Selections)
		return OK(nil)
	case KindSetRectSelection:
		sels := cursor.ExpandRect(d.Index, cmd.Anchor, cmd.Active)
		d.Cursors.SetAll(sels)
		return OK(nil)
	case KindSelectLine:
		return d.dispatchSelectLine(cmd)
	case KindAddCursorAbove:
		return d.dispatchAddCursorVertical(-1)
	case KindAddCursorBelow:
		return d.dispatchAddCursorVertical(1)
	case KindAddNextOccurrence:
		return d.dispatchAddNextOccurrence()
	case KindAddAllOccurrences:
		return d.dispatchAddAllOccurrences()
	case KindFindNext:
		return d.dispatchFind(cmd, true)
	case KindFindPrev:
		return d.dispatchFind(cmd, false)

	case KindScrollTo:
		return OK(nil).WithRedraw()
	case KindSetViewportWidth:
		d.Layout.Width = cmd.ViewportCells
		return OK(nil).WithRedraw()
	case KindSetTabWidth:
		if cmd.Count < 1 {
			return Errorf(ErrInvalidRange, "tab width must be positive, got %d", cmd.Count)
		}
		d.TabWidth = cmd.Count
		d.Layout.TabWidth = cmd.Count
		return OK(nil).WithRedraw()
	case KindSetTabKeyBehavior:
		d.TabBehavior = cmd.TabBehavior
		return OK(nil)
	case KindSetWrapMode:
		d.Layout.WrapMode = cmd.WrapMode
		return OK(nil).WithRedraw()
	case KindSetWrapIndent:
		d.Layout.WrapIndentMode = cmd.WrapIndent
		d.Layout.WrapIndentN = cmd.WrapIndentN
		return OK(nil).WithRedraw()
	case KindGetViewport:
		gen := &snapshot.Generator{
			Table:       d.Table,
			Index:       d.Index,
			Layout:      d.Layout,
			Intervals:   d.Intervals,
			Folds:       d.Folds,
			Decorations: d.Decorations,
		}
		return OKGrid(gen.ComposedViewport(cmd.Row, cmd.Count))

	case KindAddStyle:
		if cmd.StyleEnd < cmd.StyleStart || cmd.StyleStart < 0 || cmd.StyleEnd > d.Table.CharCount() {
			return Errorf(ErrInvalidRange, "style range [%d, %d) out of bounds", cmd.StyleStart, cmd.StyleEnd)
		}
		d.Intervals.Layer(interval.LayerID(cmd.Layer)).Insert(cmd.StyleStart, cmd.StyleEnd, interval.StyleID(cmd.Style))
		return OK(nil).WithRedraw()
	case KindReplaceStyleLayer:
		return NoOpWithMessage("style layers are replaced through the derived-state inlet")
	case KindClearStyleLayer:
		if !d.Intervals.Has(interval.LayerID(cmd.Layer)) {
			return Errorf(ErrUnknownLayer, "unknown style layer %d", cmd.Layer)
		}
		d.Intervals.ClearLayer(interval.LayerID(cmd.Layer))
		return OK(nil).WithRedraw()

	case KindAddFoldRegion:
		if cmd.Row < 0 || cmd.EndRow >= d.Index.LineCount() {
			return Errorf(ErrInvalidPosition, "fold region (%d, %d) out of bounds", cmd.Row, cmd.EndRow)
		}
		if !d.Folds.Add(d.Index, cmd.Row, cmd.EndRow) {
			return NoOpWithMessage("fold region straddles an existing region")
		}
		return OK(nil).WithRedraw()
	case KindRemoveFoldRegion:
		if !d.Folds.RemoveAt(d.Index, cmd.Row) {
			return NoOpWithMessage("no fold region at line")
		}
		return OK(nil).WithRedraw()
	case KindFold:
		if !d.Folds.Fold(d.Index, cmd.Row) {
			return NoOpWithMessage("no fold region at line")
		}
		return OK(nil).WithRedraw()
	case KindUnfold:
		if !d.Folds.Unfold(d.Index, cmd.Row) {
			return NoOpWithMessage("no fold region at line")
		}
		return OK(nil).WithRedraw()
	case KindToggleFold:
		if !d.Folds.Toggle(d.Index, cmd.Row) {
			return NoOpWithMessage("no fold region at line")
		}
		return OK(nil).WithRedraw()
	}
	return Errorf(ErrInvalidOffset, "unknown command kind %d", cmd.Kind)
}

// --- coalescing -------------------------------------------------------

func (d *Dispatcher) continuesCoalesce(cmd Command) bool {
	if cmd.Kind != KindInsertText {
		return false
	}
	if d.Cursors.IsMulti() {
		return false
	}
	runes := []rune(cmd.Text)
	if len(runes) != 1 || runes[0] == '\n' {
		return false
	}
	if !d.coalescing || d.Cursors.Primary().Head != d.lastCaretEnd {
		return false
	}
	// The kernel owns no clock: the window only applies when the host
	// reports timestamps on both the previous and the current insert.
	if cmd.TimeMillis != 0 && d.lastInsertMillis != 0 && cmd.TimeMillis-d.lastInsertMillis > coalesceWindowMillis {
		return false
	}
	return true
}

func (d *Dispatcher) flushCoalesce() {
	if d.coalescing {
		d.History.EndGroup()
		d.coalescing = false
		d.lastInsertMillis = 0
	}
}

func (d *Dispatcher) beginCoalesceIfNeeded() {
	if !d.coalescing {
		d.History.BeginGroup("Type")
		d.coalescing = true
		d.openGroupID = d.History.NextGroupID()
	}
}

// --- derived-state shifting ---------------------------------------------

// shiftDerived propagates one replace-shaped edit (delete deletedLen chars
// at start, insert insertedLen chars at start) to the interval layers, the
// folding manager, and every cursor selection, using the two-phase Shift
// pattern the tree and fold anchors require: a pure-deletion Shift first,
// then a pure-insertion Shift, never one combined net-delta call.
func (d *Dispatcher) shiftDerived(start piece.Offset, deletedLen, insertedLen int) {
	if deletedLen > 0 {
		d.shiftAnchored(start, -deletedLen)
		d.Cursors.Shift(start, -deletedLen)
	}
	if insertedLen > 0 {
		d.shiftAnchored(start, insertedLen)
		d.Cursors.Shift(start, insertedLen)
	}
}

// shiftAnchored propagates one pure insert or pure delete to every anchored
// collection except the cursor set: interval layers, fold anchors,
// decorations, and diagnostics.
func (d *Dispatcher) shiftAnchored(start piece.Offset, delta int) {
	d.Intervals.Shift(start, delta)
	if d.Folds != nil {
		d.Folds.Shift(start, delta)
	}
	if d.Decorations != nil {
		d.Decorations.ShiftDecorations(start, delta)
		d.Decorations.ShiftDiagnostics(start, delta)
	}
}

// --- primitive edit application ---------------------------------------

// perCaretEdit maps one selection to the (start, deletedLen, insertedText,
// newCaret) tuple for that selection's edit.
type perCaretEdit func(sel cursor.Selection) (start piece.Offset, deletedLen int, inserted string, newCaret cursor.Selection)

// applyPerCaret applies fn to every selection in descending-Start order (so
// earlier edits don't shift later ones, spec.md §4.7), shifts interval and
// fold anchors per edit, builds one TextDelta, and records one undo
// transaction. Each caret is taken from its fn result and then carried
// through the edits applied after it, which all lie at lower offsets.
func (d *Dispatcher) applyPerCaret(description string, fn perCaretEdit) CommandResult {
	before := d.Cursors.All()
	if len(before) == 0 {
		return NoOp()
	}

	type indexed struct {
		idx int
		sel cursor.Selection
	}
	items := make([]indexed, len(before))
	for i, s := range before {
		items[i] = indexed{i, s}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].sel.Start() > items[j].sel.Start()
	})

	result := make([]cursor.Selection, len(before))
	copy(result, before)

	fd := delta.New(int(d.Table.CharCount()))
	done := make([]int, 0, len(items))
	for _, it := range items {
		start, deletedLen, inserted, newCaret := fn(it.sel)
		oldText := d.Table.GetRange(start, piece.Offset(deletedLen))
		d.Table.Replace(start, piece.Offset(deletedLen), inserted)
		d.Index.ApplyEdit(d.Table, start)

		insertedLen := len([]rune(inserted))
		if deletedLen > 0 {
			d.shiftAnchored(start, -deletedLen)
		}
		if insertedLen > 0 {
			d.shiftAnchored(start, insertedLen)
		}

		fd.Add(delta.NewReplaceEdit(start, oldText, inserted))
		for _, j := range done {
			result[j] = result[j].ShiftForReplace(start, deletedLen, insertedLen)
		}
		done = append(done, it.idx)
		result[it.idx] = newCaret
	}

	d.Cursors.SetAll(result)

	if !fd.IsEmpty() {
		groupID := d.History.NextGroupID()
		if d.coalescing {
			groupID = d.openGroupID
		}
		fd.WithUndoGroupID(groupID)
		txn := history.NewTransaction(description, fd, before, d.Cursors.All(), groupID)
		d.History.Push(txn)
	}
	return OK(fd)
}

// --- Edit primitives ----------------------------------------------------

// applyPrimitive validates and applies one text-level edit at an explicit
// char offset, shifting anchored state, recording one undo transaction, and
// emitting a single-edit TextDelta.
func (d *Dispatcher) applyPrimitive(description string, start piece.Offset, deletedLen int, inserted string) CommandResult {
	before := d.Cursors.All()
	fd := delta.New(int(d.Table.CharCount()))

	oldText := d.Table.GetRange(start, piece.Offset(deletedLen))
	d.Table.Replace(start, piece.Offset(deletedLen), inserted)
	d.Index.ApplyEdit(d.Table, start)
	d.shiftDerived(start, deletedLen, len([]rune(inserted)))
	fd.Add(delta.NewReplaceEdit(start, oldText, inserted))

	groupID := d.History.NextGroupID()
	fd.WithUndoGroupID(groupID)
	d.History.Push(history.NewTransaction(description, fd, before, d.Cursors.All(), groupID))
	return OK(fd)
}

func (d *Dispatcher) dispatchPrimitiveInsert(cmd Command) CommandResult {
	if cmd.Offset < 0 || cmd.Offset > d.Table.CharCount() {
		return Errorf(ErrInvalidOffset, "insert offset %d out of bounds [0, %d]", cmd.Offset, d.Table.CharCount())
	}
	text := piece.NormalizeLineEndings(cmd.Text)
	if text == "" {
		return Errorf(ErrEmptyText, "insert requires non-empty text")
	}
	return d.applyPrimitive("Insert", cmd.Offset, 0, text)
}

func (d *Dispatcher) dispatchPrimitiveDelete(cmd Command) CommandResult {
	if cmd.Offset < 0 || cmd.Offset > d.Table.CharCount() {
		return Errorf(ErrInvalidOffset, "delete offset %d out of bounds [0, %d]", cmd.Offset, d.Table.CharCount())
	}
	length := cmd.DeleteLen
	if length < 0 {
		return Errorf(ErrInvalidRange, "delete length %d is negative", length)
	}
	if avail := int(d.Table.CharCount() - cmd.Offset); length > avail {
		length = avail // out-of-range deletes truncate to available
	}
	if length == 0 {
		return NoOp()
	}
	return d.applyPrimitive("Delete", cmd.Offset, length, "")
}

func (d *Dispatcher) dispatchPrimitiveReplace(cmd Command) CommandResult {
	if cmd.Offset < 0 || cmd.Offset > d.Table.CharCount() {
		return Errorf(ErrInvalidOffset, "replace offset %d out of bounds [0, %d]", cmd.Offset, d.Table.CharCount())
	}
	length := cmd.DeleteLen
	if length < 0 {
		return Errorf(ErrInvalidRange, "replace length %d is negative", length)
	}
	if avail := int(d.Table.CharCount() - cmd.Offset); length > avail {
		length = avail
	}
	return d.applyPrimitive("Replace", cmd.Offset, length, piece.NormalizeLineEndings(cmd.Text))
}

// --- Per-caret edit commands --------------------------------------------

func (d *Dispatcher) dispatchInsertAtCarets(cmd Command) CommandResult {
	text := piece.NormalizeLineEndings(cmd.Text)
	if text == "" {
		return NoOp()
	}
	runes := []rune(text)
	if len(runes) == 1 && runes[0] != '\n' && !d.Cursors.IsMulti() {
		d.beginCoalesceIfNeeded()
	}
	res := d.applyPerCaret("Insert text", func(sel cursor.Selection) (piece.Offset, int, string, cursor.Selection) {
		start := sel.Start()
		deletedLen := int(sel.End() - sel.Start())
		newPos := start + piece.Offset(len(runes))
		return start, deletedLen, text, cursor.NewCaret(newPos)
	})
	if !d.Cursors.IsMulti() {
		d.lastCaretEnd = d.Cursors.Primary().Head
		if cmd.TimeMillis != 0 {
			d.lastInsertMillis = cmd.TimeMillis
		}
	}
	return res
}

// deleteUnit distinguishes char, grapheme, and word caret deletes.
type deleteUnit uint8

const (
	deleteUnitChar deleteUnit = iota
	deleteUnitGrapheme
	deleteUnitWord
)

func (d *Dispatcher) dispatchDeleteAtCarets(cmd Command, forward bool, unit deleteUnit) CommandResult {
	count := cmd.Count
	if count < 1 {
		count = 1
	}
	return d.applyPerCaret("Delete", func(sel cursor.Selection) (piece.Offset, int, string, cursor.Selection) {
		if !sel.IsEmpty() {
			return sel.Start(), int(sel.End() - sel.Start()), "", cursor.NewCaret(sel.Start())
		}
		pos := sel.Head
		if forward {
			end := pos
			max := d.Table.CharCount()
			for i := 0; i < count && end < max; i++ {
				end = nextUnit(d, end, unit)
			}
			return pos, int(end - pos), "", cursor.NewCaret(pos)
		}
		start := pos
		for i := 0; i < count && start > 0; i++ {
			start = prevUnit(d, start, unit)
		}
		return start, int(pos - start), "", cursor.NewCaret(start)
	})
}

func nextUnit(d *Dispatcher, from piece.Offset, unit deleteUnit) piece.Offset {
	if unit == deleteUnitChar {
		if from >= d.Table.CharCount() {
			return from
		}
		return from + 1
	}
	lineText, lineStart := currentLineTextAndStart(d, from)
	rel := int(from - lineStart)
	if unit == deleteUnitWord {
		n := segment.NextWordBoundary(lineText, rel)
		if n == rel {
			n = len([]rune(lineText))
		}
		return lineStart + piece.Offset(n)
	}
	n := segment.NextGraphemeBoundary(lineText, rel)
	if n == rel {
		return from + 1
	}
	return lineStart + piece.Offset(n)
}

func prevUnit(d *Dispatcher, from piece.Offset, unit deleteUnit) piece.Offset {
	if unit == deleteUnitChar {
		if from <= 0 {
			return 0
		}
		return from - 1
	}
	lineText, lineStart := currentLineTextAndStart(d, from)
	rel := int(from - lineStart)
	if unit == deleteUnitWord {
		p := segment.PrevWordBoundary(lineText, rel)
		return lineStart + piece.Offset(p)
	}
	p := segment.PrevGraphemeBoundary(lineText, rel)
	if p == rel && from > 0 {
		return from - 1
	}
	return lineStart + piece.Offset(p)
}

func currentLineTextAndStart(d *Dispatcher, at piece.Offset) (string, piece.Offset) {
	pos := d.Index.CharOffsetToPosition(at)
	meta := d.Index.Line(pos.Line)
	return d.Index.GetLineText(pos.Line, d.Table), meta.StartChar
}

func (d *Dispatcher) dispatchInsertNewline(cmd Command) CommandResult {
	return d.applyPerCaret("Insert newline", func(sel cursor.Selection) (piece.Offset, int, string, cursor.Selection) {
		start := sel.Start()
		deletedLen := int(sel.End() - sel.Start())
		text := "\n"
		if cmd.AutoIndent {
			lineText, _ := currentLineTextAndStart(d, start)
			text += leadingWhitespace(lineText)
		}
		return start, deletedLen, text, cursor.NewCaret(start + piece.Offset(len([]rune(text))))
	})
}

func leadingWhitespace(line string) string {
	i := 0
	runes := []rune(line)
	for i < len(runes) && (runes[i] == ' ' || runes[i] == '\t') {
		i++
	}
	return string(runes[:i])
}

func (d *Dispatcher) dispatchIndent(cmd Command, indent bool) CommandResult {
	lines := d.touchedLines()
	before := d.Cursors.All()
	fd := delta.New(int(d.Table.CharCount()))

	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		meta := d.Index.Line(line)
		lineText := d.Index.GetLineText(line, d.Table)
		if indent {
			text := "\t"
			if d.TabBehavior == TabKeySpaces {
				text = strings.Repeat(" ", d.TabWidth)
			}
			d.Table.Insert(meta.StartChar, text)
			d.Index.ApplyEdit(d.Table, meta.StartChar)
			d.shiftDerived(meta.StartChar, 0, len([]rune(text)))
			fd.Add(delta.NewInsertEdit(meta.StartChar, text))
		} else {
			removeLen := 0
			if strings.HasPrefix(lineText, "\t") {
				removeLen = 1
			} else {
				for removeLen < d.TabWidth && removeLen < len(lineText) && lineText[removeLen] == ' ' {
					removeLen++
				}
			}
			if removeLen == 0 {
				continue
			}
			removed := d.Table.GetRange(meta.StartChar, piece.Offset(removeLen))
			d.Table.Delete(meta.StartChar, piece.Offset(removeLen))
			d.Index.ApplyEdit(d.Table, meta.StartChar)
			d.shiftDerived(meta.StartChar, removeLen, 0)
			fd.Add(delta.NewDeleteEdit(meta.StartChar, removed))
		}
	}
	if fd.IsEmpty() {
		return NoOp()
	}
	groupID := d.History.NextGroupID()
	fd.WithUndoGroupID(groupID)
	txn := history.NewTransaction("Indent/Outdent", fd, before, d.Cursors.All(), groupID)
	d.History.Push(txn)
	return OK(fd).WithRedraw()
}

// touchedLines returns, in ascending order, every line number spanned by
// any current selection.
func (d *Dispatcher) touchedLines() []int {
	seen := map[int]bool{}
	var lines []int
	for _, sel := range d.Cursors.All() {
		startLine := d.Index.CharOffsetToPosition(sel.Start()).Line
		endLine := d.Index.CharOffsetToPosition(sel.End()).Line
		for l := startLine; l <= endLine; l++ {
			if !seen[l] {
				seen[l] = true
				lines = append(lines, l)
			}
		}
	}
	sort.Ints(lines)
	return lines
}

func (d *Dispatcher) dispatchDeleteToPrevTabStop() CommandResult {
	return d.applyPerCaret("Delete to previous tab stop", func(sel cursor.Selection) (piece.Offset, int, string, cursor.Selection) {
		pos := sel.Head
		lineText, lineStart := currentLineTextAndStart(d, pos)
		rel := int(pos - lineStart)
		lead := len([]rune(leadingWhitespace(lineText)))
		if rel > lead {
			// Not in leading whitespace: behave as Backspace.
			if pos == 0 {
				return pos, 0, "", cursor.NewCaret(pos)
			}
			return pos - 1, 1, "", cursor.NewCaret(pos - 1)
		}
		stop := (rel - 1) / d.TabWidth * d.TabWidth
		if stop < 0 {
			stop = 0
		}
		newStart := lineStart + piece.Offset(stop)
		return newStart, int(pos - newStart), "", cursor.NewCaret(newStart)
	})
}

func (d *Dispatcher) dispatchToggleComment(cmd Command) CommandResult {
	lines := d.touchedLines()
	if len(lines) == 0 || cmd.Comment.Line == "" {
		return d.toggleBlockComment(cmd)
	}
	token := cmd.Comment.Line

	allCommented := true
	for _, l := range lines {
		text := d.Index.GetLineText(l, d.Table)
		trimmed := strings.TrimLeft(text, " \t")
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, token) {
			allCommented = false
			break
		}
	}

	before := d.Cursors.All()
	fd := delta.New(int(d.Table.CharCount()))
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		meta := d.Index.Line(line)
		text := d.Index.GetLineText(line, d.Table)
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			continue
		}
		indentLen := len([]rune(text)) - len([]rune(strings.TrimLeft(text, " \t")))
		if allCommented {
			rest := string([]rune(text)[indentLen:])
			removeLen := len([]rune(token))
			if strings.HasPrefix(rest, token+" ") {
				removeLen++
			}
			if !strings.HasPrefix(rest, token) {
				continue
			}
			at := meta.StartChar + piece.Offset(indentLen)
			removed := d.Table.GetRange(at, piece.Offset(removeLen))
			d.Table.Delete(at, piece.Offset(removeLen))
			d.Index.ApplyEdit(d.Table, at)
			d.shiftDerived(at, removeLen, 0)
			fd.Add(delta.NewDeleteEdit(at, removed))
		} else {
			insert := token + " "
			at := meta.StartChar + piece.Offset(indentLen)
			d.Table.Insert(at, insert)
			d.Index.ApplyEdit(d.Table, at)
			d.shiftDerived(at, 0, len([]rune(insert)))
			fd.Add(delta.NewInsertEdit(at, insert))
		}
	}
	if fd.IsEmpty() {
		return NoOp()
	}
	groupID := d.History.NextGroupID()
	fd.WithUndoGroupID(groupID)
	d.History.Push(history.NewTransaction("Toggle comment", fd, before, d.Cursors.All(), groupID))
	return OK(fd).WithRedraw()
}

func (d *Dispatcher) toggleBlockComment(cmd Command) CommandResult {
	if cmd.Comment.BlockStart == "" || cmd.Comment.BlockEnd == "" {
		return NoOp()
	}
	return d.applyPerCaret("Toggle block comment", func(sel cursor.Selection) (piece.Offset, int, string, cursor.Selection) {
		start, end := sel.Start(), sel.End()
		text := d.Table.GetRange(start, end-start)
		bs, be := cmd.Comment.BlockStart, cmd.Comment.BlockEnd
		if strings.HasPrefix(text, bs) && strings.HasSuffix(text, be) {
			inner := text[len(bs) : len(text)-len(be)]
			return start, int(end - start), inner, cursor.NewSelection(start, start+piece.Offset(len([]rune(inner))))
		}
		wrapped := bs + text + be
		return start, int(end - start), wrapped, cursor.NewSelection(start, start+piece.Offset(len([]rune(wrapped))))
	})
}

func (d *Dispatcher) dispatchDuplicateLines() CommandResult {
	lines := d.touchedLines()
	before := d.Cursors.All()
	fd := delta.New(int(d.Table.CharCount()))
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		meta := d.Index.Line(line)
		text := d.Index.GetLineText(line, d.Table)
		lineStart := meta.StartChar
		insertAt := meta.StartChar + meta.CharLen
		insertText := "\n" + text
		d.Table.Insert(insertAt, insertText)
		d.Index.ApplyEdit(d.Table, insertAt)
		d.shiftDerived(insertAt, 0, len([]rune(insertText)))
		fd.Add(delta.NewInsertEdit(insertAt, insertText))

		// Carets on the original line move to the duplicate below, so undo
		// restores the originals.
		d.Cursors.MapInPlace(func(sel cursor.Selection) cursor.Selection {
			if sel.Start() >= lineStart && sel.End() <= insertAt {
				return sel.MoveBy(len([]rune(insertText)))
			}
			return sel
		})
	}
	if fd.IsEmpty() {
		return NoOp()
	}
	groupID := d.History.NextGroupID()
	fd.WithUndoGroupID(groupID)
	d.History.Push(history.NewTransaction("Duplicate lines", fd, before, d.Cursors.All(), groupID))
	return OK(fd).WithRedraw()
}

func (d *Dispatcher) dispatchDeleteLines() CommandResult {
	lines := d.touchedLines()
	before := d.Cursors.All()
	fd := delta.New(int(d.Table.CharCount()))
	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		meta := d.Index.Line(line)
		start := meta.StartChar
		length := meta.CharLen
		if line+1 < d.Index.LineCount() {
			length++ // absorb the trailing newline
		} else if line > 0 {
			start--
			length++ // last line: absorb the preceding newline instead
		}
		removed := d.Table.GetRange(start, length)
		d.Table.Delete(start, length)
		d.Index.ApplyEdit(d.Table, start)
		d.shiftDerived(start, int(length), 0)
		fd.Add(delta.NewDeleteEdit(start, removed))
	}
	if fd.IsEmpty() {
		return NoOp()
	}
	groupID := d.History.NextGroupID()
	fd.WithUndoGroupID(groupID)
	d.History.Push(history.NewTransaction("Delete lines", fd, before, d.Cursors.All(), groupID))
	return OK(fd).WithRedraw()
}

func (d *Dispatcher) dispatchMoveLines(direction int) CommandResult {
	lines := d.touchedLines()
	if len(lines) == 0 {
		return NoOp()
	}
	first, last := lines[0], lines[len(lines)-1]
	if first+direction < 0 || last+direction >= d.Index.LineCount() {
		return NoOp()
	}

	before := d.Cursors.All()
	var blockLines []string
	for l := first; l <= last; l++ {
		blockLines = append(blockLines, d.Index.GetLineText(l, d.Table))
	}
	block := strings.Join(blockLines, "\n")

	blockStart := d.Index.Line(first).StartChar
	blockMeta := d.Index.Line(last)
	blockEnd := blockMeta.StartChar + blockMeta.CharLen

	// The block swaps with its neighbor line in a single replace spanning
	// both, so no orphan newline is ever left behind.
	var spanStart, spanEnd piece.Offset
	var newText string
	var caretShift int
	if direction < 0 {
		neighbor := d.Index.GetLineText(first-1, d.Table)
		spanStart = d.Index.Line(first - 1).StartChar
		spanEnd = blockEnd
		newText = block + "\n" + neighbor
		caretShift = -(len([]rune(neighbor)) + 1)
	} else {
		neighbor := d.Index.GetLineText(last+1, d.Table)
		neighborMeta := d.Index.Line(last + 1)
		spanStart = blockStart
		spanEnd = neighborMeta.StartChar + neighborMeta.CharLen
		newText = neighbor + "\n" + block
		caretShift = len([]rune(neighbor)) + 1
	}

	fd := delta.New(int(d.Table.CharCount()))
	removed := d.Table.GetRange(spanStart, spanEnd-spanStart)
	d.Table.Replace(spanStart, spanEnd-spanStart, newText)
	d.Index.ApplyEdit(d.Table, spanStart)
	d.shiftAnchored(spanStart, -int(spanEnd-spanStart))
	d.shiftAnchored(spanStart, len([]rune(newText)))
	fd.Add(delta.NewReplaceEdit(spanStart, removed, newText))

	// Selections inside the moved block travel with it.
	moved := make([]cursor.Selection, len(before))
	for i, sel := range before {
		if sel.Start() >= blockStart && sel.End() <= blockEnd {
			moved[i] = sel.MoveBy(caretShift)
		} else {
			moved[i] = sel.Clamp(d.Table.CharCount())
		}
	}
	d.Cursors.SetAll(moved)

	groupID := d.History.NextGroupID()
	fd.WithUndoGroupID(groupID)
	d.History.Push(history.NewTransaction("Move lines", fd, before, d.Cursors.All(), groupID))
	return OK(fd).WithRedraw()
}

func (d *Dispatcher) dispatchJoinLines() CommandResult {
	lines := d.touchedLines()
	if len(lines) == 0 {
		return NoOp()
	}
	before := d.Cursors.All()
	fd := delta.New(int(d.Table.CharCount()))

	seenLine := lines[0]
	if seenLine+1 >= d.Index.LineCount() {
		return NoOp()
	}
	meta := d.Index.Line(seenLine)
	joinAt := meta.StartChar + meta.CharLen
	nextText := d.Index.GetLineText(seenLine+1, d.Table)
	trimmedNext := strings.TrimLeft(nextText, " \t")
	trimmedLen := len([]rune(nextText)) - len([]rune(trimmedNext))

	length := 1 + trimmedLen // the newline plus the next line's leading whitespace
	removed := d.Table.GetRange(joinAt, piece.Offset(length))
	d.Table.Replace(joinAt, piece.Offset(length), " ")
	d.Index.ApplyEdit(d.Table, joinAt)
	d.shiftDerived(joinAt, length, 1)
	fd.Add(delta.NewReplaceEdit(joinAt, removed, " "))

	groupID := d.History.NextGroupID()
	fd.WithUndoGroupID(groupID)
	d.History.Push(history.NewTransaction("Join lines", fd, before, d.Cursors.All(), groupID))
	return OK(fd).WithRedraw()
}

func (d *Dispatcher) dispatchReplaceMatch(cmd Command, all bool) CommandResult {
	re, err := compileSearchRegex(cmd.Pattern, cmd.UseRegex, cmd.CaseSensitive)
	if err != nil {
		return Error(ErrRegexCompile, err)
	}
	text := d.Table.GetText()
	var locs [][]int
	if all {
		locs = re.FindAllStringSubmatchIndex(text, -1)
	} else {
		headByte := byteOffsetForChar(text, d.Cursors.Primary().Head)
		rest := re.FindStringSubmatchIndex(text[headByte:])
		if rest != nil {
			for i := range rest {
				if rest[i] >= 0 {
					rest[i] += headByte
				}
			}
			locs = [][]int{rest}
		}
	}
	if len(locs) == 0 {
		return NoOpWithMessage("no match")
	}

	before := d.Cursors.All()
	fd := delta.New(int(d.Table.CharCount()))
	for i := len(locs) - 1; i >= 0; i-- {
		loc := locs[i]
		start := charOffsetForByte(text, loc[0])
		end := charOffsetForByte(text, loc[1])
		matched := text[loc[0]:loc[1]]
		replacement := string(re.ExpandString(nil, cmd.Replacement, text, loc))
		deletedLen := int(end - start)
		insertedLen := len([]rune(replacement))
		d.Table.Replace(start, piece.Offset(deletedLen), replacement)
		d.Index.ApplyEdit(d.Table, start)
		d.shiftDerived(start, deletedLen, insertedLen)
		fd.Add(delta.NewReplaceEdit(start, matched, replacement))
	}
	groupID := d.History.NextGroupID()
	fd.WithUndoGroupID(groupID)
	d.History.Push(history.NewTransaction("Replace", fd, before, d.Cursors.All(), groupID))
	return OK(fd).WithRedraw()
}

func compileSearchRegex(pattern string, useRegex, caseSensitive bool) (*regexp.Regexp, error) {
	p := pattern
	if !useRegex {
		p = regexp.QuoteMeta(p)
	}
	if !caseSensitive {
		p = "(?i)" + p
	}
	return regexp.Compile(p)
}

// byteOffsetForChar converts a char (rune) offset into text to the
// corresponding byte offset, since Go's regexp and strings APIs report
// match positions in bytes while this kernel addresses everything in
// Unicode scalar values (spec.md §3).
func byteOffsetForChar(text string, charOffset piece.Offset) int {
	n := piece.Offset(0)
	for i := range text {
		if n == charOffset {
			return i
		}
		n++
	}
	return len(text)
}

// charOffsetForByte converts a byte offset into text (e.g. a regexp match
// index) to the corresponding char offset.
func charOffsetForByte(text string, byteOffset int) piece.Offset {
	if byteOffset <= 0 {
		return 0
	}
	if byteOffset >= len(text) {
		return piece.Offset(utf8.RuneCountInString(text))
	}
	return piece.Offset(utf8.RuneCountInString(text[:byteOffset]))
}

// --- Undo/Redo ------------------------------------------------------------

func (d *Dispatcher) dispatchUndo() CommandResult {
	txn, err := d.History.Undo()
	if err != nil {
		return NoOpWithMessage(err.Error())
	}
	fd := d.applyRawEdits(txn.InverseEdits)
	fd.WithUndoGroupID(txn.GroupID)
	d.Cursors.SetAll(txn.SelectionBefore)
	return OK(fd).WithRedraw()
}

func (d *Dispatcher) dispatchRedo() CommandResult {
	txn, err := d.History.Redo()
	if err != nil {
		return NoOpWithMessage(err.Error())
	}
	forward := make([]delta.Edit, len(txn.InverseEdits))
	for i, e := range txn.InverseEdits {
		forward[len(forward)-1-i] = e.Invert()
	}
	fd := d.applyRawEdits(forward)
	fd.WithUndoGroupID(txn.GroupID)
	d.Cursors.SetAll(txn.SelectionAfter)
	return OK(fd).WithRedraw()
}

// applyRawEdits replays a list of edits against the table, line index, and
// anchored layers, returning them as a TextDelta; cursors are positioned
// explicitly by the caller from the transaction's recorded before/after
// selections rather than shifted, since undo/redo restores a previously
// observed state.
func (d *Dispatcher) applyRawEdits(edits []delta.Edit) *delta.TextDelta {
	fd := delta.New(int(d.Table.CharCount()))
	for _, e := range edits {
		fd.Add(e)
		deletedLen := len([]rune(e.DeletedText))
		insertedLen := len([]rune(e.InsertedText))
		d.Table.Replace(e.Start, piece.Offset(deletedLen), e.InsertedText)
		d.Index.ApplyEdit(d.Table, e.Start)
		if deletedLen > 0 {
			d.shiftAnchored(e.Start, -deletedLen)
		}
		if insertedLen > 0 {
			d.shiftAnchored(e.Start, insertedLen)
		}
	}
	return fd
}

// --- Cursor commands --------------------------------------------------

func (d *Dispatcher) moveHead(sel cursor.Selection, newHead piece.Offset, extend bool) cursor.Selection {
	if extend {
		return sel.Extend(newHead)
	}
	return cursor.NewCaret(newHead)
}

func (d *Dispatcher) dispatchMoveTo(cmd Command) CommandResult {
	d.Cursors.MapInPlace(func(sel cursor.Selection) cursor.Selection {
		return d.moveHead(sel, clampOffset(cmd.Offset, d.Table.CharCount()), cmd.Extend)
	})
	return OK(nil)
}

func clampOffset(o, charCount piece.Offset) piece.Offset {
	if o < 0 {
		return 0
	}
	if o > charCount {
		return charCount
	}
	return o
}

func (d *Dispatcher) dispatchMoveGrapheme(forward, extend bool) CommandResult {
	d.Cursors.MapInPlace(func(sel cursor.Selection) cursor.Selection {
		pos := sel.Head
		var newPos piece.Offset
		if forward {
			if pos >= d.Table.CharCount() {
				return sel
			}
			newPos = nextUnit(d, pos, deleteUnitGrapheme)
		} else {
			if pos <= 0 {
				return sel
			}
			newPos = prevUnit(d, pos, deleteUnitGrapheme)
		}
		return d.moveHead(sel, newPos, extend)
	})
	return OK(nil)
}

func (d *Dispatcher) dispatchMoveWord(forward, extend bool) CommandResult {
	d.Cursors.MapInPlace(func(sel cursor.Selection) cursor.Selection {
		pos := sel.Head
		var newPos piece.Offset
		if forward {
			newPos = nextUnit(d, pos, deleteUnitWord)
		} else {
			newPos = prevUnit(d, pos, deleteUnitWord)
		}
		return d.moveHead(sel, newPos, extend)
	})
	return OK(nil)
}

// visibleLines returns the fold-aware visibility mask for every logical
// line.
func (d *Dispatcher) visibleLines() []bool {
	count := d.Index.LineCount()
	if d.Folds == nil {
		visible := make([]bool, count)
		for i := range visible {
			visible[i] = true
		}
		return visible
	}
	visible, _ := d.Folds.VisibleLines(d.Index, count)
	return visible
}

func (d *Dispatcher) lineSegments(line int) (string, lineindex.LineMeta, []layout.Segment) {
	text := d.Index.GetLineText(line, d.Table)
	meta := d.Index.Line(line)
	return text, meta, layout.Layout(text, meta.StartChar, d.Layout)
}

// visualRowTarget resolves an absolute visual row (an index into the
// wrapped, fold-aware presentation) to its logical line and segment index,
// clamping to the last visible row.
func (d *Dispatcher) visualRowTarget(row int) (line, segIdx int) {
	if row < 0 {
		row = 0
	}
	visible := d.visibleLines()
	count := 0
	line, segIdx = 0, 0
	for l := range visible {
		if !visible[l] {
			continue
		}
		_, _, segs := d.lineSegments(l)
		if row < count+len(segs) {
			return l, row - count
		}
		count += len(segs)
		line, segIdx = l, len(segs)-1
	}
	return line, segIdx
}

// visualRowOf computes the absolute visual row of a logical position, and
// the position's segment index within its line. Positions on a hidden line
// resolve to the collapsed region's start line.
func (d *Dispatcher) visualRowOf(pos lineindex.Position) (row, segIdx int) {
	visible := d.visibleLines()
	target := pos.Line
	for target > 0 && !visible[target] {
		target--
	}
	count := 0
	for l := 0; l < target; l++ {
		if !visible[l] {
			continue
		}
		_, _, segs := d.lineSegments(l)
		count += len(segs)
	}
	lineText, _, segs := d.lineSegments(target)
	segIdx, _ = layout.LogicalToVisual(lineText, d.Layout.TabWidth, segs, pos.Column)
	if target != pos.Line {
		segIdx = len(segs) - 1
	}
	return count + segIdx, segIdx
}

// moveToVisualCell places a selection head at visual (row, xCells).
func (d *Dispatcher) moveToVisualCell(sel cursor.Selection, row, xCells int, extend bool) cursor.Selection {
	line, segIdx := d.visualRowTarget(row)
	lineText, meta, segs := d.lineSegments(line)
	col := layout.VisualToLogical(lineText, d.Layout.TabWidth, segs, segIdx, xCells)
	moved := d.moveHead(sel, meta.StartChar+piece.Offset(col), extend)
	moved.PreferredX = xCells
	return moved
}

func (d *Dispatcher) dispatchMoveToVisual(cmd Command) CommandResult {
	d.Cursors.MapInPlace(func(sel cursor.Selection) cursor.Selection {
		return d.moveToVisualCell(sel, cmd.Row, cmd.XCells, cmd.Extend)
	})
	return OK(nil)
}

// preferredXOf returns the sticky x for vertical motion, computing it from
// the head position when the selection has none recorded.
func (d *Dispatcher) preferredXOf(sel cursor.Selection, pos lineindex.Position) int {
	if sel.PreferredX >= 0 {
		return sel.PreferredX
	}
	lineText, _, segs := d.lineSegments(pos.Line)
	_, x := layout.LogicalToVisual(lineText, d.Layout.TabWidth, segs, pos.Column)
	return x
}

func (d *Dispatcher) dispatchMoveVisualBy(cmd Command) CommandResult {
	d.Cursors.MapInPlace(func(sel cursor.Selection) cursor.Selection {
		pos := d.Index.CharOffsetToPosition(sel.Head)
		row, _ := d.visualRowOf(pos)
		x := d.preferredXOf(sel, pos)
		return d.moveToVisualCell(sel, row+cmd.DeltaRows, x, cmd.Extend)
	})
	return OK(nil)
}

func (d *Dispatcher) dispatchMoveToVisualLineEdge(cmd Command, start bool) CommandResult {
	d.Cursors.MapInPlace(func(sel cursor.Selection) cursor.Selection {
		pos := d.Index.CharOffsetToPosition(sel.Head)
		lineText, _, segs := d.lineSegments(pos.Line)
		segIdx, _ := layout.LogicalToVisual(lineText, d.Layout.TabWidth, segs, pos.Column)
		seg := segs[segIdx]
		var newPos piece.Offset
		if start {
			newPos = seg.StartChar
		} else {
			newPos = seg.EndChar
		}
		return d.moveHead(sel, newPos, cmd.Extend)
	})
	return OK(nil)
}

func (d *Dispatcher) dispatchSelectLine(cmd Command) CommandResult {
	line := cmd.Row
	if line < 0 || line >= d.Index.LineCount() {
		return NoOp()
	}
	meta := d.Index.Line(line)
	end := meta.StartChar + meta.CharLen
	if line+1 < d.Index.LineCount() {
		end++ // include the trailing newline
	}
	sel := cursor.NewSelection(meta.StartChar, end)
	if cmd.Extend {
		d.Cursors.Add(sel)
	} else {
		d.Cursors.Set(sel)
	}
	return OK(nil)
}

func (d *Dispatcher) dispatchAddCursorVertical(direction int) CommandResult {
	primary := d.Cursors.Primary()
	pos := d.Index.CharOffsetToPosition(primary.Head)
	row, _ := d.visualRowOf(pos)
	if row+direction < 0 {
		return NoOp()
	}
	x := d.preferredXOf(primary, pos)
	added := d.moveToVisualCell(cursor.NewCaret(primary.Head), row+direction, x, false)
	if added.Head == primary.Head {
		return NoOp()
	}
	d.Cursors.Add(added)
	return OK(nil)
}

func (d *Dispatcher) dispatchAddNextOccurrence() CommandResult {
	primary := d.Cursors.Primary()
	if primary.IsEmpty() {
		return NoOp()
	}
	needle := d.Table.GetRange(primary.Start(), primary.End()-primary.Start())
	text := d.Table.GetText()
	afterByte := byteOffsetForChar(text, primary.End())
	idx := strings.Index(text[afterByte:], needle)
	if idx < 0 {
		return NoOpWithMessage("no further occurrence")
	}
	start := primary.End() + piece.Offset(utf8.RuneCountInString(text[afterByte:afterByte+idx]))
	d.Cursors.Add(cursor.NewSelection(start, start+piece.Offset(len([]rune(needle)))))
	return OK(nil)
}

func (d *Dispatcher) dispatchAddAllOccurrences() CommandResult {
	primary := d.Cursors.Primary()
	if primary.IsEmpty() {
		return NoOp()
	}
	needle := d.Table.GetRange(primary.Start(), primary.End()-primary.Start())
	text := d.Table.GetText()
	var sels []cursor.Selection
	runes := []rune(text)
	needleRunes := []rune(needle)
	for i := 0; i+len(needleRunes) <= len(runes); i++ {
		if string(runes[i:i+len(needleRunes)]) == needle {
			sels = append(sels, cursor.NewSelection(piece.Offset(i), piece.Offset(i+len(needleRunes))))
		}
	}
	if len(sels) == 0 {
		return NoOp()
	}
	d.Cursors.SetAll(sels)
	return OK(nil)
}

func (d *Dispatcher) dispatchFind(cmd Command, forward bool) CommandResult {
	re, err := compileSearchRegex(cmd.Pattern, cmd.UseRegex, cmd.CaseSensitive)
	if err != nil {
		return Error(ErrRegexCompile, err)
	}
	text := d.Table.GetText()
	primary := d.Cursors.Primary()
	if forward {
		afterByte := byteOffsetForChar(text, primary.End())
		loc := re.FindStringIndex(text[afterByte:])
		if loc == nil {
			return NoOpWithMessage("no match")
		}
		start := charOffsetForByte(text, afterByte+loc[0])
		end := charOffsetForByte(text, afterByte+loc[1])
		d.Cursors.Set(cursor.NewSelection(start, end))
		return OK(nil)
	}
	beforeByte := byteOffsetForChar(text, primary.Start())
	locs := re.FindAllStringIndex(text[:beforeByte], -1)
	if len(locs) == 0 {
		return NoOpWithMessage("no match")
	}
	last := locs[len(locs)-1]
	start := charOffsetForByte(text, last[0])
	end := charOffsetForByte(text, last[1])
	d.Cursors.Set(cursor.NewSelection(start, end))
	return OK(nil)
}
