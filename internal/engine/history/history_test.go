package history

import (
	"testing"

	"github.com/windoze/editor-core-go/internal/engine/cursor"
	"github.com/windoze/editor-core-go/internal/engine/delta"
)

func TestPushAndUndoReturnsInverseEdits(t *testing.T) {
	s := NewStack(10)
	d := delta.New(5)
	d.Add(delta.NewInsertEdit(5, "!"))
	before := []cursor.Selection{cursor.NewCaret(5)}
	after := []cursor.Selection{cursor.NewCaret(6)}

	txn := NewTransaction("Type '!'", d, before, after, s.NextGroupID())
	s.Push(txn)

	if !s.CanUndo() || s.CanRedo() {
		t.Fatalf("expected CanUndo=true CanRedo=false after push")
	}

	undone, err := s.Undo()
	if err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if len(undone.InverseEdits) != 1 || !undone.InverseEdits[0].IsDelete() {
		t.Fatalf("expected a single delete inverse, got %v", undone.InverseEdits)
	}
	if !s.CanRedo() {
		t.Fatal("expected CanRedo=true after undo")
	}
}

func TestUndoEmptyStackErrors(t *testing.T) {
	s := NewStack(10)
	if _, err := s.Undo(); err != ErrNothingToUndo {
		t.Fatalf("Undo on empty stack = %v, want ErrNothingToUndo", err)
	}
}

func TestGroupMergesIntoOneTransaction(t *testing.T) {
	s := NewStack(10)
	gid := s.NextGroupID()
	s.BeginGroup("Multi-caret insert")

	d1 := delta.New(5)
	d1.Add(delta.NewInsertEdit(1, "a"))
	s.Push(NewTransaction("caret 1", d1, nil, nil, gid))

	d2 := delta.New(5)
	d2.Add(delta.NewInsertEdit(3, "b"))
	s.Push(NewTransaction("caret 2", d2, nil, nil, gid))

	s.EndGroup()

	if s.UndoCount() != 1 {
		t.Fatalf("UndoCount = %d, want 1 (grouped)", s.UndoCount())
	}
	txn, _ := s.Undo()
	if len(txn.InverseEdits) != 2 {
		t.Fatalf("grouped transaction has %d inverse edits, want 2", len(txn.InverseEdits))
	}
}

func TestCheckpointDetectsDirty(t *testing.T) {
	s := NewStack(10)
	cp := s.CreateCheckpoint()
	if s.IsDirtySince(cp) {
		t.Fatal("expected clean at checkpoint")
	}
	d := delta.New(1)
	d.Add(delta.NewInsertEdit(0, "x"))
	s.Push(NewTransaction("x", d, nil, nil, 1))
	if !s.IsDirtySince(cp) {
		t.Fatal("expected dirty after push")
	}
}
