// Package history implements the undo/redo transaction stack: a sequence
// of inverse primitive edits in reverse application order, plus pre/post
// selection snapshots and a monotonic group id (spec.md §4.8).
//
// Grounded on the teacher's internal/engine/history package (stack.go,
// group.go, operation.go): the undo/redo stack shape, BeginGroup/EndGroup/
// CancelGroup and Checkpoint machinery are carried over
// almost unchanged, generalized from Command objects that mutate a
// *buffer.Buffer in place to Transactions that carry pre-computed
// delta.Edit inverses — this kernel's commands compute their inverses
// once at apply time (spec.md §4.8) rather than replaying Command.Undo
// against live storage.
package history

import (
	"errors"
	"time"

	"github.com/windoze/editor-core-go/internal/engine/cursor"
	"github.com/windoze/editor-core-go/internal/engine/delta"
)

// ErrNothingToUndo is returned by Undo when the undo stack is empty.
var ErrNothingToUndo = errors.New("history: nothing to undo")

// ErrNothingToRedo is returned by Redo when the redo stack is empty.
var ErrNothingToRedo = errors.New("history: nothing to redo")

// Transaction is one undoable unit: an ordered list of inverse primitive
// edits (applied in this order to undo), plus the selection snapshots
// taken immediately before and after the original edit.
type Transaction struct {
	Description     string
	InverseEdits    []delta.Edit
	SelectionBefore []cursor.Selection
	SelectionAfter  []cursor.Selection
	GroupID         uint64
	Timestamp       time.Time
}

// NewTransaction builds a transaction from a forward TextDelta (the edits
// as applied) and the selection snapshots around it. The stored
// InverseEdits are the forward edits' inverses in reverse order, ready to
// be replayed directly to undo.
func NewTransaction(description string, forward *delta.TextDelta, before, after []cursor.Selection, groupID uint64) *Transaction {
	inv := forward.Invert()
	return &Transaction{
		Description:     description,
		InverseEdits:    inv.Edits,
		SelectionBefore: before,
		SelectionAfter:  after,
		GroupID:         groupID,
		Timestamp:       time.Now(),
	}
}

// Stack manages undo/redo transactions for one document. Unlike the
// teacher's History, this is not internally synchronized: spec.md §5
// mandates a single-threaded, non-reentrant engine, so the mutex the
// teacher carries for multi-goroutine safety has no job here and is
// dropped rather than kept as unused ceremony.
type Stack struct {
	undoStack []*Transaction
	redoStack []*Transaction

	grouping  bool
	groupDesc string
	groupTxns []*Transaction
	nextGroup uint64

	maxEntries int
}

// DefaultMaxEntries is used when NewStack is given a non-positive limit.
const DefaultMaxEntries = 1000

// NewStack creates an undo/redo stack bounded to maxEntries transactions.
func NewStack(maxEntries int) *Stack {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &Stack{maxEntries: maxEntries, nextGroup: 1}
}

// NextGroupID reserves and returns a fresh monotonic group id.
func (s *Stack) NextGroupID() uint64 {
	id := s.nextGroup
	s.nextGroup++
	return id
}

// Push adds a transaction to the undo stack, clearing the redo stack. If
// currently grouping (BeginGroup/EndGroup), the transaction is buffered
// into the open group instead.
func (s *Stack) Push(txn *Transaction) {
	if s.grouping {
		s.groupTxns = append(s.groupTxns, txn)
		return
	}
	s.pushFinal(txn)
}

func (s *Stack) pushFinal(txn *Transaction) {
	s.undoStack = append(s.undoStack, txn)
	s.redoStack = nil
	if len(s.undoStack) > s.maxEntries {
		excess := len(s.undoStack) - s.maxEntries
		s.undoStack = s.undoStack[excess:]
	}
}

// Undo pops the most recent transaction, returning its inverse edits and
// the selection snapshot to restore (SelectionBefore). Callers apply the
// edits to storage themselves; Undo itself moves the transaction to the
// redo stack, since nothing about undoing a transaction requires
// recomputing it.
func (s *Stack) Undo() (*Transaction, error) {
	if len(s.undoStack) == 0 {
		return nil, ErrNothingToUndo
	}
	txn := s.undoStack[len(s.undoStack)-1]
	s.undoStack = s.undoStack[:len(s.undoStack)-1]
	s.redoStack = append(s.redoStack, txn)
	return txn, nil
}

// Redo pops the most recently undone transaction, returning the original
// forward-direction selection snapshot to restore (SelectionAfter) and the
// transaction for the caller to re-derive forward edits from (the inverse
// of InverseEdits). The transaction moves back to the undo stack.
func (s *Stack) Redo() (*Transaction, error) {
	if len(s.redoStack) == 0 {
		return nil, ErrNothingToRedo
	}
	txn := s.redoStack[len(s.redoStack)-1]
	s.redoStack = s.redoStack[:len(s.redoStack)-1]
	s.undoStack = append(s.undoStack, txn)
	return txn, nil
}

// CanUndo reports whether the undo stack is non-empty.
func (s *Stack) CanUndo() bool { return len(s.undoStack) > 0 }

// CanRedo reports whether the redo stack is non-empty.
func (s *Stack) CanRedo() bool { return len(s.redoStack) > 0 }

// UndoCount returns the number of undoable transactions.
func (s *Stack) UndoCount() int { return len(s.undoStack) }

// RedoCount returns the number of redoable transactions.
func (s *Stack) RedoCount() int { return len(s.redoStack) }

// BeginGroup opens a transaction group; subsequent Push calls buffer into
// it instead of landing directly on the undo stack.
func (s *Stack) BeginGroup(description string) {
	if s.grouping {
		return
	}
	s.grouping = true
	s.groupDesc = description
	s.groupTxns = nil
}

// EndGroup closes the open group, merging its buffered transactions'
// inverse edits into one compound transaction (matching spec.md §4.8's "a
// multi-caret command produces one transaction"). The compound's
// selection snapshots are the first buffered transaction's before-state
// and the last buffered transaction's after-state.
func (s *Stack) EndGroup() {
	if !s.grouping {
		return
	}
	s.grouping = false
	if len(s.groupTxns) == 0 {
		s.groupTxns = nil
		return
	}
	if len(s.groupTxns) == 1 {
		s.pushFinal(s.groupTxns[0])
		s.groupTxns = nil
		return
	}

	var inverses []delta.Edit
	for i := len(s.groupTxns) - 1; i >= 0; i-- {
		inverses = append(inverses, s.groupTxns[i].InverseEdits...)
	}
	compound := &Transaction{
		Description:     s.groupDesc,
		InverseEdits:    inverses,
		SelectionBefore: s.groupTxns[0].SelectionBefore,
		SelectionAfter:  s.groupTxns[len(s.groupTxns)-1].SelectionAfter,
		GroupID:         s.groupTxns[0].GroupID,
		Timestamp:       time.Now(),
	}
	s.pushFinal(compound)
	s.groupTxns = nil
}

// CancelGroup discards the open group's buffered transactions without
// pushing them to the undo stack. Edits already applied to storage still
// stand; this only affects what undo/redo sees.
func (s *Stack) CancelGroup() {
	s.grouping = false
	s.groupTxns = nil
}

// IsGrouping reports whether a group is currently open.
func (s *Stack) IsGrouping() bool { return s.grouping }

// Clear removes all undo/redo history.
func (s *Stack) Clear() {
	s.undoStack = nil
	s.redoStack = nil
	s.grouping = false
	s.groupTxns = nil
}

// Checkpoint marks a position in the undo stack.
type Checkpoint struct {
	depth int
}

// CreateCheckpoint captures the current undo-stack depth.
func (s *Stack) CreateCheckpoint() Checkpoint {
	return Checkpoint{depth: len(s.undoStack)}
}

// IsDirtySince reports whether any transaction has been pushed since cp.
func (s *Stack) IsDirtySince(cp Checkpoint) bool {
	return len(s.undoStack) != cp.depth
}
