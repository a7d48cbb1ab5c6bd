// Package command implements the unified command dispatcher: the
// Edit/Cursor/View/Style command enum (spec.md §4.7), applied in
// descending-offset order across multi-caret selections, producing a
// delta.TextDelta and a tagged CommandResult.
//
// Grounded on the teacher's internal/dispatcher/handler package
// (handler.go, result.go): CommandResult reuses the teacher's
// Status/WithX fluent-builder shape, generalized from view-facing fields
// (ScrollTarget, ModeChange) to this kernel's char-offset/TextDelta
// vocabulary. The descending-offset multi-caret application pattern and
// Command interface are grounded on internal/engine/history/command.go's
// InsertCommand/DeleteCommand.Execute.
package command

import (
	"fmt"

	"github.com/windoze/editor-core-go/internal/engine/delta"
	"github.com/windoze/editor-core-go/internal/engine/snapshot"
)

// Status indicates the outcome of dispatching a command.
type Status uint8

const (
	StatusOK Status = iota
	StatusNoOp
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNoOp:
		return "no-op"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrorKind enumerates the command-error taxonomy from spec.md §6.
type ErrorKind uint8

const (
	ErrNone ErrorKind = iota
	ErrInvalidOffset
	ErrInvalidPosition
	ErrInvalidRange
	ErrUnknownLayer
	ErrRegexCompile
	ErrEmptyText
)

// CommandResult is the tagged outcome of dispatching one Command.
type CommandResult struct {
	Status      Status
	ErrorKind   ErrorKind
	Err         error
	Message     string
	Delta       *delta.TextDelta
	Grid        *snapshot.Grid
	ModeChange  string
	NeedsRedraw bool
}

// IsOK reports success.
func (r CommandResult) IsOK() bool { return r.Status == StatusOK }

// IsError reports failure.
func (r CommandResult) IsError() bool { return r.Status == StatusError }

// OK builds a successful result, optionally carrying a TextDelta.
func OK(d *delta.TextDelta) CommandResult {
	return CommandResult{Status: StatusOK, Delta: d}
}

// OKGrid builds a successful result carrying a viewport grid.
func OKGrid(g *snapshot.Grid) CommandResult {
	return CommandResult{Status: StatusOK, Grid: g}
}

// NoOp builds a result for a command that had no effect.
func NoOp() CommandResult {
	return CommandResult{Status: StatusNoOp}
}

// NoOpWithMessage builds a no-op result carrying an explanatory message.
func NoOpWithMessage(msg string) CommandResult {
	return CommandResult{Status: StatusNoOp, Message: msg}
}

// Error builds an error result of the given kind.
func Error(kind ErrorKind, err error) CommandResult {
	return CommandResult{Status: StatusError, ErrorKind: kind, Err: err}
}

// Errorf builds a formatted error result of the given kind.
func Errorf(kind ErrorKind, format string, args ...interface{}) CommandResult {
	return CommandResult{Status: StatusError, ErrorKind: kind, Err: fmt.Errorf(format, args...)}
}

// WithMessage returns a copy of r carrying msg.
func (r CommandResult) WithMessage(msg string) CommandResult {
	r.Message = msg
	return r
}

// WithModeChange returns a copy of r recording a mode transition.
func (r CommandResult) WithModeChange(mode string) CommandResult {
	r.ModeChange = mode
	return r
}

// WithRedraw returns a copy of r flagged for a full redraw (e.g. after a
// view-affecting command with no text delta, like scroll or fold toggle).
func (r CommandResult) WithRedraw() CommandResult {
	r.NeedsRedraw = true
	return r
}
