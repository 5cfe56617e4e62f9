// errors.go implements the fatal-error taxonomy of spec §7. The compiler never
// attempts recovery: every kind below aborts the current compilation with a
// diagnostic naming the block id and identifier/production involved. Each kind
// is wrapped with github.com/pkg/errors so the originating call stack survives
// up to main, the way a teaching-grade front-end should still report useful
// diagnostics even though it never tries to recover from them.

package util

import (
	"strconv"

	"github.com/pkg/errors"
)

// Kind discriminates the error taxonomy of spec §7.
type Kind int

const (
	Redefinition Kind = iota
	Undefined
	AssignToConst
	ParseShape
	UnsupportedOp
	TempExhausted
	IO
)

var kindNames = [...]string{
	"Redefinition",
	"Undefined",
	"AssignToConst",
	"ParseShape",
	"UnsupportedOp",
	"TempExhausted",
	"IO",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// CompileError is a fatal, non-recoverable compiler diagnostic.
type CompileError struct {
	Kind    Kind
	Block   int // blockId the error occurred in, -1 if not applicable.
	Subject string // identifier or production name involved.
	cause   error
}

func (e *CompileError) Error() string {
	if e.Block >= 0 {
		return e.Kind.String() + " in block " + strconv.Itoa(e.Block) + ": " + e.Subject
	}
	return e.Kind.String() + ": " + e.Subject
}

func (e *CompileError) Unwrap() error { return e.cause }

// NewError constructs a CompileError of the given kind and wraps it with a stack
// trace via github.com/pkg/errors so callers that print %+v get full context.
func NewError(kind Kind, block int, subject string) error {
	return errors.WithStack(&CompileError{Kind: kind, Block: block, Subject: subject})
}

// Wrap attaches additional context to an existing error without discarding its kind.
func Wrap(err error, context string) error {
	return errors.Wrap(err, context)
}
