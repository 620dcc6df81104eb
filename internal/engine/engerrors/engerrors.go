// Package engerrors implements the engine's error taxonomy (spec.md §7):
// BoundExceeded and OversizeState, which the walker always recovers at the
// method boundary, and InvariantViolation, a programming bug that must
// crash fast with context rather than be swallowed.
//
// The shape follows the teacher interpreter's internal/interp/errors
// package: a single rich error struct with a Kind tag, positional context,
// and Unwrap support, plus a catalog of message format constants.
package engerrors

import "fmt"

// Kind categorizes an engine error.
type Kind string

const (
	// KindBoundExceeded covers MAX_STEPS and MAX_NESTED_BOOLEAN_STATES.
	KindBoundExceeded Kind = "BoundExceeded"
	// KindOversizeState covers the constraints-too-big guard.
	KindOversizeState Kind = "OversizeState"
	// KindInvariantViolation covers programming bugs: popping an empty
	// stack, an unexpected terminator kind, and the like.
	KindInvariantViolation Kind = "InvariantViolation"
)

// EngineError is the engine's single error type.
type EngineError struct {
	Kind    Kind
	Method  string
	Point   string // formatted program point, if known
	Message string
	Err     error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Point != "" {
		return fmt.Sprintf("%s in %s at %s: %s", e.Kind, e.Method, e.Point, e.Message)
	}
	return fmt.Sprintf("%s in %s: %s", e.Kind, e.Method, e.Message)
}

// Unwrap implements error unwrapping for error chains.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// Recoverable reports whether the walker should recover this error at the
// method boundary (BoundExceeded, OversizeState) or let it crash the
// process (InvariantViolation), per spec.md §7's recovery policy.
func (e *EngineError) Recoverable() bool {
	return e.Kind == KindBoundExceeded || e.Kind == KindOversizeState
}

// Message format constants, in the teacher catalog's style.
const (
	MsgMaxStepsExceeded      = "exceeded %d interpreted elements"
	MsgMaxVisitsExceeded     = "program point visited more than %d times along one path"
	MsgNestedBooleanExceeded = "exceeded %d nested boolean states"
	MsgConstraintsTooLarge   = "constraints size %d exceeds threshold %d while worklist is oversize"
	MsgEmptyStackPop         = "attempted to pop %d value(s) from a stack of %d"
	MsgUnexpectedTerminator  = "unexpected terminator kind at program point"
	MsgNoMatchingSuccessor   = "branch terminator has no %s successor"
)

// NewBoundExceeded creates a BoundExceeded error.
func NewBoundExceeded(method string, format string, args ...any) *EngineError {
	return &EngineError{Kind: KindBoundExceeded, Method: method, Message: fmt.Sprintf(format, args...)}
}

// NewOversizeState creates an OversizeState error.
func NewOversizeState(method string, format string, args ...any) *EngineError {
	return &EngineError{Kind: KindOversizeState, Method: method, Message: fmt.Sprintf(format, args...)}
}

// NewInvariantViolation creates an InvariantViolation error. Callers
// should follow spec.md §7's policy and panic with it rather than attempt
// to continue.
func NewInvariantViolation(method, point string, format string, args ...any) *EngineError {
	return &EngineError{Kind: KindInvariantViolation, Method: method, Point: point, Message: fmt.Sprintf(format, args...)}
}
