// Package simerr defines the error taxonomy surfaced by the simulation
// kernel. Every kernel error is an *Error carrying its Kind as a field;
// callers test the kind with simerr.Is, which unwraps via errors.As.
package simerr

import (
	"errors"
	"fmt"
)

// Kind identifies which taxonomy bucket an error belongs to.
type Kind int

const (
	// Structural covers dangling references, duplicate identifiers,
	// missing required fields, and malformed sub-circuit templates.
	Structural Kind = iota
	// VersionIncompatible covers a document whose major version does
	// not match the engine.
	VersionIncompatible
	// InvalidState covers an API call made in the wrong lifecycle.
	InvalidState
	// Oscillation covers a run that failed to converge.
	Oscillation
	// Timeout covers a watchdog firing.
	Timeout
	// IO covers file read/write failures.
	IO
)

func (k Kind) String() string {
	switch k {
	case Structural:
		return "StructuralError"
	case VersionIncompatible:
		return "VersionIncompatibleError"
	case InvalidState:
		return "InvalidStateError"
	case Oscillation:
		return "OscillationError"
	case Timeout:
		return "TimeoutError"
	case IO:
		return "IOError"
	default:
		return "UnknownError"
	}
}

// Error is a kernel error carrying its taxonomy Kind alongside the
// underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a kernel error of the given kind.
func New(kind Kind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

// Is reports whether err is, or wraps, a kernel Error of the given kind,
// e.g. simerr.Is(err, simerr.Structural). Kind is not itself an error, so
// errors.Is cannot take it directly.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// OscillationDetails carries the extra context an OscillationError
// reports: the VNET ids that toggled most during the failed run.
type OscillationDetails struct {
	Iterations int
	Offenders  []string
}

// OscillationError wraps OscillationDetails as the cause of a kernel
// Error of kind Oscillation.
type OscillationError struct {
	Details OscillationDetails
}

func (e *OscillationError) Error() string {
	return fmt.Sprintf("oscillation after %d iterations, offenders=%v", e.Details.Iterations, e.Details.Offenders)
}

// NewOscillation builds a kernel Error of kind Oscillation carrying the
// offending VNET ids.
func NewOscillation(op string, details OscillationDetails) *Error {
	return New(Oscillation, op, &OscillationError{Details: details})
}

// WarningCondition is a non-fatal condition: an unconnected link, an
// isolated tab, or a component whose evaluate panicked. It is collected
// on the engine, never returned as a Go error.
type WarningCondition struct {
	Message     string
	ComponentID string
}

func (w WarningCondition) String() string {
	if w.ComponentID != "" {
		return fmt.Sprintf("%s (component %s)", w.Message, w.ComponentID)
	}
	return w.Message
}
