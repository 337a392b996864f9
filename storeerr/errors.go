// Package storeerr defines the error taxonomy surfaced by the widget
// store: a small closed set of kinds callers can branch on, in the same
// shape as the teacher's errors.ErrorSeverity/ErrorCategory enums.
package storeerr

import (
	"errors"
	"fmt"
)

// Kind is one of the four error categories the store ever surfaces.
type Kind int

const (
	// NotFound means the target widget id has no ACTIVE version.
	NotFound Kind = iota
	// Timeout means lock acquisition exceeded the configured duration.
	// The caller may retry with backoff.
	Timeout
	// InvalidArg means a construction-time argument was out of range.
	InvalidArg
	// Internal means an invariant was violated (e.g. a duplicate commit
	// for the same transaction id). It is logged and surfaced, never
	// silently swallowed.
	Internal
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "NOT_FOUND"
	case Timeout:
		return "TIMEOUT"
	case InvalidArg:
		return "INVALID_ARG"
	case Internal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// Error wraps a Kind with a message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an *Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error of the given kind that wraps cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
