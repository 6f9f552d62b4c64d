// Package errs provides the structured error taxonomy used across logjam.
//
// Every domain failure is one of the kinds enumerated in Kind: InvalidValue,
// NotFound, InvalidOperation, BusinessRuleViolation (reserved, unused),
// Parse, or Watcher. Callers that need to branch on failure type use
// errors.As to recover an *Error and inspect its Kind, rather than
// string-matching messages.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind string

const (
	// InvalidValue marks failed validation of a primitive type: empty id,
	// malformed URL, out-of-range score, missing directory.
	InvalidValue Kind = "InvalidValue"
	// NotFound marks an absent entity on a lookup that required presence.
	NotFound Kind = "NotFound"
	// InvalidOperation marks a violated structural rule, or a persistence
	// layer failure (the caller cannot distinguish constraint violations
	// from I/O errors; that is intentional per the persistence contract).
	InvalidOperation Kind = "InvalidOperation"
	// BusinessRuleViolation is reserved for future use; currently unused.
	BusinessRuleViolation Kind = "BusinessRuleViolation"
	// Parse marks malformed markdown or ingestion I/O failures.
	Parse Kind = "Parse"
	// Watcher marks errors propagated from the underlying file watcher.
	Watcher Kind = "Watcher"
)

// Error is the structured error type carried by every domain failure.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause for error-chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error of the given kind around an existing error.
// If cause is nil, it returns New(kind, message), an error without a cause.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return New(kind, message)
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Invalidf builds an InvalidValue error with a formatted message.
func Invalidf(format string, args ...any) *Error {
	return New(InvalidValue, fmt.Sprintf(format, args...))
}

// NotFoundf builds a NotFound error with a formatted message.
func NotFoundf(format string, args ...any) *Error {
	return New(NotFound, fmt.Sprintf(format, args...))
}

// InvalidOpf builds an InvalidOperation error with a formatted message.
func InvalidOpf(format string, args ...any) *Error {
	return New(InvalidOperation, fmt.Sprintf(format, args...))
}

// Parsef builds a Parse error with a formatted message.
func Parsef(format string, args ...any) *Error {
	return New(Parse, fmt.Sprintf(format, args...))
}

// KindOf extracts the Kind from err, if it is (or wraps) an *Error.
// Returns "" if err is nil or not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
