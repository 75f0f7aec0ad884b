package model

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindUnauthorized ErrorKind = "unauthorized"
	KindForbidden    ErrorKind = "forbidden"
	KindNotFound     ErrorKind = "not_found"
	KindConflict     ErrorKind = "conflict"
	KindState        ErrorKind = "state"
	KindLocked       ErrorKind = "locked"
	KindExhausted    ErrorKind = "exhausted"
	KindInternal     ErrorKind = "internal"
)

// Error is the error type every layer above the repository speaks. The
// Message is safe to show to API callers.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func ErrValidation(format string, args ...any) *Error {
	return newError(KindValidation, format, args...)
}

func ErrUnauthorized(format string, args ...any) *Error {
	return newError(KindUnauthorized, format, args...)
}

func ErrForbidden(format string, args ...any) *Error {
	return newError(KindForbidden, format, args...)
}

func ErrNotFound(format string, args ...any) *Error {
	return newError(KindNotFound, format, args...)
}

func ErrConflict(format string, args ...any) *Error {
	return newError(KindConflict, format, args...)
}

func ErrState(format string, args ...any) *Error {
	return newError(KindState, format, args...)
}

func ErrLocked(format string, args ...any) *Error {
	return newError(KindLocked, format, args...)
}

func ErrExhausted(format string, args ...any) *Error {
	return newError(KindExhausted, format, args...)
}

// ErrInternal wraps an unexpected failure. The cause is kept for logging
// but never rendered.
func ErrInternal(err error, format string, args ...any) *Error {
	e := newError(KindInternal, format, args...)
	e.Err = err
	return e
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}
