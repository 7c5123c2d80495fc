// Package errs defines the error taxonomy shared by repositories, services and handlers.
package errs

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable category of an error exposed to API clients.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindNotFound     Kind = "not_found"
	KindAuth         Kind = "auth"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindInternal     Kind = "internal"
)

// Repository-level sentinels. Services translate them into kinded errors.
var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrDuplicateEmail    = fmt.Errorf("email %w", ErrAlreadyExists)
	ErrDuplicateUsername = fmt.Errorf("username %w", ErrAlreadyExists)
	ErrVersionConflict   = errors.New("document modified concurrently")
)

// Error is an error carrying a Kind and a message safe to show to the caller.
type Error struct {
	Kind    Kind
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

// New creates a kinded error with the given message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates a kinded error that keeps err as its cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation reports a malformed or incomplete request.
func Validation(message string) *Error { return New(KindValidation, message) }

// Conflict reports a request that clashes with the stored state.
func Conflict(message string) *Error { return New(KindConflict, message) }

// NotFound reports a missing document or entry.
func NotFound(message string) *Error { return New(KindNotFound, message) }

// Auth reports failed credentials.
func Auth(message string) *Error { return New(KindAuth, message) }

// Internal wraps an unexpected failure. Its cause is never shown to clients.
func Internal(message string, err error) *Error { return Wrap(KindInternal, message, err) }

// KindOf reports the Kind of err. Bare repository sentinels are classified too,
// anything else is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrVersionConflict):
		return KindConflict
	default:
		return KindInternal
	}
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	switch KindOf(err) {
	case KindNotFound:
		return "Resource not found"
	case KindConflict:
		return "Resource already exists"
	default:
		return "Internal server error"
	}
}
