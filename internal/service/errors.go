// Package service holds the business rules of the booking platform: the
// booking lifecycle, availability, ticket verification, offers,
// notifications and access checks.  Services depend on small store
// interfaces satisfied by the repository package.
package service

import (
	"errors"
	"fmt"
)

// Error kinds.  Handlers map them to HTTP status codes; errors.Is matches
// an *Error against its kind.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// Error is a classified failure carrying a message safe to show clients.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...any) error { return newError(ErrNotFound, format, args...) }

func invalidf(format string, args ...any) error { return newError(ErrInvalidInput, format, args...) }

func forbiddenf(format string, args ...any) error { return newError(ErrForbidden, format, args...) }

func conflictf(format string, args ...any) error { return newError(ErrConflict, format, args...) }

func unauthorizedf(format string, args ...any) error {
	return newError(ErrUnauthorized, format, args...)
}

// Message returns the client-facing message of err when it is an *Error.
func Message(err error) (string, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Message, true
	}
	return "", false
}
