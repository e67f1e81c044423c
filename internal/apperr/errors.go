// Package apperr defines the error kinds surfaced at the request boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// Error carries a caller-facing message and optional field details on top of
// one of the sentinel kinds above.
type Error struct {
	Kind    error
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// E builds an *Error of the given kind.
func E(kind error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a validation error with per-field messages.
func Validation(msg string, fields map[string]string) *Error {
	return &Error{Kind: ErrValidation, Message: msg, Fields: fields}
}

// NotFound is shorthand for the common "<thing> not found: <id>" case.
func NotFound(what, id string) *Error {
	return E(ErrNotFound, "%s not found: %s", what, id)
}

// Message returns the caller-facing text of err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Error()
	}
	return err.Error()
}

// FieldErrors returns the field details of err, if any.
func FieldErrors(err error) map[string]string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}

// Status maps err to the HTTP status of its kind. Anything that is not one
// of the kinds above is a 500.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
