// Package errors defines the error taxonomy shared by services and the HTTP
// layer. Each error carries a kind that maps onto an HTTP status so handlers
// never inspect error strings.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for transport mapping and retry decisions.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindPrecondition
	KindUnavailable
)

// Error is the platform error type.
type Error struct {
	kind    Kind
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the classification of the error.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the human-readable message without wrapped detail.
func (e *Error) Message() string { return e.message }

func newError(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Validation reports invalid caller input.
func Validation(format string, args ...interface{}) *Error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(format string, args ...interface{}) *Error {
	return newError(KindUnauthorized, fmt.Sprintf(format, args...))
}

// Forbidden reports an authenticated caller lacking authority.
func Forbidden(format string, args ...interface{}) *Error {
	return newError(KindForbidden, fmt.Sprintf(format, args...))
}

// NotFound reports a missing resource.
func NotFound(format string, args ...interface{}) *Error {
	return newError(KindNotFound, fmt.Sprintf(format, args...))
}

// Conflict reports a state collision such as a duplicate resource.
func Conflict(format string, args ...interface{}) *Error {
	return newError(KindConflict, fmt.Sprintf(format, args...))
}

// Precondition reports a business precondition that blocks the operation and
// has a remediation path, such as an underfunded wallet.
func Precondition(format string, args ...interface{}) *Error {
	return newError(KindPrecondition, fmt.Sprintf(format, args...))
}

// Unavailable reports a collaborator failure that the caller may retry.
func Unavailable(format string, args ...interface{}) *Error {
	return newError(KindUnavailable, fmt.Sprintf(format, args...))
}

// Internal wraps an unexpected failure.
func Internal(message string, err error) *Error {
	return &Error{kind: KindInternal, message: message, err: err}
}

// Wrap attaches a cause to an existing platform error.
func (e *Error) Wrap(err error) *Error {
	return &Error{kind: e.kind, message: e.message, err: err}
}

// KindOf extracts the kind from any error, defaulting to KindInternal.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind()
	}
	return KindInternal
}

// HTTPStatus maps an error to the HTTP status code handlers should emit.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindPrecondition:
		return http.StatusUnprocessableEntity
	case KindUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
