// Package errs defines the catalog's error taxonomy. Every error carries a
// human readable message and a name equal to its kind.
package errs

import (
	"errors"
	"net/http"
)

// Kind names a category of failure.
type Kind string

const (
	KindValidation   Kind = "ValidationError"
	KindNotFound     Kind = "NotFoundError"
	KindUnauthorized Kind = "UnauthorizedError"
	KindForbidden    Kind = "ForbiddenError"
	KindBadRequest   Kind = "BadRequestError"
	KindConflict     Kind = "ConflictError"
	KindInternal     Kind = "InternalError"
	KindUnexpected   Kind = "UnexpectedError"
	KindHTTP         Kind = "HttpError"
)

// Sentinels for errors.Is. Any *Error or *HTTPError of the same kind matches.
var (
	ErrValidation   = &Error{kind: KindValidation, message: "validation failed"}
	ErrNotFound     = &Error{kind: KindNotFound, message: "not found"}
	ErrUnauthorized = &Error{kind: KindUnauthorized, message: "Unauthorized access"}
	ErrForbidden    = &Error{kind: KindForbidden, message: "Access forbidden"}
	ErrBadRequest   = &Error{kind: KindBadRequest, message: "bad request"}
	ErrConflict     = &Error{kind: KindConflict, message: "conflict"}
	ErrInternal     = &Error{kind: KindInternal, message: "Internal server error"}
	ErrUnexpected   = &Error{kind: KindUnexpected, message: "An unexpected error occurred"}
)

// Error is an application error of a given kind.
type Error struct {
	kind    Kind
	message string
	cause   error
}

func (e *Error) Error() string { return e.message }

// Name returns the kind name, e.g. "ValidationError".
func (e *Error) Name() string { return string(e.kind) }

// Kind returns the error kind.
func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Unwrap() error { return e.cause }

// Is matches any taxonomy error of the same kind.
func (e *Error) Is(target error) bool {
	var k interface{ Kind() Kind }
	if errors.As(target, &k) {
		return k.Kind() == e.kind
	}
	return false
}

// New builds an error of an arbitrary kind.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Validation reports a broken business rule.
func Validation(message string) *Error {
	return New(KindValidation, message)
}

// NotFound reports a missing entity, e.g. NotFound("Product") -> "Product not found".
func NotFound(entity string) *Error {
	return New(KindNotFound, entity+" not found")
}

func Unauthorized() *Error {
	return New(KindUnauthorized, "Unauthorized access")
}

func Forbidden() *Error {
	return New(KindForbidden, "Access forbidden")
}

func BadRequest(message string) *Error {
	return New(KindBadRequest, message)
}

func Conflict(message string) *Error {
	return New(KindConflict, message)
}

// Internal wraps an underlying failure. A nil err yields the default message.
func Internal(err error) *Error {
	if err == nil || err.Error() == "" {
		return New(KindInternal, "Internal server error")
	}
	return &Error{kind: KindInternal, message: err.Error(), cause: err}
}

func Unexpected() *Error {
	return New(KindUnexpected, "An unexpected error occurred")
}

// KindOf returns the kind of err, or KindInternal for errors outside the taxonomy.
func KindOf(err error) Kind {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// StatusCode maps err to the HTTP status a server should answer with.
func StatusCode(err error) int {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode
	}

	switch KindOf(err) {
	case KindValidation, KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
