package errs

import "net/http"

// Status codes recognised by the catalog. Others pass through verbatim.
const (
	StatusOK                  = http.StatusOK
	StatusCreated             = http.StatusCreated
	StatusNoContent           = http.StatusNoContent
	StatusBadRequest          = http.StatusBadRequest
	StatusUnauthorized        = http.StatusUnauthorized
	StatusForbidden           = http.StatusForbidden
	StatusNotFound            = http.StatusNotFound
	StatusInternalServerError = http.StatusInternalServerError
)

// HTTPError is a transport failure: a message, a status code and the
// response body when one was received.
type HTTPError struct {
	Message    string
	StatusCode int
	Body       any
}

// NewHTTPError builds an HTTPError. body may be nil.
func NewHTTPError(message string, statusCode int, body any) *HTTPError {
	return &HTTPError{Message: message, StatusCode: statusCode, Body: body}
}

func (e *HTTPError) Error() string { return e.Message }

// Name always returns "HttpError".
func (e *HTTPError) Name() string { return string(KindHTTP) }

// Kind derives the taxonomy kind from the status code so callers can use
// errors.Is(err, ErrNotFound) on transport failures.
func (e *HTTPError) Kind() Kind {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return KindBadRequest
	case http.StatusUnauthorized:
		return KindUnauthorized
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusConflict:
		return KindConflict
	case http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindInternal
	}
}

// Is matches taxonomy sentinels by kind.
func (e *HTTPError) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return t.kind == e.Kind()
	}
	return false
}

// FromError converts any error into an HTTPError carrying the matching status.
// An *HTTPError is returned as is.
func FromError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr
	}
	return NewHTTPError(err.Error(), StatusCode(err), nil)
}
