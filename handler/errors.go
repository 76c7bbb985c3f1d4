package handler

import (
	"errors"
	"net/http"
)

// ErrNilResponse indicates a handler returned nil instead of a Response.
var ErrNilResponse = errors.New("handler returned nil response")

// HTTPError is an error with the status code and client-facing message used
// to render it. Err, when set, is the internal cause; it is logged, never sent.
type HTTPError struct {
	Code    int
	Message string
	Err     error
}

func (e HTTPError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e HTTPError) Unwrap() error { return e.Err }

// Wrap returns a copy of e carrying cause.
func (e HTTPError) Wrap(cause error) HTTPError {
	e.Err = cause
	return e
}

// WithMessage returns a copy of e with a different client-facing message.
func (e HTTPError) WithMessage(msg string) HTTPError {
	e.Message = msg
	return e
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, message string) HTTPError {
	return HTTPError{Code: code, Message: message}
}

var (
	ErrBadRequest          = HTTPError{Code: http.StatusBadRequest, Message: "Invalid request"}
	ErrUnauthorized        = HTTPError{Code: http.StatusUnauthorized, Message: "Authentication required"}
	ErrNotFound            = HTTPError{Code: http.StatusNotFound, Message: "Not found"}
	ErrConflict            = HTTPError{Code: http.StatusConflict, Message: "Conflict"}
	ErrTooManyRequests     = HTTPError{Code: http.StatusTooManyRequests, Message: "Too many requests, please try again later"}
	ErrInternalServerError = HTTPError{Code: http.StatusInternalServerError, Message: "Something went wrong, please try again later"}
)
