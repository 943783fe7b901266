// Package errors defines the error kinds shared by the search engine and its
// collaborators, the AppError wrapper used by HTTP handlers, and the mapping
// from error kind to HTTP status code.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrInvalidID            = errors.New("invalid document id")
	ErrInvalidWord          = errors.New("invalid word")
	ErrInvalidQuery         = errors.New("invalid query")
	ErrUnknownDocument      = errors.New("unknown document")
	ErrInvalidInput         = errors.New("invalid input")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrInternal             = errors.New("internal error")
	ErrTimeout              = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps an error to the status code a handler should answer
// with. An AppError carries its own code; anything else is classified by kind.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrUnknownDocument):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidID):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidWord),
		errors.Is(err, ErrInvalidQuery),
		errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether err was caused by bad caller input rather
// than a failure of the engine itself.
func IsClientError(err error) bool {
	code := HTTPStatusCode(err)
	return code >= 400 && code < 500
}
