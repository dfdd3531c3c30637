package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/h15s/gmtea/web/gm"
)

// Sentinel errors for error classification
var (
	ErrBadRequest          = errors.New(http.StatusText(http.StatusBadRequest))
	ErrInternalServerError = errors.New(http.StatusText(http.StatusInternalServerError))
	ErrServiceUnavailable  = errors.New(http.StatusText(http.StatusServiceUnavailable))
	ErrBadGateway          = errors.New(http.StatusText(http.StatusBadGateway))
)

// Error represents a structured API error response
type Error struct {
	cause    error  // The original error (for logging/debugging)
	message  string // Safe user-facing message
	httpCode int    // HTTP status code (also used as API error code)
}

// HTTPCode returns the HTTP status code for this error
func (e *Error) HTTPCode() int {
	return e.httpCode
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.message
}

// Unwrap returns the underlying cause for error unwrapping
func (e *Error) Unwrap() error {
	return e.cause
}

// Is implements error checking for sentinel errors
func (e *Error) Is(target error) bool {
	return errors.Is(e.cause, target)
}

// Cause returns the original error for logging purposes
func (e *Error) Cause() error {
	return e.cause
}

// MarshalJSON implements json.Marshaler interface
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"code":    e.httpCode,
		"message": e.message,
	})
}

// Constructor functions for different error types

func BadRequest(cause error) *Error {
	return &Error{
		cause:    cause,
		message:  cause.Error(), // 4xx errors are safe to expose
		httpCode: http.StatusBadRequest,
	}
}

func InternalServerError(cause error) *Error {
	return &Error{
		cause:    cause,
		message:  http.StatusText(http.StatusInternalServerError), // Never expose internal error details
		httpCode: http.StatusInternalServerError,
	}
}

// ServiceUnavailable reports a dependency that is not ready yet. The message
// is chosen by the caller and must be safe to show.
func ServiceUnavailable(cause error, message string) *Error {
	return &Error{
		cause:    cause,
		message:  message,
		httpCode: http.StatusServiceUnavailable,
	}
}

// BadGateway reports a failure of an upstream node. Like ServiceUnavailable
// the message must be safe to show.
func BadGateway(cause error, message string) *Error {
	return &Error{
		cause:    cause,
		message:  message,
		httpCode: http.StatusBadGateway,
	}
}

// Wrap transforms any error into a safe API error
// If the error is already an API error, it returns it unchanged
func Wrap(err error) *Error {
	if err == nil {
		return nil
	}

	// Don't double-wrap API errors
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}

	if errors.Is(err, gm.ErrNoSnapshot) {
		return ServiceUnavailable(err, "stats are not available yet")
	}

	return InternalServerError(err)
}
