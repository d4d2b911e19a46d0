package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is the error shape every service function returns: an HTTP-ish
// status plus a caller-facing message. Handlers translate it into a
// `{"err": {"status", "message"}}` response body.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Status  int       `json:"status"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsAPIError unwraps err into an *APIError; unknown errors become a 500 so
// store failures never leak past the service boundary untyped.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return InternalError(err.Error())
}

// NotFound creates a NOT_FOUND error ("<resource> not found")
func NotFound(resource string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

// Unauthorized creates an UNAUTHORIZED error
func Unauthorized(message string) *APIError {
	return &APIError{
		Code:    ErrUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// Forbidden creates a FORBIDDEN error
func Forbidden(message string) *APIError {
	return &APIError{
		Code:    ErrForbidden,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return &APIError{
		Code:    ErrBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// InvalidInput creates an INVALID_INPUT error for request-shape problems
// detected before any I/O.
func InvalidInput(message string) *APIError {
	return &APIError{
		Code:    ErrInvalidInput,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// AlreadyInState creates an ALREADY_IN_STATE error. State guards report an
// error rather than silently no-oping so the caller can tell the moderator
// why nothing changed.
func AlreadyInState(message string) *APIError {
	return &APIError{
		Code:    ErrAlreadyInState,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// Conflict creates a CONFLICT error
func Conflict(message string) *APIError {
	return &APIError{
		Code:    ErrConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// InternalError creates an INTERNAL_ERROR carrying the underlying message.
// The message is not sanitized: this is an internal moderation tool, not a
// public API surface.
func InternalError(message string) *APIError {
	return &APIError{
		Code:    ErrInternalError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}
