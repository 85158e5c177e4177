package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a predsync error code.
type ErrorCode string

const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"      // 400
	ErrFeedUnauthenticated ErrorCode = "FEED_UNAUTHENTICATED" // 401
	ErrNotFound            ErrorCode = "NOT_FOUND"            // 404
	ErrFeedNotFound        ErrorCode = "FEED_NOT_FOUND"       // 404
	ErrBusy                ErrorCode = "BUSY"                 // 409
	ErrFeedUnavailable     ErrorCode = "FEED_UNAVAILABLE"     // 503
	ErrInternal            ErrorCode = "INTERNAL"             // 500
)

// SyncError represents a structured error with code, status, and details.
type SyncError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SyncError {
	return &SyncError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewBusy creates a 409 error for when a sync is already running.
// Busy is a control signal, not a failure: no state has changed.
func NewBusy() *SyncError {
	return &SyncError{
		Code:    ErrBusy,
		Status:  409,
		Message: "a sync is already running; try again when it finishes",
	}
}

// NewNotFound creates a 404 error for a missing local resource.
func NewNotFound(identifier string) *SyncError {
	return &SyncError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("not found: %s", identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewFeedUnauthenticated creates a 401 error for rejected feed credentials.
func NewFeedUnauthenticated(msg string) *SyncError {
	return &SyncError{
		Code:    ErrFeedUnauthenticated,
		Status:  401,
		Message: msg,
	}
}

// NewFeedNotFound creates a 404 error for a missing upstream channel.
func NewFeedNotFound(msg string) *SyncError {
	return &SyncError{
		Code:    ErrFeedNotFound,
		Status:  404,
		Message: msg,
	}
}

// NewFeedUnavailable creates a 503 error for transient upstream failures.
func NewFeedUnavailable(msg string) *SyncError {
	return &SyncError{
		Code:    ErrFeedUnavailable,
		Status:  503,
		Message: msg,
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The message stays generic; the original error is kept in Details
// for logging so SQL errors and file paths never reach callers.
func NewInternal(err error) *SyncError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &SyncError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if an error is (or wraps) a SyncError with the given code.
func Is(err error, code ErrorCode) bool {
	var sErr *SyncError
	if stderrors.As(err, &sErr) {
		return sErr.Code == code
	}
	return false
}
