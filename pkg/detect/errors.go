package detect

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoBaseURL is returned when the client has no backend address.
	ErrNoBaseURL = errors.New("detect: backend base URL required")

	// ErrEmptyFrame is returned when the frame payload is empty.
	ErrEmptyFrame = errors.New("detect: empty frame")
)

// APIError represents a non-2xx response from the detection backend.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error detail from the backend, if any.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("detect: API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("detect: API error %d", e.StatusCode)
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}
