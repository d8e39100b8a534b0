package core

import (
	"errors"
	"fmt"
)

// Domain specific errors
var (
	// Caller errors
	ErrMethodNotAllowed  = errors.New("method not allowed")
	ErrInvalidSecret     = errors.New("invalid secret token")
	ErrMissingParameters = errors.New("missing parameters")

	// Payload errors
	ErrNotJSONObject = errors.New("request body must be a JSON object")
)

// UpstreamError is returned when the provider answers with a non-success status.
// Body carries the raw provider response text.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("telegram API error: status %d, response: %s", e.StatusCode, e.Body)
}

// NewUpstreamError creates a new upstream error
func NewUpstreamError(statusCode int, body string) *UpstreamError {
	return &UpstreamError{
		StatusCode: statusCode,
		Body:       body,
	}
}
