// Package api provides error types for dashboard backend responses.
package api

import (
	"errors"
	"fmt"
	nethttp "net/http"
)

// APIError is a definitive, application-level failure: the backend
// answered and carried a failure flag or error message. These never
// warrant a retry; transport failures (anything that is not an
// APIError) may be transient.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}

// IsDefinitive reports whether an error is an application-level
// failure from the backend as opposed to a transport failure.
func IsDefinitive(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}

// IsTaskNotFound reports whether an error is the backend's 404 for an
// unknown task id. Polling treats this as terminal.
func IsTaskNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == nethttp.StatusNotFound
}
