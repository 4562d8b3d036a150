package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidRequest indicates invalid request
	ErrInvalidRequest = errors.New("invalid request")
)

// StatusError is an error that maps to a transport status and carries both a
// human-readable summary and the proximate cause (upstream status, response
// body, or wrapped error text) as details.
type StatusError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

func (e *StatusError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (e *StatusError) Unwrap() error { return e.Err }

// NewInvalidRequest reports a malformed or empty inbound request.
func NewInvalidRequest(details string) *StatusError {
	return &StatusError{
		Status:  http.StatusBadRequest,
		Message: "invalid request",
		Details: details,
		Err:     ErrInvalidRequest,
	}
}

// NewNoResults reports a query for which the search provider returned nothing.
// The turn fails before any streaming begins.
func NewNoResults(query string) *StatusError {
	return &StatusError{
		Status:  http.StatusNotFound,
		Message: "no search results found",
		Details: fmt.Sprintf("query %q returned no results", query),
		Err:     ErrNotFound,
	}
}

// NewUpstreamError reports an unreachable or non-success upstream call,
// preserving the provider's status code and response body.
func NewUpstreamError(stage string, status int, body string) *StatusError {
	return &StatusError{
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("%s provider request failed", stage),
		Details: fmt.Sprintf("upstream status %d: %s", status, body),
	}
}

// NewUnreachableError reports an upstream call that never produced a response.
func NewUnreachableError(stage string, err error) *StatusError {
	return &StatusError{
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("%s provider unreachable", stage),
		Details: err.Error(),
		Err:     err,
	}
}

// NewMalformedResponse reports an upstream response missing the expected shape.
func NewMalformedResponse(stage, details string) *StatusError {
	return &StatusError{
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("%s provider returned a malformed response", stage),
		Details: details,
	}
}
