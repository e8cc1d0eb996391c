package sdk

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped from API error codes. Use errors.Is() to check.
var (
	// ErrInvalidQuery covers every query validation failure (empty, too
	// short, too long).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUnavailable means a backing service (retrieval index or
	// completion provider) could not be reached.
	ErrUnavailable = errors.New("backing service unavailable")
	// ErrUnauthorized means the API key was missing or rejected.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError carries the error envelope returned by the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("scholarqa: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Unwrap maps the wire code onto a sentinel.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case "query_empty", "query_too_short", "query_too_long", "invalid_parameter":
		return ErrInvalidQuery
	case "retrieval_unavailable", "completion_unavailable":
		return ErrUnavailable
	}
	if e.StatusCode == 401 {
		return ErrUnauthorized
	}
	return nil
}
