package domain

import "errors"

var (
	// ErrQueryEmpty signals an empty or all-whitespace query.
	ErrQueryEmpty = errors.New("query is empty")
	// ErrQueryTooShort signals a query below the minimum length.
	ErrQueryTooShort = errors.New("query too short")
	// ErrQueryTooLong signals a query above the maximum length.
	ErrQueryTooLong = errors.New("query too long")
	// ErrInvalidParameter signals an out-of-range generation parameter.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrRetrievalUnavailable signals a retrieval service failure after retry exhaustion.
	ErrRetrievalUnavailable = errors.New("retrieval service unavailable")
	// ErrCompletionUnavailable signals a completion provider failure after retry exhaustion.
	ErrCompletionUnavailable = errors.New("completion provider unavailable")
	// ErrConfiguration signals a missing credential or malformed configuration.
	ErrConfiguration = errors.New("configuration error")
)

// IsValidation reports whether err is one of the query validation sentinels.
// Validation failures abort a request before any remote call and are never retried.
func IsValidation(err error) bool {
	return errors.Is(err, ErrQueryEmpty) ||
		errors.Is(err, ErrQueryTooShort) ||
		errors.Is(err, ErrQueryTooLong) ||
		errors.Is(err, ErrInvalidParameter)
}
