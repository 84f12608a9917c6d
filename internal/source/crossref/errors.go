package crossref

import (
	"errors"
	"fmt"
)

// Common errors returned by the crossref client.
var (
	// ErrNotFound indicates the DOI or query matched nothing.
	ErrNotFound = errors.New("not found in crossref")

	// ErrRateLimited indicates crossref rejected the request for rate.
	ErrRateLimited = errors.New("crossref rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with crossref")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from crossref")
)

// APIError represents an HTTP-level error from the crossref API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("crossref API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
