package upstream

import (
	"fmt"
	"time"
)

// UpstreamError represents a non-2xx response from an upstream API.
type UpstreamError struct {
	// API is the family name of the upstream that returned the error.
	API string

	// StatusCode is the HTTP status code (0 if not applicable).
	StatusCode int

	// Message is the error message.
	Message string

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("upstream %q error (status %d): %s", e.API, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream %q error: %s", e.API, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// AuthError represents an authentication failure: the upstream rejected the
// access token (HTTP 401 or 403).
type AuthError struct {
	// API is the family name of the upstream that rejected the token.
	API string

	// Message is the error message from the upstream.
	Message string
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("upstream %q authentication failed: %s", e.API, e.Message)
}

// RateLimitError represents a throttled request (HTTP 429). It carries the
// retry-after duration when the upstream provided one.
type RateLimitError struct {
	// API is the family name of the upstream that throttled the request.
	API string

	// RetryAfter is the duration to wait before retrying, 0 when the
	// upstream sent none.
	RetryAfter time.Duration

	// Message is the error message from the upstream.
	Message string
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("upstream %q rate limit exceeded (retry after %s): %s",
			e.API, e.RetryAfter, e.Message)
	}
	return fmt.Sprintf("upstream %q rate limit exceeded: %s", e.API, e.Message)
}
