package monitor

import (
	"net/http"
	"strconv"
	"time"
)

// Default header names for upstream throttling signals. Google Workspace
// APIs use the X-RateLimit-* convention; Retry-After is universal.
const (
	DefaultRetryAfterHeader = "Retry-After"
	DefaultRemainingHeader  = "X-RateLimit-Remaining"
)

// RateLimitInfo is the most recent throttling observation for one API
// family. It lives for the process lifetime and is overwritten by every
// completed call that carries a signal.
type RateLimitInfo struct {
	// Limited reports whether the API is currently flagged as throttled.
	Limited bool `json:"is_limited"`

	// RetryAfter is the wait the upstream asked for; zero when it sent none.
	RetryAfter time.Duration `json:"retry_after,omitempty"`

	// Remaining is the remaining quota reported by the upstream, nil when
	// the response carried no remaining-quota header.
	Remaining *int64 `json:"remaining,omitempty"`

	// ObservedAt is when this observation was made.
	ObservedAt time.Time `json:"observed_at"`
}

// parseRateLimit extracts throttling signals from response headers and the
// status code. The second return reports whether any signal was found.
func parseRateLimit(headers http.Header, statusCode int, retryAfterHeader, remainingHeader string) (RateLimitInfo, bool) {
	info := RateLimitInfo{ObservedAt: time.Now()}
	found := false

	if headers != nil {
		if v := headers.Get(retryAfterHeader); v != "" {
			if d, ok := parseRetryAfter(v); ok {
				info.RetryAfter = d
				info.Limited = true
				found = true
			}
		}
		if v := headers.Get(remainingHeader); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				info.Remaining = &n
				found = true
				if n <= 0 {
					info.Limited = true
				}
			}
		}
	}

	// A 429 is a throttling signal even without headers.
	if statusCode == http.StatusTooManyRequests {
		info.Limited = true
		found = true
	}

	return info, found
}

// parseRetryAfter handles both forms of Retry-After: delta seconds and an
// HTTP date.
func parseRetryAfter(value string) (time.Duration, bool) {
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}

	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}

	return 0, false
}
