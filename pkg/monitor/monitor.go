package monitor

import (
	"net/http"
	"sort"
	"sync"
	"time"

	"workspacehq/spyglass/pkg/telemetry/logging"
	"workspacehq/spyglass/pkg/telemetry/metrics"
)

// ActiveCall describes one in-flight upstream call. It exists only between
// StartCall and the matching EndCall.
type ActiveCall struct {
	// CallID is the caller-supplied handle, unique while in flight.
	CallID string `json:"call_id"`

	// API is the upstream API family (e.g. "calendar", "meet").
	API string `json:"api"`

	// Method is the HTTP method of the call.
	Method string `json:"method"`

	// URL is the request URL.
	URL string `json:"url"`

	// StartTime is when the call was registered.
	StartTime time.Time `json:"start_time"`
}

// Config carries the monitor's tunable knobs. Zero values select the
// documented defaults.
type Config struct {
	// RetryAfterHeader is the response header carrying a retry delay.
	// Default: "Retry-After".
	RetryAfterHeader string

	// RemainingHeader is the response header carrying remaining quota.
	// Default: "X-RateLimit-Remaining".
	RemainingHeader string
}

// Monitor owns the active-call table and the per-API rate-limit table.
// Both are mutated only through the methods below; ActiveCalls and
// RateLimit return copies.
type Monitor struct {
	collector *metrics.Collector
	logger    *logging.Logger

	retryAfterHeader string
	remainingHeader  string

	mu     sync.Mutex
	active map[string]ActiveCall
	limits map[string]RateLimitInfo
}

// New creates a monitor that forwards completed-call statistics into the
// given collector.
func New(collector *metrics.Collector, logger *logging.Logger, cfg Config) *Monitor {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.RetryAfterHeader == "" {
		cfg.RetryAfterHeader = DefaultRetryAfterHeader
	}
	if cfg.RemainingHeader == "" {
		cfg.RemainingHeader = DefaultRemainingHeader
	}

	return &Monitor{
		collector:        collector,
		logger:           logger.With("component", "monitor"),
		retryAfterHeader: cfg.RetryAfterHeader,
		remainingHeader:  cfg.RemainingHeader,
		active:           make(map[string]ActiveCall),
		limits:           make(map[string]RateLimitInfo),
	}
}

// StartCall registers an in-flight call. Reusing a call ID before its
// predecessor ends is a caller error; the newer registration wins.
func (m *Monitor) StartCall(callID, api, method, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active[callID] = ActiveCall{
		CallID:    callID,
		API:       api,
		Method:    method,
		URL:       url,
		StartTime: time.Now(),
	}
}

// EndCall completes the in-flight call with the given ID, inspects the
// response headers for throttling signals, and forwards the completed-call
// statistics to the collector. Ending an unknown call ID is a no-op.
func (m *Monitor) EndCall(callID string, statusCode int, success bool, err error, headers http.Header) {
	m.mu.Lock()
	call, ok := m.active[callID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.active, callID)

	duration := time.Since(call.StartTime)

	info, signalled := parseRateLimit(headers, statusCode, m.retryAfterHeader, m.remainingHeader)
	if signalled {
		m.limits[call.API] = info
	}
	m.mu.Unlock()

	rateLimited := signalled && info.Limited
	if rateLimited {
		m.logger.Warn("upstream throttling observed",
			"api", call.API,
			"status", statusCode,
			"retry_after", info.RetryAfter,
		)
	}
	if err != nil {
		m.logger.Debug("upstream call failed",
			"api", call.API,
			"method", call.Method,
			"status", statusCode,
			"error", err,
		)
	}

	m.collector.RecordAPICall(call.API, duration, success, statusCode, rateLimited)
}

// ActiveCalls returns a snapshot of all currently in-flight calls, ordered
// by start time. Useful for spotting a hung upstream.
func (m *Monitor) ActiveCalls() []ActiveCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	calls := make([]ActiveCall, 0, len(m.active))
	for _, call := range m.active {
		calls = append(calls, call)
	}
	sort.Slice(calls, func(i, j int) bool {
		return calls[i].StartTime.Before(calls[j].StartTime)
	})
	return calls
}

// RateLimit returns the most recent throttling observation for the API, or
// a not-limited default when none was ever recorded.
func (m *Monitor) RateLimit(api string) RateLimitInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	if info, ok := m.limits[api]; ok {
		return info
	}
	return RateLimitInfo{}
}

// RecommendedDelay returns the wait the upstream asked for when the API is
// currently flagged as throttled, and zero otherwise. Advisory only.
func (m *Monitor) RecommendedDelay(api string) time.Duration {
	info := m.RateLimit(api)
	if info.Limited {
		return info.RetryAfter
	}
	return 0
}
