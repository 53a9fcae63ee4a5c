package metrics

import "time"

// ToolUsageStat aggregates calls for a single tool. The average duration is
// maintained incrementally, so no call history is retained.
type ToolUsageStat struct {
	// TotalCalls is the number of recorded invocations.
	TotalCalls int64 `json:"total_calls"`

	// SuccessfulCalls is the number of invocations that succeeded.
	SuccessfulCalls int64 `json:"successful_calls"`

	// FailedCalls is the number of invocations that failed.
	// SuccessfulCalls + FailedCalls always equals TotalCalls.
	FailedCalls int64 `json:"failed_calls"`

	// AvgDurationMS is the running mean duration in milliseconds.
	AvgDurationMS float64 `json:"avg_duration_ms"`
}

// APIPerformanceStat aggregates completed calls to one upstream API family.
type APIPerformanceStat struct {
	// TotalCalls is the number of recorded API calls.
	TotalCalls int64 `json:"total_calls"`

	// SuccessfulCalls is the number of calls that succeeded.
	SuccessfulCalls int64 `json:"successful_calls"`

	// FailedCalls is the number of calls that failed.
	// SuccessfulCalls + FailedCalls always equals TotalCalls.
	FailedCalls int64 `json:"failed_calls"`

	// AvgResponseTimeMS is the running mean response time in milliseconds.
	AvgResponseTimeMS float64 `json:"avg_response_time_ms"`

	// RateLimitHits is the number of calls that carried a throttling signal.
	RateLimitHits int64 `json:"rate_limit_hits"`
}

// SystemMetrics describes process-level resource usage at snapshot time.
type SystemMetrics struct {
	// MemoryUsedBytes is the heap currently allocated by the process.
	MemoryUsedBytes uint64 `json:"memory_used_bytes"`

	// MemoryTotalBytes is the heap obtained from the OS.
	MemoryTotalBytes uint64 `json:"memory_total_bytes"`

	// UptimeSeconds is how long this collector has been alive.
	UptimeSeconds float64 `json:"uptime_seconds"`

	// Goroutines is the current goroutine count.
	Goroutines int `json:"goroutines"`
}

// Event is one entry in the bounded recent-events buffer.
type Event struct {
	// Type classifies the event (e.g. "tool_error", "probe_failure").
	Type string `json:"type"`

	// Metadata carries optional free-form context.
	Metadata map[string]string `json:"metadata,omitempty"`

	// Timestamp is when the event was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// MetricsData is a point-in-time snapshot of everything the collector
// tracks. All maps and slices are copies owned by the caller.
type MetricsData struct {
	// RequestsTotal is the total number of tool invocations recorded.
	RequestsTotal int64 `json:"requests_total"`

	// ErrorsTotal is the total number of failed invocations and recorded
	// errors.
	ErrorsTotal int64 `json:"errors_total"`

	// ErrorRate is ErrorsTotal/RequestsTotal as a percentage, exactly 0
	// when no requests have been recorded.
	ErrorRate float64 `json:"error_rate"`

	// RequestsPerMinute counts tool invocations in the trailing 60 seconds.
	RequestsPerMinute int64 `json:"requests_per_minute"`

	// APICallsTotal is the total number of upstream API calls recorded.
	APICallsTotal int64 `json:"api_calls_total"`

	// ToolUsage maps tool name to its usage statistics.
	ToolUsage map[string]ToolUsageStat `json:"tool_usage"`

	// APIPerformance maps API family name to its performance statistics.
	APIPerformance map[string]APIPerformanceStat `json:"api_performance"`

	// System describes process resource usage at snapshot time.
	System SystemMetrics `json:"system_metrics"`

	// RecentEvents holds the most recent recorded events, oldest first.
	RecentEvents []Event `json:"recent_events"`

	// Timestamp is when the snapshot was produced.
	Timestamp time.Time `json:"timestamp"`
}
