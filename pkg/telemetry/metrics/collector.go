package metrics

import (
	"runtime"
	"sync"
	"time"

	"workspacehq/spyglass/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// recentEventsCapacity bounds the recent-events ring buffer.
const recentEventsCapacity = 100

// Collector accumulates counts and durations for tool invocations and
// upstream API calls. It is the single owner of all metric state in the
// process; collaborators receive it by injection and mutate it only through
// the Record* methods.
//
// Every operation is safe for concurrent use and none of them can fail.
type Collector struct {
	cfg      *config.MetricsConfig
	enabled  bool
	registry *prometheus.Registry
	prom     *promMetrics

	mu            sync.Mutex
	startTime     time.Time
	requestsTotal int64
	errorsTotal   int64
	apiCallsTotal int64
	tools         map[string]*ToolUsageStat
	apis          map[string]*APIPerformanceStat
	events        *eventRing
	window        *rateWindow
}

// NewCollector creates a new metrics collector with the specified
// configuration and Prometheus registry. If registry is nil, a private
// registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if cfg == nil {
		cfg = &config.MetricsConfig{}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "spyglass"
	}
	if len(cfg.DurationBuckets) == 0 {
		// Upstream productivity API latencies cluster between 50ms and 5s.
		cfg.DurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0}
	}
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		cfg:       cfg,
		enabled:   cfg.IsEnabled(),
		registry:  registry,
		startTime: time.Now(),
		tools:     make(map[string]*ToolUsageStat),
		apis:      make(map[string]*APIPerformanceStat),
		events:    newEventRing(recentEventsCapacity),
		window:    newRateWindow(time.Minute, time.Second),
	}
	c.prom = newPromMetrics(cfg, registry, c)

	return c
}

// RecordToolCall records one completed tool invocation. Inputs are accepted
// as-is: an empty name or negative duration is recorded without correction.
func (c *Collector) RecordToolCall(name string, duration time.Duration, success bool, err error) {
	c.mu.Lock()

	c.requestsTotal++
	c.window.Add(1)

	stat, ok := c.tools[name]
	if !ok {
		stat = &ToolUsageStat{}
		c.tools[name] = stat
	}
	stat.TotalCalls++
	if success {
		stat.SuccessfulCalls++
	} else {
		stat.FailedCalls++
		c.errorsTotal++
	}
	// Incremental mean; no per-call history is kept.
	ms := float64(duration) / float64(time.Millisecond)
	stat.AvgDurationMS += (ms - stat.AvgDurationMS) / float64(stat.TotalCalls)

	if err != nil {
		c.events.Append(Event{
			Type:      "tool_error",
			Metadata:  map[string]string{"tool": name, "error": err.Error()},
			Timestamp: time.Now(),
		})
	}

	c.mu.Unlock()

	if c.enabled {
		c.prom.toolCalls.WithLabelValues(name, statusLabel(success)).Inc()
		c.prom.toolDuration.WithLabelValues(name).Observe(duration.Seconds())
		if err != nil {
			c.prom.errors.WithLabelValues("tool_error").Inc()
		}
	}
}

// RecordAPICall records one completed upstream API call. rateLimited marks
// calls whose response carried a throttling signal.
func (c *Collector) RecordAPICall(api string, duration time.Duration, success bool, statusCode int, rateLimited bool) {
	c.mu.Lock()

	c.apiCallsTotal++

	stat, ok := c.apis[api]
	if !ok {
		stat = &APIPerformanceStat{}
		c.apis[api] = stat
	}
	stat.TotalCalls++
	if success {
		stat.SuccessfulCalls++
	} else {
		stat.FailedCalls++
	}
	if rateLimited {
		stat.RateLimitHits++
	}
	ms := float64(duration) / float64(time.Millisecond)
	stat.AvgResponseTimeMS += (ms - stat.AvgResponseTimeMS) / float64(stat.TotalCalls)

	c.mu.Unlock()

	if c.enabled {
		c.prom.apiCalls.WithLabelValues(api, statusLabel(success)).Inc()
		c.prom.apiDuration.WithLabelValues(api).Observe(duration.Seconds())
		if rateLimited {
			c.prom.rateLimitHits.WithLabelValues(api).Inc()
		}
	}
}

// RecordError records an out-of-band error event (probe failures, dispatch
// errors) into the totals and the recent-events buffer.
func (c *Collector) RecordError(kind string, metadata map[string]string) {
	c.mu.Lock()
	c.errorsTotal++
	c.events.Append(Event{
		Type:      kind,
		Metadata:  metadata,
		Timestamp: time.Now(),
	})
	c.mu.Unlock()

	if c.enabled {
		c.prom.errors.WithLabelValues(kind).Inc()
	}
}

// SetAPIHealth exports an API family's health verdict as a gauge:
// 1 healthy, 0.5 degraded, 0 unhealthy.
func (c *Collector) SetAPIHealth(api string, value float64) {
	if c.enabled {
		c.prom.apiHealth.WithLabelValues(api).Set(value)
	}
}

// Snapshot returns a point-in-time copy of all collected metrics.
func (c *Collector) Snapshot() MetricsData {
	c.mu.Lock()
	defer c.mu.Unlock()

	data := MetricsData{
		RequestsTotal:     c.requestsTotal,
		ErrorsTotal:       c.errorsTotal,
		RequestsPerMinute: c.window.Count(),
		APICallsTotal:     c.apiCallsTotal,
		ToolUsage:         make(map[string]ToolUsageStat, len(c.tools)),
		APIPerformance:    make(map[string]APIPerformanceStat, len(c.apis)),
		System:            c.systemMetrics(),
		RecentEvents:      c.events.Snapshot(),
		Timestamp:         time.Now(),
	}

	if c.requestsTotal > 0 {
		data.ErrorRate = float64(c.errorsTotal) / float64(c.requestsTotal) * 100
	}

	for name, stat := range c.tools {
		data.ToolUsage[name] = *stat
	}
	for name, stat := range c.apis {
		data.APIPerformance[name] = *stat
	}

	return data
}

// Uptime returns how long this collector has been alive.
func (c *Collector) Uptime() time.Duration {
	return time.Since(c.startedAt())
}

// startedAt reads the start time under the lock; Reset rewrites it while
// the uptime gauge may be gathering.
func (c *Collector) startedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startTime
}

// Reset zeroes every counter and clears every map and buffer. It exists for
// test harnesses and is never called on production paths.
func (c *Collector) Reset() {
	c.mu.Lock()
	c.requestsTotal = 0
	c.errorsTotal = 0
	c.apiCallsTotal = 0
	c.tools = make(map[string]*ToolUsageStat)
	c.apis = make(map[string]*APIPerformanceStat)
	c.events.Reset()
	c.window.Reset()
	c.startTime = time.Now()
	c.mu.Unlock()

	c.prom.reset()
}

// Registry returns the Prometheus registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// systemMetrics reads process resource usage. Caller holds the lock only to
// keep the snapshot internally consistent; the runtime calls are lock-free.
func (c *Collector) systemMetrics() SystemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return SystemMetrics{
		MemoryUsedBytes:  ms.HeapAlloc,
		MemoryTotalBytes: ms.Sys,
		UptimeSeconds:    time.Since(c.startTime).Seconds(),
		Goroutines:       runtime.NumGoroutine(),
	}
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
