package metrics

import (
	"bytes"
	"fmt"
	"runtime"
	"time"

	"workspacehq/spyglass/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// promMetrics holds the Prometheus mirror of the collector's aggregates.
//
// Families:
//   - spyglass_tool_calls_total: tool invocations by tool and status
//   - spyglass_tool_duration_seconds: tool invocation latency histogram
//   - spyglass_api_calls_total: upstream API calls by api and status
//   - spyglass_api_duration_seconds: upstream API latency histogram
//   - spyglass_api_rate_limit_hits_total: throttled responses by api
//   - spyglass_api_health: health verdict gauge (1/0.5/0) by api
//   - spyglass_errors_total: recorded errors by type
//   - spyglass_uptime_seconds: process uptime gauge
//   - spyglass_memory_used_bytes: heap in use gauge
type promMetrics struct {
	toolCalls     *prometheus.CounterVec
	toolDuration  *prometheus.HistogramVec
	apiCalls      *prometheus.CounterVec
	apiDuration   *prometheus.HistogramVec
	rateLimitHits *prometheus.CounterVec
	apiHealth     *prometheus.GaugeVec
	errors        *prometheus.CounterVec
}

// newPromMetrics creates and registers the Prometheus mirror with the
// provided registry.
func newPromMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry, owner *Collector) *promMetrics {
	pm := &promMetrics{
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "tool_calls_total",
				Help:      "Total number of tool invocations processed",
			},
			[]string{"tool", "status"},
		),

		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "tool_duration_seconds",
				Help:      "Duration of tool invocations in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"tool"},
		),

		apiCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "api_calls_total",
				Help:      "Total number of upstream API calls",
			},
			[]string{"api", "status"},
		),

		apiDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Name:      "api_duration_seconds",
				Help:      "Upstream API call latency in seconds",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"api"},
		),

		rateLimitHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "api_rate_limit_hits_total",
				Help:      "Total number of upstream responses carrying a throttling signal",
			},
			[]string{"api"},
		),

		apiHealth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Name:      "api_health",
				Help:      "Upstream API health verdict (1=healthy, 0.5=degraded, 0=unhealthy)",
			},
			[]string{"api"},
		),

		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "errors_total",
				Help:      "Total number of recorded errors by type",
			},
			[]string{"type"},
		),
	}

	uptime := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "uptime_seconds",
			Help:      "Seconds since the collector was created",
		},
		func() float64 { return time.Since(owner.startedAt()).Seconds() },
	)

	memUsed := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Name:      "memory_used_bytes",
			Help:      "Heap bytes currently allocated by the process",
		},
		func() float64 {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			return float64(ms.HeapAlloc)
		},
	)

	registry.MustRegister(
		pm.toolCalls,
		pm.toolDuration,
		pm.apiCalls,
		pm.apiDuration,
		pm.rateLimitHits,
		pm.apiHealth,
		pm.errors,
		uptime,
		memUsed,
	)

	return pm
}

// reset clears all labelled children. Gauge functions read live state and
// need no reset.
func (pm *promMetrics) reset() {
	pm.toolCalls.Reset()
	pm.toolDuration.Reset()
	pm.apiCalls.Reset()
	pm.apiDuration.Reset()
	pm.rateLimitHits.Reset()
	pm.apiHealth.Reset()
	pm.errors.Reset()
}

// Exposition renders every registered metric family in Prometheus text
// exposition format. Each family appears exactly once with its HELP and
// TYPE lines; the registry keeps families sorted by name, so output is
// deterministic for a given state.
func (c *Collector) Exposition() (string, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return "", fmt.Errorf("gather metrics: %w", err)
	}

	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return "", fmt.Errorf("encode metric family %q: %w", mf.GetName(), err)
		}
	}

	return buf.String(), nil
}
