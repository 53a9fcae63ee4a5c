// Package config defines and loads the Spyglass configuration.
//
// Configuration is read from a YAML file, filled in with documented
// defaults, optionally overridden by SPYGLASS_* environment variables, and
// validated before use. A fsnotify-backed Watcher supports hot reload of
// the file while the process runs.
package config

import "time"

// Config is the root configuration structure for Spyglass.
type Config struct {
	// Server contains HTTP server configuration for the reporting surface.
	Server ServerConfig `yaml:"server"`

	// Upstreams contains one entry per downstream API family.
	// Keys are family names (e.g. "calendar", "meet").
	Upstreams map[string]UpstreamConfig `yaml:"upstreams"`

	// Auth contains the credential source configuration.
	Auth AuthConfig `yaml:"auth"`

	// Telemetry contains observability configuration: logging, metrics,
	// health checking, and call monitoring.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP reporting server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8787"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response
	// writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle limit.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful
	// shutdown before in-flight requests are abandoned.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// UpstreamConfig describes one downstream API family.
type UpstreamConfig struct {
	// BaseURL is the base URL of the upstream API.
	// Example: "https://www.googleapis.com/calendar/v3"
	BaseURL string `yaml:"base_url"`

	// ProbePath is the path of a minimal side-effect-free request used by
	// the health checker, relative to BaseURL.
	// Default: "/"
	ProbePath string `yaml:"probe_path"`

	// Timeout bounds each call to this upstream.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig contains the credential source configuration. The token
// lifecycle itself is owned by an external refresher; Spyglass only reads.
type AuthConfig struct {
	// CredentialFile is the path to the JSON credential file. When empty,
	// the SPYGLASS_ACCESS_TOKEN environment variable is used instead.
	CredentialFile string `yaml:"credential_file"`
}

// TelemetryConfig contains configuration for observability.
type TelemetryConfig struct {
	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics configures the metrics collector.
	Metrics MetricsConfig `yaml:"metrics"`

	// Health configures the health checker.
	Health HealthConfig `yaml:"health"`

	// Monitor configures rate-limit detection on the call monitor.
	Monitor MonitorConfig `yaml:"monitor"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level ("debug", "info", "warn", "error").
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the output format ("json", "text").
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether the Prometheus mirror is maintained. The
	// JSON snapshot is always available. Unset counts as enabled.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Namespace prefixes every Prometheus metric family.
	// Default: "spyglass"
	Namespace string `yaml:"namespace"`

	// DurationBuckets are the histogram buckets for call latencies, in
	// seconds.
	// Default: 0.05 .. 10
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// IsEnabled reports whether the Prometheus mirror should be maintained.
// Only an explicit enabled: false turns it off.
func (m *MetricsConfig) IsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// HealthConfig contains health checker configuration.
type HealthConfig struct {
	// ProbeTimeout bounds each individual upstream probe.
	// Default: 5s
	ProbeTimeout time.Duration `yaml:"probe_timeout"`

	// UnhealthyThreshold is the number of consecutive probe failures after
	// which an API family is reported unhealthy instead of degraded.
	// Default: 3
	UnhealthyThreshold int `yaml:"unhealthy_threshold"`

	// MemoryThresholdBytes marks the system check degraded once heap usage
	// exceeds it. The system check never reports unhealthy on its own.
	// Default: 1 GiB
	MemoryThresholdBytes uint64 `yaml:"memory_threshold_bytes"`

	// SampleInterval is how often the background sampler re-runs the
	// aggregate health check to refresh the exported gauges. Zero disables
	// background sampling.
	// Default: 30s
	SampleInterval time.Duration `yaml:"sample_interval"`
}

// MonitorConfig contains rate-limit detection configuration.
type MonitorConfig struct {
	// RetryAfterHeader is the response header carrying a retry delay.
	// Default: "Retry-After"
	RetryAfterHeader string `yaml:"retry_after_header"`

	// RemainingHeader is the response header carrying remaining quota.
	// Default: "X-RateLimit-Remaining"
	RemainingHeader string `yaml:"remaining_header"`
}
