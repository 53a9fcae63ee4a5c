package config

import "time"

// Default values applied by ApplyDefaults.
const (
	DefaultListenAddress   = "127.0.0.1:8787"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultUpstreamTimeout = 30 * time.Second
	DefaultProbePath       = "/"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "spyglass"

	DefaultProbeTimeout       = 5 * time.Second
	DefaultUnhealthyThreshold = 3
	DefaultMemoryThreshold    = 1 << 30 // 1 GiB
	DefaultSampleInterval     = 30 * time.Second

	DefaultRetryAfterHeader = "Retry-After"
	DefaultRemainingHeader  = "X-RateLimit-Remaining"
)

// DefaultUpstreams returns the built-in API family set used when the
// configuration names none.
func DefaultUpstreams() map[string]UpstreamConfig {
	return map[string]UpstreamConfig{
		"calendar": {
			BaseURL:   "https://www.googleapis.com/calendar/v3",
			ProbePath: "/users/me/calendarList?maxResults=1",
			Timeout:   DefaultUpstreamTimeout,
		},
		"meet": {
			BaseURL:   "https://meet.googleapis.com/v2",
			ProbePath: "/spaces?pageSize=1",
			Timeout:   DefaultUpstreamTimeout,
		},
	}
}

// ApplyDefaults fills in default values for any unset configuration fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if len(cfg.Upstreams) == 0 {
		cfg.Upstreams = DefaultUpstreams()
	}
	for name, up := range cfg.Upstreams {
		if up.ProbePath == "" {
			up.ProbePath = DefaultProbePath
		}
		if up.Timeout == 0 {
			up.Timeout = DefaultUpstreamTimeout
		}
		cfg.Upstreams[name] = up
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLogLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLogFormat
	}

	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		enabled := true
		cfg.Telemetry.Metrics.Enabled = &enabled
	}

	if cfg.Telemetry.Health.ProbeTimeout == 0 {
		cfg.Telemetry.Health.ProbeTimeout = DefaultProbeTimeout
	}
	if cfg.Telemetry.Health.UnhealthyThreshold == 0 {
		cfg.Telemetry.Health.UnhealthyThreshold = DefaultUnhealthyThreshold
	}
	if cfg.Telemetry.Health.MemoryThresholdBytes == 0 {
		cfg.Telemetry.Health.MemoryThresholdBytes = DefaultMemoryThreshold
	}
	if cfg.Telemetry.Health.SampleInterval == 0 {
		cfg.Telemetry.Health.SampleInterval = DefaultSampleInterval
	}

	if cfg.Telemetry.Monitor.RetryAfterHeader == "" {
		cfg.Telemetry.Monitor.RetryAfterHeader = DefaultRetryAfterHeader
	}
	if cfg.Telemetry.Monitor.RemainingHeader == "" {
		cfg.Telemetry.Monitor.RemainingHeader = DefaultRemainingHeader
	}
}
