package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate checks the configuration for errors. It is called after defaults
// are applied, so it can assume zero fields were filled in.
func Validate(cfg *Config) error {
	if err := validateServer(&cfg.Server); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	for name, up := range cfg.Upstreams {
		if err := validateUpstream(name, &up); err != nil {
			return fmt.Errorf("upstream %q: %w", name, err)
		}
	}

	if err := validateTelemetry(&cfg.Telemetry); err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}

	return nil
}

func validateServer(s *ServerConfig) error {
	host, port, err := net.SplitHostPort(s.ListenAddress)
	if err != nil {
		return fmt.Errorf("invalid listen_address %q: %w", s.ListenAddress, err)
	}
	if host == "" && port == "" {
		return fmt.Errorf("listen_address %q has neither host nor port", s.ListenAddress)
	}
	if s.ReadTimeout < 0 || s.WriteTimeout < 0 || s.IdleTimeout < 0 || s.ShutdownTimeout < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}

func validateUpstream(name string, up *UpstreamConfig) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("family name must not be empty")
	}
	if up.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	u, err := url.Parse(up.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url %q: %w", up.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url %q must use http or https", up.BaseURL)
	}
	if up.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

func validateTelemetry(t *TelemetryConfig) error {
	switch t.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", t.Logging.Level)
	}
	switch t.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging: unknown format %q", t.Logging.Format)
	}

	if t.Health.ProbeTimeout <= 0 {
		return fmt.Errorf("health: probe_timeout must be positive")
	}
	if t.Health.UnhealthyThreshold < 1 {
		return fmt.Errorf("health: unhealthy_threshold must be at least 1")
	}
	if t.Health.SampleInterval < 0 {
		return fmt.Errorf("health: sample_interval must not be negative")
	}

	for _, bucket := range t.Metrics.DurationBuckets {
		if bucket <= 0 {
			return fmt.Errorf("metrics: duration buckets must be positive, got %v", bucket)
		}
	}

	return nil
}
