package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// TestLoadConfig tests loading a minimal file with defaults filled in.
func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "0.0.0.0:9000"
telemetry:
  logging:
    level: debug
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.ListenAddress != "0.0.0.0:9000" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Server.ReadTimeout != DefaultReadTimeout {
		t.Errorf("ReadTimeout = %v, want default %v", cfg.Server.ReadTimeout, DefaultReadTimeout)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Logging.Format != DefaultLogFormat {
		t.Errorf("Format = %q, want default", cfg.Telemetry.Logging.Format)
	}
	if len(cfg.Upstreams) == 0 {
		t.Error("expected default upstreams")
	}
	if _, ok := cfg.Upstreams["calendar"]; !ok {
		t.Error("expected default calendar upstream")
	}
	if !cfg.Telemetry.Metrics.IsEnabled() {
		t.Error("metrics should default to enabled")
	}
}

// TestMetricsEnabledTriState tests that only an explicit enabled: false
// turns the Prometheus mirror off; setting other metrics fields must not.
func TestMetricsEnabledTriState(t *testing.T) {
	path := writeConfig(t, `
telemetry:
  metrics:
    namespace: watchtower
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Telemetry.Metrics.Namespace != "watchtower" {
		t.Errorf("Namespace = %q, want watchtower", cfg.Telemetry.Metrics.Namespace)
	}
	if !cfg.Telemetry.Metrics.IsEnabled() {
		t.Error("metrics disabled by setting namespace only")
	}

	path = writeConfig(t, `
telemetry:
  metrics:
    enabled: false
`)
	cfg, err = LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Telemetry.Metrics.IsEnabled() {
		t.Error("explicit enabled: false was ignored")
	}
}

// TestLoadConfigErrors tests missing and malformed files.
func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := writeConfig(t, "server: [not a map")
	if _, err := LoadConfig(bad); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

// TestValidate tests validation failures across sections.
func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "bad listen address",
			mutate: func(c *Config) { c.Server.ListenAddress = "no-port" },
		},
		{
			name: "upstream without base url",
			mutate: func(c *Config) {
				c.Upstreams["calendar"] = UpstreamConfig{Timeout: time.Second, ProbePath: "/"}
			},
		},
		{
			name: "upstream with bad scheme",
			mutate: func(c *Config) {
				c.Upstreams["calendar"] = UpstreamConfig{BaseURL: "ftp://example.com", Timeout: time.Second}
			},
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Telemetry.Logging.Level = "loud" },
		},
		{
			name:   "zero probe timeout",
			mutate: func(c *Config) { c.Telemetry.Health.ProbeTimeout = 0 },
		},
		{
			name:   "zero unhealthy threshold",
			mutate: func(c *Config) { c.Telemetry.Health.UnhealthyThreshold = 0 },
		},
		{
			name:   "negative duration bucket",
			mutate: func(c *Config) { c.Telemetry.Metrics.DurationBuckets = []float64{-1} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

// TestDefaultConfigIsValid tests that the all-defaults configuration
// passes its own validation.
func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

// TestEnvOverrides tests SPYGLASS_* environment overrides.
func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: "127.0.0.1:8787"
`)

	t.Setenv("SPYGLASS_SERVER_LISTEN_ADDRESS", "127.0.0.1:9999")
	t.Setenv("SPYGLASS_LOGGING_LEVEL", "error")
	t.Setenv("SPYGLASS_HEALTH_PROBE_TIMEOUT", "2s")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error = %v", err)
	}

	if cfg.Server.ListenAddress != "127.0.0.1:9999" {
		t.Errorf("ListenAddress = %q, want override", cfg.Server.ListenAddress)
	}
	if cfg.Telemetry.Logging.Level != "error" {
		t.Errorf("Level = %q, want error", cfg.Telemetry.Logging.Level)
	}
	if cfg.Telemetry.Health.ProbeTimeout != 2*time.Second {
		t.Errorf("ProbeTimeout = %v, want 2s", cfg.Telemetry.Health.ProbeTimeout)
	}
}

// TestEnvOverrideValidation tests that an invalid override is rejected.
func TestEnvOverrideValidation(t *testing.T) {
	path := writeConfig(t, `{}`)

	t.Setenv("SPYGLASS_LOGGING_LEVEL", "shouty")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Error("expected validation error after override")
	}
}

// TestUpstreamDefaultsApplied tests per-upstream default filling.
func TestUpstreamDefaultsApplied(t *testing.T) {
	path := writeConfig(t, `
upstreams:
  drive:
    base_url: "https://www.googleapis.com/drive/v3"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	drive := cfg.Upstreams["drive"]
	if drive.ProbePath != DefaultProbePath {
		t.Errorf("ProbePath = %q, want default", drive.ProbePath)
	}
	if drive.Timeout != DefaultUpstreamTimeout {
		t.Errorf("Timeout = %v, want default", drive.Timeout)
	}

	// Providing explicit upstreams suppresses the built-in set.
	if _, ok := cfg.Upstreams["calendar"]; ok {
		t.Error("built-in upstreams should not merge with explicit ones")
	}
}
