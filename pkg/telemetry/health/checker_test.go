package health

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"workspacehq/spyglass/pkg/auth"
	"workspacehq/spyglass/pkg/config"
)

// fakeTokenSource hands out a fixed token or a fixed error.
type fakeTokenSource struct {
	tok *auth.Token
	err error
}

func (f *fakeTokenSource) Token(ctx context.Context) (*auth.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tok, nil
}

// fakeProber returns a scripted sequence of errors, repeating the last
// entry once exhausted.
type fakeProber struct {
	name  string
	errs  []error
	calls atomic.Int64
}

func (f *fakeProber) Name() string { return f.name }

func (f *fakeProber) Probe(ctx context.Context) error {
	n := int(f.calls.Add(1)) - 1
	if len(f.errs) == 0 {
		return nil
	}
	if n >= len(f.errs) {
		n = len(f.errs) - 1
	}
	return f.errs[n]
}

// panicProber panics on every probe.
type panicProber struct{ name string }

func (p *panicProber) Name() string                  { return p.name }
func (p *panicProber) Probe(ctx context.Context) error { panic("probe exploded") }

func goodTokens() auth.TokenSource {
	return &fakeTokenSource{tok: &auth.Token{
		AccessToken: "ya29.test",
		Expiry:      time.Now().Add(time.Hour),
		Scopes:      []string{"calendar.readonly", "meetings.space.readonly"},
	}}
}

func testConfig() *config.HealthConfig {
	return &config.HealthConfig{
		ProbeTimeout:         time.Second,
		UnhealthyThreshold:   3,
		MemoryThresholdBytes: config.DefaultMemoryThreshold,
	}
}

func newTestChecker(tokens auth.TokenSource, probers ...Prober) *Checker {
	return New(tokens, probers, testConfig(), nil, "test")
}

func TestCheckAllHealthy(t *testing.T) {
	c := newTestChecker(goodTokens(),
		&fakeProber{name: "calendar"},
		&fakeProber{name: "meet"},
	)

	status := c.Check(context.Background())

	if status.Status != StatusHealthy {
		t.Fatalf("overall status = %q, want %q", status.Status, StatusHealthy)
	}
	if !status.Auth.TokenValid {
		t.Error("auth.token_valid = false, want true")
	}
	if status.Auth.Status != StatusHealthy {
		t.Errorf("auth status = %q, want %q", status.Auth.Status, StatusHealthy)
	}
	if status.APIs.OverallStatus != StatusHealthy {
		t.Errorf("apis overall = %q, want %q", status.APIs.OverallStatus, StatusHealthy)
	}
	for name, api := range status.APIs.Families {
		if api.Status != StatusHealthy {
			t.Errorf("family %s status = %q, want %q", name, api.Status, StatusHealthy)
		}
		if api.LastSuccess == nil {
			t.Errorf("family %s missing last_success after a successful probe", name)
		}
	}
	if status.Version != "test" {
		t.Errorf("version = %q, want %q", status.Version, "test")
	}
	if status.Memory.UsedBytes == 0 {
		t.Error("memory.used_bytes = 0, want nonzero")
	}
}

func TestCheckAuthExpiresIn(t *testing.T) {
	c := newTestChecker(goodTokens(), &fakeProber{name: "calendar"})

	status := c.Check(context.Background())

	if status.Auth.ExpiresInSeconds == nil {
		t.Fatal("auth.expires_in_seconds is nil, want a value")
	}
	if got := *status.Auth.ExpiresInSeconds; got <= 0 || got > 3600 {
		t.Errorf("auth.expires_in_seconds = %d, want within (0, 3600]", got)
	}
	if len(status.Auth.ScopesGranted) != 2 {
		t.Errorf("scopes_granted has %d entries, want 2", len(status.Auth.ScopesGranted))
	}
}

func TestCheckAuthFailureDominates(t *testing.T) {
	c := newTestChecker(
		&fakeTokenSource{err: auth.ErrNoToken},
		&fakeProber{name: "calendar"},
		&fakeProber{name: "meet"},
	)

	status := c.Check(context.Background())

	if status.Status != StatusUnhealthy {
		t.Fatalf("overall status = %q, want %q", status.Status, StatusUnhealthy)
	}
	if status.Auth.Status != StatusUnhealthy {
		t.Errorf("auth status = %q, want %q", status.Auth.Status, StatusUnhealthy)
	}
	if status.Auth.TokenValid {
		t.Error("auth.token_valid = true, want false")
	}
	if status.Auth.Error == "" {
		t.Error("auth error is empty, want the source failure")
	}
	// The probes themselves succeeded, so the API group stays healthy.
	if status.APIs.OverallStatus != StatusHealthy {
		t.Errorf("apis overall = %q, want %q", status.APIs.OverallStatus, StatusHealthy)
	}
}

func TestCheckProbeFailuresDegradeThenUnhealth(t *testing.T) {
	err500 := errors.New("probe calendar: unexpected status 500")
	p := &fakeProber{name: "calendar", errs: []error{err500}}
	c := newTestChecker(goodTokens(), p)

	// Failures one and two: degraded.
	for i := 1; i <= 2; i++ {
		status := c.Check(context.Background())
		api := status.APIs.Families["calendar"]
		if api.Status != StatusDegraded {
			t.Fatalf("after %d failures: family status = %q, want %q", i, api.Status, StatusDegraded)
		}
		if api.ErrorCount != int64(i) {
			t.Errorf("after %d failures: error_count = %d, want %d", i, api.ErrorCount, i)
		}
		if status.Status != StatusDegraded {
			t.Errorf("after %d failures: overall = %q, want %q", i, status.Status, StatusDegraded)
		}
		if status.Status == StatusHealthy {
			t.Error("overall reported healthy while a probe was failing")
		}
	}

	// Third consecutive failure crosses the threshold.
	status := c.Check(context.Background())
	api := status.APIs.Families["calendar"]
	if api.Status != StatusUnhealthy {
		t.Fatalf("after 3 failures: family status = %q, want %q", api.Status, StatusUnhealthy)
	}
	if status.Status != StatusUnhealthy {
		t.Errorf("after 3 failures: overall = %q, want %q", status.Status, StatusUnhealthy)
	}
	if api.Error == "" || !strings.Contains(api.Error, "500") {
		t.Errorf("family error = %q, want the probe failure", api.Error)
	}
}

func TestCheckSuccessResetsConsecutiveFailures(t *testing.T) {
	boom := errors.New("unexpected status 500")
	p := &fakeProber{name: "meet", errs: []error{boom, boom, nil, boom}}
	c := newTestChecker(goodTokens(), p)

	c.Check(context.Background())
	c.Check(context.Background())
	c.Check(context.Background()) // success, resets the streak

	status := c.Check(context.Background())
	api := status.APIs.Families["meet"]
	if api.Status != StatusDegraded {
		t.Fatalf("family status = %q, want %q after streak reset", api.Status, StatusDegraded)
	}
	if api.ErrorCount != 3 {
		t.Errorf("error_count = %d, want 3 (monotonic across the reset)", api.ErrorCount)
	}
	if api.LastSuccess == nil {
		t.Error("last_success is nil after an intervening success")
	}
}

func TestCheckConnectionErrorIsImmediatelyUnhealthy(t *testing.T) {
	connErr := &url.Error{
		Op:  "Get",
		URL: "https://www.googleapis.com/calendar/v3/users/me/calendarList",
		Err: errors.New("dial tcp: connection refused"),
	}
	c := newTestChecker(goodTokens(), &fakeProber{name: "calendar", errs: []error{connErr}})

	status := c.Check(context.Background())

	api := status.APIs.Families["calendar"]
	if api.Status != StatusUnhealthy {
		t.Fatalf("family status = %q, want %q on first connection error", api.Status, StatusUnhealthy)
	}
	if status.Status != StatusUnhealthy {
		t.Errorf("overall = %q, want %q", status.Status, StatusUnhealthy)
	}
}

func TestCheckWorstFamilyWins(t *testing.T) {
	boom := errors.New("unexpected status 503")
	c := newTestChecker(goodTokens(),
		&fakeProber{name: "calendar"},
		&fakeProber{name: "meet", errs: []error{boom}},
	)

	status := c.Check(context.Background())

	if status.APIs.Families["calendar"].Status != StatusHealthy {
		t.Error("healthy family dragged down by its sibling")
	}
	if status.APIs.OverallStatus != StatusDegraded {
		t.Errorf("apis overall = %q, want %q", status.APIs.OverallStatus, StatusDegraded)
	}
	if status.Status != StatusDegraded {
		t.Errorf("overall = %q, want %q", status.Status, StatusDegraded)
	}
}

func TestCheckProbePanicIsContained(t *testing.T) {
	c := newTestChecker(goodTokens(),
		&fakeProber{name: "calendar"},
		&panicProber{name: "meet"},
	)

	status := c.Check(context.Background())

	api := status.APIs.Families["meet"]
	if api.Status == StatusHealthy {
		t.Fatal("panicking probe reported healthy")
	}
	if !strings.Contains(api.Error, "panic") {
		t.Errorf("family error = %q, want a panic message", api.Error)
	}
	if status.APIs.Families["calendar"].Status != StatusHealthy {
		t.Error("sibling family affected by the panic")
	}
}

func TestCheckAuthPanicIsContained(t *testing.T) {
	c := newTestChecker(panicTokenSource{}, &fakeProber{name: "calendar"})

	status := c.Check(context.Background())

	if status.Auth.Status != StatusUnhealthy {
		t.Fatalf("auth status = %q, want %q", status.Auth.Status, StatusUnhealthy)
	}
	if status.Status != StatusUnhealthy {
		t.Errorf("overall = %q, want %q", status.Status, StatusUnhealthy)
	}
}

type panicTokenSource struct{}

func (panicTokenSource) Token(ctx context.Context) (*auth.Token, error) {
	panic("source exploded")
}

func TestCheckDependencyOrder(t *testing.T) {
	c := newTestChecker(goodTokens(),
		&fakeProber{name: "meet"},
		&fakeProber{name: "calendar"},
	)

	status := c.Check(context.Background())

	want := []string{"auth", "calendar", "meet", "system"}
	if len(status.Dependencies) != len(want) {
		t.Fatalf("got %d dependencies, want %d", len(status.Dependencies), len(want))
	}
	for i, name := range want {
		if status.Dependencies[i].Name != name {
			t.Errorf("dependencies[%d] = %q, want %q", i, status.Dependencies[i].Name, name)
		}
	}
}

func TestCheckNoProbers(t *testing.T) {
	c := newTestChecker(goodTokens())

	status := c.Check(context.Background())

	if status.Status != StatusHealthy {
		t.Fatalf("overall = %q, want %q with no probers", status.Status, StatusHealthy)
	}
	if status.APIs.Families == nil {
		t.Error("families map is nil, want empty map")
	}
}

func TestCheckSystemDegradedOnly(t *testing.T) {
	cfg := testConfig()
	cfg.MemoryThresholdBytes = 1 // any live heap exceeds this
	c := New(goodTokens(), []Prober{&fakeProber{name: "calendar"}}, cfg, nil, "test")

	status := c.Check(context.Background())

	var sys *CheckResult
	for i := range status.Dependencies {
		if status.Dependencies[i].Name == "system" {
			sys = &status.Dependencies[i]
		}
	}
	if sys == nil {
		t.Fatal("system check missing from dependencies")
	}
	if sys.Status != StatusDegraded {
		t.Fatalf("system status = %q, want %q over threshold", sys.Status, StatusDegraded)
	}
	// Memory pressure never escalates past degraded.
	if status.Status != StatusDegraded {
		t.Errorf("overall = %q, want %q", status.Status, StatusDegraded)
	}
}

func TestIsHealthy(t *testing.T) {
	degraded := newTestChecker(goodTokens(),
		&fakeProber{name: "calendar", errs: []error{errors.New("unexpected status 500")}},
	)
	if !degraded.IsHealthy(context.Background()) {
		t.Error("IsHealthy = false for a degraded process, want true")
	}

	broken := newTestChecker(&fakeTokenSource{err: auth.ErrNoToken})
	if broken.IsHealthy(context.Background()) {
		t.Error("IsHealthy = true with no credentials, want false")
	}
}

func TestCheckProbeTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.ProbeTimeout = 10 * time.Millisecond
	slow := proberFunc{name: "calendar", fn: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}
	c := New(goodTokens(), []Prober{slow}, cfg, nil, "test")

	done := make(chan HealthStatus, 1)
	go func() { done <- c.Check(context.Background()) }()

	select {
	case status := <-done:
		api := status.APIs.Families["calendar"]
		if api.Status == StatusHealthy {
			t.Error("timed-out probe reported healthy")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Check did not return after probe timeout")
	}
}

type proberFunc struct {
	name string
	fn   func(ctx context.Context) error
}

func (p proberFunc) Name() string                    { return p.name }
func (p proberFunc) Probe(ctx context.Context) error { return p.fn(ctx) }

func TestGaugeValue(t *testing.T) {
	tests := []struct {
		status Status
		want   float64
	}{
		{StatusHealthy, 1},
		{StatusDegraded, 0.5},
		{StatusUnhealthy, 0},
	}
	for _, tt := range tests {
		if got := gaugeValue(tt.status); got != tt.want {
			t.Errorf("gaugeValue(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

// gaugeRecorder captures published per-family gauge values.
type gaugeRecorder struct {
	values map[string]float64
}

func (g *gaugeRecorder) SetAPIHealth(api string, value float64) {
	if g.values == nil {
		g.values = make(map[string]float64)
	}
	g.values[api] = value
}

func TestSamplerPublishesFamilyGauges(t *testing.T) {
	boom := errors.New("unexpected status 500")
	c := newTestChecker(goodTokens(),
		&fakeProber{name: "calendar"},
		&fakeProber{name: "meet", errs: []error{boom}},
	)
	rec := &gaugeRecorder{}
	s := NewSampler(c, rec, time.Minute, nil)

	s.sample(context.Background())

	if got := rec.values["calendar"]; got != 1 {
		t.Errorf("calendar gauge = %v, want 1", got)
	}
	if got := rec.values["meet"]; got != 0.5 {
		t.Errorf("meet gauge = %v, want 0.5", got)
	}
}

func TestSamplerZeroIntervalDisabled(t *testing.T) {
	c := newTestChecker(goodTokens())
	s := NewSampler(c, &gaugeRecorder{}, 0, nil)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start with zero interval: %v", err)
	}
	if s.running {
		t.Error("sampler running with zero interval")
	}
	s.Stop()
}
