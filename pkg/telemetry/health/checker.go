// Package health implements the aggregate health check for Spyglass.
//
// On demand, the Checker fans out three kinds of independent, side-effect
// free sub-checks - credential validity, one probe per upstream API family,
// and process resource usage - joins them, and folds the results into one
// verdict. Auth failure always dominates: without a usable token no
// upstream call can succeed regardless of reachability.
//
// Probe failure policy: one or two consecutive failures report a family as
// degraded (transient trouble), three or more consecutive failures or a
// connection-level error report it as unhealthy. A probe timeout counts
// like any other failure. The thresholds live in config.HealthConfig.
package health

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"workspacehq/spyglass/pkg/auth"
	"workspacehq/spyglass/pkg/config"
	"workspacehq/spyglass/pkg/telemetry/logging"
)

// Prober issues a minimal, side-effect-free request against one upstream
// API family. upstream.Client satisfies this.
type Prober interface {
	Name() string
	Probe(ctx context.Context) error
}

// apiState is the per-family failure bookkeeping that survives between
// checks. errorCount is monotonic; consecutive resets on success.
type apiState struct {
	lastSuccess time.Time
	errorCount  int64
	consecutive int
}

// Checker runs the aggregate health check. It holds no verdict state
// between invocations beyond the per-family failure counters.
type Checker struct {
	tokens  auth.TokenSource
	probers []Prober
	cfg     *config.HealthConfig
	logger  *logging.Logger
	version string

	startTime time.Time

	mu    sync.Mutex
	state map[string]*apiState
}

// New creates a health checker over the given credential source and API
// probers.
func New(tokens auth.TokenSource, probers []Prober, cfg *config.HealthConfig, logger *logging.Logger, version string) *Checker {
	if cfg == nil {
		cfg = &config.HealthConfig{}
	}
	if cfg.ProbeTimeout == 0 {
		cfg.ProbeTimeout = config.DefaultProbeTimeout
	}
	if cfg.UnhealthyThreshold == 0 {
		cfg.UnhealthyThreshold = config.DefaultUnhealthyThreshold
	}
	if cfg.MemoryThresholdBytes == 0 {
		cfg.MemoryThresholdBytes = config.DefaultMemoryThreshold
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &Checker{
		tokens:    tokens,
		probers:   probers,
		cfg:       cfg,
		logger:    logger.With("component", "health"),
		version:   version,
		startTime: time.Now(),
		state:     make(map[string]*apiState),
	}
}

// Check runs every sub-check concurrently, waits for all of them, and folds
// the results into a fresh HealthStatus.
func (c *Checker) Check(ctx context.Context) HealthStatus {
	var (
		wg      sync.WaitGroup
		authRes AuthHealth
		authDur time.Duration
		sysRes  CheckResult
		sysMem  MemoryStatus

		apiMu   sync.Mutex
		apiRes  = make(map[string]APIHealth, len(c.probers))
		apiDurs = make(map[string]time.Duration, len(c.probers))
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		authRes = c.checkAuth(ctx)
		authDur = time.Since(start)
	}()

	for _, p := range c.probers {
		wg.Add(1)
		go func(p Prober) {
			defer wg.Done()
			start := time.Now()
			res := c.checkAPI(ctx, p)
			apiMu.Lock()
			apiRes[p.Name()] = res
			apiDurs[p.Name()] = time.Since(start)
			apiMu.Unlock()
		}(p)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		sysRes, sysMem = c.checkSystem()
	}()

	wg.Wait()

	return c.fold(authRes, authDur, apiRes, apiDurs, sysRes, sysMem)
}

// IsHealthy reports whether the process is operational. Degraded still
// counts as operational; only unhealthy does not.
func (c *Checker) IsHealthy(ctx context.Context) bool {
	return c.Check(ctx).Status != StatusUnhealthy
}

// Uptime returns how long this checker has been alive.
func (c *Checker) Uptime() time.Duration {
	return time.Since(c.startTime)
}

// checkAuth asks the credential source for a usable token and inspects its
// metadata. The source is never mutated.
func (c *Checker) checkAuth(ctx context.Context) (res AuthHealth) {
	defer func() {
		if r := recover(); r != nil {
			res = AuthHealth{
				Status: StatusUnhealthy,
				Error:  fmt.Sprintf("auth check panic: %v", r),
			}
		}
	}()

	checkCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	tok, err := c.tokens.Token(checkCtx)
	if err != nil {
		return AuthHealth{
			Status: StatusUnhealthy,
			Error:  err.Error(),
		}
	}

	res = AuthHealth{
		Status:        StatusHealthy,
		TokenValid:    true,
		ScopesGranted: tok.Scopes,
	}
	if secs := tok.ExpiresIn(); secs >= 0 {
		res.ExpiresInSeconds = &secs
	}
	return res
}

// checkAPI probes one family and classifies the outcome against the
// consecutive-failure policy.
func (c *Checker) checkAPI(ctx context.Context, p Prober) (res APIHealth) {
	defer func() {
		if r := recover(); r != nil {
			res = c.recordAPIFailure(p.Name(), fmt.Errorf("probe panic: %v", r), true)
		}
	}()

	probeCtx, cancel := context.WithTimeout(ctx, c.cfg.ProbeTimeout)
	defer cancel()

	err := p.Probe(probeCtx)
	if err == nil {
		return c.recordAPISuccess(p.Name())
	}

	c.logger.Warn("upstream probe failed", "api", p.Name(), "error", err)
	return c.recordAPIFailure(p.Name(), err, isConnectionError(err))
}

// recordAPISuccess resets the consecutive counter and stamps last_success.
func (c *Checker) recordAPISuccess(name string) APIHealth {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.stateFor(name)
	st.consecutive = 0
	st.lastSuccess = time.Now()

	last := st.lastSuccess
	return APIHealth{
		Status:      StatusHealthy,
		LastSuccess: &last,
		ErrorCount:  st.errorCount,
	}
}

// recordAPIFailure bumps the failure counters and classifies: degraded for
// the first failures, unhealthy once the consecutive threshold is reached
// or the error is connection-level.
func (c *Checker) recordAPIFailure(name string, err error, connectionLevel bool) APIHealth {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.stateFor(name)
	st.errorCount++
	st.consecutive++

	status := StatusDegraded
	if connectionLevel || st.consecutive >= c.cfg.UnhealthyThreshold {
		status = StatusUnhealthy
	}

	res := APIHealth{
		Status:     status,
		ErrorCount: st.errorCount,
		Error:      err.Error(),
	}
	if !st.lastSuccess.IsZero() {
		last := st.lastSuccess
		res.LastSuccess = &last
	}
	return res
}

// stateFor returns the per-family state, creating it on first use. Caller
// holds the lock.
func (c *Checker) stateFor(name string) *apiState {
	st, ok := c.state[name]
	if !ok {
		st = &apiState{}
		c.state[name] = st
	}
	return st
}

// fold combines sub-check results into the aggregate verdict.
func (c *Checker) fold(authRes AuthHealth, authDur time.Duration, apiRes map[string]APIHealth, apiDurs map[string]time.Duration, sysRes CheckResult, sysMem MemoryStatus) HealthStatus {
	group := APIGroupHealth{
		OverallStatus: StatusHealthy,
		Families:      apiRes,
	}
	for _, res := range apiRes {
		group.OverallStatus = worst(group.OverallStatus, res.Status)
	}
	if len(apiRes) == 0 {
		group.Families = make(map[string]APIHealth)
	}

	// Auth failure dominates; any unhealthy API marks the process
	// unhealthy; otherwise any degraded sub-check degrades the whole.
	overall := StatusHealthy
	anyUnhealthyAPI := false
	for _, res := range apiRes {
		if res.Status == StatusUnhealthy {
			anyUnhealthyAPI = true
		}
	}
	switch {
	case authRes.Status == StatusUnhealthy || anyUnhealthyAPI:
		overall = StatusUnhealthy
	default:
		overall = worst(overall, authRes.Status)
		overall = worst(overall, group.OverallStatus)
		overall = worst(overall, sysRes.Status)
	}

	deps := make([]CheckResult, 0, len(apiRes)+2)
	deps = append(deps, CheckResult{
		Name:     "auth",
		Status:   authRes.Status,
		Message:  authRes.Error,
		Duration: authDur,
	})
	names := make([]string, 0, len(apiRes))
	for name := range apiRes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		deps = append(deps, CheckResult{
			Name:     name,
			Status:   apiRes[name].Status,
			Message:  apiRes[name].Error,
			Duration: apiDurs[name],
		})
	}
	deps = append(deps, sysRes)

	return HealthStatus{
		Status:        overall,
		Timestamp:     time.Now(),
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		Version:       c.version,
		Memory:        sysMem,
		Auth:          authRes,
		APIs:          group,
		Dependencies:  deps,
	}
}

// isConnectionError reports whether err is a connection-level failure (the
// upstream was unreachable) rather than an HTTP-level one. Timeouts are
// classified with HTTP errors: transient until sustained.
func isConnectionError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return !urlErr.Timeout() && !errors.Is(err, context.DeadlineExceeded)
	}
	return false
}
