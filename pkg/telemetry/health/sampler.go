package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"workspacehq/spyglass/pkg/telemetry/logging"
)

// HealthRecorder receives sampled per-family health values.
// metrics.Collector satisfies this.
type HealthRecorder interface {
	SetAPIHealth(api string, value float64)
}

// Sampler periodically re-runs the aggregate health check and publishes
// each family's verdict as a gauge value: healthy=1, degraded=0.5,
// unhealthy=0.
type Sampler struct {
	checker  *Checker
	recorder HealthRecorder
	interval time.Duration
	cron     *cron.Cron
	logger   *logging.Logger

	mu      sync.Mutex
	running bool
}

// NewSampler creates a sampler over the given checker. A zero interval
// disables sampling.
func NewSampler(checker *Checker, recorder HealthRecorder, interval time.Duration, logger *logging.Logger) *Sampler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sampler{
		checker:  checker,
		recorder: recorder,
		interval: interval,
		cron:     cron.New(),
		logger:   logger.With("component", "health.sampler"),
	}
}

// Start begins periodic sampling and returns immediately. The first sample
// runs after one full interval, not at start. Sampling stops when ctx is
// cancelled or Stop is called.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.interval <= 0 {
		s.logger.Info("health sampling disabled")
		return nil
	}
	if s.running {
		return nil
	}

	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() {
		s.sample(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule health sampling: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("health sampler started", "interval", s.interval)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// sample runs one check and publishes the per-family gauge values.
func (s *Sampler) sample(ctx context.Context) {
	status := s.checker.Check(ctx)

	for name, api := range status.APIs.Families {
		s.recorder.SetAPIHealth(name, gaugeValue(api.Status))
	}

	if status.Status != StatusHealthy {
		s.logger.Warn("health sample", "status", status.Status)
	} else {
		s.logger.Debug("health sample", "status", status.Status)
	}
}

// Stop halts sampling and waits for any in-flight sample to finish.
func (s *Sampler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil && s.running {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.running = false
		s.logger.Info("health sampler stopped")
	}
}

// gaugeValue maps a status to its gauge representation.
func gaugeValue(s Status) float64 {
	switch s {
	case StatusHealthy:
		return 1
	case StatusDegraded:
		return 0.5
	default:
		return 0
	}
}
