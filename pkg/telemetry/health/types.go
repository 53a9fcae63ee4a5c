package health

import "time"

// Status is a health classification for a component or for the whole
// process.
type Status string

const (
	// StatusHealthy means the component is fully operational.
	StatusHealthy Status = "healthy"

	// StatusDegraded means the component works but with reduced
	// reliability; the process still serves traffic.
	StatusDegraded Status = "degraded"

	// StatusUnhealthy means the component cannot currently do its job.
	StatusUnhealthy Status = "unhealthy"
)

// rank orders statuses from best to worst for worst-of folding.
func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// worst returns the more severe of two statuses.
func worst(a, b Status) Status {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// AuthHealth describes the credential check's outcome.
type AuthHealth struct {
	// Status is the auth check verdict.
	Status Status `json:"status"`

	// TokenValid reports whether a usable token was obtained.
	TokenValid bool `json:"token_valid"`

	// ExpiresInSeconds is the token's remaining lifetime, nil when the
	// expiry is unknown or no token was obtained.
	ExpiresInSeconds *int64 `json:"expires_in_seconds,omitempty"`

	// ScopesGranted lists the OAuth scopes on the token.
	ScopesGranted []string `json:"scopes_granted,omitempty"`

	// Error carries the failure message when the check failed.
	Error string `json:"error,omitempty"`
}

// APIHealth describes one upstream API family's probe state.
type APIHealth struct {
	// Status is this family's verdict.
	Status Status `json:"status"`

	// LastSuccess is the time of the last successful probe, nil before the
	// first success.
	LastSuccess *time.Time `json:"last_success,omitempty"`

	// ErrorCount is the monotonic probe failure count since process start.
	ErrorCount int64 `json:"error_count"`

	// Error carries the most recent failure message.
	Error string `json:"error,omitempty"`
}

// APIGroupHealth holds every family's probe state plus the worst-of
// verdict across them.
type APIGroupHealth struct {
	// OverallStatus is the worst status among the families.
	OverallStatus Status `json:"overall_status"`

	// Families maps family name to its probe state.
	Families map[string]APIHealth `json:"families"`
}

// MemoryStatus reports process heap usage.
type MemoryStatus struct {
	// UsedBytes is the heap currently allocated.
	UsedBytes uint64 `json:"used_bytes"`

	// TotalBytes is the heap obtained from the OS.
	TotalBytes uint64 `json:"total_bytes"`
}

// CheckResult is one named sub-check's outcome in the dependency list.
type CheckResult struct {
	// Name identifies the sub-check ("auth", "calendar", "system", ...).
	Name string `json:"name"`

	// Status is the sub-check verdict.
	Status Status `json:"status"`

	// Message provides context, usually for non-healthy results.
	Message string `json:"message,omitempty"`

	// Duration is how long the check took.
	Duration time.Duration `json:"duration_ms"`
}

// HealthStatus is the aggregate verdict. It is built fresh on every check
// and never cached.
type HealthStatus struct {
	// Status is the folded overall verdict.
	Status Status `json:"status"`

	// Timestamp is when the check ran.
	Timestamp time.Time `json:"timestamp"`

	// UptimeSeconds is how long the process has been up.
	UptimeSeconds float64 `json:"uptime_seconds"`

	// Version is the build version string.
	Version string `json:"version"`

	// Memory reports process heap usage.
	Memory MemoryStatus `json:"memory"`

	// Auth is the credential check outcome.
	Auth AuthHealth `json:"auth"`

	// APIs holds per-family probe state.
	APIs APIGroupHealth `json:"apis"`

	// Dependencies lists every sub-check result in a stable order: auth
	// first, API families sorted by name, system last.
	Dependencies []CheckResult `json:"dependencies"`
}
