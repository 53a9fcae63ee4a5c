package server

import (
	"encoding/json"
	"net/http"
	"time"

	"workspacehq/spyglass/pkg/monitor"
	"workspacehq/spyglass/pkg/telemetry/health"
	"workspacehq/spyglass/pkg/telemetry/metrics"
)

// apiStatusEntry combines one API family's health, performance, and rate
// limit state into a single view.
type apiStatusEntry struct {
	Health      health.APIHealth          `json:"health"`
	Performance metrics.APIPerformanceStat `json:"performance"`
	RateLimit   monitor.RateLimitInfo     `json:"rate_limit"`
}

// apiStatusResponse is the body of GET /api/status.
type apiStatusResponse struct {
	OverallStatus health.Status             `json:"overall_status"`
	APIs          map[string]apiStatusEntry `json:"apis"`
	Timestamp     time.Time                 `json:"timestamp"`
}

// performanceResponse is the body of GET /api/performance.
type performanceResponse struct {
	RequestsTotal     int64                                 `json:"requests_total"`
	ErrorsTotal       int64                                 `json:"errors_total"`
	ErrorRate         float64                               `json:"error_rate"`
	RequestsPerMinute int64                                 `json:"requests_per_minute"`
	APIPerformance    map[string]metrics.APIPerformanceStat `json:"api_performance"`
	ActiveCalls       []monitor.ActiveCall                  `json:"active_calls"`
	RecentEvents      []metrics.Event                       `json:"recent_events"`
	Timestamp         time.Time                             `json:"timestamp"`
}

// statusHandler serves GET /api/status: each family's health verdict next
// to its observed performance and rate limit state.
func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := s.checker.Check(r.Context())
		snap := s.collector.Snapshot()

		resp := apiStatusResponse{
			OverallStatus: status.APIs.OverallStatus,
			APIs:          make(map[string]apiStatusEntry, len(status.APIs.Families)),
			Timestamp:     time.Now(),
		}
		for name, apiHealth := range status.APIs.Families {
			resp.APIs[name] = apiStatusEntry{
				Health:      apiHealth,
				Performance: snap.APIPerformance[name],
				RateLimit:   s.monitor.RateLimit(name),
			}
		}

		writeJSON(w, r, http.StatusOK, resp)
	}
}

// performanceHandler serves GET /api/performance: aggregate counters,
// per-family performance, calls currently in flight, and recent events.
func (s *Server) performanceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		snap := s.collector.Snapshot()

		writeJSON(w, r, http.StatusOK, performanceResponse{
			RequestsTotal:     snap.RequestsTotal,
			ErrorsTotal:       snap.ErrorsTotal,
			ErrorRate:         snap.ErrorRate,
			RequestsPerMinute: snap.RequestsPerMinute,
			APIPerformance:    snap.APIPerformance,
			ActiveCalls:       s.monitor.ActiveCalls(),
			RecentEvents:      snap.RecentEvents,
			Timestamp:         time.Now(),
		})
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(body)
	}
}
