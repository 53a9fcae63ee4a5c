package health

import (
	"encoding/json"
	"net/http"
	"time"
)

// livenessResponse is the body returned by the liveness endpoint.
type livenessResponse struct {
	Status        string    `json:"status"`
	UptimeSeconds float64   `json:"uptime_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}

// Handler returns the full health report endpoint. It runs every sub-check
// and returns the aggregate verdict.
//
// Returns:
//   - 200 OK: overall status is healthy or degraded
//   - 503 Service Unavailable: overall status is unhealthy
//
// Example response:
//
//	{
//	    "status": "healthy",
//	    "timestamp": "2026-08-26T10:30:00Z",
//	    "uptime_seconds": 3600.5,
//	    "version": "1.0.0",
//	    "memory": {"used_bytes": 12582912, "total_bytes": 71303168},
//	    "auth": {"status": "healthy", "token_valid": true},
//	    "apis": {
//	        "overall_status": "healthy",
//	        "families": {
//	            "calendar": {"status": "healthy", "error_count": 0},
//	            "meet": {"status": "healthy", "error_count": 0}
//	        }
//	    },
//	    "dependencies": [...]
//	}
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := c.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(status)
		}
	}
}

// LivenessHandler returns the liveness probe endpoint. It only verifies
// the process is alive and always answers 200; upstream reachability never
// factors in.
//
// Example response:
//
//	{
//	    "status": "alive",
//	    "uptime_seconds": 3600.5,
//	    "timestamp": "2026-08-26T10:30:00Z"
//	}
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(livenessResponse{
				Status:        "alive",
				UptimeSeconds: c.Uptime().Seconds(),
				Timestamp:     time.Now(),
			})
		}
	}
}

// ReadinessHandler returns the readiness probe endpoint. Degraded still
// counts as ready; only an unhealthy verdict answers 503.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := c.Check(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if status.Status == StatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status":    status.Status,
				"timestamp": status.Timestamp,
			})
		}
	}
}
