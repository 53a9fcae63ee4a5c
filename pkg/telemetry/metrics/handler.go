package metrics

import (
	"encoding/json"
	"net/http"
)

// expositionContentType is the Prometheus text format content type.
const expositionContentType = "text/plain; version=0.0.4; charset=utf-8"

// JSONHandler returns an HTTP handler serving the current MetricsData
// snapshot as JSON.
func (c *Collector) JSONHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		snapshot := c.Snapshot()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		if r.Method != http.MethodHead {
			_ = json.NewEncoder(w).Encode(snapshot)
		}
	}
}

// PrometheusHandler returns an HTTP handler serving the text exposition of
// every registered metric family. A rendering failure surfaces as a 500
// with a structured error body, never a partial document.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		text, err := c.Exposition()
		if err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", expositionContentType)
		w.WriteHeader(http.StatusOK)

		if r.Method != http.MethodHead {
			_, _ = w.Write([]byte(text))
		}
	}
}
