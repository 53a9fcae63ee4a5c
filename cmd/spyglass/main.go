// Spyglass is an observability sidecar for Google Workspace API traffic.
//
// It watches the Calendar and Meet API calls made by a long-running agent
// process and reports on them:
//   - Aggregate and per-tool call metrics, as JSON and Prometheus text
//   - Per-API latency, error, and rate limit tracking
//   - Aggregate health checks over credentials and upstream reachability
//
// Usage:
//
//	# Start with default configuration
//	spyglass run
//
//	# Start with a custom configuration file
//	spyglass run --config /path/to/config.yaml
//
//	# Show version information
//	spyglass version
package main

func main() {
	Execute()
}
