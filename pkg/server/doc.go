// Package server provides the HTTP surface of Spyglass.
//
// It ties the telemetry components together (metrics collector, call
// monitor, health checker), mounts their endpoints on one mux, chains
// middleware for cross-cutting concerns, and manages server lifecycle
// including graceful shutdown on OS signals (SIGTERM, SIGINT).
//
// Endpoints:
//
//	GET /health              full health report (503 when unhealthy)
//	GET /health/live         liveness probe, always 200
//	GET /health/ready        readiness probe (503 when unhealthy)
//	GET /metrics             metrics snapshot as JSON
//	GET /metrics/prometheus  metrics in Prometheus text exposition format
//	GET /api/status          per-API health and performance summary
//	GET /api/performance     aggregate performance, active calls, recent events
package server
