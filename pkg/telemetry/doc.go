// Package telemetry groups the observability components of Spyglass.
//
// # Components
//
//   - logging: structured logging over log/slog
//   - metrics: call metrics as JSON snapshots and Prometheus families
//   - health: aggregate health checking over credentials and upstreams
//
// Each subpackage stands on its own; nothing in this package couples them.
// The server package wires them together and exposes their endpoints.
package telemetry
