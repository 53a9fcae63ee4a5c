// Package metrics implements the in-process metrics collector for Spyglass.
//
// The Collector is pure bookkeeping: it accumulates counters, running
// averages, and a bounded ring of recent error events for every tool
// invocation and upstream API call, and never performs I/O of its own.
// Each aggregate is mirrored into a Prometheus registry so the same data is
// available both as a JSON snapshot (Snapshot) and in Prometheus text
// exposition format (Exposition, Handler).
//
// The collector never fails and performs no input validation; callers own
// the quality of what they record. Snapshots are deep copies, never live
// views, so readers cannot perturb future reads.
package metrics
