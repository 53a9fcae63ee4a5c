// Package monitor tracks the lifecycle of individual outbound calls to
// upstream APIs and detects throttling from response metadata.
//
// The Monitor sits between "a call is happening" and "a call happened":
// StartCall registers an in-flight call under a caller-supplied ID, EndCall
// measures its duration, inspects the response headers for rate-limit
// signals, and forwards the completed-call statistics to the metrics
// collector. Wrap and Do guarantee the start/end pairing on every exit
// path, including panics, so callers never need manual bookkeeping.
//
// The Monitor is advisory only: it measures and recommends, but never
// sleeps, blocks, or retries on its own, and it never masks a downstream
// failure.
package monitor
