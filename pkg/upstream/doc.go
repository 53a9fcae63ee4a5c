// Package upstream implements the thin client boundary to the downstream
// productivity APIs that Spyglass proxies.
//
// Each configured API family ("calendar", "meet", ...) gets one Client with
// connection pooling, bearer-token authentication from the auth boundary,
// and full call monitoring: every request runs through monitor.Do so the
// observability core sees its lifecycle and any throttling signals.
//
// The request-dispatch layer that shapes individual API methods sits above
// this package and is out of scope here; the Client exposes just enough to
// feed the health checker's probes and to execute already-shaped requests.
package upstream
