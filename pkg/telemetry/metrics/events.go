package metrics

// eventRing is a fixed-capacity ring buffer of recent events. Once full, the
// oldest entry is evicted on every append; order is preserved oldest-first.
// Callers must hold the collector's lock.
type eventRing struct {
	entries []Event
	head    int
	size    int
}

// newEventRing creates a ring holding at most capacity events.
func newEventRing(capacity int) *eventRing {
	if capacity < 1 {
		capacity = 1
	}
	return &eventRing{entries: make([]Event, capacity)}
}

// Append adds an event, evicting the oldest entry when the ring is full.
func (r *eventRing) Append(e Event) {
	r.entries[r.head] = e
	r.head = (r.head + 1) % len(r.entries)
	if r.size < len(r.entries) {
		r.size++
	}
}

// Snapshot returns the buffered events oldest-first as a fresh slice.
func (r *eventRing) Snapshot() []Event {
	out := make([]Event, 0, r.size)
	start := r.head - r.size
	if start < 0 {
		start += len(r.entries)
	}
	for i := 0; i < r.size; i++ {
		out = append(out, r.entries[(start+i)%len(r.entries)])
	}
	return out
}

// Reset empties the ring.
func (r *eventRing) Reset() {
	for i := range r.entries {
		r.entries[i] = Event{}
	}
	r.head = 0
	r.size = 0
}
