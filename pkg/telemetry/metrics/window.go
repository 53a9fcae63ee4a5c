package metrics

import (
	"sync"
	"time"
)

// rateWindow is a sliding window counter used for the requests-per-minute
// figure. It keeps a circular buffer of per-second buckets; entries older
// than the window fall out automatically, so memory stays fixed regardless
// of traffic.
type rateWindow struct {
	window     time.Duration
	bucketSize time.Duration
	buckets    []windowBucket
	mu         sync.Mutex
}

type windowBucket struct {
	slot  time.Time
	count int64
}

// newRateWindow creates a sliding window covering the given duration at the
// given bucket granularity. window/bucketSize buckets are allocated up
// front.
func newRateWindow(window, bucketSize time.Duration) *rateWindow {
	n := int(window / bucketSize)
	if n < 1 {
		n = 1
	}
	return &rateWindow{
		window:     window,
		bucketSize: bucketSize,
		buckets:    make([]windowBucket, n),
	}
}

// Add increments the bucket covering now. A bucket left over from a previous
// lap of the ring is overwritten rather than pruned eagerly.
func (w *rateWindow) Add(n int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	slot := now.Truncate(w.bucketSize)
	idx := int(slot.UnixNano()/int64(w.bucketSize)) % len(w.buckets)

	if !w.buckets[idx].slot.Equal(slot) {
		w.buckets[idx] = windowBucket{slot: slot}
	}
	w.buckets[idx].count += n
}

// Count sums every bucket still inside the window. Zero when nothing has
// been added recently.
func (w *rateWindow) Count() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()

	cutoff := time.Now().Add(-w.window)

	var sum int64
	for i := range w.buckets {
		if !w.buckets[i].slot.IsZero() && w.buckets[i].slot.After(cutoff) {
			sum += w.buckets[i].count
		}
	}
	return sum
}

// Reset clears all buckets.
func (w *rateWindow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i := range w.buckets {
		w.buckets[i] = windowBucket{}
	}
}
