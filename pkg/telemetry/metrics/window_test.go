package metrics

import (
	"testing"
	"time"
)

// TestRateWindowCount tests that additions inside the window are counted.
func TestRateWindowCount(t *testing.T) {
	w := newRateWindow(time.Minute, time.Second)

	w.Add(1)
	w.Add(2)

	if got := w.Count(); got != 3 {
		t.Errorf("Count() = %d, want 3", got)
	}
}

// TestRateWindowZeroWhenIdle tests that an untouched window counts zero.
func TestRateWindowZeroWhenIdle(t *testing.T) {
	w := newRateWindow(time.Minute, time.Second)

	if got := w.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
}

// TestRateWindowExpiry tests that entries outside the window fall out.
func TestRateWindowExpiry(t *testing.T) {
	// A tiny window keeps the test fast.
	w := newRateWindow(40*time.Millisecond, 10*time.Millisecond)

	w.Add(5)
	if got := w.Count(); got != 5 {
		t.Fatalf("Count() = %d, want 5", got)
	}

	time.Sleep(60 * time.Millisecond)

	if got := w.Count(); got != 0 {
		t.Errorf("Count() after expiry = %d, want 0", got)
	}
}

// TestRateWindowReset tests that reset clears all buckets.
func TestRateWindowReset(t *testing.T) {
	w := newRateWindow(time.Minute, time.Second)

	w.Add(7)
	w.Reset()

	if got := w.Count(); got != 0 {
		t.Errorf("Count() after reset = %d, want 0", got)
	}
}

// TestRateWindowMinimumBuckets tests the single-bucket degenerate case.
func TestRateWindowMinimumBuckets(t *testing.T) {
	w := newRateWindow(time.Second, 2*time.Second)

	if len(w.buckets) != 1 {
		t.Errorf("len(buckets) = %d, want 1", len(w.buckets))
	}

	w.Add(1)
	if got := w.Count(); got > 1 {
		t.Errorf("Count() = %d, want <= 1", got)
	}
}

// TestEventRing exercises the ring buffer directly across wrap-around.
func TestEventRing(t *testing.T) {
	r := newEventRing(3)

	for i := 0; i < 5; i++ {
		r.Append(Event{Type: string(rune('a' + i))})
	}

	got := r.Snapshot()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	want := []string{"c", "d", "e"}
	for i, e := range got {
		if e.Type != want[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Type, want[i])
		}
	}
}
