package monitor

import (
	"sync"
	"time"
)

// AlertTracker tracks continuous-duration threshold violations and raises
// a sticky alert once a violation has persisted for the hold duration.
//
// It is evaluated once per successfully-received detection result; failed
// or skipped cycles leave it entirely unchanged. A single normal result
// clears the violation episode and the alert with it.
type AlertTracker struct {
	mu       sync.Mutex
	hold     time.Duration
	start    time.Time // zero while clear
	alerting bool
}

// NewAlertTracker creates a tracker with the given hold duration.
func NewAlertTracker(hold time.Duration) *AlertTracker {
	return &AlertTracker{hold: hold}
}

// Observe records one detection outcome at the given instant and returns
// the elapsed violation duration plus whether the alert is active.
func (t *AlertTracker) Observe(violating bool, now time.Time) (time.Duration, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !violating {
		t.start = time.Time{}
		t.alerting = false
		return 0, false
	}

	if t.start.IsZero() {
		t.start = now
	}
	elapsed := now.Sub(t.start)
	if elapsed >= t.hold {
		t.alerting = true
	}
	// Sticky within a violation episode: once raised, only a normal
	// observation clears it.
	return elapsed, t.alerting
}

// Alerting reports whether the alert is currently active.
func (t *AlertTracker) Alerting() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.alerting
}

// SetHold updates the hold duration. Takes effect on the next observation.
func (t *AlertTracker) SetHold(hold time.Duration) {
	t.mu.Lock()
	t.hold = hold
	t.mu.Unlock()
}

// Reset returns the tracker to its clear state.
func (t *AlertTracker) Reset() {
	t.mu.Lock()
	t.start = time.Time{}
	t.alerting = false
	t.mu.Unlock()
}
