package monitor

import (
	"testing"
	"time"
)

func TestAlertTracker_HoldScenario(t *testing.T) {
	// Statuses [warning, warning, warning, normal] at t=0,1,2,3s with a
	// 2s hold: alert fires on the third observation, normal clears it.
	tr := NewAlertTracker(2 * time.Second)
	t0 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	steps := []struct {
		at          time.Duration
		violating   bool
		wantSeconds float64
		wantAlert   bool
	}{
		{0, true, 0, false},
		{1 * time.Second, true, 1, false},
		{2 * time.Second, true, 2, true},
		{3 * time.Second, false, 0, false},
	}

	for i, step := range steps {
		elapsed, alerting := tr.Observe(step.violating, t0.Add(step.at))
		if elapsed.Seconds() != step.wantSeconds {
			t.Errorf("step %d: elapsed %v, want %vs", i, elapsed, step.wantSeconds)
		}
		if alerting != step.wantAlert {
			t.Errorf("step %d: alerting %v, want %v", i, alerting, step.wantAlert)
		}
	}
}

func TestAlertTracker_ContinuousViolation(t *testing.T) {
	// With a 5s hold, the alert is false for every observation below 5s
	// elapsed and true from the first at or above it.
	tr := NewAlertTracker(5 * time.Second)
	t0 := time.Now()

	for i := 0; i <= 8; i++ {
		elapsed, alerting := tr.Observe(true, t0.Add(time.Duration(i)*time.Second))
		want := elapsed >= 5*time.Second
		if alerting != want {
			t.Errorf("at %ds: alerting %v, want %v", i, alerting, want)
		}
	}
}

func TestAlertTracker_NormalResetsEpisode(t *testing.T) {
	tr := NewAlertTracker(5 * time.Second)
	t0 := time.Now()

	tr.Observe(true, t0)
	tr.Observe(true, t0.Add(6*time.Second))
	if !tr.Alerting() {
		t.Fatal("expected alert after 6s of violation")
	}

	// One normal result clears everything.
	elapsed, alerting := tr.Observe(false, t0.Add(7*time.Second))
	if elapsed != 0 || alerting {
		t.Errorf("after normal: elapsed=%v alerting=%v, want 0/false", elapsed, alerting)
	}

	// A new violation starts a fresh episode from zero.
	elapsed, alerting = tr.Observe(true, t0.Add(8*time.Second))
	if elapsed != 0 || alerting {
		t.Errorf("new episode: elapsed=%v alerting=%v, want 0/false", elapsed, alerting)
	}
}

func TestAlertTracker_Reset(t *testing.T) {
	tr := NewAlertTracker(time.Second)
	t0 := time.Now()
	tr.Observe(true, t0)
	tr.Observe(true, t0.Add(2*time.Second))
	if !tr.Alerting() {
		t.Fatal("expected alerting")
	}

	tr.Reset()
	if tr.Alerting() {
		t.Error("expected clear after Reset")
	}
	if elapsed, _ := tr.Observe(true, t0.Add(3*time.Second)); elapsed != 0 {
		t.Errorf("elapsed after reset: got %v, want 0", elapsed)
	}
}

func TestAlertTracker_SetHold(t *testing.T) {
	tr := NewAlertTracker(10 * time.Second)
	t0 := time.Now()
	tr.Observe(true, t0)

	tr.SetHold(2 * time.Second)
	if _, alerting := tr.Observe(true, t0.Add(3*time.Second)); !alerting {
		t.Error("expected alert with shortened hold")
	}
}
