package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/visionops/crowdwatch/pkg/detect"
	"github.com/visionops/crowdwatch/pkg/monitor"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func alertSnapshot() monitor.Snapshot {
	return monitor.Snapshot{
		Status:      detect.StatusDanger,
		PersonCount: 25,
		Density:     5.5,
		ShowAlert:   true,
		SecondsOver: 12,
		ImageWidth:  1280,
		ImageHeight: 720,
		Message:     "density 5.50 people/m²",
	}
}

func TestNotify_SendsPayload(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
	}))
	defer srv.Close()

	n := New(srv.URL)
	cfg := monitor.DefaultConfig()
	if err := n.Notify(context.Background(), alertSnapshot(), cfg); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if got.AlertType != "danger" || got.PersonCount != 25 || !got.ShouldNotify {
		t.Errorf("payload: got %+v", got)
	}
	if got.WarnThreshold != cfg.WarnThreshold || got.DangerThreshold != cfg.DangerThreshold {
		t.Errorf("thresholds: got %v/%v", got.WarnThreshold, got.DangerThreshold)
	}
	if got.ImageDimensions.Width != 1280 || got.ImageDimensions.Height != 720 {
		t.Errorf("dimensions: got %+v", got.ImageDimensions)
	}
}

func TestNotify_CooldownSuppressesRepeats(t *testing.T) {
	var posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts++
	}))
	defer srv.Close()

	clock := newFakeClock()
	n := New(srv.URL, WithClock(clock.Now), WithCooldown(60*time.Second))
	cfg := monitor.DefaultConfig()

	if err := n.Notify(context.Background(), alertSnapshot(), cfg); err != nil {
		t.Fatalf("first notify: %v", err)
	}

	clock.Advance(30 * time.Second)
	if err := n.Notify(context.Background(), alertSnapshot(), cfg); !errors.Is(err, ErrCooldown) {
		t.Errorf("within cooldown: got %v, want ErrCooldown", err)
	}

	clock.Advance(31 * time.Second)
	if err := n.Notify(context.Background(), alertSnapshot(), cfg); err != nil {
		t.Errorf("after cooldown: %v", err)
	}

	if posts != 2 {
		t.Errorf("posts: got %d, want 2", posts)
	}
}

func TestNotify_ConcurrentAlertsProduceOnePost(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var posts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
		entered <- struct{}{}
		<-release
	}))
	defer srv.Close()

	n := New(srv.URL)
	cfg := monitor.DefaultConfig()

	errCh := make(chan error, 1)
	go func() { errCh <- n.Notify(context.Background(), alertSnapshot(), cfg) }()
	<-entered

	// A second alert while the first delivery is still in flight must
	// not reach the webhook.
	if err := n.Notify(context.Background(), alertSnapshot(), cfg); !errors.Is(err, ErrCooldown) {
		t.Errorf("during in-flight delivery: got %v, want ErrCooldown", err)
	}

	close(release)
	if err := <-errCh; err != nil {
		t.Fatalf("first notify: %v", err)
	}
	if got := atomic.LoadInt32(&posts); got != 1 {
		t.Errorf("posts: got %d, want 1", got)
	}
}

func TestNotify_NonAlertSnapshotIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected webhook post")
	}))
	defer srv.Close()

	n := New(srv.URL)
	snap := alertSnapshot()
	snap.ShowAlert = false
	if err := n.Notify(context.Background(), snap, monitor.DefaultConfig()); err != nil {
		t.Errorf("Notify: %v", err)
	}
}

func TestNotify_DisabledWithoutURL(t *testing.T) {
	n := New("")
	if err := n.Notify(context.Background(), alertSnapshot(), monitor.DefaultConfig()); !errors.Is(err, ErrDisabled) {
		t.Errorf("got %v, want ErrDisabled", err)
	}
}

func TestNotify_FailedDeliveryDoesNotStartCooldown(t *testing.T) {
	var posts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		posts++
		if posts == 1 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	clock := newFakeClock()
	n := New(srv.URL, WithClock(clock.Now))
	cfg := monitor.DefaultConfig()

	if err := n.Notify(context.Background(), alertSnapshot(), cfg); err == nil {
		t.Fatal("expected delivery error")
	}

	// The failed attempt must not arm the cooldown.
	clock.Advance(time.Second)
	if err := n.Notify(context.Background(), alertSnapshot(), cfg); err != nil {
		t.Errorf("retry: %v", err)
	}
	if posts != 2 {
		t.Errorf("posts: got %d, want 2", posts)
	}
}
