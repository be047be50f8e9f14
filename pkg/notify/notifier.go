// Package notify posts sustained-alert events to a configured webhook so
// downstream automation (messaging, incident tooling) can pick them up.
// The automation pipeline itself is external; only the outbound contract
// lives here.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/visionops/crowdwatch/internal/httpc"
	"github.com/visionops/crowdwatch/internal/log"
	"github.com/visionops/crowdwatch/pkg/monitor"
)

// DefaultCooldown throttles repeat notifications for a sustained alert.
const DefaultCooldown = 60 * time.Second

// Sentinel errors.
var (
	// ErrDisabled is returned when no webhook URL is configured.
	ErrDisabled = errors.New("notify: webhook disabled")

	// ErrCooldown is returned when a notification is suppressed by the
	// cooldown window.
	ErrCooldown = errors.New("notify: cooling down")
)

// Dimensions mirrors the frame size block of the webhook payload.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Payload is the webhook body sent for one alert event.
type Payload struct {
	Timestamp       string     `json:"timestamp"`
	AlertType       string     `json:"alert_type"`
	ShouldNotify    bool       `json:"should_notify"`
	PersonCount     int        `json:"person_count"`
	Density         float64    `json:"density"`
	DensityUnit     string     `json:"density_unit"`
	ROIAreaM2       float64    `json:"roi_area_m2"`
	WarnThreshold   float64    `json:"warn_threshold"`
	DangerThreshold float64    `json:"danger_threshold"`
	Message         string     `json:"message"`
	ImageDimensions Dimensions `json:"image_dimensions"`
	DetectionCount  int        `json:"detection_count"`
	SecondsOver     float64    `json:"seconds_over_threshold"`
}

// Notifier sends alert webhooks with a cooldown between sends.
// Safe for concurrent use.
type Notifier struct {
	url      string
	cooldown time.Duration
	http     *http.Client
	now      func() time.Time

	mu       sync.Mutex
	lastSent time.Time
	inFlight bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithCooldown overrides the default cooldown window.
func WithCooldown(d time.Duration) Option {
	return func(n *Notifier) { n.cooldown = d }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(n *Notifier) { n.http = c }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(n *Notifier) { n.now = now }
}

// New creates a notifier for the given webhook URL. An empty URL disables
// notification.
func New(url string, opts ...Option) *Notifier {
	n := &Notifier{
		url:      url,
		cooldown: DefaultCooldown,
		http:     httpc.NewClient(5 * time.Second),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Notify sends a webhook for the given snapshot if its alert flag is set
// and the cooldown window has passed. Non-alert snapshots are a no-op.
func (n *Notifier) Notify(ctx context.Context, snap monitor.Snapshot, cfg monitor.Config) error {
	if !snap.ShowAlert {
		return nil
	}
	if n.url == "" {
		return ErrDisabled
	}

	// One send at a time. A second alert arriving while a webhook is
	// still in flight is suppressed, otherwise both would pass the
	// cooldown check before either arms it.
	n.mu.Lock()
	if n.inFlight {
		n.mu.Unlock()
		return ErrCooldown
	}
	if !n.lastSent.IsZero() && n.now().Sub(n.lastSent) < n.cooldown {
		n.mu.Unlock()
		return ErrCooldown
	}
	n.inFlight = true
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		n.inFlight = false
		n.mu.Unlock()
	}()

	payload := Payload{
		Timestamp:       n.now().Format(time.RFC3339),
		AlertType:       string(snap.Status),
		ShouldNotify:    true,
		PersonCount:     snap.PersonCount,
		Density:         snap.Density,
		DensityUnit:     "people/m²",
		ROIAreaM2:       cfg.AreaM2,
		WarnThreshold:   cfg.WarnThreshold,
		DangerThreshold: cfg.DangerThreshold,
		Message:         snap.Message,
		ImageDimensions: Dimensions{Width: snap.ImageWidth, Height: snap.ImageHeight},
		DetectionCount:  len(snap.BoundingBoxes),
		SecondsOver:     snap.SecondsOver,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("notify: webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify: webhook returned %d", resp.StatusCode)
	}

	// Cooldown starts only on a delivered notification.
	n.mu.Lock()
	n.lastSent = n.now()
	n.mu.Unlock()

	log.Info("alert webhook sent", "alert_type", snap.Status, "persons", snap.PersonCount)
	return nil
}
