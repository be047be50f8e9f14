// Package monitor implements the crowdwatch sampling-and-alert state
// machine: the session controller that owns the active capture source,
// the periodic sampling loop, and the debounced alert tracker.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/visionops/crowdwatch/internal/log"
	"github.com/visionops/crowdwatch/internal/metrics"
	"github.com/visionops/crowdwatch/pkg/detect"
	"github.com/visionops/crowdwatch/pkg/source"
)

// Modality is the active input source type.
type Modality string

const (
	ModalityNone     Modality = "none"
	ModalityCamera   Modality = "camera"
	ModalityImage    Modality = "uploaded-image"
	ModalityVideo    Modality = "uploaded-video"
	ModalityVideoURL Modality = "video-url"
)

// Detector abstracts the detection backend for the session.
// *detect.Client satisfies it.
type Detector interface {
	Detect(ctx context.Context, jpeg []byte, p detect.Params) (*detect.Result, error)
}

// Snapshot is a read-only copy of the session state, exposed to
// presentation and notification.
type Snapshot struct {
	SessionID     string               `json:"session_id"`
	Modality      Modality             `json:"modality"`
	Streaming     bool                 `json:"is_streaming"`
	Playing       bool                 `json:"is_playing_video"`
	PersonCount   int                  `json:"person_count"`
	Density       float64              `json:"density"`
	Status        detect.Status        `json:"status"`
	Ratio         float64              `json:"ratio"`
	BoundingBoxes []detect.BoundingBox `json:"bounding_boxes"`
	ImageWidth    int                  `json:"image_width"`
	ImageHeight   int                  `json:"image_height"`
	SecondsOver   float64              `json:"seconds_over_threshold"`
	ShowAlert     bool                 `json:"show_alert"`
	Message       string               `json:"message"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// Session is the controller orchestrating capture, detection, and
// alerting. At most one source and one sampling loop are active at any
// time; switching modality always tears the previous one down first.
type Session struct {
	detector Detector
	metrics  *metrics.Metrics
	now      func() time.Time

	// OnUpdate fires with a snapshot after each applied detection
	// result. Invoked outside the session lock.
	OnUpdate func(Snapshot)

	// OnFrame fires with the JPEG of each captured sample, before the
	// detection request. Invoked outside the session lock.
	OnFrame func([]byte)

	mu         sync.Mutex
	id         string
	cfg        Config
	src        source.Source
	generation uint64 // bumped on every teardown; stale cycles check it
	stopCh     chan struct{}
	tracker    *AlertTracker
	state      Snapshot
}

// Option configures a Session.
type Option func(*Session)

// WithMetrics attaches a metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession creates an idle session with the given backend client and
// monitoring configuration.
func NewSession(detector Detector, cfg Config, opts ...Option) *Session {
	s := &Session{
		detector: detector,
		now:      time.Now,
		id:       uuid.NewString(),
		cfg:      cfg,
		tracker:  NewAlertTracker(cfg.Hold),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state = s.zeroState()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Config returns the current monitoring configuration.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig replaces the monitoring configuration. Threshold and ROI
// changes apply from the next sample; an interval change applies from the
// next modality activation.
func (s *Session) SetConfig(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.tracker.SetHold(cfg.Hold)
	s.mu.Unlock()
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// UseCamera switches to the live camera modality on the given device.
func (s *Session) UseCamera(device int) error {
	return s.activate(ModalityCamera, source.NewCamera(device), true)
}

// UseImage switches to the still-image modality and runs exactly one
// detection pass; no sampling loop is scheduled.
func (s *Session) UseImage(path string) error {
	return s.activate(ModalityImage, source.NewImageFile(path), false)
}

// UseVideoFile switches to playback of a local video file.
func (s *Session) UseVideoFile(path string) error {
	return s.activate(ModalityVideo, source.NewVideo(path), true)
}

// UseVideoURL switches to playback of a remote video URL.
func (s *Session) UseVideoURL(url string) error {
	return s.activate(ModalityVideoURL, source.NewVideoURL(url), true)
}

// Stop tears down the active source and sampling loop and resets the
// session state. Idempotent; always safe on shutdown.
func (s *Session) Stop() {
	s.mu.Lock()
	s.teardownLocked()
	s.resetLocked()
	s.mu.Unlock()
}

// Reset clears the displayed state and the alert tracker without
// touching the active source.
func (s *Session) Reset() {
	s.mu.Lock()
	mod, streaming, playing := s.state.Modality, s.state.Streaming, s.state.Playing
	s.resetLocked()
	s.state.Modality, s.state.Streaming, s.state.Playing = mod, streaming, playing
	s.mu.Unlock()
}

// activate performs the modality switch sequence: stop whatever is
// active, reset state, start the new adapter, then begin sampling.
func (s *Session) activate(m Modality, src source.Source, scheduled bool) error {
	s.mu.Lock()
	s.teardownLocked()
	s.resetLocked()

	if err := src.Start(); err != nil {
		s.mu.Unlock()
		log.Warn("source activation failed", "modality", m, "error", err)
		return err
	}

	s.src = src
	s.state.Modality = m
	s.state.Streaming = m == ModalityCamera
	s.state.Playing = m == ModalityVideo || m == ModalityVideoURL

	gen := s.generation
	interval := s.cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	if scheduled {
		s.stopCh = make(chan struct{})
		go s.run(gen, interval, s.stopCh)
	}
	s.mu.Unlock()

	log.Info("modality active", "session", s.id, "modality", m)

	if !scheduled {
		s.cycle(gen)
	}
	return nil
}

// run is the sampling loop: one goroutine per activation, strictly
// periodic ticks, cycles serialized within the loop.
func (s *Session) run(gen uint64, interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !s.cycle(gen) {
				return
			}
		}
	}
}

// cycle runs one capture+detect pass for the given source generation.
// Returns false when the loop should end (teardown or end of stream).
func (s *Session) cycle(gen uint64) bool {
	s.mu.Lock()
	if gen != s.generation || s.src == nil {
		s.mu.Unlock()
		return false
	}
	src := s.src
	params := s.cfg.Params()
	danger := s.cfg.DangerThreshold
	onFrame := s.OnFrame
	s.mu.Unlock()

	frame, err := src.Capture()
	if err != nil {
		if errors.Is(err, source.ErrEndOfStream) {
			log.Info("playback finished", "session", s.id)
			s.stopGeneration(gen)
			return false
		}
		// Unavailable or unencodable frame: skip silently, the next
		// tick retries.
		log.Debug("capture skipped", "error", err)
		s.countSkip()
		return true
	}

	if s.metrics != nil {
		s.metrics.SamplesTaken.Add(1)
	}
	if onFrame != nil {
		onFrame(frame.JPEG)
	}

	start := s.now()
	res, err := s.detector.Detect(context.Background(), frame.JPEG, params)
	if err != nil {
		// Recoverable by design: no state mutation, the next scheduled
		// tick is the implicit retry.
		log.Debug("detection request failed", "error", err)
		if s.metrics != nil {
			s.metrics.DetectFailure.Add(1)
		}
		return true
	}

	s.apply(gen, res, danger, s.now().Sub(start))
	return true
}

// apply folds one detection result into the session state, unless the
// source that produced it is no longer the active one. The danger
// threshold is the one the request was built with, so the gauge ratio
// stays consistent with the result even across a mid-flight config
// change.
func (s *Session) apply(gen uint64, res *detect.Result, danger float64, latency time.Duration) {
	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		s.countSkip()
		return
	}

	now := s.now()
	elapsed, alerting := s.tracker.Observe(res.Status.Violating(), now)
	wasAlerting := s.state.ShowAlert

	s.state.PersonCount = res.PersonCount
	s.state.Density = res.Density
	s.state.Status = res.Status
	s.state.Ratio = Ratio(res.Density, danger)
	s.state.BoundingBoxes = res.BoundingBoxes
	s.state.ImageWidth = res.ImageWidth
	s.state.ImageHeight = res.ImageHeight
	s.state.SecondsOver = elapsed.Seconds()
	s.state.ShowAlert = alerting
	s.state.Message = res.Message
	s.state.UpdatedAt = now

	snap := s.snapshotLocked()
	cb := s.OnUpdate
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.DetectSuccess.Add(1)
		s.metrics.DetectLatencyMs.Store(uint64(latency.Milliseconds()))
		s.metrics.PersonCount.Store(uint64(res.PersonCount))
		if alerting && !wasAlerting {
			s.metrics.AlertsRaised.Add(1)
		}
	}

	if cb != nil {
		cb(snap)
	}
}

// stopGeneration tears the session down only if the given generation is
// still the active one (end-of-stream from the sampling loop).
func (s *Session) stopGeneration(gen uint64) {
	s.mu.Lock()
	if gen == s.generation {
		s.teardownLocked()
		s.resetLocked()
	}
	s.mu.Unlock()
}

// teardownLocked stops the sampling loop and releases the active source.
// Bumping the generation first guarantees in-flight cycles are dropped.
func (s *Session) teardownLocked() {
	s.generation++
	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}
	if s.src != nil {
		s.src.Stop()
		s.src = nil
	}
}

// resetLocked returns the displayed state and the tracker to zero values.
func (s *Session) resetLocked() {
	s.tracker.Reset()
	s.state = s.zeroState()
}

func (s *Session) zeroState() Snapshot {
	return Snapshot{
		SessionID: s.id,
		Modality:  ModalityNone,
		Status:    detect.StatusNormal,
	}
}

func (s *Session) snapshotLocked() Snapshot {
	snap := s.state
	if s.state.BoundingBoxes != nil {
		snap.BoundingBoxes = make([]detect.BoundingBox, len(s.state.BoundingBoxes))
		copy(snap.BoundingBoxes, s.state.BoundingBoxes)
	}
	return snap
}

func (s *Session) countSkip() {
	if s.metrics != nil {
		s.metrics.CyclesSkipped.Add(1)
	}
}
