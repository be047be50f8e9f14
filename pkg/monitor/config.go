package monitor

import (
	"time"

	"github.com/visionops/crowdwatch/pkg/detect"
)

// Default monitoring configuration, matching the detection backend's own
// form defaults.
const (
	DefaultAreaM2          = 20.0
	DefaultWarnThreshold   = 5.0
	DefaultDangerThreshold = 6.5
	DefaultHold            = 10 * time.Second
	DefaultInterval        = 2 * time.Second
)

// Config is the caller-owned monitoring configuration. It may change
// between samples; the session reads it at the moment a request is built.
//
// Threshold ordering (warn < danger) and ROI bounds ordering are not
// validated here: the backend owns that interpretation, matching the
// reference behavior.
type Config struct {
	// ROIEnabled controls whether the crop bounds are sent at all.
	ROIEnabled bool

	// ROI percentage bounds of the full frame (0-100).
	ROIX0, ROIY0, ROIX1, ROIY1 float64

	// AreaM2 is the monitored area in square meters.
	AreaM2 float64

	// WarnThreshold and DangerThreshold in people/m².
	WarnThreshold   float64
	DangerThreshold float64

	// ConfThreshold is the detector confidence cutoff; zero uses the
	// backend default.
	ConfThreshold float64

	// Hold is the minimum continuous violation time before the sticky
	// alert activates.
	Hold time.Duration

	// Interval is the sampling cadence for streaming modalities.
	Interval time.Duration
}

// DefaultConfig returns the standard monitoring configuration.
func DefaultConfig() Config {
	return Config{
		ROIX0: 0, ROIY0: 0, ROIX1: 100, ROIY1: 100,
		AreaM2:          DefaultAreaM2,
		WarnThreshold:   DefaultWarnThreshold,
		DangerThreshold: DefaultDangerThreshold,
		Hold:            DefaultHold,
		Interval:        DefaultInterval,
	}
}

// Params snapshots the request-relevant fields for one detection call.
func (c Config) Params() detect.Params {
	return detect.Params{
		AreaM2:          c.AreaM2,
		WarnThreshold:   c.WarnThreshold,
		DangerThreshold: c.DangerThreshold,
		ConfThreshold:   c.ConfThreshold,
		ROIEnabled:      c.ROIEnabled,
		ROIX0:           c.ROIX0,
		ROIY0:           c.ROIY0,
		ROIX1:           c.ROIX1,
		ROIY1:           c.ROIY1,
	}
}
