package web

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/visionops/crowdwatch/pkg/hub"
	"github.com/visionops/crowdwatch/pkg/monitor"
	"github.com/visionops/crowdwatch/pkg/source"
)

// configPayload is the wire form of the monitoring configuration, with
// durations in human units.
type configPayload struct {
	ROIEnabled      bool    `json:"roi_enabled"`
	ROIX0           float64 `json:"roi_x0"`
	ROIY0           float64 `json:"roi_y0"`
	ROIX1           float64 `json:"roi_x1"`
	ROIY1           float64 `json:"roi_y1"`
	AreaM2          float64 `json:"roi_area_m2"`
	WarnThreshold   float64 `json:"density_warn"`
	DangerThreshold float64 `json:"density_danger"`
	ConfThreshold   float64 `json:"conf_threshold"`
	HoldSeconds     float64 `json:"alert_hold_seconds"`
	IntervalMs      float64 `json:"sample_interval_ms"`
}

func toPayload(cfg monitor.Config) configPayload {
	return configPayload{
		ROIEnabled:      cfg.ROIEnabled,
		ROIX0:           cfg.ROIX0,
		ROIY0:           cfg.ROIY0,
		ROIX1:           cfg.ROIX1,
		ROIY1:           cfg.ROIY1,
		AreaM2:          cfg.AreaM2,
		WarnThreshold:   cfg.WarnThreshold,
		DangerThreshold: cfg.DangerThreshold,
		ConfThreshold:   cfg.ConfThreshold,
		HoldSeconds:     cfg.Hold.Seconds(),
		IntervalMs:      float64(cfg.Interval.Milliseconds()),
	}
}

func (p configPayload) toConfig() monitor.Config {
	return monitor.Config{
		ROIEnabled:      p.ROIEnabled,
		ROIX0:           p.ROIX0,
		ROIY0:           p.ROIY0,
		ROIX1:           p.ROIX1,
		ROIY1:           p.ROIY1,
		AreaM2:          p.AreaM2,
		WarnThreshold:   p.WarnThreshold,
		DangerThreshold: p.DangerThreshold,
		ConfThreshold:   p.ConfThreshold,
		Hold:            time.Duration(p.HoldSeconds * float64(time.Second)),
		Interval:        time.Duration(p.IntervalMs * float64(time.Millisecond)),
	}
}

// handleStatus returns the current session snapshot.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.session.Snapshot())
}

// handleGetConfig returns the monitoring configuration.
func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	return c.JSON(toPayload(s.session.Config()))
}

// handleSetConfig replaces the monitoring configuration.
func (s *Server) handleSetConfig(c *fiber.Ctx) error {
	var p configPayload
	if err := c.BodyParser(&p); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid config body"})
	}
	s.session.SetConfig(p.toConfig())
	return c.JSON(toPayload(s.session.Config()))
}

type cameraRequest struct {
	Device int `json:"device"`
}

func (s *Server) handleUseCamera(c *fiber.Ctx) error {
	var req cameraRequest
	c.BodyParser(&req) // zero device is a valid default
	return s.switchResult(c, s.session.UseCamera(req.Device))
}

type pathRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleUseImage(c *fiber.Ctx) error {
	var req pathRequest
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path required"})
	}
	return s.switchResult(c, s.session.UseImage(req.Path))
}

func (s *Server) handleUseVideo(c *fiber.Ctx) error {
	var req pathRequest
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "path required"})
	}
	return s.switchResult(c, s.session.UseVideoFile(req.Path))
}

type urlRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleUseVideoURL(c *fiber.Ctx) error {
	var req urlRequest
	if err := c.BodyParser(&req); err != nil || req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url required"})
	}
	return s.switchResult(c, s.session.UseVideoURL(req.URL))
}

// switchResult maps modality activation outcomes onto responses with
// actionable guidance for the operator.
func (s *Server) switchResult(c *fiber.Ctx, err error) error {
	switch {
	case err == nil:
		return c.JSON(s.session.Snapshot())
	case errors.Is(err, source.ErrDeviceAccess):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "camera unavailable: check device index and permissions",
		})
	case errors.Is(err, source.ErrMediaLoad):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "media could not be loaded: check the path/URL and codec",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// handleStop tears down the active source and resets the session.
func (s *Server) handleStop(c *fiber.Ctx) error {
	s.session.Stop()
	return c.JSON(s.session.Snapshot())
}

// handleHealth proxies the detection backend health probe.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	if s.backend == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "backend not configured"})
	}
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()
	h, err := s.backend.Health(ctx)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(h)
}

// handleStatusWS streams session snapshots to a websocket client.
func (s *Server) handleStatusWS(conn *websocket.Conn) {
	client := hub.NewClient(s.statusHub, conn)
	client.Run()
}

// handleFramesWS streams sampled JPEG frames to a websocket client.
func (s *Server) handleFramesWS(conn *websocket.Conn) {
	client := hub.NewClient(s.frameHub, conn)
	client.Run()
}
