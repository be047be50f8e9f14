// Package web provides the real-time monitoring dashboard for crowdwatch:
// REST endpoints for state and control, a Prometheus scrape endpoint, and
// a websocket stream of session snapshots.
package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/visionops/crowdwatch/internal/log"
	"github.com/visionops/crowdwatch/internal/metrics"
	"github.com/visionops/crowdwatch/pkg/detect"
	"github.com/visionops/crowdwatch/pkg/hub"
	"github.com/visionops/crowdwatch/pkg/monitor"
)

// Server is the dashboard server.
type Server struct {
	app  *fiber.App
	addr string

	session *monitor.Session
	backend *detect.Client

	// Hubs for websocket broadcast (thread-safe!)
	statusHub *hub.Hub
	frameHub  *hub.Hub
}

// NewServer creates a dashboard server bound to the given session.
// The backend client powers the health passthrough and may be nil.
func NewServer(addr string, session *monitor.Session, backend *detect.Client, m *metrics.Metrics) *Server {
	s := &Server{
		addr:      addr,
		session:   session,
		backend:   backend,
		statusHub: hub.New("status"),
		frameHub:  hub.New("frames"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Crowdwatch Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/config", s.handleGetConfig)
	api.Post("/config", s.handleSetConfig)
	api.Post("/source/camera", s.handleUseCamera)
	api.Post("/source/image", s.handleUseImage)
	api.Post("/source/video", s.handleUseVideo)
	api.Post("/source/url", s.handleUseVideoURL)
	api.Post("/stop", s.handleStop)
	api.Get("/health", s.handleHealth)

	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/frames", websocket.New(s.handleFramesWS))

	s.app = app
	return s
}

// Start starts the dashboard server. Blocks.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.frameHub.Run()
	log.Info("dashboard listening", "addr", s.addr)
	return s.app.Listen(s.addr)
}

// StartAsync starts the dashboard server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server error", "error", err)
		}
	}()
}

// BroadcastSnapshot pushes a session snapshot to all websocket clients.
// Wire it to the session's OnUpdate callback.
func (s *Server) BroadcastSnapshot(snap monitor.Snapshot) {
	s.statusHub.BroadcastJSON(snap)
}

// BroadcastFrame pushes a sampled JPEG frame to frame subscribers.
// Wire it to the session's OnFrame callback. Skipped entirely while
// nobody is watching.
func (s *Server) BroadcastFrame(jpeg []byte) {
	if s.frameHub.ClientCount() == 0 {
		return
	}
	s.frameHub.BroadcastBinary(jpeg)
}

// App exposes the underlying fiber app, for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Shutdown gracefully stops the dashboard server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
