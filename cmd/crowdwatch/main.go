// Crowdwatch is a real-time crowd density monitoring client. It samples
// frames from a camera, image, video file, or remote video URL, submits
// them to the detection backend, and serves a dashboard with a debounced
// alert state.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/visionops/crowdwatch/internal/config"
	"github.com/visionops/crowdwatch/internal/log"
	"github.com/visionops/crowdwatch/internal/metrics"
	"github.com/visionops/crowdwatch/pkg/detect"
	"github.com/visionops/crowdwatch/pkg/monitor"
	"github.com/visionops/crowdwatch/pkg/notify"
	"github.com/visionops/crowdwatch/pkg/web"
)

func main() {
	var (
		listenAddr = flag.String("listen", config.ListenAddr(), "dashboard listen address")
		apiBase    = flag.String("api", "", "detection backend base URL (overrides origin derivation)")
		origin     = flag.String("origin", config.Origin(), "deploy origin the dashboard is served from; the backend URL is derived from it")
		webhookURL = flag.String("webhook", config.WebhookURL(), "alert webhook URL (empty disables)")
		cooldown   = flag.Duration("cooldown", notify.DefaultCooldown, "minimum time between alert webhooks")
		interval   = flag.Duration("interval", monitor.DefaultInterval, "sampling interval for streaming sources")
		hold       = flag.Duration("hold", monitor.DefaultHold, "continuous violation time before the alert fires")
		area       = flag.Float64("area", monitor.DefaultAreaM2, "monitored area in square meters")
		warn       = flag.Float64("warn", monitor.DefaultWarnThreshold, "warning density threshold (people/m²)")
		danger     = flag.Float64("danger", monitor.DefaultDangerThreshold, "danger density threshold (people/m²)")
		camera     = flag.Int("camera", -1, "start with this camera device index")
		imagePath  = flag.String("image", "", "start with a single detection pass on this image")
		videoPath  = flag.String("video", "", "start with playback of this video file")
		videoURL   = flag.String("url", "", "start with playback of this video URL")
		logLevel   = flag.String("log", "info", "log level: debug, info, warn, error")
	)
	flag.Parse()

	log.Init(*logLevel)

	// Precedence: explicit -api, then CROWDWATCH_API, then the base
	// derived from the deploy origin, then the local default.
	base := *apiBase
	if base == "" {
		def := config.DefaultLocalAPIBase
		if *origin != "" {
			def = config.ResolveAPIBase(*origin)
		}
		base = config.APIBase(def)
	}

	backend, err := detect.NewClient(base)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if h, err := backend.Health(ctx); err != nil {
		log.Warn("detection backend unreachable, continuing anyway", "api", base, "error", err)
	} else {
		log.Info("detection backend ready", "service", h.Service, "version", h.Version, "model_loaded", h.ModelLoaded)
	}
	cancel()

	cfg := monitor.DefaultConfig()
	cfg.Interval = *interval
	cfg.Hold = *hold
	cfg.AreaM2 = *area
	cfg.WarnThreshold = *warn
	cfg.DangerThreshold = *danger

	m := metrics.New()
	session := monitor.NewSession(backend, cfg, monitor.WithMetrics(m))
	notifier := notify.New(*webhookURL, notify.WithCooldown(*cooldown))
	server := web.NewServer(*listenAddr, session, backend, m)

	session.OnUpdate = func(snap monitor.Snapshot) {
		server.BroadcastSnapshot(snap)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			err := notifier.Notify(ctx, snap, session.Config())
			if err != nil && !errors.Is(err, notify.ErrCooldown) && !errors.Is(err, notify.ErrDisabled) {
				log.Warn("alert webhook failed", "error", err)
			}
		}()
	}
	session.OnFrame = server.BroadcastFrame

	// Optional initial modality from flags
	switch {
	case *camera >= 0:
		if err := session.UseCamera(*camera); err != nil {
			log.Error("camera activation failed", "device", *camera, "error", err)
		}
	case *imagePath != "":
		if err := session.UseImage(*imagePath); err != nil {
			log.Error("image activation failed", "path", *imagePath, "error", err)
		}
	case *videoPath != "":
		if err := session.UseVideoFile(*videoPath); err != nil {
			log.Error("video activation failed", "path", *videoPath, "error", err)
		}
	case *videoURL != "":
		if err := session.UseVideoURL(*videoURL); err != nil {
			log.Error("video URL activation failed", "url", *videoURL, "error", err)
		}
	}

	server.StartAsync()
	log.Info("crowdwatch running", "session", session.ID(), "listen", *listenAddr, "api", base)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	session.Stop()
	if err := server.Shutdown(); err != nil {
		log.Error("dashboard shutdown failed", "error", err)
	}
}
