// Package metrics tracks sampling and detection counters for crowdwatch
// and exposes them through a dedicated Prometheus registry.
package metrics

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all application metrics.
type Metrics struct {
	// Sampling counters
	SamplesTaken  atomic.Uint64
	CyclesSkipped atomic.Uint64 // capture/encode unavailable, stale generation

	// Detection counters
	DetectSuccess atomic.Uint64
	DetectFailure atomic.Uint64

	// Alerting
	AlertsRaised atomic.Uint64

	// Latest observations
	DetectLatencyMs atomic.Uint64
	PersonCount     atomic.Uint64

	registry *prometheus.Registry
}

// New creates a new Metrics instance with Prometheus collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.registerPrometheusMetrics()
	return m
}

func (m *Metrics) registerPrometheusMetrics() {
	counters := []struct {
		name string
		help string
		load func() uint64
	}{
		{"crowdwatch_samples_total", "Total frames sampled from the active source", m.SamplesTaken.Load},
		{"crowdwatch_cycles_skipped_total", "Sampling cycles skipped before a detection request was sent", m.CyclesSkipped.Load},
		{"crowdwatch_detect_success_total", "Detection requests that returned a usable result", m.DetectSuccess.Load},
		{"crowdwatch_detect_failure_total", "Detection requests that failed (transport or non-2xx)", m.DetectFailure.Load},
		{"crowdwatch_alerts_raised_total", "Times the debounced alert transitioned to active", m.AlertsRaised.Load},
		{"crowdwatch_detect_latency_ms", "Latency of the most recent detection request in milliseconds", m.DetectLatencyMs.Load},
		{"crowdwatch_person_count", "Person count from the most recent detection result", m.PersonCount.Load},
	}

	for _, c := range counters {
		load := c.load
		m.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{Name: c.name, Help: c.help},
			func() float64 { return float64(load()) },
		))
	}
}

// Handler returns an HTTP handler serving the Prometheus scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
