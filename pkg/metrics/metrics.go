// Package metrics exposes Prometheus counters for scans, activations and
// downloads. A nil *Collector is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "weibodl"

// Collector wraps the Prometheus metrics of one process
type Collector struct {
	registry *prometheus.Registry

	Scans            prometheus.Counter
	ControlsAttached prometheus.Counter
	Activations      *prometheus.CounterVec
	ActiveActivation prometheus.Gauge
	FetchErrors      *prometheus.CounterVec
	AssetsResolved   *prometheus.CounterVec
	DownloadAttempts *prometheus.CounterVec
	Downloads        *prometheus.CounterVec
	DownloadDuration *prometheus.HistogramVec
}

// NewCollector creates a Collector with its own registry
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		Scans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Total number of feed scan passes",
		}),
		ControlsAttached: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "controls_attached_total",
			Help:      "Total number of download controls attached to posts",
		}),
		Activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Total number of post activations by outcome",
		}, []string{"status"}),
		ActiveActivation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_activations",
			Help:      "Number of activations currently in flight",
		}),
		FetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Total number of failed metadata fetches by error type",
		}, []string{"type"}),
		AssetsResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_resolved_total",
			Help:      "Total number of resolved assets by branch and kind",
		}, []string{"branch", "kind"}),
		DownloadAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "download_attempts_total",
			Help:      "Total number of save attempts by asset kind",
		}, []string{"kind"}),
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downloads_total",
			Help:      "Total number of finished downloads by asset kind and status",
		}, []string{"kind", "status"}),
		DownloadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Duration of downloads including retries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
	}

	reg.MustRegister(
		c.Scans,
		c.ControlsAttached,
		c.Activations,
		c.ActiveActivation,
		c.FetchErrors,
		c.AssetsResolved,
		c.DownloadAttempts,
		c.Downloads,
		c.DownloadDuration,
	)

	return c
}

// Registry returns the collector's registry
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// Handler returns an HTTP handler that serves the metrics
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordScan records one scan pass and the controls it attached
func (c *Collector) RecordScan(attached int) {
	if c == nil {
		return
	}
	c.Scans.Inc()
	c.ControlsAttached.Add(float64(attached))
}

// ActivationStarted increments the in-flight gauge
func (c *Collector) ActivationStarted() {
	if c == nil {
		return
	}
	c.ActiveActivation.Inc()
}

// ActivationFinished decrements the in-flight gauge and counts the outcome
func (c *Collector) ActivationFinished(status string) {
	if c == nil {
		return
	}
	c.ActiveActivation.Dec()
	c.Activations.WithLabelValues(status).Inc()
}

// RecordActivation counts an activation that never went in flight
func (c *Collector) RecordActivation(status string) {
	if c == nil {
		return
	}
	c.Activations.WithLabelValues(status).Inc()
}

// RecordFetchError counts a failed metadata fetch
func (c *Collector) RecordFetchError(errorType string) {
	if c == nil {
		return
	}
	c.FetchErrors.WithLabelValues(errorType).Inc()
}

// RecordAsset counts a resolved asset
func (c *Collector) RecordAsset(branch, kind string) {
	if c == nil {
		return
	}
	c.AssetsResolved.WithLabelValues(branch, kind).Inc()
}

// RecordAttempt counts one save attempt
func (c *Collector) RecordAttempt(kind string) {
	if c == nil {
		return
	}
	c.DownloadAttempts.WithLabelValues(kind).Inc()
}

// RecordDownload counts a finished download
func (c *Collector) RecordDownload(kind, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.Downloads.WithLabelValues(kind, status).Inc()
	c.DownloadDuration.WithLabelValues(kind).Observe(duration.Seconds())
}
