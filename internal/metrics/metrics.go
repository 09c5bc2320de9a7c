// Package metrics exposes Prometheus instrumentation for the sync core.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "apostol"

// Result labels
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultDropped = "dropped"
	ResultOffline = "offline"
	ResultCurrent = "current"
	ResultStale   = "stale"
	ResultError   = "error"
	ResultCached  = "cached"
)

type Metrics struct {
	registry *prometheus.Registry

	syncPasses     *prometheus.CounterVec
	syncDuration   prometheus.Histogram
	versionChecks  *prometheus.CounterVec
	imageDownloads *prometheus.CounterVec
	online         prometheus.Gauge
	transitions    prometheus.Counter
	published      *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		syncPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_passes_total",
			Help:      "Sync pass attempts by result.",
		}, []string{"result"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_pass_duration_seconds",
			Help:      "Duration of completed sync passes.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		versionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "version_checks_total",
			Help:      "Version checks by outcome.",
		}, []string{"result"}),
		imageDownloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_downloads_total",
			Help:      "Image cache lookups by result.",
		}, []string{"result"}),
		online: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "online",
			Help:      "1 when the connectivity monitor reports online.",
		}),
		transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connectivity_transitions_total",
			Help:      "Online/offline transitions observed.",
		}),
		published: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published_items",
			Help:      "Items currently published per collection.",
		}, []string{"collection"}),
	}

	m.registry.MustRegister(
		m.syncPasses,
		m.syncDuration,
		m.versionChecks,
		m.imageDownloads,
		m.online,
		m.transitions,
		m.published,
	)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) SyncPass(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.syncPasses.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		m.syncDuration.Observe(took.Seconds())
	}
}

func (m *Metrics) VersionCheck(result string) {
	if m == nil {
		return
	}
	m.versionChecks.WithLabelValues(result).Inc()
}

func (m *Metrics) ImageDownload(result string) {
	if m == nil {
		return
	}
	m.imageDownloads.WithLabelValues(result).Inc()
}

func (m *Metrics) Connectivity(online bool) {
	if m == nil {
		return
	}
	m.transitions.Inc()
	if online {
		m.online.Set(1)
	} else {
		m.online.Set(0)
	}
}

func (m *Metrics) Published(collection string, n int) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(collection).Set(float64(n))
}
