// Package metrics exposes Prometheus instrumentation for the relay.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the relay's Prometheus metrics. A nil *Collector is
// valid and drops every observation, so instrumentation points never
// need to guard.
type Collector struct {
	registry *prometheus.Registry

	accepted          prometheus.Counter
	verified          prometheus.Counter
	admissionFailures *prometheus.CounterVec
	splicesCompleted  prometheus.Counter
	bytesToBackend    prometheus.Counter
	bytesToOverlay    prometheus.Counter
}

// NewCollector creates a collector registered on its own registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eepproxy_connections_accepted_total",
			Help: "Overlay streams accepted by the listener.",
		}),
		verified: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eepproxy_admissions_verified_total",
			Help: "Streams whose witness verified and were promoted.",
		}),
		admissionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "eepproxy_admission_failures_total",
			Help: "Admission handshake failures by kind.",
		}, []string{"kind"}),
		splicesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eepproxy_splices_completed_total",
			Help: "Bidirectional splices that ran to completion.",
		}),
		bytesToBackend: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eepproxy_bytes_to_backend_total",
			Help: "Bytes copied from the overlay to the backend.",
		}),
		bytesToOverlay: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "eepproxy_bytes_to_overlay_total",
			Help: "Bytes copied from the backend to the overlay.",
		}),
	}

	registry.MustRegister(
		c.accepted,
		c.verified,
		c.admissionFailures,
		c.splicesCompleted,
		c.bytesToBackend,
		c.bytesToOverlay,
	)
	return c
}

// Handler returns an HTTP handler serving the registry.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry returns the collector's registry, for tests.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ConnectionAccepted records an accepted overlay stream.
func (c *Collector) ConnectionAccepted() {
	if c != nil {
		c.accepted.Inc()
	}
}

// AdmissionVerified records a successful handshake.
func (c *Collector) AdmissionVerified() {
	if c != nil {
		c.verified.Inc()
	}
}

// AdmissionFailed records a failed handshake by kind (e.g. "prelude",
// "await-witness", "verification").
func (c *Collector) AdmissionFailed(kind string) {
	if c != nil {
		c.admissionFailures.WithLabelValues(kind).Inc()
	}
}

// SpliceCompleted records a finished splice with its byte counts.
func (c *Collector) SpliceCompleted(toBackend, toOverlay int64) {
	if c == nil {
		return
	}
	c.splicesCompleted.Inc()
	c.bytesToBackend.Add(float64(toBackend))
	c.bytesToOverlay.Add(float64(toOverlay))
}
