// Package metrics exposes Prometheus collectors for HTTP traffic and the
// resource lifecycle.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "coaching_site"

// Metrics owns a private registry so tests can create as many as they like.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	operations      *prometheus.CounterVec
	fileCleanups    *prometheus.CounterVec
	orphansRemoved  *prometheus.CounterVec
	sweeps          *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resource_operations_total",
			Help:      "Lifecycle operations by resource, operation and outcome.",
		}, []string{"resource", "operation", "outcome"}),
		fileCleanups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_cleanups_total",
			Help:      "Stored file removals by resource and outcome (removed, absent, failed).",
		}, []string{"resource", "outcome"}),
		orphansRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphan_files_removed_total",
			Help:      "Unreferenced files removed by the orphan sweep.",
		}, []string{"folder"}),
		sweeps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphan_sweeps_total",
			Help:      "Orphan sweep runs by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.operations,
		m.fileCleanups,
		m.orphansRemoved,
		m.sweeps,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, status).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) Operation(resource, op, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(resource, op, outcome).Inc()
}

func (m *Metrics) FileCleanup(resource, outcome string) {
	if m == nil {
		return
	}
	m.fileCleanups.WithLabelValues(resource, outcome).Inc()
}

func (m *Metrics) OrphansRemoved(folder string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.orphansRemoved.WithLabelValues(folder).Add(float64(n))
}

func (m *Metrics) Sweep(outcome string) {
	if m == nil {
		return
	}
	m.sweeps.WithLabelValues(outcome).Inc()
}
