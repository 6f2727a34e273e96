// Package telemetry wires Prometheus instrumentation for the service:
// request-level metrics recorded by the HTTP chassis and delivery/tick
// metrics recorded by the scheduler.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's Prometheus collectors on a dedicated
// registry so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	ticksTotal      *prometheus.CounterVec
	deliveriesTotal *prometheus.CounterVec
	activeJobs      prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "weatherwatch",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method, route, and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		ticksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherwatch",
			Name:      "scheduler_ticks_total",
			Help:      "Scheduled evaluation ticks by result.",
		}, []string{"result"}),
		deliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weatherwatch",
			Name:      "push_deliveries_total",
			Help:      "Push delivery attempts by classified outcome.",
		}, []string{"outcome"}),
		activeJobs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "weatherwatch",
			Name:      "scheduler_active_jobs",
			Help:      "Number of live recurring subscriber jobs.",
		}),
	}

	reg.MustRegister(m.requestDuration, m.ticksTotal, m.deliveriesTotal, m.activeJobs)
	return m
}

// Handler exposes the registry for a /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records one HTTP request.
func (m *Metrics) RecordRequest(method, route, status string, d time.Duration) {
	m.requestDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}

// RecordTick records the result of one scheduled evaluation tick.
func (m *Metrics) RecordTick(result string) {
	m.ticksTotal.WithLabelValues(result).Inc()
}

// RecordDelivery records one classified push delivery outcome.
func (m *Metrics) RecordDelivery(outcome string) {
	m.deliveriesTotal.WithLabelValues(outcome).Inc()
}

// SetActiveJobs updates the live job gauge.
func (m *Metrics) SetActiveJobs(n int) {
	m.activeJobs.Set(float64(n))
}
