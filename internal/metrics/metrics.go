// Package metrics provides Prometheus metrics collection for the gateway.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fleet_gateway"

// Dispatch outcomes, used as the "outcome" label.
const (
	OutcomeDispatched   = "dispatched"
	OutcomeRejected     = "rejected"
	OutcomeNotFound     = "not_found"
	OutcomeHandlerError = "handler_error"
)

// UnmatchedRoute labels requests that resolved to no route, keeping the
// label set bounded.
const UnmatchedRoute = "unmatched"

// Collector holds all Prometheus metrics for the gateway.
type Collector struct {
	registry *prometheus.Registry

	// Dispatch metrics
	DispatchTotal    *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	InFlight         prometheus.Gauge

	// Validation metrics
	ValidationFailures *prometheus.CounterVec

	// Backend metrics
	BackendDuration *prometheus.HistogramVec
	BackendErrors   *prometheus.CounterVec
}

// New creates a collector on its own registry, with the Go runtime and
// process collectors attached.
func New() *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry creates a collector registered on reg.
func NewWithRegistry(reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		DispatchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_total",
				Help:      "Total number of requests dispatched, by route and outcome",
			},
			[]string{"route", "outcome"},
		),
		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_duration_seconds",
				Help:      "Time from route resolution to response, in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"route", "outcome"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dispatch_in_flight",
				Help:      "Number of requests currently being dispatched",
			},
		),

		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validation_failures_total",
				Help:      "Total number of field errors reported, by route and kind",
			},
			[]string{"route", "kind"},
		),

		BackendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "backend_duration_seconds",
				Help:      "Backend handler invocation duration in seconds",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"backend"},
		),
		BackendErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "backend_errors_total",
				Help:      "Total number of failed backend invocations",
			},
			[]string{"backend"},
		),
	}
}

// Registry returns the registry the collector is registered on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// RecordDispatch records a finished dispatch. A nil collector is a no-op.
func (c *Collector) RecordDispatch(route, outcome string, seconds float64) {
	if c == nil {
		return
	}
	c.DispatchTotal.WithLabelValues(route, outcome).Inc()
	c.DispatchDuration.WithLabelValues(route, outcome).Observe(seconds)
}

// RecordValidationFailure counts one field error.
func (c *Collector) RecordValidationFailure(route, kind string) {
	if c == nil {
		return
	}
	c.ValidationFailures.WithLabelValues(route, kind).Inc()
}

// RecordBackend records one backend invocation.
func (c *Collector) RecordBackend(backend string, seconds float64, err error) {
	if c == nil {
		return
	}
	c.BackendDuration.WithLabelValues(backend).Observe(seconds)
	if err != nil {
		c.BackendErrors.WithLabelValues(backend).Inc()
	}
}

// TrackInFlight increments the in-flight gauge and returns the matching
// decrement.
func (c *Collector) TrackInFlight() func() {
	if c == nil {
		return func() {}
	}
	c.InFlight.Inc()
	return c.InFlight.Dec
}
