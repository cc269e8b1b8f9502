// Package metrics provides Prometheus metrics collection for hotgraph.
package metrics

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	eventbus "github.com/hanpama/hotgraph/internal/eventbus"
	events "github.com/hanpama/hotgraph/internal/events"
)

const namespace = "hotgraph"

// Collector holds all Prometheus metrics for hotgraph.
type Collector struct {
	// HTTP
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
	AdmissionRejected  *prometheus.CounterVec
	OperationsPerBatch prometheus.Histogram

	// GraphQL
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	InternalErrors    prometheus.Counter

	// Schema refresh
	RefreshTriggers  prometheus.Counter
	Rebuilds         *prometheus.CounterVec
	RebuildDuration  prometheus.Histogram
	SchemaGeneration prometheus.Gauge
	SchemaProviders  prometheus.Gauge
}

// New creates a collector registered with the default registry.
func New() *Collector {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a collector registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of GraphQL HTTP requests by status",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "GraphQL HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"status"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Number of GraphQL HTTP requests currently being processed",
			},
		),
		AdmissionRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "admission_rejected_total",
				Help:      "Requests rejected before dispatch",
			},
			[]string{"kind"},
		),
		OperationsPerBatch: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_operations",
				Help:      "Operations dispatched per admitted request",
				Buckets:   []float64{0, 1, 2, 4, 8, 16},
			},
		),

		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Executed GraphQL operations by type",
			},
			[]string{"type"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "GraphQL operation execution time in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		InternalErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "internal_errors_total",
				Help:      "Internal errors hidden from clients",
			},
		),

		RefreshTriggers: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "refresh_triggers_total",
				Help:      "Schema refresh triggers, coalesced or not",
			},
		),
		Rebuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "schema_rebuilds_total",
				Help:      "Schema rebuilds by result",
			},
			[]string{"result"},
		),
		RebuildDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "schema_rebuild_duration_seconds",
				Help:      "Schema rebuild duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		SchemaGeneration: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "schema_generation",
				Help:      "Generation of the active schema bundle",
			},
		),
		SchemaProviders: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "schema_providers",
				Help:      "Field providers in the active schema bundle",
			},
		),
	}
}

// Subscribe records bus events into c.
func (c *Collector) Subscribe(b *eventbus.Bus) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.On(b, func(_ context.Context, e events.HTTPStart) {
			c.RequestsInFlight.Inc()
		}),
		eventbus.On(b, func(_ context.Context, e events.HTTPFinish) {
			c.RequestsInFlight.Dec()
			status := strconv.Itoa(e.Status)
			method := ""
			if e.Request != nil {
				method = e.Request.Method
			}
			c.RequestsTotal.WithLabelValues(method, status).Inc()
			c.RequestDuration.WithLabelValues(status).Observe(e.Duration.Seconds())
			if e.Operations > 0 || e.Batch {
				c.OperationsPerBatch.Observe(float64(e.Operations))
			}
		}),
		eventbus.On(b, func(_ context.Context, e events.AdmissionRejected) {
			c.AdmissionRejected.WithLabelValues(e.Kind).Inc()
		}),
		eventbus.On(b, func(_ context.Context, e events.GraphQLFinish) {
			c.OperationsTotal.WithLabelValues(e.OperationType).Inc()
			c.OperationDuration.WithLabelValues(e.OperationType).Observe(e.Duration.Seconds())
			c.InternalErrors.Add(float64(e.InternalErrors))
		}),
		eventbus.On(b, func(_ context.Context, e events.RefreshTriggered) {
			c.RefreshTriggers.Inc()
		}),
		eventbus.On(b, func(_ context.Context, e events.RebuildFinish) {
			c.RebuildDuration.Observe(e.Duration.Seconds())
			if e.Err != nil {
				c.Rebuilds.WithLabelValues("failure").Inc()
				return
			}
			c.Rebuilds.WithLabelValues("success").Inc()
			c.SchemaGeneration.Set(float64(e.Generation))
			c.SchemaProviders.Set(float64(e.Providers))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
