package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
// A nil *Metrics records nothing.
type Metrics struct {
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	CarrierErrors      *prometheus.CounterVec
	ReconcileOrders    *prometheus.CounterVec
	ReconcileDuration  prometheus.Histogram
	ReconcileLastRunTS prometheus.Gauge
}

// NewMetrics creates metrics and registers them with reg. A nil reg uses
// the default Prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_requests_total",
				Help: "Total number of carrier calls by operation, carrier, and status",
			},
			[]string{"operation", "carrier", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "courier_request_duration_seconds",
				Help:    "Carrier call duration in seconds by operation and carrier",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "carrier"},
		),
		CarrierErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_carrier_errors_total",
				Help: "Total carrier errors by carrier and error kind",
			},
			[]string{"carrier", "error_type"},
		),
		ReconcileOrders: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "courier_reconcile_orders_total",
				Help: "Orders visited by reconciliation passes, by outcome",
			},
			[]string{"outcome"},
		),
		ReconcileDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "courier_reconcile_duration_seconds",
				Help:    "Duration of a full reconciliation pass",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12),
			},
		),
		ReconcileLastRunTS: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "courier_reconcile_last_run_timestamp_seconds",
				Help: "Unix time the last reconciliation pass finished",
			},
		),
	}
}

// RecordRequest records a carrier call.
func (m *Metrics) RecordRequest(operation, carrier, status string, duration float64) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(operation, carrier, status).Inc()
	m.RequestDuration.WithLabelValues(operation, carrier).Observe(duration)
}

// RecordError records a carrier error.
func (m *Metrics) RecordError(carrier, errorType string) {
	if m == nil {
		return
	}
	m.CarrierErrors.WithLabelValues(carrier, errorType).Inc()
}

// RecordReconcile records the outcome counts and duration of one pass.
func (m *Metrics) RecordReconcile(updated, skipped, failed int, duration float64) {
	if m == nil {
		return
	}
	m.ReconcileOrders.WithLabelValues("updated").Add(float64(updated))
	m.ReconcileOrders.WithLabelValues("skipped").Add(float64(skipped))
	m.ReconcileOrders.WithLabelValues("failed").Add(float64(failed))
	m.ReconcileDuration.Observe(duration)
	m.ReconcileLastRunTS.SetToCurrentTime()
}
