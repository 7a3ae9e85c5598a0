package telemetry_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/tournevent/courier/internal/telemetry"
)

func TestMetrics_RecordReconcile(t *testing.T) {
	m := telemetry.NewMetrics(prometheus.NewRegistry())

	m.RecordReconcile(1, 2, 0, 3.5)
	m.RecordReconcile(1, 0, 1, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReconcileOrders.WithLabelValues("updated")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReconcileOrders.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReconcileOrders.WithLabelValues("failed")))
}

func TestMetrics_RecordRequestAndError(t *testing.T) {
	m := telemetry.NewMetrics(prometheus.NewRegistry())

	m.RecordRequest("create_order", "redx", "success", 0.2)
	m.RecordError("redx", "area_resolution")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("create_order", "redx", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CarrierErrors.WithLabelValues("redx", "area_resolution")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *telemetry.Metrics

	assert.NotPanics(t, func() {
		m.RecordRequest("create_order", "redx", "success", 0.2)
		m.RecordError("redx", "provider")
		m.RecordReconcile(1, 1, 1, 1)
	})
}

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "error", "bogus"} {
		logger, err := telemetry.NewLogger(level)
		assert.NoError(t, err)
		assert.NotNil(t, logger)
	}
}
