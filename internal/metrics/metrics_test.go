package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransition(t *testing.T) {
	m := New()
	m.RecordTransition("assign", ResultOK)
	m.RecordTransition("assign", ResultOK)
	m.RecordTransition("return", ResultAuditFailed)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LifecycleTransitions.WithLabelValues("assign", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LifecycleTransitions.WithLabelValues("return", ResultAuditFailed)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordTransition("scrap", ResultOK)
		m.RecordBatch(DirectionIn)
	})
}
