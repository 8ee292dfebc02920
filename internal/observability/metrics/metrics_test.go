package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWizardMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWizardMetrics(reg)

	m.ObserveTransition("branch", "next", true)
	m.ObserveTransition("branch", "next", true)
	m.ObserveTransition("contact", "next", false)
	m.ObserveIssued("Loan Consultation")
	m.ObserveCommit(0.02, "")
	m.ObserveCommit(0.01, "slot_taken")
	m.SetActiveSessions(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitionsTotal.WithLabelValues("branch", "next", "moved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitionsTotal.WithLabelValues("contact", "next", "refused")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("Loan Consultation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commitFailures.WithLabelValues("slot_taken")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.sessionsActive))
}

func TestWizardMetricsNilSafe(t *testing.T) {
	var m *WizardMetrics
	m.ObserveTransition("time", "back", true)
	m.ObserveIssued("General Inquiry")
	m.ObserveCommit(0.1, "error")
	m.SetActiveSessions(1)
}
