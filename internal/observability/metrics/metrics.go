package metrics

import "github.com/prometheus/client_golang/prometheus"

// WizardMetrics exposes counters/histograms for booking sessions.
type WizardMetrics struct {
	transitionsTotal *prometheus.CounterVec
	bookingsTotal    *prometheus.CounterVec
	commitFailures   *prometheus.CounterVec
	commitLatency    prometheus.Histogram
	sessionsActive   prometheus.Gauge
}

func NewWizardMetrics(reg prometheus.Registerer) *WizardMetrics {
	m := &WizardMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bank",
			Subsystem: "booking",
			Name:      "transitions_total",
			Help:      "Wizard step transition attempts",
		}, []string{"step", "direction", "outcome"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bank",
			Subsystem: "booking",
			Name:      "issued_total",
			Help:      "Confirmations issued by appointment type",
		}, []string{"appointment_type"}),
		commitFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bank",
			Subsystem: "booking",
			Name:      "commit_failures_total",
			Help:      "Issued bookings the sink could not store",
		}, []string{"reason"}),
		commitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bank",
			Subsystem: "booking",
			Name:      "commit_latency_seconds",
			Help:      "Latency of handing a booking to the sink",
			Buckets:   prometheus.DefBuckets,
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "bank",
			Subsystem: "booking",
			Name:      "sessions_active",
			Help:      "Open booking sessions",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.bookingsTotal, m.commitFailures, m.commitLatency, m.sessionsActive)
	return m
}

// ObserveTransition records a next/back attempt from step.
func (m *WizardMetrics) ObserveTransition(step, direction string, moved bool) {
	if m == nil {
		return
	}
	outcome := "refused"
	if moved {
		outcome = "moved"
	}
	m.transitionsTotal.WithLabelValues(step, direction, outcome).Inc()
}

func (m *WizardMetrics) ObserveIssued(appointmentType string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(appointmentType).Inc()
}

func (m *WizardMetrics) ObserveCommit(seconds float64, failureReason string) {
	if m == nil {
		return
	}
	m.commitLatency.Observe(seconds)
	if failureReason != "" {
		m.commitFailures.WithLabelValues(failureReason).Inc()
	}
}

func (m *WizardMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.sessionsActive.Set(float64(n))
}
