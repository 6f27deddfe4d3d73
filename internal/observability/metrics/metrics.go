package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking form.
type BookingMetrics struct {
	submissionsTotal   *prometheus.CounterVec
	submissionDuration *prometheus.HistogramVec
	webhookTotal       *prometheus.CounterVec
	webhookLatency     *prometheus.HistogramVec
	fieldChangesTotal  *prometheus.CounterVec
	activeSessions     prometheus.Gauge
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mojito",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Submit attempts by outcome",
		}, []string{"outcome"}),
		submissionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mojito",
			Subsystem: "booking",
			Name:      "submission_duration_seconds",
			Help:      "Time from submit to final status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		webhookTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mojito",
			Subsystem: "webhook",
			Name:      "requests_total",
			Help:      "Webhook requests by response class",
		}, []string{"status_class"}),
		webhookLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mojito",
			Subsystem: "webhook",
			Name:      "latency_seconds",
			Help:      "Latency of webhook round trips",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status_class"}),
		fieldChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mojito",
			Subsystem: "booking",
			Name:      "field_changes_total",
			Help:      "Accepted and rejected field change events",
		}, []string{"result"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mojito",
			Subsystem: "booking",
			Name:      "active_sessions",
			Help:      "Form sessions currently held in memory",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.submissionDuration, m.webhookTotal, m.webhookLatency, m.fieldChangesTotal, m.activeSessions)
	return m
}

func (m *BookingMetrics) ObserveSubmission(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
	m.submissionDuration.WithLabelValues(outcome).Observe(seconds)
}

func (m *BookingMetrics) ObserveWebhook(statusClass string, seconds float64) {
	if m == nil {
		return
	}
	m.webhookTotal.WithLabelValues(statusClass).Inc()
	m.webhookLatency.WithLabelValues(statusClass).Observe(seconds)
}

func (m *BookingMetrics) ObserveFieldChange(accepted bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.fieldChangesTotal.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
