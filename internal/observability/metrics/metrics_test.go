package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	m.ObserveSubmission("success", 0.2)
	m.ObserveSubmission("success", 0.3)
	m.ObserveSubmission("remote_rejected", 0.1)
	m.ObserveWebhook("2xx", 0.2)
	m.ObserveFieldChange(true)
	m.ObserveFieldChange(false)
	m.SetActiveSessions(3)

	if got := testutil.ToFloat64(m.submissionsTotal.WithLabelValues("success")); got != 2 {
		t.Fatalf("success submissions = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.submissionsTotal.WithLabelValues("remote_rejected")); got != 1 {
		t.Fatalf("rejected submissions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.webhookTotal.WithLabelValues("2xx")); got != 1 {
		t.Fatalf("webhook 2xx = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.fieldChangesTotal.WithLabelValues("rejected")); got != 1 {
		t.Fatalf("rejected changes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.activeSessions); got != 3 {
		t.Fatalf("active sessions = %v, want 3", got)
	}
}

func TestBookingMetricsDefaultRegistry(t *testing.T) {
	m := NewBookingMetrics(nil)
	m.ObserveWebhook("5xx", 0.5)
	prometheus.DefaultRegisterer.Unregister(m.submissionsTotal)
	prometheus.DefaultRegisterer.Unregister(m.submissionDuration)
	prometheus.DefaultRegisterer.Unregister(m.webhookTotal)
	prometheus.DefaultRegisterer.Unregister(m.webhookLatency)
	prometheus.DefaultRegisterer.Unregister(m.fieldChangesTotal)
	prometheus.DefaultRegisterer.Unregister(m.activeSessions)
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveSubmission("success", 0.1)
	m.ObserveWebhook("2xx", 0.1)
	m.ObserveFieldChange(true)
	m.SetActiveSessions(1)
}
