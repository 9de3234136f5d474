package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func familyCount(t *testing.T, reg *prometheus.Registry, name string) int {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return len(mf.Metric)
		}
	}
	return 0
}

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveSubmission("confirmed")
	m.ObserveSubmission("confirmed")
	m.ObserveNotification("business_sms", "failed")
	m.ObserveCarouselMove("tick")
	m.ObserveRelayRequest("http", 500)

	assert.Equal(t, 2.0, counterValue(t, m.submissions.WithLabelValues("confirmed")))
	assert.Equal(t, 1.0, counterValue(t, m.notifications.WithLabelValues("business_sms", "failed")))
	assert.Equal(t, 1.0, counterValue(t, m.carouselMoves.WithLabelValues("tick")))
	assert.Equal(t, 1.0, counterValue(t, m.relayRequests.WithLabelValues("http", "5xx")))
}

func TestBookingMetricsTrackSessions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)
	n := 3
	m.TrackSessions(func() int { return n })
	m.TrackSessions(func() int { return 99 })

	assert.Equal(t, 1, familyCount(t, reg, "fairdeal_booking_active_sessions"))
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveSubmission("confirmed")
	m.ObserveNotification("business_email", "sent")
	m.ObserveRelay("sent", time.Second)
	m.ObserveCarouselMove("next")
	m.ObserveRelayRequest("lambda", 200)
	m.TrackSessions(func() int { return 1 })
}

func TestSnapshotRelayLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	for i := 0; i < 19; i++ {
		m.ObserveRelay("sent", 80*time.Millisecond)
	}
	m.ObserveRelay("failed", 4*time.Second)
	m.ObserveRelay("duplicate", 9*time.Second)

	snap := SnapshotRelayLatency(reg)
	assert.Equal(t, int64(20), snap.Total)
	assert.InDelta(t, 75.0, snap.P50Ms, 30)
	assert.InDelta(t, 100.0, snap.P95Ms, 1)
}

func TestSnapshotRelayLatencyEmpty(t *testing.T) {
	assert.Equal(t, LatencySnapshot{}, SnapshotRelayLatency(prometheus.NewRegistry()))
}

func TestHistogramQuantile(t *testing.T) {
	uppers := []float64{1, 2, 3}
	cum := map[float64]uint64{1: 5, 2: 9, 3: 10}

	assert.InDelta(t, 1.0, histogramQuantile(0.5, 10, uppers, cum), 1e-9)
	assert.InDelta(t, 2.5, histogramQuantile(0.95, 10, uppers, cum), 1e-9)
	assert.Equal(t, 3.0, histogramQuantile(1, 10, uppers, cum))
	assert.Zero(t, histogramQuantile(0.5, 0, uppers, cum))
}

func TestHasLabel(t *testing.T) {
	name, value := "outcome", "sent"
	metric := &dto.Metric{Label: []*dto.LabelPair{{Name: &name, Value: &value}}}
	assert.True(t, hasLabel(metric, "outcome", "sent"))
	assert.False(t, hasLabel(metric, "outcome", "failed"))
}
