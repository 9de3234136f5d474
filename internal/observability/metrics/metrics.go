package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fairdeal"

// RelayLatencyName is the fully qualified relay latency histogram name.
const RelayLatencyName = namespace + "_notify_relay_duration_seconds"

// BookingMetrics exposes counters/histograms for bookings, notifications and the reviews carousel.
type BookingMetrics struct {
	reg            prometheus.Registerer
	submissions    *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	relayLatency   *prometheus.HistogramVec
	carouselMoves  *prometheus.CounterVec
	relayRequests  *prometheus.CounterVec
	sessionsGauged bool
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking form submit attempts by outcome",
		}, []string{"outcome"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "booking",
			Name:      "notifications_total",
			Help:      "Booking notifications by channel and status",
		}, []string{"channel", "status"}),
		relayLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "relay_duration_seconds",
			Help:      "Time to relay one booking to every channel",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"outcome"}),
		carouselMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reviews",
			Name:      "carousel_moves_total",
			Help:      "Review carousel cursor moves by cause",
		}, []string{"cause"}),
		relayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "relay_requests_total",
			Help:      "Relay endpoint requests by transport and HTTP status",
		}, []string{"transport", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m.reg = reg
	reg.MustRegister(m.submissions, m.notifications, m.relayLatency, m.carouselMoves, m.relayRequests)
	return m
}

// TrackSessions exports fn as the live booking session gauge. Only the first call registers.
func (m *BookingMetrics) TrackSessions(fn func() int) {
	if m == nil || fn == nil || m.sessionsGauged {
		return
	}
	m.sessionsGauged = true
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "booking",
		Name:      "active_sessions",
		Help:      "Booking form sessions currently held in memory",
	}, func() float64 { return float64(fn()) }))
}

// ObserveSubmission implements booking.Observer.
func (m *BookingMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

// ObserveNotification implements notify.Observer.
func (m *BookingMetrics) ObserveNotification(channel, status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, status).Inc()
}

// ObserveRelay implements notify.Observer.
func (m *BookingMetrics) ObserveRelay(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.relayLatency.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// ObserveCarouselMove implements reviews.MoveObserver.
func (m *BookingMetrics) ObserveCarouselMove(cause string) {
	if m == nil {
		return
	}
	m.carouselMoves.WithLabelValues(cause).Inc()
}

func (m *BookingMetrics) ObserveRelayRequest(transport string, status int) {
	if m == nil {
		return
	}
	m.relayRequests.WithLabelValues(transport, statusClass(status)).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
