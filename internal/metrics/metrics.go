package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "barberia"

var (
	once sync.Once

	bookingCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_commits_total",
			Help:      "Booking writes by outcome.",
		},
		[]string{"outcome"},
	)

	bookingCancellations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_cancellations_total",
			Help:      "Booking cancellations by outcome.",
		},
		[]string{"outcome"},
	)

	availabilityFailOpen = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_fail_open_total",
			Help:      "Availability queries that failed and were treated as no occupied slots.",
		},
	)

	sessionsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_expired_total",
			Help:      "Conversations cleared by the inactivity timer.",
		},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Open conversations held in memory.",
		},
	)

	inboundMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Webhook messages by kind.",
		},
		[]string{"kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			bookingCommits,
			bookingCancellations,
			availabilityFailOpen,
			sessionsExpired,
			sessionsActive,
			inboundMessages,
		)
	})
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func ObserveCommit(ok bool) {
	bookingCommits.WithLabelValues(outcome(ok)).Inc()
}

func ObserveCancellation(ok bool) {
	bookingCancellations.WithLabelValues(outcome(ok)).Inc()
}

func IncAvailabilityFailOpen() {
	availabilityFailOpen.Inc()
}

func IncSessionsExpired() {
	sessionsExpired.Inc()
}

func SetSessionsActive(n int) {
	sessionsActive.Set(float64(n))
}

// IncInbound counts a webhook delivery by kind ("text", "non_text", "empty").
func IncInbound(kind string) {
	inboundMessages.WithLabelValues(kind).Inc()
}
