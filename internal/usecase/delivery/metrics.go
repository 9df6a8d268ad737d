package delivery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	deliverySentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_sent_total",
			Help: "Total number of episode deliveries by result",
		},
		[]string{"channel", "status"}, // status: success|failure|rejected
	)

	deliveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "delivery_duration_seconds",
			Help:    "Episode delivery send duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"channel"},
	)

	circuitBreakerOpenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_circuit_breaker_open_total",
			Help: "Total number of sends rejected by an open circuit breaker",
		},
		[]string{"channel"},
	)

	markSentFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "delivery_mark_sent_failures_total",
			Help: "Deliveries accepted by the channel whose sent_at could not be recorded",
		},
	)
)

// RecordSuccess records a send accepted by the channel.
func RecordSuccess(channel string, duration time.Duration) {
	deliverySentTotal.WithLabelValues(channel, "success").Inc()
	deliveryDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordFailure records a send the channel refused or that errored.
func RecordFailure(channel string, duration time.Duration) {
	deliverySentTotal.WithLabelValues(channel, "failure").Inc()
	deliveryDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordCircuitBreakerOpen records a send rejected without reaching the channel.
func RecordCircuitBreakerOpen(channel string) {
	deliverySentTotal.WithLabelValues(channel, "rejected").Inc()
	circuitBreakerOpenTotal.WithLabelValues(channel).Inc()
}

// RecordMarkSentFailure counts a delivered email whose sent_at write failed.
func RecordMarkSentFailure() {
	markSentFailuresTotal.Inc()
}
