// Package slo tracks the service level objectives of the daily episode batch.
package slo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SLO targets for episode generation.
const (
	// EpisodeSuccessSLO is the target ratio of due subscribers that receive an episode.
	EpisodeSuccessSLO = 0.99

	// BatchDurationSLO bounds one batch run. Delivery times have minute resolution,
	// so a run that outlives the minute overlaps the next trigger.
	BatchDurationSLO = 60 * time.Second
)

// SLO tracking gauges, updated after every batch that processed at least one subscriber.
var (
	// SLOEpisodeSuccess tracks succeeded / processed for the latest batch.
	SLOEpisodeSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_episode_success_ratio",
			Help: "Ratio of due subscribers that received an episode in the latest batch, target: 0.99",
		},
	)

	// SLOBatchDuration tracks the duration of the latest batch in seconds.
	SLOBatchDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_batch_duration_seconds",
			Help: "Duration of the latest batch in seconds, target: 60",
		},
	)

	// SLOBreachesTotal counts batches that missed an objective.
	SLOBreachesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "slo_breaches_total",
			Help: "Total number of batches that missed an objective",
		},
		[]string{"objective"}, // objective: episode_success, batch_duration
	)
)

// ObserveBatch updates the gauges from one batch and reports whether both objectives held.
// Batches with nothing processed only update the duration.
func ObserveBatch(processed, succeeded int, duration time.Duration) bool {
	met := true

	SLOBatchDuration.Set(duration.Seconds())
	if duration > BatchDurationSLO {
		SLOBreachesTotal.WithLabelValues("batch_duration").Inc()
		met = false
	}

	if processed == 0 {
		return met
	}
	ratio := float64(succeeded) / float64(processed)
	SLOEpisodeSuccess.Set(ratio)
	if ratio < EpisodeSuccessSLO {
		SLOBreachesTotal.WithLabelValues("episode_success").Inc()
		met = false
	}
	return met
}
