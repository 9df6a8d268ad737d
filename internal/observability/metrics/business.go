package metrics

import (
	"time"
)

// RecordEpisodeGenerated counts one episode that made it through every stage.
func RecordEpisodeGenerated() {
	EpisodesGeneratedTotal.Inc()
}

// RecordStageFailure counts a pipeline run that stopped at stage.
func RecordStageFailure(stage string) {
	EpisodeStageFailuresTotal.WithLabelValues(stage).Inc()
}

// RecordStageDuration records how long a pipeline stage took, successful or not.
func RecordStageDuration(stage string, duration time.Duration) {
	EpisodeStageDuration.WithLabelValues(stage).Observe(duration.Seconds())
}

// ProviderOutcomes records news provider attempts.
// It satisfies news.OutcomeRecorder.
type ProviderOutcomes struct{}

// RecordProviderOutcome counts one provider attempt and observes its duration.
func (ProviderOutcomes) RecordProviderOutcome(provider, kind string, duration time.Duration) {
	ProviderOutcomesTotal.WithLabelValues(provider, kind).Inc()
	ProviderDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordContentFetchSuccess records a successful content fetch operation.
func RecordContentFetchSuccess(duration time.Duration, contentSize int) {
	ContentFetchAttemptsTotal.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
	ContentFetchSize.Observe(float64(contentSize))
}

// RecordContentFetchFailed records a failed content fetch operation.
func RecordContentFetchFailed(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchSkipped records an item whose feed body was already long enough.
func RecordContentFetchSkipped() {
	ContentFetchAttemptsTotal.WithLabelValues("skipped").Inc()
}

// RecordBatchRun records the outcome of one batch run.
// Status is "success" when subscribers were loaded, "failure" otherwise.
func RecordBatchRun(status string, duration time.Duration) {
	BatchRunsTotal.WithLabelValues(status).Inc()
	BatchDuration.Observe(duration.Seconds())
	if status == "success" {
		BatchLastSuccessTimestamp.SetToCurrentTime()
	}
}

// RecordBatchResults adds the per-subscriber tallies of one batch.
func RecordBatchResults(succeeded, failed, skipped int) {
	BatchSubscriberResultsTotal.WithLabelValues("succeeded").Add(float64(succeeded))
	BatchSubscriberResultsTotal.WithLabelValues("failed").Add(float64(failed))
	BatchSubscriberResultsTotal.WithLabelValues("skipped").Add(float64(skipped))
}
