package episode

import (
	"time"

	"commutecast/internal/domain/entity"
)

// Stage names a pipeline step. It is also the metrics label and span suffix.
type Stage string

const (
	StageNone          Stage = ""
	StageAggregation   Stage = "aggregation"
	StageSummarization Stage = "summarization"
	StageSynthesis     Stage = "synthesis"
	StagePersist       Stage = "persist"
	StageDelivery      Stage = "delivery"
	// StageLoad is used when the subscriber's stored preferences could not be decoded.
	StageLoad Stage = "load"
	// StageUnknown is used when a run panicked and the stage could not be determined.
	StageUnknown Stage = "unknown"
)

// Status is the terminal state of one subscriber run.
type Status string

const (
	StatusSkipped   Status = "skipped"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Skip reasons.
const (
	SkipNoTopics = "no_topics"
	SkipNotDue   = "not_due"
)

// Result is the outcome of Pipeline.Run for one subscriber.
type Result struct {
	SubscriberID string
	Status       Status
	// Stage is set only for failures.
	Stage Stage
	Err   error
	// Reason is set only for skips.
	Reason string
	// Episode is the persisted episode. It is set on success and on delivery failure.
	Episode  *entity.Episode
	Duration time.Duration
}

// Error returns the cause text, or "" when the run did not fail.
func (r Result) Error() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// EpisodeID returns the persisted episode ID, or "".
func (r Result) EpisodeID() string {
	if r.Episode == nil {
		return ""
	}
	return r.Episode.ID
}

// Skipped builds the result for a subscriber that had nothing to generate.
func Skipped(subscriberID, reason string) Result {
	return Result{SubscriberID: subscriberID, Status: StatusSkipped, Reason: reason}
}

// Succeeded builds the result for a delivered episode.
func Succeeded(subscriberID string, ep *entity.Episode) Result {
	return Result{SubscriberID: subscriberID, Status: StatusSucceeded, Episode: ep}
}

// Failed builds the result for a run that stopped at stage.
func Failed(subscriberID string, stage Stage, err error) Result {
	return Result{SubscriberID: subscriberID, Status: StatusFailed, Stage: stage, Err: err}
}
