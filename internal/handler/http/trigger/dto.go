package trigger

import (
	"commutecast/internal/handler/http/respond"
	"commutecast/internal/usecase/batch"
)

// SummaryDTO is the response body of a successful trigger call.
type SummaryDTO struct {
	Success   bool        `json:"success"`
	RunID     string      `json:"run_id"`
	Processed int         `json:"processed"`
	Succeeded int         `json:"succeeded"`
	Failed    int         `json:"failed"`
	Skipped   int         `json:"skipped"`
	NotDue    int         `json:"not_due"`
	Results   []ResultDTO `json:"results"`
}

// ResultDTO is one subscriber's outcome.
type ResultDTO struct {
	SubscriberID string `json:"subscriber_id"`
	Status       string `json:"status"`
	Stage        string `json:"stage,omitempty"`
	Error        string `json:"error,omitempty"`
	Reason       string `json:"reason,omitempty"`
	EpisodeID    string `json:"episode_id,omitempty"`
}

func toDTO(s batch.Summary) SummaryDTO {
	out := SummaryDTO{
		Success:   true,
		RunID:     s.RunID,
		Processed: s.Processed,
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Skipped:   s.Skipped,
		NotDue:    s.NotDue,
		Results:   make([]ResultDTO, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		out.Results = append(out.Results, ResultDTO{
			SubscriberID: r.SubscriberID,
			Status:       string(r.Status),
			Stage:        string(r.Stage),
			Error:        respond.SanitizeMessage(r.Error()),
			Reason:       r.Reason,
			EpisodeID:    r.EpisodeID,
		})
	}
	return out
}
