package batch

import "errors"

var (
	// ErrSubscriberListUnavailable indicates the active subscribers could not be
	// loaded after retries. No pipeline ran.
	ErrSubscriberListUnavailable = errors.New("subscriber list unavailable")

	// ErrPipelinePanic indicates a subscriber run panicked and was recovered.
	ErrPipelinePanic = errors.New("episode pipeline panicked")
)
