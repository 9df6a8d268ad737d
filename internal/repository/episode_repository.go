package repository

import (
	"context"
	"time"

	"commutecast/internal/domain/entity"
)

type EpisodeRepository interface {
	// Save persists a newly generated episode with sent_at NULL and returns its id.
	// If ep.ID is empty, the repository assigns one and writes it back to ep.
	Save(ctx context.Context, ep *entity.Episode) (string, error)
	// MarkSent records the delivery time. Returns entity.ErrNotFound for an unknown id.
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	// Get returns (nil, nil) if the episode does not exist.
	Get(ctx context.Context, id string) (*entity.Episode, error)
	// ListUnsent returns generated but undelivered episodes, oldest first.
	ListUnsent(ctx context.Context, limit int) ([]*entity.Episode, error)
}
