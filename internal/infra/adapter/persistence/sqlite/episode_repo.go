package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"commutecast/internal/domain/entity"
	"commutecast/internal/repository"
)

// defaultUnsentLimit caps ListUnsent when the caller passes a non-positive limit.
const defaultUnsentLimit = 100

type EpisodeRepo struct{ db *sql.DB }

func NewEpisodeRepo(db *sql.DB) repository.EpisodeRepository {
	return &EpisodeRepo{db: db}
}

func scanEpisode(row rowScanner) (*entity.Episode, error) {
	var (
		ep     entity.Episode
		sentAt sql.NullTime
	)
	if err := row.Scan(
		&ep.ID, &ep.SubscriberID, &ep.Script, &ep.AudioURL,
		&ep.ArticleCount, &ep.CreatedAt, &sentAt,
	); err != nil {
		return nil, err
	}
	if sentAt.Valid {
		t := sentAt.Time
		ep.SentAt = &t
	}
	return &ep, nil
}

func (repo *EpisodeRepo) Save(ctx context.Context, ep *entity.Episode) (string, error) {
	if err := ep.Validate(); err != nil {
		return "", fmt.Errorf("Save: %w", err)
	}
	if ep.ID == "" {
		ep.ID = uuid.NewString()
	}
	if ep.CreatedAt.IsZero() {
		ep.CreatedAt = time.Now().UTC()
	}
	// a generated episode is never sent yet
	ep.SentAt = nil

	const query = `
INSERT INTO episodes (id, subscriber_id, script, audio_url, article_count, created_at, sent_at)
VALUES (?, ?, ?, ?, ?, ?, NULL)`
	if _, err := repo.db.ExecContext(ctx, query,
		ep.ID, ep.SubscriberID, ep.Script, ep.AudioURL, ep.ArticleCount, ep.CreatedAt,
	); err != nil {
		return "", fmt.Errorf("Save: %w", err)
	}
	return ep.ID, nil
}

func (repo *EpisodeRepo) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	const query = `UPDATE episodes SET sent_at = ? WHERE id = ?`
	res, err := repo.db.ExecContext(ctx, query, sentAt, id)
	if err != nil {
		return fmt.Errorf("MarkSent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkSent: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("MarkSent %s: %w", id, entity.ErrNotFound)
	}
	return nil
}

func (repo *EpisodeRepo) Get(ctx context.Context, id string) (*entity.Episode, error) {
	const query = `
SELECT id, subscriber_id, script, audio_url, article_count, created_at, sent_at
FROM episodes
WHERE id = ?
LIMIT 1`
	ep, err := scanEpisode(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return ep, nil
}

func (repo *EpisodeRepo) ListUnsent(ctx context.Context, limit int) ([]*entity.Episode, error) {
	if limit <= 0 {
		limit = defaultUnsentLimit
	}
	const query = `
SELECT id, subscriber_id, script, audio_url, article_count, created_at, sent_at
FROM episodes
WHERE sent_at IS NULL
ORDER BY created_at ASC
LIMIT ?`
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListUnsent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	episodes := make([]*entity.Episode, 0, limit)
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("ListUnsent: %w", err)
		}
		episodes = append(episodes, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListUnsent: %w", err)
	}
	return episodes, nil
}
