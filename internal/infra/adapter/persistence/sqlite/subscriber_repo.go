package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"commutecast/internal/domain/entity"
	"commutecast/internal/repository"
)

type SubscriberRepo struct{ db *sql.DB }

func NewSubscriberRepo(db *sql.DB) repository.SubscriberRepository {
	return &SubscriberRepo{db: db}
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSubscriber scans a subscriber row and decodes the JSON topic list.
// Decoding failures are reported as *repository.RowError.
func scanSubscriber(row rowScanner) (*entity.Subscriber, error) {
	var (
		sub          entity.Subscriber
		deliveryTime string
		topicsJSON   []byte
		voice        sql.NullString
	)
	if err := row.Scan(
		&sub.ID, &sub.Email, &deliveryTime, &sub.EpisodeMinutes, &voice, &topicsJSON,
	); err != nil {
		return nil, err
	}

	dt, err := entity.ParseDeliveryTime(deliveryTime)
	if err != nil {
		return nil, &repository.RowError{SubscriberID: sub.ID, Err: err}
	}
	sub.DeliveryTime = dt
	sub.Voice = voice.String

	if len(topicsJSON) > 0 {
		if err := json.Unmarshal(topicsJSON, &sub.Topics); err != nil {
			return nil, &repository.RowError{SubscriberID: sub.ID, Err: fmt.Errorf("unmarshal topics: %w", err)}
		}
	}
	return &sub, nil
}

func (repo *SubscriberRepo) ListActive(ctx context.Context) ([]*entity.Subscriber, error) {
	const query = `
SELECT id, email, delivery_time, episode_minutes, voice, topics
FROM subscribers
WHERE status = 'active'
AND email <> ''
ORDER BY id ASC`
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	defer func() { _ = rows.Close() }()

	subscribers := make([]*entity.Subscriber, 0, 64)
	var undecodable []error
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		var rowErr *repository.RowError
		if errors.As(err, &rowErr) {
			undecodable = append(undecodable, rowErr)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("ListActive: %w", err)
		}
		subscribers = append(subscribers, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListActive: %w", err)
	}
	if len(undecodable) > 0 {
		return subscribers, fmt.Errorf("ListActive: %w: %w", repository.ErrUndecodableRows, errors.Join(undecodable...))
	}
	return subscribers, nil
}

func (repo *SubscriberRepo) Get(ctx context.Context, id string) (*entity.Subscriber, error) {
	const query = `
SELECT id, email, delivery_time, episode_minutes, voice, topics
FROM subscribers
WHERE id = ?
LIMIT 1`
	sub, err := scanSubscriber(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return sub, nil
}
