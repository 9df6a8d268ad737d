package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"commutecast/internal/domain/entity"
	"commutecast/internal/infra/adapter/persistence/postgres"
)

var episodeColumns = []string{
	"id", "subscriber_id", "script", "audio_url", "article_count", "created_at", "sent_at",
}

/* ──────────────────────────────── 1. Save ──────────────────────────────── */

func TestEpisodeRepo_Save(t *testing.T) {
	t.Parallel()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	sent := created.Add(time.Hour)
	ep := &entity.Episode{
		SubscriberID: "sub-1",
		Script:       "Good morning!",
		AudioURL:     "https://cdn.example.com/ep.mp3",
		ArticleCount: 3,
		CreatedAt:    created,
		SentAt:       &sent, // must be ignored
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO episodes`)).
		WithArgs(sqlmock.AnyArg(), "sub-1", "Good morning!", "https://cdn.example.com/ep.mp3", 3, created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewEpisodeRepo(db)
	id, err := repo.Save(context.Background(), ep)
	if err != nil {
		t.Fatalf("Save err=%v", err)
	}
	if id == "" || id != ep.ID {
		t.Fatalf("id=%q ep.ID=%q, want same non-empty id", id, ep.ID)
	}
	if ep.SentAt != nil {
		t.Fatalf("SentAt = %v, want nil", ep.SentAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestEpisodeRepo_Save_Invalid(t *testing.T) {
	t.Parallel()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	repo := postgres.NewEpisodeRepo(db)
	_, err := repo.Save(context.Background(), &entity.Episode{SubscriberID: "sub-1"})
	var vErr *entity.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

/* ──────────────────────────────── 2. MarkSent ──────────────────────────────── */

func TestEpisodeRepo_MarkSent(t *testing.T) {
	t.Parallel()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	at := time.Date(2026, 3, 1, 8, 1, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE episodes SET sent_at = $1 WHERE id = $2`)).
		WithArgs(at, "ep-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewEpisodeRepo(db)
	if err := repo.MarkSent(context.Background(), "ep-1", at); err != nil {
		t.Fatalf("MarkSent err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestEpisodeRepo_MarkSent_NotFound(t *testing.T) {
	t.Parallel()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`UPDATE episodes`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := postgres.NewEpisodeRepo(db)
	err := repo.MarkSent(context.Background(), "nope", time.Now())
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

/* ──────────────────────────────── 3. Get / ListUnsent ──────────────────────────────── */

func TestEpisodeRepo_Get(t *testing.T) {
	t.Parallel()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = $1`)).
		WithArgs("ep-1").
		WillReturnRows(sqlmock.NewRows(episodeColumns).
			AddRow("ep-1", "sub-1", "script", "https://cdn.example.com/ep.mp3", 2, created, nil))

	repo := postgres.NewEpisodeRepo(db)
	got, err := repo.Get(context.Background(), "ep-1")
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	want := &entity.Episode{
		ID: "ep-1", SubscriberID: "sub-1", Script: "script",
		AudioURL: "https://cdn.example.com/ep.mp3", ArticleCount: 2, CreatedAt: created,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestEpisodeRepo_ListUnsent(t *testing.T) {
	t.Parallel()

	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE sent_at IS NULL`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(episodeColumns).
			AddRow("ep-1", "sub-1", "a", "https://x/1.mp3", 1, created, nil).
			AddRow("ep-2", "sub-2", "b", "https://x/2.mp3", 4, created.Add(time.Minute), nil))

	repo := postgres.NewEpisodeRepo(db)
	got, err := repo.ListUnsent(context.Background(), 10)
	if err != nil || len(got) != 2 {
		t.Fatalf("ListUnsent err=%v len=%d", err, len(got))
	}
	if got[0].ID != "ep-1" || got[1].ID != "ep-2" {
		t.Fatalf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
