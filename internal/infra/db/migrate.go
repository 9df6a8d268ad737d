package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the DDL per dialect. Statements are idempotent.
var schema = map[Dialect][]string{
	Postgres: {
		`
CREATE TABLE IF NOT EXISTS subscribers (
    id              TEXT PRIMARY KEY,
    email           TEXT NOT NULL,
    status          VARCHAR(20) NOT NULL DEFAULT 'active',
    delivery_time   CHAR(5) NOT NULL DEFAULT '08:00',
    episode_minutes INTEGER NOT NULL DEFAULT 5,
    voice           TEXT,
    topics          JSONB NOT NULL DEFAULT '[]'::jsonb,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
		`
CREATE TABLE IF NOT EXISTS episodes (
    id            TEXT PRIMARY KEY,
    subscriber_id TEXT NOT NULL REFERENCES subscribers(id) ON DELETE CASCADE,
    script        TEXT NOT NULL,
    audio_url     TEXT NOT NULL,
    article_count INTEGER NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    sent_at       TIMESTAMPTZ
)`,
		`CREATE INDEX IF NOT EXISTS idx_subscribers_active ON subscribers(status) WHERE status = 'active'`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_subscriber_id ON episodes(subscriber_id)`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_unsent ON episodes(created_at) WHERE sent_at IS NULL`,
	},
	SQLite: {
		`PRAGMA journal_mode=WAL`,
		`
CREATE TABLE IF NOT EXISTS subscribers (
    id              TEXT PRIMARY KEY,
    email           TEXT NOT NULL,
    status          TEXT NOT NULL DEFAULT 'active',
    delivery_time   TEXT NOT NULL DEFAULT '08:00',
    episode_minutes INTEGER NOT NULL DEFAULT 5,
    voice           TEXT,
    topics          TEXT NOT NULL DEFAULT '[]',
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`,
		`
CREATE TABLE IF NOT EXISTS episodes (
    id            TEXT PRIMARY KEY,
    subscriber_id TEXT NOT NULL REFERENCES subscribers(id) ON DELETE CASCADE,
    script        TEXT NOT NULL,
    audio_url     TEXT NOT NULL,
    article_count INTEGER NOT NULL DEFAULT 0,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    sent_at       DATETIME
)`,
		`CREATE INDEX IF NOT EXISTS idx_subscribers_status ON subscribers(status)`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_subscriber_id ON episodes(subscriber_id)`,
		`CREATE INDEX IF NOT EXISTS idx_episodes_sent_at ON episodes(sent_at)`,
	},
}

// MigrateUp creates the subscriber and episode tables for the given dialect.
func MigrateUp(ctx context.Context, db *sql.DB, dialect Dialect) error {
	stmts, ok := schema[dialect]
	if !ok {
		return fmt.Errorf("migrate: unsupported dialect %q", string(dialect))
	}
	for i, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s step %d: %w", dialect, i+1, err)
		}
	}
	return nil
}
