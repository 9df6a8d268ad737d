package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConnectionConfig(t *testing.T) {
	cfg := DefaultConnectionConfig()

	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 1*time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxIdleTime)
}

func TestGetConnectionConfigFromEnv_SQLiteSingleWriter(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "")
	t.Setenv("DB_MAX_IDLE_CONNS", "")

	cfg := getConnectionConfigFromEnv(SQLite)
	assert.Equal(t, 1, cfg.MaxOpenConns)
	assert.Equal(t, 1, cfg.MaxIdleConns)
}

func TestGetConnectionConfigFromEnv_Overrides(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
		check func(t *testing.T, cfg ConnectionConfig)
	}{
		{
			name: "max open conns",
			key:  "DB_MAX_OPEN_CONNS", value: "50",
			check: func(t *testing.T, cfg ConnectionConfig) { assert.Equal(t, 50, cfg.MaxOpenConns) },
		},
		{
			name: "invalid max open conns keeps default",
			key:  "DB_MAX_OPEN_CONNS", value: "lots",
			check: func(t *testing.T, cfg ConnectionConfig) { assert.Equal(t, 25, cfg.MaxOpenConns) },
		},
		{
			name: "zero idle conns keeps default",
			key:  "DB_MAX_IDLE_CONNS", value: "0",
			check: func(t *testing.T, cfg ConnectionConfig) { assert.Equal(t, 10, cfg.MaxIdleConns) },
		},
		{
			name: "lifetime",
			key:  "DB_CONN_MAX_LIFETIME", value: "1h30m",
			check: func(t *testing.T, cfg ConnectionConfig) { assert.Equal(t, 90*time.Minute, cfg.ConnMaxLifetime) },
		},
		{
			name: "idle time not a duration",
			key:  "DB_CONN_MAX_IDLE_TIME", value: "soon",
			check: func(t *testing.T, cfg ConnectionConfig) { assert.Equal(t, 30*time.Minute, cfg.ConnMaxIdleTime) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			tt.check(t, getConnectionConfigFromEnv(Postgres))
		})
	}
}

func TestOpen_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	_, _, err := Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestOpenWith_UnknownDialect(t *testing.T) {
	_, err := OpenWith(context.Background(), Dialect("oracle"), "dsn", DefaultConnectionConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported DATABASE_DRIVER")
}

func TestOpenWith_SQLiteInMemory(t *testing.T) {
	database, err := OpenWith(context.Background(), SQLite, "file::memory:?cache=shared", DefaultConnectionConfig())
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	require.NoError(t, MigrateUp(context.Background(), database, SQLite))
	_, err = database.Exec(`INSERT INTO subscribers (id, email, topics) VALUES ('s1', 'a@example.com', '["go"]')`)
	assert.NoError(t, err)
}
