// Package retry provides exponential backoff with jitter for the two store
// operations that are safe to repeat: loading the subscriber list and
// connecting to the database. Pipeline stages are single-attempt and must
// not use this package.
package retry

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Config controls the backoff schedule.
type Config struct {
	// Op names the operation in retry logs, e.g. "list_subscribers".
	Op string

	// MaxAttempts is the total number of attempts, including the first one.
	MaxAttempts int

	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// JitterFraction is the fraction of delay added as random jitter (0.0 to 1.0).
	JitterFraction float64
}

// DBConfig is tuned for short queries such as loading the subscriber list.
func DBConfig() Config {
	return Config{
		Op:             "list_subscribers",
		MaxAttempts:    3,
		InitialDelay:   100 * time.Millisecond,
		MaxDelay:       1 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
	}
}

// DBConnectConfig is used while waiting for the database at process start.
// Containers often start before the database accepts connections.
func DBConnectConfig() Config {
	return Config{
		Op:             "db_connect",
		MaxAttempts:    6,
		InitialDelay:   500 * time.Millisecond,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.2,
	}
}

// WithBackoff executes fn until it succeeds, returns a non-retryable error,
// exhausts cfg.MaxAttempts or ctx is done.
func WithBackoff(ctx context.Context, cfg Config, fn func() error) error {
	var lastErr error
	delay := cfg.InitialDelay
	op := slog.String("op", cfg.Op)

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			if attempt > 1 {
				slog.InfoContext(ctx, "operation succeeded after retry", op, slog.Int("attempt", attempt))
			}
			return nil
		}

		if !IsRetryable(lastErr) {
			if attempt > 1 {
				slog.WarnContext(ctx, "non-retryable error, aborting", op,
					slog.Int("attempt", attempt),
					slog.Any("error", lastErr))
			}
			return lastErr
		}

		if attempt == cfg.MaxAttempts {
			break
		}

		slog.WarnContext(ctx, "operation failed, retrying", op,
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", cfg.MaxAttempts),
			slog.Duration("delay", delay),
			slog.Any("error", lastErr))

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry aborted: %w", ctx.Err())
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
		delay = addJitter(delay, cfg.JitterFraction)
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w", cfg.MaxAttempts, lastErr)
}

// IsRetryable reports whether err is a transient store or network failure.
//
// Retryable: driver.ErrBadConn, network timeouts and refused/reset connections,
// Postgres connection-class (08xxx) and start-up (57P03) states, serialization
// failures (40001), and SQLite BUSY/LOCKED. Context cancellation never is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	if errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P03" || pgErr.Code == "40001"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}

	return false
}

// addJitter adds random jitter to a duration to prevent thundering herd.
func addJitter(duration time.Duration, jitterFraction float64) time.Duration {
	if jitterFraction <= 0 {
		return duration
	}
	if jitterFraction > 1.0 {
		jitterFraction = 1.0
	}
	// #nosec G404 -- jitter does not need cryptographic randomness
	jitter := time.Duration(rand.Float64() * float64(duration) * jitterFraction)
	return duration + jitter
}
