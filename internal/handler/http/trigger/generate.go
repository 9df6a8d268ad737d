// Package trigger exposes the batch run over HTTP for an external cron scheduler.
package trigger

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"commutecast/internal/handler/http/respond"
	"commutecast/internal/observability/logging"
	"commutecast/internal/usecase/batch"
)

// BatchRunner is satisfied by *batch.Runner.
type BatchRunner interface {
	RunBatch(ctx context.Context, now time.Time) (batch.Summary, error)
}

// GenerateHandler runs one batch for the current instant.
type GenerateHandler struct {
	Runner BatchRunner
	Clock  func() time.Time
	Logger *slog.Logger
}

func (h GenerateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	now := time.Now
	if h.Clock != nil {
		now = h.Clock
	}
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.WithRequestID(r.Context(), logger)

	summary, err := h.Runner.RunBatch(r.Context(), now())
	if err != nil {
		logger.ErrorContext(r.Context(), "episode generation failed",
			slog.String("error", respond.SanitizeError(err)))
		respond.SafeError(w, http.StatusInternalServerError,
			respond.NewAppError(http.StatusInternalServerError, "failed to generate episodes", err))
		return
	}

	logger.InfoContext(r.Context(), "episode generation triggered",
		slog.String("run_id", summary.RunID),
		slog.Int("processed", summary.Processed),
		slog.Int("succeeded", summary.Succeeded),
		slog.Int("failed", summary.Failed))
	respond.JSON(w, http.StatusOK, toDTO(summary))
}
