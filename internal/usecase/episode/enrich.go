package episode

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"commutecast/internal/domain/entity"
	"commutecast/internal/observability/metrics"
	"commutecast/internal/observability/tracing"
)

// enrich replaces short item bodies with the full article text.
// It never fails: any fetch error or panic keeps the provider's body. The input slice is not modified.
func (p *Pipeline) enrich(ctx context.Context, items []entity.NewsItem, logger *slog.Logger) []entity.NewsItem {
	ctx, span := tracing.StartSpan(ctx, "episode.enrichment")
	defer span.End()

	out := make([]entity.NewsItem, len(items))
	copy(out, items)

	var g errgroup.Group
	g.SetLimit(p.enrichParallelism)

	for i := range out {
		current := len(out[i].Body())
		if current >= p.enrichThreshold || out[i].URL == "" {
			metrics.RecordContentFetchSkipped()
			continue
		}

		g.Go(func() error {
			start := time.Now()
			defer func() {
				if rec := recover(); rec != nil {
					metrics.RecordContentFetchFailed(time.Since(start))
					logger.ErrorContext(ctx, "content fetch panicked, keeping provider body",
						slog.String("url", out[i].URL),
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())))
				}
			}()
			content, err := p.enricher.FetchContent(ctx, out[i].URL)
			elapsed := time.Since(start)
			if err != nil {
				metrics.RecordContentFetchFailed(elapsed)
				logger.DebugContext(ctx, "content fetch failed, keeping provider body",
					slog.String("url", out[i].URL),
					slog.Any("error", err))
				return nil
			}
			metrics.RecordContentFetchSuccess(elapsed, len(content))
			// shorter extractions are usually paywall stubs
			if len(content) > current {
				out[i].Content = content
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
