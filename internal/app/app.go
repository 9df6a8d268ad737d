// Package app assembles the episode batch from environment configuration.
// Both the API trigger and the cron worker start from Build.
package app

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"commutecast/internal/config"
	"commutecast/internal/infra/adapter/persistence"
	"commutecast/internal/infra/db"
	"commutecast/internal/infra/fetcher"
	"commutecast/internal/infra/provider"
	"commutecast/internal/infra/summarizer"
	"commutecast/internal/infra/synthesizer"
	"commutecast/internal/observability/metrics"
	"commutecast/internal/usecase/batch"
	"commutecast/internal/usecase/delivery"
	"commutecast/internal/usecase/episode"
	"commutecast/internal/usecase/news"
	"commutecast/internal/usecase/schedule"
	envconfig "commutecast/pkg/config"
)

// App holds the wired components and the resources to release on shutdown.
type App struct {
	DB       *sql.DB
	Dialect  db.Dialect
	Repos    persistence.Repositories
	Config   *config.PipelineConfig
	Delivery *delivery.Service
	Pipeline *episode.Pipeline
	Runner   *batch.Runner
}

// Build opens the database, applies the schema and wires the pipeline.
func Build(ctx context.Context, logger *slog.Logger) (*App, error) {
	cfg, err := config.LoadPipelineConfig()
	if err != nil {
		return nil, err
	}

	database, dialect, err := db.Open(ctx)
	if err != nil {
		return nil, err
	}
	a, err := wire(ctx, logger, cfg, database, dialect)
	if err != nil {
		_ = database.Close()
		return nil, err
	}
	return a, nil
}

func wire(ctx context.Context, logger *slog.Logger, cfg *config.PipelineConfig, database *sql.DB, dialect db.Dialect) (*App, error) {
	if err := db.MigrateUp(ctx, database, dialect); err != nil {
		return nil, err
	}
	repos, err := persistence.New(database, dialect)
	if err != nil {
		return nil, err
	}

	gate, err := schedule.NewGate(cfg.Timezone)
	if err != nil {
		return nil, err
	}

	providersCfg, err := config.LoadProvidersConfig(cfg.ProvidersFile)
	if err != nil {
		return nil, err
	}
	chain, err := provider.BuildChain(providersCfg, newHTTPClient(cfg.Timeouts.Provider), cfg.Timeouts.Provider)
	if err != nil {
		return nil, fmt.Errorf("build provider chain: %w", err)
	}
	aggregator := news.NewAggregator(chain,
		news.WithProviderTimeout(cfg.Timeouts.Provider),
		news.WithOutcomeRecorder(metrics.ProviderOutcomes{}),
		news.WithLogger(logger))

	sum, err := summarizer.New(cfg.SummarizerType,
		summarizer.WithMetricsRecorder(summarizer.NewPrometheusScriptMetrics()))
	if err != nil {
		return nil, err
	}
	synth, err := synthesizer.New(cfg.SynthesizerType, cfg.Timeouts.Synthesize)
	if err != nil {
		return nil, err
	}

	channel, err := delivery.NewChannelFromEnv(cfg.DeliveryChannel, cfg.Timeouts.Deliver)
	if err != nil {
		return nil, err
	}
	deliverySvc := delivery.NewService(channel, repos.Episodes,
		delivery.WithFrom(envconfig.GetEnvString("DELIVERY_FROM", delivery.DefaultFrom)),
		delivery.WithSubscribers(repos.Subscribers))

	opts := []episode.Option{
		episode.WithMaxArticles(cfg.MaxArticles),
		episode.WithLogger(logger),
		episode.WithStageTimeouts(episode.StageTimeouts{
			Summarize:  cfg.Timeouts.Summarize,
			Synthesize: cfg.Timeouts.Synthesize,
			Persist:    cfg.Timeouts.Persist,
			Deliver:    cfg.Timeouts.Deliver,
		}),
	}
	if cfg.EnrichContent {
		fc := fetcher.LoadConfigFromEnv()
		opts = append(opts, episode.WithEnricher(fetcher.NewReadabilityFetcher(fc), fc.Threshold, fc.Parallelism))
		logger.Info("content enrichment enabled",
			slog.Int("threshold", fc.Threshold),
			slog.Int("parallelism", fc.Parallelism))
	}
	pipeline := episode.NewPipeline(aggregator, sum, synth, repos.Episodes, deliverySvc, opts...)

	runner := batch.NewRunner(repos.Subscribers, pipeline, gate,
		batch.WithMaxConcurrent(cfg.MaxConcurrent),
		batch.WithLogger(logger))

	logger.Info("episode pipeline wired",
		slog.String("dialect", string(dialect)),
		slog.String("timezone", cfg.Timezone),
		slog.Int("providers", len(chain)),
		slog.String("summarizer", cfg.SummarizerType),
		slog.String("synthesizer", cfg.SynthesizerType),
		slog.String("delivery_channel", channel.Name()),
		slog.Int("max_concurrent", cfg.MaxConcurrent),
		slog.Int("max_articles", cfg.MaxArticles))

	return &App{
		DB:       database,
		Dialect:  dialect,
		Repos:    repos,
		Config:   cfg,
		Delivery: deliverySvc,
		Pipeline: pipeline,
		Runner:   runner,
	}, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	return a.DB.Close()
}

// newHTTPClient is shared by the news providers. TLS 1.2+ is enforced.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
