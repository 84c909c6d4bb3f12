package app

import (
	"context"
	"fmt"
	"log/slog"

	"autoblog/internal/budget"
	"autoblog/internal/config"
	"autoblog/internal/infrastructure/discovery"
	"autoblog/internal/infrastructure/llm"
	"autoblog/internal/infrastructure/publish"
	"autoblog/internal/jobid"
	"autoblog/internal/logging"
	"autoblog/internal/metadata"
	"autoblog/internal/query"
	"autoblog/internal/storage"
	"autoblog/internal/trends"
	"autoblog/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	pipeline *usecase.Pipeline
	queries  *query.Service
	logger   *slog.Logger
}

// New builds a runnable application instance.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := openStore(cfg.Storage, baseLogger.With("component", "storage"))
	if err != nil {
		return nil, err
	}

	registry := trends.NewRegistry()
	registry.Register(discovery.NewGNewsProvider(nil))
	registry.Register(discovery.NewPageProvider(nil))
	source := discovery.NewMultiSource(registry, baseLogger.With("component", "trends"))

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		IDs:       jobid.NewGenerator(),
		Store:     store,
		Metadata:  metadata.NewManager(store, baseLogger.With("component", "metadata")),
		Source:    source,
		Generator: llm.NewOpenAIGenerator(nil),
		Publisher: publish.NewGitHubPublisher(nil),
		Budget:    budget.NewTracker(cfg.Budget.DailyCeilingUSD, cfg.Budget.WarnThresholdUSD, baseLogger.With("component", "budget")),
		Config:    cfg,
		Logger:    baseLogger.With("component", "pipeline"),
	})

	return &Application{
		cfg:      cfg,
		pipeline: pipeline,
		queries:  query.NewService(store),
		logger:   baseLogger,
	}, nil
}

func openStore(cfg config.StorageConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Backend {
	case "", "file":
		return storage.NewFileStore(cfg.DataDir, logger)
	case "postgres":
		return storage.OpenPostgres(cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// Run executes pipeline stages for one job.
func (a *Application) Run(ctx context.Context, opts usecase.RunOptions) (string, error) {
	return a.pipeline.Run(ctx, opts)
}

// Pipeline exposes the orchestrator for scheduler wiring.
func (a *Application) Pipeline() *usecase.Pipeline {
	return a.pipeline
}

// Queries exposes the read-only job query service.
func (a *Application) Queries() *query.Service {
	return a.queries
}
