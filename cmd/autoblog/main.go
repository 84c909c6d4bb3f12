package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"autoblog/internal/app"
	"autoblog/internal/config"
	"autoblog/internal/domain"
	"autoblog/internal/logging"
	"autoblog/internal/usecase"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (overrides AUTOBLOG_CONFIG)")
	mode := flag.String("mode", "full", "pipeline mode: full, trends, content or publish")
	jobID := flag.String("job-id", "", "existing job to resume (empty starts or finds one)")
	fromStage := flag.String("from", "", "force a re-run from this stage: trend, content or publish")
	logLevel := flag.String("log-level", "", "log level override: debug, info, warn or error")
	flag.Parse()

	if *configPath != "" {
		os.Setenv("AUTOBLOG_CONFIG", *configPath)
	}

	cfg := config.Load()
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("cannot start", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	opts, err := buildRunOptions(ctx, application, *mode, *jobID, *fromStage)
	if err != nil {
		logger.Error("cannot resolve run", "mode", *mode, "error", err)
		os.Exit(1)
	}

	ranJob, err := application.Run(ctx, opts)
	if ranJob != "" {
		fmt.Println(ranJob)
	}
	if err != nil {
		logger.Error("run failed", "job_id", ranJob, "error", err)
		os.Exit(1)
	}
}

// buildRunOptions maps the CLI mode onto pipeline bounds. Stage-scoped
// modes without an explicit job id pick the latest job waiting for that
// stage.
func buildRunOptions(ctx context.Context, application *app.Application, mode, jobID, fromStage string) (usecase.RunOptions, error) {
	opts := usecase.RunOptions{JobID: jobID}

	if fromStage != "" {
		stage := domain.Stage(fromStage)
		if stage.Index() < 0 {
			return usecase.RunOptions{}, fmt.Errorf("unknown stage %q", fromStage)
		}
		if jobID == "" {
			return usecase.RunOptions{}, fmt.Errorf("-from requires -job-id")
		}
		opts.StartStage = stage
	}

	switch mode {
	case "full":
		return opts, nil
	case "trends":
		opts.StopAfter = domain.StageTrend
		return opts, nil
	case "content":
		opts.StopAfter = domain.StageContent
		return resolveJob(ctx, application, opts, domain.StatusTrendDone)
	case "publish":
		return resolveJob(ctx, application, opts, domain.StatusContentDone)
	default:
		return usecase.RunOptions{}, fmt.Errorf("unknown mode %q", mode)
	}
}

func resolveJob(ctx context.Context, application *app.Application, opts usecase.RunOptions, waiting domain.JobStatus) (usecase.RunOptions, error) {
	if opts.JobID != "" {
		return opts, nil
	}

	latest, err := application.Queries().Latest(ctx, waiting)
	if err != nil {
		return usecase.RunOptions{}, fmt.Errorf("no job in status %s: %w", waiting, err)
	}
	opts.JobID = latest
	return opts, nil
}
