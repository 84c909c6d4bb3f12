package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"autoblog/internal/app"
	"autoblog/internal/config"
	"autoblog/internal/infrastructure/scheduler"
	"autoblog/internal/logging"
	"autoblog/internal/usecase"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("cannot start", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	runner := usecase.NewScheduler(driver, application.Pipeline())

	if err := runner.Start(ctx); err != nil {
		logger.Error("scheduler failed to start", "error", err)
		os.Exit(1)
	}
	logger.Info("scheduler started", "cron", cfg.Scheduler.CronExpression, "timezone", cfg.Scheduler.Timezone)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	if err := runner.Stop(ctx); err != nil {
		logger.Error("scheduler stop failed", "error", err)
	}
}
