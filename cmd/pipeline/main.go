package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"resmatch/internal/pipeline/load"
	pipelinemetrics "resmatch/internal/pipeline/metrics"
	"resmatch/internal/pipeline/service"
	"resmatch/internal/platform/config"
	"resmatch/internal/platform/logger"
	"resmatch/internal/platform/postgres"
	"resmatch/migrations"
)

// main runs one reconcile-and-replace pass over the raw source files and
// exits. Scheduling is left to whatever invokes the binary.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.Database)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := migrations.Apply(ctx, db); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	runner := service.NewRunner(
		service.NewFileSource(cfg.Pipeline.DataDir, cfg.Pipeline.MatchIterationID),
		load.New(db, load.WithSectionBatchSize(cfg.Pipeline.SectionBatchSize), load.WithLogger(log)),
		cfg.Pipeline,
		service.WithLogger(log),
		service.WithMetrics(pipelinemetrics.New()),
	)

	report, err := runner.Run(ctx)
	if err != nil {
		log.Error("pipeline run failed", "error", err)
		os.Exit(1)
	}

	log.Info("pipeline run complete",
		"run_id", report.RunID,
		"strategy", report.Strategy,
		"disciplines", report.Disciplines,
		"schools", report.Schools,
		"program_streams", report.Streams,
		"descriptions", report.Descriptions,
		"sections", report.Sections,
		"duration", report.Duration,
	)
}
