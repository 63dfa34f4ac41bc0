package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/yourname/moodtracker/internal"
	"github.com/yourname/moodtracker/internal/config"
	"github.com/yourname/moodtracker/internal/service"
	"github.com/yourname/moodtracker/internal/storage"
)

// aggregate is the batch entry point: run it from cron shortly after
// UTC midnight in daily mode, or by hand in backfill mode to rebuild
// every user's history.
func main() {
	mode := flag.String("mode", "daily", "aggregation mode: daily or backfill")
	flag.Parse()

	cfg := config.Load()
	logger, err := internal.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}

	var repos *storage.Repositories
	if cfg.DBType == "postgres" {
		repos, err = storage.NewPostgresRepositories(cfg.DBDSN, logger)
	} else {
		repos, err = storage.NewFileRepositories(cfg.FileUsers, cfg.FileEvents, cfg.FileAverages, cfg.FilePersonal, logger)
	}
	if err != nil {
		logger.Fatalf("failed to init storage: %v", err)
	}

	agg := service.NewAggregator(repos.Users, repos.Events, repos.Averages, logger)
	ctx := context.Background()

	var report *service.RunReport
	switch *mode {
	case "daily":
		report, err = agg.RunDaily(ctx, time.Now())
	case "backfill":
		report, err = agg.RunBackfill(ctx)
	default:
		logger.Fatalf("unknown mode %q, want daily or backfill", *mode)
	}

	// Close before exiting either way; Fatalf does not run defers and the
	// file backend flushes on close.
	if cerr := repos.Close(); cerr != nil {
		logger.Errorf("failed to close storage: %v", cerr)
	}
	if err != nil {
		logger.Fatalf("%s run failed after %d rows: %v", *mode, report.RowsWritten, err)
	}
	logger.Infof("%s run complete: %d rows written, %d skipped, took %s",
		*mode, report.RowsWritten, report.Skipped, report.Elapsed)
}
