package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/h15s/gmtea/migrator"
	"github.com/h15s/gmtea/migrator/config"
	"github.com/h15s/gmtea/pkg/logger"
	"github.com/h15s/gmtea/pkg/pgxdb"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

func main() {
	// Load configuration from environment
	cfg := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	log.Info("Starting database migrator",
		slog.String("direction", cfg.Direction),
		slog.String("version", version),
		slog.String("date", date),
	)

	// Create a context that cancels on SIGINT/SIGTERM _or_ when the timeout elapses
	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(baseCtx, cfg.OperationTimeout)
	defer cancel()

	db, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("Failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	var applied int
	switch cfg.Direction {
	case "up":
		applied, err = migrator.ApplyMigrations(db)
	case "down":
		applied, err = migrator.RollbackMigrations(db, cfg.Steps)
	default:
		log.Error("Unknown migration direction", slog.String("direction", cfg.Direction))
		os.Exit(1)
	}
	if err != nil {
		log.Error("Failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("Database migrator completed successfully", slog.Int("applied", applied))
}
