package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/screwyprof/enos/migrator"
	"github.com/screwyprof/enos/migrator/config"
	"github.com/screwyprof/enos/pkg/logger"
	"github.com/screwyprof/enos/pkg/pgxdb"
	"github.com/screwyprof/enos/pkg/sqlitedb"
	"github.com/screwyprof/enos/pkg/upsert"
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

	log.Info("Starting database migrator service",
		slog.String("migrationsDir", cfg.MigrationsDir),
		slog.String("version", version),
		slog.String("date", date),
	)

	// Create a context that cancels on SIGINT/SIGTERM _or_ when the timeout elapses
	baseCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx, cancel := context.WithTimeout(baseCtx, cfg.OperationTimeout)
	defer cancel()

	// Apply migrations
	log.Info("Applying database migrations")
	result, err := migrate(ctx, cfg)
	if err != nil {
		log.Error("Failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("Database migrator completed successfully",
		slog.Int("applied", result.Applied),
		slog.Int("schemaVersion", result.Version),
		slog.String("appCode", migrator.AppCode),
	)
}

// migrate applies migrations to SQLite for sqlite urls and to PostgreSQL otherwise
func migrate(ctx context.Context, cfg config.Config) (migrator.Result, error) {
	if sqlitedb.IsSQLiteURL(cfg.DatabaseURL) && !pgxdb.IsPostgresURL(cfg.DatabaseURL) {
		db, err := sqlitedb.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return migrator.Result{}, err
		}
		defer db.Close()

		return migrator.Apply(ctx, db, upsert.SQLite, cfg.MigrationsDir, time.Now())
	}

	pool, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL, pgxdb.WithApplicationName("enos-migrator"))
	if err != nil {
		return migrator.Result{}, err
	}
	defer pool.Close()

	return migrator.ApplyMigrations(ctx, pool, cfg.MigrationsDir)
}
