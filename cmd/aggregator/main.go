package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/screwyprof/enos/enos"
	"github.com/screwyprof/enos/enos/config"
	"github.com/screwyprof/enos/enos/store/sqlstore"
	"github.com/screwyprof/enos/migrator"
	"github.com/screwyprof/enos/pkg/clock"
	"github.com/screwyprof/enos/pkg/logger"
	"github.com/screwyprof/enos/pkg/pgxdb"
	"github.com/screwyprof/enos/pkg/sqlitedb"
	"github.com/screwyprof/enos/pkg/stakingapi"
	"github.com/screwyprof/enos/pkg/throttle"
	"github.com/screwyprof/enos/pkg/upsert"
)

// These values are overridden at build time using -ldflags
var (
	version = "dev"
	date    = "unknown"
)

var errUnsupportedDatabaseURL = errors.New("unsupported database url")

func main() {
	// Load configuration
	cfg := config.New()

	// Initialize logger and set as default
	log := logger.NewFromConfig(logger.Config{
		LogLevel:         cfg.LogLevel,
		LogHumanFriendly: cfg.LogHumanFriendly,
	})
	slog.SetDefault(log)

	// Prepare context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.InfoContext(ctx, "ENO aggregator starting",
		slog.String("version", version),
		slog.String("date", date),
		slog.Bool("dryRun", cfg.DryRun),
	)

	// Open the store and bring its schema up to date
	store, storeCloser, err := openStore(ctx, log, cfg)
	if err != nil {
		log.ErrorContext(ctx, "Failed to open store", slog.Any("error", err))
		os.Exit(1)
	}
	defer storeCloser()

	// HTTP client & staking API client
	httpClient := &http.Client{
		Timeout:   cfg.HttpClientTimeout,
		Transport: logger.NewTransport(log, nil),
	}
	apiClient := stakingapi.NewClient(httpClient, cfg.APIURL,
		stakingapi.WithAPIKey(cfg.APIKey),
		stakingapi.WithRateLimit(cfg.RequestsPerSecond, cfg.RequestBurst),
	)

	// Create aggregation service
	pause := throttle.New(cfg.Pause)
	aggregator := enos.NewAggregator(apiClient, aggregatorOptions(cfg, pause)...)
	window := enos.NewWindow(clock.SystemClock{}, cfg.StartTimestamp, cfg.EndTimestamp)
	service := enos.NewService(aggregator, store,
		enos.WithWindow(window),
		enos.WithModes(cfg.Modes...),
		enos.WithFlushPerEpoch(cfg.FlushPerEpoch),
	)

	// Start service
	log.InfoContext(ctx, "Starting aggregation service",
		slog.Int("pools", len(aggregator.Contracts())),
		slog.Duration("pause", pause.Interval()),
		slog.String("writePolicy", string(cfg.WritePolicy)),
		slog.Bool("flushPerEpoch", cfg.FlushPerEpoch),
	)
	events, done := service.Start(ctx)

	// Subscribe to events for logging
	var failed bool
	subCloser := setupEventLogging(ctx, events, log, cfg.DryRun, func() { failed = true })

	// Wait for the run to finish
	<-done
	subCloser()

	if failed {
		storeCloser()
		os.Exit(1)
	}
	log.InfoContext(ctx, "ENO aggregator finished")
}

func aggregatorOptions(cfg config.Config, pause *throttle.Pause) []enos.AggregatorOption {
	opts := []enos.AggregatorOption{
		enos.WithPause(pause),
	}
	if len(cfg.Contracts) > 0 {
		opts = append(opts, enos.WithContracts(cfg.Contracts...))
	}
	if len(cfg.LiquidStakingAccounts) > 0 {
		opts = append(opts, enos.WithLiquidStakingAccounts(cfg.LiquidStakingAccounts...))
	}
	return opts
}

// openStore connects to PostgreSQL or SQLite depending on the database url,
// applies pending migrations and returns the store with its closer.
func openStore(ctx context.Context, log *slog.Logger, cfg config.Config) (*sqlstore.Store, func(), error) {
	policy := sqlstore.WithWritePolicy(cfg.WritePolicy)

	switch {
	case pgxdb.IsPostgresURL(cfg.DatabaseURL):
		pool, err := pgxdb.NewConnection(ctx, cfg.DatabaseURL, pgxdb.WithApplicationName("enos-aggregator"))
		if err != nil {
			return nil, nil, err
		}

		log.InfoContext(ctx, "Applying database migrations", slog.String("dialect", upsert.Postgres.String()))
		result, err := migrator.ApplyMigrations(ctx, pool, cfg.MigrationsDir)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		logMigrations(ctx, log, result)

		store, closer := sqlstore.NewPgx(pool, policy)
		return store, closer, nil

	case sqlitedb.IsSQLiteURL(cfg.DatabaseURL):
		db, err := sqlitedb.NewConnection(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}

		log.InfoContext(ctx, "Applying database migrations", slog.String("dialect", upsert.SQLite.String()))
		result, err := migrator.Apply(ctx, db, upsert.SQLite, cfg.MigrationsDir, time.Now())
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		logMigrations(ctx, log, result)

		store, closer := sqlstore.NewSQLite(db, policy)
		return store, closer, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", errUnsupportedDatabaseURL, redact(cfg.DatabaseURL))
	}
}

func logMigrations(ctx context.Context, log *slog.Logger, result migrator.Result) {
	log.InfoContext(ctx, "Database migrations applied",
		slog.Int("applied", result.Applied),
		slog.Int("version", result.Version),
	)
}

// redact drops everything after the scheme so credentials never reach the logs
func redact(url string) string {
	scheme, _, found := strings.Cut(url, "://")
	if !found {
		return "<invalid>"
	}
	return scheme + "://..."
}

// setupEventLogging configures event handlers using slog directly.
// Per-epoch progress is only reported in dry-run mode.
func setupEventLogging(ctx context.Context, events <-chan enos.Event, log *slog.Logger, dryRun bool, onError func()) func() {
	return enos.NewSubscriber(events,
		enos.OnRunStarted(func(event enos.RunStarted) {
			modes := make([]string, len(event.Modes))
			for i, m := range event.Modes {
				modes[i] = string(m)
			}
			log.InfoContext(ctx, "Aggregation started",
				slog.String("startedAt", event.StartedAt.Format(logger.BritishTimeFormat)),
				slog.Int64("windowStart", event.Window.Start),
				slog.Int64("windowEnd", event.Window.End),
				slog.String("modes", strings.Join(modes, ",")),
			)
		}),
		enos.OnEpochFlushed(func(event enos.EpochFlushed) {
			if !dryRun {
				return
			}
			log.InfoContext(ctx, "Epoch flushed",
				slog.String("mode", string(event.Mode)),
				slog.String("epochID", event.Epoch.EpochID),
				slog.Int64("unixTimestamp", event.Epoch.UnixSeconds()),
				slog.Int("rows", event.Rows),
				slog.Duration("elapsed", event.Elapsed),
			)
		}),
		enos.OnModeDone(func(event enos.ModeDone) {
			log.InfoContext(ctx, "Aggregation mode completed",
				slog.String("mode", string(event.Mode)),
				slog.Int("epochs", event.Epochs),
				slog.Int("rows", event.Rows),
			)
		}),
		enos.OnRunDone(func(event enos.RunDone) {
			log.InfoContext(ctx, "Aggregation completed",
				slog.Int("rows", event.Rows),
				slog.Duration("duration", event.Duration),
			)
		}),
		enos.OnRunError(func(event enos.RunError) {
			log.ErrorContext(ctx, "Aggregation failed",
				slog.String("mode", string(event.Mode)),
				slog.Any("error", event.Err),
			)
			onError()
		}),
	)
}
