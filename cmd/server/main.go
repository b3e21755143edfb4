package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/excelops/sheetops/internal/config"
	"github.com/excelops/sheetops/internal/core"
	_ "github.com/excelops/sheetops/internal/core/ops" // Register all operations
	"github.com/excelops/sheetops/internal/logging"
	"github.com/excelops/sheetops/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"workers", cfg.Jobs.Workers,
		"queue_limit", cfg.Jobs.QueueLimit,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Parse and configure connection pool
	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}

	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	// Log which database we connected to
	if u, err := url.Parse(cfg.Database.URL); err == nil {
		dbName := strings.TrimPrefix(u.Path, "/")
		slog.Info("connected to database", "name", dbName)
	} else {
		slog.Info("connected to database")
	}

	store := core.NewPgStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure jobs schema", "error", err)
		os.Exit(1)
	}

	service, err := core.NewService(store, core.ServiceOptions{
		DataDir:       cfg.Storage.DataDir,
		ArtifactsDir:  cfg.Storage.ArtifactsDir,
		JobTimeout:    cfg.Jobs.Timeout,
		QueueLimit:    cfg.Jobs.QueueLimit,
		MaxResultRows: cfg.Engine.MaxResultRows,
		MaxUploads:    cfg.Upload.MaxConcurrent,
		UploadWait:    cfg.Upload.MaxWaitTime,
	})
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	slog.Info("operations registered",
		"count", core.OperationCount(),
		"groups", len(core.Groups()),
	)

	server := web.NewServer(service, cfg)

	// Background workers and the maintenance loop stop on jobCtx.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	runner := core.NewRunner(service, cfg.Jobs.Workers, cfg.Jobs.PollInterval)
	runnerDone := make(chan error, 1)
	go func() { runnerDone <- runner.Start(jobCtx) }()

	go service.StartMaintenance(jobCtx, core.MaintenanceConfig{
		StaleAge:      cfg.Jobs.StaleAge,
		Retention:     cfg.Jobs.Retention,
		CheckInterval: cfg.Jobs.MaintenanceInterval,
	})

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Start(cfg.Server.Addr()) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Stop accepting HTTP traffic first
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Wait for in-flight uploads to land in the staging directory
	if err := service.DrainUploads(shutdownCtx); err != nil {
		slog.Warn("uploads did not drain in time", "error", err)
	}

	// Stop claiming queued jobs and wait for running ones. Jobs still
	// running past the deadline stay marked running; the next process
	// requeues them as stale.
	cancelJobs()
	select {
	case <-runnerDone:
		slog.Info("job runner stopped")
	case <-shutdownCtx.Done():
		slog.Warn("job runner did not stop in time")
	}
}
