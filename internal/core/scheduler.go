package core

// scheduler.go provides background scheduling for maintenance tasks.
//
// Each cycle runs three phases:
//  1. Requeue jobs stuck in running, left behind by a crashed worker
//  2. Purge finished job rows past the retention window
//  3. Sweep staged uploads and artifacts past the retention window
//
// The scheduler is designed to be long-running and context-aware for
// graceful shutdown. It logs progress and errors but does not fail the
// application if individual maintenance phases fail.

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// MaintenanceConfig holds configuration for the maintenance scheduler.
// All fields have sensible defaults if zero values are provided.
type MaintenanceConfig struct {
	StaleAge      time.Duration // running-job age before requeue (default: 15m)
	Retention     time.Duration // how long finished jobs and files survive (default: 24h)
	CheckInterval time.Duration // how often to run (default: 10m)
}

func (cfg *MaintenanceConfig) applyDefaults() {
	if cfg.StaleAge <= 0 {
		cfg.StaleAge = 15 * time.Minute
	}
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 10 * time.Minute
	}
}

// StartMaintenance starts a background loop that keeps the queue and the
// staging directories healthy. It runs immediately on start, then every
// CheckInterval, and stops when the context is cancelled.
func (s *Service) StartMaintenance(ctx context.Context, cfg MaintenanceConfig) {
	cfg.applyDefaults()

	slog.Info("maintenance scheduler started",
		"stale_age", cfg.StaleAge,
		"retention", cfg.Retention,
		"interval", cfg.CheckInterval,
	)

	// Run immediately on startup
	s.runMaintenance(ctx, cfg)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("maintenance scheduler stopped")
			return
		case <-ticker.C:
			s.runMaintenance(ctx, cfg)
		}
	}
}

// runMaintenance performs one requeue + purge + sweep cycle.
func (s *Service) runMaintenance(ctx context.Context, cfg MaintenanceConfig) {
	slog.Debug("maintenance cycle started")
	start := time.Now()

	requeueStart := time.Now()
	requeued, err := s.store.RequeueStale(ctx, cfg.StaleAge)
	if err != nil {
		slog.Error("requeue stale jobs failed", "error", err)
	} else if requeued > 0 {
		slog.Info("requeued stale jobs",
			"jobs_requeued", requeued,
			"duration_ms", time.Since(requeueStart).Milliseconds(),
		)
		s.kick()
	}

	purgeStart := time.Now()
	purged, err := s.store.PurgeOlderThan(ctx, cfg.Retention)
	if err != nil {
		slog.Error("purge finished jobs failed", "error", err)
	} else if purged > 0 {
		slog.Info("purged finished jobs",
			"jobs_purged", purged,
			"duration_ms", time.Since(purgeStart).Milliseconds(),
		)
	}

	sweepStart := time.Now()
	swept, err := s.sweepFiles(time.Now().Add(-cfg.Retention))
	if err != nil {
		slog.Error("sweep files failed", "error", err)
	} else if swept > 0 {
		slog.Info("swept expired files",
			"files_removed", swept,
			"duration_ms", time.Since(sweepStart).Milliseconds(),
		)
	}

	slog.Debug("maintenance cycle completed", "duration_ms", time.Since(start).Milliseconds())
}

// sweepFiles removes staged uploads and artifacts last modified before
// the cutoff. Their job rows are purged on the same retention clock, so
// nothing can still reference them.
func (s *Service) sweepFiles(cutoff time.Time) (int, error) {
	removed := 0
	var firstErr error

	for _, dir := range []string{s.artifactsDir, s.dataDir} {
		entries, err := os.ReadDir(dir)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				if err := os.Remove(filepath.Join(dir, entry.Name())); err == nil {
					removed++
				}
			}
		}
	}

	return removed, firstErr
}
