package core

// scheduler.go runs background maintenance for the audit log: entries older
// than the retention window are pruned periodically. Failures are logged and
// never stop the application.

import (
	"context"
	"log/slog"
	"time"
)

// RetentionConfig holds configuration for the audit retention job.
// Zero fields fall back to the defaults.
type RetentionConfig struct {
	RetentionDays int           // Days to keep entries (default: 90)
	CheckInterval time.Duration // How often to run (default: 24h)
}

func (c RetentionConfig) withDefaults() RetentionConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 90
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = 24 * time.Hour
	}
	return c
}

// StartAuditRetention prunes old audit entries in a background goroutine.
// It runs immediately, then every CheckInterval, until ctx is cancelled.
// Logs that cannot prune are left alone.
func StartAuditRetention(ctx context.Context, log AuditLog, cfg RetentionConfig) {
	pruner, ok := log.(AuditPruner)
	if !ok {
		slog.Debug("audit log does not support pruning")
		return
	}
	cfg = cfg.withDefaults()
	slog.Info("audit retention started",
		"retention_days", cfg.RetentionDays,
		"interval", cfg.CheckInterval,
	)

	go func() {
		runRetentionJob(ctx, pruner, cfg, time.Now())

		ticker := time.NewTicker(cfg.CheckInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				slog.Info("audit retention stopped")
				return
			case now := <-ticker.C:
				runRetentionJob(ctx, pruner, cfg, now)
			}
		}
	}()
}

// runRetentionJob performs one prune cycle and returns the removed count.
func runRetentionJob(ctx context.Context, pruner AuditPruner, cfg RetentionConfig, now time.Time) int64 {
	start := time.Now()
	cutoff := now.AddDate(0, 0, -cfg.RetentionDays)

	pruned, err := pruner.Prune(ctx, cutoff)
	if err != nil {
		slog.Error("audit prune failed", "error", err)
		return 0
	}
	slog.Info("pruned audit entries",
		"entries_pruned", pruned,
		"cutoff", cutoff.Format(time.RFC3339),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return pruned
}
