package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/console/internal/config"
	"github.com/JonMunkholm/console/internal/core"
	"github.com/JonMunkholm/console/internal/logging"
	"github.com/JonMunkholm/console/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
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
		"page_size", cfg.Grid.DefaultPageSize,
		"bulk_max_concurrent", cfg.Bulk.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	// Load the feature catalog
	catalog, err := core.LoadCatalog(cfg.Grid.CatalogPath)
	if err != nil {
		slog.Error("failed to load feature catalog", "error", err)
		os.Exit(1)
	}
	catalog.RegisterAll()

	slog.Info("features registered",
		"count", core.FeatureCount(),
		"groups", len(core.Groups()),
	)
	for _, group := range core.Groups() {
		slog.Debug("feature group", "group", group, "features", len(core.ByGroup(group)))
	}

	ctx := context.Background()

	// Pick the row source: Postgres when configured, seeded memory otherwise
	var (
		source core.Source
		audit  core.AuditLog
	)
	if cfg.Database.URL != "" {
		pool, err := connect(ctx, cfg.Database)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		source = core.NewPostgresSource(pool)

		pgAudit := core.NewPostgresAuditLog(pool)
		if err := pgAudit.EnsureSchema(ctx); err != nil {
			slog.Error("failed to prepare audit log", "error", err)
			os.Exit(1)
		}
		audit = pgAudit
	} else {
		slog.Info("no database configured, serving seeded in-memory rows", "seed", cfg.Grid.Seed)
		source = core.NewSeededMemorySource(core.All(), uint64(cfg.Grid.Seed))
		audit = core.NewMemoryAuditLog(cfg.Audit.MemoryEntries)
	}

	limiter := core.NewActionLimiter(cfg.Bulk.MaxConcurrent, cfg.Bulk.MaxWaitTime)
	instances := core.NewInstances(source, limiter, cfg.Session.TTL, cfg.Fetch.Timeout)
	instances.SetAuditLog(audit)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(ctx)
	instances.Start(jobCtx)
	core.StartAuditRetention(jobCtx, audit, core.RetentionConfig{
		RetentionDays: cfg.Audit.RetentionDays,
		CheckInterval: cfg.Audit.CheckInterval,
	})

	server := web.NewServer(cfg, instances)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for running bulk actions (with timeout)
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for bulk actions to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("bulk actions did not complete in time", "error", err)
			} else {
				slog.Info("all bulk actions completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// connect opens and verifies the connection pool.
func connect(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(db.URL)
	if err != nil {
		return nil, err
	}

	// Apply pool configuration from config
	poolConfig.MaxConns = int32(db.MaxConns)
	poolConfig.MinConns = int32(db.MinConns)
	poolConfig.MaxConnLifetime = db.MaxConnLifetime
	poolConfig.MaxConnIdleTime = db.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	// Log which database we connected to
	if u, err := url.Parse(db.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}
	return pool, nil
}
