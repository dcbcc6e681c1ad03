// Command api is the Eventclock API server.
//
// Usage:
//
//	eventclock-api
//	API_PORT=8080 DEFAULT_REGION=asia eventclock-api

// @title Eventclock API
// @version 1.0.0
// @description Game event timers resolved to the player's region, bucketed by urgency, with deadline reminders.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name Eventclock
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/albapepper/eventclock/internal/aggregate"
	"github.com/albapepper/eventclock/internal/api"
	"github.com/albapepper/eventclock/internal/api/handler"
	"github.com/albapepper/eventclock/internal/cache"
	"github.com/albapepper/eventclock/internal/catalog"
	"github.com/albapepper/eventclock/internal/config"
	"github.com/albapepper/eventclock/internal/db"
	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/feed"
	"github.com/albapepper/eventclock/internal/listener"
	"github.com/albapepper/eventclock/internal/logging"
	"github.com/albapepper/eventclock/internal/maintenance"
	"github.com/albapepper/eventclock/internal/notifications"
	"github.com/albapepper/eventclock/internal/prefs"

	_ "github.com/albapepper/eventclock/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, closeLog := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	defer closeLog()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	defs, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}
	logger.Info("Catalog loaded", "definitions", len(defs), "path", cfg.CatalogPath)

	// Local state: region and preferences survive restarts.
	store, err := prefs.Open(cfg.StateDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	profile, saved, err := store.LoadRegion()
	if err != nil {
		return err
	}
	if !saved {
		profile = cfg.Region()
	}
	logger.Info("Region selected", "region", profile.Name, "utc_offset_hours", profile.UTCOffsetHours, "reset_hour", profile.ResetHour)

	var fetcher aggregate.Fetcher
	if cfg.EventsAPIURL != "" {
		fetcher = feed.NewClient(cfg.EventsAPIURL, cfg.EventsAPIKey, cfg.EventsAPIRPM, logger)
	} else {
		logger.Warn("EVENTS_API_URL not set; serving permanent events only")
	}
	agg := aggregate.New(fetcher, defs, profile, logger)

	// Reminder platform: Postgres-backed when a database is configured.
	var (
		pool     *pgxpool.Pool
		platform notifications.Platform
	)
	if cfg.HasDatabase() {
		logger.Info("Connecting to database...")
		dbPool, err := db.New(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer dbPool.Close()
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
		pool = dbPool.Pool
		platform = notifications.NewPgPlatform(pool)

		sender, err := notifications.NewFCMSender(ctx, cfg.FirebaseCredentialsFile, cfg.FirebaseProjectID, logger)
		if err != nil {
			return err
		}
		if sender != nil {
			go notifications.StartWorker(ctx, pool, sender, logger)
			logger.Info("Notification dispatch worker started")
		} else {
			logger.Info("Notification dispatch worker disabled (no FIREBASE_CREDENTIALS_FILE)")
		}

		// LISTEN/NOTIFY: the backend signals new events.
		go listener.Start(ctx, cfg.DatabaseURL, agg, logger)
	} else {
		logger.Info("DATABASE_URL not set; reminders kept in memory")
		platform = notifications.NewMemoryPlatform()
	}

	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	scheduler := notifications.NewScheduler(platform, logger)
	reconciler := notifications.NewReconciler(scheduler, func() []event.Resolved {
		return agg.Snapshot().Events()
	}, store, logger)
	go reconciler.Run(ctx)

	// Every new snapshot invalidates rendered responses and re-syncs reminders.
	agg.OnUpdate(func(*aggregate.Snapshot) {
		appCache.Purge()
		reconciler.Trigger()
	})

	if err := agg.Refresh(ctx); err != nil {
		logger.Warn("Initial refresh failed; continuing with permanent events", "error", err)
		agg.Recompute()
	}

	// Scheduled refresh, recompute and cleanup
	mcfg := maintenance.DefaultConfig()
	mcfg.RefreshSpec = cfg.RefreshCron
	mcfg.RecomputeInterval = cfg.RecomputeInterval
	mcfg.CleanupInterval = cfg.CleanupInterval
	if err := maintenance.ValidateSpec(mcfg.RefreshSpec); err != nil {
		return err
	}
	go func() {
		tasks := maintenance.Tasks{
			Refresh:   agg.Refresh,
			Recompute: func() { agg.Recompute() },
			Pool:      pool,
		}
		if err := maintenance.Start(ctx, tasks, mcfg, logger); err != nil {
			logger.Error("Maintenance stopped", "error", err)
		}
	}()

	// Create router
	router := api.NewRouter(handler.Deps{
		Aggregator: agg,
		Reconciler: reconciler,
		Store:      store,
		Pool:       pool,
		Cache:      appCache,
		Config:     cfg,
	}, logger)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting Eventclock API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
	return nil
}
