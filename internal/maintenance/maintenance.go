// Package maintenance runs the periodic background work of the service:
// a cron-scheduled refresh of external events, a ticker that recomputes
// the aggregate so buckets and statuses follow the clock, and a ticker that
// cleans up delivered reminders.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

// Config controls task schedules. Empty spec or zero duration disables a task.
type Config struct {
	RefreshSpec        string        // standard 5-field cron expression
	RecomputeInterval  time.Duration // re-bucket without fetching
	CleanupInterval    time.Duration // delivered reminders + stuck claims
	DeliveredRetention time.Duration
	StuckAfter         time.Duration
}

// DefaultConfig returns sensible production defaults.
func DefaultConfig() Config {
	return Config{
		RefreshSpec:        "0 * * * *",
		RecomputeInterval:  1 * time.Hour,
		CleanupInterval:    30 * time.Minute,
		DeliveredRetention: 30 * 24 * time.Hour,
		StuckAfter:         10 * time.Minute,
	}
}

// Tasks are the operations maintenance drives. Pool may be nil when no
// database is configured; cleanup is then skipped.
type Tasks struct {
	Refresh   func(ctx context.Context) error
	Recompute func()
	Pool      *pgxpool.Pool
}

// ValidateSpec reports whether spec is a valid 5-field cron expression.
func ValidateSpec(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}

// Start launches all configured tasks. Blocks until ctx is cancelled.
// Intended to be called with `go`; an invalid cron spec is returned before
// anything starts.
func Start(ctx context.Context, tasks Tasks, cfg Config, logger *slog.Logger) error {
	scheduler := cron.New(cron.WithLocation(time.UTC))
	if cfg.RefreshSpec != "" && tasks.Refresh != nil {
		if err := ValidateSpec(cfg.RefreshSpec); err != nil {
			return err
		}
		_, err := scheduler.AddFunc(cfg.RefreshSpec, func() {
			start := time.Now()
			if err := tasks.Refresh(ctx); err != nil {
				logger.Warn("Scheduled refresh failed", "error", err)
				return
			}
			logger.Info("Scheduled refresh complete", "duration", time.Since(start).Round(time.Millisecond))
		})
		if err != nil {
			return fmt.Errorf("schedule refresh: %w", err)
		}
	}

	logger.Info("Maintenance started",
		"refresh", cfg.RefreshSpec,
		"recompute", cfg.RecomputeInterval,
		"cleanup", cfg.CleanupInterval)

	scheduler.Start()
	defer func() {
		<-scheduler.Stop().Done()
	}()

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if cfg.RecomputeInterval > 0 && tasks.Recompute != nil {
		t := time.NewTicker(cfg.RecomputeInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, tasks.Recompute)
	}

	if cfg.CleanupInterval > 0 && tasks.Pool != nil {
		t := time.NewTicker(cfg.CleanupInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { cleanup(ctx, tasks.Pool, cfg, logger) })
	}

	<-ctx.Done()
	logger.Info("Maintenance stopped")
	return nil
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}
