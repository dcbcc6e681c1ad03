package maintenance

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/eventclock/internal/notifications"
)

// cleanup purges delivered reminders past retention and releases claims
// left behind by a dispatcher that died mid-batch.
func cleanup(ctx context.Context, pool *pgxpool.Pool, cfg Config, logger *slog.Logger) {
	if cfg.DeliveredRetention > 0 {
		n, err := notifications.PurgeDelivered(ctx, pool, cfg.DeliveredRetention)
		if err != nil {
			logger.Warn("Cleanup: failed to purge delivered reminders", "error", err)
		} else if n > 0 {
			logger.Info("Cleanup: purged delivered reminders", "count", n)
		}
	}

	if cfg.StuckAfter > 0 {
		n, err := notifications.ReleaseStuck(ctx, pool, cfg.StuckAfter)
		if err != nil {
			logger.Warn("Cleanup: failed to release stuck reminders", "error", err)
		} else if n > 0 {
			logger.Info("Cleanup: released stuck reminders", "count", n)
		}
	}
}
