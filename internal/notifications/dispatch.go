package notifications

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// StartWorker runs a background loop that sends due reminders.
// Blocks until ctx is cancelled. Intended to be called with `go`.
func StartWorker(ctx context.Context, pool *pgxpool.Pool, sender Sender, logger *slog.Logger) {
	logger.Info("Reminder dispatch worker started", "interval", dispatchInterval)
	ticker := time.NewTicker(dispatchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sent, failed, err := dispatchBatch(ctx, pool, sender, logger)
			if err != nil {
				logger.Error("dispatch error", "error", err)
			} else if sent+failed > 0 {
				logger.Info("dispatch batch", "sent", sent, "failed", failed)
			}
		case <-ctx.Done():
			logger.Info("Reminder dispatch worker stopped")
			return
		}
	}
}

func dispatchBatch(ctx context.Context, pool *pgxpool.Pool, sender Sender, logger *slog.Logger) (sent, failed int, err error) {
	claimed, err := ClaimDue(ctx, pool)
	if err != nil {
		return 0, 0, err
	}
	if len(claimed) == 0 {
		return 0, 0, nil
	}

	tokens, err := getDeviceTokens(ctx, pool)
	if err != nil {
		reason := "device lookup failed"
		if errors.Is(err, ErrPermissionDenied) {
			reason = "no device tokens"
		}
		logger.Warn("cannot dispatch reminders", "count", len(claimed), "error", err)
		for _, row := range claimed {
			_ = MarkFailed(ctx, pool, row.Identifier, reason)
		}
		return 0, len(claimed), nil
	}

	for _, row := range claimed {
		invalid, sendErr := sender.SendMulti(ctx, tokens, Payload{Title: row.Title, Body: row.Body, Data: row.Data})
		if len(invalid) > 0 {
			if err := DeactivateDevices(ctx, pool, invalid); err != nil {
				logger.Warn("deactivate devices failed", "error", err)
			}
		}
		if sendErr != nil {
			logger.Warn("send failed", "identifier", row.Identifier, "error", sendErr)
			_ = MarkFailed(ctx, pool, row.Identifier, sendErr.Error())
			failed++
			continue
		}
		_ = MarkSent(ctx, pool, row.Identifier)
		sent++
	}
	return sent, failed, nil
}
