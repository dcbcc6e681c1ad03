// Package listener provides a Postgres LISTEN/NOTIFY consumer that triggers
// an event refresh when the backend reports changed event data. It holds a
// dedicated pgx connection (not from the pool) listening on the
// `events_changed` channel.
//
// Notifications arriving while a refresh is running are coalesced into a
// single follow-up refresh.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	Channel          = "events_changed"
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// Refresher is implemented by the aggregator.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// ChangeEvent is the optional JSON payload of pg_notify('events_changed', ...).
type ChangeEvent struct {
	Source    string `json:"source"`
	Count     int    `json:"count"`
	Timestamp int64  `json:"ts"`
}

// Start opens a dedicated connection and listens on the events_changed
// channel. It reconnects automatically on connection loss. Blocks until ctx
// is cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, target Refresher, logger *slog.Logger) {
	pending := make(chan struct{}, 1)
	go refreshLoop(ctx, pending, target, logger)

	backoff := reconnectBackoff
	for {
		err := listenLoop(ctx, dbURL, pending, logger)
		if ctx.Err() != nil {
			logger.Info("Events listener stopped (context cancelled)")
			return
		}

		logger.Error("Events listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, pending chan<- struct{}, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	_, err = conn.Exec(ctx, "LISTEN "+Channel)
	if err != nil {
		return fmt.Errorf("LISTEN %s: %w", Channel, err)
	}
	logger.Info("Events listener connected", "channel", Channel)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		change := ParsePayload(notification.Payload)
		logger.Info("Events change received",
			"source", change.Source, "count", change.Count)
		Signal(pending)
	}
}

// ParsePayload decodes a notification payload. Empty or non-JSON payloads
// are accepted as a bare change signal.
func ParsePayload(payload string) ChangeEvent {
	var change ChangeEvent
	if payload == "" {
		return change
	}
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		return ChangeEvent{Source: payload}
	}
	return change
}

// Signal records a pending refresh without blocking.
func Signal(pending chan<- struct{}) {
	select {
	case pending <- struct{}{}:
	default:
	}
}

func refreshLoop(ctx context.Context, pending <-chan struct{}, target Refresher, logger *slog.Logger) {
	for {
		select {
		case <-pending:
			if err := target.Refresh(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("Refresh after change notification failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}
