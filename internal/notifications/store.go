package notifications

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Reminder lifecycle in scheduled_notifications:
// scheduled → sending (claimed by a dispatcher) → sent | failed.
const (
	statusScheduled = "scheduled"
	statusSending   = "sending"
	statusSent      = "sent"
	statusFailed    = "failed"
)

// PgPlatform is a Platform backed by the scheduled_notifications table.
// Delivery happens in the dispatch worker.
type PgPlatform struct {
	pool *pgxpool.Pool
}

// NewPgPlatform wraps a pool whose connections have the notification
// statements prepared.
func NewPgPlatform(pool *pgxpool.Pool) *PgPlatform {
	return &PgPlatform{pool: pool}
}

// Schedule upserts a reminder by identifier.
func (p *PgPlatform) Schedule(ctx context.Context, d Desired) error {
	_, err := p.pool.Exec(ctx, "upsert_scheduled_notification",
		d.Identifier(), d.Key.EventID, string(d.Key.LeadTime), d.TriggerAt,
		d.Payload.Title, d.Payload.Body, d.Payload.Data,
	)
	if err != nil {
		return fmt.Errorf("schedule %s: %w", d.Identifier(), err)
	}
	return nil
}

// Cancel deletes a pending reminder. Missing or already-delivered rows are
// left alone.
func (p *PgPlatform) Cancel(ctx context.Context, identifier string) error {
	if _, err := p.pool.Exec(ctx, "cancel_scheduled_notification", identifier); err != nil {
		return fmt.Errorf("cancel %s: %w", identifier, err)
	}
	return nil
}

// ListScheduled returns reminders that have not been claimed for delivery.
func (p *PgPlatform) ListScheduled(ctx context.Context) ([]Scheduled, error) {
	rows, err := p.pool.Query(ctx, "list_scheduled_notifications")
	if err != nil {
		return nil, fmt.Errorf("list scheduled: %w", err)
	}
	defer rows.Close()

	out := make([]Scheduled, 0)
	for rows.Next() {
		var s Scheduled
		var lead string
		if err := rows.Scan(&s.Identifier, &s.EventID, &lead, &s.TriggerAt, &s.Title, &s.Body); err != nil {
			return nil, fmt.Errorf("scan scheduled: %w", err)
		}
		s.LeadTime = LeadTime(lead)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Authorized reports whether at least one active device is registered.
func (p *PgPlatform) Authorized(ctx context.Context) (bool, error) {
	var ok bool
	if err := p.pool.QueryRow(ctx, "has_active_devices").Scan(&ok); err != nil {
		return false, fmt.Errorf("check devices: %w", err)
	}
	return ok, nil
}

// --------------------------------------------------------------------------
// Devices
// --------------------------------------------------------------------------

// RegisterDevice upserts an active device token.
func RegisterDevice(ctx context.Context, pool *pgxpool.Pool, token, platform string) error {
	if token == "" {
		return errors.New("empty device token")
	}
	_, err := pool.Exec(ctx, "upsert_user_device", token, platform)
	if err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	return nil
}

// DeactivateDevices marks tokens inactive (for example after FCM reports
// them unregistered).
func DeactivateDevices(ctx context.Context, pool *pgxpool.Pool, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	_, err := pool.Exec(ctx, "deactivate_user_devices", tokens)
	return err
}

func getDeviceTokens(ctx context.Context, pool *pgxpool.Pool) ([]string, error) {
	rows, err := pool.Query(ctx, "get_active_device_tokens")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, ErrPermissionDenied
	}
	return tokens, nil
}

// --------------------------------------------------------------------------
// Dispatch
// --------------------------------------------------------------------------

// claimedRow is an internal type for claimed reminder rows.
type claimedRow struct {
	Identifier string
	Title      string
	Body       string
	Data       map[string]string
}

// ClaimDue atomically claims a batch of due reminders for sending.
// Uses FOR UPDATE SKIP LOCKED for safe concurrent dispatch.
func ClaimDue(ctx context.Context, pool *pgxpool.Pool) ([]claimedRow, error) {
	rows, err := pool.Query(ctx, `
		UPDATE scheduled_notifications
		SET status = $2, updated_at = NOW()
		WHERE identifier IN (
			SELECT identifier FROM scheduled_notifications
			WHERE status = $3 AND trigger_at <= NOW()
			ORDER BY trigger_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING identifier, title, body, data`,
		dispatchBatchSize, statusSending, statusScheduled,
	)
	if err != nil {
		return nil, fmt.Errorf("claim due reminders: %w", err)
	}
	defer rows.Close()

	var claimed []claimedRow
	for rows.Next() {
		var r claimedRow
		if err := rows.Scan(&r.Identifier, &r.Title, &r.Body, &r.Data); err != nil {
			return nil, fmt.Errorf("scan claimed: %w", err)
		}
		claimed = append(claimed, r)
	}
	return claimed, rows.Err()
}

// MarkSent marks a reminder as delivered.
func MarkSent(ctx context.Context, pool *pgxpool.Pool, identifier string) error {
	_, err := pool.Exec(ctx, `
		UPDATE scheduled_notifications SET status = $2, sent_at = NOW(), updated_at = NOW()
		WHERE identifier = $1`, identifier, statusSent)
	return err
}

// MarkFailed marks a reminder as failed.
func MarkFailed(ctx context.Context, pool *pgxpool.Pool, identifier, reason string) error {
	_, err := pool.Exec(ctx, `
		UPDATE scheduled_notifications SET status = $3, last_error = $2, updated_at = NOW()
		WHERE identifier = $1`, identifier, reason, statusFailed)
	return err
}

// PurgeDelivered removes sent and failed reminders older than age.
func PurgeDelivered(ctx context.Context, pool *pgxpool.Pool, age time.Duration) (int64, error) {
	tag, err := pool.Exec(ctx, `
		DELETE FROM scheduled_notifications
		WHERE status IN ($1, $2)
		  AND updated_at < $3`,
		statusSent, statusFailed, time.Now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("purge delivered: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ReleaseStuck returns reminders left in the sending state by a crashed
// dispatcher to the scheduled state.
func ReleaseStuck(ctx context.Context, pool *pgxpool.Pool, age time.Duration) (int64, error) {
	tag, err := pool.Exec(ctx, `
		UPDATE scheduled_notifications SET status = $1, updated_at = NOW()
		WHERE status = $2 AND updated_at < $3`,
		statusScheduled, statusSending, time.Now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("release stuck: %w", err)
	}
	return tag.RowsAffected(), nil
}
