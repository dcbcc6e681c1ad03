// Package db provides a pgxpool-based connection pool with schema bootstrap,
// prepared statement registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/eventclock/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New bootstraps the schema, then creates and validates a connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	// Statements are prepared against the tables, so they must exist first.
	if err := bootstrap(ctx, poolCfg.ConnConfig); err != nil {
		return nil, err
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

func bootstrap(ctx context.Context, connCfg *pgx.ConnConfig) error {
	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return fmt.Errorf("connect for schema: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS scheduled_notifications (
	identifier  TEXT PRIMARY KEY,
	event_id    TEXT NOT NULL,
	lead_time   TEXT NOT NULL,
	trigger_at  TIMESTAMPTZ NOT NULL,
	title       TEXT NOT NULL,
	body        TEXT NOT NULL,
	data        JSONB NOT NULL DEFAULT '{}'::jsonb,
	status      TEXT NOT NULL DEFAULT 'scheduled',
	last_error  TEXT,
	sent_at     TIMESTAMPTZ,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS scheduled_notifications_due
	ON scheduled_notifications (trigger_at) WHERE status = 'scheduled';

CREATE TABLE IF NOT EXISTS user_devices (
	token       TEXT PRIMARY KEY,
	platform    TEXT NOT NULL DEFAULT '',
	is_active   BOOLEAN NOT NULL DEFAULT true,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

// registerPreparedStatements registers all statements the API and the
// notification platform use.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Notification platform
		"upsert_scheduled_notification": `INSERT INTO scheduled_notifications
			(identifier, event_id, lead_time, trigger_at, title, body, data, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, 'scheduled')
			ON CONFLICT (identifier) DO UPDATE SET
				event_id = EXCLUDED.event_id, lead_time = EXCLUDED.lead_time,
				trigger_at = EXCLUDED.trigger_at, title = EXCLUDED.title,
				body = EXCLUDED.body, data = EXCLUDED.data,
				status = 'scheduled', last_error = NULL, updated_at = NOW()`,
		"cancel_scheduled_notification": "DELETE FROM scheduled_notifications WHERE identifier = $1 AND status = 'scheduled'",
		"list_scheduled_notifications":  "SELECT identifier, event_id, lead_time, trigger_at, title, body FROM scheduled_notifications WHERE status = 'scheduled' ORDER BY trigger_at, identifier",

		// Devices
		"has_active_devices":       "SELECT EXISTS (SELECT 1 FROM user_devices WHERE is_active)",
		"get_active_device_tokens": "SELECT token FROM user_devices WHERE is_active ORDER BY token",
		"upsert_user_device": `INSERT INTO user_devices (token, platform, is_active) VALUES ($1, $2, true)
			ON CONFLICT (token) DO UPDATE SET platform = EXCLUDED.platform, is_active = true, updated_at = NOW()`,
		"deactivate_user_devices": "UPDATE user_devices SET is_active = false, updated_at = NOW() WHERE token = ANY($1)",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
