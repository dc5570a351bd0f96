// Package db provides a pgxpool-based connection pool with prepared
// statement registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openrec/gympush/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// schema is the full persistent surface: one key/value table. Applied
// idempotently on startup, before any connection prepares statements
// against it.
const schema = `
CREATE TABLE IF NOT EXISTS kv_records (
	key        text PRIMARY KEY,
	value      jsonb NOT NULL,
	expires_at timestamptz
);
CREATE INDEX IF NOT EXISTS kv_records_expires_at_idx
	ON kv_records (expires_at) WHERE expires_at IS NOT NULL;
`

// New ensures the schema exists, then creates and validates a pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if err := ensureSchema(ctx, cfg.DatabaseURL); err != nil {
		return nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
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

// ensureSchema applies DDL over a dedicated connection so the pool's
// AfterConnect hook never prepares statements against missing tables.
func ensureSchema(ctx context.Context, dbURL string) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect for schema: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// registerPreparedStatements registers all statements the store and
// maintenance layers use. Prepared statements eliminate parse overhead on
// every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// KV store. Expired rows count as absent everywhere; the
		// maintenance purge removes them physically.
		"kv_put": `
			INSERT INTO kv_records (key, value, expires_at) VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET value = $2, expires_at = $3`,
		"kv_put_absent": `
			INSERT INTO kv_records (key, value, expires_at) VALUES ($1, $2, $3)
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
			WHERE kv_records.expires_at IS NOT NULL AND kv_records.expires_at <= NOW()`,
		"kv_get": `
			SELECT value FROM kv_records
			WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())`,
		"kv_delete": "DELETE FROM kv_records WHERE key = $1",
		"kv_list": `
			SELECT key FROM kv_records
			WHERE key > $1 AND (expires_at IS NULL OR expires_at > NOW())
			ORDER BY key
			LIMIT $2`,

		// Maintenance
		"kv_purge_expired": `
			DELETE FROM kv_records
			WHERE expires_at IS NOT NULL AND expires_at <= NOW()`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
