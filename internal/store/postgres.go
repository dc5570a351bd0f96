package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores records in a single kv_records table. Statements are
// prepared per-connection by internal/db; expired rows are invisible to
// reads and listings and purged by the maintenance ticker.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres wraps an initialized pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func expiry(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := time.Now().Add(ttl)
	return &t
}

// Put upserts a record.
func (s *Postgres) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if _, err := s.pool.Exec(ctx, "kv_put", key, value, expiry(ttl)); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

// PutIfAbsent writes only when the key is absent or its row has expired.
// The conditional upsert is a single statement, so two racing writers for
// the same key see exactly one accepted write.
func (s *Postgres) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	tag, err := s.pool.Exec(ctx, "kv_put_absent", key, value, expiry(ttl))
	if err != nil {
		return false, fmt.Errorf("put-if-absent %q: %w", key, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Get returns the stored value or ErrNotFound.
func (s *Postgres) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.pool.QueryRow(ctx, "kv_get", key).Scan(&value)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return value, nil
}

// Delete removes a record. Deleting an absent key is not an error.
func (s *Postgres) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, "kv_delete", key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// List pages keys with keyset pagination ordered by key.
func (s *Postgres) List(ctx context.Context, cursor string, limit int) (Page, error) {
	rows, err := s.pool.Query(ctx, "kv_list", cursor, limit)
	if err != nil {
		return Page{}, fmt.Errorf("list after %q: %w", cursor, err)
	}
	defer rows.Close()

	var page Page
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return Page{}, fmt.Errorf("scan key: %w", err)
		}
		page.Keys = append(page.Keys, k)
	}
	if err := rows.Err(); err != nil {
		return Page{}, fmt.Errorf("list after %q: %w", cursor, err)
	}

	if len(page.Keys) < limit {
		page.Complete = true
	} else {
		page.Cursor = page.Keys[len(page.Keys)-1]
	}
	return page, nil
}

// PurgeExpired deletes rows past their expiry. Called by maintenance.
func (s *Postgres) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, "kv_purge_expired")
	if err != nil {
		return 0, fmt.Errorf("purge expired: %w", err)
	}
	return tag.RowsAffected(), nil
}
