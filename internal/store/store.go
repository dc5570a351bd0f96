// Package store provides durable key/value persistence for subscriber
// records and short-lived idempotency markers, with cursor pagination.
package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Key layout. Subscriber records are keyed by the endpoint hash (64 hex
// chars, no prefix); everything else carries a prefix so scans can classify
// keys without reading values.
const (
	MarkerPrefix = "idempotent:"
	OccupancyKey = "occupancy:current"
)

// ErrNotFound is returned by Get for absent or expired keys.
var ErrNotFound = errors.New("record not found")

// Page is one slice of a full key listing.
type Page struct {
	Keys     []string
	Cursor   string
	Complete bool
}

// Store is the key/value contract shared by the Postgres and in-memory
// implementations. Writing an existing key overwrites; there is no
// uniqueness enforcement beyond key derivation. A zero ttl means no expiry.
type Store interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// PutIfAbsent writes only when the key is absent (or expired) and
	// reports whether the write happened. This is the atomic acceptance
	// check the fan-out engine's idempotency contract rests on.
	PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	// List returns at most limit keys after cursor, in key order. Callers
	// must loop until Complete — a single page is never the population.
	List(ctx context.Context, cursor string, limit int) (Page, error)
}

// IsSubscriberKey reports whether a listed key names a subscriber record.
func IsSubscriberKey(key string) bool {
	return !strings.Contains(key, ":")
}

// ForEachPage drives List to completion, handing each page of keys to fn.
// Every global operation (fan-out, stats) goes through here so pagination
// completeness is guaranteed in one place.
func ForEachPage(ctx context.Context, s Store, pageSize int, fn func(keys []string) error) error {
	cursor := ""
	for {
		page, err := s.List(ctx, cursor, pageSize)
		if err != nil {
			return err
		}
		if len(page.Keys) > 0 {
			if err := fn(page.Keys); err != nil {
				return err
			}
		}
		if page.Complete {
			return nil
		}
		cursor = page.Cursor
	}
}
