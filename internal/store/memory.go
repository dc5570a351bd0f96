package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// Memory is an in-process Store with the same contract as Postgres,
// including conditional puts and keyset pagination. Used by tests and the
// --dev server mode.
type Memory struct {
	mu      sync.Mutex
	records map[string]memEntry
	now     func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]memEntry), now: time.Now}
}

func (m *Memory) live(e memEntry) bool {
	return e.expiresAt.IsZero() || e.expiresAt.After(m.now())
}

func (m *Memory) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.records[key] = e
	return nil
}

func (m *Memory) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.records[key]; ok && m.live(e) {
		return false, nil
	}
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.records[key] = e
	return true, nil
}

func (m *Memory) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.records[key]
	if !ok || !m.live(e) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, key)
	return nil
}

func (m *Memory) List(ctx context.Context, cursor string, limit int) (Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.records))
	for k, e := range m.records {
		if k > cursor && m.live(e) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var page Page
	if len(keys) > limit {
		keys = keys[:limit]
	}
	page.Keys = keys
	if len(keys) < limit {
		page.Complete = true
	} else {
		page.Cursor = keys[len(keys)-1]
	}
	return page, nil
}
