package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_PutGetDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "k", []byte(`"v"`), 0))

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"v"`), got)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_OverwriteWins(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, "k", []byte(`"old"`), 0))
	require.NoError(t, m.Put(ctx, "k", []byte(`"new"`), 0))

	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`"new"`), got)
}

func TestMemory_PutIfAbsent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	wrote, err := m.PutIfAbsent(ctx, "marker", []byte(`"1"`), time.Hour)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = m.PutIfAbsent(ctx, "marker", []byte(`"1"`), time.Hour)
	require.NoError(t, err)
	assert.False(t, wrote, "second writer loses")
}

func TestMemory_ExpiredKeyIsAbsent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	now := time.Now()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Put(ctx, "marker", []byte(`"1"`), time.Hour))

	m.now = func() time.Time { return now.Add(2 * time.Hour) }

	_, err := m.Get(ctx, "marker")
	assert.ErrorIs(t, err, ErrNotFound)

	wrote, err := m.PutIfAbsent(ctx, "marker", []byte(`"1"`), time.Hour)
	require.NoError(t, err)
	assert.True(t, wrote, "expired marker no longer blocks acceptance")

	page, err := m.List(ctx, "", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"marker"}, page.Keys)
}

func TestMemory_ListPaginatesInKeyOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, m.Put(ctx, fmt.Sprintf("key-%d", i), []byte(`"v"`), 0))
	}

	page, err := m.List(ctx, "", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"key-0", "key-1"}, page.Keys)
	assert.False(t, page.Complete)

	page, err = m.List(ctx, page.Cursor, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"key-2", "key-3"}, page.Keys)
	assert.False(t, page.Complete)

	page, err = m.List(ctx, page.Cursor, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"key-4"}, page.Keys)
	assert.True(t, page.Complete)
}

func TestForEachPage_DrivesListingToCompletion(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	for i := 0; i < 9; i++ {
		require.NoError(t, m.Put(ctx, fmt.Sprintf("key-%d", i), []byte(`"v"`), 0))
	}

	var seen []string
	err := ForEachPage(ctx, m, 4, func(keys []string) error {
		seen = append(seen, keys...)
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 9)
}

func TestIsSubscriberKey(t *testing.T) {
	assert.True(t, IsSubscriberKey("a1b2c3"))
	assert.False(t, IsSubscriberKey(MarkerPrefix+"2026-08-28:Friday:x:thirty-min"))
	assert.False(t, IsSubscriberKey(OccupancyKey))
}
