package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrec/gympush/internal/store"
	"github.com/openrec/gympush/internal/subscription"
)

func TestCollectStats_ClassifiesKeysByPrefix(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	putSubscriber(t, mem, "https://push.example/a", subscription.Prefs{ThirtyMin: true, DailyBriefing: true, DailyBriefingHour: 9})
	putSubscriber(t, mem, "https://push.example/b", subscription.Prefs{CancelAlerts: true, Sports: []string{"basketball", "volleyball"}})
	require.NoError(t, mem.Put(ctx, store.MarkerPrefix+"2026-08-28:Friday:9:00 AM:thirty-min", []byte(`"1"`), MarkerTTL))
	require.NoError(t, mem.Put(ctx, store.OccupancyKey, []byte(`{"level":"busy"}`), 0))

	stats, err := CollectStats(ctx, mem, 50)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Subscribers)
	assert.Equal(t, 1, stats.IdempotencyKeys)
	assert.Equal(t, 1, stats.ByPref.ThirtyMin)
	assert.Equal(t, 1, stats.ByPref.DailyBriefing)
	assert.Equal(t, 1, stats.ByPref.CancelAlerts)
	assert.Equal(t, map[string]int{"9": 1}, stats.ByPref.BriefingHours)
	assert.Equal(t, map[string]int{"basketball": 1, "volleyball": 1}, stats.ByPref.Sports)
}

func TestCollectStats_MalformedRecordStillCountsTowardTotal(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	putSubscriber(t, mem, "https://push.example/a", subscription.Prefs{ThirtyMin: true})
	corrupt := subscription.DeriveKey("https://push.example/corrupt")
	require.NoError(t, mem.Put(ctx, corrupt, []byte("{broken"), 0))

	stats, err := CollectStats(ctx, mem, 50)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Subscribers, "raw total includes the corrupt record")
	assert.Equal(t, 1, stats.ByPref.ThirtyMin, "breakdown excludes it")
}

func TestCollectStats_PaginatesBeyondOnePage(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		putSubscriber(t, mem, "https://push.example/sub-"+string(rune('a'+i)), subscription.Prefs{ThirtyMin: true})
	}

	stats, err := CollectStats(ctx, mem, 2)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.Subscribers)
	assert.Equal(t, 7, stats.ByPref.ThirtyMin)
}
