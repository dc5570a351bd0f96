package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openrec/gympush/internal/subscription"
)

func subWithPrefs(p subscription.Prefs) subscription.Subscriber {
	return subscription.Subscriber{Endpoint: "https://push.example/x", Prefs: p}
}

func intPtr(n int) *int { return &n }

func TestAllowed_ThirtyMinWithoutSport(t *testing.T) {
	assert.True(t, Allowed(subWithPrefs(subscription.Prefs{ThirtyMin: true}), ChannelThirtyMin, Context{}))
	assert.False(t, Allowed(subWithPrefs(subscription.Prefs{ThirtyMin: false}), ChannelThirtyMin, Context{}))
}

func TestAllowed_ThirtyMinWithSportIgnoresGeneralFlag(t *testing.T) {
	sub := subWithPrefs(subscription.Prefs{ThirtyMin: true, Sports: []string{"volleyball"}})
	assert.False(t, Allowed(sub, ChannelThirtyMin, Context{SportID: "basketball"}))

	sub = subWithPrefs(subscription.Prefs{ThirtyMin: false, Sports: []string{"basketball"}})
	assert.True(t, Allowed(sub, ChannelThirtyMin, Context{SportID: "basketball"}))
}

func TestAllowed_ThirtyMinEmptySportsMeansNoSportAlerts(t *testing.T) {
	sub := subWithPrefs(subscription.Prefs{ThirtyMin: true})
	assert.False(t, Allowed(sub, ChannelThirtyMin, Context{SportID: "basketball"}))
}

func TestAllowed_DailyBriefingHourMatch(t *testing.T) {
	sub := subWithPrefs(subscription.Prefs{DailyBriefing: true, DailyBriefingHour: 9})

	assert.True(t, Allowed(sub, ChannelDailyBriefing, Context{}), "no hour in context matches any hour")
	assert.True(t, Allowed(sub, ChannelDailyBriefing, Context{ETHour: intPtr(9)}))
	assert.False(t, Allowed(sub, ChannelDailyBriefing, Context{ETHour: intPtr(8)}))

	off := subWithPrefs(subscription.Prefs{DailyBriefing: false, DailyBriefingHour: 9})
	assert.False(t, Allowed(off, ChannelDailyBriefing, Context{ETHour: intPtr(9)}))
}

func TestAllowed_SlotFreedEmptyListIsAllSportsWildcard(t *testing.T) {
	sub := subWithPrefs(subscription.Prefs{CancelAlerts: true, CancelAlertSports: []string{}})

	assert.True(t, Allowed(sub, ChannelSlotFreed, Context{SportID: "basketball"}))
	assert.True(t, Allowed(sub, ChannelSlotFreed, Context{SportID: "volleyball"}))
	assert.True(t, Allowed(sub, ChannelSlotFreed, Context{}))
}

func TestAllowed_SlotFreedAbsentListOnLegacyRecordIsWildcard(t *testing.T) {
	// Legacy records predate cancelAlertSports entirely; nil must behave
	// like the empty list.
	sub := subWithPrefs(subscription.Prefs{CancelAlerts: true, CancelAlertSports: nil})
	assert.True(t, Allowed(sub, ChannelSlotFreed, Context{SportID: "pickleball"}))
}

func TestAllowed_SlotFreedNarrowedList(t *testing.T) {
	sub := subWithPrefs(subscription.Prefs{CancelAlerts: true, CancelAlertSports: []string{"basketball"}})

	assert.True(t, Allowed(sub, ChannelSlotFreed, Context{SportID: "basketball"}))
	assert.False(t, Allowed(sub, ChannelSlotFreed, Context{SportID: "volleyball"}))
	assert.True(t, Allowed(sub, ChannelSlotFreed, Context{}), "no-sport context always matches")
}

func TestAllowed_SlotFreedRequiresCancelAlerts(t *testing.T) {
	sub := subWithPrefs(subscription.Prefs{CancelAlerts: false, CancelAlertSports: []string{"basketball"}})
	assert.False(t, Allowed(sub, ChannelSlotFreed, Context{SportID: "basketball"}))
	assert.False(t, Allowed(sub, ChannelSlotFreed, Context{}))
}

func TestAllowed_UnknownChannel(t *testing.T) {
	sub := subWithPrefs(subscription.Prefs{ThirtyMin: true, DailyBriefing: true, CancelAlerts: true})
	assert.False(t, Allowed(sub, Channel("bogus"), Context{}))
}
