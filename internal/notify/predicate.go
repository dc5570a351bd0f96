package notify

import "github.com/openrec/gympush/internal/subscription"

// Allowed decides whether a subscriber should receive a notification on the
// given channel with the given targeting context. Pure, no I/O.
//
// An empty CancelAlertSports list (including the field being absent on
// legacy records) means every sport is allowed — the opposite of Sports,
// where empty means no sport alerts at all.
func Allowed(sub subscription.Subscriber, ch Channel, ctx Context) bool {
	switch ch {
	case ChannelThirtyMin:
		if ctx.SportID != "" {
			return contains(sub.Prefs.Sports, ctx.SportID)
		}
		return sub.Prefs.ThirtyMin

	case ChannelDailyBriefing:
		if !sub.Prefs.DailyBriefing {
			return false
		}
		return ctx.ETHour == nil || *ctx.ETHour == sub.Prefs.DailyBriefingHour

	case ChannelSlotFreed:
		if !sub.Prefs.CancelAlerts {
			return false
		}
		if ctx.SportID == "" || len(sub.Prefs.CancelAlertSports) == 0 {
			return true
		}
		return contains(sub.Prefs.CancelAlertSports, ctx.SportID)
	}
	return false
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
