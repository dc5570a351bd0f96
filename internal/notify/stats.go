package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openrec/gympush/internal/store"
	"github.com/openrec/gympush/internal/subscription"
)

// PrefBreakdown tabulates preference counts across parseable subscribers.
type PrefBreakdown struct {
	ThirtyMin         int            `json:"thirtyMin"`
	DailyBriefing     int            `json:"dailyBriefing"`
	CancelAlerts      int            `json:"cancelAlerts"`
	BriefingHours     map[string]int `json:"briefingHours"`
	Sports            map[string]int `json:"sports"`
	CancelAlertSports map[string]int `json:"cancelAlertSports"`
}

// Stats summarizes the whole store for observability.
type Stats struct {
	Subscribers     int           `json:"subscribers"`
	IdempotencyKeys int           `json:"idempotencyKeys"`
	ByPref          PrefBreakdown `json:"byPref"`
}

// CollectStats paginates the full store once, classifying keys by prefix.
// Malformed subscriber records still count toward the raw subscriber total
// but are excluded from the preference breakdown.
func CollectStats(ctx context.Context, s store.Store, pageSize int) (Stats, error) {
	stats := Stats{
		ByPref: PrefBreakdown{
			BriefingHours:     make(map[string]int),
			Sports:            make(map[string]int),
			CancelAlertSports: make(map[string]int),
		},
	}

	err := store.ForEachPage(ctx, s, pageSize, func(keys []string) error {
		for _, key := range keys {
			if strings.HasPrefix(key, store.MarkerPrefix) {
				stats.IdempotencyKeys++
				continue
			}
			if !store.IsSubscriberKey(key) {
				continue
			}
			stats.Subscribers++

			raw, err := s.Get(ctx, key)
			if err != nil {
				continue
			}
			var sub subscription.Subscriber
			if err := json.Unmarshal(raw, &sub); err != nil {
				continue
			}
			tally(&stats.ByPref, sub.Prefs)
		}
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("collect stats: %w", err)
	}
	return stats, nil
}

func tally(b *PrefBreakdown, p subscription.Prefs) {
	if p.ThirtyMin {
		b.ThirtyMin++
	}
	if p.DailyBriefing {
		b.DailyBriefing++
		b.BriefingHours[fmt.Sprintf("%d", p.DailyBriefingHour)]++
	}
	if p.CancelAlerts {
		b.CancelAlerts++
	}
	for _, id := range p.Sports {
		b.Sports[id]++
	}
	for _, id := range p.CancelAlertSports {
		b.CancelAlertSports[id]++
	}
}
