// Package subscription defines the stored subscriber record and the single
// normalization/validation path used by every write (subscribe and update).
package subscription

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/openrec/gympush/internal/catalog"
)

// BriefingHours is the closed set of selectable daily briefing hours (ET).
var BriefingHours = []int{7, 8, 9, 10}

// DefaultBriefingHour is applied when a subscriber never picked an hour.
const DefaultBriefingHour = 8

// Keys holds the push-transport credentials. Opaque to this service.
type Keys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// Prefs is a subscriber's notification preference set.
//
// Sports empty means "no per-sport alerts". CancelAlertSports empty means
// "all sports" — the asymmetry is deliberate and relied on by the predicate.
type Prefs struct {
	ThirtyMin         bool     `json:"thirtyMin"`
	DailyBriefing     bool     `json:"dailyBriefing"`
	DailyBriefingHour int      `json:"dailyBriefingHour"`
	Sports            []string `json:"sports"`
	CancelAlerts      bool     `json:"cancelAlerts"`
	CancelAlertSports []string `json:"cancelAlertSports,omitempty"`
}

// PrefsPatch is a partial preference update. Nil fields are left unchanged.
type PrefsPatch struct {
	ThirtyMin         *bool     `json:"thirtyMin"`
	DailyBriefing     *bool     `json:"dailyBriefing"`
	DailyBriefingHour *int      `json:"dailyBriefingHour"`
	Sports            *[]string `json:"sports"`
	CancelAlerts      *bool     `json:"cancelAlerts"`
	CancelAlertSports *[]string `json:"cancelAlertSports"`
}

// Subscriber is one stored record per distinct push endpoint.
type Subscriber struct {
	Endpoint     string    `json:"endpoint"`
	Keys         Keys      `json:"keys"`
	Prefs        Prefs     `json:"prefs"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// DeriveKey returns the storage key for an endpoint. The endpoint URL is
// potentially sensitive, so lookups always go through this one-way hash.
func DeriveKey(endpoint string) string {
	sum := sha256.Sum256([]byte(endpoint))
	return hex.EncodeToString(sum[:])
}

// ValidBriefingHour reports whether h is a selectable briefing hour.
func ValidBriefingHour(h int) bool {
	for _, v := range BriefingHours {
		if v == h {
			return true
		}
	}
	return false
}

// Normalize applies defaults and validates a full preference set. A zero
// DailyBriefingHour gets the default; any other out-of-range hour is
// rejected, not clamped. Unknown sport ids are rejected too: silently
// dropping them would turn an all-invalid CancelAlertSports list into the
// empty list, which the predicate reads as the all-sports wildcard.
func Normalize(p Prefs) (Prefs, error) {
	if p.DailyBriefingHour == 0 {
		p.DailyBriefingHour = DefaultBriefingHour
	}
	if !ValidBriefingHour(p.DailyBriefingHour) {
		return Prefs{}, fmt.Errorf("dailyBriefingHour must be one of %v, got %d", BriefingHours, p.DailyBriefingHour)
	}
	if err := validateSports("sports", p.Sports); err != nil {
		return Prefs{}, err
	}
	if err := validateSports("cancelAlertSports", p.CancelAlertSports); err != nil {
		return Prefs{}, err
	}
	return p, nil
}

// Apply merges a partial update onto existing preferences and re-runs
// normalization, so defaults and validation live in exactly one place.
func Apply(base Prefs, patch PrefsPatch) (Prefs, error) {
	if patch.ThirtyMin != nil {
		base.ThirtyMin = *patch.ThirtyMin
	}
	if patch.DailyBriefing != nil {
		base.DailyBriefing = *patch.DailyBriefing
	}
	if patch.DailyBriefingHour != nil {
		base.DailyBriefingHour = *patch.DailyBriefingHour
	}
	if patch.Sports != nil {
		base.Sports = *patch.Sports
	}
	if patch.CancelAlerts != nil {
		base.CancelAlerts = *patch.CancelAlerts
	}
	if patch.CancelAlertSports != nil {
		base.CancelAlertSports = *patch.CancelAlertSports
	}
	return Normalize(base)
}

func validateSports(field string, ids []string) error {
	for _, id := range ids {
		if !catalog.Valid(id) {
			return fmt.Errorf("%s contains unknown sport id %q", field, id)
		}
	}
	return nil
}
