// Package catalog is the single source of truth for sport identifiers.
// The UI filter list, the cron trigger evaluator, and the preference
// predicate all import this package so the three never drift apart.
package catalog

import "strings"

// Sport describes one activity category in the published schedule.
type Sport struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	// patterns are lowercase substrings matched against schedule activity
	// names. First catalog entry that matches wins.
	patterns []string
}

// Sports lists every supported sport, in UI display order.
var Sports = []Sport{
	{ID: "basketball", Label: "Basketball", patterns: []string{"basketball"}},
	{ID: "volleyball", Label: "Volleyball", patterns: []string{"volleyball"}},
	{ID: "badminton", Label: "Badminton", patterns: []string{"badminton"}},
	{ID: "pickleball", Label: "Pickleball", patterns: []string{"pickleball"}},
	{ID: "futsal", Label: "Futsal", patterns: []string{"futsal", "indoor soccer"}},
	{ID: "tabletennis", Label: "Table Tennis", patterns: []string{"table tennis", "ping pong"}},
}

// IDs returns all sport ids in catalog order.
func IDs() []string {
	ids := make([]string, len(Sports))
	for i, s := range Sports {
		ids[i] = s.ID
	}
	return ids
}

// ByID returns the sport for an id.
func ByID(id string) (Sport, bool) {
	for _, s := range Sports {
		if s.ID == id {
			return s, true
		}
	}
	return Sport{}, false
}

// Valid reports whether id is a known sport id.
func Valid(id string) bool {
	_, ok := ByID(id)
	return ok
}

// MatchActivity resolves a schedule activity name to a sport by substring
// pattern. Returns false for activities outside the catalog (e.g. classes,
// open gym blocks).
func MatchActivity(name string) (Sport, bool) {
	lower := strings.ToLower(name)
	for _, s := range Sports {
		for _, p := range s.patterns {
			if strings.Contains(lower, p) {
				return s, true
			}
		}
	}
	return Sport{}, false
}
