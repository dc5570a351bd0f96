// Package notify implements the push notification fan-out: the preference
// predicate, the idempotent fan-out engine, and the stats aggregator.
//
// Pipeline: trigger builds a Job → engine claims the idempotency marker →
// paginate the store → predicate filter → concurrent push delivery →
// outcome classification → cleanup of dead endpoints.
package notify

import "time"

// MarkerTTL bounds how long an accepted trigger suppresses re-sends. After
// expiry the same logical trigger may fire again only if re-derived.
const MarkerTTL = 2 * time.Hour

// Channel identifies a notification category. The predicate and the
// idempotency key derivation both switch on it.
type Channel string

const (
	ChannelThirtyMin     Channel = "thirty-min"
	ChannelDailyBriefing Channel = "daily-briefing"
	ChannelSlotFreed     Channel = "slot-freed"
)

// Payload is the rendered notification content handed to the push
// transport. URL is the deep link opened on tap.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
	URL   string `json:"url"`
}

// Context carries the targeting parameters the predicate matches against.
type Context struct {
	SportID string
	ETHour  *int
}

// Job is one fan-out unit. Never persisted. Multi-activity triggers run one
// Job per activity, each with its own idempotency key.
type Job struct {
	Payload        Payload
	Channel        Channel
	Context        Context
	IdempotencyKey string
}

// Result aggregates delivery outcomes for one fan-out.
type Result struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Cleaned int `json:"cleaned"`
	Failed  int `json:"failed"`
}
