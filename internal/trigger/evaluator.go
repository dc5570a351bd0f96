// Package trigger decides when notifications fire: it turns schedule
// documents, cron ticks, and external /notify requests into fan-out jobs
// with deterministic idempotency keys.
package trigger

import (
	"fmt"
	"time"

	"github.com/openrec/gympush/internal/catalog"
	"github.com/openrec/gympush/internal/notify"
	"github.com/openrec/gympush/internal/schedule"
	"github.com/openrec/gympush/internal/store"
	"github.com/openrec/gympush/internal/subscription"
)

// Look-ahead window: an activity "starts soon" when its start time is
// between these many minutes from now.
const (
	WindowMinMinutes = 25
	WindowMaxMinutes = 35
)

// Gym opening hours in the gym's civil time. Outside them the cron path
// exits without fetching anything.
const (
	gymOpenHour  = 8
	gymCloseHour = 22
)

// Activity is a pre-filtered activity supplied by an external /notify
// caller, already known to start inside the look-ahead window.
type Activity struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	DayName string `json:"dayName"`
}

// Evaluator derives fan-out jobs. All time arithmetic happens in the gym's
// fixed civil time zone regardless of server time zone.
type Evaluator struct {
	loc    *time.Location
	origin string
}

// NewEvaluator resolves the gym time zone. origin is the application origin
// used for deep-link URLs embedded in notifications.
func NewEvaluator(tzName, origin string) (*Evaluator, error) {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load gym timezone %q: %w", tzName, err)
	}
	return &Evaluator{loc: loc, origin: origin}, nil
}

// Now returns the current instant in gym civil time.
func (e *Evaluator) Now() time.Time {
	return time.Now().In(e.loc)
}

// Location exposes the gym zone for callers anchoring clock strings.
func (e *Evaluator) Location() *time.Location {
	return e.loc
}

// WithinGymHours gates the cron path on the coarse opening-hours window.
func (e *Evaluator) WithinGymHours(now time.Time) bool {
	h := now.In(e.loc).Hour()
	return h >= gymOpenHour && h < gymCloseHour
}

// Key builds an idempotency marker key. It is a pure function of its
// inputs, so a retried cron invocation of the same logical moment collides
// with the existing marker.
func (e *Evaluator) Key(date time.Time, dayName, anchor string, ch notify.Channel) string {
	return fmt.Sprintf("%s%s:%s:%s:%s",
		store.MarkerPrefix, date.In(e.loc).Format("2006-01-02"), dayName, anchor, ch)
}

// SlotFreedKey keys a cancellation diff on its generation timestamp, so a
// stale diff file re-sent by the scraper cannot fan out twice.
func (e *Evaluator) SlotFreedKey(generatedAt string) string {
	return fmt.Sprintf("%sslot-freed:%s", store.MarkerPrefix, generatedAt)
}

// ScanThirtyMin scans today's schedule for activities starting inside the
// look-ahead window. Open-gym slots produce a sportless thirty-min job;
// other slots are matched against the sport catalog with at most one
// representative activity per sport id (first match wins).
func (e *Evaluator) ScanThirtyMin(doc *schedule.Document, now time.Time) []notify.Job {
	now = now.In(e.loc)
	dayName := now.Weekday().String()
	day, ok := doc.DayByName(dayName)
	if !ok {
		return nil
	}

	var jobs []notify.Job
	seen := make(map[string]bool)
	for _, slot := range day.Slots {
		start, err := schedule.SlotStart(now, slot, e.loc)
		if err != nil {
			continue
		}
		mins := start.Sub(now).Minutes()
		if mins < WindowMinMinutes || mins > WindowMaxMinutes {
			continue
		}

		if slot.OpenGym {
			jobs = append(jobs, notify.Job{
				Payload:        e.openGymPayload(slot, dayName),
				Channel:        notify.ChannelThirtyMin,
				IdempotencyKey: e.Key(now, dayName, slot.Start, notify.ChannelThirtyMin),
			})
			continue
		}

		sport, ok := catalog.MatchActivity(slot.Activity)
		if !ok || seen[sport.ID] {
			continue
		}
		seen[sport.ID] = true
		jobs = append(jobs, notify.Job{
			Payload:        e.sportPayload(sport, slot, dayName),
			Channel:        notify.ChannelThirtyMin,
			Context:        notify.Context{SportID: sport.ID},
			IdempotencyKey: e.Key(now, dayName, sport.ID+":"+slot.Start, notify.ChannelThirtyMin),
		})
	}
	return jobs
}

// Briefing returns the daily briefing job when now falls on a selectable
// briefing hour. An empty activity list for the day suppresses it entirely.
func (e *Evaluator) Briefing(doc *schedule.Document, now time.Time) (notify.Job, bool) {
	now = now.In(e.loc)
	hour := now.Hour()
	if !subscription.ValidBriefingHour(hour) {
		return notify.Job{}, false
	}

	dayName := now.Weekday().String()
	day, ok := doc.DayByName(dayName)
	if !ok || len(day.Slots) == 0 {
		return notify.Job{}, false
	}

	etHour := hour
	return notify.Job{
		Payload:        e.briefingPayload(day),
		Channel:        notify.ChannelDailyBriefing,
		Context:        notify.Context{ETHour: &etHour},
		IdempotencyKey: e.Key(now, dayName, fmt.Sprintf("briefing-%d", hour), notify.ChannelDailyBriefing),
	}, true
}

// ExternalThirtyMin shapes jobs for the HTTP trigger path. The caller has
// already filtered the activities to the window; one job per activity, each
// with its own idempotency key. sportID empty means the open-gym channel.
func (e *Evaluator) ExternalThirtyMin(activities []Activity, sportID, sportLabel string, now time.Time) []notify.Job {
	now = now.In(e.loc)
	var jobs []notify.Job
	for _, a := range activities {
		dayName := a.DayName
		if dayName == "" {
			dayName = now.Weekday().String()
		}

		job := notify.Job{
			Channel: notify.ChannelThirtyMin,
			Context: notify.Context{SportID: sportID},
		}
		if sportID == "" {
			job.Payload = e.openGymPayload(schedule.Slot{Start: a.Start, End: a.End, OpenGym: true}, dayName)
			job.IdempotencyKey = e.Key(now, dayName, a.Start, notify.ChannelThirtyMin)
		} else {
			label := sportLabel
			if label == "" {
				if s, ok := catalog.ByID(sportID); ok {
					label = s.Label
				}
			}
			job.Payload = e.sportPayload(catalog.Sport{ID: sportID, Label: label},
				schedule.Slot{Activity: label, Start: a.Start, End: a.End}, dayName)
			job.IdempotencyKey = e.Key(now, dayName, sportID+":"+a.Start, notify.ChannelThirtyMin)
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// SlotFreed builds the single cancellation job for a diff. sportID narrows
// targeting when the whole diff belongs to one sport; empty targets every
// cancel-alert subscriber.
func (e *Evaluator) SlotFreed(slots []schedule.FreedSlot, sportID, sportLabel, generatedAt string) notify.Job {
	return notify.Job{
		Payload:        e.slotFreedPayload(slots, sportLabel),
		Channel:        notify.ChannelSlotFreed,
		Context:        notify.Context{SportID: sportID},
		IdempotencyKey: e.SlotFreedKey(generatedAt),
	}
}

// --------------------------------------------------------------------------
// Payload rendering
// --------------------------------------------------------------------------

func (e *Evaluator) openGymPayload(slot schedule.Slot, dayName string) notify.Payload {
	body := fmt.Sprintf("Open gym starts at %s", slot.Start)
	if slot.End != "" {
		body = fmt.Sprintf("Open gym runs %s – %s", slot.Start, slot.End)
	}
	return notify.Payload{
		Title: "Open gym starts in about 30 minutes",
		Body:  body,
		Tag:   "thirty-min",
		URL:   e.dayURL(dayName),
	}
}

func (e *Evaluator) sportPayload(sport catalog.Sport, slot schedule.Slot, dayName string) notify.Payload {
	activity := slot.Activity
	if activity == "" {
		activity = sport.Label
	}
	return notify.Payload{
		Title: fmt.Sprintf("%s starts in about 30 minutes", sport.Label),
		Body:  fmt.Sprintf("%s starts at %s", activity, slot.Start),
		Tag:   "thirty-min-" + sport.ID,
		URL:   e.dayURL(dayName),
	}
}

func (e *Evaluator) briefingPayload(day schedule.Day) notify.Payload {
	first := day.Slots[0]
	body := fmt.Sprintf("%d activities today, starting with %s at %s",
		len(day.Slots), first.Activity, first.Start)
	if len(day.Slots) == 1 {
		body = fmt.Sprintf("One activity today: %s at %s", first.Activity, first.Start)
	}
	return notify.Payload{
		Title: "Today at the gym",
		Body:  body,
		Tag:   "daily-briefing",
		URL:   e.dayURL(day.Name),
	}
}

func (e *Evaluator) slotFreedPayload(slots []schedule.FreedSlot, sportLabel string) notify.Payload {
	title := "A slot just freed up"
	if sportLabel != "" {
		title = fmt.Sprintf("A %s slot just freed up", sportLabel)
	}

	body := ""
	shown := slots
	if len(shown) > 3 {
		shown = shown[:3]
	}
	for i, s := range shown {
		if i > 0 {
			body += "; "
		}
		body += fmt.Sprintf("%s %s – %s (%s)", s.Day, s.StartTime, s.EndTime, s.Activity)
	}
	if rest := len(slots) - len(shown); rest > 0 {
		body += fmt.Sprintf(" and %d more", rest)
	}

	return notify.Payload{
		Title: title,
		Body:  body,
		Tag:   "slot-freed",
		URL:   e.origin,
	}
}

func (e *Evaluator) dayURL(dayName string) string {
	return fmt.Sprintf("%s/?day=%s", e.origin, dayName)
}
