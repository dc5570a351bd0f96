// Package schedule models the published activity schedule document and the
// cancellation diff produced by the scraper. This service only consumes
// them; scraping and time correction happen upstream.
package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Slot is one scheduled activity block.
type Slot struct {
	Activity string `json:"activity"`
	Start    string `json:"start"` // clock string, e.g. "9:00 AM"
	End      string `json:"end"`
	OpenGym  bool   `json:"openGym"`
}

// Day groups the slots for one civil day.
type Day struct {
	Name  string `json:"name"` // "Monday"
	Date  string `json:"date"` // "2026-08-28"
	Slots []Slot `json:"slots"`
}

// Document is the schedule as published by the scraper.
type Document struct {
	UpdatedAt string `json:"updatedAt"`
	Days      []Day  `json:"days"`
}

// FreedSlot is one entry of a cancellation diff. "Open Gym" derived slots
// never appear here; the scraper filters them before publishing.
type FreedSlot struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Activity  string `json:"activity"`
}

// DayByName returns the first day with the given weekday name.
func (d *Document) DayByName(name string) (Day, bool) {
	for _, day := range d.Days {
		if strings.EqualFold(day.Name, name) {
			return day, true
		}
	}
	return Day{}, false
}

// ParseClock parses a "3:04 PM" clock string.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("3:04 PM", strings.ToUpper(strings.TrimSpace(s)))
	if err != nil {
		return 0, 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// SlotStart anchors a slot's clock string onto a civil date in loc.
func SlotStart(date time.Time, s Slot, loc *time.Location) (time.Time, error) {
	h, m, err := ParseClock(s.Start)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, loc), nil
}
