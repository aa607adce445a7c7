package ics

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/teemow/meetwise/internal/conflict"
	"github.com/teemow/meetwise/internal/interval"
)

const maxOccurrencesPerEvent = 5000

// Expand turns parsed events into owner's timed occurrences overlapping
// [from, to). All-day, cancelled and zero-length events are dropped. An
// override (RECURRENCE-ID) replaces the occurrence it names.
func Expand(owner string, events []ParsedEvent, from, to time.Time) ([]conflict.CalendarEvent, error) {
	overridden := make(map[string][]time.Time)
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overridden[ev.UID] = append(overridden[ev.UID], *ev.RecurrenceID)
		}
	}

	var out []conflict.CalendarEvent
	for _, ev := range events {
		if ev.AllDay || ev.Cancelled || !ev.End.After(ev.Start) {
			continue
		}

		if ev.RawRRule == "" || ev.RecurrenceID != nil {
			iv := interval.Interval{Start: ev.Start, End: ev.End}
			if overlapsRange(iv, from, to) {
				out = append(out, occurrence(owner, ev, iv, ev.RecurrenceID != nil))
			}
			continue
		}

		starts, err := recurrenceStarts(ev, overridden[ev.UID], from, to)
		if err != nil {
			return nil, fmt.Errorf("event %s: %w", ev.UID, err)
		}
		length := ev.End.Sub(ev.Start)
		for _, s := range starts {
			out = append(out, occurrence(owner, ev, interval.Interval{Start: s, End: s.Add(length)}, true))
		}
	}
	return out, nil
}

func recurrenceStarts(ev ParsedEvent, overrides []time.Time, from, to time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, fmt.Errorf("invalid RRULE %q: %w", ev.RawRRule, err)
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	loc := ev.Start.Location()
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(loc))
	}
	for _, rid := range overrides {
		set.ExDate(rid.In(loc))
	}

	// Occurrences that started before from can still run into the range.
	length := ev.End.Sub(ev.Start)
	starts := set.Between(from.Add(-length).In(loc), to.In(loc), false)
	if len(starts) > maxOccurrencesPerEvent {
		starts = starts[:maxOccurrencesPerEvent]
	}
	return starts, nil
}

func occurrence(owner string, ev ParsedEvent, iv interval.Interval, recurring bool) conflict.CalendarEvent {
	id := ev.UID
	if recurring {
		id = ev.UID + "/" + iv.Start.UTC().Format("20060102T150405Z")
	}
	if ev.RecurrenceID != nil {
		id = ev.UID + "/" + ev.RecurrenceID.UTC().Format("20060102T150405Z")
	}
	return conflict.CalendarEvent{ID: id, Owner: owner, Summary: ev.Summary, Interval: iv}
}

func overlapsRange(iv interval.Interval, from, to time.Time) bool {
	return iv.Start.Before(to) && from.Before(iv.End)
}
