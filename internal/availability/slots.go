package availability

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/teemow/meetwise/internal/interval"
)

// ErrInvalidDuration is returned when the requested meeting length is not positive.
var ErrInvalidDuration = errors.New("invalid duration: meeting length must be positive")

// BusyBlock is time during which one attendee is unavailable.
type BusyBlock struct {
	Attendee string
	Interval interval.Interval
}

// SlotCandidate is a proposed free interval of exactly the requested duration.
type SlotCandidate struct {
	Interval interval.Interval
}

// Start returns the instant the proposed meeting would begin.
func (s SlotCandidate) Start() time.Time { return s.Interval.Start }

// FindSlots proposes meeting slots of durationMinutes during which none of the
// busy blocks' attendees is busy.
//
// Days are scanned in policy.Location starting with the calendar date of from.
// On that first day no slot starts before from. Each day yields at most one
// candidate per gap between busy blocks plus one after the last block; the
// scan stops once policy.MaxResults candidates have been found. An empty
// result is not an error.
func FindSlots(from time.Time, busy []BusyBlock, durationMinutes int, policy WorkingHoursPolicy) ([]SlotCandidate, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: got %d minutes", ErrInvalidDuration, durationMinutes)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	duration := time.Duration(durationMinutes) * time.Minute

	blocks := slices.Clone(busy)
	interval.SortByStart(blocks, func(b BusyBlock) interval.Interval { return b.Interval })

	first := from.In(policy.Location)
	earliest := ceilMinute(first)

	slots := make([]SlotCandidate, 0, policy.MaxResults)
	emit := func(at time.Time) bool {
		slots = append(slots, SlotCandidate{Interval: interval.Interval{Start: at, End: at.Add(duration)}})
		return len(slots) >= policy.MaxResults
	}

	for day := 0; day < policy.SearchHorizonDays; day++ {
		dayStart, dayEnd := policy.window(first, day)
		window := interval.Interval{Start: dayStart, End: dayEnd}

		cursor := dayStart
		if earliest.After(cursor) {
			cursor = earliest
		}
		if !cursor.Before(dayEnd) {
			continue
		}

		for _, b := range blocks {
			if !relevantTo(b.Interval, window, policy.Location) {
				continue
			}
			gapEnd := b.Interval.Start
			if gapEnd.After(dayEnd) {
				gapEnd = dayEnd
			}
			if gapEnd.Sub(cursor) >= duration {
				if emit(cursor) {
					return slots, nil
				}
			}
			if b.Interval.End.After(cursor) {
				cursor = b.Interval.End.In(policy.Location)
			}
			if !cursor.Before(dayEnd) {
				break
			}
		}

		if dayEnd.Sub(cursor) >= duration {
			if emit(cursor) {
				return slots, nil
			}
		}
	}

	return slots, nil
}

// relevantTo reports whether a busy block affects the given working window:
// either it starts on the window's local date or it overlaps the window.
// Overlap catches blocks that began on an earlier day and run past midnight.
func relevantTo(block, window interval.Interval, loc *time.Location) bool {
	if interval.Overlaps(block, window) {
		return true
	}
	by, bm, bd := block.Start.In(loc).Date()
	wy, wm, wd := window.Start.Date()
	return by == wy && bm == wm && bd == wd
}

func ceilMinute(t time.Time) time.Time {
	truncated := t.Truncate(time.Minute)
	if truncated.Equal(t) {
		return t
	}
	return truncated.Add(time.Minute)
}
