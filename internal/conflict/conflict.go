// Package conflict reports cross-owner double bookings within a set of
// calendar events.
package conflict

import (
	"slices"

	"github.com/teemow/meetwise/internal/interval"
)

// CalendarEvent is a timed event on one owner's calendar. All-day events are
// filtered out before they reach this package.
type CalendarEvent struct {
	ID       string
	Owner    string
	Summary  string
	Interval interval.Interval
}

// Pair is two events owned by different people whose intervals overlap.
type Pair struct {
	First  CalendarEvent
	Second CalendarEvent
}

// Identity returns an order-independent key for the pair: both event ids
// sorted lexicographically and joined with "|".
func (p Pair) Identity() string {
	return PairIdentity(p.First.ID, p.Second.ID)
}

// Overlap returns the interval during which both events are scheduled.
func (p Pair) Overlap() interval.Interval {
	start := p.First.Interval.Start
	if p.Second.Interval.Start.After(start) {
		start = p.Second.Interval.Start
	}
	end := p.First.Interval.End
	if p.Second.Interval.End.Before(end) {
		end = p.Second.Interval.End
	}
	return interval.Interval{Start: start, End: end}
}

// PairIdentity builds the identity of the pair formed by events a and b.
func PairIdentity(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// FindConflicts returns every pair of events that overlap in time and belong
// to different owners, each pair once. Copies of one shared meeting carry the
// same provider id on each attendee's calendar and never conflict with each
// other.
//
// Events are stable-sorted by start and compared pairwise, so the result is
// ordered by the position of the earlier event and then the later one. The
// scan is quadratic in the number of events, which is bounded by the fetch
// window.
func FindConflicts(events []CalendarEvent) []Pair {
	sorted := slices.Clone(events)
	interval.SortByStart(sorted, func(e CalendarEvent) interval.Interval { return e.Interval })

	var pairs []Pair
	seen := make(map[string]struct{})
	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			a, b := sorted[i], sorted[j]
			if a.Owner == b.Owner {
				continue
			}
			if a.ID != "" && a.ID == b.ID {
				continue
			}
			if !interval.Overlaps(a.Interval, b.Interval) {
				continue
			}
			id := PairIdentity(a.ID, b.ID)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			pairs = append(pairs, Pair{First: a, Second: b})
		}
	}
	return pairs
}
