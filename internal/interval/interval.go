package interval

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrInvalidInterval is returned when an interval would start at or after its end.
var ErrInvalidInterval = errors.New("invalid interval: start must be before end")

// Interval is an immutable half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// New returns the interval [start, end). It fails with ErrInvalidInterval
// unless start is strictly before end.
func New(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("%w: %s >= %s", ErrInvalidInterval,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return Interval{Start: start, End: end}, nil
}

// MustNew is like New but panics on invalid input. Intended for tests and constants.
func MustNew(start, end time.Time) Interval {
	iv, err := New(start, end)
	if err != nil {
		panic(err)
	}
	return iv
}

// Duration returns End - Start.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Contains reports whether t falls within [Start, End).
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// In returns the same interval with both endpoints expressed in loc.
func (i Interval) In(loc *time.Location) Interval {
	return Interval{Start: i.Start.In(loc), End: i.End.In(loc)}
}

func (i Interval) String() string {
	return i.Start.Format(time.RFC3339) + "/" + i.End.Format(time.RFC3339)
}

// Overlaps reports whether a and b share any instant.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// CompareByStart orders intervals by their start instant.
func CompareByStart(a, b Interval) int {
	return a.Start.Compare(b.Start)
}

// SortByStart stable-sorts items by the start of the interval returned by key.
func SortByStart[T any](items []T, key func(T) Interval) {
	slices.SortStableFunc(items, func(a, b T) int {
		return CompareByStart(key(a), key(b))
	})
}
