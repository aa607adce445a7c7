package availability

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidPolicy is returned when a WorkingHoursPolicy cannot bound a search.
var ErrInvalidPolicy = errors.New("invalid working hours policy")

// Defaults used by DefaultPolicy.
const (
	DefaultDayStartHour      = 10
	DefaultDayEndHour        = 18
	DefaultSearchHorizonDays = 7
	DefaultMaxResults        = 5
)

// WorkingHoursPolicy bounds a slot search: the hours of each day that may be
// proposed, the location those hours are interpreted in, how many days are
// scanned, and how many candidates are returned at most.
type WorkingHoursPolicy struct {
	DayStartHour      int
	DayEndHour        int
	Location          *time.Location
	SearchHorizonDays int
	MaxResults        int
}

// DefaultPolicy returns 10:00-18:00 in loc over seven days, capped at five results.
func DefaultPolicy(loc *time.Location) WorkingHoursPolicy {
	return WorkingHoursPolicy{
		DayStartHour:      DefaultDayStartHour,
		DayEndHour:        DefaultDayEndHour,
		Location:          loc,
		SearchHorizonDays: DefaultSearchHorizonDays,
		MaxResults:        DefaultMaxResults,
	}
}

// Validate checks that the policy describes a non-empty daily window and a positive horizon.
func (p WorkingHoursPolicy) Validate() error {
	switch {
	case p.Location == nil:
		return fmt.Errorf("%w: location is required", ErrInvalidPolicy)
	case p.DayStartHour < 0 || p.DayStartHour > 23:
		return fmt.Errorf("%w: day start hour %d out of range", ErrInvalidPolicy, p.DayStartHour)
	case p.DayEndHour < 1 || p.DayEndHour > 24:
		return fmt.Errorf("%w: day end hour %d out of range", ErrInvalidPolicy, p.DayEndHour)
	case p.DayStartHour >= p.DayEndHour:
		return fmt.Errorf("%w: day starts at %d but ends at %d", ErrInvalidPolicy, p.DayStartHour, p.DayEndHour)
	case p.SearchHorizonDays <= 0:
		return fmt.Errorf("%w: search horizon must be positive", ErrInvalidPolicy)
	case p.MaxResults <= 0:
		return fmt.Errorf("%w: max results must be positive", ErrInvalidPolicy)
	}
	return nil
}

// window returns the working window of the day that is offset days after date.
// time.Date normalizes overflowing days and an end hour of 24.
func (p WorkingHoursPolicy) window(date time.Time, offset int) (start, end time.Time) {
	y, m, d := date.Date()
	start = time.Date(y, m, d+offset, p.DayStartHour, 0, 0, 0, p.Location)
	end = time.Date(y, m, d+offset, p.DayEndHour, 0, 0, 0, p.Location)
	return start, end
}
