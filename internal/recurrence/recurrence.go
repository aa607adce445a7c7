// Package recurrence translates a frequency keyword and an optional set of
// weekdays into the RRULE line understood by the Google Calendar API.
package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

var (
	// ErrUnsupportedFrequency is returned for a frequency keyword outside daily, weekly, monthly and yearly.
	ErrUnsupportedFrequency = errors.New("unsupported recurrence frequency")
	// ErrUnsupportedWeekday is returned for a day name that is not a weekday.
	ErrUnsupportedWeekday = errors.New("unsupported weekday")
)

// Frequency is the base repetition unit of a rule.
type Frequency string

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
	Yearly  Frequency = "YEARLY"
)

var frequencies = map[string]Frequency{
	"daily":   Daily,
	"weekly":  Weekly,
	"monthly": Monthly,
	"yearly":  Yearly,
}

var weekdayCodes = map[string]string{
	"monday": "MO", "mon": "MO", "mo": "MO",
	"tuesday": "TU", "tue": "TU", "tu": "TU",
	"wednesday": "WE", "wed": "WE", "we": "WE",
	"thursday": "TH", "thu": "TH", "th": "TH",
	"friday": "FR", "fri": "FR", "fr": "FR",
	"saturday": "SA", "sat": "SA", "sa": "SA",
	"sunday": "SU", "sun": "SU", "su": "SU",
}

// Rule is an encoded repetition rule. Days holds two-letter weekday codes in
// the order they were given and is only set for weekly rules.
type Rule struct {
	Freq Frequency
	Days []string
}

// Encode maps a frequency keyword ("daily", "weekly", "monthly", "yearly",
// case-insensitive) and optional weekday names into a Rule. Weekdays are only
// meaningful for weekly rules and are ignored otherwise.
func Encode(frequency string, daysOfWeek []string) (Rule, error) {
	freq, ok := frequencies[strings.ToLower(strings.TrimSpace(frequency))]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, frequency)
	}

	rule := Rule{Freq: freq}
	if freq != Weekly || len(daysOfWeek) == 0 {
		return rule, nil
	}

	for _, day := range daysOfWeek {
		code, ok := weekdayCodes[strings.ToLower(strings.TrimSpace(day))]
		if !ok {
			return Rule{}, fmt.Errorf("%w: %q", ErrUnsupportedWeekday, day)
		}
		rule.Days = append(rule.Days, code)
	}
	return rule, nil
}

// String renders the rule as an RRULE line, e.g. "RRULE:FREQ=WEEKLY;BYDAY=MO,WE".
func (r Rule) String() string {
	var b strings.Builder
	b.WriteString("RRULE:FREQ=")
	b.WriteString(string(r.Freq))
	if len(r.Days) > 0 {
		b.WriteString(";BYDAY=")
		b.WriteString(strings.Join(r.Days, ","))
	}
	return b.String()
}

// Lines returns the rule in the form expected by an event's recurrence field.
func (r Rule) Lines() []string {
	return []string{r.String()}
}

// Occurrences returns the first n start times of a series beginning at dtstart.
func (r Rule) Occurrences(dtstart time.Time, n int) ([]time.Time, error) {
	if n <= 0 {
		return nil, nil
	}
	opt := rrule.ROption{
		Freq:    rruleFrequency(r.Freq),
		Dtstart: dtstart,
		Count:   n,
	}
	for _, code := range r.Days {
		opt.Byweekday = append(opt.Byweekday, rruleWeekday(code))
	}

	rr, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to expand %s: %w", r, err)
	}
	return rr.All(), nil
}

func rruleFrequency(f Frequency) rrule.Frequency {
	switch f {
	case Weekly:
		return rrule.WEEKLY
	case Monthly:
		return rrule.MONTHLY
	case Yearly:
		return rrule.YEARLY
	default:
		return rrule.DAILY
	}
}

func rruleWeekday(code string) rrule.Weekday {
	switch code {
	case "TU":
		return rrule.TU
	case "WE":
		return rrule.WE
	case "TH":
		return rrule.TH
	case "FR":
		return rrule.FR
	case "SA":
		return rrule.SA
	case "SU":
		return rrule.SU
	default:
		return rrule.MO
	}
}
