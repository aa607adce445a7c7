package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// ParsedEvent is one VEVENT before recurrence expansion.
type ParsedEvent struct {
	UID         string
	Summary     string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Cancelled   bool
	Transparent bool

	RawRRule     string
	ExDates      []time.Time
	RecurrenceID *time.Time
}

// Parse decodes an iCalendar payload. Floating times (no TZID, no trailing Z)
// are read in loc. Malformed VEVENTs are returned in skipped rather than
// failing the whole feed.
func Parse(body []byte, loc *time.Location) (events []ParsedEvent, skipped []error, err error) {
	if len(body) == 0 {
		return nil, nil, errors.New("empty ICS body")
	}
	if loc == nil {
		loc = time.UTC
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse ICS: %w", err)
	}

	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve, loc)
		if perr != nil {
			skipped = append(skipped, perr)
			continue
		}
		events = append(events, ev)
	}
	return events, skipped, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (ParsedEvent, error) {
	var out ParsedEvent

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("VEVENT without UID")
	}
	out.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		out.Cancelled = strings.EqualFold(p.Value, "CANCELLED")
	}
	if p := ve.GetProperty(ical.ComponentPropertyTransp); p != nil {
		out.Transparent = strings.EqualFold(p.Value, "TRANSPARENT")
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, fmt.Errorf("VEVENT %s without DTSTART", out.UID)
	}
	if isDate(dtStart) {
		out.AllDay = true
		return out, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, fmt.Errorf("VEVENT %s: %w", out.UID, err)
	}
	end, err := ve.GetEndAt()
	if err != nil {
		return out, fmt.Errorf("VEVENT %s: %w", out.UID, err)
	}
	out.Start = inFloating(start, dtStart, loc)
	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		out.End = inFloating(end, dtEnd, loc)
	} else {
		out.End = out.Start.Add(end.Sub(start))
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseTime(strings.TrimSpace(part), tzid(p), loc); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		t, err := parseTime(p.Value, tzid(p), loc)
		if err != nil {
			return out, fmt.Errorf("VEVENT %s: RECURRENCE-ID: %w", out.UID, err)
		}
		out.RecurrenceID = &t
	}

	return out, nil
}

func isDate(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func tzid(p *ical.IANAProperty) string {
	if vs, ok := p.ICalParameters["TZID"]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// inFloating re-reads a floating date-time in loc, keeping its wall clock.
func inFloating(t time.Time, p *ical.IANAProperty, loc *time.Location) time.Time {
	if tzid(p) != "" || strings.HasSuffix(p.Value, "Z") {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

func parseTime(v, tz string, loc *time.Location) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, loc)
	}
	return time.ParseInLocation("20060102", v, loc)
}
