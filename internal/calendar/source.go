package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/teemow/meetwise/internal/availability"
	"github.com/teemow/meetwise/internal/conflict"
	"github.com/teemow/meetwise/internal/interval"
)

// Events returns owner's timed events in [from, to) ready for conflict detection.
func (c *Client) Events(ctx context.Context, owner string, from, to time.Time) ([]conflict.CalendarEvent, error) {
	summaries, err := c.ListEvents(ctx, owner, from, to, "")
	if err != nil {
		return nil, err
	}
	return ToCalendarEvents(owner, summaries)
}

// BusyBlocks returns the busy time of every owner in [from, to). It fails if
// any owner's calendar could not be read, so callers never see partial data.
func (c *Client) BusyBlocks(ctx context.Context, owners []string, from, to time.Time) ([]availability.BusyBlock, error) {
	infos, err := c.QueryFreeBusy(ctx, from, to, owners)
	if err != nil {
		return nil, err
	}

	var blocks []availability.BusyBlock
	for _, info := range infos {
		b, err := ToBusyBlocks(info)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b...)
	}
	return blocks, nil
}

// ToCalendarEvents converts event summaries for conflict detection. All-day
// events, cancelled events and zero-length events are skipped; an event that
// ends before it starts is an error.
func ToCalendarEvents(owner string, summaries []EventSummary) ([]conflict.CalendarEvent, error) {
	events := make([]conflict.CalendarEvent, 0, len(summaries))
	for _, s := range summaries {
		if s.AllDay || s.Status == "cancelled" || s.Start.IsZero() || s.Start.Equal(s.End) {
			continue
		}
		iv, err := interval.New(s.Start, s.End)
		if err != nil {
			return nil, fmt.Errorf("event %s on %s: %w", s.ID, owner, err)
		}
		events = append(events, conflict.CalendarEvent{
			ID:       s.ID,
			Owner:    owner,
			Summary:  s.Summary,
			Interval: iv,
		})
	}
	return events, nil
}

// ToBusyBlocks converts one owner's free/busy answer into busy blocks.
// Provider-side errors are surfaced: "notFound" means the calendar has not
// been shared and becomes an *OnboardingRequiredError.
func ToBusyBlocks(info FreeBusyInfo) ([]availability.BusyBlock, error) {
	for _, reason := range info.Errors {
		if reason == "notFound" {
			return nil, &OnboardingRequiredError{Owner: info.Calendar}
		}
	}
	if len(info.Errors) > 0 {
		return nil, fmt.Errorf("free/busy unavailable for %s: %s", info.Calendar, strings.Join(info.Errors, ", "))
	}

	blocks := make([]availability.BusyBlock, 0, len(info.Busy))
	for _, r := range info.Busy {
		iv, err := interval.New(r.Start, r.End)
		if err != nil {
			// Zero-length busy ranges block nothing.
			continue
		}
		blocks = append(blocks, availability.BusyBlock{Attendee: info.Calendar, Interval: iv})
	}
	return blocks, nil
}
