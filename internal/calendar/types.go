package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

const dateLayout = "2006-01-02"

// EventInput represents the input for creating or updating a calendar event
type EventInput struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Attendees   []string
	Recurrence  []string // RRULE, EXRULE, RDATE, EXDATE

	// Conference data
	AddGoogleMeet bool
}

// EventSummary represents a simplified calendar event for listing
type EventSummary struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Organizer   string
	Status      string
	Attendees   []AttendeeInfo
	Recurrence  []string
	MeetLink    string
	HTMLLink    string
}

// AttendeeInfo represents information about an event attendee
type AttendeeInfo struct {
	Email          string
	ResponseStatus string // "needsAction", "declined", "tentative", "accepted"
	Optional       bool
}

// CalendarInfo represents a calendar visible to the service account
type CalendarInfo struct {
	ID         string
	Summary    string
	TimeZone   string
	AccessRole string // "owner", "writer", "reader", "freeBusyReader"
}

// FreeBusyInfo represents availability information for one owner's calendar
type FreeBusyInfo struct {
	Calendar string
	Busy     []TimeRange
	Errors   []string
}

// TimeRange represents a time range
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// parseEventTime reads either a timed or a date-only boundary. The second
// return value is true for date-only (all-day) boundaries.
func parseEventTime(edt *calendar.EventDateTime) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, edt.DateTime); err == nil {
			return t, false
		}
	}
	if edt.Date != "" {
		if t, err := time.Parse(dateLayout, edt.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// toEventSummary converts a Google Calendar event to an EventSummary
func toEventSummary(event *calendar.Event) EventSummary {
	if event == nil {
		return EventSummary{}
	}

	summary := EventSummary{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
		Recurrence:  event.Recurrence,
		HTMLLink:    event.HtmlLink,
	}

	var startAllDay, endAllDay bool
	summary.Start, startAllDay = parseEventTime(event.Start)
	summary.End, endAllDay = parseEventTime(event.End)
	summary.AllDay = startAllDay || endAllDay

	if event.Organizer != nil {
		summary.Organizer = event.Organizer.Email
	}

	for _, att := range event.Attendees {
		summary.Attendees = append(summary.Attendees, AttendeeInfo{
			Email:          att.Email,
			ResponseStatus: att.ResponseStatus,
			Optional:       att.Optional,
		})
	}

	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				summary.MeetLink = ep.Uri
				break
			}
		}
	}

	return summary
}

// toCalendarInfo converts a Google Calendar list entry to CalendarInfo
func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	if entry == nil {
		return CalendarInfo{}
	}
	return CalendarInfo{
		ID:         entry.Id,
		Summary:    entry.Summary,
		TimeZone:   entry.TimeZone,
		AccessRole: entry.AccessRole,
	}
}
