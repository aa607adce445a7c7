package calendar_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetwise/internal/calendar"
	"github.com/teemow/meetwise/internal/instrumentation"
	"github.com/teemow/meetwise/internal/recurrence"
	"github.com/teemow/meetwise/internal/server"
	"github.com/teemow/meetwise/internal/tools/batch"
	"github.com/teemow/meetwise/internal/tools/common"
)

// previewOccurrences is how many upcoming dates of a new series are echoed back.
const previewOccurrences = 3

// RegisterEventTools registers event-related tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List events on a user's calendar. Defaults to the next 30 days."),
		userEmailParam(),
		mcp.WithString("timeMin",
			mcp.Description("Start of the range (RFC3339, e.g. '2025-01-01T00:00:00+05:30'). Defaults to now."),
		),
		mcp.WithString("timeMax",
			mcp.Description("End of the range (RFC3339). Defaults to the end of the read horizon."),
		),
		mcp.WithString("query",
			mcp.Description("Optional free-text filter passed to Google Calendar"),
		),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithOperation("calendar_list_events", instrumentation.OperationList, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	searchEventsTool := mcp.NewTool("calendar_search_events",
		mcp.WithDescription("Find upcoming events on a user's calendar whose title contains the query (case-insensitive)"),
		userEmailParam(),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to look for in event titles"),
		),
	)
	s.AddTool(searchEventsTool, common.InstrumentedToolHandlerWithOperation("calendar_search_events", instrumentation.OperationSearch, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSearchEvents(ctx, request, sc)
		}))

	getEventTool := mcp.NewTool("calendar_get_event",
		mcp.WithDescription("Get details of a specific calendar event"),
		userEmailParam(),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to retrieve"),
		),
	)
	s.AddTool(getEventTool, common.InstrumentedToolHandlerWithOperation("calendar_get_event", instrumentation.OperationGet, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvent(ctx, request, sc)
		}))

	createEventTool := mcp.NewTool("calendar_create_event",
		mcp.WithDescription("Create an event on a user's Google Calendar, optionally recurring and with a Google Meet link"),
		userEmailParam(),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time (RFC3339, e.g. '2025-01-15T14:00:00+05:30')"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time (RFC3339)"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone attached to the event (default: the configured event time zone)"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithString("frequency",
			mcp.Description("Make the event repeat: 'daily', 'weekly', 'monthly' or 'yearly'"),
		),
		mcp.WithString("daysOfWeek",
			mcp.Description("For weekly events, comma-separated weekdays, e.g. 'monday,wednesday'"),
		),
		mcp.WithBoolean("addGoogleMeet",
			mcp.Description("Attach a Google Meet link to the event"),
		),
	)
	s.AddTool(createEventTool, common.InstrumentedToolHandlerWithOperation("calendar_create_event", instrumentation.OperationCreate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCreateEvent(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	updateEventTool := mcp.NewTool("calendar_update_event",
		mcp.WithDescription("Update an existing event. Only the given fields change."),
		userEmailParam(),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithString("summary", mcp.Description("New event title")),
		mcp.WithString("description", mcp.Description("New event description")),
		mcp.WithString("location", mcp.Description("New event location")),
		mcp.WithString("start", mcp.Description("New start time (RFC3339)")),
		mcp.WithString("end", mcp.Description("New end time (RFC3339)")),
		mcp.WithString("timeZone", mcp.Description("IANA time zone for the new start and end")),
		mcp.WithString("attendees", mcp.Description("Comma-separated list replacing the attendees")),
		mcp.WithString("frequency", mcp.Description("New repetition: 'daily', 'weekly', 'monthly' or 'yearly'")),
		mcp.WithString("daysOfWeek", mcp.Description("For weekly events, comma-separated weekdays")),
	)
	s.AddTool(updateEventTool, common.InstrumentedToolHandlerWithOperation("calendar_update_event", instrumentation.OperationUpdate, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	deleteEventTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete one or more events from a user's calendar"),
		userEmailParam(),
		mcp.WithString("eventIds",
			mcp.Required(),
			mcp.Description("An event ID, or a JSON array of event IDs"),
		),
	)
	s.AddTool(deleteEventTool, common.InstrumentedToolHandlerWithOperation("calendar_delete_event", instrumentation.OperationDelete, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	owner, errResult := requireOwner(args)
	if errResult != nil {
		return errResult, nil
	}
	loc := displayLocation(sc)

	timeMin, ok, err := common.TimeArg(args, "timeMin", loc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		timeMin = time.Now()
	}
	timeMax, ok, err := common.TimeArg(args, "timeMax", loc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		timeMax = timeMin.AddDate(0, 0, sc.Config().ReadHorizonDays)
	}
	if !timeMax.After(timeMin) {
		return mcp.NewToolResultError("timeMax must be after timeMin"), nil
	}

	events, err := sc.Calendar().ListEvents(ctx, owner, timeMin, timeMax, common.StringArg(args, "query"))
	if err != nil {
		return common.ErrorResult(ctx, sc, "list events", err), nil
	}

	if len(events) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No events found for %s between %s and %s",
			owner, timeMin.In(loc).Format(listTimeLayout), timeMax.In(loc).Format(listTimeLayout))), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d event(s) for %s:\n\n", len(events), owner)
	for i, event := range events {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatEventLine(event, loc))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleSearchEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	owner, errResult := requireOwner(args)
	if errResult != nil {
		return errResult, nil
	}
	query := common.StringArg(args, "query")
	if query == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	events, err := sc.Scheduler().SearchEvents(ctx, owner, query)
	if err != nil {
		return common.ErrorResult(ctx, sc, "search events", err), nil
	}

	if len(events) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No upcoming events for %s match '%s'", owner, query)), nil
	}

	loc := displayLocation(sc)
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d event(s) for %s matching '%s':\n\n", len(events), owner, query)
	for i, event := range events {
		fmt.Fprintf(&b, "%d. %s (%s to %s)\n   ID: %s\n", i+1, event.Summary,
			event.Interval.Start.In(loc).Format(listTimeLayout),
			event.Interval.End.In(loc).Format("15:04"),
			event.ID)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	owner, errResult := requireOwner(args)
	if errResult != nil {
		return errResult, nil
	}
	eventID := common.StringArg(args, "eventId")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	event, err := sc.Calendar().GetEvent(ctx, owner, eventID)
	if err != nil {
		return common.ErrorResult(ctx, sc, "get event", err), nil
	}

	return mcp.NewToolResultText(formatEventDetails(*event, displayLocation(sc))), nil
}

func handleCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	owner, errResult := requireOwner(args)
	if errResult != nil {
		return errResult, nil
	}

	input := calendar.EventInput{
		Summary:       common.StringArg(args, "summary"),
		Description:   common.StringArg(args, "description"),
		Location:      common.StringArg(args, "location"),
		TimeZone:      common.StringArg(args, "timeZone"),
		AddGoogleMeet: common.BoolArg(args, "addGoogleMeet"),
	}
	if input.Summary == "" {
		return mcp.NewToolResultError("summary is required"), nil
	}

	if errResult := parseEventTimes(args, sc, &input, true); errResult != nil {
		return errResult, nil
	}

	attendees, err := common.ListArg(args, "attendees")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	input.Attendees = attendees

	rule, hasRule, err := parseRecurrence(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if hasRule {
		input.Recurrence = rule.Lines()
	}

	created, err := sc.Calendar().CreateEvent(ctx, owner, input)
	if err != nil {
		if _, onboarding := calendar.IsOnboardingRequired(err); onboarding {
			return common.ErrorResult(ctx, sc, "create event", err), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Could not create event for %s. Reason: %v.", owner, err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Event created for %s: '%s'. View it here: %s", owner, created.Summary, created.HTMLLink)
	if created.MeetLink != "" {
		fmt.Fprintf(&b, "\nGoogle Meet: %s", created.MeetLink)
	}
	if hasRule {
		fmt.Fprintf(&b, "\nRepeats: %s", rule)
		loc := displayLocation(sc)
		if next, err := rule.Occurrences(input.Start.In(loc), previewOccurrences); err == nil && len(next) > 0 {
			dates := make([]string, len(next))
			for i, t := range next {
				dates[i] = t.Format(displayTimeLayout)
			}
			fmt.Fprintf(&b, "\nFirst occurrences: %s", strings.Join(dates, "; "))
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	owner, errResult := requireOwner(args)
	if errResult != nil {
		return errResult, nil
	}
	eventID := common.StringArg(args, "eventId")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	input := calendar.EventInput{
		Summary:     common.StringArg(args, "summary"),
		Description: common.StringArg(args, "description"),
		Location:    common.StringArg(args, "location"),
		TimeZone:    common.StringArg(args, "timeZone"),
	}
	if errResult := parseEventTimes(args, sc, &input, false); errResult != nil {
		return errResult, nil
	}

	attendees, err := common.ListArg(args, "attendees")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	input.Attendees = attendees

	rule, hasRule, err := parseRecurrence(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if hasRule {
		input.Recurrence = rule.Lines()
	}

	updated, err := sc.Calendar().UpdateEvent(ctx, owner, eventID, input)
	if err != nil {
		return common.ErrorResult(ctx, sc, "update event", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Event updated for %s: '%s'. View it here: %s",
		owner, updated.Summary, updated.HTMLLink)), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	owner, errResult := requireOwner(args)
	if errResult != nil {
		return errResult, nil
	}
	ids, err := batch.ParseStringOrArray(args["eventIds"], "eventIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(ids) == 1 {
		if err := sc.Calendar().DeleteEvent(ctx, owner, ids[0]); err != nil {
			return common.ErrorResult(ctx, sc, "delete event", err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Event %s deleted from %s's calendar", ids[0], owner)), nil
	}

	results := batch.Process(ctx, ids, batch.DefaultConcurrency, func(ctx context.Context, id string) (string, error) {
		if err := sc.Calendar().DeleteEvent(ctx, owner, id); err != nil {
			return "", err
		}
		return "deleted", nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

// parseEventTimes reads start and end into input. Both are required when
// required is set; otherwise either may be omitted, but a given pair must be
// ordered.
func parseEventTimes(args map[string]interface{}, sc *server.ServerContext, input *calendar.EventInput, required bool) *mcp.CallToolResult {
	loc := displayLocation(sc)
	if input.TimeZone != "" {
		tz, err := time.LoadLocation(input.TimeZone)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Invalid timeZone %q: %v", input.TimeZone, err))
		}
		loc = tz
	}

	start, hasStart, err := common.TimeArg(args, "start", loc)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	end, hasEnd, err := common.TimeArg(args, "end", loc)
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	if required && !hasStart {
		return mcp.NewToolResultError("start is required")
	}
	if required && !hasEnd {
		return mcp.NewToolResultError("end is required")
	}
	if hasStart && hasEnd && !end.After(start) {
		return mcp.NewToolResultError("end must be after start")
	}
	input.Start, input.End = start, end
	return nil
}

// parseRecurrence encodes the frequency and daysOfWeek arguments. ok is false
// when no frequency was given.
func parseRecurrence(args map[string]interface{}) (rule recurrence.Rule, ok bool, err error) {
	frequency := common.StringArg(args, "frequency")
	days, err := common.ListArg(args, "daysOfWeek")
	if err != nil {
		return recurrence.Rule{}, false, err
	}
	if frequency == "" {
		if len(days) > 0 {
			return recurrence.Rule{}, false, errors.New("daysOfWeek requires frequency 'weekly'")
		}
		return recurrence.Rule{}, false, nil
	}
	rule, err = recurrence.Encode(frequency, days)
	if err != nil {
		return recurrence.Rule{}, false, err
	}
	return rule, true, nil
}

func formatEventLine(event calendar.EventSummary, loc *time.Location) string {
	when := event.Start.In(loc).Format(listTimeLayout) + " to " + event.End.In(loc).Format("15:04")
	if event.AllDay {
		when = event.Start.Format("2006-01-02") + " (all day)"
	}
	line := fmt.Sprintf("%s\n   When: %s\n   ID: %s", event.Summary, when, event.ID)
	if event.Location != "" {
		line += "\n   Location: " + event.Location
	}
	return line
}

func formatEventDetails(event calendar.EventSummary, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Event: %s\n", event.Summary)
	fmt.Fprintf(&b, "ID: %s\n", event.ID)
	if event.AllDay {
		fmt.Fprintf(&b, "Date: %s (all day)\n", event.Start.Format("2006-01-02"))
	} else {
		fmt.Fprintf(&b, "Start: %s\n", event.Start.In(loc).Format(time.RFC3339))
		fmt.Fprintf(&b, "End: %s\n", event.End.In(loc).Format(time.RFC3339))
	}
	if event.Status != "" {
		fmt.Fprintf(&b, "Status: %s\n", event.Status)
	}
	if event.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", event.Location)
	}
	if event.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", event.Description)
	}
	if event.Organizer != "" {
		fmt.Fprintf(&b, "Organizer: %s\n", event.Organizer)
	}
	if len(event.Recurrence) > 0 {
		fmt.Fprintf(&b, "Recurrence: %s\n", strings.Join(event.Recurrence, "; "))
	}
	if event.MeetLink != "" {
		fmt.Fprintf(&b, "Google Meet: %s\n", event.MeetLink)
	}
	if len(event.Attendees) > 0 {
		b.WriteString("Attendees:\n")
		for _, a := range event.Attendees {
			optional := ""
			if a.Optional {
				optional = ", optional"
			}
			fmt.Fprintf(&b, "  - %s (%s%s)\n", a.Email, a.ResponseStatus, optional)
		}
	}
	if event.HTMLLink != "" {
		fmt.Fprintf(&b, "Link: %s\n", event.HTMLLink)
	}
	return b.String()
}
