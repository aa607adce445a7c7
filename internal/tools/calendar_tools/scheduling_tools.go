package calendar_tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetwise/internal/availability"
	"github.com/teemow/meetwise/internal/instrumentation"
	"github.com/teemow/meetwise/internal/scheduling"
	"github.com/teemow/meetwise/internal/server"
	"github.com/teemow/meetwise/internal/tools/common"
)

// RegisterSchedulingTools registers availability and conflict tools with the MCP server
func RegisterSchedulingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	queryFreeBusyTool := mcp.NewTool("calendar_query_freebusy",
		mcp.WithDescription("Show busy periods of one or more users in a time range"),
		mcp.WithString("user_emails",
			mcp.Required(),
			mcp.Description("Comma-separated list of calendar owner email addresses"),
		),
		mcp.WithString("timeMin",
			mcp.Required(),
			mcp.Description("Start of the range (RFC3339, e.g. '2025-01-01T09:00:00+05:30')"),
		),
		mcp.WithString("timeMax",
			mcp.Required(),
			mcp.Description("End of the range (RFC3339)"),
		),
	)
	s.AddTool(queryFreeBusyTool, common.InstrumentedToolHandlerWithOperation("calendar_query_freebusy", instrumentation.OperationFreeBusy, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleQueryFreeBusy(ctx, request, sc)
		}))

	findSlotsTool := mcp.NewTool("calendar_find_meeting_slots",
		mcp.WithDescription("Propose start times within working hours over the coming days when all attendees are free"),
		mcp.WithString("attendees",
			mcp.Required(),
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Required(),
			mcp.Description("Meeting length in minutes"),
		),
	)
	s.AddTool(findSlotsTool, common.InstrumentedToolHandler("calendar_find_meeting_slots", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindMeetingSlots(ctx, request, sc)
		}))

	checkConflictsTool := mcp.NewTool("calendar_check_conflicts",
		mcp.WithDescription("Report overlapping events between different users' calendars"),
		mcp.WithString("owners",
			mcp.Required(),
			mcp.Description("Comma-separated list of calendar owner email addresses"),
		),
		mcp.WithNumber("horizonDays",
			mcp.Description(fmt.Sprintf("How many days ahead to scan (default: %d)", sc.Scheduler().ConflictHorizonDays())),
		),
	)
	s.AddTool(checkConflictsTool, common.InstrumentedToolHandler("calendar_check_conflicts", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCheckConflicts(ctx, request, sc)
		}))

	return nil
}

func handleQueryFreeBusy(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	owners, err := common.ListArg(args, "user_emails")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(owners) == 0 {
		return mcp.NewToolResultError("user_emails is required"), nil
	}

	loc := displayLocation(sc)
	timeMin, ok, err := common.TimeArg(args, "timeMin", loc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("timeMin is required"), nil
	}
	timeMax, ok, err := common.TimeArg(args, "timeMax", loc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("timeMax is required"), nil
	}
	if !timeMax.After(timeMin) {
		return mcp.NewToolResultError("timeMax must be after timeMin"), nil
	}

	infos, err := sc.Calendar().QueryFreeBusy(ctx, timeMin, timeMax, owners)
	if err != nil {
		return common.ErrorResult(ctx, sc, "query free/busy", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Free/Busy information for %d calendar(s):\n\n", len(infos))
	for _, info := range infos {
		fmt.Fprintf(&b, "Calendar: %s\n", info.Calendar)
		if len(info.Errors) > 0 {
			fmt.Fprintf(&b, "  Errors: %s\n", strings.Join(info.Errors, ", "))
		}
		switch {
		case len(info.Busy) == 0 && len(info.Errors) == 0:
			b.WriteString("  Status: FREE for entire range\n")
		case len(info.Busy) > 0:
			fmt.Fprintf(&b, "  Busy periods: %d\n", len(info.Busy))
			for i, busy := range info.Busy {
				fmt.Fprintf(&b, "  %d. %s to %s\n", i+1,
					busy.Start.In(loc).Format(listTimeLayout),
					busy.End.In(loc).Format(listTimeLayout))
			}
		}
		b.WriteString("\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleFindMeetingSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	attendees, err := common.ListArg(args, "attendees")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(attendees) == 0 {
		return mcp.NewToolResultError("attendees is required"), nil
	}
	duration, ok, err := common.IntArg(args, "durationMinutes")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok || duration <= 0 {
		return mcp.NewToolResultError("durationMinutes is required and must be positive"), nil
	}

	slots, err := sc.Scheduler().FindMeetingSlots(ctx, attendees, duration)
	if err != nil {
		if errors.Is(err, availability.ErrInvalidDuration) || errors.Is(err, scheduling.ErrNoOwners) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.ErrorResult(ctx, sc, "find meeting slots", err), nil
	}

	policy := sc.Scheduler().Policy()
	if len(slots) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf(
			"No common %d-minute slot found for %s in the next %d days between %02d:00 and %02d:00.",
			duration, strings.Join(attendees, ", "), policy.SearchHorizonDays,
			policy.DayStartHour, policy.DayEndHour)), nil
	}

	return mcp.NewToolResultText(FormatSlots(slots, attendees, duration, sc.Config().ShownSlots, displayLocation(sc))), nil
}

// FormatSlots lists the first shown slots in loc and mentions how many more exist.
func FormatSlots(slots []availability.SlotCandidate, attendees []string, duration, shown int, loc *time.Location) string {
	if shown <= 0 || shown > len(slots) {
		shown = len(slots)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Available %d-minute slots for %s:\n\n", duration, strings.Join(attendees, ", "))
	for i, slot := range slots[:shown] {
		fmt.Fprintf(&b, "%d. %s to %s\n", i+1,
			slot.Interval.Start.In(loc).Format(displayTimeLayout),
			slot.Interval.End.In(loc).Format("3:04 PM MST"))
	}
	if rest := len(slots) - shown; rest > 0 {
		fmt.Fprintf(&b, "\n%d more slot(s) available.\n", rest)
	}
	return b.String()
}

func handleCheckConflicts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	owners, err := common.ListArg(args, "owners")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(owners) == 0 {
		return mcp.NewToolResultError("owners is required"), nil
	}
	horizon, _, err := common.IntArg(args, "horizonDays")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if horizon < 0 {
		return mcp.NewToolResultError("horizonDays must not be negative"), nil
	}

	report, err := sc.Scheduler().CheckConflicts(ctx, owners, horizon)
	if err != nil {
		if errors.Is(err, scheduling.ErrNoOwners) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.ErrorResult(ctx, sc, "check conflicts", err), nil
	}

	return mcp.NewToolResultText(FormatConflictReport(report, displayLocation(sc))), nil
}
