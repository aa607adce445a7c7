package calendar_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetwise/internal/server"
	"github.com/teemow/meetwise/internal/tools/common"
)

// RegisterCalendarListTools registers calendar list tools with the MCP server
func RegisterCalendarListTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listCalendarsTool := mcp.NewTool("calendar_list_calendars",
		mcp.WithDescription("List the calendars users have shared with this service"),
	)
	s.AddTool(listCalendarsTool, common.InstrumentedToolHandler("calendar_list_calendars", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, request, sc)
		}))

	return nil
}

func handleListCalendars(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	calendars, err := sc.Calendar().ListCalendars(ctx)
	if err != nil {
		return common.ErrorResult(ctx, sc, "list calendars", err), nil
	}

	if len(calendars) == 0 {
		return mcp.NewToolResultText("No calendars have been shared yet. Users can share theirs at " +
			sc.Config().Onboarding.URL), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d calendar(s):\n\n", len(calendars))
	for i, cal := range calendars {
		fmt.Fprintf(&b, "%d. %s\n", i+1, cal.Summary)
		fmt.Fprintf(&b, "   ID: %s\n", cal.ID)
		fmt.Fprintf(&b, "   Access Role: %s\n", cal.AccessRole)
		if cal.TimeZone != "" {
			fmt.Fprintf(&b, "   Time Zone: %s\n", cal.TimeZone)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
