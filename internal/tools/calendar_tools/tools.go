package calendar_tools

import (
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetwise/internal/server"
	"github.com/teemow/meetwise/internal/tools/common"
)

const (
	displayTimeLayout = "Mon, Jan 2 at 3:04 PM"
	listTimeLayout    = "2006-01-02 15:04"
)

// RegisterCalendarTools registers all Calendar-related tools with the MCP server.
// Update and delete tools are skipped when readOnly is set.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if err := RegisterEventTools(s, sc, readOnly); err != nil {
		return fmt.Errorf("failed to register event tools: %w", err)
	}
	if err := RegisterCalendarListTools(s, sc); err != nil {
		return fmt.Errorf("failed to register calendar list tools: %w", err)
	}
	if err := RegisterSchedulingTools(s, sc); err != nil {
		return fmt.Errorf("failed to register scheduling tools: %w", err)
	}
	return nil
}

func userEmailParam() mcp.ToolOption {
	return mcp.WithString("user_email",
		mcp.Required(),
		mcp.Description("Email address of the calendar owner"),
	)
}

// requireOwner returns the owner email or an error result when it is missing.
func requireOwner(args map[string]interface{}) (string, *mcp.CallToolResult) {
	owner := common.OwnerFromArgs(args)
	if owner == "" {
		return "", mcp.NewToolResultError("user_email is required")
	}
	return owner, nil
}

// displayLocation is the zone tool output is rendered in.
func displayLocation(sc *server.ServerContext) *time.Location {
	if loc := sc.Scheduler().Policy().Location; loc != nil {
		return loc
	}
	return time.UTC
}
