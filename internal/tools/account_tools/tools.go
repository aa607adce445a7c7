package account_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetwise/internal/server"
	"github.com/teemow/meetwise/internal/tools/common"
)

// RegisterAccountTools registers the validate and onboarding link tools.
func RegisterAccountTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	// Clients call validate when connecting and expect the owner's phone
	// number, country code first and without "+".
	validateTool := mcp.NewTool("validate",
		mcp.WithDescription("Return the phone number of this server's owner"),
	)
	s.AddTool(validateTool, common.InstrumentedToolHandler("validate", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleValidate(ctx, request, sc)
		}))

	onboardingTool := mcp.NewTool("calendar_onboarding_link",
		mcp.WithDescription("Get the link a user opens to share their Google Calendar with this service"),
		mcp.WithString("user_email",
			mcp.Required(),
			mcp.Description("Email address of the user to onboard"),
		),
	)
	s.AddTool(onboardingTool, common.InstrumentedToolHandler("calendar_onboarding_link", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleOnboardingLink(ctx, request, sc)
		}))

	return nil
}

func handleValidate(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	phone := sc.Config().OwnerPhone
	if phone == "" {
		return mcp.NewToolResultError("owner phone number is not configured (set MEETWISE_OWNER_PHONE)"), nil
	}
	return mcp.NewToolResultText(phone), nil
}

func handleOnboardingLink(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	owner := common.OwnerFromArgs(request.GetArguments())
	if owner == "" {
		return mcp.NewToolResultError("user_email is required"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"%s can share their calendar at %s. After granting access, scheduling requests for %s will work.",
		owner, sc.Config().Onboarding.URL, owner)), nil
}
