package common

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/meetwise/internal/calendar"
	"github.com/teemow/meetwise/internal/instrumentation"
	"github.com/teemow/meetwise/internal/server"
)

// OnboardingMessage tells a user how to share their calendar.
func OnboardingMessage(owner, onboardingURL string) string {
	return fmt.Sprintf("It looks like the calendar for '%s' is not set up yet. "+
		"Please visit %s to grant access, and then try your request again.", owner, onboardingURL)
}

// ErrorResult renders err for the client. Calendars that have not been shared
// yet get the onboarding message instead of the raw provider error.
func ErrorResult(ctx context.Context, sc *server.ServerContext, action string, err error) *mcp.CallToolResult {
	if oe, ok := calendar.IsOnboardingRequired(err); ok {
		sc.Metrics().RecordOnboarding(ctx, instrumentation.OnboardingRequired)
		return mcp.NewToolResultError(OnboardingMessage(oe.Owner, sc.Config().Onboarding.URL))
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}
