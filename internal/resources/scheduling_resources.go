package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/meetwise/internal/server"
)

const (
	// PolicyURI serves the active working-hours policy.
	PolicyURI = "policy://working-hours"
	// CalendarsURI serves the calendars shared with the service account.
	CalendarsURI = "calendars://shared"
)

// PolicyView is the JSON form of the working-hours policy.
type PolicyView struct {
	DayStartHour        int    `json:"dayStartHour"`
	DayEndHour          int    `json:"dayEndHour"`
	TimeZone            string `json:"timeZone"`
	SearchHorizonDays   int    `json:"searchHorizonDays"`
	MaxResults          int    `json:"maxResults"`
	ShownResults        int    `json:"shownResults"`
	ConflictHorizonDays int    `json:"conflictHorizonDays"`
	OnboardingURL       string `json:"onboardingUrl"`
}

// CalendarView is the JSON form of one shared calendar.
type CalendarView struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	TimeZone   string `json:"timeZone,omitempty"`
	AccessRole string `json:"accessRole"`
}

// RegisterSchedulingResources registers the policy and shared calendar resources.
func RegisterSchedulingResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	policyResource := mcp.NewResource(
		PolicyURI,
		"Working Hours Policy",
		mcp.WithResourceDescription("Hours, time zone and horizons used when proposing meeting slots"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(policyResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handlePolicy(ctx, request, sc)
	})

	calendarsResource := mcp.NewResource(
		CalendarsURI,
		"Shared Calendars",
		mcp.WithResourceDescription("Calendars users have shared with this service"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(calendarsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCalendars(ctx, request, sc)
	})

	return nil
}

func handlePolicy(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	policy := sc.Scheduler().Policy()
	view := PolicyView{
		DayStartHour:        policy.DayStartHour,
		DayEndHour:          policy.DayEndHour,
		TimeZone:            policy.Location.String(),
		SearchHorizonDays:   policy.SearchHorizonDays,
		MaxResults:          policy.MaxResults,
		ShownResults:        sc.Config().ShownSlots,
		ConflictHorizonDays: sc.Scheduler().ConflictHorizonDays(),
		OnboardingURL:       sc.Config().Onboarding.URL,
	}
	return jsonContents(request.Params.URI, view)
}

func handleCalendars(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	calendars, err := sc.Calendar().ListCalendars(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]CalendarView, 0, len(calendars))
	for _, c := range calendars {
		views = append(views, CalendarView{ID: c.ID, Summary: c.Summary, TimeZone: c.TimeZone, AccessRole: c.AccessRole})
	}
	return jsonContents(request.Params.URI, views)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
