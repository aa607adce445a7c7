package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/meetwise/internal/google"
	"github.com/teemow/meetwise/internal/instrumentation"
)

// DefaultTimeZone is used for new events when neither the input nor the client specify one.
const DefaultTimeZone = "UTC"

// Client wraps the Google Calendar service
type Client struct {
	svc      *calendar.Service
	timeZone string
	metrics  *instrumentation.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithTimeZone sets the IANA zone name attached to created and updated events
// when the input does not carry its own.
func WithTimeZone(tz string) Option {
	return func(c *Client) {
		if tz != "" {
			c.timeZone = tz
		}
	}
}

// WithMetrics records every API call on m.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewServiceAccountClient creates a Calendar client that acts as the service account.
func NewServiceAccountClient(ctx context.Context, sa *google.ServiceAccount, opts ...Option) (*Client, error) {
	if sa == nil {
		return nil, fmt.Errorf("service account cannot be nil")
	}
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(sa.HTTPClient(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return NewClientWithService(svc, opts...), nil
}

// NewClientForToken creates a Calendar client that acts as the user who owns token.
// The onboarding flow uses it to share the user's calendar.
func NewClientForToken(ctx context.Context, conf *oauth2.Config, token *oauth2.Token, opts ...Option) (*Client, error) {
	if conf == nil || token == nil {
		return nil, fmt.Errorf("oauth config and token are required")
	}

	client := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))

	// Force HTTP/1.1 by disabling HTTP/2
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{ForceAttemptHTTP2: false}
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return NewClientWithService(svc, opts...), nil
}

// NewClientWithService wraps an already configured service.
func NewClientWithService(svc *calendar.Service, opts ...Option) *Client {
	c := &Client{svc: svc, timeZone: DefaultTimeZone}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// observe starts a span for one API call. The returned func ends it and
// records the outcome.
func (c *Client) observe(ctx context.Context, operation, owner string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := instrumentation.StartCalendarSpan(ctx, operation, owner)
	return ctx, func(err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		span.End()
		c.metrics.RecordCalendarOperation(ctx, operation, status, time.Since(start))
	}
}

// ListEvents lists events on owner's calendar within a time range.
// Recurring events are expanded into single instances.
func (c *Client) ListEvents(ctx context.Context, owner string, timeMin, timeMax time.Time, query string) (_ []EventSummary, err error) {
	op := instrumentation.OperationList
	if query != "" {
		op = instrumentation.OperationSearch
	}
	ctx, done := c.observe(ctx, op, owner)
	defer func() { done(err) }()

	call := c.svc.Events.List(owner).
		Context(ctx).
		TimeMin(timeMin.Format(time.RFC3339)).
		TimeMax(timeMax.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	if query != "" {
		call = call.Q(query)
	}

	var summaries []EventSummary
	err = call.Pages(ctx, func(page *calendar.Events) error {
		for _, event := range page.Items {
			summaries = append(summaries, toEventSummary(event))
		}
		return nil
	})
	if err != nil {
		return nil, classify(owner, "list events", err)
	}

	return summaries, nil
}

// GetEvent retrieves a specific event by ID
func (c *Client) GetEvent(ctx context.Context, owner, eventID string) (_ *EventSummary, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationGet, owner)
	defer func() { done(err) }()

	event, err := c.svc.Events.Get(owner, eventID).Context(ctx).Do()
	if err != nil {
		return nil, classifyEvent(owner, eventID, "get event", err)
	}

	summary := toEventSummary(event)
	return &summary, nil
}

// CreateEvent creates a new event on owner's calendar
func (c *Client) CreateEvent(ctx context.Context, owner string, input EventInput) (_ *EventSummary, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationCreate, owner)
	defer func() { done(err) }()

	tz := input.TimeZone
	if tz == "" {
		tz = c.timeZone
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Location:    input.Location,
		Start:       &calendar.EventDateTime{DateTime: input.Start.Format(time.RFC3339), TimeZone: tz},
		End:         &calendar.EventDateTime{DateTime: input.End.Format(time.RFC3339), TimeZone: tz},
		Attendees:   toAttendees(input.Attendees),
		Recurrence:  input.Recurrence,
	}

	call := c.svc.Events.Insert(owner, event).Context(ctx)
	if input.AddGoogleMeet {
		call = call.ConferenceDataVersion(1)
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		}
	}

	created, err := call.Do()
	if err != nil {
		return nil, classify(owner, "create event", err)
	}

	summary := toEventSummary(created)
	return &summary, nil
}

// UpdateEvent applies the non-empty fields of input to an existing event
func (c *Client) UpdateEvent(ctx context.Context, owner, eventID string, input EventInput) (_ *EventSummary, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationUpdate, owner)
	defer func() { done(err) }()

	existing, err := c.svc.Events.Get(owner, eventID).Context(ctx).Do()
	if err != nil {
		return nil, classifyEvent(owner, eventID, "get existing event", err)
	}

	if input.Summary != "" {
		existing.Summary = input.Summary
	}
	if input.Description != "" {
		existing.Description = input.Description
	}
	if input.Location != "" {
		existing.Location = input.Location
	}

	tz := input.TimeZone
	if tz == "" {
		tz = c.timeZone
	}
	if !input.Start.IsZero() {
		existing.Start = &calendar.EventDateTime{DateTime: input.Start.Format(time.RFC3339), TimeZone: tz}
	}
	if !input.End.IsZero() {
		existing.End = &calendar.EventDateTime{DateTime: input.End.Format(time.RFC3339), TimeZone: tz}
	}

	if len(input.Attendees) > 0 {
		existing.Attendees = toAttendees(input.Attendees)
	}
	if len(input.Recurrence) > 0 {
		existing.Recurrence = input.Recurrence
	}

	updated, err := c.svc.Events.Update(owner, eventID, existing).Context(ctx).Do()
	if err != nil {
		return nil, classifyEvent(owner, eventID, "update event", err)
	}

	summary := toEventSummary(updated)
	return &summary, nil
}

// DeleteEvent deletes an event from owner's calendar
func (c *Client) DeleteEvent(ctx context.Context, owner, eventID string) (err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationDelete, owner)
	defer func() { done(err) }()

	if err = c.svc.Events.Delete(owner, eventID).Context(ctx).Do(); err != nil {
		return classifyEvent(owner, eventID, "delete event", err)
	}
	return nil
}

// ListCalendars lists the calendars visible to the authenticated principal.
// For the service account this is the set of calendars users have shared.
func (c *Client) ListCalendars(ctx context.Context) ([]CalendarInfo, error) {
	var calendars []CalendarInfo
	err := c.svc.CalendarList.List().Pages(ctx, func(page *calendar.CalendarList) error {
		for _, entry := range page.Items {
			calendars = append(calendars, toCalendarInfo(entry))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	return calendars, nil
}

// QueryFreeBusy returns busy ranges for each owner in a time range
func (c *Client) QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, owners []string) (_ []FreeBusyInfo, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationFreeBusy, "")
	defer func() { done(err) }()

	items := make([]*calendar.FreeBusyRequestItem, len(owners))
	for i, id := range owners {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	query := &calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   items,
	}

	result, err := c.svc.Freebusy.Query(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	// Keep the caller's owner order; the response is a map.
	infos := make([]FreeBusyInfo, 0, len(owners))
	for _, owner := range owners {
		info := FreeBusyInfo{Calendar: owner}
		cal, ok := result.Calendars[owner]
		if !ok {
			info.Errors = append(info.Errors, "notFound")
			infos = append(infos, info)
			continue
		}

		for _, busy := range cal.Busy {
			start, serr := time.Parse(time.RFC3339, busy.Start)
			end, eerr := time.Parse(time.RFC3339, busy.End)
			if serr != nil || eerr != nil {
				return nil, fmt.Errorf("malformed busy range %s/%s for %s", busy.Start, busy.End, owner)
			}
			info.Busy = append(info.Busy, TimeRange{Start: start, End: end})
		}

		for _, e := range cal.Errors {
			info.Errors = append(info.Errors, e.Reason)
		}

		infos = append(infos, info)
	}

	return infos, nil
}

// ShareCalendar grants grantee the given role ("reader", "writer", ...) on
// calendarID. Onboarding calls it with the user's own token.
func (c *Client) ShareCalendar(ctx context.Context, calendarID, grantee, role string) (err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationShare, grantee)
	defer func() { done(err) }()

	rule := &calendar.AclRule{
		Scope: &calendar.AclRuleScope{Type: "user", Value: grantee},
		Role:  role,
	}
	if _, err = c.svc.Acl.Insert(calendarID, rule).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to share calendar %s with %s: %w", calendarID, grantee, err)
	}
	return nil
}

func toAttendees(emails []string) []*calendar.EventAttendee {
	if len(emails) == 0 {
		return nil
	}
	attendees := make([]*calendar.EventAttendee, 0, len(emails))
	for _, email := range emails {
		attendees = append(attendees, &calendar.EventAttendee{Email: email})
	}
	return attendees
}
