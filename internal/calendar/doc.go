// Package calendar provides a client for the Google Calendar API scoped to the
// calendars that users have shared with the meetwise service account.
//
// Each call names the owner whose calendar it targets; the owner's email is the
// calendar id. A calendar that has not been shared yet yields an
// *OnboardingRequiredError so callers can send the user through onboarding.
//
// The client also adapts provider data for the scheduling engine: timed events
// become conflict.CalendarEvent values and free/busy ranges become
// availability.BusyBlock values. All-day events are dropped in that step.
//
// Example usage:
//
//	sa, err := google.LoadServiceAccount("service_account.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	client, err := calendar.NewServiceAccountClient(ctx, sa)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	events, err := client.ListEvents(ctx, "alice@example.com", time.Now(), time.Now().AddDate(0, 0, 30), "")
package calendar
