// Package calendar_tools exposes meeting scheduling over MCP: creating and
// editing events on a user's shared Google Calendar, proposing free slots for
// a group of attendees and reporting double bookings between them.
//
// Every tool identifies the calendar by its owner's email address
// ("user_email"). The calendar must have been shared with the service account
// through the onboarding flow; otherwise the tool answers with a link to it.
package calendar_tools
