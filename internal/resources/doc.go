// Package resources provides read-only MCP resources describing how meetwise
// schedules: the working-hours policy and the calendars shared with it.
package resources
