// Package ics reads published iCalendar feeds as a scheduling source.
//
// Feeds are fetched over HTTP, parsed with golang-ical and expanded with
// rrule-go so recurring series become individual occurrences. All-day events
// are ignored: they do not block meeting time.
package ics
