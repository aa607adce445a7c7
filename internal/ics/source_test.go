package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

const feed = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//meetwise//test//EN
BEGIN:VEVENT
UID:standup
DTSTAMP:20261001T000000Z
DTSTART:20261012T043000Z
DTEND:20261012T050000Z
RRULE:FREQ=DAILY;COUNT=5
EXDATE:20261014T043000Z
SUMMARY:Standup
END:VEVENT
BEGIN:VEVENT
UID:standup
DTSTAMP:20261001T000000Z
RECURRENCE-ID:20261015T043000Z
DTSTART:20261015T060000Z
DTEND:20261015T063000Z
SUMMARY:Standup (moved)
END:VEVENT
BEGIN:VEVENT
UID:offsite
DTSTAMP:20261001T000000Z
DTSTART;VALUE=DATE:20261013
DTEND;VALUE=DATE:20261014
SUMMARY:Offsite
END:VEVENT
BEGIN:VEVENT
UID:review
DTSTAMP:20261001T000000Z
DTSTART:20261012T150000
DTEND:20261012T160000
SUMMARY:Review
TRANSP:TRANSPARENT
END:VEVENT
BEGIN:VEVENT
UID:dropped
DTSTAMP:20261001T000000Z
DTSTART:20261012T120000Z
DTEND:20261012T130000Z
STATUS:CANCELLED
SUMMARY:Dropped
END:VEVENT
END:VCALENDAR
`

func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/alice.ics":
			w.Header().Set("Content-Type", "text/calendar")
			_, _ = w.Write([]byte(crlf(feed)))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParse(t *testing.T) {
	events, skipped, err := Parse([]byte(crlf(feed)), ist)
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, events, 5)

	byUID := map[string]ParsedEvent{}
	for _, ev := range events {
		if ev.RecurrenceID == nil {
			byUID[ev.UID] = ev
		}
	}
	assert.True(t, byUID["offsite"].AllDay)
	assert.True(t, byUID["dropped"].Cancelled)
	assert.True(t, byUID["review"].Transparent)
	assert.Equal(t, "2026-10-12T15:00:00+05:30", byUID["review"].Start.Format(time.RFC3339))
	assert.Equal(t, "FREQ=DAILY;COUNT=5", byUID["standup"].RawRRule)
	require.Len(t, byUID["standup"].ExDates, 1)
}

func TestParse_Empty(t *testing.T) {
	_, _, err := Parse(nil, ist)
	assert.Error(t, err)
}

func TestSource_Events(t *testing.T) {
	srv := newFeedServer(t)
	src := NewSource(map[string]string{"Alice@example.com": srv.URL + "/alice.ics"}, WithLocation(ist))

	from := time.Date(2026, 10, 12, 0, 0, 0, 0, ist)
	events, err := src.Events(context.Background(), "alice@example.com", from, from.AddDate(0, 0, 7))
	require.NoError(t, err)

	var got []string
	for _, e := range events {
		assert.Equal(t, "alice@example.com", e.Owner)
		got = append(got, e.Summary+" "+e.Interval.Start.In(ist).Format("Jan 2 15:04"))
	}
	assert.ElementsMatch(t, []string{
		"Standup Oct 12 10:00",
		"Standup Oct 13 10:00",
		"Standup (moved) Oct 15 11:30",
		"Standup Oct 16 10:00",
		"Review Oct 12 15:00",
	}, got)
}

func TestSource_EventsWindowTrimsOccurrences(t *testing.T) {
	srv := newFeedServer(t)
	src := NewSource(map[string]string{"alice@example.com": srv.URL + "/alice.ics"}, WithLocation(ist))

	// 10:15 on the 13th is inside that day's standup, which must still count.
	from := time.Date(2026, 10, 13, 10, 15, 0, 0, ist)
	events, err := src.Events(context.Background(), "alice@example.com", from, from.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "standup/20261013T043000Z", events[0].ID)
}

func TestSource_BusyBlocks(t *testing.T) {
	srv := newFeedServer(t)
	src := NewSource(map[string]string{"alice@example.com": srv.URL + "/alice.ics"}, WithLocation(ist))

	from := time.Date(2026, 10, 12, 0, 0, 0, 0, ist)
	blocks, err := src.BusyBlocks(context.Background(), []string{"alice@example.com"}, from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	// The transparent review does not block time.
	assert.Len(t, blocks, 4)
	for _, b := range blocks {
		assert.Equal(t, "alice@example.com", b.Attendee)
	}
}

func TestSource_Errors(t *testing.T) {
	srv := newFeedServer(t)
	src := NewSource(map[string]string{
		"alice@example.com": srv.URL + "/alice.ics",
		"bob@example.com":   srv.URL + "/missing.ics",
	})
	from := time.Date(2026, 10, 12, 0, 0, 0, 0, ist)
	to := from.AddDate(0, 0, 7)

	_, err := src.Events(context.Background(), "carol@example.com", from, to)
	assert.ErrorIs(t, err, ErrUnknownFeed)

	_, err = src.Events(context.Background(), "bob@example.com", from, to)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = src.BusyBlocks(context.Background(), []string{"alice@example.com", "bob@example.com"}, from, to)
	assert.Error(t, err)

	assert.True(t, src.Serves("Alice@example.com", "bob@example.com"))
	assert.False(t, src.Serves("alice@example.com", "carol@example.com"))
}
