package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetwise/internal/conflict"
	"github.com/teemow/meetwise/internal/interval"
	"github.com/teemow/meetwise/internal/scheduling"
)

func event(id, owner, summary string, start time.Time, minutes int) conflict.CalendarEvent {
	return conflict.CalendarEvent{
		ID:       id,
		Owner:    owner,
		Summary:  summary,
		Interval: interval.Interval{Start: start, End: start.Add(time.Duration(minutes) * time.Minute)},
	}
}

func TestConflictWatcherReportsOnlyNewPairs(t *testing.T) {
	base := time.Date(2026, 10, 13, 10, 0, 0, 0, time.UTC)
	standup := event("a1", "alice@example.com", "Standup", base, 60)
	review := event("b1", "bob@example.com", "Review", base.Add(30*time.Minute), 60)
	lunch := event("c1", "carol@example.com", "Lunch", base.Add(45*time.Minute), 30)

	scans := [][]conflict.CalendarEvent{
		{standup, review},
		{standup, review},
		{standup, review, lunch},
	}
	call := 0
	scan := func(context.Context) (*scheduling.ConflictReport, error) {
		events := scans[call]
		call++
		return &scheduling.ConflictReport{
			From:   base,
			To:     base.AddDate(0, 0, 60),
			Owners: []string{"alice@example.com", "bob@example.com", "carol@example.com"},
			Events: len(events),
			Pairs:  conflict.FindConflicts(events),
		}, nil
	}

	var out bytes.Buffer
	w := newConflictWatcher(scan, &out, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))

	fresh, err := w.check(context.Background())
	require.NoError(t, err)
	assert.Len(t, fresh, 1)
	assert.Contains(t, out.String(), "Found 1 conflict(s)")

	out.Reset()
	fresh, err = w.check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)
	assert.Empty(t, out.String())

	fresh, err = w.check(context.Background())
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
	assert.Contains(t, out.String(), "New conflict: ")
	assert.Contains(t, out.String(), "'Lunch'")
}

func TestConflictWatcherKeepsStateOnError(t *testing.T) {
	base := time.Date(2026, 10, 13, 10, 0, 0, 0, time.UTC)
	pairs := conflict.FindConflicts([]conflict.CalendarEvent{
		event("a1", "alice@example.com", "Standup", base, 60),
		event("b1", "bob@example.com", "Review", base, 60),
	})

	fail := false
	scan := func(context.Context) (*scheduling.ConflictReport, error) {
		if fail {
			return nil, errors.New("calendar unavailable")
		}
		return &scheduling.ConflictReport{From: base, To: base.AddDate(0, 0, 1), Pairs: pairs}, nil
	}

	var out bytes.Buffer
	w := newConflictWatcher(scan, &out, time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := w.check(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = w.check(context.Background())
	require.Error(t, err)

	fail = false
	out.Reset()
	fresh, err := w.check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestConflictWatcherRejectsBadSchedule(t *testing.T) {
	w := newConflictWatcher(func(context.Context) (*scheduling.ConflictReport, error) {
		t.Fatal("scan must not run for an invalid schedule")
		return nil, nil
	}, io.Discard, time.UTC, nil)

	err := w.runSchedule(context.Background(), "not a schedule")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --watch schedule")
}
