package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetwise/internal/availability"
	"github.com/teemow/meetwise/internal/interval"
)

type recordingSource struct {
	fakeSource
	asked [][]string
}

func (r *recordingSource) BusyBlocks(ctx context.Context, owners []string, from, to time.Time) ([]availability.BusyBlock, error) {
	r.asked = append(r.asked, owners)
	var out []availability.BusyBlock
	for _, o := range owners {
		out = append(out, availability.BusyBlock{Attendee: o, Interval: interval.MustNew(at(0, 10, 0), at(0, 11, 0))})
	}
	return out, nil
}

func TestRouter(t *testing.T) {
	google := &recordingSource{}
	feeds := &recordingSource{}
	r := &Router{
		Default:   google,
		Alternate: feeds,
		Claims:    func(owner string) bool { return owner == "feed@example.com" },
	}

	blocks, err := r.BusyBlocks(context.Background(), []string{"a@example.com", "feed@example.com", "b@example.com"}, now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, blocks, 3)
	assert.Equal(t, [][]string{{"a@example.com", "b@example.com"}}, google.asked)
	assert.Equal(t, [][]string{{"feed@example.com"}}, feeds.asked)

	_, err = r.Events(context.Background(), "feed@example.com", now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"feed@example.com"}, feeds.eventCalls)
	assert.Empty(t, google.eventCalls)
}
