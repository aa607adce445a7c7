package conflict

import (
	"math/rand"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetwise/internal/interval"
)

var baseTime = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func event(id, owner string, startHour, startMin, endHour, endMin int) CalendarEvent {
	start := baseTime.Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute)
	end := baseTime.Add(time.Duration(endHour)*time.Hour + time.Duration(endMin)*time.Minute)
	return CalendarEvent{ID: id, Owner: owner, Summary: id, Interval: interval.MustNew(start, end)}
}

func identities(pairs []Pair) []string {
	out := make([]string, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, p.Identity())
	}
	return out
}

func TestFindConflicts_CrossOwnerOverlap(t *testing.T) {
	events := []CalendarEvent{
		event("e1", "x@example.com", 10, 0, 11, 0),
		event("e2", "y@example.com", 10, 30, 11, 30),
	}

	pairs := FindConflicts(events)
	require.Len(t, pairs, 1)
	assert.Equal(t, "e1", pairs[0].First.ID)
	assert.Equal(t, "e2", pairs[0].Second.ID)
	assert.Equal(t, "e1|e2", pairs[0].Identity())

	overlap := pairs[0].Overlap()
	assert.Equal(t, baseTime.Add(10*time.Hour+30*time.Minute), overlap.Start)
	assert.Equal(t, baseTime.Add(11*time.Hour), overlap.End)

	again := FindConflicts(events)
	assert.Equal(t, identities(pairs), identities(again))
}

func TestFindConflicts_SameOwnerIgnored(t *testing.T) {
	events := []CalendarEvent{
		event("e1", "x@example.com", 10, 0, 11, 0),
		event("e2", "x@example.com", 10, 30, 11, 30),
	}
	assert.Empty(t, FindConflicts(events))
}

func TestFindConflicts_TouchingEventsDoNotConflict(t *testing.T) {
	events := []CalendarEvent{
		event("e1", "x@example.com", 10, 0, 11, 0),
		event("e2", "y@example.com", 11, 0, 12, 0),
	}
	assert.Empty(t, FindConflicts(events))
}

func TestFindConflicts_DuplicateEventsReportedOnce(t *testing.T) {
	// The same shared meeting fetched twice for one owner must not produce a second pair.
	e1 := event("e1", "x@example.com", 9, 0, 10, 0)
	e2 := event("e2", "y@example.com", 9, 30, 10, 30)

	pairs := FindConflicts([]CalendarEvent{e1, e2, e1})
	assert.Equal(t, []string{"e1|e2"}, identities(pairs))
}

func TestFindConflicts_SharedMeetingNotSelfConflict(t *testing.T) {
	events := []CalendarEvent{
		event("standup", "x@example.com", 10, 0, 11, 0),
		event("standup", "y@example.com", 10, 0, 11, 0),
		event("review", "y@example.com", 10, 30, 11, 30),
	}

	pairs := FindConflicts(events)
	// x's copy of the standup still clashes with y's review.
	assert.Equal(t, []string{"review|standup"}, identities(pairs))
	assert.Equal(t, "x@example.com", pairs[0].First.Owner)
}

func TestFindConflicts_DiscoveryOrder(t *testing.T) {
	events := []CalendarEvent{
		event("c", "z@example.com", 9, 45, 10, 15),
		event("a", "x@example.com", 9, 0, 10, 0),
		event("b", "y@example.com", 9, 30, 11, 0),
		event("d", "x@example.com", 12, 0, 13, 0),
	}

	pairs := FindConflicts(events)
	assert.Equal(t, []string{"a|b", "a|c", "b|c"}, identities(pairs))
	assert.Equal(t, "b", pairs[2].First.ID)
}

func TestFindConflicts_OrderIndependent(t *testing.T) {
	owners := []string{"x@example.com", "y@example.com", "z@example.com"}
	var events []CalendarEvent
	for i := 0; i < 40; i++ {
		start := i * 17
		events = append(events, event(
			string(rune('A'+i%26))+string(rune('a'+i/26)),
			owners[i%len(owners)],
			8+start/60, start%60,
			9+start/60, start%60,
		))
	}

	ascending := FindConflicts(events)
	require.NotEmpty(t, ascending)

	reversed := slices.Clone(events)
	slices.Reverse(reversed)
	assert.ElementsMatch(t, identities(ascending), identities(FindConflicts(reversed)))

	shuffled := slices.Clone(events)
	rand.New(rand.NewSource(42)).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	// Start times are distinct, so even the discovery order is fixed.
	assert.Equal(t, identities(ascending), identities(FindConflicts(shuffled)))

	seen := map[string]bool{}
	for _, p := range ascending {
		assert.NotEqual(t, p.First.Owner, p.Second.Owner)
		assert.True(t, interval.Overlaps(p.First.Interval, p.Second.Interval))
		assert.False(t, seen[p.Identity()], "duplicate pair %s", p.Identity())
		seen[p.Identity()] = true
	}
}

func TestFindConflicts_DoesNotMutateInput(t *testing.T) {
	events := []CalendarEvent{
		event("late", "x@example.com", 15, 0, 16, 0),
		event("early", "y@example.com", 9, 0, 10, 0),
	}
	FindConflicts(events)
	assert.Equal(t, "late", events[0].ID)
}

func TestPairIdentity(t *testing.T) {
	assert.Equal(t, "a|b", PairIdentity("a", "b"))
	assert.Equal(t, "a|b", PairIdentity("b", "a"))
}
