package availability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetwise/internal/interval"
)

var kolkata = time.FixedZone("IST", 5*60*60+30*60)

// monday is midnight local time on the first day of every search below.
var monday = time.Date(2025, 3, 10, 0, 0, 0, 0, kolkata)

func at(day, hour, minute int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func busy(attendee string, start, end time.Time) BusyBlock {
	return BusyBlock{Attendee: attendee, Interval: interval.MustNew(start, end)}
}

func oneDay() WorkingHoursPolicy {
	p := DefaultPolicy(kolkata)
	p.SearchHorizonDays = 1
	return p
}

func starts(slots []SlotCandidate) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start().Format(time.RFC3339))
	}
	return out
}

func stamps(times ...time.Time) []string {
	out := make([]string, 0, len(times))
	for _, t := range times {
		out = append(out, t.Format(time.RFC3339))
	}
	return out
}

func TestFindSlots_BusyMorningLeavesLateAfternoon(t *testing.T) {
	blocks := []BusyBlock{busy("a@example.com", at(0, 9, 0), at(0, 17, 0))}

	slots, err := FindSlots(monday, blocks, 30, oneDay())
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.True(t, slots[0].Start().Equal(at(0, 17, 0)))
	assert.True(t, slots[0].Interval.End.Equal(at(0, 17, 30)))
}

func TestFindSlots_EmptyCalendar(t *testing.T) {
	slots, err := FindSlots(monday, nil, 60, DefaultPolicy(kolkata))
	require.NoError(t, err)
	require.Len(t, slots, DefaultMaxResults)
	for i, s := range slots {
		assert.True(t, s.Start().Equal(at(i, 10, 0)), "slot %d starts at %s", i, s.Start())
	}
}

func TestFindSlots_GapsBetweenBlocks(t *testing.T) {
	blocks := []BusyBlock{
		busy("b@example.com", at(0, 13, 0), at(0, 14, 0)),
		busy("a@example.com", at(0, 10, 30), at(0, 12, 0)),
		busy("a@example.com", at(0, 11, 30), at(0, 12, 30)),
	}

	slots, err := FindSlots(monday, blocks, 30, oneDay())
	require.NoError(t, err)
	assert.Equal(t, stamps(at(0, 10, 0), at(0, 12, 30), at(0, 14, 0)), starts(slots))
}

func TestFindSlots_FullyBusyEveryDay(t *testing.T) {
	policy := DefaultPolicy(kolkata)
	var blocks []BusyBlock
	for d := 0; d < policy.SearchHorizonDays; d++ {
		blocks = append(blocks, busy("a@example.com", at(d, 8, 0), at(d, 19, 0)))
	}

	slots, err := FindSlots(monday, blocks, 15, policy)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestFindSlots_BlockSpanningMidnight(t *testing.T) {
	policy := oneDay()
	policy.SearchHorizonDays = 2
	// Starts on day 0 after hours and runs until 11:00 on day 1.
	blocks := []BusyBlock{busy("a@example.com", at(0, 22, 0), at(1, 11, 0))}

	slots, err := FindSlots(monday, blocks, 60, policy)
	require.NoError(t, err)
	assert.Equal(t, stamps(at(0, 10, 0), at(1, 11, 0)), starts(slots))
}

func TestFindSlots_UTCBlocksKeepPolicyZone(t *testing.T) {
	// Free/busy providers answer in UTC.
	blocks := []BusyBlock{
		busy("a@example.com", at(0, 10, 0).UTC(), at(0, 11, 0).UTC()),
		busy("b@example.com", at(0, 13, 0).UTC(), at(0, 14, 0).UTC()),
	}

	slots, err := FindSlots(monday.UTC(), blocks, 30, oneDay())
	require.NoError(t, err)
	assert.Equal(t, stamps(at(0, 11, 0), at(0, 14, 0)), starts(slots))
	for _, s := range slots {
		assert.Equal(t, kolkata, s.Start().Location())
		assert.Equal(t, kolkata, s.Interval.End.Location())
	}
}

func TestFindSlots_BlocksOutsideWorkingHoursIgnored(t *testing.T) {
	blocks := []BusyBlock{
		busy("a@example.com", at(0, 7, 0), at(0, 9, 0)),
		busy("a@example.com", at(0, 19, 0), at(0, 20, 0)),
	}

	slots, err := FindSlots(monday, blocks, 480, oneDay())
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.True(t, slots[0].Start().Equal(at(0, 10, 0)))
}

func TestFindSlots_RespectsCap(t *testing.T) {
	policy := DefaultPolicy(kolkata)
	policy.MaxResults = 3
	blocks := []BusyBlock{
		busy("a@example.com", at(0, 11, 0), at(0, 12, 0)),
		busy("a@example.com", at(0, 13, 0), at(0, 14, 0)),
		busy("a@example.com", at(0, 15, 0), at(0, 16, 0)),
	}

	slots, err := FindSlots(monday, blocks, 30, policy)
	require.NoError(t, err)
	assert.Equal(t, stamps(at(0, 10, 0), at(0, 12, 0), at(0, 14, 0)), starts(slots))
}

func TestFindSlots_DoesNotProposePastTimes(t *testing.T) {
	now := at(0, 14, 7).Add(12 * time.Second)

	slots, err := FindSlots(now, nil, 30, oneDay())
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.True(t, slots[0].Start().Equal(at(0, 14, 8)))

	late := at(0, 17, 45)
	slots, err = FindSlots(late, nil, 30, oneDay())
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestFindSlots_InvalidInput(t *testing.T) {
	_, err := FindSlots(monday, nil, 0, oneDay())
	assert.ErrorIs(t, err, ErrInvalidDuration)

	_, err = FindSlots(monday, nil, -15, oneDay())
	assert.ErrorIs(t, err, ErrInvalidDuration)

	bad := oneDay()
	bad.DayStartHour, bad.DayEndHour = 18, 10
	_, err = FindSlots(monday, nil, 30, bad)
	assert.ErrorIs(t, err, ErrInvalidPolicy)
}

func TestFindSlots_Properties(t *testing.T) {
	policy := DefaultPolicy(kolkata)
	policy.MaxResults = 50
	blocks := []BusyBlock{
		busy("a@example.com", at(0, 9, 30), at(0, 10, 45)),
		busy("b@example.com", at(0, 10, 30), at(0, 11, 15)),
		busy("c@example.com", at(1, 16, 0), at(2, 10, 20)),
		busy("a@example.com", at(2, 12, 0), at(2, 12, 10)),
		busy("b@example.com", at(3, 10, 0), at(3, 18, 0)),
		busy("a@example.com", at(4, 17, 50), at(4, 23, 0)),
	}

	first, err := FindSlots(monday, blocks, 45, policy)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	for i, s := range first {
		assert.Equal(t, 45*time.Minute, s.Interval.Duration())
		dayStart, dayEnd := policy.window(s.Start(), 0)
		assert.False(t, s.Start().Before(dayStart), "slot %s starts before working hours", s.Interval)
		assert.False(t, s.Interval.End.After(dayEnd), "slot %s ends after working hours", s.Interval)
		for _, b := range blocks {
			assert.False(t, interval.Overlaps(s.Interval, b.Interval), "slot %s overlaps %s", s.Interval, b.Interval)
		}
		if i > 0 {
			assert.True(t, first[i-1].Start().Before(s.Start()), "slots must be chronological")
		}
	}

	again, err := FindSlots(monday, blocks, 45, policy)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}
