package scheduling

import (
	"context"
	"time"

	"github.com/teemow/meetwise/internal/availability"
	"github.com/teemow/meetwise/internal/conflict"
)

// Source supplies calendar data for owners identified by email address.
type Source interface {
	// Events returns owner's timed events in [from, to).
	Events(ctx context.Context, owner string, from, to time.Time) ([]conflict.CalendarEvent, error)

	// BusyBlocks returns the busy time of every owner in [from, to). It must
	// fail rather than return data for only some of the owners.
	BusyBlocks(ctx context.Context, owners []string, from, to time.Time) ([]availability.BusyBlock, error)
}
