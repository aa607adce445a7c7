package scheduling

import (
	"context"
	"time"

	"github.com/teemow/meetwise/internal/availability"
	"github.com/teemow/meetwise/internal/conflict"
)

// Router splits owners between two sources: owners for which Claims returns
// true are read from Alternate, everyone else from Default.
type Router struct {
	Default   Source
	Alternate Source
	Claims    func(owner string) bool
}

func (r *Router) pick(owner string) Source {
	if r.Alternate != nil && r.Claims != nil && r.Claims(owner) {
		return r.Alternate
	}
	return r.Default
}

// Events implements Source.
func (r *Router) Events(ctx context.Context, owner string, from, to time.Time) ([]conflict.CalendarEvent, error) {
	return r.pick(owner).Events(ctx, owner, from, to)
}

// BusyBlocks implements Source.
func (r *Router) BusyBlocks(ctx context.Context, owners []string, from, to time.Time) ([]availability.BusyBlock, error) {
	var primary, alternate []string
	for _, o := range owners {
		if r.pick(o) == r.Default {
			primary = append(primary, o)
		} else {
			alternate = append(alternate, o)
		}
	}

	var blocks []availability.BusyBlock
	if len(primary) > 0 {
		b, err := r.Default.BusyBlocks(ctx, primary, from, to)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b...)
	}
	if len(alternate) > 0 {
		b, err := r.Alternate.BusyBlocks(ctx, alternate, from, to)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b...)
	}
	return blocks, nil
}
