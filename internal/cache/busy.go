package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/teemow/meetwise/internal/availability"
	"github.com/teemow/meetwise/internal/conflict"
	"github.com/teemow/meetwise/internal/instrumentation"
	"github.com/teemow/meetwise/internal/interval"
	"github.com/teemow/meetwise/internal/logging"
	"github.com/teemow/meetwise/internal/scheduling"
)

const (
	busyKeyPrefix = "meetwise:busy:"

	// DefaultTTL is how long a cached free/busy answer is served.
	DefaultTTL = 5 * time.Minute
)

// encodeEntry serializes one owner's cached blocks.
var encodeEntry = json.Marshal

// BusyCache is a scheduling.Source that caches BusyBlocks per owner. Windows
// are widened to TTL boundaries so that searches started a few seconds apart
// share entries. Events are always read from the underlying source. Store
// failures are logged and bypassed.
type BusyCache struct {
	next    scheduling.Source
	store   Store
	ttl     time.Duration
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

// NewBusyCache wraps next. A non-positive ttl uses DefaultTTL.
func NewBusyCache(next scheduling.Source, store Store, ttl time.Duration, metrics *instrumentation.Metrics, logger *slog.Logger) *BusyCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BusyCache{next: next, store: store, ttl: ttl, metrics: metrics, logger: logger}
}

type cachedBlock struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Events implements scheduling.Source by delegating.
func (c *BusyCache) Events(ctx context.Context, owner string, from, to time.Time) ([]conflict.CalendarEvent, error) {
	return c.next.Events(ctx, owner, from, to)
}

// BusyBlocks implements scheduling.Source.
func (c *BusyCache) BusyBlocks(ctx context.Context, owners []string, from, to time.Time) ([]availability.BusyBlock, error) {
	wideFrom := from.Truncate(c.ttl)
	wideTo := to.Truncate(c.ttl).Add(c.ttl)

	var blocks []availability.BusyBlock
	var missing []string
	for _, owner := range owners {
		cached, ok := c.lookup(ctx, c.key(owner, wideFrom, wideTo))
		if !ok {
			missing = append(missing, owner)
			continue
		}
		for _, b := range cached {
			blocks = append(blocks, availability.BusyBlock{Attendee: owner, Interval: interval.Interval{Start: b.Start, End: b.End}})
		}
	}

	if len(missing) > 0 {
		fetched, err := c.next.BusyBlocks(ctx, missing, wideFrom, wideTo)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, fetched...)
		c.fill(ctx, missing, fetched, wideFrom, wideTo)
	}

	window := interval.Interval{Start: from, End: to}
	out := blocks[:0]
	for _, b := range blocks {
		if interval.Overlaps(b.Interval, window) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (c *BusyCache) key(owner string, from, to time.Time) string {
	return busyKeyPrefix + strings.ToLower(owner) + ":" +
		strconv.FormatInt(from.Unix(), 10) + ":" + strconv.FormatInt(to.Unix(), 10)
}

func (c *BusyCache) lookup(ctx context.Context, key string) ([]cachedBlock, bool) {
	raw, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
	case errors.Is(err, ErrCacheMiss):
		c.metrics.RecordCacheLookup(ctx, instrumentation.CacheMiss)
		return nil, false
	default:
		c.metrics.RecordCacheLookup(ctx, instrumentation.CacheError)
		c.logger.Warn("busy cache read failed, bypassing", logging.Err(err))
		return nil, false
	}

	var blocks []cachedBlock
	if err := json.Unmarshal(raw, &blocks); err != nil {
		c.metrics.RecordCacheLookup(ctx, instrumentation.CacheError)
		c.logger.Warn("discarding corrupt busy cache entry", logging.Err(err))
		return nil, false
	}
	c.metrics.RecordCacheLookup(ctx, instrumentation.CacheHit)
	return blocks, true
}

// fill stores one entry per owner, including owners with no busy time.
func (c *BusyCache) fill(ctx context.Context, owners []string, blocks []availability.BusyBlock, from, to time.Time) {
	byOwner := make(map[string][]cachedBlock, len(owners))
	for _, o := range owners {
		byOwner[strings.ToLower(o)] = []cachedBlock{}
	}
	for _, b := range blocks {
		k := strings.ToLower(b.Attendee)
		byOwner[k] = append(byOwner[k], cachedBlock{Start: b.Interval.Start, End: b.Interval.End})
	}

	for _, o := range owners {
		raw, err := encodeEntry(byOwner[strings.ToLower(o)])
		if err != nil {
			c.logger.Warn("busy cache encode failed", logging.Owner(o), logging.Err(err))
			continue
		}
		if err := c.store.Set(ctx, c.key(o, from, to), raw, c.ttl); err != nil {
			c.logger.Warn("busy cache write failed", logging.Owner(o), logging.Err(err))
			return
		}
	}
}
