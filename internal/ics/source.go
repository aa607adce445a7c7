package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/teemow/meetwise/internal/availability"
	"github.com/teemow/meetwise/internal/conflict"
	"github.com/teemow/meetwise/internal/logging"
)

const (
	// DefaultFetchTimeout bounds a single feed download.
	DefaultFetchTimeout = 15 * time.Second

	maxFeedBytes = 10 << 20
)

// ErrUnknownFeed is returned for an owner without a configured feed URL.
var ErrUnknownFeed = errors.New("no ICS feed configured for owner")

// Source serves owners whose calendars are published as ICS feeds.
type Source struct {
	feeds  map[string]string
	client *http.Client
	loc    *time.Location
	logger *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient replaces the HTTP client used for downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) {
		if c != nil {
			s.client = c
		}
	}
}

// WithLocation sets the zone for floating times. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Source) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithLogger sets the logger for skipped VEVENTs.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSource creates a Source from a map of owner email to feed URL.
func NewSource(feeds map[string]string, opts ...Option) *Source {
	s := &Source{
		feeds:  make(map[string]string, len(feeds)),
		client: &http.Client{Timeout: DefaultFetchTimeout},
		loc:    time.UTC,
		logger: slog.Default(),
	}
	for owner, url := range feeds {
		s.feeds[strings.ToLower(strings.TrimSpace(owner))] = url
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serves reports whether every owner has a configured feed.
func (s *Source) Serves(owners ...string) bool {
	for _, o := range owners {
		if _, ok := s.feeds[strings.ToLower(strings.TrimSpace(o))]; !ok {
			return false
		}
	}
	return true
}

// Events returns owner's timed events in [from, to).
func (s *Source) Events(ctx context.Context, owner string, from, to time.Time) ([]conflict.CalendarEvent, error) {
	url, ok := s.feeds[strings.ToLower(strings.TrimSpace(owner))]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFeed, owner)
	}

	body, err := s.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("feed for %s: %w", owner, err)
	}

	parsed, skipped, err := Parse(body, s.loc)
	if err != nil {
		return nil, fmt.Errorf("feed for %s: %w", owner, err)
	}
	for _, perr := range skipped {
		s.logger.Warn("skipping malformed VEVENT", logging.Owner(owner), logging.Err(perr))
	}

	return Expand(owner, parsed, from, to)
}

// BusyBlocks downloads every owner's feed concurrently. Transparent events do
// not make an owner busy.
func (s *Source) BusyBlocks(ctx context.Context, owners []string, from, to time.Time) ([]availability.BusyBlock, error) {
	perOwner := make([][]availability.BusyBlock, len(owners))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, owner := range owners {
		g.Go(func() error {
			url, ok := s.feeds[strings.ToLower(strings.TrimSpace(owner))]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownFeed, owner)
			}
			body, err := s.fetch(gctx, url)
			if err != nil {
				return fmt.Errorf("feed for %s: %w", owner, err)
			}
			parsed, _, err := Parse(body, s.loc)
			if err != nil {
				return fmt.Errorf("feed for %s: %w", owner, err)
			}

			opaque := parsed[:0:0]
			for _, ev := range parsed {
				if !ev.Transparent {
					opaque = append(opaque, ev)
				}
			}
			events, err := Expand(owner, opaque, from, to)
			if err != nil {
				return err
			}
			for _, e := range events {
				perOwner[i] = append(perOwner[i], availability.BusyBlock{Attendee: owner, Interval: e.Interval})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var blocks []availability.BusyBlock
	for _, b := range perOwner {
		blocks = append(blocks, b...)
	}
	return blocks, nil
}

func (s *Source) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
}
