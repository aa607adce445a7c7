package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/teemow/meetwise/internal/availability"
	"github.com/teemow/meetwise/internal/conflict"
	"github.com/teemow/meetwise/internal/instrumentation"
	"github.com/teemow/meetwise/internal/logging"
)

// Default horizons, in days.
const (
	DefaultConflictHorizonDays = 60
	DefaultReadHorizonDays     = 30
)

var (
	// ErrNoOwners is returned when a request names no calendar owners.
	ErrNoOwners = errors.New("at least one calendar owner is required")

	// ErrInvalidHorizon is returned for a non-positive horizon.
	ErrInvalidHorizon = errors.New("horizon must be at least one day")
)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Policy              availability.WorkingHoursPolicy
	ConflictHorizonDays int
	ReadHorizonDays     int

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger

	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Service answers scheduling questions against a Source.
type Service struct {
	source  Source
	opts    Options
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	now     func() time.Time
}

// ConflictReport is the result of a conflict scan.
type ConflictReport struct {
	From   time.Time
	To     time.Time
	Owners []string
	Events int
	Pairs  []conflict.Pair
}

// NewService creates a Service reading from source.
func NewService(source Source, opts Options) (*Service, error) {
	if source == nil {
		return nil, fmt.Errorf("source cannot be nil")
	}
	if opts.Policy.Location == nil {
		opts.Policy = availability.DefaultPolicy(time.UTC)
	}
	if err := opts.Policy.Validate(); err != nil {
		return nil, err
	}
	if opts.ConflictHorizonDays <= 0 {
		opts.ConflictHorizonDays = DefaultConflictHorizonDays
	}
	if opts.ReadHorizonDays <= 0 {
		opts.ReadHorizonDays = DefaultReadHorizonDays
	}

	s := &Service{
		source:  source,
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		now:     opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// Policy returns the working-hours policy slot searches use.
func (s *Service) Policy() availability.WorkingHoursPolicy {
	return s.opts.Policy
}

// ConflictHorizonDays returns the default conflict scan horizon.
func (s *Service) ConflictHorizonDays() int {
	return s.opts.ConflictHorizonDays
}

// FindMeetingSlots returns up to Policy.MaxResults start times at which every
// attendee is free for durationMinutes, searching from now across the
// policy's horizon.
func (s *Service) FindMeetingSlots(ctx context.Context, attendees []string, durationMinutes int) (_ []availability.SlotCandidate, err error) {
	ctx, span := instrumentation.StartSpan(ctx, "scheduling.find_slots",
		attribute.Int(instrumentation.SpanAttrOwners, len(attendees)))
	defer span.End()

	logger := logging.WithOperation(s.logger, "scheduling.find_slots")
	defer func() {
		if err != nil {
			instrumentation.SetSpanError(span, err)
			s.metrics.RecordSlotSearch(ctx, instrumentation.StatusError, 0)
			logger.Warn("slot search failed", logging.Owners(attendees), logging.Err(err))
		}
	}()

	attendees = normalizeOwners(attendees)
	if len(attendees) == 0 {
		return nil, ErrNoOwners
	}
	if durationMinutes <= 0 {
		return nil, availability.ErrInvalidDuration
	}

	from := s.now()
	to := from.AddDate(0, 0, s.opts.Policy.SearchHorizonDays+1)

	busy, err := s.source.BusyBlocks(ctx, attendees, from, to)
	if err != nil {
		return nil, err
	}

	slots, err := availability.FindSlots(from, busy, durationMinutes, s.opts.Policy)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.Int(instrumentation.SpanAttrBlocks, len(busy)),
		attribute.Int(instrumentation.SpanAttrResults, len(slots)),
	)
	instrumentation.SetSpanSuccess(span)
	s.metrics.RecordSlotSearch(ctx, instrumentation.StatusSuccess, len(slots))
	logger.Debug("slot search finished", logging.Owners(attendees), logging.Count(len(slots)))
	return slots, nil
}

// CheckConflicts scans every owner's events over the next horizonDays and
// reports overlapping pairs between different owners. A non-positive horizon
// uses the configured default. Events are fetched concurrently; if any
// owner's calendar cannot be read the whole scan fails.
func (s *Service) CheckConflicts(ctx context.Context, owners []string, horizonDays int) (_ *ConflictReport, err error) {
	ctx, span := instrumentation.StartSpan(ctx, "scheduling.check_conflicts",
		attribute.Int(instrumentation.SpanAttrOwners, len(owners)))
	defer span.End()

	logger := logging.WithOperation(s.logger, "scheduling.check_conflicts")
	defer func() {
		if err != nil {
			instrumentation.SetSpanError(span, err)
			s.metrics.RecordConflictScan(ctx, instrumentation.StatusError, 0)
			logger.Warn("conflict scan failed", logging.Owners(owners), logging.Err(err))
		}
	}()

	owners = normalizeOwners(owners)
	if len(owners) == 0 {
		return nil, ErrNoOwners
	}
	if horizonDays <= 0 {
		horizonDays = s.opts.ConflictHorizonDays
	}

	from := s.now()
	to := from.AddDate(0, 0, horizonDays)

	perOwner := make([][]conflict.CalendarEvent, len(owners))
	g, gctx := errgroup.WithContext(ctx)
	for i, owner := range owners {
		g.Go(func() error {
			events, err := s.source.Events(gctx, owner, from, to)
			if err != nil {
				return err
			}
			perOwner[i] = events
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var events []conflict.CalendarEvent
	for _, evs := range perOwner {
		events = append(events, evs...)
	}

	pairs := conflict.FindConflicts(events)

	span.SetAttributes(
		attribute.Int(instrumentation.SpanAttrEvents, len(events)),
		attribute.Int(instrumentation.SpanAttrResults, len(pairs)),
	)
	instrumentation.SetSpanSuccess(span)
	s.metrics.RecordConflictScan(ctx, instrumentation.StatusSuccess, len(pairs))
	logger.Debug("conflict scan finished", logging.Owners(owners),
		slog.Int("events", len(events)), logging.Count(len(pairs)))

	return &ConflictReport{
		From:   from,
		To:     to,
		Owners: owners,
		Events: len(events),
		Pairs:  pairs,
	}, nil
}

// SearchEvents returns owner's events in the read horizon whose summary
// contains query, ignoring case. An empty query matches everything.
func (s *Service) SearchEvents(ctx context.Context, owner, query string) ([]conflict.CalendarEvent, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrNoOwners
	}

	from := s.now()
	events, err := s.source.Events(ctx, owner, from, from.AddDate(0, 0, s.opts.ReadHorizonDays))
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	return slices.DeleteFunc(events, func(e conflict.CalendarEvent) bool {
		return !strings.Contains(strings.ToLower(e.Summary), needle)
	}), nil
}

// normalizeOwners trims addresses, drops blanks and removes duplicates while
// keeping the first occurrence's position.
func normalizeOwners(owners []string) []string {
	seen := make(map[string]bool, len(owners))
	out := make([]string, 0, len(owners))
	for _, o := range owners {
		o = strings.TrimSpace(o)
		key := strings.ToLower(o)
		if o == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o)
	}
	return out
}
