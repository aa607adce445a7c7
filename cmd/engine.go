package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teemow/meetwise/internal/cache"
	"github.com/teemow/meetwise/internal/calendar"
	"github.com/teemow/meetwise/internal/config"
	"github.com/teemow/meetwise/internal/google"
	"github.com/teemow/meetwise/internal/ics"
	"github.com/teemow/meetwise/internal/instrumentation"
	"github.com/teemow/meetwise/internal/scheduling"
)

// engine bundles the calendar client and the scheduling service built from
// the configuration.
type engine struct {
	serviceAccount *google.ServiceAccount
	calendar       *calendar.Client
	scheduler      *scheduling.Service
	redis          *cache.RedisStore
}

// newEngine wires the event sources in this order: the service account
// client, an ICS router for owners with a published feed, and a Redis cache
// for free/busy lookups when a Redis URL is configured.
func newEngine(ctx context.Context, cfg *config.Config, metrics *instrumentation.Metrics, logger *slog.Logger) (*engine, error) {
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}

	sa, err := google.LoadServiceAccount(cfg.CredentialsFile, google.ServiceAccountScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to load service account: %w", err)
	}
	client, err := calendar.NewServiceAccountClient(ctx, sa,
		calendar.WithTimeZone(cfg.EventTimeZone),
		calendar.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}

	e := &engine{serviceAccount: sa, calendar: client}

	var source scheduling.Source = client
	if feeds := cfg.Feeds(); len(feeds) > 0 {
		feedSource := ics.NewSource(feeds,
			ics.WithLocation(policy.Location),
			ics.WithLogger(logger),
		)
		source = &scheduling.Router{
			Default:   client,
			Alternate: feedSource,
			Claims:    func(owner string) bool { return feedSource.Serves(owner) },
		}
		logger.Info("ics feeds configured", "feeds", len(feeds))
	}

	if cfg.RedisURL != "" {
		store, err := cache.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis unavailable, continuing without free/busy cache", "error", err)
		} else {
			e.redis = store
			source = cache.NewBusyCache(source, store, cfg.CacheTTL, metrics, logger)
		}
	}

	e.scheduler, err = scheduling.NewService(source, scheduling.Options{
		Policy:              policy,
		ConflictHorizonDays: cfg.ConflictHorizonDays,
		ReadHorizonDays:     cfg.ReadHorizonDays,
		Metrics:             metrics,
		Logger:              logger,
	})
	if err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// Close releases the Redis connection, if any.
func (e *engine) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
}
