package cache

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/meetwise/internal/availability"
	"github.com/teemow/meetwise/internal/conflict"
	"github.com/teemow/meetwise/internal/interval"
	"github.com/teemow/meetwise/internal/logging"
)

var base = time.Date(2026, 10, 12, 4, 31, 12, 0, time.UTC)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

type countingSource struct {
	calls  [][]string
	blocks map[string][]interval.Interval
	err    error
}

func (s *countingSource) Events(context.Context, string, time.Time, time.Time) ([]conflict.CalendarEvent, error) {
	return nil, nil
}

func (s *countingSource) BusyBlocks(_ context.Context, owners []string, from, to time.Time) ([]availability.BusyBlock, error) {
	s.calls = append(s.calls, owners)
	if s.err != nil {
		return nil, s.err
	}
	var out []availability.BusyBlock
	for _, o := range owners {
		for _, iv := range s.blocks[o] {
			out = append(out, availability.BusyBlock{Attendee: o, Interval: iv})
		}
	}
	return out, nil
}

func newSource() *countingSource {
	return &countingSource{blocks: map[string][]interval.Interval{
		"a@example.com": {interval.MustNew(base.Add(time.Hour), base.Add(2*time.Hour))},
	}}
}

func TestBusyCache_HitAfterMiss(t *testing.T) {
	src := newSource()
	store := newMemStore()
	c := NewBusyCache(src, store, 0, nil, nil)
	ctx := context.Background()
	owners := []string{"a@example.com", "b@example.com"}

	first, err := c.BusyBlocks(ctx, owners, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Len(t, src.calls, 1)
	assert.Len(t, store.data, 2, "owners without busy time are cached too")
	for _, ttl := range store.ttls {
		assert.Equal(t, DefaultTTL, ttl)
	}

	// A search a few seconds later lands in the same widened window.
	second, err := c.BusyBlocks(ctx, owners, base.Add(10*time.Second), base.Add(24*time.Hour+10*time.Second))
	require.NoError(t, err)
	assert.Len(t, src.calls, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "a@example.com", second[0].Attendee)
	assert.True(t, second[0].Interval.Start.Equal(base.Add(time.Hour)))
}

func TestBusyCache_FetchesOnlyMissingOwners(t *testing.T) {
	src := newSource()
	c := NewBusyCache(src, newMemStore(), time.Minute, nil, nil)
	ctx := context.Background()

	_, err := c.BusyBlocks(ctx, []string{"a@example.com"}, base, base.Add(time.Hour*3))
	require.NoError(t, err)
	_, err = c.BusyBlocks(ctx, []string{"a@example.com", "c@example.com"}, base, base.Add(time.Hour*3))
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"a@example.com"}, {"c@example.com"}}, src.calls)
}

func TestBusyCache_TrimsToRequestedWindow(t *testing.T) {
	src := newSource()
	c := NewBusyCache(src, newMemStore(), time.Hour, nil, nil)

	// The block at base+1h lies outside [base+3h, base+4h).
	blocks, err := c.BusyBlocks(context.Background(), []string{"a@example.com"}, base.Add(3*time.Hour), base.Add(4*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, blocks)
}

func TestBusyCache_SourceErrorPropagates(t *testing.T) {
	boom := errors.New("provider down")
	c := NewBusyCache(&countingSource{err: boom}, newMemStore(), 0, nil, nil)
	_, err := c.BusyBlocks(context.Background(), []string{"a@example.com"}, base, base.Add(time.Hour))
	assert.ErrorIs(t, err, boom)
}

func TestBusyCache_UnreachableRedisIsBypassed(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	store := NewRedisStoreWithClient(client)
	t.Cleanup(func() { _ = store.Close() })

	_, err := store.Get(context.Background(), "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	src := newSource()
	c := NewBusyCache(src, store, 0, nil, nil)
	blocks, err := c.BusyBlocks(context.Background(), []string{"a@example.com"}, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
	assert.Len(t, src.calls, 1)
}

func TestBusyCache_EncodeFailureIsLogged(t *testing.T) {
	orig := encodeEntry
	t.Cleanup(func() { encodeEntry = orig })
	encodeEntry = func(any) ([]byte, error) { return nil, errors.New("unsupported value") }

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	src := newSource()
	store := newMemStore()
	c := NewBusyCache(src, store, 0, nil, logger)

	blocks, err := c.BusyBlocks(context.Background(), []string{"a@example.com", "b@example.com"}, base, base.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, blocks, 1)
	assert.Empty(t, store.data)
	assert.Equal(t, 2, strings.Count(logs.String(), "busy cache encode failed"))
	assert.Contains(t, logs.String(), "unsupported value")
	assert.Contains(t, logs.String(), logging.KeyOwner+"=")
	assert.NotContains(t, logs.String(), "a@example.com")
}

func TestNewRedisStore_InvalidURL(t *testing.T) {
	_, err := NewRedisStore(context.Background(), "not a url")
	assert.Error(t, err)
}
