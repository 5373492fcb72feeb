package geocode

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCached_HitsBackendOnce(t *testing.T) {
	backend := &fakeLookuper{known: map[string]Point{"Lund, Sverige": {Lat: 55.7, Lon: 13.19}}}
	cache := NewMemoryCache(0, time.Hour)
	log, _ := test.NewNullLogger()
	c := NewCached(backend, cache, log)

	for i := 0; i < 3; i++ {
		p, err := c.Lookup(context.Background(), "Lund, Sverige")
		require.NoError(t, err)
		assert.Equal(t, Point{Lat: 55.7, Lon: 13.19}, p)
	}
	assert.Len(t, backend.queries, 1)

	// Keys are case and whitespace insensitive.
	_, err := c.Lookup(context.Background(), "lund,   SVERIGE")
	require.NoError(t, err)
	assert.Len(t, backend.queries, 1)
}

func TestCached_RemembersMisses(t *testing.T) {
	backend := &fakeLookuper{}
	log, _ := test.NewNullLogger()
	c := NewCached(backend, NewMemoryCache(0, time.Hour), log)

	for i := 0; i < 2; i++ {
		_, err := c.Lookup(context.Background(), "Atlantis")
		assert.True(t, errors.Is(err, ErrNotFound))
	}
	assert.Len(t, backend.queries, 1)
}

func TestCached_DoesNotCacheTransportErrors(t *testing.T) {
	backend := &fakeLookuper{err: errors.New("timeout")}
	cache := NewMemoryCache(0, time.Hour)
	log, _ := test.NewNullLogger()
	c := NewCached(backend, cache, log)

	_, err := c.Lookup(context.Background(), "Kiruna")
	require.Error(t, err)
	assert.Equal(t, 0, cache.Len())
}

type brokenCache struct{}

func (brokenCache) Get(context.Context, string) (Entry, bool, error) {
	return Entry{}, false, errors.New("redis down")
}

func (brokenCache) Set(context.Context, string, Entry) error { return errors.New("redis down") }

func TestCached_BrokenCacheFallsThrough(t *testing.T) {
	backend := &fakeLookuper{known: map[string]Point{"Umeå": {Lat: 63.8, Lon: 20.3}}}
	log, hook := test.NewNullLogger()
	c := NewCached(backend, brokenCache{}, log)

	p, err := c.Lookup(context.Background(), "Umeå")
	require.NoError(t, err)
	assert.Equal(t, Point{Lat: 63.8, Lon: 20.3}, p)
	require.Len(t, hook.Entries, 2)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestMemoryCache_Bounded(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(2, time.Hour)
	require.NoError(t, cache.Set(ctx, "Lund", Entry{Found: true}))
	require.NoError(t, cache.Set(ctx, "Malmö", Entry{}))
	require.NoError(t, cache.Set(ctx, "Kiruna", Entry{Found: true}))

	assert.Equal(t, 2, cache.Len())
	_, ok, _ := cache.Get(ctx, "Lund")
	assert.False(t, ok, "oldest entry evicted")
	_, ok, _ = cache.Get(ctx, "kiruna")
	assert.True(t, ok)
}

func TestMemoryCache_Expires(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(10, 20*time.Millisecond)
	require.NoError(t, cache.Set(ctx, "Atlantis", Entry{}))
	_, ok, _ := cache.Get(ctx, "Atlantis")
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)
	_, ok, _ = cache.Get(ctx, "Atlantis")
	assert.False(t, ok)
}
