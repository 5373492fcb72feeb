package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Entry is a cached answer. Misses are cached too so that hopeless queries
// do not eat into the lookup quota.
type Entry struct {
	Point Point `json:"point"`
	Found bool  `json:"found"`
}

// Cache stores lookup answers by query.
type Cache interface {
	Get(ctx context.Context, query string) (Entry, bool, error)
	Set(ctx context.Context, query string, e Entry) error
}

func cacheKey(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}

// DefaultMemoryCacheSize bounds a MemoryCache built with size <= 0.
const DefaultMemoryCacheSize = 10000

// MemoryCache is a process-local Cache holding at most size entries, each
// for ttl. The least recently used entry goes first when it is full.
type MemoryCache struct {
	entries *expirable.LRU[string, Entry]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = DefaultMemoryCacheSize
	}
	return &MemoryCache{entries: expirable.NewLRU[string, Entry](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, q string) (Entry, bool, error) {
	e, ok := c.entries.Get(cacheKey(q))
	return e, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, q string, e Entry) error {
	c.entries.Add(cacheKey(q), e)
	return nil
}

func (c *MemoryCache) Len() int {
	return c.entries.Len()
}

// RedisCache keeps answers in Redis under prefix with a TTL.
type RedisCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: "geocode:", ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, q string) (Entry, bool, error) {
	data, err := c.client.Get(ctx, c.prefix+cacheKey(q)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

func (c *RedisCache) Set(ctx context.Context, q string, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+cacheKey(q), data, c.ttl).Err()
}

// Cached wraps a Lookuper with a Cache. Cache failures are logged and the
// lookup goes through to the backend; transport errors are never cached.
type Cached struct {
	next  Lookuper
	cache Cache
	log   logrus.FieldLogger
}

func NewCached(next Lookuper, cache Cache, log logrus.FieldLogger) *Cached {
	return &Cached{next: next, cache: cache, log: log}
}

func (c *Cached) Lookup(ctx context.Context, q string) (Point, error) {
	e, ok, err := c.cache.Get(ctx, q)
	if err != nil {
		c.log.WithError(err).WithField("query", q).Warn("geocode cache read failed")
	}
	if ok {
		if !e.Found {
			return Point{}, ErrNotFound
		}
		return e.Point, nil
	}

	p, err := c.next.Lookup(ctx, q)
	switch {
	case errors.Is(err, ErrNotFound):
		c.store(ctx, q, Entry{})
		return Point{}, err
	case err != nil:
		return Point{}, err
	}
	c.store(ctx, q, Entry{Point: p, Found: true})
	return p, nil
}

func (c *Cached) store(ctx context.Context, q string, e Entry) {
	if err := c.cache.Set(ctx, q, e); err != nil {
		c.log.WithError(err).WithField("query", q).Warn("geocode cache write failed")
	}
}
