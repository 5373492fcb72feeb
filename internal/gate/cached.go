package gate

import (
	"context"
	"sync"
	"time"
)

// CachedLoader memoizes a subject lookup for ttl so the signed-in user is
// not read from the database on every request.
type CachedLoader[K comparable, V any] struct {
	load  func(ctx context.Context, key K) (V, error)
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	cache map[K]cacheEntry[V]
}

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func NewCachedLoader[K comparable, V any](load func(ctx context.Context, key K) (V, error), ttl time.Duration) *CachedLoader[K, V] {
	return &CachedLoader[K, V]{
		load:  load,
		ttl:   ttl,
		now:   time.Now,
		cache: make(map[K]cacheEntry[V]),
	}
}

// Get returns the cached value for key or loads it. Errors are not cached.
func (c *CachedLoader[K, V]) Get(ctx context.Context, key K) (V, error) {
	c.mu.RLock()
	e, ok := c.cache[key]
	c.mu.RUnlock()
	if ok && c.now().Before(e.expiresAt) {
		return e.value, nil
	}

	v, err := c.load(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}
	c.mu.Lock()
	c.cache[key] = cacheEntry[V]{value: v, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return v, nil
}

func (c *CachedLoader[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.cache, key)
	c.mu.Unlock()
}

func (c *CachedLoader[K, V]) InvalidateAll() {
	c.mu.Lock()
	c.cache = make(map[K]cacheEntry[V])
	c.mu.Unlock()
}
