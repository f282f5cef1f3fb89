package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Loader fills a Cache on demand. Concurrent loads of the same key share one
// call to the load function.
type Loader[V any] struct {
	cache Cache[V]
	ttl   time.Duration
	group singleflight.Group
}

// NewLoader wraps c. Loaded values are stored with ttl.
func NewLoader[V any](c Cache[V], ttl time.Duration) *Loader[V] {
	return &Loader[V]{cache: c, ttl: ttl}
}

// Load returns the cached value for key or calls fn and caches its result.
// Errors from fn are returned and never cached. A failing cache write does
// not fail the load.
func (l *Loader[V]) Load(ctx context.Context, key string, fn func(context.Context) (V, error)) (V, error) {
	if v, err := l.cache.Get(ctx, key); err == nil {
		return v, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		val, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		_ = l.cache.Set(ctx, key, val, l.ttl)
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}
