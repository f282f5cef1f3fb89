// Package cache provides a small TTL cache with in-memory and Redis
// backends, plus a Loader that collapses concurrent misses for the same key.
//
//	c := cache.NewMemory[[]string](cache.WithTTL(10 * time.Minute))
//	chunks := cache.NewLoader(c, 10*time.Minute)
//	v, err := chunks.Load(ctx, query, func(ctx context.Context) ([]string, error) {
//	    return index.Query(ctx, query)
//	})
package cache
