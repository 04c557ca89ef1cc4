// Package cache holds short-lived copies of backend list responses.
package cache

import "context"

// Cache is a keyed store with expiry.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Purge drops every entry. Mutations call it so the next read refetches.
	Purge()
	Size() int
}

// Loader fetches the value for a key on a miss.
type Loader[T any] func(ctx context.Context) (T, error)

// GetOrLoad returns the cached value for key, or calls load and caches its
// result. Errors are not cached.
func GetOrLoad[T any](ctx context.Context, c Cache[T], key string, load Loader[T]) (T, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	v, err := load(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, v)
	return v, nil
}
