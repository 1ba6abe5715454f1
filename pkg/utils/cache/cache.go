// Package cache defines the read through cache used for the info data.
package cache

import (
	"context"
	"errors"
)

// ErrCacheMiss is returned if no loader is configured and the key is unknown.
var ErrCacheMiss = errors.New("cache miss")

type Cache[K comparable, V any] interface {
	// Get returns the cached value or loads it. Load errors are not cached.
	Get(ctx context.Context, key K) (*V, error)
	Invalidate(ctx context.Context, key K)
	InvalidateAll(ctx context.Context)
}
