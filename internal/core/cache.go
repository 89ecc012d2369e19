package core

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// The core defines the interface and the data layer provides the Redis implementation.
type CacheRepository interface {
	// Increment atomically increments the counter at key. The TTL is applied only
	// when the increment created the key, which gives fixed-window semantics.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// TTL returns the remaining lifetime of key, or 0 when it has none.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Health checks the health of the cache connection.
	Health(ctx context.Context) error
}
