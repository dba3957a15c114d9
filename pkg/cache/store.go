// Package cache holds the response caches used by the provider clients.
// Entries are opaque byte slices keyed by the full request URL.
package cache

import (
	"context"
	"time"
)

// Store is a TTL key/value cache.
type Store interface {
	// Get returns the cached value and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value for ttl. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Name identifies the backend in logs and metrics.
	Name() string
	Close() error
}
