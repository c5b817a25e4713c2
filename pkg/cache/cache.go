// Package cache provides byte-level caching backends for server responses.
//
// Every backend implements [Cache]. The CLI selects one from configuration:
//
//   - [FileCache]: JSON files under the user cache directory (default)
//   - [MemoryCache]: process-local map, used by tests and the watch TUI
//   - [RedisCache]: shared cache for several dashboards against one server
//   - [MongoCache]: document store with a TTL index
//   - [NullCache]: caching disabled
//
// Keys are built with [ResourceKey] so entries from different servers
// never collide.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values with an optional time-to-live.
type Cache interface {
	// Get returns the value for key and whether it was found.
	// Expired entries are reported as misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry written by this cache.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
