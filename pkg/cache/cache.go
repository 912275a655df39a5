// Package cache stores computed layouts and exports between requests.
//
// Layouts are pure functions of a document, an orientation and a placer, so
// their results can be reused across CLI runs and server instances. The
// package offers three backends behind one interface:
//
//   - [NullCache]: caching disabled
//   - [FileCache]: one file per entry under a directory, for the CLI
//   - [RedisCache]: shared cache for multi-instance deployments
//
// Keys come from a [Keyer] so callers never build key strings by hand:
//
//	key := keyer.LayoutKey(cache.Hash(docJSON), cache.LayoutKeyOpts{
//	    Orientation: "compact",
//	    Placer:      "layered",
//	})
//	if data, hit, err := c.Get(ctx, key); err == nil && hit {
//	    // decode data
//	}
package cache

import (
	"context"
	"time"
)

// Default time-to-live per entry kind.
const (
	TTLLayout = 7 * 24 * time.Hour
	TTLExport = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with per-entry expiry.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the value for key and whether it was present.
	// Expired entries report a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A zero ttl never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Clearer is implemented by caches that can drop every entry they own.
type Clearer interface {
	Clear(ctx context.Context) error
}

// Clear empties c when the backend supports it and reports whether it did.
func Clear(ctx context.Context, c Cache) (bool, error) {
	cl, ok := c.(Clearer)
	if !ok {
		return false, nil
	}
	return true, cl.Clear(ctx)
}
