// Package cache provides the byte-level caches used by idplease.
//
// # Backends
//
// Three implementations of [Cache] are available:
//
//   - [FileCache]: JSON entry files under the XDG cache directory (CLI default)
//   - [RedisCache]: shared cache for several processes or hosts
//   - [NullCache]: caching disabled (--no-cache)
//
// # Keys
//
// Keys are built by a [Keyer] so every producer uses the same layout:
//
//	k := cache.NewDefaultKeyer()
//	k.HTTPKey("seize:", "identity:alice")           // "http:seize::identity:alice"
//	k.ArtifactKey(recordHash, cache.ArtifactKeyOpts{Format: "png"})
//
// # Retries
//
// [RetryWithBackoff] retries operations whose errors were wrapped with
// [Retryable]. HTTP clients wrap transport failures and 5xx responses so a
// flaky upstream does not immediately collapse into a "not found" outcome.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values per entry kind.
const (
	// TTLHTTP bounds cached API responses. Identity and reputation data
	// changes often, so this is kept short.
	TTLHTTP = 10 * time.Minute

	// TTLArtifact bounds rendered PNGs. Artifacts are keyed by the record
	// hash, so a stale artifact can only be served for an identical record.
	TTLArtifact = 24 * time.Hour
)

// Cache stores opaque byte payloads under string keys.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the payload for key. hit is false on a miss or expiry.
	Get(ctx context.Context, key string) (data []byte, hit bool, err error)

	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases resources held by the backend.
	Close() error
}
