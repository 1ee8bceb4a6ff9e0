package cache

import "github.com/opencontainers/go-digest"

// Cache provides digest-keyed byte storage.
//
// Keys identify the input a value was derived from (for example the source
// identity of a compressed index), so a changed input simply misses.
// Implementations should handle their own size limits and eviction policies.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached bytes for key.
	// Returns nil, false if nothing is cached under key.
	Get(key digest.Digest) ([]byte, bool)

	// Put stores data under key. The cache copies or persists data before
	// returning; the caller keeps ownership of the slice.
	Put(key digest.Digest, data []byte) error

	// Delete removes the entry for key.
	// Implementations should treat missing entries as a no-op.
	Delete(key digest.Digest) error

	// MaxBytes returns the configured cache size limit (0 = unlimited).
	MaxBytes() int64

	// SizeBytes returns the current cache size in bytes.
	SizeBytes() int64

	// Prune removes cached entries until the cache is at or below targetBytes.
	// Returns the number of bytes freed.
	Prune(targetBytes int64) (int64, error)
}
