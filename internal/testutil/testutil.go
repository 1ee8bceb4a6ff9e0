// Package testutil builds synthetic archive fixtures for tests.
package testutil

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/opencontainers/go-digest"
)

// MockByteSource implements a simple in-memory byte source for tests.
type MockByteSource struct {
	data     []byte
	sourceID string
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	sum := sha256.Sum256(data)
	return &MockByteSource{
		data:     data,
		sourceID: "mock:" + hex.EncodeToString(sum[:]),
	}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the total size of the backing data.
func (m *MockByteSource) Size() int64 {
	return int64(len(m.data))
}

// SourceID returns a stable identifier for the source data.
func (m *MockByteSource) SourceID() string {
	return m.sourceID
}

// MemCache implements a concurrency-safe in-memory cache.Cache for tests.
type MemCache struct {
	mu   sync.RWMutex
	data map[digest.Digest][]byte
	gets int
	puts int
}

// NewMemCache constructs an empty in-memory cache.
func NewMemCache() *MemCache {
	return &MemCache{data: make(map[digest.Digest][]byte)}
}

// Get returns a copy of the bytes stored under key.
func (c *MemCache) Get(key digest.Digest) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	data, ok := c.data[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(data), true
}

// Put stores a copy of data under key.
func (c *MemCache) Put(key digest.Digest, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.puts++
	c.data[key] = bytes.Clone(data)
	return nil
}

// Delete removes the entry for key.
func (c *MemCache) Delete(key digest.Digest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// MaxBytes returns 0; the cache is unbounded.
func (c *MemCache) MaxBytes() int64 {
	return 0
}

// SizeBytes returns the total size of stored values.
func (c *MemCache) SizeBytes() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var total int64
	for _, data := range c.data {
		total += int64(len(data))
	}
	return total
}

// Prune removes entries in key order until the cache is at or below targetBytes.
func (c *MemCache) Prune(targetBytes int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var total int64
	for _, data := range c.data {
		total += int64(len(data))
	}
	var freed int64
	for _, key := range slices.Sorted(maps.Keys(c.data)) {
		if total <= targetBytes {
			break
		}
		n := int64(len(c.data[key]))
		delete(c.data, key)
		total -= n
		freed += n
	}
	return freed, nil
}

// Keys returns the stored keys in sorted order.
func (c *MemCache) Keys() []digest.Digest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.data))
}

// Set overwrites the raw bytes under key, for corrupting entries in tests.
func (c *MemCache) Set(key digest.Digest, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Stats returns the number of Get and Put calls.
func (c *MemCache) Stats() (gets, puts int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gets, c.puts
}
