// Package testutil provides in-memory sources, caches, and BAM stream
// builders for tests.
package testutil

import (
	"io"
	"sync"
	"sync/atomic"

	"github.com/opencontainers/go-digest"
)

// MockByteSource implements a simple in-memory io.ReaderAt for tests and
// counts the calls made against it.
type MockByteSource struct {
	data  []byte
	calls atomic.Int64
}

// NewMockByteSource returns a byte source backed by the provided data.
func NewMockByteSource(data []byte) *MockByteSource {
	return &MockByteSource{data: data}
}

// ReadAt implements io.ReaderAt semantics over the backing slice.
func (m *MockByteSource) ReadAt(p []byte, off int64) (int, error) {
	m.calls.Add(1)
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

// Calls returns the number of ReadAt calls served.
func (m *MockByteSource) Calls() int64 {
	return m.calls.Load()
}

// MockCache implements a concurrency-safe in-memory index store keyed by
// digest.
type MockCache struct {
	mu   sync.RWMutex
	data map[digest.Digest][]byte
	puts int
}

// NewMockCache constructs an empty in-memory cache.
func NewMockCache() *MockCache {
	return &MockCache{data: make(map[digest.Digest][]byte)}
}

// Get retrieves data by digest.
func (c *MockCache) Get(d digest.Digest) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.data[d]
	return data, ok
}

// Put stores data by digest.
func (c *MockCache) Put(d digest.Digest, content []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[d] = append([]byte(nil), content...)
	c.puts++
	return nil
}

// Puts returns the number of Put calls.
func (c *MockCache) Puts() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.puts
}

// Keys returns the stored digests.
func (c *MockCache) Keys() []digest.Digest {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]digest.Digest, 0, len(c.data))
	for d := range c.data {
		keys = append(keys, d)
	}
	return keys
}
