// Package cache persists built indexes keyed by the digest of the file they
// describe, so repeated random access to the same file skips the scan.
package cache

import "github.com/opencontainers/go-digest"

// Store is a content-addressed byte store.
//
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the content stored under d.
	Get(d digest.Digest) ([]byte, bool)
	// Put stores content under d. Storing an existing key is a no-op.
	Put(d digest.Digest, content []byte) error
}
