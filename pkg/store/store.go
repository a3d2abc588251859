// Package store persists serialized lineage documents (snapshots and
// built graphs) under string keys.
//
// Implementations cover the deployment spectrum:
//   - [MemoryStore]: in-process, for tests and throwaway sessions
//   - [FileStore]: hash-sharded JSON files, for CLI usage
//   - [RedisStore]: shared cache for multi-instance API deployments
//   - [MongoStore]: durable document storage
//
// All implementations treat values as opaque bytes; serialization belongs
// to package snapshot. Keys are namespaced with the helpers in this file
// so different document kinds never collide.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when no value exists under a key.
var ErrNotFound = errors.New("store: not found")

// Store is the interface all backends implement. A zero TTL means the
// value never expires.
type Store interface {
	// Get retrieves the value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under key with an optional TTL.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes the value under key. Deleting a missing key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// Hash computes the SHA-256 of data as a hex string, used for content
// addressing and file sharding.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SnapshotKey builds the storage key for a raw lineage snapshot.
func SnapshotKey(id string) string { return "snapshot:" + id }

// GraphKey builds the storage key for a built lineage graph.
func GraphKey(id string) string { return "graph:" + id }
