package kv

import "context"

// Store is the outbound persistence port: a flat key-value blob store.
// The repository keeps the whole receipt collection under a single key, so
// implementations only need atomic whole-value reads and writes.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent;
	// absence is not an error.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value. The write
	// must be atomic from a reader's point of view.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	Close() error
}
