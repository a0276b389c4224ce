package kv

import (
	"context"
	"time"
)

// Guard inspects the value currently stored under a key and reports whether a
// conditional write may proceed. exists is false when the key is absent.
type Guard func(current []byte, exists bool) bool

// Backend is the key-value contract the session store consumes.
// A zero ttl means the key does not expire.
type Backend interface {
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Get returns the value stored under key or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value unconditionally.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Del removes the keys and returns how many existed.
	Del(ctx context.Context, keys ...string) (int64, error)

	// ConditionalWrite observes key, asks guard whether to proceed and stores
	// value only if guard agreed and key was not modified between the
	// observation and the commit. It reports whether the value was stored.
	ConditionalWrite(ctx context.Context, key string, guard Guard, value []byte, ttl time.Duration) (bool, error)
}
