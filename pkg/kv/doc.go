// Package kv defines the key-value contract consumed by the session store and
// ships an in-memory implementation.
//
// The contract is deliberately small: SetNX for collision free id allocation,
// Get/Set/Del for plain storage and ConditionalWrite, the explicit form of a
// watch/multi transaction. ConditionalWrite lets callers inspect the current
// value of a key through a Guard and commit a new value only when the guard
// agrees and nobody touched the key in between. Each backend maps it onto its
// own primitive: WATCH/MULTI/EXEC in Redis, a per-key advisory lock in
// Postgres, a version compare-and-swap in MongoDB and a per-key map Compute here.
//
// # Errors
//
//   - ErrNotFound    – Get on an absent or expired key
//   - ErrUnavailable – the store could not be reached; use IsUnavailable
//   - ErrClosed      – backend used after Close (wrapped with ErrUnavailable)
//
// Backends wrap transport failures detected by IsConnectionError with
// ErrUnavailable, which is what the session store converts into soft-fail
// defaults.
//
// # Usage
//
//	backend := kv.NewMemoryBackend(time.Minute)
//	defer backend.Close()
//
//	ok, err := backend.SetNX(ctx, "key", []byte("v"), time.Hour)
//
//	committed, err := backend.ConditionalWrite(ctx, "key",
//	    func(cur []byte, exists bool) bool { return !bytes.Equal(cur, tombstone) },
//	    []byte("next"), time.Hour)
package kv
