package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionstore/pkg/kv"
)

// Backend implements kv.Backend on top of a go-redis client.
// The client owns pooling and per-command timeouts.
type Backend struct {
	db redis.UniversalClient
}

// NewBackend wraps a go-redis client.
func NewBackend(client redis.UniversalClient) *Backend {
	return &Backend{db: client}
}

// SetNX maps to SET key value NX [PX ttl].
func (b *Backend) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	ok, err := b.db.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, wrapErr(err)
	}
	return ok, nil
}

// Get returns kv.ErrNotFound for missing keys (redis.Nil).
func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := b.db.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	return val, nil
}

// Set stores key-value with expiration. Zero duration means no expiration.
func (b *Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return wrapErr(b.db.Set(ctx, key, value, ttl).Err())
}

// Del removes keys. Empty key lists are a no-op.
func (b *Backend) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	n, err := b.db.Del(ctx, keys...).Result()
	if err != nil {
		return 0, wrapErr(err)
	}
	return n, nil
}

// ConditionalWrite runs WATCH key, GET key, guard, then MULTI SET EXEC.
// A rejected guard returns without MULTI and the watch is released when the
// transaction closes. EXEC aborted by a concurrent change reports false.
func (b *Backend) ConditionalWrite(ctx context.Context, key string, guard kv.Guard, value []byte, ttl time.Duration) (bool, error) {
	var committed bool

	err := b.db.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, key).Bytes()
		exists := true
		if errors.Is(err, redis.Nil) {
			current, exists = nil, false
		} else if err != nil {
			return err
		}

		if guard != nil && !guard(current, exists) {
			return nil
		}

		if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, value, ttl)
			return nil
		}); err != nil {
			return err
		}

		committed = true
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, wrapErr(err)
	}
	return committed, nil
}

// Conn returns the underlying Redis client for advanced operations.
func (b *Backend) Conn() redis.UniversalClient {
	return b.db
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.ErrClosed) || kv.IsConnectionError(err) {
		return kv.Unavailable(err)
	}
	return err
}
