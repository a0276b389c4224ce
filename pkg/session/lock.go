package session

import (
	"context"
	"sync"

	"github.com/dmitrymomot/sessionstore/pkg/kv"
	"github.com/dmitrymomot/sessionstore/pkg/logger"
)

// Locker serializes store operations inside one process.
// A disabled Locker is a no-op.
type Locker struct {
	mu      sync.Mutex
	enabled bool
}

// NewLocker creates a Locker; enabled=false disables locking entirely.
func NewLocker(enabled bool) *Locker {
	return &Locker{enabled: enabled}
}

// Enabled reports whether the Locker actually locks.
func (l *Locker) Enabled() bool {
	return l.enabled
}

func (l *Locker) Lock() {
	if l.enabled {
		l.mu.Lock()
	}
}

func (l *Locker) Unlock() {
	if l.enabled {
		l.mu.Unlock()
	}
}

// withLock runs body under the store lock. A kv.ErrUnavailable returned by body
// is logged and replaced with def; any other error is returned as is.
// The lock is released on every path, panics included.
func withLock[T any](ctx context.Context, s *Store, op string, def T, body func() (T, error)) (T, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	v, err := body()
	if err == nil {
		return v, nil
	}

	if kv.IsUnavailable(err) {
		s.logger.WarnContext(ctx, "session store is unable to reach the backend",
			logger.Component("session"),
			logger.Operation(op),
			logger.Error(err),
		)
		return def, nil
	}

	var zero T
	return zero, err
}
