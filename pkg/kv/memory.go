package kv

import (
	"bytes"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func newEntry(value []byte, ttl time.Duration, now time.Time) entry {
	e := entry{value: bytes.Clone(value)}
	if e.value == nil {
		e.value = []byte{}
	}
	if ttl > 0 {
		e.expiresAt = now.Add(ttl)
	}
	return e
}

// MemoryBackend implements Backend with an in-process concurrent map.
// It is meant for tests, development and single instance deployments.
//
// Every operation on a key runs inside xsync's per-bucket Compute, so SetNX
// and ConditionalWrite are atomic without a backend-wide lock.
type MemoryBackend struct {
	entries *xsync.MapOf[string, entry]
	clock   atomic.Pointer[func() time.Time]
	closed  atomic.Bool

	ticker    *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryBackend creates a memory backend. A positive cleanupInterval starts a
// goroutine that evicts expired keys; expired keys are never returned either way.
func NewMemoryBackend(cleanupInterval time.Duration) *MemoryBackend {
	m := &MemoryBackend{
		entries: xsync.NewMapOf[string, entry](),
		done:    make(chan struct{}),
	}
	m.SetClock(time.Now)

	if cleanupInterval > 0 {
		m.ticker = time.NewTicker(cleanupInterval)
		go m.cleanupLoop()
	}

	return m
}

// SetNX stores value only if key is absent.
func (m *MemoryBackend) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := m.check(ctx); err != nil {
		return false, err
	}

	now := m.now()
	stored := false
	m.entries.Compute(key, func(old entry, loaded bool) (entry, bool) {
		if loaded && !old.expired(now) {
			return old, false
		}
		stored = true
		return newEntry(value, ttl, now), false
	})
	return stored, nil
}

// Get returns the value under key or ErrNotFound.
func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := m.check(ctx); err != nil {
		return nil, err
	}

	e, ok := m.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(e.value), nil
}

// Set stores value unconditionally.
func (m *MemoryBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := m.check(ctx); err != nil {
		return err
	}

	m.entries.Store(key, newEntry(value, ttl, m.now()))
	return nil
}

// Del removes keys and returns how many were present.
func (m *MemoryBackend) Del(ctx context.Context, keys ...string) (int64, error) {
	if err := m.check(ctx); err != nil {
		return 0, err
	}

	now := m.now()
	var n int64
	for _, key := range keys {
		if e, ok := m.entries.LoadAndDelete(key); ok && !e.expired(now) {
			n++
		}
	}
	return n, nil
}

// ConditionalWrite runs guard and the write inside one Compute call, so the
// observed value cannot change before the commit. guard must not call back into m.
func (m *MemoryBackend) ConditionalWrite(ctx context.Context, key string, guard Guard, value []byte, ttl time.Duration) (bool, error) {
	if err := m.check(ctx); err != nil {
		return false, err
	}

	now := m.now()
	committed := false
	m.entries.Compute(key, func(old entry, loaded bool) (entry, bool) {
		live := loaded && !old.expired(now)

		var current []byte
		if live {
			current = bytes.Clone(old.value)
		}
		if guard != nil && !guard(current, live) {
			// keep a live value, drop an expired one
			return old, !live
		}

		committed = true
		return newEntry(value, ttl, now), false
	})
	return committed, nil
}

// TTL returns the remaining lifetime of key; zero means no expiry.
func (m *MemoryBackend) TTL(key string) (time.Duration, bool) {
	e, ok := m.lookup(key)
	if !ok {
		return 0, false
	}
	if e.expiresAt.IsZero() {
		return 0, true
	}
	return e.expiresAt.Sub(m.now()), true
}

// Len returns the number of live keys.
func (m *MemoryBackend) Len() int {
	now := m.now()
	n := 0
	m.entries.Range(func(_ string, e entry) bool {
		if !e.expired(now) {
			n++
		}
		return true
	})
	return n
}

// DeleteExpired evicts every expired key.
func (m *MemoryBackend) DeleteExpired() {
	now := m.now()
	m.entries.Range(func(key string, e entry) bool {
		if e.expired(now) {
			m.evictExpired(key, now)
		}
		return true
	})
}

// SetClock replaces the time source. Intended for tests.
func (m *MemoryBackend) SetClock(now func() time.Time) {
	if now != nil {
		m.clock.Store(&now)
	}
}

// Close stops the cleanup goroutine. Later calls fail with ErrUnavailable.
func (m *MemoryBackend) Close() error {
	m.closeOnce.Do(func() {
		m.closed.Store(true)
		if m.ticker != nil {
			m.ticker.Stop()
		}
		close(m.done)
	})
	return nil
}

func (m *MemoryBackend) now() time.Time {
	return (*m.clock.Load())()
}

func (m *MemoryBackend) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.closed.Load() {
		return Unavailable(ErrClosed)
	}
	return nil
}

func (m *MemoryBackend) lookup(key string) (entry, bool) {
	e, ok := m.entries.Load(key)
	if !ok {
		return entry{}, false
	}
	now := m.now()
	if e.expired(now) {
		m.evictExpired(key, now)
		return entry{}, false
	}
	return e, true
}

// evictExpired deletes key unless a concurrent writer refreshed it.
func (m *MemoryBackend) evictExpired(key string, now time.Time) {
	m.entries.Compute(key, func(old entry, loaded bool) (entry, bool) {
		return old, !loaded || old.expired(now)
	})
}

func (m *MemoryBackend) cleanupLoop() {
	for {
		select {
		case <-m.ticker.C:
			m.DeleteExpired()
		case <-m.done:
			return
		}
	}
}
