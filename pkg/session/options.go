package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionstore/pkg/sid"
)

// Option is a functional option for configuring the Store
type Option func(*Store)

// WithConfig sets custom configuration
func WithConfig(config Config) Option {
	return func(s *Store) {
		s.cfg = config
	}
}

// WithNamespace sets the key namespace
func WithNamespace(namespace string) Option {
	return func(s *Store) {
		s.cfg.Namespace = namespace
	}
}

// WithExpireAfter sets the session lifetime in the store
func WithExpireAfter(d time.Duration) Option {
	return func(s *Store) {
		s.cfg.ExpireAfter = d
	}
}

// WithPreventWriteAfterDelete toggles tombstone mode
func WithPreventWriteAfterDelete(enabled bool) Option {
	return func(s *Store) {
		s.cfg.PreventWriteAfterDelete = enabled
	}
}

// WithTombstoneExpire sets the tombstone lifetime
func WithTombstoneExpire(d time.Duration) Option {
	return func(s *Store) {
		s.cfg.TombstoneExpire = d
	}
}

// WithThreadsafe toggles the process-local lock
func WithThreadsafe(enabled bool) Option {
	return func(s *Store) {
		s.cfg.Threadsafe = enabled
	}
}

// WithMaxGenerateAttempts caps id collision retries
func WithMaxGenerateAttempts(n int) Option {
	return func(s *Store) {
		s.cfg.MaxGenerateAttempts = n
	}
}

// WithGenerator sets a custom id generator; it overrides IDLength and DerivationKey
func WithGenerator(gen *sid.Generator) Option {
	return func(s *Store) {
		s.ids = gen
	}
}

// WithLogger sets the logger; nil keeps the discarding default
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}
