package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionstore/pkg/kv"
	"github.com/dmitrymomot/sessionstore/pkg/logger"
	"github.com/dmitrymomot/sessionstore/pkg/sid"
)

// Backend is the key-value store a Store persists sessions in.
type Backend = kv.Backend

// FindOptions tunes FindSession.
type FindOptions struct {
	// Skip returns a fresh id and an empty session without touching the store.
	Skip bool
}

// WriteOptions tunes WriteSession.
type WriteOptions struct {
	// ExpireAfter overrides Config.ExpireAfter when positive.
	ExpireAfter time.Duration
}

// DeleteOptions tunes DeleteSession.
type DeleteOptions struct {
	// Drop skips generating a replacement id.
	Drop bool
}

// WriteStatus is the outcome of WriteSession.
type WriteStatus uint8

const (
	// WriteNotPersisted means the store was unreachable.
	WriteNotPersisted WriteStatus = iota
	// WriteCommitted means the session was stored.
	WriteCommitted
	// WriteDropped means the session was deleted concurrently and the write was discarded.
	WriteDropped
)

func (s WriteStatus) String() string {
	switch s {
	case WriteCommitted:
		return "committed"
	case WriteDropped:
		return "dropped"
	default:
		return "not_persisted"
	}
}

// WriteResult reports what WriteSession did. ID is set for committed and
// dropped writes.
type WriteResult struct {
	ID     sid.SID
	Status WriteStatus
}

// Persisted reports whether the session reached the store.
func (r WriteResult) Persisted() bool {
	return r.Status == WriteCommitted
}

// Store persists sessions in a Backend under private ids.
type Store struct {
	backend Backend
	ids     *sid.Generator
	lock    *Locker
	cfg     Config
	logger  *slog.Logger
}

// NewStore creates a session store on top of backend.
func NewStore(backend Backend, opts ...Option) *Store {
	if backend == nil {
		panic(ErrNoStore)
	}

	s := &Store{
		backend: backend,
		cfg:     DefaultConfig(),
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.cfg = s.cfg.normalize()
	s.lock = NewLocker(s.cfg.Threadsafe)

	if s.ids == nil {
		genOpts := []sid.Option{}
		if s.cfg.IDLength > 0 {
			genOpts = append(genOpts, sid.WithLength(s.cfg.IDLength))
		}
		if s.cfg.DerivationKey != "" {
			genOpts = append(genOpts, sid.WithDerivationKey([]byte(s.cfg.DerivationKey)))
		}
		s.ids = sid.NewGenerator(genOpts...)
	}

	return s
}

// Config returns the effective configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// Locker exposes the store lock.
func (s *Store) Locker() *Locker {
	return s.lock
}

// Generator returns the id generator.
func (s *Store) Generator() *sid.Generator {
	return s.ids
}

// GenerateSID returns a fresh id without checking the store.
func (s *Store) GenerateSID() sid.SID {
	return s.ids.Generate()
}

// GenerateUniqueSID allocates an id that no other session holds. Empty data
// gets a plain fresh id. Otherwise the data itself is written with SETNX under
// each candidate's private id until one is accepted, so the uniqueness check is
// also the creation write.
func (s *Store) GenerateUniqueSID(ctx context.Context, data Data) (sid.SID, error) {
	if data.Empty() {
		return s.ids.Generate(), nil
	}

	payload, err := encodeSession(data)
	if err != nil {
		return sid.SID{}, err
	}

	for attempt := 1; ; attempt++ {
		if s.cfg.MaxGenerateAttempts > 0 && attempt > s.cfg.MaxGenerateAttempts {
			return sid.SID{}, ErrIDExhausted
		}

		id := s.ids.Generate()
		ok, err := s.backend.SetNX(ctx, s.privateKey(id), payload, s.cfg.ExpireAfter)
		if err != nil {
			return sid.SID{}, err
		}
		if ok {
			return id, nil
		}

		s.logger.DebugContext(ctx, "session id collision",
			logger.Component("session"),
			logger.RetryCount(attempt),
		)
	}
}

// FindSession loads the session named by publicID. A missing, malformed,
// expired or deleted id yields a new id with an empty session. When the store
// is unreachable the same fallback is returned with a nil error.
func (s *Store) FindSession(ctx context.Context, publicID string, opts FindOptions) (sid.SID, Data, error) {
	if opts.Skip {
		return s.ids.Generate(), NewData(), nil
	}

	type found struct {
		id   sid.SID
		data Data
	}

	def := found{id: s.ids.Generate(), data: NewData()}

	res, err := withLock(ctx, s, "find", def, func() (found, error) {
		if publicID != "" {
			id, err := s.ids.FromPublic(publicID)
			if err == nil {
				data, ok, err := s.load(ctx, id)
				if err != nil {
					return found{}, err
				}
				if ok {
					return found{id: id, data: data}, nil
				}
			}
		}

		data := NewData()
		id, err := s.GenerateUniqueSID(ctx, data)
		if err != nil {
			return found{}, err
		}
		return found{id: id, data: data}, nil
	})
	if err != nil {
		return sid.SID{}, nil, err
	}

	return res.id, res.data, nil
}

// WriteSession persists data under id.
//
// In tombstone mode the write is conditional: it is dropped when the stored
// value is a tombstone or changes before the commit, and the result reports
// WriteDropped. An unreachable store reports WriteNotPersisted with a nil error.
func (s *Store) WriteSession(ctx context.Context, id sid.SID, data Data, opts WriteOptions) (WriteResult, error) {
	if id.IsZero() {
		return WriteResult{}, sid.ErrInvalidID
	}

	payload, err := encodeSession(data)
	if err != nil {
		return WriteResult{}, err
	}

	ttl := s.cfg.ExpireAfter
	if opts.ExpireAfter > 0 {
		ttl = opts.ExpireAfter
	}

	return withLock(ctx, s, "write", WriteResult{Status: WriteNotPersisted}, func() (WriteResult, error) {
		key := s.privateKey(id)

		if !s.cfg.PreventWriteAfterDelete {
			if err := s.backend.Set(ctx, key, payload, ttl); err != nil {
				return WriteResult{}, err
			}
			return WriteResult{ID: id, Status: WriteCommitted}, nil
		}

		committed, err := s.backend.ConditionalWrite(ctx, key, notTombstone, payload, ttl)
		if err != nil {
			return WriteResult{}, err
		}
		if !committed {
			s.logger.InfoContext(ctx, "session write dropped, session was deleted concurrently",
				logger.Component("session"),
				logger.SessionID(id),
			)
			return WriteResult{ID: id, Status: WriteDropped}, nil
		}
		return WriteResult{ID: id, Status: WriteCommitted}, nil
	})
}

// DeleteSession removes the session. In tombstone mode the private key is
// overwritten with a tombstone that expires after TombstoneExpire. A fresh id
// is returned unless opts.Drop is set; an unreachable store returns a zero id.
func (s *Store) DeleteSession(ctx context.Context, id sid.SID, opts DeleteOptions) (sid.SID, error) {
	return withLock(ctx, s, "delete", sid.SID{}, func() (sid.SID, error) {
		if err := s.destroy(ctx, id); err != nil {
			return sid.SID{}, err
		}
		if opts.Drop {
			return sid.SID{}, nil
		}
		return s.ids.Generate(), nil
	})
}

// RenewSession moves data to a new unique id and deletes the old one, e.g.
// after login. An unreachable store returns a zero id.
func (s *Store) RenewSession(ctx context.Context, id sid.SID, data Data) (sid.SID, error) {
	return withLock(ctx, s, "renew", sid.SID{}, func() (sid.SID, error) {
		if err := s.destroy(ctx, id); err != nil {
			return sid.SID{}, err
		}
		return s.GenerateUniqueSID(ctx, data)
	})
}

func (s *Store) destroy(ctx context.Context, id sid.SID) error {
	if id.IsZero() {
		return nil
	}

	if !s.cfg.PreventWriteAfterDelete {
		_, err := s.backend.Del(ctx, s.publicKey(id), s.privateKey(id))
		return err
	}

	if _, err := s.backend.Del(ctx, s.publicKey(id)); err != nil {
		return err
	}
	return s.backend.Set(ctx, s.privateKey(id), tombstonePayload, s.cfg.TombstoneExpire)
}

// load reads the private key and, outside tombstone mode, falls back to the
// public key written by older deployments.
func (s *Store) load(ctx context.Context, id sid.SID) (Data, bool, error) {
	data, ok, err := s.read(ctx, s.privateKey(id))
	if err != nil || ok || s.cfg.PreventWriteAfterDelete {
		return data, ok, err
	}
	return s.read(ctx, s.publicKey(id))
}

func (s *Store) read(ctx context.Context, key string) (Data, bool, error) {
	raw, err := s.backend.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	data, tombstone, err := decodeSession(raw)
	if err != nil {
		s.logger.DebugContext(ctx, "discarding undecodable session payload",
			logger.Component("session"),
			logger.Error(err),
		)
		return nil, false, nil
	}
	if tombstone {
		return nil, false, nil
	}
	return data, true, nil
}

func (s *Store) privateKey(id sid.SID) string {
	return s.key(id.Private)
}

func (s *Store) publicKey(id sid.SID) string {
	return s.key(id.Public)
}

func (s *Store) key(id string) string {
	if s.cfg.Namespace == "" {
		return id
	}
	return s.cfg.Namespace + ":" + id
}
