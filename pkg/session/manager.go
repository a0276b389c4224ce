package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/sessionstore/pkg/logger"
	"github.com/dmitrymomot/sessionstore/pkg/sid"
)

// State is the session bound to one request.
type State struct {
	ID   sid.SID
	Data Data

	// token is the public id the client presented, empty if none.
	token string
}

// IsNew reports whether the client did not present the current id.
func (st *State) IsNew() bool {
	return st.ID.Public != st.token
}

// Manager connects a Store to HTTP requests through a Transport.
type Manager struct {
	store     *Store
	transport Transport
	logger    *slog.Logger
}

// ManagerOption is a functional option for configuring the Manager
type ManagerOption func(*Manager)

// WithManagerLogger sets the logger; nil keeps the discarding default
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager. It panics when store or transport is nil:
// misconfiguration should prevent startup.
func NewManager(store *Store, transport Transport, opts ...ManagerOption) *Manager {
	if store == nil {
		panic(ErrNoStore)
	}
	if transport == nil {
		panic(ErrNoTransport)
	}

	m := &Manager{
		store:     store,
		transport: transport,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the underlying store.
func (m *Manager) Store() *Store {
	return m.store
}

// Load resolves the request's session. A missing or forged token yields a new
// empty session. Requests marked with WithSkip never reach the store.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*State, error) {
	token, err := m.transport.GetToken(r)
	if err != nil && !errors.Is(err, ErrNoToken) {
		m.logger.DebugContext(ctx, "ignoring invalid session token",
			logger.Component("session"),
			logger.Error(err),
		)
	}

	id, data, err := m.store.FindSession(ctx, token, FindOptions{Skip: IsSkipped(ctx)})
	if err != nil {
		return nil, err
	}

	return &State{ID: id, Data: data, token: token}, nil
}

// Save writes the state and, once committed, sends the public id to the client.
func (m *Manager) Save(ctx context.Context, w http.ResponseWriter, st *State) (WriteResult, error) {
	if st == nil {
		return WriteResult{}, ErrSessionNotFound
	}
	if st.ID.IsZero() {
		st.ID = m.store.GenerateSID()
	}

	res, err := m.store.WriteSession(ctx, st.ID, st.Data, WriteOptions{})
	if err != nil {
		return res, err
	}

	if res.Persisted() {
		if err := m.transport.SetToken(w, st.ID.Public, m.store.Config().ExpireAfter); err != nil {
			return res, err
		}
		st.token = st.ID.Public
	}

	return res, nil
}

// Destroy deletes the session and clears the client token. Unless drop is
// set the state receives a fresh id and empty data that a later Save persists.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, st *State, drop bool) error {
	if st == nil {
		return m.transport.ClearToken(w)
	}

	next, err := m.store.DeleteSession(ctx, st.ID, DeleteOptions{Drop: drop})
	if err != nil {
		return err
	}

	st.ID = next
	st.Data = NewData()
	st.token = ""

	return m.transport.ClearToken(w)
}

// Renew moves the session to a new id, typically after a privilege change.
// When the store is unreachable the state is left untouched.
func (m *Manager) Renew(ctx context.Context, w http.ResponseWriter, st *State) error {
	if st == nil {
		return ErrSessionNotFound
	}

	next, err := m.store.RenewSession(ctx, st.ID, st.Data)
	if err != nil {
		return err
	}
	if next.IsZero() {
		return nil
	}

	st.ID = next
	if st.Data.Empty() {
		// Nothing was written; the token is sent by the next Save.
		st.token = ""
		return m.transport.ClearToken(w)
	}

	if err := m.transport.SetToken(w, next.Public, m.store.Config().ExpireAfter); err != nil {
		return err
	}
	st.token = next.Public
	return nil
}
