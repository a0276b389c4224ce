// Package session stores per-client session data in a key-value backend.
//
// A Store is the core: it allocates unique session ids, loads, writes and
// deletes sessions, and keeps them under private ids so that the public id a
// client presents is never a store key. Any kv.Backend can be used; the
// repository ships in-memory, Redis, PostgreSQL and MongoDB backends.
//
// # Architecture
//
//	┌────────┐  public id  ┌───────────┐
//	│ Client │ ──────────► │ Transport │   cookie (signed) or header
//	└────────┘             └───────────┘
//	                             │
//	                             ▼
//	                       ┌───────────┐
//	                       │  Manager  │   Load / Save / Destroy / Renew
//	                       └───────────┘
//	                             │
//	                             ▼
//	                       ┌───────────┐
//	                       │   Store   │   FindSession / WriteSession /
//	                       └───────────┘   DeleteSession / RenewSession
//	                             │  "<namespace>:<private id>"
//	                             ▼
//	                       ┌───────────┐
//	                       │kv.Backend │
//	                       └───────────┘
//
// Session data is a Data map of Value, a JSON-compatible tagged union.
// Payloads are stored in a versioned JSON envelope; values written without
// the envelope are still readable.
//
// # Delete races
//
// With PreventWriteAfterDelete enabled, DeleteSession writes a short-lived
// tombstone under the private id and WriteSession becomes a conditional write
// that is dropped (WriteDropped) if the key holds a tombstone or changes
// before the commit. A request that deletes a session therefore cannot be
// undone by a slower concurrent request writing the old data back.
//
// # Unavailable backends
//
// When the backend reports kv.ErrUnavailable the Store logs a warning and
// returns a neutral result with a nil error: a fresh empty session from
// FindSession, WriteNotPersisted from WriteSession and a zero id from
// DeleteSession and RenewSession. Other errors are returned unchanged.
//
// # Usage
//
//	store := session.NewStore(backend,
//	    session.WithExpireAfter(24*time.Hour),
//	    session.WithPreventWriteAfterDelete(true),
//	    session.WithLogger(log),
//	)
//	mgr := session.NewManager(store, session.NewCookieTransport(cookies, "rack.session", true))
//
//	r.Use(mgr.Middleware)
//	r.Put("/cart", func(w http.ResponseWriter, r *http.Request) {
//	    st := session.MustFromContext(r.Context())
//	    st.Data.Set("cart", session.List(session.Int(42)))
//	    if _, err := mgr.Save(r.Context(), w, st); err != nil {
//	        http.Error(w, err.Error(), http.StatusInternalServerError)
//	    }
//	})
package session
