// Package sid generates session identifiers and derives the storage key for them.
//
// Every session id has two forms. The public id is a hex encoded random token
// that travels to the client, usually inside a cookie. The private id is derived
// from the public id with a one-way function and is the only form ever used as a
// key in the backing store. Someone who can read client side data (or a leaked
// access log) learns public ids only, which do not name any key in the store.
//
// Two derivations are supported:
//
//   - "2::" + hex(SHA-256(public)) is the default. It matches the key layout of
//     Rack session stores, so both can share one Redis database.
//   - "3::" + hex(HKDF-SHA256(key, public)) is enabled with WithDerivationKey.
//     Store keys can then not be computed without the server secret.
//
// # Usage
//
//	gen := sid.NewGenerator()
//	id := gen.Generate()
//	cookieValue := id.Public
//
//	// later, on the next request
//	id, err := gen.FromPublic(cookieValue)
//	if errors.Is(err, sid.ErrInvalidID) {
//	    // treat as "no session"
//	}
//
// SID implements slog.LogValuer and logs a truncated public id only.
package sid
