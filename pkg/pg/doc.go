// Package pg provides a PostgreSQL session backend built on pgx/v5.
//
// Connect opens a *pgxpool.Pool with retry, Migrate creates the
// session_store table from migrations embedded in the binary (goose/v3), and
// Backend implements kv.Backend on top of that table:
//
//	session_store(key text primary key, value bytea, expires_at timestamptz)
//
// Rows past expires_at are invisible to every operation and are purged by
// Backend.Cleanup. Set and ConditionalWrite take a transaction-scoped
// advisory lock on the key, so a conditional write and a tombstone write for
// the same key never interleave.
//
// # Usage
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//	    return err
//	}
//	backend := pg.NewBackend(pool)
//	go backend.Cleanup(ctx, cfg.CleanupInterval, log)
//
// Connection failures (dial errors, timeouts, a closed pool, SQLSTATE class
// 08) are returned wrapped in kv.ErrUnavailable.
package pg
