package pg

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/sessionstore/pkg/kv"
	"github.com/dmitrymomot/sessionstore/pkg/logger"
)

// DB is the subset of *pgxpool.Pool used by Backend.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Rows whose expires_at has passed are treated as absent by every query.
const (
	expiresExpr = `now() + $3::bigint * interval '1 millisecond'`
	liveExpr    = `(expires_at IS NULL OR expires_at > now())`

	queryGet = `SELECT value FROM session_store WHERE key = $1 AND ` + liveExpr

	querySetNX = `INSERT INTO session_store (key, value, expires_at)
VALUES ($1, $2, ` + expiresExpr + `)
ON CONFLICT (key) DO UPDATE
   SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
 WHERE session_store.expires_at IS NOT NULL AND session_store.expires_at <= now()`

	queryUpsert = `INSERT INTO session_store (key, value, expires_at)
VALUES ($1, $2, ` + expiresExpr + `)
ON CONFLICT (key) DO UPDATE
   SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at`

	queryDel = `DELETE FROM session_store WHERE key = ANY($1) AND ` + liveExpr

	queryDeleteExpired = `DELETE FROM session_store WHERE expires_at IS NOT NULL AND expires_at <= now()`

	// Serializes every writer of one key (SetNX, Set, Del, ConditionalWrite),
	// including keys that have no row yet.
	queryLockKey = `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`
)

// Backend implements kv.Backend on a PostgreSQL table.
type Backend struct {
	db DB
}

// NewBackend creates a Backend. The schema must exist, see Migrate.
func NewBackend(db DB) *Backend {
	return &Backend{db: db}
}

// SetNX inserts the row unless a live row holds the key. It takes the key
// lock so a ConditionalWrite that observed the key absent cannot overwrite it.
func (b *Backend) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	var inserted bool
	err := pgx.BeginFunc(ctx, b.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, queryLockKey, key); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, querySetNX, key, value, ttlMillis(ttl))
		if err != nil {
			return err
		}
		inserted = tag.RowsAffected() == 1
		return nil
	})
	if err != nil {
		return false, wrapErr(err)
	}
	return inserted, nil
}

func (b *Backend) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	if err := b.db.QueryRow(ctx, queryGet, key).Scan(&value); err != nil {
		if IsNotFoundError(err) {
			return nil, kv.ErrNotFound
		}
		return nil, wrapErr(err)
	}
	return value, nil
}

// Set upserts under the key lock so it cannot interleave with ConditionalWrite.
func (b *Backend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := pgx.BeginFunc(ctx, b.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, queryLockKey, key); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, queryUpsert, key, value, ttlMillis(ttl))
		return err
	})
	return wrapErr(err)
}

// Del removes keys and returns how many live rows were deleted. Key locks are
// taken in sorted order so concurrent multi-key deletes cannot deadlock.
func (b *Backend) Del(ctx context.Context, keys ...string) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	locked := slices.Compact(slices.Sorted(slices.Values(keys)))

	var deleted int64
	err := pgx.BeginFunc(ctx, b.db, func(tx pgx.Tx) error {
		for _, key := range locked {
			if _, err := tx.Exec(ctx, queryLockKey, key); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, queryDel, locked)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, wrapErr(err)
	}
	return deleted, nil
}

// ConditionalWrite takes the key lock, reads the live value, and writes only
// if guard approves, all in one transaction.
func (b *Backend) ConditionalWrite(ctx context.Context, key string, guard kv.Guard, value []byte, ttl time.Duration) (bool, error) {
	var committed bool
	err := pgx.BeginFunc(ctx, b.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, queryLockKey, key); err != nil {
			return err
		}

		var current []byte
		exists := true
		if err := tx.QueryRow(ctx, queryGet, key).Scan(&current); err != nil {
			if !IsNotFoundError(err) {
				return err
			}
			exists = false
		}

		if !guard(current, exists) {
			return nil
		}

		if _, err := tx.Exec(ctx, queryUpsert, key, value, ttlMillis(ttl)); err != nil {
			return err
		}
		committed = true
		return nil
	})
	if err != nil {
		return false, wrapErr(err)
	}
	return committed, nil
}

// DeleteExpired purges rows past their expiry.
func (b *Backend) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := b.db.Exec(ctx, queryDeleteExpired)
	if err != nil {
		return 0, wrapErr(err)
	}
	return tag.RowsAffected(), nil
}

// Cleanup calls DeleteExpired every interval until ctx is done.
func (b *Backend) Cleanup(ctx context.Context, interval time.Duration, log *slog.Logger) {
	if interval <= 0 {
		return
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := b.DeleteExpired(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WarnContext(ctx, "failed to purge expired sessions",
					logger.Backend("postgres"),
					logger.Error(err),
				)
				continue
			}
			if n > 0 {
				log.DebugContext(ctx, "purged expired sessions",
					logger.Backend("postgres"),
					slog.Int64("count", n),
				)
			}
		}
	}
}

// ttlMillis returns nil (no expiry) for ttl <= 0.
func ttlMillis(ttl time.Duration) *int64 {
	if ttl <= 0 {
		return nil
	}
	ms := max(ttl.Milliseconds(), 1)
	return &ms
}
