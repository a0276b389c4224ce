package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/puddle/v2"

	"github.com/dmitrymomot/sessionstore/pkg/kv"
)

var (
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
	ErrEmptyConnectionString    = errors.New("empty postgres connection string, use PG_CONN_URL env var")
	ErrHealthcheckFailed        = errors.New("healthcheck failed, connection is not available")
	ErrFailedToParseDBConfig    = errors.New("failed to parse db config")
	ErrFailedToApplyMigrations  = errors.New("failed to apply migrations")
)

// IsNotFoundError detects pgx.ErrNoRows.
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsUnavailableError reports errors that mean the database cannot be reached:
// dial failures, timeouts, a closed pool, a dropped connection or a server
// shutting down (SQLSTATE class 08, 57P01-57P03).
func IsUnavailableError(err error) bool {
	if err == nil {
		return false
	}
	if kv.IsConnectionError(err) || pgconn.Timeout(err) || errors.Is(err, puddle.ErrClosedPool) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "08":
			return true
		case pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03":
			return true
		}
	}
	return false
}

// wrapErr marks connectivity failures as kv.ErrUnavailable.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if IsUnavailableError(err) {
		return kv.Unavailable(err)
	}
	return err
}
