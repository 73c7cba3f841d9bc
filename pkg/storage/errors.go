package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrPoolNil is returned when a nil connection pool is provided.
	ErrPoolNil = errors.New("connection pool cannot be nil")

	// ErrFailedToParseDBConfig is returned when the connection string is invalid.
	ErrFailedToParseDBConfig = errors.New("failed to parse db config")

	// ErrFailedToOpenDBConnection is returned when all connection attempts fail.
	ErrFailedToOpenDBConnection = errors.New("failed to open db connection")
)

// IsNotFound detects pgx.ErrNoRows for consistent "not found" handling.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, pgx.ErrNoRows)
}

// IsLockNotAvailable detects SQLSTATE 55P03, raised when a row lock cannot
// be acquired (NOWAIT or lock_timeout). Transient: the message can be
// requeued while attempts remain.
func IsLockNotAvailable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}
