package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgDuplicateKeyCode   = "23505"
	pgForeignKeyCode     = "23503"
	pgSerializationCode  = "40001"
	pgDeadlockDetectCode = "40P01"
)

// ErrSerialization reports a transaction that lost a concurrent race and
// may be retried by the caller.
var ErrSerialization = errors.New("concurrent update, retry the request")

// MapError translates database errors to domain errors.
// sql.ErrNoRows and foreign key violations (23503) map to notFoundErr,
// unique violations (23505) map to duplicateErr, and serialization
// failures or deadlocks map to ErrSerialization. Other errors are returned
// unchanged.
func MapError(err error, notFoundErr, duplicateErr error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return notFoundErr
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgDuplicateKeyCode:
		return duplicateErr
	case pgForeignKeyCode:
		return notFoundErr
	case pgSerializationCode, pgDeadlockDetectCode:
		return fmt.Errorf("%w: %s", ErrSerialization, pgErr.Message)
	}

	return err
}
