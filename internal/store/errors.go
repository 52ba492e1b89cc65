package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolationCode is Postgres's SQLSTATE for a unique constraint
// failure; every duplicate-name insert in this package maps it to
// apperr.Conflict instead of a bare IO error.
const uniqueViolationCode = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
