package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the repositories branch on
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsPgDuplicateError reports a unique constraint violation
func IsPgDuplicateError(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

// IsPgNoRowsError reports an empty single-row result
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsPgForeignKeyError reports a foreign key violation, e.g. a page pointing
// at a folder that does not exist
func IsPgForeignKeyError(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}
