package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mesh-intelligence/phonebook/pkg/types"
)

const (
	// UniqueViolationCode indicates a unique constraint violation.
	UniqueViolationCode = "23505"
	// ForeignKeyViolationCode indicates a foreign key violation.
	ForeignKeyViolationCode = "23503"
	// CheckViolationCode indicates a check constraint violation.
	CheckViolationCode = "23514"
	// NotNullViolationCode indicates a NOT NULL constraint violation.
	NotNullViolationCode = "23502"
)

// AsPgError unwraps err to a server-side Postgres error.
func AsPgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// classify wraps err with the phonebook sentinel matching its SQLSTATE so
// callers can use errors.Is. Unrecognized errors are wrapped with op only.
func classify(op string, err error) error {
	pe, ok := AsPgError(err)
	if !ok {
		return fmt.Errorf("%s: %w", op, err)
	}
	switch pe.Code {
	case ForeignKeyViolationCode:
		return fmt.Errorf("%s: %w: %s", op, types.ErrNotFound, pe.Message)
	case UniqueViolationCode, CheckViolationCode, NotNullViolationCode:
		return fmt.Errorf("%s: %w: %s", op, types.ErrInvalidData, pe.Message)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
