package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/decorhaus/storefront_api/internal/utils"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// mapError converts driver errors into the application sentinels so that
// services and handlers never inspect Postgres error codes themselves.
func mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, utils.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%s: %s: %w", op, pqErr.Constraint, utils.ErrAlreadyExists)
		case pqForeignKeyViolation:
			return fmt.Errorf("%s: %s: %w", op, pqErr.Constraint, utils.ErrInUse)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// requireAffected turns a zero-row UPDATE/DELETE into ErrNotFound.
func requireAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, utils.ErrNotFound)
	}
	return nil
}
