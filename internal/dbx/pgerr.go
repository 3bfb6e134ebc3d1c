package dbx

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation  = "23505"
	pgNotNullViolation = "23502"
	pgCheckViolation   = "23514"
	pgDataExceptionCls = "22"
)

// Translate maps driver errors to the sentinels in package common and wraps
// anything else as a db error.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgUniqueViolation:
			return fmt.Errorf("%w: %s", common.ErrConflict, pgErr.ConstraintName)
		case pgErr.Code == pgNotNullViolation,
			pgErr.Code == pgCheckViolation,
			strings.HasPrefix(pgErr.Code, pgDataExceptionCls):
			return fmt.Errorf("%w: %s", common.ErrInvalidInput, pgErr.ColumnName)
		}
	}

	return fmt.Errorf("db error: %w", err)
}
