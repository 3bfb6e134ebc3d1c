package dbx

import (
	"context"
	"database/sql"
	"errors"

	"github.com/VentixeAssignment/authservice/internal/common"
)

// Scope is the transaction boundary of a single operation. It is created by
// the caller of that operation and must not be shared between goroutines.
//
// Typical use:
//
//	scope := dbx.NewScope(db)
//	if err := scope.Begin(ctx, nil); err != nil {
//	    return err
//	}
//	defer scope.Rollback()
//	// repos bound to scope.DBTX()
//	return scope.Commit()
type Scope struct {
	db *sql.DB
	tx *sql.Tx
}

// NewScope returns an idle scope over db.
func NewScope(db *sql.DB) *Scope {
	return &Scope{db: db}
}

// Begin opens a transaction. A scope holds at most one.
func (s *Scope) Begin(ctx context.Context, opts *sql.TxOptions) error {
	if s.tx != nil {
		return common.ErrAlreadyInProgress
	}
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}
	s.tx = tx
	return nil
}

// Commit commits the open transaction. The handle is released whatever the
// outcome.
func (s *Scope) Commit() error {
	if s.tx == nil {
		return common.ErrNoActiveTransaction
	}
	tx := s.tx
	s.tx = nil
	return tx.Commit()
}

// Rollback aborts the open transaction and releases the handle even when the
// driver reports an error. A transaction already finished by a cancelled
// context counts as rolled back.
func (s *Scope) Rollback() error {
	if s.tx == nil {
		return common.ErrNoActiveTransaction
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// Active reports whether a transaction is open.
func (s *Scope) Active() bool {
	return s.tx != nil
}

// DBTX returns the open transaction, or the pool when none is open.
func (s *Scope) DBTX() DBTX {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}
