// Package accounts is the transactional adapter over the credential store.
// Every method takes the *dbx.Scope of the calling operation; the Store
// itself keeps no per-request state and is safe to share.
package accounts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/dbx"
	"github.com/VentixeAssignment/authservice/internal/logging"
	"github.com/VentixeAssignment/authservice/internal/server/auth"
	"github.com/VentixeAssignment/authservice/internal/server/models"
	"github.com/VentixeAssignment/authservice/internal/server/repositories/repomanager"
)

// DefaultCodeLifetime applies when Options.CodeLifetime is zero.
const DefaultCodeLifetime = 15 * time.Minute

// Options tune a Store.
type Options struct {
	// ExposeErrors appends internal error detail to failure messages.
	// Development only.
	ExposeErrors bool
	CodeLifetime time.Duration
	Now          func() time.Time
}

type Store struct {
	db           *sql.DB
	repos        repomanager.RepositoryManager
	hasher       auth.Hasher
	logger       logging.Logger
	exposeErrors bool
	codeLifetime time.Duration
	now          func() time.Time

	// dummyDigest is verified when a sign-in names an unknown user.
	dummyDigest string
}

func NewStore(db *sql.DB, repos repomanager.RepositoryManager, hasher auth.Hasher, logger logging.Logger, opts Options) (*Store, error) {
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("preparing dummy digest: %w", err)
	}

	s := &Store{
		db:           db,
		repos:        repos,
		hasher:       hasher,
		logger:       logger.With("module", "accounts"),
		exposeErrors: opts.ExposeErrors,
		codeLifetime: opts.CodeLifetime,
		now:          opts.Now,
		dummyDigest:  dummy,
	}
	if s.codeLifetime <= 0 {
		s.codeLifetime = DefaultCodeLifetime
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s, nil
}

// NewScope returns a scope with no transaction; reads through it go to the
// pool.
func (s *Store) NewScope() *dbx.Scope {
	return dbx.NewScope(s.db)
}

// Begin returns a scope with an open transaction. The caller must commit or
// roll it back.
func (s *Store) Begin(ctx context.Context) (*dbx.Scope, error) {
	scope := dbx.NewScope(s.db)
	if err := scope.Begin(ctx, nil); err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return scope, nil
}

// fail converts err into a failed result. Expected outcomes keep their kind
// and the given message; anything else is logged and reported as Internal
// with a sanitized message.
func (s *Store) fail(ctx context.Context, op string, err error, message string) models.AuthResult {
	kind := common.KindOf(err)
	if kind != common.KindInternal {
		return models.Fail(kind, message)
	}

	s.logger.Error(ctx, "store operation failed", "op", op, "error", err)
	if s.exposeErrors {
		return models.Fail(common.KindInternal, message+"\n"+err.Error())
	}
	return models.Fail(common.KindInternal, message)
}
