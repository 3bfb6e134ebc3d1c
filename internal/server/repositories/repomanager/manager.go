// Package repomanager vends repositories bound to a DBTX, so callers decide
// whether a repository runs on the pool or inside a transaction scope.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/VentixeAssignment/authservice/internal/dbx"
	"github.com/VentixeAssignment/authservice/internal/server/repositories/users"
	"github.com/VentixeAssignment/authservice/internal/server/repositories/verificationcodes"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	VerificationCodes(db dbx.DBTX) verificationcodes.Repository
}
