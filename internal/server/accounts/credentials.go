package accounts

import (
	"context"
	"errors"
	"strings"

	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/dbx"
	"github.com/VentixeAssignment/authservice/internal/server/models"
)

const signInFailed = "failed to sign in"

// VerifyCredentials checks login (user name or e-mail) and password. Unknown
// users, wrong passwords and inactive accounts produce the same result.
func (s *Store) VerifyCredentials(ctx context.Context, scope *dbx.Scope, login, password string) models.AuthResult {
	if strings.TrimSpace(login) == "" || strings.TrimSpace(password) == "" {
		return models.Fail(common.KindInvalidInput, "User name and password cannot be empty.")
	}

	user, err := s.findByLogin(ctx, scope, login)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return s.fail(ctx, "verify_credentials", err, "Unable to sign in user.")
	}

	digest := s.dummyDigest
	if user != nil {
		digest = user.PasswordDigest
	}

	ok, verr := s.hasher.Verify(password, digest)
	if verr != nil {
		s.logger.Warn(ctx, "password digest could not be checked", "error", verr)
		ok = false
	}

	if user == nil || !ok || !user.IsActive {
		return models.Fail(common.KindUnauthorized, signInFailed)
	}

	return models.Ok("")
}

// SignOut has no server-side session to drop; tokens expire on their own.
func (s *Store) SignOut(ctx context.Context) models.AuthResult {
	return models.Ok("User was successfully signed out.")
}

// findByLogin resolves login in LoginLookups order.
func (s *Store) findByLogin(ctx context.Context, scope *dbx.Scope, login string) (*models.User, error) {
	repo := s.repos.Users(scope.DBTX())

	err := common.ErrNotFound
	for _, l := range LoginLookups(login) {
		var user *models.User
		if l.Email != "" {
			user, err = repo.GetByEmail(ctx, l.Email)
		} else {
			user, err = repo.GetByUserName(ctx, l.UserName)
		}
		if err == nil || !errors.Is(err, common.ErrNotFound) {
			return user, err
		}
	}
	return nil, err
}

// LoginLookups lists the keys a sign-in login is tried against. A login that
// looks like an address is matched on e-mail first, so a user name can never
// take precedence over the account that owns the address.
func LoginLookups(login string) []Lookup {
	if strings.Contains(login, "@") {
		return []Lookup{{Email: login}, {UserName: login}}
	}
	return []Lookup{{UserName: login}}
}
