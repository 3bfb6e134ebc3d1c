package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/dbx"
	"github.com/VentixeAssignment/authservice/internal/server/models"
	"github.com/google/uuid"
)

// Lookup selects a user by exactly one key.
type Lookup struct {
	ID       string
	Email    string
	UserName string
}

func (l Lookup) key() (field, value string, n int) {
	for _, kv := range [][2]string{{"id", l.ID}, {"email", l.Email}, {"user name", l.UserName}} {
		if strings.TrimSpace(kv[1]) != "" {
			field, value = kv[0], kv[1]
			n++
		}
	}
	return field, value, n
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// validID reports whether id can name a row at all. Ids are UUIDs, so any
// other string is a miss without a round trip.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// ownUserName reports whether userName can belong to an account with email.
// A user name that looks like an address must be that account's address,
// so it cannot shadow another user's e-mail at sign-in.
func ownUserName(userName, email string) bool {
	return !strings.Contains(userName, "@") || userName == email
}

func notFoundID(id string) models.AuthResult {
	return models.Fail(common.KindNotFound, fmt.Sprintf("No user with id %s was found.", id))
}

// CreateUser hashes password and inserts user with a fresh id. UserName
// defaults to the e-mail.
func (s *Store) CreateUser(ctx context.Context, scope *dbx.Scope, user *models.User, password string) models.AuthResult {
	if user == nil || blank(user.Email) || blank(password) {
		return models.Fail(common.KindInvalidInput, "User and password cannot be empty.")
	}
	if !strings.Contains(user.Email, "@") {
		return models.Fail(common.KindInvalidInput, "Not all fields are valid.")
	}

	row := *user
	if blank(row.UserName) {
		row.UserName = row.Email
	}
	if !ownUserName(row.UserName, row.Email) {
		return models.Fail(common.KindInvalidInput, "Not all fields are valid.")
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return s.fail(ctx, "create_user", err, "Not all fields are valid.")
	}
	row.ID = uuid.NewString()
	row.PasswordDigest = digest

	created, err := s.repos.Users(scope.DBTX()).Create(ctx, &row)
	if err != nil {
		switch common.KindOf(err) {
		case common.KindConflict:
			return models.Fail(common.KindConflict, "User already exists.")
		case common.KindInvalidInput:
			return models.Fail(common.KindInvalidInput, "Not all fields are valid.")
		}
		return s.fail(ctx, "create_user", err, "Failed to create user.")
	}

	s.logger.Info(ctx, "user created", "user_id", created.ID)
	return models.OkWith("User was successfully created.", created)
}

// FindUser returns a snapshot of the user matching the lookup. A miss is a
// normal failed result with KindNotFound.
func (s *Store) FindUser(ctx context.Context, scope *dbx.Scope, l Lookup) models.AuthResult {
	user, res := s.load(ctx, scope, l)
	if user == nil {
		return res
	}
	return models.OkWith("", user)
}

// UserExists reports whether an account uses email.
func (s *Store) UserExists(ctx context.Context, scope *dbx.Scope, email string) models.AuthResult {
	if blank(email) {
		return models.Fail(common.KindInvalidInput, "Invalid or empty email address.")
	}

	exists, err := s.repos.Users(scope.DBTX()).ExistsByEmail(ctx, email)
	if err != nil {
		return s.fail(ctx, "user_exists", err, "Unable to look up user.")
	}
	if !exists {
		return models.Fail(common.KindNotFound, "User does not exist.")
	}
	return models.Ok("User already exists.")
}

// UpdateUser writes the profile fields of user (name, e-mail, user name).
// Changing the e-mail drops its verified state and any pending code.
func (s *Store) UpdateUser(ctx context.Context, scope *dbx.Scope, user *models.User) models.AuthResult {
	if user == nil || blank(user.ID) || blank(user.Email) {
		return models.Fail(common.KindInvalidInput, "User cannot be null.")
	}
	if !validID(user.ID) {
		return notFoundID(user.ID)
	}

	row := *user
	if blank(row.UserName) {
		row.UserName = row.Email
	}
	if !ownUserName(row.UserName, row.Email) {
		return models.Fail(common.KindInvalidInput, "Not all fields are valid.")
	}

	current, res := s.load(ctx, scope, Lookup{ID: row.ID})
	if current == nil {
		return res
	}
	if current.Email != row.Email {
		if err := s.repos.VerificationCodes(scope.DBTX()).Delete(ctx, current.Email); err != nil {
			return s.fail(ctx, "update_user", err, "Failed to update user.")
		}
	}

	err := s.repos.Users(scope.DBTX()).Update(ctx, &row)
	switch {
	case err == nil:
		return models.Ok("User was successfully updated.")
	case errors.Is(err, common.ErrNotFound):
		return notFoundID(user.ID)
	case errors.Is(err, common.ErrConflict):
		return models.Fail(common.KindConflict, "User already exists.")
	default:
		return s.fail(ctx, "update_user", err, "Failed to update user.")
	}
}

// ChangePassword replaces the digest of user id after checking current.
func (s *Store) ChangePassword(ctx context.Context, scope *dbx.Scope, id, current, next string) models.AuthResult {
	if blank(id) || blank(current) || blank(next) {
		return models.Fail(common.KindInvalidInput, "User, current password and new password cannot be null or empty.")
	}

	user, res := s.load(ctx, scope, Lookup{ID: id})
	if user == nil {
		return res
	}

	ok, err := s.hasher.Verify(current, user.PasswordDigest)
	if err != nil {
		return s.fail(ctx, "change_password", err, "Unable to update password.")
	}
	if !ok {
		return models.Fail(common.KindUnauthorized, "Unable to update password.")
	}

	digest, err := s.hasher.Hash(next)
	if err != nil {
		return s.fail(ctx, "change_password", err, "Unable to update password.")
	}

	if err := s.repos.Users(scope.DBTX()).UpdatePassword(ctx, id, digest); err != nil {
		return s.fail(ctx, "change_password", err, "Unable to update password.")
	}

	s.logger.Info(ctx, "password changed", "user_id", id)
	return models.Ok("Password was successfully updated.")
}

// DeleteUser physically removes the user row.
func (s *Store) DeleteUser(ctx context.Context, scope *dbx.Scope, id string) models.AuthResult {
	if blank(id) {
		return models.Fail(common.KindInvalidInput, "Id cannot be null.")
	}
	if !validID(id) {
		return notFoundID(id)
	}

	err := s.repos.Users(scope.DBTX()).Delete(ctx, id)
	switch {
	case err == nil:
		s.logger.Info(ctx, "user deleted", "user_id", id)
		return models.Ok("Successfully deleted user.")
	case errors.Is(err, common.ErrNotFound):
		return notFoundID(id)
	default:
		return s.fail(ctx, "delete_user", err, "Unable to delete user.")
	}
}

// SetActive sets the active flag to the given state.
func (s *Store) SetActive(ctx context.Context, scope *dbx.Scope, id string, active bool) models.AuthResult {
	if blank(id) {
		return models.Fail(common.KindInvalidInput, "Id cannot be null.")
	}
	if !validID(id) {
		return notFoundID(id)
	}

	err := s.repos.Users(scope.DBTX()).SetActive(ctx, id, active)
	switch {
	case err == nil:
		if active {
			return models.Ok("User was successfully activated.")
		}
		return models.Ok("User was successfully deactivated.")
	case errors.Is(err, common.ErrNotFound):
		return notFoundID(id)
	default:
		return s.fail(ctx, "set_active", err, "Unable to change user state.")
	}
}

// load resolves a lookup to the full record, including the digest. The
// record never leaves this package; callers get snapshots.
func (s *Store) load(ctx context.Context, scope *dbx.Scope, l Lookup) (*models.User, models.AuthResult) {
	field, value, n := l.key()
	switch n {
	case 0:
		return nil, models.Fail(common.KindInvalidInput, "Id or email must contain a value.")
	case 1:
	default:
		return nil, models.Fail(common.KindInvalidInput, "Only one of id, email or user name may be given.")
	}

	repo := s.repos.Users(scope.DBTX())
	var (
		user *models.User
		err  error
	)
	switch field {
	case "id":
		if !validID(value) {
			return nil, notFoundID(value)
		}
		user, err = repo.GetByID(ctx, value)
	case "email":
		user, err = repo.GetByEmail(ctx, value)
	default:
		user, err = repo.GetByUserName(ctx, value)
	}

	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, models.Fail(common.KindNotFound, fmt.Sprintf("No user with %s %s was found.", field, value))
		}
		return nil, s.fail(ctx, "find_user", err, "Unable to look up user.")
	}
	return user, models.AuthResult{}
}
