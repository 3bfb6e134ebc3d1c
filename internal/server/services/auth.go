// Package services contains server-side business logic. This file implements
// AuthService, the single entry point both transports call: it composes the
// account store and the token issuer into sign-in, and wraps every account
// mutation in its own transaction scope.
package services

import (
	"context"
	"strings"
	"time"

	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/dbx"
	"github.com/VentixeAssignment/authservice/internal/logging"
	"github.com/VentixeAssignment/authservice/internal/server/accounts"
	"github.com/VentixeAssignment/authservice/internal/server/auth"
	"github.com/VentixeAssignment/authservice/internal/server/models"
)

const (
	msgSignInFailed   = "Unable to sign in user."
	msgSignInBlank    = "User name and password cannot be empty."
	msgSignedIn       = "User was successfully signed in."
	msgRequestFailed  = "Unable to complete the request."
	msgCodeShape      = "Invalid email or verification code."
	msgCodeSent       = "Verification code was sent."
	msgCodeSendFailed = "Unable to send verification code."

	verificationCodeDigits = 6
)

// AccountStore is the transactional credential store. *accounts.Store
// implements it.
type AccountStore interface {
	NewScope() *dbx.Scope
	Begin(ctx context.Context) (*dbx.Scope, error)

	VerifyCredentials(ctx context.Context, scope *dbx.Scope, login, password string) models.AuthResult
	SignOut(ctx context.Context) models.AuthResult
	CreateUser(ctx context.Context, scope *dbx.Scope, user *models.User, password string) models.AuthResult
	FindUser(ctx context.Context, scope *dbx.Scope, l accounts.Lookup) models.AuthResult
	UserExists(ctx context.Context, scope *dbx.Scope, email string) models.AuthResult
	UpdateUser(ctx context.Context, scope *dbx.Scope, user *models.User) models.AuthResult
	ChangePassword(ctx context.Context, scope *dbx.Scope, id, current, next string) models.AuthResult
	DeleteUser(ctx context.Context, scope *dbx.Scope, id string) models.AuthResult
	SetActive(ctx context.Context, scope *dbx.Scope, id string, active bool) models.AuthResult
	SaveVerificationCode(ctx context.Context, scope *dbx.Scope, email, code string) (time.Time, models.AuthResult)
	VerifyEmail(ctx context.Context, scope *dbx.Scope, email, code string) models.AuthResult
}

// TokenIssuer signs and parses session tokens. *auth.TokenIssuer implements
// it.
type TokenIssuer interface {
	CreateToken(user *models.User) (string, error)
	ParseToken(token string) (*auth.Claims, error)
}

// CodeSender delivers verification codes to users.
type CodeSender interface {
	SendVerificationCode(ctx context.Context, email, code string, expiresAt time.Time) error
}

// CreateUserParams is the input of CreateUser.
type CreateUserParams struct {
	Email     string
	Password  string
	UserName  string
	FirstName string
	LastName  string
}

// Orchestrator is the operation set the transports call. *AuthService
// implements it.
type Orchestrator interface {
	SignIn(ctx context.Context, login, password string) models.AuthResult
	SignOut(ctx context.Context) models.AuthResult
	CreateUser(ctx context.Context, p CreateUserParams) models.AuthResult
	UpdateUser(ctx context.Context, id, email string) models.AuthResult
	ChangePassword(ctx context.Context, id, current, next string) models.AuthResult
	DeleteUser(ctx context.Context, id string) models.AuthResult
	ChangeActive(ctx context.Context, id string, active bool) models.AuthResult
	SendVerificationCode(ctx context.Context, email string) models.AuthResult
	VerifyEmail(ctx context.Context, email, code string) models.AuthResult
	UserExists(ctx context.Context, email string) models.AuthResult
	GetUserEmail(ctx context.Context, id string) models.AuthResult
	ValidateToken(ctx context.Context, token string) models.AuthResult
}

// AuthService is safe for concurrent use; every call gets its own scope.
type AuthService struct {
	store  AccountStore
	tokens TokenIssuer
	codes  CodeSender
	logger logging.Logger
}

func NewAuthService(store AccountStore, tokens TokenIssuer, codes CodeSender, logger logging.Logger) *AuthService {
	return &AuthService{
		store:  store,
		tokens: tokens,
		codes:  codes,
		logger: logger.With("module", "auth_service"),
	}
}

// SignIn verifies login (user name or e-mail) and password and issues a
// token. Credential failures are reported with one generic message.
func (s *AuthService) SignIn(ctx context.Context, login, password string) models.AuthResult {
	if blank(login) || blank(password) {
		return models.Fail(common.KindInvalidInput, msgSignInBlank)
	}

	scope := s.store.NewScope()

	res := s.store.VerifyCredentials(ctx, scope, login, password)
	if !res.Success {
		switch res.Kind {
		case common.KindInvalidInput, common.KindInternal:
			return res
		}
		return models.Fail(common.KindUnauthorized, msgSignInFailed)
	}

	var found models.AuthResult
	for _, l := range accounts.LoginLookups(login) {
		found = s.store.FindUser(ctx, scope, l)
		if found.Success || found.Kind != common.KindNotFound {
			break
		}
	}
	if !found.Success || found.Data == nil || blank(found.Data.ID) || blank(found.Data.Email) {
		s.logger.Error(ctx, "signed-in user could not be resolved", "kind", found.Kind.String())
		return models.Fail(common.KindInternal, msgSignInFailed)
	}

	token, err := s.tokens.CreateToken(&models.User{ID: found.Data.ID, Email: found.Data.Email})
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "user_id", found.Data.ID, "error", err)
		return models.Fail(common.KindInternal, msgSignInFailed)
	}

	s.logger.Info(ctx, "user signed in", "user_id", found.Data.ID)
	out := models.Ok(msgSignedIn)
	out.Data = found.Data
	out.Token = token
	return out
}

// SignOut is stateless; clients discard their token.
func (s *AuthService) SignOut(ctx context.Context) models.AuthResult {
	return s.store.SignOut(ctx)
}

func (s *AuthService) CreateUser(ctx context.Context, p CreateUserParams) models.AuthResult {
	if blank(p.Email) || blank(p.Password) {
		return models.Fail(common.KindInvalidInput, "User and password cannot be empty.")
	}
	if !strings.Contains(p.Email, "@") {
		return models.Fail(common.KindInvalidInput, "Not all fields are valid.")
	}

	user := &models.User{
		Email:     strings.TrimSpace(p.Email),
		UserName:  strings.TrimSpace(p.UserName),
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}
	return s.inTx(ctx, "create_user", func(scope *dbx.Scope) models.AuthResult {
		return s.store.CreateUser(ctx, scope, user, p.Password)
	})
}

// UpdateUser changes the e-mail of user id. A user name that mirrored the
// old e-mail follows it.
func (s *AuthService) UpdateUser(ctx context.Context, id, email string) models.AuthResult {
	if blank(id) || blank(email) {
		return models.Fail(common.KindInvalidInput, "Id and email cannot be empty.")
	}
	if !strings.Contains(email, "@") {
		return models.Fail(common.KindInvalidInput, "Not all fields are valid.")
	}

	return s.inTx(ctx, "update_user", func(scope *dbx.Scope) models.AuthResult {
		found := s.store.FindUser(ctx, scope, accounts.Lookup{ID: id})
		if !found.Success {
			return found
		}
		current := found.Data

		user := &models.User{
			ID:        current.ID,
			UserName:  current.UserName,
			Email:     strings.TrimSpace(email),
			FirstName: current.FirstName,
			LastName:  current.LastName,
		}
		if current.UserName == current.Email {
			user.UserName = user.Email
		}
		return s.store.UpdateUser(ctx, scope, user)
	})
}

// ChangePassword requires both passwords. An unknown user is reported as
// invalid input, like a wrong current password.
func (s *AuthService) ChangePassword(ctx context.Context, id, current, next string) models.AuthResult {
	if blank(id) || blank(current) || blank(next) {
		return models.Fail(common.KindInvalidInput, "User, current password and new password cannot be null or empty.")
	}

	res := s.inTx(ctx, "change_password", func(scope *dbx.Scope) models.AuthResult {
		return s.store.ChangePassword(ctx, scope, id, current, next)
	})
	if res.Kind == common.KindNotFound {
		return models.Fail(common.KindInvalidInput, res.ErrorMessage)
	}
	return res
}

func (s *AuthService) DeleteUser(ctx context.Context, id string) models.AuthResult {
	if blank(id) {
		return models.Fail(common.KindInvalidInput, "Id cannot be null.")
	}
	return s.inTx(ctx, "delete_user", func(scope *dbx.Scope) models.AuthResult {
		return s.store.DeleteUser(ctx, scope, id)
	})
}

// ChangeActive sets the active flag of user id to active. Repeating a call
// leaves the same state.
func (s *AuthService) ChangeActive(ctx context.Context, id string, active bool) models.AuthResult {
	if blank(id) {
		return models.Fail(common.KindInvalidInput, "Id cannot be null.")
	}
	return s.inTx(ctx, "change_active", func(scope *dbx.Scope) models.AuthResult {
		return s.store.SetActive(ctx, scope, id, active)
	})
}

// SendVerificationCode stores a fresh code for email and mails it. The code
// is committed before delivery; a failed delivery leaves a pending code the
// user can replace by asking again.
func (s *AuthService) SendVerificationCode(ctx context.Context, email string) models.AuthResult {
	if blank(email) || !strings.Contains(email, "@") {
		return models.Fail(common.KindInvalidInput, "Invalid or empty email address.")
	}

	code, err := common.RandomDigits(verificationCodeDigits)
	if err != nil {
		s.logger.Error(ctx, "verification code generation failed", "error", err)
		return models.Fail(common.KindInternal, msgCodeSendFailed)
	}

	var expiresAt time.Time
	res := s.inTx(ctx, "send_verification_code", func(scope *dbx.Scope) models.AuthResult {
		var r models.AuthResult
		expiresAt, r = s.store.SaveVerificationCode(ctx, scope, email, code)
		return r
	})
	if !res.Success {
		return res
	}

	if err := s.codes.SendVerificationCode(ctx, email, code, expiresAt); err != nil {
		s.logger.Error(ctx, "verification mail failed", "error", err)
		return models.Fail(common.KindInternal, msgCodeSendFailed)
	}
	return models.Ok(msgCodeSent)
}

// VerifyEmail checks code against the pending code of email.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) models.AuthResult {
	if !strings.Contains(email, "@") || blank(code) {
		return models.Fail(common.KindInvalidInput, msgCodeShape)
	}
	return s.inTx(ctx, "verify_email", func(scope *dbx.Scope) models.AuthResult {
		return s.store.VerifyEmail(ctx, scope, strings.TrimSpace(email), strings.TrimSpace(code))
	})
}

func (s *AuthService) UserExists(ctx context.Context, email string) models.AuthResult {
	return s.store.UserExists(ctx, s.store.NewScope(), email)
}

// GetUserEmail returns the e-mail of user id as the message and the user
// snapshot as data.
func (s *AuthService) GetUserEmail(ctx context.Context, id string) models.AuthResult {
	if blank(id) {
		return models.Fail(common.KindInvalidInput, "Id cannot be null.")
	}
	res := s.store.FindUser(ctx, s.store.NewScope(), accounts.Lookup{ID: id})
	if !res.Success {
		return res
	}
	out := models.Ok(res.Data.Email)
	out.Data = res.Data
	return out
}

// ValidateToken parses token and returns its subject and e-mail as data.
func (s *AuthService) ValidateToken(ctx context.Context, token string) models.AuthResult {
	if blank(token) {
		return models.Fail(common.KindInvalidInput, "Token cannot be empty.")
	}
	claims, err := s.tokens.ParseToken(token)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "error", err)
		return models.Fail(common.KindUnauthorized, "Invalid or expired token.")
	}

	out := models.Ok("Token is valid.")
	out.Data = &models.UserView{ID: claims.Subject, Email: claims.Email}
	return out
}

// inTx runs fn inside a fresh transaction scope. A failed result or a panic
// rolls back; a successful one commits. The result of fn is returned as is
// unless the commit itself fails.
func (s *AuthService) inTx(ctx context.Context, op string, fn func(scope *dbx.Scope) models.AuthResult) models.AuthResult {
	scope, err := s.store.Begin(ctx)
	if err != nil {
		s.logger.Error(ctx, "begin failed", "op", op, "error", err)
		return models.Fail(common.KindOf(err), msgRequestFailed)
	}

	defer func() {
		if p := recover(); p != nil {
			if rbErr := scope.Rollback(); rbErr != nil {
				s.logger.Error(ctx, "rollback after panic failed", "op", op, "error", rbErr)
			}
			panic(p)
		}
	}()

	res := fn(scope)
	if !res.Success {
		if rbErr := scope.Rollback(); rbErr != nil {
			s.logger.Warn(ctx, "rollback failed", "op", op, "error", rbErr)
		}
		return res
	}

	if err := scope.Commit(); err != nil {
		s.logger.Error(ctx, "commit failed", "op", op, "error", err)
		return models.Fail(common.KindInternal, msgRequestFailed)
	}
	return res
}

var (
	_ AccountStore = (*accounts.Store)(nil)
	_ Orchestrator = (*AuthService)(nil)
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
