package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/dbx"
	"github.com/VentixeAssignment/authservice/internal/logging"
	"github.com/VentixeAssignment/authservice/internal/server/accounts"
	"github.com/VentixeAssignment/authservice/internal/server/auth"
	"github.com/VentixeAssignment/authservice/internal/server/models"
	"github.com/google/uuid"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newIssuer(t *testing.T) *auth.TokenIssuer {
	t.Helper()
	iss, err := auth.NewTokenIssuer([]byte("test-signing-key"), "authservice", []string{"ventixe"})
	if err != nil {
		t.Fatalf("NewTokenIssuer error: %v", err)
	}
	return iss
}

// --- in-memory account store ---

type memUser struct {
	user     models.User
	password string
}

type memCode struct {
	code      string
	expiresAt time.Time
}

// memStore is an AccountStore over maps. Mutations are not transactional;
// Begin still opens a real scope on db so tests can assert commit/rollback.
type memStore struct {
	db *sql.DB

	users map[string]*memUser
	codes map[string]memCode
	calls int

	beginErr error
	panicOn  string
}

func newMemStore(db *sql.DB) *memStore {
	return &memStore{db: db, users: map[string]*memUser{}, codes: map[string]memCode{}}
}

func (m *memStore) call(op string) {
	m.calls++
	if op == m.panicOn {
		panic("store blew up in " + op)
	}
}

func (m *memStore) byKey(l accounts.Lookup) *memUser {
	for _, u := range m.users {
		switch {
		case l.ID != "" && u.user.ID == l.ID,
			l.Email != "" && u.user.Email == l.Email,
			l.UserName != "" && u.user.UserName == l.UserName:
			return u
		}
	}
	return nil
}

func (m *memStore) NewScope() *dbx.Scope { return dbx.NewScope(m.db) }

func (m *memStore) Begin(ctx context.Context) (*dbx.Scope, error) {
	if m.beginErr != nil {
		return nil, m.beginErr
	}
	scope := dbx.NewScope(m.db)
	if err := scope.Begin(ctx, nil); err != nil {
		return nil, err
	}
	return scope, nil
}

func (m *memStore) VerifyCredentials(_ context.Context, _ *dbx.Scope, login, password string) models.AuthResult {
	m.call("verify")
	var u *memUser
	for _, l := range accounts.LoginLookups(login) {
		if u = m.byKey(l); u != nil {
			break
		}
	}
	if u == nil || u.password != password || !u.user.IsActive {
		return models.Fail(common.KindUnauthorized, "failed to sign in")
	}
	return models.Ok("")
}

func (m *memStore) SignOut(context.Context) models.AuthResult {
	m.call("signout")
	return models.Ok("User was successfully signed out.")
}

func (m *memStore) CreateUser(_ context.Context, _ *dbx.Scope, user *models.User, password string) models.AuthResult {
	m.call("create")
	for _, u := range m.users {
		if u.user.Email == user.Email {
			return models.Fail(common.KindConflict, "User already exists.")
		}
	}
	row := *user
	row.ID = uuid.NewString()
	row.IsActive = true
	if row.UserName == "" {
		row.UserName = row.Email
	}
	m.users[row.ID] = &memUser{user: row, password: password}
	return models.OkWith("User was successfully created.", &row)
}

func (m *memStore) FindUser(_ context.Context, _ *dbx.Scope, l accounts.Lookup) models.AuthResult {
	m.call("find")
	u := m.byKey(l)
	if u == nil {
		return models.Fail(common.KindNotFound, "No user was found.")
	}
	return models.OkWith("", &u.user)
}

func (m *memStore) UserExists(_ context.Context, _ *dbx.Scope, email string) models.AuthResult {
	m.call("exists")
	if m.byKey(accounts.Lookup{Email: email}) == nil {
		return models.Fail(common.KindNotFound, "User does not exist.")
	}
	return models.Ok("User already exists.")
}

func (m *memStore) UpdateUser(_ context.Context, _ *dbx.Scope, user *models.User) models.AuthResult {
	m.call("update")
	u, ok := m.users[user.ID]
	if !ok {
		return models.Fail(common.KindNotFound, "No user was found.")
	}
	if u.user.Email != user.Email {
		u.user.EmailVerified = false
		delete(m.codes, u.user.Email)
	}
	u.user.Email, u.user.UserName = user.Email, user.UserName
	return models.Ok("User was successfully updated.")
}

func (m *memStore) ChangePassword(_ context.Context, _ *dbx.Scope, id, current, next string) models.AuthResult {
	m.call("password")
	u, ok := m.users[id]
	if !ok {
		return models.Fail(common.KindNotFound, "No user with id "+id+" was found.")
	}
	if u.password != current {
		return models.Fail(common.KindUnauthorized, "Unable to update password.")
	}
	u.password = next
	return models.Ok("Password was successfully updated.")
}

func (m *memStore) DeleteUser(_ context.Context, _ *dbx.Scope, id string) models.AuthResult {
	m.call("delete")
	if _, ok := m.users[id]; !ok {
		return models.Fail(common.KindNotFound, "No user with id "+id+" was found.")
	}
	delete(m.users, id)
	return models.Ok("Successfully deleted user.")
}

func (m *memStore) SetActive(_ context.Context, _ *dbx.Scope, id string, active bool) models.AuthResult {
	m.call("active")
	u, ok := m.users[id]
	if !ok {
		return models.Fail(common.KindNotFound, "No user with id "+id+" was found.")
	}
	u.user.IsActive = active
	return models.Ok("User state changed.")
}

func (m *memStore) SaveVerificationCode(_ context.Context, _ *dbx.Scope, email, code string) (time.Time, models.AuthResult) {
	m.call("save_code")
	if m.byKey(accounts.Lookup{Email: email}) == nil {
		return time.Time{}, models.Fail(common.KindNotFound, "No user was found.")
	}
	exp := time.Now().Add(time.Minute)
	m.codes[email] = memCode{code: code, expiresAt: exp}
	return exp, models.Ok("Verification code was sent.")
}

func (m *memStore) VerifyEmail(_ context.Context, _ *dbx.Scope, email, code string) models.AuthResult {
	m.call("verify_email")
	u := m.byKey(accounts.Lookup{Email: email})
	if u == nil {
		return models.Fail(common.KindNotFound, "No user was found.")
	}
	if c, ok := m.codes[email]; !ok || c.code != code {
		return models.Fail(common.KindInvalidInput, "Verification code is invalid or has expired.")
	}
	u.user.EmailVerified = true
	delete(m.codes, email)
	return models.Ok("Email was successfully verified.")
}

var _ AccountStore = (*memStore)(nil)

// --- token issuer that fails ---

type failingIssuer struct{}

func (failingIssuer) CreateToken(*models.User) (string, error) {
	return "", common.ErrInternal
}

func (failingIssuer) ParseToken(string) (*auth.Claims, error) {
	return nil, common.ErrInvalidToken
}

// --- code sender ---

type captureSender struct {
	email string
	code  string
	err   error
}

func (c *captureSender) SendVerificationCode(_ context.Context, email, code string, _ time.Time) error {
	c.email, c.code = email, code
	return c.err
}

var errSMTP = errors.New("smtp: connection refused")

func newService(t *testing.T) (*AuthService, *memStore, sqlmock.Sqlmock, *captureSender) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	store := newMemStore(db)
	sender := &captureSender{}
	return NewAuthService(store, newIssuer(t), sender, logging.Nop{}), store, mock, sender
}
