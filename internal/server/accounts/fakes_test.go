package accounts

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/dbx"
	"github.com/VentixeAssignment/authservice/internal/logging"
	"github.com/VentixeAssignment/authservice/internal/server/auth"
	"github.com/VentixeAssignment/authservice/internal/server/models"
	"github.com/VentixeAssignment/authservice/internal/server/repositories/users"
	"github.com/VentixeAssignment/authservice/internal/server/repositories/verificationcodes"
	"golang.org/x/crypto/bcrypt"
)

// ---- in-memory users repo ----

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	calls int

	err error // returned by every call when set
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}}
}

func (m *memUsers) touch() error {
	m.calls++
	return m.err
}

func (m *memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.touch(); err != nil {
		return nil, err
	}
	for _, existing := range m.byID {
		if existing.Email == u.Email || existing.UserName == u.UserName {
			return nil, common.ErrConflict
		}
	}
	c := *u
	c.IsActive = true
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	m.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (m *memUsers) find(match func(*models.User) bool) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.touch(); err != nil {
		return nil, err
	}
	for _, u := range m.byID {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrNotFound
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.ID == id })
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.Email == email })
}

func (m *memUsers) GetByUserName(ctx context.Context, name string) (*models.User, error) {
	return m.find(func(u *models.User) bool { return u.UserName == name })
}

func (m *memUsers) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	if err == common.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (m *memUsers) mutate(id string, fn func(*models.User) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.touch(); err != nil {
		return err
	}
	u, ok := m.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	return fn(u)
}

func (m *memUsers) Update(ctx context.Context, user *models.User) error {
	return m.mutate(user.ID, func(u *models.User) error {
		for id, other := range m.byID {
			if id != user.ID && (other.Email == user.Email || other.UserName == user.UserName) {
				return common.ErrConflict
			}
		}
		if u.Email != user.Email {
			u.EmailVerified = false
		}
		u.Email, u.UserName, u.FirstName, u.LastName = user.Email, user.UserName, user.FirstName, user.LastName
		return nil
	})
}

func (m *memUsers) UpdatePassword(ctx context.Context, id, digest string) error {
	return m.mutate(id, func(u *models.User) error { u.PasswordDigest = digest; return nil })
}

func (m *memUsers) SetActive(ctx context.Context, id string, active bool) error {
	return m.mutate(id, func(u *models.User) error { u.IsActive = active; return nil })
}

func (m *memUsers) SetEmailVerified(ctx context.Context, email string) error {
	u, err := m.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	return m.mutate(u.ID, func(u *models.User) error { u.EmailVerified = true; return nil })
}

func (m *memUsers) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.touch(); err != nil {
		return err
	}
	if _, ok := m.byID[id]; !ok {
		return common.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) get(id string) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byID[id]
}

// ---- in-memory verification codes repo ----

type memCodes struct {
	byEmail map[string]*models.VerificationCode
}

func (m *memCodes) Save(ctx context.Context, email, digest string, expiresAt time.Time) error {
	m.byEmail[email] = &models.VerificationCode{Email: email, CodeDigest: digest, ExpiresAt: expiresAt}
	return nil
}

func (m *memCodes) Find(ctx context.Context, email string) (*models.VerificationCode, error) {
	c, ok := m.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	return c, nil
}

func (m *memCodes) Delete(ctx context.Context, email string) error {
	delete(m.byEmail, email)
	return nil
}

// ---- repo manager ----

type fakeRepoManager struct {
	u *memUsers
	c *memCodes
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository { return m.u }

func (m *fakeRepoManager) VerificationCodes(dbx.DBTX) verificationcodes.Repository { return m.c }

// ---- logger that remembers what it was given ----

type recordingLogger struct {
	mu    sync.Mutex
	lines []string
}

func (r *recordingLogger) record(msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sb strings.Builder
	sb.WriteString(msg)
	for _, a := range args {
		sb.WriteString(" ")
		if err, ok := a.(error); ok {
			sb.WriteString(err.Error())
			continue
		}
		if s, ok := a.(string); ok {
			sb.WriteString(s)
		}
	}
	r.lines = append(r.lines, sb.String())
}

func (r *recordingLogger) Debug(_ context.Context, msg string, args ...any) { r.record(msg, args) }
func (r *recordingLogger) Info(_ context.Context, msg string, args ...any)  { r.record(msg, args) }
func (r *recordingLogger) Warn(_ context.Context, msg string, args ...any)  { r.record(msg, args) }
func (r *recordingLogger) Error(_ context.Context, msg string, args ...any) { r.record(msg, args) }
func (r *recordingLogger) With(...any) logging.Logger                       { return r }

func (r *recordingLogger) all() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.lines, "\n")
}

// ---- fixture ----

type fixture struct {
	store *Store
	users *memUsers
	codes *memCodes
	log   *recordingLogger
	now   time.Time
	scope *dbx.Scope
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()

	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{
		users: newMemUsers(),
		codes: &memCodes{byEmail: map[string]*models.VerificationCode{}},
		log:   &recordingLogger{},
		now:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return f.now }
	}

	f.store, err = NewStore(db, &fakeRepoManager{u: f.users, c: f.codes}, auth.NewBcryptHasher(bcrypt.MinCost), f.log, opts)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	f.scope = f.store.NewScope()
	return f
}

// seed creates a user through the store and returns its id.
func (f *fixture) seed(t *testing.T, email, password string) string {
	t.Helper()
	res := f.store.CreateUser(context.Background(), f.scope, &models.User{Email: email}, password)
	if !res.Success {
		t.Fatalf("seed %s: %+v", email, res)
	}
	return res.Data.ID
}
