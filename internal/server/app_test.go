package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/logging"
	"github.com/VentixeAssignment/authservice/internal/server/config"
	"github.com/VentixeAssignment/authservice/internal/server/mailer"
	"github.com/VentixeAssignment/authservice/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.JWTKey = "test-signing-key"
	c.BcryptCost = 4
	return c
}

func newTestApp(t *testing.T, c *config.Config) *App {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &App{config: c, logger: logging.Nop{}, db: db}
}

func TestNewApp_RejectsInvalidConfig(t *testing.T) {
	c := testConfig()
	c.JWTKey = ""

	_, err := NewApp(context.Background(), c)
	assert.ErrorIs(t, err, common.ErrMissingSigningKey)
}

func TestNewAuthService(t *testing.T) {
	repos := repomanager.NewPostgresRepositoryManager()

	t.Run("ok", func(t *testing.T) {
		app := newTestApp(t, testConfig())
		svc, err := app.newAuthService(repos)
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})

	t.Run("missing signing key", func(t *testing.T) {
		c := testConfig()
		c.JWTKey = ""
		_, err := newTestApp(t, c).newAuthService(repos)
		assert.ErrorIs(t, err, common.ErrMissingSigningKey)
		assert.NotContains(t, err.Error(), "test-signing-key")
	})

	t.Run("unknown hasher", func(t *testing.T) {
		c := testConfig()
		c.Hasher = "md5"
		_, err := newTestApp(t, c).newAuthService(repos)
		assert.Error(t, err)
	})
}

func TestNewCodeSender(t *testing.T) {
	t.Run("smtp", func(t *testing.T) {
		c := testConfig()
		c.SMTPHost = "smtp.example.com"
		s, err := newTestApp(t, c).newCodeSender()
		require.NoError(t, err)
		assert.IsType(t, &mailer.SMTPSender{}, s)
	})

	t.Run("smtp misconfigured", func(t *testing.T) {
		c := testConfig()
		c.SMTPHost = "smtp.example.com"
		c.SMTPPort = 0
		s, err := newTestApp(t, c).newCodeSender()
		assert.Error(t, err)
		assert.Nil(t, s)
	})

	t.Run("outbox file", func(t *testing.T) {
		c := testConfig()
		c.MailOutbox = filepath.Join(t.TempDir(), "outbox.eml")
		app := newTestApp(t, c)

		s, err := app.newCodeSender()
		require.NoError(t, err)
		assert.IsType(t, &mailer.OutboxSender{}, s)
		require.Len(t, app.closers, 1)
		require.NoError(t, s.SendVerificationCode(context.Background(), "a@b.com", "123456", time.Now().Add(time.Minute)))
		assert.FileExists(t, c.MailOutbox)
		assert.NoError(t, app.closers[0].Close())
	})

	t.Run("outbox dir missing", func(t *testing.T) {
		c := testConfig()
		c.MailOutbox = filepath.Join(t.TempDir(), "missing", "outbox.eml")
		_, err := newTestApp(t, c).newCodeSender()
		assert.Error(t, err)
	})

	t.Run("discard", func(t *testing.T) {
		s, err := newTestApp(t, testConfig()).newCodeSender()
		require.NoError(t, err)
		assert.IsType(t, &mailer.OutboxSender{}, s)
	})
}

func TestRun_StopsWhenContextDone(t *testing.T) {
	c := testConfig()
	c.GRPCAddress = "127.0.0.1:0"
	c.HTTPAddress = "127.0.0.1:0"
	app := newTestApp(t, c)
	svc, err := app.newAuthService(repomanager.NewPostgresRepositoryManager())
	require.NoError(t, err)
	app.authService = svc

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(15 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestRun_StopsWhenListenFails(t *testing.T) {
	c := testConfig()
	c.GRPCAddress = "256.0.0.1:bad"
	c.HTTPAddress = "127.0.0.1:0"
	app := newTestApp(t, c)

	done := make(chan struct{})
	go func() {
		app.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(15 * time.Second):
		t.Fatal("a failing listener should stop the app")
	}
}
