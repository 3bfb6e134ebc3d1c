// Package server wires the auth service together: storage, token issuer,
// orchestrator, mail delivery and the gRPC and HTTP transports. It also
// handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/VentixeAssignment/authservice/internal/logging"
	"github.com/VentixeAssignment/authservice/internal/server/accounts"
	"github.com/VentixeAssignment/authservice/internal/server/auth"
	"github.com/VentixeAssignment/authservice/internal/server/config"
	"github.com/VentixeAssignment/authservice/internal/server/httpapi"
	"github.com/VentixeAssignment/authservice/internal/server/mailer"
	"github.com/VentixeAssignment/authservice/internal/server/repositories/repomanager"
	"github.com/VentixeAssignment/authservice/internal/server/services"
	"github.com/VentixeAssignment/authservice/internal/telemetry"

	gs "github.com/VentixeAssignment/authservice/internal/server/grpc"
)

const serviceName = "authservice"

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	authService *services.AuthService
	closers     []io.Closer
	shutdown    func(context.Context) error
}

// NewApp opens the database, applies migrations and builds the service.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(c.LogBackend, c.LogLevel, os.Stdout)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	shutdown, err := telemetry.Setup(ctx, serviceName, c.OTLPEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telemetry init error: %w", err)
	}

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		_ = shutdown(ctx)
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, shutdown: shutdown}
	app.authService, err = app.newAuthService(repos)
	if err != nil {
		app.close(ctx)
		return nil, err
	}
	return app, nil
}

func (app *App) newAuthService(repos repomanager.RepositoryManager) (*services.AuthService, error) {
	c := app.config

	hasher, err := auth.NewHasher(c.Hasher, c.BcryptCost)
	if err != nil {
		return nil, err
	}

	issuer, err := auth.NewTokenIssuer([]byte(c.JWTKey), c.Issuer, c.Audiences)
	if err != nil {
		return nil, err
	}

	store, err := accounts.NewStore(app.db, repos, hasher, app.logger, accounts.Options{
		ExposeErrors: c.ExposeErrors,
		CodeLifetime: c.CodeLifetime,
	})
	if err != nil {
		return nil, err
	}

	sender, err := app.newCodeSender()
	if err != nil {
		return nil, err
	}

	return services.NewAuthService(store, issuer, sender, app.logger), nil
}

// newCodeSender delivers over SMTP when a host is configured, otherwise
// appends messages to the outbox file. Without either, codes are dropped.
func (app *App) newCodeSender() (services.CodeSender, error) {
	c := app.config
	if c.SMTPHost != "" {
		s, err := mailer.NewSMTPSender(mailer.Config{
			Host:     c.SMTPHost,
			Port:     c.SMTPPort,
			Username: c.SMTPUsername,
			Password: c.SMTPPassword,
			From:     c.MailFrom,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	if c.MailOutbox == "" {
		app.logger.Warn(context.Background(), "no mail transport configured, verification mail is discarded")
		return mailer.NewOutboxSender(c.MailFrom, io.Discard), nil
	}

	f, err := os.OpenFile(c.MailOutbox, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open mail outbox: %w", err)
	}
	app.closers = append(app.closers, f)
	app.logger.Info(context.Background(), "writing verification mail to outbox", "path", c.MailOutbox)
	return mailer.NewOutboxSender(c.MailFrom, f), nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddress, app.logger, app.authService, app.config.RequireToken)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.HTTPAddress, app.logger, app.authService, httpapi.Options{
		RequireToken:   app.config.RequireToken,
		AllowedOrigins: app.config.AllowedOrigins,
	})
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

// Run serves both transports until ctx is done, a signal arrives or either
// server fails, then releases resources.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	if app.config.GRPCAddress != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	if app.config.HTTPAddress != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHTTPServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.close(context.Background())
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) close(ctx context.Context) {
	var errs []error
	for _, c := range app.closers {
		errs = append(errs, c.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if app.shutdown != nil {
		errs = append(errs, app.shutdown(ctx))
	}
	if err := errors.Join(errs...); err != nil {
		app.logger.Error(ctx, "shutdown", "error", err)
	}
}
