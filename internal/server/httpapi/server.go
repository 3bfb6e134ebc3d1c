// Package httpapi exposes the auth orchestrator over HTTP/JSON.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/VentixeAssignment/authservice/internal/logging"
	"github.com/VentixeAssignment/authservice/internal/server/services"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

type Options struct {
	// RequireToken protects account mutations with a bearer token.
	RequireToken bool
	// AllowedOrigins enables CORS for the listed origins.
	AllowedOrigins []string
}

type Server struct {
	address string
	svc     services.Orchestrator
	logger  logging.Logger
	opts    Options
}

func NewServer(a string, l logging.Logger, svc services.Orchestrator, opts Options) *Server {
	return &Server{
		address: a,
		svc:     svc,
		logger:  l.With("module", "http_server"),
		opts:    opts,
	}
}

// Handler returns the routed and instrumented handler.
func (s *Server) Handler() http.Handler {
	h := &handlers{svc: s.svc, dec: newDecoder()}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors(s.opts.AllowedOrigins))
	}

	r.Get("/healthz", health)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/signin", h.signIn)
		r.Post("/signout", h.signOut)
		r.Post("/validate", h.validateToken)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/exists", h.userExists)
		r.Post("/verification-code", h.sendVerificationCode)
		r.Post("/verify-email", h.verifyEmail)

		r.Group(func(r chi.Router) {
			if s.opts.RequireToken {
				r.Use(s.requireAccessToken)
			}
			r.Put("/{id}", h.updateUser)
			r.Put("/{id}/password", h.changePassword)
			r.Put("/{id}/active", h.changeActive)
			r.Delete("/{id}", h.deleteUser)
			r.Get("/{id}/email", h.getUserEmail)
		})
	})

	return otelhttp.NewHandler(r, "authservice.http")
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "http shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	return nil
}
