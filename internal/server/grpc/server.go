package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/VentixeAssignment/authservice/internal/logging"
	"github.com/VentixeAssignment/authservice/internal/server/services"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type GRPCServer struct {
	address      string
	svc          services.Orchestrator
	handler      *AuthHandler
	logger       logging.Logger
	requireToken bool
}

// NewGRPCServer builds the RPC transport. With requireToken set, account
// mutations need an "authorization: Bearer <token>" metadata entry.
func NewGRPCServer(a string, l logging.Logger, svc services.Orchestrator, requireToken bool) *GRPCServer {
	return &GRPCServer{
		address:      a,
		svc:          svc,
		handler:      NewAuthHandler(svc),
		logger:       l.With("module", "grpc_server"),
		requireToken: requireToken,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	return grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor, s.loggingInterceptor),
	)
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()
	RegisterAuthHandlerServer(srv, s.handler)

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(srv, healthSrv)
	healthSrv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		healthSrv.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
