package grpc

import (
	"context"
	"time"

	"github.com/VentixeAssignment/authservice/internal/common"
	"github.com/VentixeAssignment/authservice/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// protectedMethods need a valid bearer token when the server requires one.
var protectedMethods = map[string]bool{
	FullMethod("UpdateUser"):     true,
	FullMethod("ChangePassword"): true,
	FullMethod("ChangeActive"):   true,
	FullMethod("DeleteUser"):     true,
	FullMethod("GetUserEmail"):   true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !s.requireToken || !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AuthorizationHeaderName); len(values) > 0 {
			accessToken = auth.BearerToken(values[0])
		}
	}
	if accessToken == "" {
		s.logger.Warn(ctx, "rpc rejected", "method", info.FullMethod, "reason", "missing token")
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	res := s.svc.ValidateToken(ctx, accessToken)
	if !res.Success || res.Data == nil {
		s.logger.Warn(ctx, "rpc rejected", "method", info.FullMethod, "reason", "invalid token")
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return handler(auth.WithSubject(ctx, res.Data.ID), req)
}

// loggingInterceptor logs one line per call. It runs inside
// accessTokenInterceptor so the caller id is known. Request bodies carry
// passwords and are never logged.
func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	args := []any{
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration_ms", time.Since(start).Milliseconds(),
	}
	if env, ok := resp.(*structpb.Struct); ok && env != nil {
		args = append(args, "status", int(env.GetFields()["statusCode"].GetNumberValue()))
	}
	if id, ok := auth.SubjectFrom(ctx); ok {
		args = append(args, "caller", id)
	}

	if err != nil {
		s.logger.Warn(ctx, "rpc failed", args...)
	} else {
		s.logger.Info(ctx, "rpc", args...)
	}
	return resp, err
}
