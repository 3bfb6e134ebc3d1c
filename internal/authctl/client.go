package authctl

import (
	"context"
	"fmt"

	"github.com/VentixeAssignment/authservice/internal/common"
	gs "github.com/VentixeAssignment/authservice/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// Reply is a decoded response envelope.
type Reply struct {
	Success    bool
	StatusCode int
	Message    string
	Fields     map[string]any
}

// Caller invokes one AuthHandler method.
type Caller interface {
	Call(ctx context.Context, method string, req map[string]any) (*Reply, error)
}

// GRPCClient calls the auth service over gRPC, attaching a bearer token to
// every call when one is set.
type GRPCClient struct {
	conn  *grpc.ClientConn
	token string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if c.token != "" {
		ctx = withAccessToken(ctx, c.token)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient connects lazily to addr without transport security.
func NewGRPCClient(addr, token string, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{token: token}
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	c.conn = conn
	return c, nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

func (c *GRPCClient) Call(ctx context.Context, method string, req map[string]any) (*Reply, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, gs.FullMethod(method), in, out); err != nil {
		return nil, err
	}

	fields := out.AsMap()
	r := &Reply{Fields: fields}
	r.Success, _ = fields["success"].(bool)
	r.Message, _ = fields["message"].(string)
	if code, ok := fields["statusCode"].(float64); ok {
		r.StatusCode = int(code)
	}
	return r, nil
}
