package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the auth RPC service.
const ServiceName = "authservice.v1.AuthHandler"

// FullMethod returns the wire name of method, e.g. "/authservice.v1.AuthHandler/SignIn".
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// AuthHandlerServer is the method set of the auth RPC service. Requests and
// replies are protobuf Structs; every reply carries success, statusCode and
// message.
type AuthHandlerServer interface {
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SignOut(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangePassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ChangeActive(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *structpb.Struct) (*structpb.Struct, error)
	VerifyEmail(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SendVerificationCode(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UserExists(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetUserEmail(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(AuthHandlerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AuthHandlerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AuthHandlerServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// AuthHandlerServiceDesc describes the service to grpc-go.
var AuthHandlerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthHandlerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("SignIn", AuthHandlerServer.SignIn),
		unary("SignOut", AuthHandlerServer.SignOut),
		unary("CreateUser", AuthHandlerServer.CreateUser),
		unary("UpdateUser", AuthHandlerServer.UpdateUser),
		unary("ChangePassword", AuthHandlerServer.ChangePassword),
		unary("ChangeActive", AuthHandlerServer.ChangeActive),
		unary("DeleteUser", AuthHandlerServer.DeleteUser),
		unary("VerifyEmail", AuthHandlerServer.VerifyEmail),
		unary("SendVerificationCode", AuthHandlerServer.SendVerificationCode),
		unary("UserExists", AuthHandlerServer.UserExists),
		unary("GetUserEmail", AuthHandlerServer.GetUserEmail),
		unary("ValidateToken", AuthHandlerServer.ValidateToken),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "authservice/v1/auth.proto",
}

// RegisterAuthHandlerServer registers srv on s.
func RegisterAuthHandlerServer(s grpc.ServiceRegistrar, srv AuthHandlerServer) {
	s.RegisterService(&AuthHandlerServiceDesc, srv)
}
