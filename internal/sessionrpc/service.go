// Package sessionrpc is the gRPC contract of the session service. Messages
// are protobuf well-known types, so the contract needs no generated code:
// structured payloads travel as google.protobuf.Struct, single values as
// wrappers and empty results as google.protobuf.Empty.
package sessionrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const ServiceName = "sessionkeeper.v1.SessionService"

// Full method names, as seen by interceptors.
const (
	MethodRegister      = "/" + ServiceName + "/Register"
	MethodLogin         = "/" + ServiceName + "/Login"
	MethodRefresh       = "/" + ServiceName + "/Refresh"
	MethodLogout        = "/" + ServiceName + "/Logout"
	MethodValidate      = "/" + ServiceName + "/Validate"
	MethodIsBlacklisted = "/" + ServiceName + "/IsBlacklisted"
	MethodProfile       = "/" + ServiceName + "/Profile"
)

// SessionServiceServer is implemented by the server side.
//
//	Register(Credentials) -> User
//	Login(Credentials) -> TokenPair
//	Refresh(refresh token) -> TokenPair
//	Logout(LogoutRequest) -> Empty
//	Validate(access token) -> Identity
//	IsBlacklisted(access token) -> bool
//	Profile() -> User, authenticated by the access_token metadata key
type SessionServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Refresh(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Validate(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	IsBlacklisted(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
	Profile(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// ServiceDesc describes SessionService for grpc.ServiceRegistrar.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: unaryHandler(MethodRegister, newStruct, SessionServiceServer.Register)},
		{MethodName: "Login", Handler: unaryHandler(MethodLogin, newStruct, SessionServiceServer.Login)},
		{MethodName: "Refresh", Handler: unaryHandler(MethodRefresh, newString, SessionServiceServer.Refresh)},
		{MethodName: "Logout", Handler: unaryHandler(MethodLogout, newStruct, SessionServiceServer.Logout)},
		{MethodName: "Validate", Handler: unaryHandler(MethodValidate, newString, SessionServiceServer.Validate)},
		{MethodName: "IsBlacklisted", Handler: unaryHandler(MethodIsBlacklisted, newString, SessionServiceServer.IsBlacklisted)},
		{MethodName: "Profile", Handler: unaryHandler(MethodProfile, newEmpty, SessionServiceServer.Profile)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "sessionkeeper/v1/session.proto",
}

func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func newStruct() *structpb.Struct        { return &structpb.Struct{} }
func newString() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }
func newEmpty() *emptypb.Empty           { return &emptypb.Empty{} }

// unaryHandler adapts a typed server method to grpc.MethodHandler, the same
// shape protoc-gen-go-grpc emits per method.
func unaryHandler[Req proto.Message, Resp proto.Message](
	fullMethod string,
	newReq func() Req,
	call func(SessionServiceServer, context.Context, Req) (Resp, error),
) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SessionServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SessionServiceServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// SessionServiceClient is the raw client of SessionService.
type SessionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionServiceClient(cc grpc.ClientConnInterface) *SessionServiceClient {
	return &SessionServiceClient{cc: cc}
}

func (c *SessionServiceClient) Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodRegister, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionServiceClient) Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodLogin, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionServiceClient) Refresh(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodRefresh, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionServiceClient) Logout(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodLogout, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionServiceClient) Validate(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodValidate, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionServiceClient) IsBlacklisted(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, MethodIsBlacklisted, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionServiceClient) Profile(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodProfile, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
