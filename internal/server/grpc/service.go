package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "classroom.tokens.v1.AccessTokenService"

const (
	methodIssueAccessToken  = "/" + ServiceName + "/IssueAccessToken"
	methodListAccessTokens  = "/" + ServiceName + "/ListAccessTokens"
	methodRevokeAccessToken = "/" + ServiceName + "/RevokeAccessToken"
	methodWhoAmI            = "/" + ServiceName + "/WhoAmI"
	methodSignIn            = "/" + ServiceName + "/SignIn"
)

// AccessTokenServiceServer is the server API. Messages are protobuf
// well-known types so no generated code is needed.
type AccessTokenServiceServer interface {
	IssueAccessToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListAccessTokens(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	RevokeAccessToken(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// UnimplementedAccessTokenServiceServer can be embedded for forward compatibility.
type UnimplementedAccessTokenServiceServer struct{}

func (UnimplementedAccessTokenServiceServer) IssueAccessToken(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method IssueAccessToken not implemented")
}
func (UnimplementedAccessTokenServiceServer) ListAccessTokens(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method ListAccessTokens not implemented")
}
func (UnimplementedAccessTokenServiceServer) RevokeAccessToken(context.Context, *structpb.Struct) (*emptypb.Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method RevokeAccessToken not implemented")
}
func (UnimplementedAccessTokenServiceServer) WhoAmI(context.Context, *emptypb.Empty) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method WhoAmI not implemented")
}
func (UnimplementedAccessTokenServiceServer) SignIn(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method SignIn not implemented")
}

// RegisterAccessTokenServiceServer registers srv on s.
func RegisterAccessTokenServiceServer(s grpc.ServiceRegistrar, srv AccessTokenServiceServer) {
	s.RegisterService(&accessTokenServiceDesc, srv)
}

func issueAccessTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccessTokenServiceServer).IssueAccessToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodIssueAccessToken}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccessTokenServiceServer).IssueAccessToken(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listAccessTokensHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccessTokenServiceServer).ListAccessTokens(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListAccessTokens}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccessTokenServiceServer).ListAccessTokens(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func revokeAccessTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccessTokenServiceServer).RevokeAccessToken(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRevokeAccessToken}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccessTokenServiceServer).RevokeAccessToken(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func whoAmIHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccessTokenServiceServer).WhoAmI(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodWhoAmI}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccessTokenServiceServer).WhoAmI(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func signInHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AccessTokenServiceServer).SignIn(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodSignIn}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(AccessTokenServiceServer).SignIn(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

var accessTokenServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccessTokenServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IssueAccessToken", Handler: issueAccessTokenHandler},
		{MethodName: "ListAccessTokens", Handler: listAccessTokensHandler},
		{MethodName: "RevokeAccessToken", Handler: revokeAccessTokenHandler},
		{MethodName: "WhoAmI", Handler: whoAmIHandler},
		{MethodName: "SignIn", Handler: signInHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "classroom/tokens/v1/access_tokens.proto",
}

// AccessTokenServiceClient is the client API for AccessTokenService.
type AccessTokenServiceClient interface {
	IssueAccessToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	ListAccessTokens(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	RevokeAccessToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error)
	WhoAmI(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error)
	SignIn(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type accessTokenServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewAccessTokenServiceClient(cc grpc.ClientConnInterface) AccessTokenServiceClient {
	return &accessTokenServiceClient{cc}
}

func (c *accessTokenServiceClient) IssueAccessToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodIssueAccessToken, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accessTokenServiceClient) ListAccessTokens(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodListAccessTokens, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accessTokenServiceClient) RevokeAccessToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, methodRevokeAccessToken, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accessTokenServiceClient) WhoAmI(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodWhoAmI, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *accessTokenServiceClient) SignIn(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodSignIn, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
