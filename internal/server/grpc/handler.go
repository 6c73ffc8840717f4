package grpc

import (
	"context"

	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/sessionrpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	c := sessionrpc.CredentialsFromStruct(req)
	s.logger.Info(ctx, "Registration request", "username", c.Username)

	u, err := s.sessions.Register(ctx, c.Username, c.Password)
	if err != nil {
		return nil, sessionrpc.StatusFromError(err)
	}

	s.logger.Info(ctx, "Registered", "user_id", u.ID)
	return sessionrpc.User{UserID: u.ID, Username: u.UserName, Role: u.Role}.ToStruct(), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {

	c := sessionrpc.CredentialsFromStruct(req)

	pair, err := s.sessions.Login(ctx, c.Username, c.Password)
	if err != nil {
		return nil, sessionrpc.StatusFromError(err)
	}

	return tokenPairToStruct(pair), nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	pair, err := s.sessions.RefreshToken(ctx, req.GetValue())
	if err != nil {
		return nil, sessionrpc.StatusFromError(err)
	}

	return tokenPairToStruct(pair), nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {

	r := sessionrpc.LogoutRequestFromStruct(req)

	if err := s.sessions.Logout(ctx, r.UserID, r.AccessToken); err != nil {
		return nil, sessionrpc.StatusFromError(err)
	}

	return &emptypb.Empty{}, nil
}

func (s *GRPCServer) Validate(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {

	id, err := s.validator.Validate(ctx, req.GetValue())
	if err != nil {
		return nil, sessionrpc.StatusFromError(err)
	}

	return sessionrpc.IdentityToStruct(*id), nil
}

func (s *GRPCServer) IsBlacklisted(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {

	revoked, err := s.validator.IsBlacklisted(ctx, req.GetValue())
	if err != nil {
		return nil, sessionrpc.StatusFromError(err)
	}

	return wrapperspb.Bool(revoked), nil
}

func (s *GRPCServer) Profile(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	id, ok := identityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing identity")
	}

	u, err := s.sessions.GetUser(ctx, id.UserID)
	if err != nil {
		return nil, sessionrpc.StatusFromError(err)
	}

	return sessionrpc.User{UserID: u.ID, Username: u.UserName, Role: u.Role}.ToStruct(), nil
}

func tokenPairToStruct(p *services.TokenPair) *structpb.Struct {
	return sessionrpc.TokenPair{
		UserID:                p.UserID,
		AccessToken:           p.AccessToken,
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt,
		RefreshToken:          p.RefreshToken,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt,
	}.ToStruct()
}
