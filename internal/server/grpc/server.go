package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/sessionrpc"
	"google.golang.org/grpc"
)

// SessionManager is the write side the server exposes.
type SessionManager interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID, accessToken string) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// TokenValidator is the read side the server exposes.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (*common.Identity, error)
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

type GRPCServer struct {
	address   string
	sessions  SessionManager
	validator TokenValidator
	logger    logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, sessions SessionManager, validator TokenValidator) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		sessions:  sessions,
		validator: validator,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))

	sessionrpc.RegisterSessionServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
