package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/sessionrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

const identityKey ctxKey = "identity"

// protectedMethods require a live access token in the access_token metadata key.
var protectedMethods = map[string]bool{
	sessionrpc.MethodProfile: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if protectedMethods[info.FullMethod] {

		accessToken := accessTokenFromMetadata(ctx)
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		id, err := s.validator.Validate(ctx, accessToken)
		if err != nil {
			return nil, sessionrpc.StatusFromError(err)
		}

		ctx = context.WithValue(ctx, identityKey, id)

	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "duration", time.Since(start)}
	switch code {
	case codes.Internal, codes.Unavailable:
		s.logger.Error(ctx, "rpc failed", args...)
	default:
		s.logger.Debug(ctx, "rpc", args...)
	}
	return resp, err
}

func accessTokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.AccessTokenHeaderName)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func identityFromContext(ctx context.Context) (*common.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*common.Identity)
	return id, ok && id != nil
}
