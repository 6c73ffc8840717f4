package sessionrpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Status messages that carry more than the code alone.
const (
	msgTokenExpired        = "token expired"
	msgRefreshTokenExpired = "refresh token expired"
	msgInvalidToken        = "invalid token"
	msgUnauthorized        = "unauthorized"
)

// StatusFromError converts a service error into a gRPC status error. Details
// of internal and backend failures are not sent to the caller.
func StatusFromError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, msgTokenExpired)
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, msgRefreshTokenExpired)
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, msgInvalidToken)
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, msgUnauthorized)
	case errors.Is(err, common.ErrorConflict):
		return status.Error(codes.AlreadyExists, "user already exists")
	case errors.Is(err, common.ErrorValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorUnavailable),
		errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.Unavailable, "service unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

// ErrorFromStatus maps a gRPC error back onto the common sentinels, so that
// callers on both sides of the wire can use errors.Is the same way.
func ErrorFromStatus(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %w", common.ErrorUnavailable, err)
	}

	switch st.Code() {
	case codes.Unauthenticated:
		switch st.Message() {
		case msgTokenExpired:
			return fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		case msgRefreshTokenExpired:
			return fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrRefreshTokenExpired)
		case msgInvalidToken:
			return common.ErrInvalidToken
		}
		return common.ErrorUnauthorized
	case codes.AlreadyExists:
		return common.ErrorConflict
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrorValidation, st.Message())
	case codes.NotFound:
		return common.ErrorNotFound
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return fmt.Errorf("%w: %s", common.ErrorUnavailable, st.Message())
	default:
		return fmt.Errorf("%w: %s", common.ErrorInternal, st.Message())
	}
}
