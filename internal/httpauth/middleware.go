// Package httpauth holds net/http middleware that authenticates bearer access
// tokens and enforces roles. It works with the issuer's own gateway as well
// as with a downstream verifier.
package httpauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
)

// Validator turns a token into an identity or an error matching the common
// sentinels.
type Validator interface {
	Validate(ctx context.Context, token string) (*common.Identity, error)
}

// ValidatorFunc adapts a function, e.g. (*verifier.Verifier).Verify.
type ValidatorFunc func(ctx context.Context, token string) (*common.Identity, error)

func (f ValidatorFunc) Validate(ctx context.Context, token string) (*common.Identity, error) {
	return f(ctx, token)
}

type BlacklistChecker interface {
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

type ctxKey string

const (
	identityKey ctxKey = "identity"
	tokenKey    ctxKey = "token"
)

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get(common.AuthorizationHeader)
	if len(h) <= len(common.BearerPrefix) || !strings.EqualFold(h[:len(common.BearerPrefix)], common.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(common.BearerPrefix):])
	return token, token != ""
}

// WithIdentity stores an authenticated identity and its token in ctx.
func WithIdentity(ctx context.Context, id *common.Identity, token string) context.Context {
	ctx = context.WithValue(ctx, identityKey, id)
	return context.WithValue(ctx, tokenKey, token)
}

func IdentityFromContext(ctx context.Context) (*common.Identity, bool) {
	id, ok := ctx.Value(identityKey).(*common.Identity)
	return id, ok && id != nil
}

// TokenFromContext returns the token Authenticate accepted.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok && t != ""
}

// Authenticate requires a bearer token the validator accepts. Failures are
// answered with 401, or 503 when the validator could not reach its backend.
func Authenticate(v Validator, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			id, err := v.Validate(r.Context(), token)
			if err != nil {
				switch {
				case errors.Is(err, common.ErrorUnavailable):
					logger.Error(r.Context(), "token validation unavailable", "error", err)
					WriteError(w, http.StatusServiceUnavailable, "authentication unavailable")
				case errors.Is(err, common.ErrTokenExpired):
					WriteError(w, http.StatusUnauthorized, "token expired")
				default:
					WriteError(w, http.StatusUnauthorized, "invalid or revoked token")
				}
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id, token)))
		})
	}
}

// RejectBlacklisted answers 401 for a bearer token revoked by logout and
// lets everything else through, including requests without a token.
func RejectBlacklisted(c BlacklistChecker, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			revoked, err := c.IsBlacklisted(r.Context(), token)
			if err != nil {
				logger.Error(r.Context(), "blacklist check failed", "error", err)
				WriteError(w, http.StatusServiceUnavailable, "authentication unavailable")
				return
			}
			if revoked {
				WriteError(w, http.StatusUnauthorized, "token has been revoked")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole must run after Authenticate. It answers 403 unless the
// identity holds one of roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !slices.Contains(roles, id.Role) {
				WriteError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"message": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"message": msg})
}
