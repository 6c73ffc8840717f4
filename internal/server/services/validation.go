package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/sessioncache"
)

// ValidationService answers "is this access token the live session of its
// subject". It reads only the token itself and the session cache, never the
// credential store.
type ValidationService struct {
	codec            *auth.Codec
	sessions         *sessioncache.Store
	operationTimeout time.Duration
	logger           logging.Logger
}

func NewValidationService(codec *auth.Codec, sessions *sessioncache.Store, operationTimeout time.Duration, logger logging.Logger) *ValidationService {
	return &ValidationService{
		codec:            codec,
		sessions:         sessions,
		operationTimeout: operationTimeout,
		logger:           logger,
	}
}

// Validate returns the identity carried by token. Checks run in order and
// the first failure wins: signature and registered claims, blacklist, then
// equality with the subject's current pointer. Cache errors deny with
// common.ErrorUnavailable.
func (v *ValidationService) Validate(ctx context.Context, token string) (*common.Identity, error) {
	claims, err := v.codec.Verify(token)
	if err != nil {
		return nil, err
	}

	ctx, cancel := v.withTimeout(ctx)
	defer cancel()

	revoked, err := v.sessions.IsBlacklisted(ctx, token)
	if err != nil {
		return nil, unavailable("validate", err)
	}
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", common.ErrorUnauthorized)
	}

	current, err := v.sessions.Pointer(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: no active session", common.ErrorUnauthorized)
		}
		return nil, unavailable("validate", err)
	}
	if subtle.ConstantTimeCompare([]byte(current), []byte(token)) != 1 {
		v.logger.Debug(ctx, "superseded token presented", "user_id", claims.Subject)
		return nil, fmt.Errorf("%w: session superseded", common.ErrorUnauthorized)
	}

	id := claims.Identity()
	return &id, nil
}

// IsBlacklisted reports whether token was revoked by Logout and has not yet
// expired.
func (v *ValidationService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	ctx, cancel := v.withTimeout(ctx)
	defer cancel()

	revoked, err := v.sessions.IsBlacklisted(ctx, token)
	if err != nil {
		return false, unavailable("blacklist check", err)
	}
	return revoked, nil
}

func (v *ValidationService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if v.operationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, v.operationTimeout)
}
