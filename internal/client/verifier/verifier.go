// Package verifier lets a downstream service authenticate access tokens
// without a round trip to the issuer on every request.
//
// A successful remote validation is cached under claims:<token> for at most
// the configured window and never past the token's expiry. A token revoked
// by logout or superseded by a newer login can therefore still pass here for
// up to one window after revocation; callers that cannot accept that delay
// should use the issuer's Validate directly.
package verifier

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/sessioncache"
)

// Remote is the issuer's gateway, usually *sessionclient.Client.
type Remote interface {
	Validate(ctx context.Context, token string) (common.Identity, error)
}

type Verifier struct {
	remote Remote
	cache  *sessioncache.Store
	window time.Duration
	logger logging.Logger
}

func New(remote Remote, cache *sessioncache.Store, window time.Duration, logger logging.Logger) *Verifier {
	return &Verifier{
		remote: remote,
		cache:  cache,
		window: window,
		logger: logger.With("module", "verifier"),
	}
}

// Verify returns the identity for token, from the claims cache when present
// and from the issuer otherwise. Denials are never cached.
func (v *Verifier) Verify(ctx context.Context, token string) (*common.Identity, error) {
	if token == "" {
		return nil, common.ErrInvalidToken
	}

	id, err := v.cache.CachedClaims(ctx, token)
	switch {
	case err == nil:
		return id, nil
	case !errors.Is(err, common.ErrorNotFound):
		v.logger.Warn(ctx, "claims cache read failed", "error", err)
	}

	remote, err := v.remote.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := v.cache.CacheClaims(ctx, token, remote, v.window); err != nil {
		v.logger.Warn(ctx, "claims cache write failed", "error", err)
	}
	return &remote, nil
}
