// Package sessioncache is the ephemeral half of session state. It keeps three
// key namespaces in one shared key-value cache:
//
//	namespace   key                 value                 TTL
//	pointer     session:<userID>    current access token  token exp - now
//	blacklist   blacklist:<token>   "1"                   token exp - now, skipped when <= 0
//	claims      claims:<token>      JSON common.Identity  min(window, token exp - now)
//
// Every TTL is derived here from a token expiry, never passed in by callers,
// so a blacklist entry can neither outlive its token nor lapse before it.
// All operations touch a single key.
package sessioncache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
)

const (
	PointerPrefix   = "session:"
	BlacklistPrefix = "blacklist:"
	ClaimsPrefix    = "claims:"

	blacklistMarker = "1"
)

func PointerKey(userID string) string  { return PointerPrefix + userID }
func BlacklistKey(token string) string { return BlacklistPrefix + token }
func ClaimsKey(token string) string    { return ClaimsPrefix + token }

// KV is the single-key cache primitive the store is built on.
// Get returns common.ErrorNotFound for a missing or expired key.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Store exposes the three namespaces over a KV.
type Store struct {
	kv  KV
	now func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now when TTLs are derived from expiries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(kv KV, opts ...Option) *Store {
	s := &Store{kv: kv, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetPointer makes token the only live access token of userID until
// expiresAt. An already expired token is refused.
func (s *Store) SetPointer(ctx context.Context, userID, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("%w: pointer token already expired", common.ErrorValidation)
	}
	return s.kv.Set(ctx, PointerKey(userID), token, ttl)
}

// Pointer returns the live access token of userID, or common.ErrorNotFound.
func (s *Store) Pointer(ctx context.Context, userID string) (string, error) {
	return s.kv.Get(ctx, PointerKey(userID))
}

func (s *Store) ClearPointer(ctx context.Context, userID string) error {
	return s.kv.Del(ctx, PointerKey(userID))
}

// Blacklist marks token revoked until expiresAt. Nothing is written for a
// token that has already expired.
func (s *Store) Blacklist(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	return s.kv.Set(ctx, BlacklistKey(token), blacklistMarker, ttl)
}

func (s *Store) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	return s.kv.Exists(ctx, BlacklistKey(token))
}

// CacheClaims stores a validated identity for at most window, and never
// past the token's own expiry.
func (s *Store) CacheClaims(ctx context.Context, token string, id common.Identity, window time.Duration) error {
	ttl := window
	if remaining := id.ExpiresAt.Sub(s.now()); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return nil
	}

	b, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, ClaimsKey(token), string(b), ttl)
}

// CachedClaims returns the cached identity for token, or common.ErrorNotFound.
// An undecodable entry is treated as missing.
func (s *Store) CachedClaims(ctx context.Context, token string) (*common.Identity, error) {
	raw, err := s.kv.Get(ctx, ClaimsKey(token))
	if err != nil {
		return nil, err
	}

	id := &common.Identity{}
	if err := json.Unmarshal([]byte(raw), id); err != nil {
		return nil, errors.Join(common.ErrorNotFound, err)
	}
	return id, nil
}
