// Package services contains server-side business logic. This file implements
// UserService, the session manager: registration, login, refresh token
// rotation and logout over the credential store and the session cache.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/dbx"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/sessioncache"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// refreshTokenBytes is the entropy of an opaque refresh token.
const refreshTokenBytes = 32

// TokenPair is the result of Login and RefreshToken.
type TokenPair struct {
	UserID                string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// UserService provides the session lifecycle operations:
//   - Register: create users
//   - Login: verify credentials, mint tokens and make them the user's session
//   - RefreshToken: rotate the refresh token and replace the session
//   - Logout: revoke the current session
//   - GetUser: profile lookup
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	codec                        *auth.Codec
	sessions                     *sessioncache.Store
	refreshTokenValidityDuration time.Duration
	operationTimeout             time.Duration
	bcryptCost                   int
	logger                       logging.Logger
	now                          func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

// Option customizes a service at construction.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now for expiry decisions made by the service.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// NewUserService constructs a UserService using repositories, the token
// codec, the session cache and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, codec *auth.Codec, sessions *sessioncache.Store,
	cfg *config.Config, logger logging.Logger, opts ...Option) *UserService {
	o := buildOptions(opts)
	return &UserService{
		db:                           db,
		repomanager:                  m,
		codec:                        codec,
		sessions:                     sessions,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		operationTimeout:             cfg.OperationTimeout,
		bcryptCost:                   cfg.BcryptCost,
		logger:                       logger,
		now:                          o.now,
	}
}

// Register creates a user with the default role. Credentials breaking the
// account rules yield common.ErrorValidation; a taken username yields
// common.ErrorConflict.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if err := validateRegistration(username, password); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetUserByLogin(ctx, username)
	switch {
	case err == nil:
		return nil, common.ErrorConflict
	case !errors.Is(err, common.ErrorNotFound):
		return nil, unavailable("register", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	u, err := repo.Create(ctx, &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		PasswordHash: hash,
		Role:         common.RoleUser,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrorConflict
		}
		return nil, unavailable("register", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies the password and starts a new session, replacing any
// session the user already had.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	username = strings.TrimSpace(username)
	if err := validateLogin(username, password); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	user, err := s.repomanager.Users(s.db).GetUserByLogin(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			// keep timing close to the wrong-password path
			auth.CheckPassword(s.getDummyHash(), password)
			return nil, common.ErrorUnauthorized
		}
		return nil, unavailable("login", err)
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}

	pair, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}

	if err := s.repomanager.RefreshTokens(s.db).Upsert(ctx, user.ID, pair.RefreshToken, pair.RefreshTokenExpiresAt); err != nil {
		return nil, unavailable("login", err)
	}
	if err := s.sessions.SetPointer(ctx, user.ID, pair.AccessToken, pair.AccessTokenExpiresAt); err != nil {
		// the refresh row already belongs to the unissued pair, so the old
		// access token must not outlive it
		if cerr := s.sessions.ClearPointer(ctx, user.ID); cerr != nil {
			s.logger.Warn(ctx, "pointer cleanup failed", "user_id", user.ID, "error", cerr)
		}
		return nil, unavailable("login", err)
	}

	s.logger.Info(ctx, "session started", "user_id", user.ID)
	return pair, nil
}

// RefreshToken exchanges a live refresh token for a new pair. The presented
// token is single-use: the row is rotated with a compare-and-swap inside one
// transaction, so of two concurrent calls with the same token only one wins.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrorUnauthorized
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var pair *TokenPair
	expired := false

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		tokens := s.repomanager.RefreshTokens(tx)

		row, err := tokens.Find(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return unavailable("find refresh token", err)
		}
		if row.IsExpired(s.now()) {
			expired = true
			return fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrRefreshTokenExpired)
		}

		user, err := s.repomanager.Users(tx).GetUserByID(ctx, row.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return unavailable("load user", err)
		}

		pair, err = s.generateTokenPair(user)
		if err != nil {
			return err
		}

		if err := tokens.Rotate(ctx, user.ID, refreshToken, pair.RefreshToken, pair.RefreshTokenExpiresAt); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrorUnauthorized
			}
			return unavailable("rotate refresh token", err)
		}
		return nil
	})
	if err != nil {
		if expired {
			if delErr := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); delErr != nil {
				s.logger.Warn(ctx, "failed to delete expired refresh token", "error", delErr)
			}
		}
		return nil, classify("refresh", err)
	}

	if err := s.sessions.ClearPointer(ctx, pair.UserID); err != nil {
		return nil, unavailable("refresh", err)
	}
	if err := s.sessions.SetPointer(ctx, pair.UserID, pair.AccessToken, pair.AccessTokenExpiresAt); err != nil {
		return nil, unavailable("refresh", err)
	}

	s.logger.Debug(ctx, "session refreshed", "user_id", pair.UserID)
	return pair, nil
}

// Logout revokes accessToken if it is the user's current session. The token
// is blacklisted for the rest of its lifetime, and the pointer and refresh
// row are removed.
func (s *UserService) Logout(ctx context.Context, userID, accessToken string) error {
	if userID == "" || accessToken == "" {
		return common.ErrorUnauthorized
	}

	exp, err := s.codec.ExpiresAt(accessToken)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	current, err := s.sessions.Pointer(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUnauthorized
		}
		return unavailable("logout", err)
	}
	if subtle.ConstantTimeCompare([]byte(current), []byte(accessToken)) != 1 {
		return common.ErrorUnauthorized
	}

	if err := s.sessions.Blacklist(ctx, accessToken, exp); err != nil {
		return unavailable("logout", err)
	}
	if err := s.sessions.ClearPointer(ctx, userID); err != nil {
		return unavailable("logout", err)
	}
	if err := s.repomanager.RefreshTokens(s.db).DeleteByUser(ctx, userID); err != nil {
		return unavailable("logout", err)
	}

	s.logger.Info(ctx, "session ended", "user_id", userID)
	return nil
}

// GetUser returns the account with the given id or common.ErrorNotFound.
func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	u, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		return nil, classify("get user", err)
	}
	return u, nil
}

// --- helpers below ---

func (s *UserService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.operationTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.operationTimeout)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandBase64String(refreshTokenBytes)
}

func (s *UserService) generateTokenPair(user *models.User) (*TokenPair, error) {
	access, claims, err := s.codec.Issue(user.ID, user.UserName, user.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: sign access token: %v", common.ErrorInternal, err)
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("%w: generate refresh token: %v", common.ErrorInternal, err)
	}
	return &TokenPair{
		UserID:                user.ID,
		AccessToken:           access,
		AccessTokenExpiresAt:  claims.ExpiresAt.Time,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: s.now().Add(s.refreshTokenValidityDuration),
	}, nil
}

func (s *UserService) getDummyHash() string {
	s.dummyOnce.Do(func() {
		h, err := auth.HashPassword(uuid.NewString(), s.bcryptCost)
		if err != nil {
			s.logger.Error(context.Background(), "failed to build dummy hash", "error", err)
		}
		s.dummyHash = h
	})
	return s.dummyHash
}

// unavailable marks err as a store or cache failure.
func unavailable(op string, err error) error {
	if errors.Is(err, common.ErrorUnavailable) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrorUnavailable, err)
}

// classify passes domain errors through and treats anything else as a
// backend failure.
func classify(op string, err error) error {
	for _, known := range []error{
		common.ErrorUnauthorized,
		common.ErrorConflict,
		common.ErrorValidation,
		common.ErrorNotFound,
		common.ErrorInternal,
		common.ErrorUnavailable,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	return unavailable(op, err)
}
