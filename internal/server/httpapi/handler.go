package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/httpauth"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
)

// SessionManager is the write side used by the auth routes.
type SessionManager interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, userID, accessToken string) error
}

// TokenValidator is the read side used by the validate route and the
// authentication middleware.
type TokenValidator interface {
	httpauth.Validator
	httpauth.BlacklistChecker
}

type AuthHandler struct {
	sessions  SessionManager
	validator TokenValidator
	logger    logging.Logger
}

func NewAuthHandler(sessions SessionManager, validator TokenValidator, logger logging.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, validator: validator, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type logoutRequest struct {
	UserID string `json:"userId"`
	Token  string `json:"token"`
}

type tokenResponse struct {
	UserID                string    `json:"userId"`
	AccessToken           string    `json:"accessToken"`
	AccessTokenExpiresAt  time.Time `json:"accessTokenExpiresAt"`
	RefreshToken          string    `json:"refreshToken"`
	RefreshTokenExpiresAt time.Time `json:"refreshTokenExpiresAt"`
}

type identityResponse struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func newTokenResponse(p *services.TokenPair) tokenResponse {
	return tokenResponse{
		UserID:                p.UserID,
		AccessToken:           p.AccessToken,
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt,
		RefreshToken:          p.RefreshToken,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpauth.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.sessions.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorConflict):
			httpauth.WriteError(w, http.StatusConflict, "username already exists")
		default:
			h.writeServiceError(w, r, err)
		}
		return
	}

	httpauth.WriteJSON(w, http.StatusCreated, map[string]string{"userId": u.ID})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpauth.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := h.sessions.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			httpauth.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	httpauth.WriteJSON(w, http.StatusOK, newTokenResponse(pair))
}

// Refresh accepts either a bare JSON string or {"refreshToken": "..."}.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := decodeRefreshToken(r)
	if err != nil {
		httpauth.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	pair, err := h.sessions.RefreshToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			httpauth.WriteError(w, http.StatusUnauthorized, "invalid or expired refresh token")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	httpauth.WriteJSON(w, http.StatusOK, newTokenResponse(pair))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpauth.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.sessions.Logout(r.Context(), req.UserID, req.Token); err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			httpauth.WriteError(w, http.StatusUnauthorized, "logout failed")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	httpauth.WriteError(w, http.StatusOK, "successfully logged out")
}

func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	token, ok := httpauth.BearerToken(r)
	if !ok {
		httpauth.WriteError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}

	id, err := h.validator.Validate(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			httpauth.WriteError(w, http.StatusUnauthorized, "token expired")
		case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
			httpauth.WriteError(w, http.StatusUnauthorized, "invalid or revoked token")
		default:
			h.writeServiceError(w, r, err)
		}
		return
	}

	httpauth.WriteJSON(w, http.StatusOK, identityResponse{
		UserID:    id.UserID,
		Username:  id.Username,
		Role:      id.Role,
		ExpiresAt: id.ExpiresAt,
	})
}

func (h *AuthHandler) IsBlacklisted(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httpauth.WriteError(w, http.StatusBadRequest, "token query parameter is required")
		return
	}

	revoked, err := h.validator.IsBlacklisted(r.Context(), token)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	httpauth.WriteJSON(w, http.StatusOK, map[string]bool{"blacklisted": revoked})
}

// Profile answers from the authenticated identity alone.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	id, ok := httpauth.IdentityFromContext(r.Context())
	if !ok {
		httpauth.WriteError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	httpauth.WriteJSON(w, http.StatusOK, map[string]string{
		"userId":   id.UserID,
		"username": id.Username,
		"role":     id.Role,
	})
}

func (h *AuthHandler) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	httpauth.WriteError(w, http.StatusOK, "admin dashboard access granted")
}

func (h *AuthHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		httpauth.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorUnavailable):
		h.logger.Error(r.Context(), "backend unavailable", "error", err)
		httpauth.WriteError(w, http.StatusServiceUnavailable, "service unavailable")
	default:
		h.logger.Error(r.Context(), "request failed", "error", err)
		httpauth.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeRefreshToken(r *http.Request) (string, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return "", err
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var token string
		err := json.Unmarshal(raw, &token)
		return token, err
	}

	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	err := json.Unmarshal(raw, &body)
	return body.RefreshToken, err
}
