package sessionrpc

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"google.golang.org/protobuf/types/known/structpb"
)

// Field names of the Struct payloads.
const (
	FieldUsername              = "username"
	FieldPassword              = "password"
	FieldUserID                = "user_id"
	FieldRole                  = "role"
	FieldAccessToken           = "access_token"
	FieldAccessTokenExpiresAt  = "access_token_expires_at"
	FieldRefreshToken          = "refresh_token"
	FieldRefreshTokenExpiresAt = "refresh_token_expires_at"
	FieldExpiresAt             = "expires_at"
)

type Credentials struct {
	Username string
	Password string
}

type User struct {
	UserID   string
	Username string
	Role     string
}

type TokenPair struct {
	UserID                string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type LogoutRequest struct {
	UserID      string
	AccessToken string
}

func (c Credentials) ToStruct() *structpb.Struct {
	return stringStruct(map[string]string{
		FieldUsername: c.Username,
		FieldPassword: c.Password,
	})
}

func CredentialsFromStruct(s *structpb.Struct) Credentials {
	return Credentials{
		Username: stringField(s, FieldUsername),
		Password: stringField(s, FieldPassword),
	}
}

func (u User) ToStruct() *structpb.Struct {
	return stringStruct(map[string]string{
		FieldUserID:   u.UserID,
		FieldUsername: u.Username,
		FieldRole:     u.Role,
	})
}

func UserFromStruct(s *structpb.Struct) User {
	return User{
		UserID:   stringField(s, FieldUserID),
		Username: stringField(s, FieldUsername),
		Role:     stringField(s, FieldRole),
	}
}

func (p TokenPair) ToStruct() *structpb.Struct {
	return stringStruct(map[string]string{
		FieldUserID:                p.UserID,
		FieldAccessToken:           p.AccessToken,
		FieldAccessTokenExpiresAt:  formatTime(p.AccessTokenExpiresAt),
		FieldRefreshToken:          p.RefreshToken,
		FieldRefreshTokenExpiresAt: formatTime(p.RefreshTokenExpiresAt),
	})
}

func TokenPairFromStruct(s *structpb.Struct) (TokenPair, error) {
	accessExp, err := timeField(s, FieldAccessTokenExpiresAt)
	if err != nil {
		return TokenPair{}, err
	}
	refreshExp, err := timeField(s, FieldRefreshTokenExpiresAt)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		UserID:                stringField(s, FieldUserID),
		AccessToken:           stringField(s, FieldAccessToken),
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          stringField(s, FieldRefreshToken),
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

func (r LogoutRequest) ToStruct() *structpb.Struct {
	return stringStruct(map[string]string{
		FieldUserID:      r.UserID,
		FieldAccessToken: r.AccessToken,
	})
}

func LogoutRequestFromStruct(s *structpb.Struct) LogoutRequest {
	return LogoutRequest{
		UserID:      stringField(s, FieldUserID),
		AccessToken: stringField(s, FieldAccessToken),
	}
}

func IdentityToStruct(id common.Identity) *structpb.Struct {
	return stringStruct(map[string]string{
		FieldUserID:    id.UserID,
		FieldUsername:  id.Username,
		FieldRole:      id.Role,
		FieldExpiresAt: formatTime(id.ExpiresAt),
	})
}

func IdentityFromStruct(s *structpb.Struct) (common.Identity, error) {
	exp, err := timeField(s, FieldExpiresAt)
	if err != nil {
		return common.Identity{}, err
	}
	return common.Identity{
		UserID:    stringField(s, FieldUserID),
		Username:  stringField(s, FieldUsername),
		Role:      stringField(s, FieldRole),
		ExpiresAt: exp,
	}, nil
}

func stringStruct(m map[string]string) *structpb.Struct {
	fields := make(map[string]*structpb.Value, len(m))
	for k, v := range m {
		fields[k] = structpb.NewStringValue(v)
	}
	return &structpb.Struct{Fields: fields}
}

// stringField returns "" for a missing or non-string field.
func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	return s.GetFields()[key].GetStringValue()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func timeField(s *structpb.Struct, key string) (time.Time, error) {
	raw := stringField(s, key)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s: %w", key, err)
	}
	return t, nil
}
