package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// AuthorizationHeader and BearerPrefix describe the HTTP form of the same token.
const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
)

// Roles known to the service. Role administration happens outside of it.
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)
