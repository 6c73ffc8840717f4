// Package sessionclient is the typed gRPC client of the session service. It
// keeps the session obtained by Login, sends its access token with every
// call and transparently refreshes it once when the server reports expiry.
package sessionclient

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/sessionrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type Client struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      *sessionrpc.SessionServiceClient

	mu      sync.Mutex
	session sessionrpc.TokenPair
}

// refreshableMethods are authenticated by the access_token metadata, so an
// expiry reported by them concerns the client's own session. Other methods
// (Validate, IsBlacklisted) report on tokens passed as arguments.
var refreshableMethods = map[string]struct{}{
	sessionrpc.MethodProfile: {},
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (c *Client) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	session := c.Session()
	err := invoker(withAccessToken(ctx, session.AccessToken), method, req, reply, cc, opts...)

	if err == nil || session.RefreshToken == "" {
		return err
	}
	if _, ok := refreshableMethods[method]; !ok {
		return err
	}
	if !errors.Is(sessionrpc.ErrorFromStatus(err), common.ErrTokenExpired) {
		return err
	}

	refreshed, rerr := c.refresh(ctx, session.RefreshToken)
	if rerr != nil {
		return err
	}

	// tokens refreshed, retry once with the new access token
	return invoker(withAccessToken(ctx, refreshed.AccessToken), method, req, reply, cc, opts...)
}

// New connects to the session service at endpointURL. Extra dial options are
// appended after the defaults.
func New(endpointURL string, opts ...grpc.DialOption) (*Client, error) {
	c := &Client{endpointURL: endpointURL}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = sessionrpc.NewSessionServiceClient(conn)
	return c, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Session returns the tokens from the last Login or refresh.
func (c *Client) Session() sessionrpc.TokenPair {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SetSession installs tokens obtained elsewhere, e.g. loaded from disk.
func (c *Client) SetSession(p sessionrpc.TokenPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = p
}

func (c *Client) Register(ctx context.Context, username, password string) (sessionrpc.User, error) {
	resp, err := c.client.Register(ctx, sessionrpc.Credentials{Username: username, Password: password}.ToStruct())
	if err != nil {
		return sessionrpc.User{}, sessionrpc.ErrorFromStatus(err)
	}
	return sessionrpc.UserFromStruct(resp), nil
}

func (c *Client) Login(ctx context.Context, username, password string) (sessionrpc.TokenPair, error) {
	resp, err := c.client.Login(ctx, sessionrpc.Credentials{Username: username, Password: password}.ToStruct())
	if err != nil {
		return sessionrpc.TokenPair{}, sessionrpc.ErrorFromStatus(err)
	}

	pair, err := sessionrpc.TokenPairFromStruct(resp)
	if err != nil {
		return sessionrpc.TokenPair{}, err
	}
	c.SetSession(pair)
	return pair, nil
}

// Refresh exchanges refreshToken for a new pair and makes it the current
// session.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (sessionrpc.TokenPair, error) {
	return c.refresh(ctx, refreshToken)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (sessionrpc.TokenPair, error) {
	resp, err := c.client.Refresh(ctx, wrapperspb.String(refreshToken))
	if err != nil {
		return sessionrpc.TokenPair{}, sessionrpc.ErrorFromStatus(err)
	}

	pair, err := sessionrpc.TokenPairFromStruct(resp)
	if err != nil {
		return sessionrpc.TokenPair{}, err
	}
	c.SetSession(pair)
	return pair, nil
}

// Logout ends the current session and forgets it locally.
func (c *Client) Logout(ctx context.Context) error {
	session := c.Session()
	if session.AccessToken == "" {
		return common.ErrorUnauthorized
	}

	req := sessionrpc.LogoutRequest{UserID: session.UserID, AccessToken: session.AccessToken}
	if _, err := c.client.Logout(ctx, req.ToStruct()); err != nil {
		return sessionrpc.ErrorFromStatus(err)
	}

	c.SetSession(sessionrpc.TokenPair{})
	return nil
}

// Validate asks the issuer whether token is a live session.
func (c *Client) Validate(ctx context.Context, token string) (common.Identity, error) {
	resp, err := c.client.Validate(ctx, wrapperspb.String(token))
	if err != nil {
		return common.Identity{}, sessionrpc.ErrorFromStatus(err)
	}
	return sessionrpc.IdentityFromStruct(resp)
}

func (c *Client) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	resp, err := c.client.IsBlacklisted(ctx, wrapperspb.String(token))
	if err != nil {
		return false, sessionrpc.ErrorFromStatus(err)
	}
	return resp.GetValue(), nil
}

// Profile returns the account of the current session.
func (c *Client) Profile(ctx context.Context) (sessionrpc.User, error) {
	resp, err := c.client.Profile(ctx, &emptypb.Empty{})
	if err != nil {
		return sessionrpc.User{}, sessionrpc.ErrorFromStatus(err)
	}
	return sessionrpc.UserFromStruct(resp), nil
}
