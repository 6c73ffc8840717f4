package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/sessionrpc"
)

var errUsage = errors.New("usage")

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) readCredentials() (string, []byte, error) {
	userName, err := getSimpleText(a.reader, "Enter username", a.out)
	if err != nil {
		return "", nil, err
	}

	password, err := getPassword(a.reader, a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

// Register prompts for a username and password and creates the account.
func (a *App) Register(ctx context.Context) error {
	userName, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	user, err := a.client.Register(ctx, userName, string(password))
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Registered %s (id %s)\n", user.Username, user.UserID)
	return nil
}

// Login prompts for credentials and opens a session. The issued tokens are
// printed so they can be passed to one-shot commands later.
func (a *App) Login(ctx context.Context) error {
	userName, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	pair, err := a.client.Login(ctx, userName, string(password))
	if err != nil {
		return err
	}

	a.userName = userName
	fmt.Fprintf(a.out, "Logged in as %s\n", userName)
	a.printTokenPair(pair)
	return nil
}

// Refresh exchanges args[0], or the refresh token of the current session,
// for a new token pair.
func (a *App) Refresh(ctx context.Context, args []string) error {
	refreshToken := a.client.Session().RefreshToken
	if len(args) > 0 {
		refreshToken = args[0]
	}
	if refreshToken == "" {
		return fmt.Errorf("%w: refresh <refreshToken>", errUsage)
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	pair, err := a.client.Refresh(ctx, refreshToken)
	if err != nil {
		return err
	}

	a.printTokenPair(pair)
	return nil
}

// Logout ends the current session, or the one given as <userId> <accessToken>.
func (a *App) Logout(ctx context.Context, args []string) error {
	switch len(args) {
	case 0:
		if !a.isLoggedIn() {
			return fmt.Errorf("%w: logout <userId> <accessToken>", errUsage)
		}
	case 2:
		a.client.SetSession(sessionrpc.TokenPair{UserID: args[0], AccessToken: args[1]})
	default:
		return fmt.Errorf("%w: logout <userId> <accessToken>", errUsage)
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	if err := a.client.Logout(ctx); err != nil {
		return err
	}

	a.userName = ""
	fmt.Fprintln(a.out, "Successfully logged out")
	return nil
}

// Validate checks args[0], or the access token of the current session.
func (a *App) Validate(ctx context.Context, args []string) error {
	token := a.client.Session().AccessToken
	if len(args) > 0 {
		token = args[0]
	}
	if token == "" {
		return fmt.Errorf("%w: validate <accessToken>", errUsage)
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	id, err := a.client.Validate(ctx, token)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Valid: user %s (id %s), role %s, expires %s\n",
		id.Username, id.UserID, id.Role, id.ExpiresAt.Format(time.RFC3339))
	return nil
}

// Profile shows the account of the current session.
func (a *App) Profile(ctx context.Context) error {
	if !a.isLoggedIn() {
		return common.ErrorUnauthorized
	}

	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	user, err := a.client.Profile(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "User %s (id %s), role %s\n", user.Username, user.UserID, user.Role)
	return nil
}

func (a *App) printTokenPair(p sessionrpc.TokenPair) {
	fmt.Fprintf(a.out, "User ID:       %s\n", p.UserID)
	fmt.Fprintf(a.out, "Access token:  %s\n", p.AccessToken)
	fmt.Fprintf(a.out, "  expires at:  %s\n", p.AccessTokenExpiresAt.Format(time.RFC3339))
	fmt.Fprintf(a.out, "Refresh token: %s\n", p.RefreshToken)
	fmt.Fprintf(a.out, "  expires at:  %s\n", p.RefreshTokenExpiresAt.Format(time.RFC3339))
}
