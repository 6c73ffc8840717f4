package cli

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/sessionclient"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/sessionrpc"
)

// SessionClient is the part of sessionclient.Client the CLI drives.
type SessionClient interface {
	Register(ctx context.Context, username, password string) (sessionrpc.User, error)
	Login(ctx context.Context, username, password string) (sessionrpc.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (sessionrpc.TokenPair, error)
	Logout(ctx context.Context) error
	Validate(ctx context.Context, token string) (common.Identity, error)
	Profile(ctx context.Context) (sessionrpc.User, error)
	Session() sessionrpc.TokenPair
	SetSession(p sessionrpc.TokenPair)
	Close() error
}

type App struct {
	config   *config.Config
	client   SessionClient
	userName string
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config) (*App, error) {
	client, err := sessionclient.New(c.ServerEndpointAddr)
	if err != nil {
		return nil, err
	}
	return newApp(c, client, os.Stdin, os.Stdout), nil
}

func newApp(c *config.Config, client SessionClient, in io.Reader, out io.Writer) *App {
	return &App{config: c, client: client, reader: bufio.NewReader(in), out: out}
}

// Run executes args as a single command, or starts the REPL when args is
// empty. The connection is closed on return.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.client.Close()

	if len(args) == 0 {
		a.Root(ctx)
		return nil
	}
	return a.Exec(ctx, args[0], args[1:])
}

func (a *App) isLoggedIn() bool {
	return a.client.Session().AccessToken != ""
}

func (a *App) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.config.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}
