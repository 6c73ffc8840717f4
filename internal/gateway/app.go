package gateway

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/sessionkeeper/internal/client/sessionclient"
	"github.com/dmitrijs2005/sessionkeeper/internal/client/verifier"
	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/httpauth"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/sessioncache"
)

type App struct {
	config *Config
	logger logging.Logger
	issuer *sessionclient.Client
	cache  io.Closer
	server *httpapi.HTTPServer
}

func NewApp(ctx context.Context, c *Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	kv, cache, err := sessioncache.Open(ctx, sessioncache.RedisOptions{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		Timeout:  c.RequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("claims cache init error: %w", err)
	}

	issuer, err := sessionclient.New(c.IssuerAddr)
	if err != nil {
		_ = cache.Close()
		return nil, fmt.Errorf("issuer client error: %w", err)
	}

	v := verifier.New(timeoutRemote{issuer: issuer, config: c}, sessioncache.New(kv), c.ClaimsCacheWindow, logger)

	return &App{
		config: c,
		logger: logger,
		issuer: issuer,
		cache:  cache,
		server: httpapi.NewHTTPServer(c.ListenAddr, logger, NewRouter(httpauth.ValidatorFunc(v.Verify), logger)),
	}, nil
}

// timeoutRemote bounds each issuer call by the configured request timeout.
type timeoutRemote struct {
	issuer *sessionclient.Client
	config *Config
}

func (t timeoutRemote) Validate(ctx context.Context, token string) (common.Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, t.config.RequestTimeout)
	defer cancel()
	return t.issuer.Validate(ctx, token)
}

// Run serves until SIGINT/SIGTERM or a server error, then releases the
// issuer connection and the cache.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "Starting gateway...", "http", app.config.ListenAddr, "issuer", app.config.IssuerAddr)
	err := app.server.Run(ctx)

	if cerr := app.issuer.Close(); cerr != nil {
		app.logger.Warn(ctx, "issuer close error", "error", cerr)
	}
	if cerr := app.cache.Close(); cerr != nil {
		app.logger.Warn(ctx, "claims cache close error", "error", cerr)
	}
	return err
}
