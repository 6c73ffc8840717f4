// Package server wires the session service together: PostgreSQL for users
// and refresh tokens, Redis for session pointers and the blacklist (an
// in-process map when no address is set), and the gRPC and HTTP front ends,
// with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/auth"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/config"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/services"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/sessioncache"

	gs "github.com/dmitrijs2005/sessionkeeper/internal/server/grpc"
)

// runner is what App starts and stops: the gRPC and the HTTP server.
type runner interface {
	Run(ctx context.Context) error
}

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	cache   io.Closer
	servers map[string]runner
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	kv, cache, err := sessioncache.Open(ctx, sessioncache.RedisOptions{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
		Timeout:  c.OperationTimeout,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("redis init error: %w", err)
	}
	if c.RedisAddr == "" {
		logger.Warn(ctx, "no redis address, session cache is in-process and not shared between instances")
	}

	sessions := sessioncache.New(kv)
	codec := auth.NewCodec([]byte(c.SecretKey), c.Issuer, c.Audience, c.AccessTokenValidityDuration)

	us := services.NewUserService(db, rm, codec, sessions, c, logger.With("module", "user_service"))
	vs := services.NewValidationService(codec, sessions, c.OperationTimeout, logger.With("module", "validation_service"))

	handler := httpapi.NewAuthHandler(us, vs, logger)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		cache:  cache,
		servers: map[string]runner{
			"grpc": gs.NewGRPCServer(c.EndpointAddrGRPC, logger, us, vs),
			"http": httpapi.NewHTTPServer(c.EndpointAddrHTTP, logger, httpapi.NewRouter(handler, logger)),
		},
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run starts every server and blocks until a signal arrives or one of them
// fails, then waits for the others to stop and releases the stores.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "grpc", app.config.EndpointAddrGRPC, "http", app.config.EndpointAddrHTTP)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	for name, srv := range app.servers {
		name, srv := name, srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				app.logger.Error(ctx, "server stopped with error", "server", name, "error", err)
				cancelFunc()
			}
		}()
	}

	wg.Wait()
	app.close(context.Background())

}

func (app *App) close(ctx context.Context) {
	if err := app.cache.Close(); err != nil {
		app.logger.Warn(ctx, "session cache close error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
