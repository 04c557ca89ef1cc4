// Package cli wires configuration, storage and services for cmd/finboard.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finboard/internal/access"
	"finboard/internal/amqp"
	"finboard/internal/apiclient"
	"finboard/internal/auth"
	"finboard/internal/backend"
	"finboard/internal/cache"
	"finboard/internal/config"
	"finboard/internal/core"
	"finboard/internal/log"
	"finboard/internal/services"
	"finboard/internal/session"
	"finboard/internal/storage"
)

const (
	// DurableScope is the storage scope that survives across runs.
	DurableScope = "durable"
	// TabScopePattern matches every per-terminal scope.
	TabScopePattern = "tab:%"
	// TabScopeMaxAge is how long an idle terminal scope is kept.
	TabScopeMaxAge = 30 * 24 * time.Hour
)

// SetupLogger builds a text logger on w at the configured level.
func SetupLogger(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	return log.New(log.Config{
		Level:     log.ParseLevel(level),
		Component: log.ComponentApp,
		Output:    w,
	})
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as the file is optional.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration from the environment and
// validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// App holds everything a command needs.
type App struct {
	Config   *config.Config
	Logger   *log.Logger
	Location *time.Location

	Session *session.Store
	API     *apiclient.Client
	Gateway *auth.Gateway
	Machine *auth.Machine
	Guard   *access.Guard

	Transactions *services.TransactionService
	Reports      *services.ReportService
	Members      *services.MemberService
	Settings     *services.SettingsService
	Workspace    *services.Workspace
	Exports      backend.Factory

	// Events is nil when AMQP_URL is unset or the broker is unreachable.
	Events *amqp.Client

	closers []func() error
}

// Bootstrap opens the session database and builds the service graph. The
// caller must Close the returned app.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	logger = log.OrDiscard(logger)
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	db, err := storage.Open(cfg.SessionDBPath)
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}
	app := &App{Config: cfg, Logger: logger, Location: loc}
	app.closers = append(app.closers, db.Close)

	if n, err := db.PruneScopes(ctx, TabScopePattern, time.Now().Add(-TabScopeMaxAge)); err != nil {
		logger.WarnContext(ctx, "failed to prune idle session scopes", log.FieldError, err)
	} else if n > 0 {
		logger.DebugContext(ctx, "pruned idle session scopes", log.FieldCount, n)
	}

	app.Session = session.NewStore(db.Scope(DurableScope), db.Scope(cfg.SessionScopeID), logger)

	app.API, err = apiclient.New(cfg.APIBaseURL, app.Session,
		apiclient.WithTimeout(cfg.HTTPTimeout),
		apiclient.WithLogger(logger))
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("create api client: %w", err)
	}

	app.Gateway = auth.NewGateway(app.API, app.Session, logger)
	app.Machine = auth.NewMachine(app.Gateway, logger)
	app.Guard = access.NewGuard(nil)

	txCache := cache.NewLRUCache[[]core.Transaction](cfg.CacheSize, cfg.CacheTTL)
	app.Transactions = services.NewTransactionService(app.API, app.Session, txCache, cfg.PageSize, logger)
	app.Reports = services.NewReportService(app.API, logger)
	app.Members = services.NewMemberService(app.API)
	app.Settings = services.NewSettingsService(app.API, app.Session)
	app.Workspace = services.NewWorkspace(app.Transactions, app.Reports, app.Members, logger)
	app.Exports = backend.NewFactory(logger)

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.WarnContext(ctx, "failed to initialize AMQP client, continuing without session events", log.FieldError, err)
		} else {
			app.Events = client
			unsubscribe := app.Machine.Subscribe(amqp.Subscriber(client, logger))
			app.closers = append(app.closers, client.Close, func() error { unsubscribe(); return nil })
			logger.DebugContext(ctx, "publishing session events",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	return app, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Authorize resolves the session and checks the guard for path.
func (a *App) Authorize(ctx context.Context, path string) (auth.Snapshot, error) {
	snap := a.Machine.Init(ctx)
	if d := a.Guard.Check(snap, path); !d.Allow {
		return snap, &DeniedError{Path: path, RedirectTo: d.RedirectTo}
	}
	return snap, nil
}

// DeniedError reports a guard refusal.
type DeniedError struct {
	Path       string
	RedirectTo string
}

func (e *DeniedError) Error() string {
	if e.RedirectTo == access.LoginPath {
		return fmt.Sprintf("%s requires sign in (run: finboard login)", e.Path)
	}
	return fmt.Sprintf("%s is not available for your role", e.Path)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. cleanup
// runs once before cancellation.
func GracefulShutdown(parent context.Context, logger *log.Logger, cleanup func()) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	logger = log.OrDiscard(logger)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			logger.Info("shutdown signal received", "signal", sig.String())
			if cleanup != nil {
				cleanup()
			}
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
