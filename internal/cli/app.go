package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/consolecache/internal/config"
	"github.com/dmitrijs2005/consolecache/internal/filex"
	"github.com/dmitrijs2005/consolecache/internal/hooks"
	"github.com/dmitrijs2005/consolecache/internal/logging"
	"github.com/dmitrijs2005/consolecache/internal/remote"
	"github.com/dmitrijs2005/consolecache/internal/resources"
	"github.com/dmitrijs2005/consolecache/internal/services"
	"github.com/dmitrijs2005/consolecache/internal/store"
)

// DemoPrincipal is used in demo mode when no principal is configured.
const DemoPrincipal = "demo@example.com"

var ErrNoPrincipal = errors.New("no principal: set --principal or provide an API token with an email claim")

// App wires the store, the catalog and the sync service for one command.
type App struct {
	cfg     *config.Config
	logger  logging.Logger
	store   store.Store
	catalog *resources.Catalog
	sync    *services.SyncService
}

// offline is the client of demo mode. Hooks never call it there; it only
// exists so the catalog can be built without an API.
type offline struct{}

func (offline) FetchJSON(ctx context.Context, path string, principal string) (any, error) {
	return nil, fmt.Errorf("%w: demo mode", remote.ErrUnavailable)
}

// NewApp opens the store described by cfg. client may be nil, in which
// case an HTTP client for cfg.APIBaseURL is built.
func NewApp(ctx context.Context, cfg *config.Config, client remote.Client, logw io.Writer) (*App, error) {
	logger, err := logging.New(logw, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	policy, err := hooks.NewPolicy(cfg.AccessPolicy)
	if err != nil {
		return nil, err
	}

	if client == nil {
		client, err = newClient(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	if cfg.StoreDriver == store.DriverSQLite {
		if _, err := filex.EnsureParentDir(cfg.StoreDSN); err != nil {
			return nil, err
		}
	}

	st, err := store.Open(ctx, store.Options{Driver: cfg.StoreDriver, DSN: cfg.StoreDSN, Logger: logger}, resources.Schema)
	if err != nil {
		return nil, fmt.Errorf("error initializing store: %w", err)
	}

	catalog, err := resources.NewCatalog(client, hooks.Deps{
		Store:        st,
		Policy:       policy,
		Demo:         cfg.DemoMode,
		CacheVersion: cfg.CacheVersion,
		Logger:       logger,
	})
	if err != nil {
		st.Close()
		return nil, err
	}

	svc, err := services.NewSyncService(st, catalog.SyncResources(),
		services.WithConcurrency(cfg.SyncConcurrency),
		services.WithLogger(logger))
	if err != nil {
		st.Close()
		return nil, err
	}

	return &App{cfg: cfg, logger: logger, store: st, catalog: catalog, sync: svc}, nil
}

func newClient(cfg *config.Config, logger logging.Logger) (remote.Client, error) {
	if cfg.DemoMode && cfg.APIBaseURL == "" {
		return offline{}, nil
	}
	return remote.NewHTTPClient(cfg.APIBaseURL, cfg.APIToken,
		remote.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		remote.WithLogger(logger))
}

// Principal is the configured principal, the email claim of the API token,
// or DemoPrincipal in demo mode.
func (a *App) Principal() (string, error) {
	if p := strings.TrimSpace(a.cfg.Principal); p != "" {
		return p, nil
	}
	if a.cfg.APIToken != "" {
		p, err := remote.PrincipalFromToken(a.cfg.APIToken)
		if err != nil {
			return "", err
		}
		return p, nil
	}
	if a.cfg.DemoMode {
		return DemoPrincipal, nil
	}
	return "", ErrNoPrincipal
}

// ClearAllData is the logout operation: every partition is emptied and the
// store ends up as after a fresh install.
func (a *App) ClearAllData(ctx context.Context) error {
	if err := a.store.ClearAll(ctx); err != nil {
		return err
	}
	a.logger.Info(ctx, "all cached data cleared")
	return nil
}

func (a *App) Close() error {
	return a.store.Close()
}
