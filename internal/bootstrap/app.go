package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/config"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/apiclient"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/interceptor"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/statsd"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/ports"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/router"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/settings"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/store"
)

// AppOptions configures NewApp.
type AppOptions struct {
	Config config.AppConfig
	Logger *slog.Logger

	// BaseAddress overrides the API base derived from the deployment settings.
	BaseAddress string
	// Storage overrides the configured snapshot storage; the caller keeps ownership.
	Storage ports.Storage
	// Transport is the round tripper beneath the interceptor (http.DefaultTransport when nil).
	Transport http.RoundTripper
	// Metrics overrides the StatsD client built from config.
	Metrics statsd.Sink
	Now     func() time.Time
}

// App is the wired session core: storage, API client behind the interceptor,
// session store and router.
type App struct {
	Config      config.AppConfig
	Logger      *slog.Logger
	Storage     ports.Storage
	Client      *apiclient.Client
	Interceptor *interceptor.Interceptor
	Store       *store.Store
	Router      *router.Router
	DevBackend  *DevBackendServer

	closers []func(context.Context) error
}

// NewApp wires every component. The interceptor is bound to the store and
// router last, so responses observed before then cannot force a logout.
func NewApp(ctx context.Context, opts AppOptions) (*App, error) {
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	if err := a.build(ctx, opts); err != nil {
		if closeErr := a.Close(ctx); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, opts AppOptions) error {
	cfg := opts.Config
	deployment := cfg.Deployment.Settings()

	metrics := opts.Metrics
	if metrics == nil {
		client := BuildMetrics(a.Logger, cfg.Observability, cfg.Deployment.AppName)
		a.closers = append(a.closers, func(context.Context) error { return client.Close() })
		metrics = client
	}

	base := opts.BaseAddress
	if base == "" && cfg.Backend.Mode == config.BackendModeMock {
		dev, err := StartDevBackend(ctx, DevBackendConfig{
			Backend:    cfg.Backend,
			Deployment: cfg.Deployment,
			Logger:     a.Logger,
		})
		if err != nil {
			return err
		}
		a.DevBackend = dev
		a.closers = append(a.closers, dev.Shutdown)
		base = dev.BaseAddress()
	}
	if base == "" {
		base = deployment.BaseAddress()
	}

	a.Storage = opts.Storage
	if a.Storage == nil {
		st, err := OpenStorage(ctx, StorageConfig{Storage: cfg.Storage, Redis: cfg.Redis, Logger: a.Logger})
		if err != nil {
			return err
		}
		a.Storage = st
		a.closers = append(a.closers, func(context.Context) error { return st.Close() })
	}

	a.Interceptor = interceptor.New(opts.Transport, interceptor.Options{Logger: a.Logger, Metrics: metrics})
	a.closers = append(a.closers, func(context.Context) error {
		a.Interceptor.Close()
		return nil
	})

	client, err := apiclient.New(apiclient.Options{
		Endpoints: settings.Resolve(base),
		Transport: a.Interceptor,
		Timeout:   cfg.Client.Timeout,
		UserAgent: cfg.Client.UserAgent,
		Logger:    a.Logger,
	})
	if err != nil {
		return fmt.Errorf("build api client: %w", err)
	}
	a.Client = client

	st, err := store.New(store.Options{
		Backend:  client,
		Storage:  a.Storage,
		Defaults: deployment.Defaults(),
		Logger:   a.Logger,
		Metrics:  metrics,
		Now:      opts.Now,
	})
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	a.Store = st

	rt, err := router.New(router.Options{Session: st, Logger: a.Logger, Metrics: metrics})
	if err != nil {
		return fmt.Errorf("build router: %w", err)
	}
	a.Router = rt

	a.Interceptor.Bind(st, rt)
	a.Logger.InfoContext(ctx, "session core wired", "base_address", base, "backend_mode", cfg.Backend.Mode)
	return nil
}

// Boot runs initialization and the first navigation concurrently. The
// navigation is held by the guard until initialization settles. The returned
// location is the committed one after any forced redirect has finished.
func (a *App) Boot(ctx context.Context, path string) (store.Result, router.Location, error) {
	res, err := bootConcurrently(ctx, a.Store.Initialize, func(ctx context.Context) error {
		_, err := a.Router.Navigate(ctx, path)
		return err
	})
	a.Interceptor.Wait()
	return res, a.Router.Current(), err
}

// bootConcurrently runs initialize and navigate side by side on ctx. A failed
// navigation does not cancel initialization; superseded and duplicate
// navigations are not errors.
func bootConcurrently(
	ctx context.Context,
	initialize func(context.Context) store.Result,
	navigate func(context.Context) error,
) (store.Result, error) {
	var (
		res store.Result
		g   errgroup.Group
	)
	g.Go(func() error {
		res = initialize(ctx)
		return nil
	})
	g.Go(func() error {
		err := navigate(ctx)
		if errors.Is(err, router.ErrNavigationDuplicated) || errors.Is(err, router.ErrNavigationCancelled) {
			return nil
		}
		return err
	})
	err := g.Wait()
	return res, err
}

// Close releases everything NewApp opened, in reverse order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
