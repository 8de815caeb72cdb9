package bootstrap

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/config"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/adapters/devbackend"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/adapters/memory"
	domainauth "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/auth"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/model"
	apperrors "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/errors"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/interceptor"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/metrics"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/statsd"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/router"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/store"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/testutil"
)

func testConfig(t *testing.T) config.AppConfig {
	t.Helper()
	var cfg config.AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Backend.Mode = config.BackendModeMock
	cfg.Storage.Kind = config.StorageMemory
	cfg.Observability.Metrics.Enabled = false
	cfg.Sanitize()
	return cfg
}

func newTestApp(t *testing.T, opts AppOptions) *App {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = testLogger()
	}
	app, err := NewApp(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, app.Close(ctx))
	})
	return app
}

// sharedBackend serves one dev backend so tokens survive across App instances.
func sharedBackend(t *testing.T) (*devbackend.Backend, string) {
	t.Helper()
	b, err := devbackend.New(devbackend.Config{
		Users: []devbackend.User{
			{Username: "alice", Password: "pw", Email: "alice@example.com", Role: domainauth.RoleUser},
		},
		AppConfig: model.DefaultAppConfig(),
		Logger:    testLogger(),
	})
	require.NoError(t, err)
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, srv.URL + "/api/"
}

func TestApp_BootWithoutSessionRedirectsToLogin(t *testing.T) {
	rec := &statsd.Recorder{}
	app := newTestApp(t, AppOptions{Config: testConfig(t), Metrics: rec})
	require.NotNil(t, app.DevBackend)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, loc, err := app.Boot(ctx, "/user/reservations")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, router.PathLogin, loc.Path)

	st := app.Store.Snapshot()
	assert.False(t, st.IsInitializing())
	assert.True(t, st.IsConfigLoaded())
	assert.False(t, st.IsLoggedIn())
	assert.Equal(t, "Containers on the Fly", st.AppName())

	assert.Len(t, rec.Find(metrics.Initialize), 1)
}

func TestApp_LoginNavigateAndForcedLogout(t *testing.T) {
	mem := memory.NewStorage()
	app := newTestApp(t, AppOptions{Config: testConfig(t), Storage: mem})
	ctx := context.Background()

	_, _, err := app.Boot(ctx, "/")
	require.NoError(t, err)

	res := app.Store.Login(ctx, "admin", "wrong")
	assert.False(t, res.Success)
	assert.Equal(t, "Incorrect username or password", res.Message)

	res = app.Store.Login(ctx, "admin", "admin")
	require.True(t, res.Success, res.Message)
	assert.True(t, app.Store.Snapshot().IsAdmin())

	loc, err := app.Router.Navigate(ctx, "/admin/users")
	require.NoError(t, err)
	assert.Equal(t, router.NameAdminUsers, loc.Name)

	_, err = mem.Get(ctx, domainauth.SnapshotKey)
	require.NoError(t, err)

	token := app.Store.Snapshot().User().Token
	app.DevBackend.Backend.Revoke(token)

	res = app.Store.ValidateToken(ctx, token)
	assert.False(t, res.Success)
	app.Interceptor.Wait()

	assert.Equal(t, router.PathLogin, app.Router.CurrentPath())
	st := app.Store.Snapshot()
	assert.False(t, st.IsLoggedIn())
	assert.Equal(t, interceptor.ExpiredMessage, st.Snackbar().Text)
	assert.True(t, st.Snackbar().Visible)

	_, err = mem.Get(ctx, domainauth.SnapshotKey)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestApp_RestoresSessionFromSQLite(t *testing.T) {
	_, base := sharedBackend(t)
	cfg := testConfig(t)
	cfg.Storage.Kind = config.StorageSQLite
	cfg.Storage.SQLitePath = testutil.TempSQLitePath(t)
	ctx := context.Background()

	first := newTestApp(t, AppOptions{Config: cfg, BaseAddress: base})
	assert.Nil(t, first.DevBackend)
	_, _, err := first.Boot(ctx, "/")
	require.NoError(t, err)
	require.True(t, first.Store.Login(ctx, "alice", "pw").Success)
	require.NoError(t, first.Close(ctx))

	second := newTestApp(t, AppOptions{Config: cfg, BaseAddress: base})
	res, loc, err := second.Boot(ctx, "/user/reservations")
	require.NoError(t, err)
	assert.True(t, res.Success, res.Message)
	assert.Equal(t, router.NameUserReservations, loc.Name)
	assert.Equal(t, "alice@example.com", second.Store.Snapshot().User().Email)

	require.NoError(t, second.Router.Push(ctx, "/admin/general"))
	assert.Equal(t, router.PathUserReservations, second.Router.CurrentPath())
}

func TestApp_RevokedStoredTokenLogsOutDuringBoot(t *testing.T) {
	backend, base := sharedBackend(t)
	mem := memory.NewStorage()
	ctx := context.Background()

	first := newTestApp(t, AppOptions{Config: testConfig(t), BaseAddress: base, Storage: mem})
	_, _, err := first.Boot(ctx, "/")
	require.NoError(t, err)
	require.True(t, first.Store.Login(ctx, "alice", "pw").Success)
	backend.Revoke(first.Store.Snapshot().User().Token)

	second := newTestApp(t, AppOptions{Config: testConfig(t), BaseAddress: base, Storage: mem})
	res, loc, err := second.Boot(ctx, "/user/reserve")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, router.PathLogin, loc.Path)
	assert.False(t, second.Store.Snapshot().IsLoggedIn())

	_, err = mem.Get(ctx, domainauth.SnapshotKey)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestApp_UnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(nil)
	base := srv.URL + "/api/"
	srv.Close()

	cfg := testConfig(t)
	cfg.Client.Timeout = 2 * time.Second
	app := newTestApp(t, AppOptions{Config: cfg, BaseAddress: base})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, loc, err := app.Boot(ctx, "/admin/roles")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, router.PathLogin, loc.Path)

	st := app.Store.Snapshot()
	assert.True(t, st.HasConfigError())
	assert.False(t, st.IsConfigLoaded())
	assert.Contains(t, st.ConfigErrorMessage(), "Error loading app configuration: ")
}

func TestApp_CloseIsIdempotent(t *testing.T) {
	app, err := NewApp(context.Background(), AppOptions{Config: testConfig(t), Logger: testLogger()})
	require.NoError(t, err)
	require.NoError(t, app.Close(context.Background()))
	require.NoError(t, app.Close(context.Background()))
}

func TestBootConcurrently_NavigationFailureKeepsInitializing(t *testing.T) {
	navFailed := make(chan struct{})
	initialize := func(ctx context.Context) store.Result {
		<-navFailed
		if err := ctx.Err(); err != nil {
			return store.Result{Success: false, Message: err.Error()}
		}
		return store.Result{Success: true, Message: "ok"}
	}
	navigate := func(context.Context) error {
		defer close(navFailed)
		return router.ErrRedirectLoop
	}

	res, err := bootConcurrently(context.Background(), initialize, navigate)
	assert.ErrorIs(t, err, router.ErrRedirectLoop)
	assert.Equal(t, store.Result{Success: true, Message: "ok"}, res)
}

func TestBootConcurrently_IgnoresSupersededNavigation(t *testing.T) {
	for _, navErr := range []error{router.ErrNavigationCancelled, router.ErrNavigationDuplicated} {
		res, err := bootConcurrently(context.Background(),
			func(context.Context) store.Result { return store.Result{Success: true} },
			func(context.Context) error { return navErr },
		)
		assert.NoError(t, err)
		assert.True(t, res.Success)
	}
}
