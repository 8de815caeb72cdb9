package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/adapters/memory"
	domainauth "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/auth"
	apperrors "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/errors"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/mocks"
	mocksession "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/mocks/session"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/metrics"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/statsd"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/ports"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/settings"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/testutil"
)

var testDefaults = settings.Defaults{
	AppName:       "Containers on the Fly",
	Timezone:      "Europe/Helsinki",
	ContactEmail:  "support@example.com",
	UsernameField: "Username",
	PasswordField: "Password",
}

func okConfig(data string) ports.ConfigResponse {
	return ports.ConfigResponse{Status: true, Data: json.RawMessage(data)}
}

func newTestStore(t *testing.T, backend ports.Backend, storage ports.Storage) (*Store, *statsd.Recorder) {
	t.Helper()
	rec := &statsd.Recorder{}
	s, err := New(Options{
		Backend:  backend,
		Storage:  storage,
		Defaults: testDefaults,
		Metrics:  rec,
		Now:      testutil.FixedTimeFunc(testutil.TestTime()),
	})
	require.NoError(t, err)
	return s, rec
}

func storeSnapshot(t *testing.T, storage ports.Storage, snap domainauth.Snapshot) {
	t.Helper()
	data, err := domainauth.EncodeSnapshot(snap)
	require.NoError(t, err)
	require.NoError(t, storage.Set(context.Background(), domainauth.SnapshotKey, data))
}

func assertReady(t *testing.T, s *Store) {
	t.Helper()
	select {
	case <-s.Ready():
	case <-time.After(time.Second):
		t.Fatal("store did not become ready")
	}
	assert.False(t, s.Snapshot().IsInitializing())
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Options{Storage: memory.NewStorage()})
	require.Error(t, err)
	_, err = New(Options{Backend: mocksession.NewFakeBackend()})
	require.Error(t, err)
}

func TestInitialState(t *testing.T) {
	s, _ := newTestStore(t, mocksession.NewFakeBackend(), memory.NewStorage())
	st := s.Snapshot()

	assert.True(t, st.IsInitializing())
	assert.False(t, st.IsLoggedIn())
	assert.False(t, st.IsConfigLoaded())
	assert.False(t, st.HasConfigError())
	assert.Equal(t, 5, st.ReservationMinDuration())
	assert.Equal(t, 72, st.ReservationMaxDuration())
	assert.Equal(t, "Login with your credentials.", st.LoginText())
	assert.Equal(t, "Containers on the Fly", st.AppName())
	assert.Equal(t, DefaultMessageColor, st.Snackbar().Color)
	assert.Equal(t, DefaultMessageTimeout, st.Snackbar().Timeout)

	select {
	case <-s.Ready():
		t.Fatal("ready must not be closed before initialization")
	default:
	}
}

func TestInitialize_NoStoredSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	backend.EXPECT().FetchConfig(gomock.Any()).Return(okConfig(`{"app":{"name":"Lab"}}`), nil)

	s, rec := newTestStore(t, backend, memory.NewStorage())
	res := s.Initialize(context.Background())

	assert.True(t, res.Success)
	assert.Equal(t, msgNoSession, res.Message)
	assertReady(t, s)
	st := s.Snapshot()
	assert.True(t, st.IsConfigLoaded())
	assert.False(t, st.IsLoggedIn())
	assert.Equal(t, "Lab", st.AppName())
	assert.Len(t, rec.Find(metrics.Initialize), 1)
}

func TestInitialize_ConfigRejectedStopsBeforeRestore(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	storage := mocks.NewMockStorage(ctrl)
	backend.EXPECT().FetchConfig(gomock.Any()).Return(ports.ConfigResponse{Status: false, Message: "Maintenance break"}, nil)

	s, rec := newTestStore(t, backend, storage)
	res := s.Initialize(context.Background())

	assert.False(t, res.Success)
	assert.Equal(t, "Maintenance break", res.Message)
	assertReady(t, s)
	st := s.Snapshot()
	assert.True(t, st.HasConfigError())
	assert.False(t, st.IsConfigLoaded())
	assert.Equal(t, "Maintenance break", st.ConfigErrorMessage())

	loads := rec.Find(metrics.ConfigLoad)
	require.Len(t, loads, 1)
	assert.Equal(t, "rejected", loads[0].Tags["outcome"])
}

func TestLoadAppConfig_Failures(t *testing.T) {
	tests := []struct {
		name    string
		resp    ports.ConfigResponse
		err     error
		wantMsg string
	}{
		{
			name:    "status false without message",
			resp:    ports.ConfigResponse{Status: false},
			wantMsg: "Failed to load application configuration",
		},
		{
			name:    "server message on error status",
			err:     apperrors.FromStatus(500, "database offline"),
			wantMsg: "Error loading app configuration: database offline",
		},
		{
			name:    "unreachable",
			err:     apperrors.MapTransportError(errors.New("dial tcp: connection refused")),
			wantMsg: "Error loading app configuration: Unable to connect to server",
		},
		{
			name:    "other error text",
			err:     errors.New("boom"),
			wantMsg: "Error loading app configuration: boom",
		},
		{
			name:    "invalid reservation bounds",
			resp:    okConfig(`{"reservation":{"minimumDuration":10,"maximumDuration":2}}`),
			wantMsg: "Error loading app configuration: reservation minimum duration 10 exceeds maximum 2",
		},
		{
			name:    "missing data",
			resp:    ports.ConfigResponse{Status: true},
			wantMsg: "Error loading app configuration: configuration payload is empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := mocksession.NewFakeBackend()
			backend.FetchConfigFunc = func(context.Context) (ports.ConfigResponse, error) {
				return tt.resp, tt.err
			}
			s, _ := newTestStore(t, backend, memory.NewStorage())

			res := s.LoadAppConfig(context.Background())
			assert.False(t, res.Success)
			assert.Equal(t, tt.wantMsg, res.Message)

			st := s.Snapshot()
			assert.True(t, st.HasConfigError())
			assert.Equal(t, tt.wantMsg, st.ConfigErrorMessage())
			assert.False(t, st.IsConfigLoaded())
			assert.Equal(t, 5, st.ReservationMinDuration(), "failed load keeps defaults")
		})
	}
}

func TestLoadAppConfig_SectionMerge(t *testing.T) {
	backend := mocksession.NewFakeBackend()
	backend.ConfigData = json.RawMessage(`{
		"app": {"name": "Lab", "timezone": "UTC", "contactEmail": "lab@example.com"},
		"instructions": {"login": "Use your school account", "usernameFieldLabel": "Email"}
	}`)
	s, _ := newTestStore(t, backend, memory.NewStorage())

	res := s.LoadAppConfig(context.Background())
	require.True(t, res.Success)

	st := s.Snapshot()
	assert.True(t, st.IsConfigLoaded())
	assert.Equal(t, "Lab", st.AppName())
	assert.Equal(t, "UTC", st.AppTimezone())
	assert.Equal(t, "lab@example.com", st.ContactEmail())
	assert.Equal(t, "Use your school account", st.LoginPageInfo())
	assert.Equal(t, "Email", st.UsernameField())
	assert.Equal(t, "Password", st.PasswordField())
	assert.Equal(t, 72, st.ReservationMaxDuration())
	assert.Equal(t, "Login with your credentials.", st.LoginText())
}

func TestClearConfigError(t *testing.T) {
	backend := mocksession.NewFakeBackend()
	backend.FetchConfigFunc = func(context.Context) (ports.ConfigResponse, error) {
		return ports.ConfigResponse{Status: false}, nil
	}
	s, _ := newTestStore(t, backend, memory.NewStorage())
	s.LoadAppConfig(context.Background())

	s.ClearConfigError()
	st := s.Snapshot()
	assert.False(t, st.HasConfigError())
	assert.Empty(t, st.ConfigErrorMessage())
	assert.False(t, st.IsConfigLoaded())
}

func TestInitialize_RestoresValidSession(t *testing.T) {
	backend := mocksession.NewFakeBackend()
	backend.AddUser("alice", "pw", "tok-alice", domainauth.Identity{Email: "alice@example.com", Role: domainauth.RoleAdmin})
	storage := memory.NewStorage()
	storeSnapshot(t, storage, domainauth.Snapshot{LoginToken: "tok-alice", Email: "stale@example.com", Role: domainauth.RoleUser})

	s, _ := newTestStore(t, backend, storage)
	res := s.Initialize(context.Background())

	assert.Equal(t, Result{Success: true, Message: "Login token OK!"}, res)
	assertReady(t, s)
	st := s.Snapshot()
	assert.True(t, st.IsLoggedIn())
	assert.True(t, st.IsAdmin())
	assert.Equal(t, "alice@example.com", st.User().Email)
	require.NotNil(t, st.User().LoggedInAt)
	assert.Equal(t, testutil.TestTime(), *st.User().LoggedInAt)

	data, err := storage.Get(context.Background(), domainauth.SnapshotKey)
	require.NoError(t, err)
	snap, err := domainauth.DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", snap.Email)
	assert.Equal(t, domainauth.RoleAdmin, snap.Role)
}

func TestInitialize_InvalidStoredToken(t *testing.T) {
	for _, tc := range []struct {
		name  string
		check func(context.Context, string) (ports.TokenCheck, error)
	}{
		{name: "status false", check: func(context.Context, string) (ports.TokenCheck, error) {
			return ports.TokenCheck{Status: false}, nil
		}},
		{name: "401", check: func(context.Context, string) (ports.TokenCheck, error) {
			return ports.TokenCheck{}, apperrors.FromStatus(401, "Not authenticated")
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			backend := mocksession.NewFakeBackend()
			backend.CheckTokenFunc = tc.check
			storage := memory.NewStorage()
			storeSnapshot(t, storage, domainauth.Snapshot{LoginToken: "expired", Email: "bob@example.com", Role: domainauth.RoleUser})

			s, _ := newTestStore(t, backend, storage)
			res := s.Initialize(context.Background())

			assert.Equal(t, Result{Success: false, Message: "Invalid login token."}, res)
			assertReady(t, s)
			assert.True(t, s.Snapshot().User().IsZero())

			_, err := storage.Get(context.Background(), domainauth.SnapshotKey)
			assert.True(t, apperrors.IsNotFound(err), "snapshot must be removed")
		})
	}
}

func TestValidateToken_BadRequestKeepsSession(t *testing.T) {
	backend := mocksession.NewFakeBackend()
	backend.AddUser("alice", "pw", "tok", domainauth.Identity{Email: "alice@example.com", Role: domainauth.RoleUser})
	storage := memory.NewStorage()
	s, _ := newTestStore(t, backend, storage)

	require.True(t, s.ValidateToken(context.Background(), "tok").Success)
	before := s.Snapshot().User()

	backend.CheckTokenFunc = func(context.Context, string) (ports.TokenCheck, error) {
		return ports.TokenCheck{}, apperrors.FromStatus(400, "Account is locked")
	}
	res := s.ValidateToken(context.Background(), "tok")

	assert.Equal(t, Result{Success: false, Message: "Account is locked"}, res)
	assert.Equal(t, before, s.Snapshot().User())
	_, err := storage.Get(context.Background(), domainauth.SnapshotKey)
	assert.NoError(t, err)
}

func TestValidateToken_UnknownError(t *testing.T) {
	backend := mocksession.NewFakeBackend()
	backend.CheckTokenFunc = func(context.Context, string) (ports.TokenCheck, error) {
		return ports.TokenCheck{}, apperrors.FromStatus(503, "")
	}
	s, rec := newTestStore(t, backend, memory.NewStorage())
	require.True(t, s.LoadAppConfig(context.Background()).Success)

	res := s.ValidateToken(context.Background(), "tok")
	assert.Equal(t, Result{Success: false, Message: "Unknown error."}, res)
	assertReady(t, s)
	assert.False(t, s.Snapshot().IsLoggedIn())

	checks := rec.Find(metrics.TokenCheck)
	require.Len(t, checks, 1)
	assert.Equal(t, "app_unavailable", checks[0].Tags["error_class"])
}

func TestValidateToken_MissingTokenMakesNoCall(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	backend.EXPECT().FetchConfig(gomock.Any()).Return(okConfig(`{}`), nil)
	s, _ := newTestStore(t, backend, mocks.NewMockStorage(ctrl))
	require.True(t, s.LoadAppConfig(context.Background()).Success)

	res := s.ValidateToken(context.Background(), "")
	assert.Equal(t, Result{Success: false, Message: "loginToken was missing"}, res)
	assertReady(t, s)
}

func TestInitialize_StoredSnapshotProblems(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		wantMsg string
	}{
		{name: "malformed", stored: `{not json`, wantMsg: msgNoSession},
		{name: "blank", stored: `   `, wantMsg: msgNoSession},
		{name: "token missing", stored: `{"email":"x@example.com"}`, wantMsg: "loginToken was missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := mocksession.NewFakeBackend()
			storage := memory.NewStorage()
			require.NoError(t, storage.Set(context.Background(), domainauth.SnapshotKey, []byte(tt.stored)))

			s, _ := newTestStore(t, backend, storage)
			res := s.Initialize(context.Background())

			assert.Equal(t, tt.wantMsg, res.Message)
			assertReady(t, s)
			assert.False(t, s.Snapshot().IsLoggedIn())
			assert.Zero(t, backend.Calls("CheckToken"))
		})
	}
}

func TestInitialize_StorageReadErrorCountsAsNoSession(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockBackend(ctrl)
	storage := mocks.NewMockStorage(ctrl)

	gomock.InOrder(
		backend.EXPECT().FetchConfig(gomock.Any()).Return(okConfig(`{}`), nil),
		storage.EXPECT().Get(gomock.Any(), domainauth.SnapshotKey).Return(nil, errors.New("disk on fire")),
	)

	s, _ := newTestStore(t, backend, storage)
	res := s.Initialize(context.Background())
	assert.True(t, res.Success)
	assertReady(t, s)
}

func TestInitialize_RunsOnce(t *testing.T) {
	backend := mocksession.NewFakeBackend()
	release := make(chan struct{})
	backend.FetchConfigFunc = func(context.Context) (ports.ConfigResponse, error) {
		<-release
		return okConfig(`{}`), nil
	}
	s, _ := newTestStore(t, backend, memory.NewStorage())

	var wg sync.WaitGroup
	results := make([]Result, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = s.Initialize(context.Background())
		}(i)
	}
	close(release)
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	assert.Equal(t, 1, backend.Calls("FetchConfig"))

	again := s.Initialize(context.Background())
	assert.Equal(t, results[0], again)
	assert.Equal(t, 1, backend.Calls("FetchConfig"))
}

func TestLogin(t *testing.T) {
	backend := mocksession.NewFakeBackend()
	backend.AddUser("alice", "pw", "tok-alice", domainauth.Identity{Email: "alice@example.com", Role: domainauth.RoleUser})
	s, rec := newTestStore(t, backend, memory.NewStorage())

	res := s.Login(context.Background(), "alice", "wrong")
	assert.Equal(t, Result{Success: false, Message: "Incorrect username or password"}, res)
	assert.False(t, s.Snapshot().IsLoggedIn())

	res = s.Login(context.Background(), "", "")
	assert.False(t, res.Success)
	assert.Equal(t, 1, backend.Calls("Login"))

	res = s.Login(context.Background(), "alice", "pw")
	assert.Equal(t, Result{Success: true, Message: "Login token OK!"}, res)
	assert.True(t, s.Snapshot().IsLoggedIn())
	assert.False(t, s.Snapshot().IsAdmin())
	assert.Len(t, rec.Find(metrics.Login), 2)
}

func TestLogoutUser_Idempotent(t *testing.T) {
	backend := mocksession.NewFakeBackend()
	backend.AddUser("alice", "pw", "tok", domainauth.Identity{Email: "alice@example.com", Role: domainauth.RoleUser})
	storage := memory.NewStorage()
	s, _ := newTestStore(t, backend, storage)
	require.True(t, s.Login(context.Background(), "alice", "pw").Success)

	assert.True(t, s.LogoutUser(context.Background()).Success)
	assert.True(t, s.LogoutUser(context.Background()).Success)
	assert.True(t, s.Snapshot().User().IsZero())

	_, err := storage.Get(context.Background(), domainauth.SnapshotKey)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestLogoutUser_StorageFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mocks.NewMockStorage(ctrl)
	storage.EXPECT().Delete(gomock.Any(), domainauth.SnapshotKey).Return(errors.New("read-only"))

	s, _ := newTestStore(t, mocksession.NewFakeBackend(), storage)
	res := s.LogoutUser(context.Background())
	assert.False(t, res.Success)
	assert.False(t, s.Snapshot().IsLoggedIn())
}

func TestLogin_WhileConfigLoadingKeepsInitializing(t *testing.T) {
	backend := mocksession.NewFakeBackend()
	backend.AddUser("alice", "pw", "tok", domainauth.Identity{Email: "alice@example.com", Role: domainauth.RoleUser})
	release := make(chan struct{})
	backend.FetchConfigFunc = func(context.Context) (ports.ConfigResponse, error) {
		<-release
		return okConfig(`{}`), nil
	}
	s, _ := newTestStore(t, backend, memory.NewStorage())

	done := make(chan Result, 1)
	go func() { done <- s.Initialize(context.Background()) }()
	require.Eventually(t, func() bool { return backend.Calls("FetchConfig") == 1 }, time.Second, 5*time.Millisecond)

	require.True(t, s.Login(context.Background(), "alice", "pw").Success)
	assert.True(t, s.Snapshot().IsLoggedIn())
	assert.True(t, s.Snapshot().IsInitializing())
	select {
	case <-s.Ready():
		t.Fatal("ready closed before the configuration resolved")
	default:
	}

	res := s.ValidateToken(context.Background(), "")
	assert.False(t, res.Success)
	assert.True(t, s.Snapshot().IsInitializing())

	close(release)
	<-done
	assertReady(t, s)
	assert.True(t, s.Snapshot().IsConfigLoaded())
	assert.True(t, s.Snapshot().IsLoggedIn())
}

func TestLogin_RefusalSurfacesServerMessage(t *testing.T) {
	backend := mocksession.NewFakeBackend()
	backend.LoginFunc = func(context.Context, string, string) (string, error) {
		return "", &apperrors.AppError{
			Code:    apperrors.ErrCodeValidation,
			Message: "You are not allowed to login (not whitelisted).",
			Status:  400,
		}
	}
	s, _ := newTestStore(t, backend, memory.NewStorage())

	res := s.Login(context.Background(), "bob", "pw")
	assert.Equal(t, Result{Success: false, Message: "You are not allowed to login (not whitelisted)."}, res)
	assert.False(t, s.Snapshot().IsLoggedIn())
	assert.Zero(t, backend.Calls("CheckToken"))
}
