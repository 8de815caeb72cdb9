package devbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/apiclient"
	domainauth "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/auth"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/model"
	apperrors "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/errors"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/settings"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestBackend(t *testing.T, clock *testClock) (*Backend, *httptest.Server) {
	t.Helper()
	cfg := model.DefaultAppConfig()
	cfg.App.Name = "Dev Lab"
	b, err := New(Config{
		Users: []User{
			{Username: "admin", Password: "admin", Email: "admin@example.com", Role: domainauth.RoleAdmin},
			{Username: "user", Password: "user", Email: "user@example.com", Role: domainauth.RoleUser},
		},
		AppConfig: cfg,
	})
	require.NoError(t, err)
	if clock != nil {
		b.now = clock.Now
	}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	return b, srv
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
	_, err = New(Config{Users: []User{{Username: "x"}}})
	assert.Error(t, err)
}

func TestBackend_WithAPIClient(t *testing.T) {
	b, srv := newTestBackend(t, nil)
	client, err := apiclient.New(apiclient.Options{Endpoints: settings.Resolve(srv.URL + "/api")})
	require.NoError(t, err)
	ctx := context.Background()

	cfgResp, err := client.FetchConfig(ctx)
	require.NoError(t, err)
	require.True(t, cfgResp.Status)
	payload, err := model.ParseAppConfigPayload(cfgResp.Data)
	require.NoError(t, err)
	require.NotNil(t, payload.App)
	assert.Equal(t, "Dev Lab", payload.App.Name)

	_, err = client.Login(ctx, "admin", "nope")
	assert.True(t, apperrors.IsValidation(err))

	token, err := client.Login(ctx, "admin", "admin")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	check, err := client.CheckToken(ctx, token)
	require.NoError(t, err)
	assert.True(t, check.Status)
	assert.Equal(t, domainauth.Identity{Email: "admin@example.com", Role: domainauth.RoleAdmin}, check.Identity)

	b.Revoke(token)
	_, err = client.CheckToken(ctx, token)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestBackend_TokenExpiry(t *testing.T) {
	clock := &testClock{now: time.Now()}
	_, srv := newTestBackend(t, clock)

	resp, err := http.PostForm(srv.URL+"/api/user/login", url.Values{
		"grant_type": {"password"},
		"username":   {"user"},
		"password":   {"user"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tok))

	clock.Advance(9 * time.Hour)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/user/check_token", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	check, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer check.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, check.StatusCode)
}

func TestBackend_RejectsBadRequests(t *testing.T) {
	_, srv := newTestBackend(t, nil)

	resp, err := http.Get(srv.URL + "/api/user/check_token")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/user/login", "application/x-www-form-urlencoded",
		strings.NewReader("grant_type=client_credentials&username=user&password=user"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/app/config", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/user/login")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/user/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := bearerToken(r)
	assert.False(t, ok)

	r.Header.Set("Authorization", "bearer  abc ")
	tok, ok := bearerToken(r)
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	r.Header.Set("Authorization", "Basic abc")
	_, ok = bearerToken(r)
	assert.False(t, ok)
}
