// Package apiclient talks to the reservation backend over HTTP.
// It implements ports.Backend; every request carries a fresh X-Request-ID.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"

	domainauth "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/auth"
	apperrors "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/errors"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/ports"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/settings"
)

const (
	// RequestIDHeader is set on every outbound request.
	RequestIDHeader = "X-Request-ID"
	// DefaultUserAgent identifies the client when Options.UserAgent is empty.
	DefaultUserAgent = "cotf-console"

	maxBodyBytes = 1 << 20

	msgLoginRejected = "Login was rejected."
)

// Options configures a Client.
type Options struct {
	Endpoints settings.Endpoints
	// Transport is the base round tripper (normally the response interceptor).
	// Defaults to http.DefaultTransport.
	Transport http.RoundTripper
	// Timeout bounds each request; zero means no timeout.
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
}

// Client is the HTTP implementation of ports.Backend.
type Client struct {
	endpoints settings.Endpoints
	http      *http.Client
	logger    *slog.Logger
}

// New builds a Client. The cookie jar is scoped by the public suffix list.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Endpoints.BaseAddress) == "" {
		return nil, apperrors.ValidationField("base_address", "backend base address is required")
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	base := opts.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = DefaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	hc := &http.Client{
		Transport: &headerTransport{next: base, userAgent: ua},
		Jar:       jar,
		Timeout:   opts.Timeout,
	}

	return &Client{
		endpoints: opts.Endpoints,
		http:      hc,
		logger:    logger,
	}, nil
}

// HTTPClient exposes the configured client for callers issuing other API calls.
func (c *Client) HTTPClient() *http.Client { return c.http }

// FetchConfig loads the public application configuration envelope.
func (c *Client) FetchConfig(ctx context.Context) (ports.ConfigResponse, error) {
	var out ports.ConfigResponse
	if err := c.doJSON(ctx, c.endpoints.App.GetConfig, "", &out); err != nil {
		return ports.ConfigResponse{}, err
	}
	return out, nil
}

type checkTokenResponse struct {
	Status bool `json:"status"`
	Data   *struct {
		Email string          `json:"email"`
		Role  domainauth.Role `json:"role"`
	} `json:"data"`
}

// CheckToken verifies token against the backend.
func (c *Client) CheckToken(ctx context.Context, token string) (ports.TokenCheck, error) {
	var resp checkTokenResponse
	if err := c.doJSON(ctx, c.endpoints.User.CheckToken, token, &resp); err != nil {
		return ports.TokenCheck{}, err
	}
	if !resp.Status {
		return ports.TokenCheck{Status: false}, nil
	}
	out := ports.TokenCheck{Status: true}
	if resp.Data != nil {
		out.Identity = domainauth.Identity{Email: resp.Data.Email, Role: resp.Data.Role}
	}
	return out, nil
}

// loginResponse is the OAuth2 token response. The backend may instead answer
// 200 with {status:false, message} when it refuses the user.
type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Status      *bool  `json:"status"`
	Message     string `json:"message"`
}

// Login exchanges credentials for a login token using the OAuth2 password grant form.
// A refusal carried in a 200 envelope is returned as a validation error with status 400.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	form := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
	var resp loginResponse
	if err := c.doForm(ctx, c.endpoints.User.Login, form, &resp); err != nil {
		return "", err
	}
	if resp.Status != nil && !*resp.Status {
		msg := strings.TrimSpace(resp.Message)
		if msg == "" {
			msg = msgLoginRejected
		}
		return "", &apperrors.AppError{
			Code:    apperrors.ErrCodeValidation,
			Message: msg,
			Status:  http.StatusBadRequest,
		}
	}
	if resp.AccessToken == "" {
		return "", apperrors.Internal("login response missing access_token")
	}
	return resp.AccessToken, nil
}

func (c *Client) doJSON(ctx context.Context, ep settings.Endpoint, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, ep.Method, ep.URL, nil)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "build request %s %s", ep.Method, ep.URL)
	}
	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(req)
	}
	return c.do(ctx, ep, req, out)
}

func (c *Client) doForm(ctx context.Context, ep settings.Endpoint, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, ep.Method, ep.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "build request %s %s", ep.Method, ep.URL)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(ctx, ep, req, out)
}

// do sends req and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, ep settings.Endpoint, req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.MapTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return apperrors.MapTransportError(err)
	}

	c.logger.DebugContext(ctx, "backend response",
		"method", ep.Method,
		"url", ep.URL,
		"status", resp.StatusCode,
		"request_id", req.Header.Get(RequestIDHeader))

	if appErr := apperrors.FromStatus(resp.StatusCode, errorDetail(body)); appErr != nil {
		return appErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "decode response from %s", ep.URL)
	}
	return nil
}

// errorDetail extracts "detail" (FastAPI) or "message" (envelope) from an error body.
func errorDetail(body []byte) string {
	var payload struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if len(payload.Detail) > 0 {
		var s string
		if json.Unmarshal(payload.Detail, &s) == nil {
			return s
		}
		return string(payload.Detail)
	}
	return payload.Message
}

// headerTransport stamps User-Agent on outbound requests, and a request id
// when the caller did not set one.
type headerTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if r.Header.Get(RequestIDHeader) == "" {
		r.Header.Set(RequestIDHeader, uuid.NewString())
	}
	if r.Header.Get("User-Agent") == "" {
		r.Header.Set("User-Agent", t.userAgent)
	}
	return t.next.RoundTrip(r)
}
