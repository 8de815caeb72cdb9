// Package interceptor observes every backend response and forces a logout
// when the backend rejects the session credential.
package interceptor

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/metrics"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/statsd"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/router"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/store"
)

const (
	// ExpiredMessage is shown when a rejected credential forces a logout.
	ExpiredMessage = "Your session has expired. Please log in again."
	ExpiredColor   = "red"
)

// Session is the part of the store the interceptor mutates.
type Session interface {
	LogoutUser(ctx context.Context) store.Result
	ShowMessage(in store.MessageInput) error
}

// Navigator is the part of the router the interceptor drives.
type Navigator interface {
	CurrentPath() string
	Push(ctx context.Context, path string) error
}

// Options configures an Interceptor.
type Options struct {
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Interceptor is an http.RoundTripper. Responses and transport errors pass through
// unchanged; 401 and 403 additionally log the user out.
type Interceptor struct {
	next    http.RoundTripper
	logger  *slog.Logger
	metrics statsd.Sink

	mu      sync.RWMutex
	session Session
	nav     Navigator

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ http.RoundTripper = (*Interceptor)(nil)

// New wraps next (http.DefaultTransport when nil). Call Bind before responses can force a logout.
func New(next http.RoundTripper, opts Options) *Interceptor {
	if next == nil {
		next = http.DefaultTransport
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Interceptor{
		next:    next,
		logger:  logger.With("component", "interceptor"),
		metrics: opts.Metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Bind attaches the store and router once they exist.
func (i *Interceptor) Bind(session Session, nav Navigator) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.session = session
	i.nav = nav
}

// RoundTrip forwards req and forces a logout when the response rejects the credential.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := i.next.RoundTrip(req)
	if err != nil || resp == nil {
		return resp, err
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		i.handleRejected(req, resp.StatusCode)
	}
	return resp, nil
}

func (i *Interceptor) handleRejected(req *http.Request, status int) {
	i.mu.RLock()
	session, nav := i.session, i.nav
	i.mu.RUnlock()

	ctx := context.WithoutCancel(req.Context())
	if session == nil {
		i.logger.WarnContext(ctx, "credential rejected before interceptor was bound", "status", status, "url", req.URL.String())
		return
	}

	i.logger.InfoContext(ctx, "credential rejected, logging out", "status", status, "url", req.URL.String())
	session.LogoutUser(ctx)

	redirect := false
	if nav != nil {
		switch nav.CurrentPath() {
		case router.PathLogin, router.PathLogout:
		default:
			redirect = true
		}
	}
	outcome := "in_place"
	if redirect {
		outcome = "redirected"
	}
	metrics.Emit(i.metrics, metrics.SessionMetric{
		Name:    metrics.ForcedLogout,
		Result:  metrics.ResultSuccess,
		Outcome: outcome,
		Tags:    map[string]string{"status": strconv.Itoa(status)},
	})
	if !redirect {
		return
	}

	if err := session.ShowMessage(store.MessageInput{Text: ExpiredMessage, Color: ExpiredColor}); err != nil {
		i.logger.WarnContext(ctx, "failed to show expiry message", "error", err)
	}

	// The guard waits for store readiness; a response seen during boot must not block on it.
	i.wg.Add(1)
	go func() {
		defer i.wg.Done()
		if err := nav.Push(i.ctx, router.PathLogin); err != nil {
			i.logger.WarnContext(i.ctx, "redirect to login failed", "error", err)
		}
	}()
}

// Wait blocks until every pending redirect has finished.
func (i *Interceptor) Wait() {
	i.wg.Wait()
}

// Close cancels pending redirects and waits for them.
func (i *Interceptor) Close() {
	i.cancel()
	i.wg.Wait()
}
