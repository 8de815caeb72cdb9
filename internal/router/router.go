// Package router resolves navigation targets and runs every navigation
// through the guard, following redirects until a location is allowed.
package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/statsd"
)

// MaxRedirects bounds the guard redirect chain of a single navigation.
const MaxRedirects = 10

var (
	// ErrNavigationDuplicated is returned when the target is already the current location.
	ErrNavigationDuplicated = errors.New("navigation duplicated")
	// ErrNavigationCancelled is returned when a newer navigation started before this one finished.
	ErrNavigationCancelled = errors.New("navigation cancelled")
	// ErrRedirectLoop is returned when redirects exceed MaxRedirects.
	ErrRedirectLoop = errors.New("too many redirects")
)

// Options groups dependencies for Router.
type Options struct {
	Session SessionReader
	// Routes defaults to DefaultRoutes().
	Routes  []Route
	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Router holds the current location and serializes its updates.
type Router struct {
	table  *Table
	guard  *Guard
	logger *slog.Logger

	latest atomic.Uint64

	mu      sync.RWMutex
	current Location
	started bool
}

// New builds a Router positioned at the initial location "/".
func New(opts Options) (*Router, error) {
	if opts.Session == nil {
		return nil, errors.New("router: session is required")
	}
	routes := opts.Routes
	if routes == nil {
		routes = DefaultRoutes()
	}
	table, err := NewTable(routes)
	if err != nil {
		return nil, fmt.Errorf("build route table: %w", err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "router")

	return &Router{
		table:   table,
		guard:   NewGuard(opts.Session, logger, opts.Metrics),
		logger:  logger,
		current: table.Resolve(PathLogin),
	}, nil
}

// Current returns the committed location.
func (r *Router) Current() Location {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// CurrentPath returns the committed path.
func (r *Router) CurrentPath() string {
	return r.Current().Path
}

// Resolve matches a path without navigating.
func (r *Router) Resolve(path string) Location {
	return r.table.Resolve(path)
}

// Navigate runs the guard for path, following redirects, and commits the final location.
// It blocks until the session is ready or ctx is done.
func (r *Router) Navigate(ctx context.Context, path string) (Location, error) {
	seq := r.latest.Add(1)
	target := r.table.Resolve(path)

	if r.isCurrent(target.Path) {
		return target, fmt.Errorf("%w: %s", ErrNavigationDuplicated, target.Path)
	}

	for hops := 0; ; hops++ {
		if hops > MaxRedirects {
			return target, fmt.Errorf("%w: navigating to %s", ErrRedirectLoop, path)
		}

		d, err := r.guard.Evaluate(ctx, target)
		if err != nil {
			return target, err
		}
		if r.latest.Load() != seq {
			return target, fmt.Errorf("%w: %s", ErrNavigationCancelled, target.Path)
		}
		if d.Allow {
			break
		}
		target = r.table.Resolve(d.Redirect)
	}

	return r.commit(seq, target)
}

// Push navigates and discards only ErrNavigationDuplicated.
func (r *Router) Push(ctx context.Context, path string) error {
	_, err := r.Navigate(ctx, path)
	if errors.Is(err, ErrNavigationDuplicated) {
		return nil
	}
	return err
}

func (r *Router) isCurrent(path string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.started && r.current.Path == path
}

func (r *Router) commit(seq uint64, to Location) (Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.latest.Load() != seq {
		return to, fmt.Errorf("%w: %s", ErrNavigationCancelled, to.Path)
	}
	if r.started && r.current.Path == to.Path {
		return to, fmt.Errorf("%w: %s", ErrNavigationDuplicated, to.Path)
	}

	from := r.current.Path
	r.current = to
	r.started = true
	r.logger.Info("navigated", "from", from, "to", to.Path, "route", to.Name)
	return to, nil
}
