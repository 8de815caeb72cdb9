// Package store owns the client session: remote configuration, the
// authenticated identity, initialization progress and the global message.
//
// Readers load an immutable State snapshot without locking. Writers are
// serialized, publish a fresh State and notify subscribers.
package store

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/statsd"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/ports"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/settings"
)

// Result is the outcome of every store operation that talks to the backend.
type Result struct {
	Success bool
	Message string
}

// Options groups dependencies for Store.
type Options struct {
	Backend  ports.Backend
	Storage  ports.Storage
	Defaults settings.Defaults
	Logger   *slog.Logger
	Metrics  statsd.Sink
	// Now overrides the clock used for LoggedInAt.
	Now func() time.Time
}

// Store is the session state container.
type Store struct {
	backend ports.Backend
	storage ports.Storage
	logger  *slog.Logger
	metrics statsd.Sink
	now     func() time.Time

	mu    sync.Mutex
	state atomic.Pointer[State]

	ready     chan struct{}
	readyOnce sync.Once

	initOnce   sync.Once
	initResult Result

	subsMu  sync.Mutex
	subs    map[int]chan State
	nextSub int
}

// New constructs a Store in its initial (initializing, defaults-only) state.
func New(opts Options) (*Store, error) {
	if opts.Backend == nil {
		return nil, errors.New("store: backend is required")
	}
	if opts.Storage == nil {
		return nil, errors.New("store: storage is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Store{
		backend: opts.Backend,
		storage: opts.Storage,
		logger:  logger.With("component", "store"),
		metrics: opts.Metrics,
		now:     now,
		ready:   make(chan struct{}),
		subs:    make(map[int]chan State),
	}
	initial := initialState(opts.Defaults)
	s.state.Store(&initial)
	return s, nil
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	return *s.state.Load()
}

// Ready returns a channel closed once initialization has finished.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Subscribe returns a channel that receives every published State.
// Slow readers only see the latest value. cancel closes the channel.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// update applies fn to a copy of the current state and publishes the result.
func (s *Store) update(fn func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := *s.state.Load()
	fn(&next)
	s.state.Store(&next)

	if !next.initializing {
		s.readyOnce.Do(func() { close(s.ready) })
	}
	s.publish(next)
	return next
}

func (s *Store) publish(st State) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- st:
			continue
		default:
		}
		// Drop the stale value so the newest one fits.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}

// finishInitializing flips the initializing flag off once a configuration
// load has resolved. It never flips back.
func (s *Store) finishInitializing() {
	st := s.Snapshot()
	if !st.initializing || !st.configAttempted {
		return
	}
	s.update(func(st *State) { st.initializing = false })
}
