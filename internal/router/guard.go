package router

import (
	"context"
	"log/slog"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/metrics"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/statsd"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/store"
)

// SessionReader is the read-only view of the session store the guard needs.
type SessionReader interface {
	Ready() <-chan struct{}
	Snapshot() store.State
}

// Decision is the guard's verdict for one navigation step.
type Decision struct {
	Allow    bool
	Redirect string
	Reason   string
}

// Guard decides whether a navigation may proceed. It never evaluates before
// the session has finished initializing.
type Guard struct {
	session SessionReader
	logger  *slog.Logger
	metrics statsd.Sink
}

// NewGuard creates a guard reading from session.
func NewGuard(session SessionReader, logger *slog.Logger, sink statsd.Sink) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{session: session, logger: logger, metrics: sink}
}

// Evaluate waits for readiness (or ctx) and then applies the access rules to to.
func (g *Guard) Evaluate(ctx context.Context, to Location) (Decision, error) {
	select {
	case <-g.session.Ready():
	case <-ctx.Done():
		return Decision{}, ctx.Err()
	}

	d := decide(g.session.Snapshot(), to)

	outcome := "allow"
	if !d.Allow {
		outcome = "redirect"
	}
	metrics.Emit(g.metrics, metrics.SessionMetric{
		Name:    metrics.Navigation,
		Result:  metrics.ResultSuccess,
		Outcome: outcome,
		Tags:    map[string]string{"route": to.Name, "reason": d.Reason},
	})
	g.logger.DebugContext(ctx, "navigation evaluated",
		"path", to.Path,
		"route", to.Name,
		"allow", d.Allow,
		"redirect", d.Redirect,
		"reason", d.Reason)
	return d, nil
}

func decide(st store.State, to Location) Decision {
	loggedIn := st.IsLoggedIn()

	if to.RequiresAuth() && !loggedIn {
		return Decision{Redirect: PathLogin, Reason: "auth_required"}
	}
	if to.RequiresAdmin() && !st.IsAdmin() {
		if loggedIn {
			return Decision{Redirect: PathUserReservations, Reason: "admin_required"}
		}
		return Decision{Redirect: PathLogin, Reason: "auth_required"}
	}
	if to.Path == PathLogin && loggedIn {
		return Decision{Redirect: PathUserReservations, Reason: "already_logged_in"}
	}
	return Decision{Allow: true, Reason: "allowed"}
}
