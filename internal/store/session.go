package store

import (
	"context"
	"errors"
	"strings"
	"time"

	domainauth "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/auth"
	apperrors "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/errors"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/metrics"
)

const (
	msgTokenMissing   = "loginToken was missing"
	msgTokenOK        = "Login token OK!"
	msgTokenInvalid   = "Invalid login token."
	msgUnknownError   = "Unknown error."
	msgNoSession      = "No stored session."
	msgLoggedOut      = "Logged out."
	msgCredsMissing   = "Username and password are required."
	msgLogoutDegraded = "Logged out, but the stored session could not be removed."
)

// Initialize loads the configuration and restores a persisted session, once.
// Later calls wait for and return the first outcome. Ready() is closed when it finishes.
func (s *Store) Initialize(ctx context.Context) Result {
	s.initOnce.Do(func() {
		start := time.Now()
		s.initResult = s.initialize(ctx)
		s.finishInitializing()

		result := metrics.ResultSuccess
		if !s.initResult.Success {
			result = metrics.ResultError
		}
		metrics.Emit(s.metrics, metrics.SessionMetric{
			Name:     metrics.Initialize,
			Result:   result,
			Duration: time.Since(start),
		})
		s.logger.InfoContext(ctx, "store initialized",
			"success", s.initResult.Success,
			"message", s.initResult.Message,
			"logged_in", s.Snapshot().IsLoggedIn())
	})
	return s.initResult
}

func (s *Store) initialize(ctx context.Context) Result {
	if res := s.LoadAppConfig(ctx); !res.Success {
		return res
	}

	snap, ok := s.readSnapshot(ctx)
	if !ok {
		return Result{Success: true, Message: msgNoSession}
	}
	return s.ValidateToken(ctx, snap.LoginToken)
}

// readSnapshot returns the persisted snapshot. Absent, unreadable and malformed
// records all count as "no session".
func (s *Store) readSnapshot(ctx context.Context) (domainauth.Snapshot, bool) {
	data, err := s.storage.Get(ctx, domainauth.SnapshotKey)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.WarnContext(ctx, "failed to read stored session", "error", err)
		}
		return domainauth.Snapshot{}, false
	}

	snap, err := domainauth.DecodeSnapshot(data)
	if err != nil {
		s.logger.WarnContext(ctx, "ignoring malformed stored session", "error", err)
		return domainauth.Snapshot{}, false
	}
	return snap, true
}

// ValidateToken checks token with the backend and updates the session from the answer.
// Every outcome clears the initializing flag, provided the configuration load
// has already resolved.
func (s *Store) ValidateToken(ctx context.Context, token string) Result {
	if token == "" {
		s.finishInitializing()
		s.emitTokenCheck("missing", metrics.ResultNoop, nil)
		return Result{Success: false, Message: msgTokenMissing}
	}

	check, err := s.backend.CheckToken(ctx, token)
	switch {
	case err == nil && check.Status:
		now := s.now()
		sess := domainauth.Session{
			Token:      token,
			Email:      check.Identity.Email,
			Role:       check.Identity.Role,
			LoggedInAt: &now,
		}
		s.update(func(st *State) {
			st.session = sess
			if st.configAttempted {
				st.initializing = false
			}
		})
		s.persist(ctx, sess)
		s.logger.InfoContext(ctx, "login token accepted", "email", sess.Email, "role", string(sess.Role))
		s.emitTokenCheck("valid", metrics.ResultSuccess, nil)
		return Result{Success: true, Message: msgTokenOK}

	case err == nil, apperrors.IsUnauthorized(err):
		s.logger.InfoContext(ctx, "invalid login token, logging out", "error", err)
		s.LogoutUser(ctx)
		s.finishInitializing()
		s.emitTokenCheck("invalid", metrics.ResultSuccess, nil)
		return Result{Success: false, Message: msgTokenInvalid}

	case apperrors.GetStatus(err) == 400:
		s.finishInitializing()
		s.emitTokenCheck("rejected", metrics.ResultError, err)
		return Result{Success: false, Message: errorMessage(err)}

	default:
		s.logger.ErrorContext(ctx, "token check failed", "error", err)
		s.finishInitializing()
		s.emitTokenCheck("error", metrics.ResultError, err)
		return Result{Success: false, Message: msgUnknownError}
	}
}

// Login exchanges credentials for a token and validates it.
func (s *Store) Login(ctx context.Context, username, password string) Result {
	if strings.TrimSpace(username) == "" || password == "" {
		return Result{Success: false, Message: msgCredsMissing}
	}

	start := time.Now()
	token, err := s.backend.Login(ctx, username, password)
	if err != nil {
		s.logger.WarnContext(ctx, "login failed", "username", username, "error", err)
		metrics.Emit(s.metrics, metrics.SessionMetric{
			Name:     metrics.Login,
			Result:   metrics.ResultError,
			Duration: time.Since(start),
			Err:      err,
		})
		if apperrors.GetStatus(err) == 400 {
			return Result{Success: false, Message: errorMessage(err)}
		}
		return Result{Success: false, Message: msgUnknownError}
	}

	res := s.ValidateToken(ctx, token)
	result := metrics.ResultSuccess
	if !res.Success {
		result = metrics.ResultError
	}
	metrics.Emit(s.metrics, metrics.SessionMetric{
		Name:     metrics.Login,
		Result:   result,
		Duration: time.Since(start),
	})
	return res
}

// LogoutUser clears the session and removes the persisted snapshot. Safe to repeat.
func (s *Store) LogoutUser(ctx context.Context) Result {
	s.update(func(st *State) { st.session = domainauth.Session{} })

	if err := s.storage.Delete(ctx, domainauth.SnapshotKey); err != nil {
		s.logger.WarnContext(ctx, "failed to remove stored session", "error", err)
		return Result{Success: false, Message: msgLogoutDegraded}
	}
	return Result{Success: true, Message: msgLoggedOut}
}

func (s *Store) persist(ctx context.Context, sess domainauth.Session) {
	data, err := domainauth.EncodeSnapshot(sess.Snapshot())
	if err == nil {
		err = s.storage.Set(ctx, domainauth.SnapshotKey, data)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to persist session", "error", err)
	}
}

func (s *Store) emitTokenCheck(outcome, result string, err error) {
	metrics.Emit(s.metrics, metrics.SessionMetric{
		Name:    metrics.TokenCheck,
		Result:  result,
		Outcome: outcome,
		Err:     err,
	})
}

// errorMessage returns the backend-supplied text of an AppError.
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return msgUnknownError
}
