package store

import (
	"context"
	"errors"
	"time"

	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/domain/model"
	apperrors "github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/errors"
	"github.com/Satakunnan-ammattikorkeakoulu/containers-on-the-fly/internal/observability/metrics"
)

const (
	msgConfigFailed      = "Failed to load application configuration"
	msgConfigErrorPrefix = "Error loading app configuration: "
	msgUnreachable       = "Unable to connect to server"
)

// LoadAppConfig fetches the public configuration and records the outcome in state.
// A failure is terminal: ConfigLoaded stays false and the error is surfaced
// through HasConfigError/ConfigErrorMessage.
func (s *Store) LoadAppConfig(ctx context.Context) Result {
	start := time.Now()
	resp, err := s.backend.FetchConfig(ctx)

	var (
		outcome string
		msg     string
		cfg     model.AppConfig
	)
	switch {
	case err != nil:
		outcome = "transport"
		msg = msgConfigErrorPrefix + transportDetail(err)
	case !resp.Status:
		outcome = "rejected"
		msg = firstNonEmpty(resp.Message, msgConfigFailed)
	default:
		payload, perr := model.ParseAppConfigPayload(resp.Data)
		if perr != nil {
			err = perr
			outcome = "invalid"
			msg = msgConfigErrorPrefix + perr.Error()
			break
		}
		cfg = payload.Apply(s.Snapshot().config)
		if verr := cfg.Validate(); verr != nil {
			err = verr
			outcome = "invalid"
			msg = msgConfigErrorPrefix + verr.Error()
		}
	}

	if msg != "" {
		s.logger.ErrorContext(ctx, "failed to load app config", "outcome", outcome, "message", msg, "error", err)
		s.update(func(st *State) {
			st.configAttempted = true
			st.configError = true
			st.configErrorMessage = msg
			st.configLoaded = false
		})
		metrics.Emit(s.metrics, metrics.SessionMetric{
			Name:     metrics.ConfigLoad,
			Result:   metrics.ResultError,
			Outcome:  outcome,
			Duration: time.Since(start),
			Err:      err,
		})
		return Result{Success: false, Message: msg}
	}

	s.update(func(st *State) {
		st.config = cfg
		st.configAttempted = true
		st.configLoaded = true
		st.configError = false
		st.configErrorMessage = ""
	})
	s.logger.InfoContext(ctx, "app config loaded", "app_name", cfg.App.Name)
	metrics.Emit(s.metrics, metrics.SessionMetric{
		Name:     metrics.ConfigLoad,
		Result:   metrics.ResultSuccess,
		Outcome:  "loaded",
		Duration: time.Since(start),
	})
	return Result{Success: true, Message: "App configuration loaded."}
}

// ClearConfigError resets the error flag and message. It never marks the config as loaded.
func (s *Store) ClearConfigError() {
	s.update(func(st *State) {
		st.configError = false
		st.configErrorMessage = ""
	})
}

// transportDetail picks the server message, then the error text, then a generic fallback.
func transportDetail(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Status > 0 && appErr.Message != "" {
			return appErr.Message
		}
		if appErr.Code == apperrors.ErrCodeUnavailable {
			return msgUnreachable
		}
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return msgUnreachable
}
