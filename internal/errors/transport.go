package errors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
)

// FromStatus maps a non-2xx backend response to an AppError.
// detail is the server supplied explanation (FastAPI "detail" or envelope "message").
// Returns nil for 2xx statuses.
func FromStatus(status int, detail string) *AppError {
	if status >= 200 && status < 300 {
		return nil
	}

	msg := strings.TrimSpace(detail)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = "unexpected response"
	}

	var code ErrorCode
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		code = ErrCodeValidation
	case status == http.StatusUnauthorized:
		code = ErrCodeUnauthorized
	case status == http.StatusForbidden:
		code = ErrCodeForbidden
	case status == http.StatusNotFound:
		code = ErrCodeNotFound
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		code = ErrCodeTimeout
	case status >= 500:
		code = ErrCodeUnavailable
	default:
		code = ErrCodeInternal
	}

	return &AppError{
		Code:    code,
		Message: msg,
		Status:  status,
	}
}

// MapTransportError maps errors returned by an http.Client round trip to AppError instances.
// It handles common transport error patterns including:
// - context.Canceled → Canceled
// - context.DeadlineExceeded and net timeouts → Timeout
// - other net errors → Unavailable
//
// AppErrors pass through unchanged.
func MapTransportError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return Wrap(err, ErrCodeCanceled, "request canceled")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(err, ErrCodeTimeout, "request timed out")
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Wrap(err, ErrCodeTimeout, "request timed out")
	}

	return Wrap(err, ErrCodeUnavailable, "backend unavailable")
}
