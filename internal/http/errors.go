package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/clipsyelt-svg/Project/internal/errors"
)

const (
	msgUnavailable = "The service is temporarily unavailable. Please try again."
	msgTimeout     = "The request timed out. Please try again."
	msgInternal    = "Internal server error"
)

// statusForCode maps application error codes to HTTP statuses.
var statusForCode = map[apperrors.ErrorCode]int{ //nolint:gochecknoglobals // read-only lookup table
	apperrors.ErrCodeMalformedRequest: http.StatusBadRequest,
	apperrors.ErrCodeMalformedURL:     http.StatusBadRequest,
	apperrors.ErrCodeUnsupportedHost:  http.StatusBadRequest,
	apperrors.ErrCodeValidation:       http.StatusBadRequest,
	apperrors.ErrCodeNotFound:         http.StatusNotFound,
	apperrors.ErrCodeAlreadyFinished:  http.StatusConflict,
	apperrors.ErrCodeConflict:         http.StatusConflict,
	apperrors.ErrCodeRateLimited:      http.StatusTooManyRequests,
	apperrors.ErrCodeStoreUnavailable: http.StatusServiceUnavailable,
	apperrors.ErrCodeCanceled:         http.StatusServiceUnavailable,
	apperrors.ErrCodeTimeout:          http.StatusGatewayTimeout,
	apperrors.ErrCodeInternal:         http.StatusInternalServerError,
}

// ErrorStatus resolves err to an HTTP status and error code.
func ErrorStatus(err error) (int, apperrors.ErrorCode) {
	code := apperrors.GetCode(err)
	if status, ok := statusForCode[code]; ok {
		return status, code
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, apperrors.ErrCodeTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, apperrors.ErrCodeCanceled
	default:
		return http.StatusInternalServerError, apperrors.ErrCodeInternal
	}
}

// writeServiceError renders err as a JSON error. AppErrors carry their own
// user-facing message; anything else gets a generic, retryable message.
// Server-side failures are logged with the full cause.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := ErrorStatus(err)

	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error_code", code,
			"error", err,
		)
	}

	WriteJSON(w, status, errorBody{Error: string(code), Message: clientMessage(err, status), Field: apperrors.GetField(err)})
}

func clientMessage(err error, status int) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" && appErr.Code != apperrors.ErrCodeInternal {
		return appErr.Message
	}
	switch status {
	case http.StatusServiceUnavailable:
		return msgUnavailable
	case http.StatusGatewayTimeout:
		return msgTimeout
	default:
		return msgInternal
	}
}
