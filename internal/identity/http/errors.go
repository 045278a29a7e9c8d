package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/planitee/identity/internal/identity/service"
	"github.com/planitee/identity/pkg/httpx"
)

// writeVerificationError maps the code-check sentinels shared by the
// registration and password-reset verify endpoints.
func writeVerificationError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrPendingNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, httpx.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "No pending registration for this email",
		})
	case errors.Is(err, service.ErrUserNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, httpx.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "No account for this email",
		})
	case errors.Is(err, service.ErrVerificationNotFound):
		httpx.WriteJSON(w, http.StatusNotFound, httpx.ErrorResponse{
			Error:            "not_found",
			ErrorDescription: "No verification code outstanding",
		})
	case errors.Is(err, service.ErrCodeExpired):
		httpx.WriteJSON(w, http.StatusGone, httpx.ErrorResponse{
			Error:            "expired",
			ErrorDescription: "Verification code has expired; request a new one",
		})
	case errors.Is(err, service.ErrTooManyAttempts):
		httpx.WriteJSON(w, http.StatusTooManyRequests, httpx.ErrorResponse{
			Error:            "too_many_attempts",
			ErrorDescription: "Attempt limit reached; request a new code",
		})
	default:
		log.Error("verification check failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to check verification code",
		})
	}
}
