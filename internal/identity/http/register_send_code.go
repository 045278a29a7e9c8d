package http

import (
	"errors"
	"net/http"

	"github.com/planitee/identity/internal/identity/service"
	"github.com/planitee/identity/pkg/httpx"
	"github.com/planitee/identity/pkg/slogx"
)

type RegisterSendCodeHandler struct {
	VerificationService *service.VerificationService
}

// ServeHTTP godoc
//
//	@Summary		Send Registration Code Endpoint
//	@Description	Issue a fresh verification code for a pending registration and email it.
//	@Description	Reissuing invalidates any outstanding code and resets the attempt counter.
//	@Tags			Registration
//	@Accept			json
//	@Produce		json
//	@Param			request	body	SendCodeRequest	true	"email"
//	@Success		204		"code issued and mailed"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		502		{object}	httpx.ErrorResponse	"error, error_description"
//	@Router			/v1/register/send-code [post].
func (h *RegisterSendCodeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req SendCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.VerificationService.SendRegistrationCode(ctx, req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrPendingNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, httpx.ErrorResponse{
				Error:            "not_found",
				ErrorDescription: "No pending registration for this email",
			})
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteJSON(w, http.StatusConflict, httpx.ErrorResponse{
				Error:            "conflict",
				ErrorDescription: "Email is already registered",
			})
		case errors.Is(err, service.ErrDispatchFailed):
			httpx.WriteJSON(w, http.StatusBadGateway, httpx.ErrorResponse{
				Error:            "dispatch_failed",
				ErrorDescription: "Could not deliver the verification email",
			})
		default:
			log.Error("failed to send registration code", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to issue verification code",
			})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
