package http

import (
	"errors"
	"net/http"

	"github.com/planitee/identity/internal/identity/service"
	"github.com/planitee/identity/pkg/httpx"
	"github.com/planitee/identity/pkg/slogx"
)

type PasswordResetHandler struct {
	VerificationService *service.VerificationService
	UserService         *service.UserService
}

// HandleSendCode godoc
//
//	@Summary		Send Password Reset Code Endpoint
//	@Description	Issue a fresh reset code against an existing account and email it.
//	@Tags			PasswordReset
//	@Accept			json
//	@Produce		json
//	@Param			request	body	SendCodeRequest	true	"email"
//	@Success		204		"code issued and mailed"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		502		{object}	httpx.ErrorResponse	"error, error_description"
//	@Router			/v1/password-reset/send-code [post].
func (h *PasswordResetHandler) HandleSendCode(w http.ResponseWriter, r *http.Request) {
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

	if err := h.VerificationService.SendPasswordResetCode(ctx, req.Email); err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, httpx.ErrorResponse{
				Error:            "not_found",
				ErrorDescription: "No account for this email",
			})
		case errors.Is(err, service.ErrDispatchFailed):
			httpx.WriteJSON(w, http.StatusBadGateway, httpx.ErrorResponse{
				Error:            "dispatch_failed",
				ErrorDescription: "Could not deliver the reset email",
			})
		default:
			log.Error("failed to send reset code", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to issue reset code",
			})
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleVerify godoc
//
//	@Summary		Verify Password Reset Code Endpoint
//	@Description	Check a reset code against the account; on success the new password is
//	@Description	applied and the code record removed.
//	@Tags			PasswordReset
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ResetVerifyRequest	true	"email, code, new_password"
//	@Success		200		{object}	VerifyCodeResponse	"verified"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		410		{object}	httpx.ErrorResponse	"error, error_description"
//	@Router			/v1/password-reset/verify [post].
func (h *PasswordResetHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req ResetVerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	verified, err := h.VerificationService.CheckPasswordResetCode(ctx, req.Email, req.Code)
	if err != nil {
		writeVerificationError(w, log, err)
		return
	}

	if verified {
		if err := h.UserService.UpdatePassword(ctx, req.Email, req.NewPassword); err != nil {
			log.Error("failed to apply new password", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to update password",
			})
			return
		}
	}

	httpx.WriteJSON(w, http.StatusOK, VerifyCodeResponse{Verified: verified})
}
