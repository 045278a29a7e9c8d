package http

import (
	"errors"
	"net/http"

	"github.com/planitee/identity/internal/identity/service"
	"github.com/planitee/identity/pkg/httpx"
	"github.com/planitee/identity/pkg/slogx"
)

type RegisterFinalizeHandler struct {
	RegistrationService *service.RegistrationService
}

// ServeHTTP godoc
//
//	@Summary		Finalize Registration Endpoint
//	@Description	Promote a pending registration to a durable account, attaching the
//	@Description	optional profile fields. The staged row and its verification records
//	@Description	are removed in the same transaction.
//	@Tags			Registration
//	@Accept			json
//	@Produce		json
//	@Param			request	body		FinalizeRequest		true	"email plus optional profile fields"
//	@Success		201		{object}	UserResponse		"id, email, nickname, profile"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		409		{object}	httpx.ErrorResponse	"error, error_description"
//	@Router			/v1/register/finalize [post].
func (h *RegisterFinalizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req FinalizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.RegistrationService.Finalize(ctx, req.Email, req.Profile())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPendingNotFound):
			httpx.WriteJSON(w, http.StatusNotFound, httpx.ErrorResponse{
				Error:            "not_found",
				ErrorDescription: "No pending registration for this email",
			})
		case errors.Is(err, service.ErrNicknameTaken):
			httpx.WriteJSON(w, http.StatusConflict, httpx.ErrorResponse{
				Error:            "conflict",
				ErrorDescription: "Nickname is already taken",
			})
		default:
			log.Error("failed to finalize registration", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to finalize registration",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, newUserResponse(user))
}
