package http

import (
	"errors"
	"net/http"

	"github.com/planitee/identity/internal/identity/service"
	"github.com/planitee/identity/pkg/httpx"
	"github.com/planitee/identity/pkg/slogx"
)

type RegisterStartHandler struct {
	RegistrationService *service.RegistrationService
}

// ServeHTTP godoc
//
//	@Summary		Start Registration Endpoint
//	@Description	Stage a new registration behind an email uniqueness check. No code is sent yet.
//	@Tags			Registration
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterStartRequest	true	"email, password, nickname"
//	@Success		201		{object}	RegisterStartResponse	"email, nickname"
//	@Failure		400		{object}	httpx.ErrorResponse		"error, error_description"
//	@Failure		409		{object}	httpx.ErrorResponse		"error, error_description"
//	@Router			/v1/register/start [post].
func (h *RegisterStartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req RegisterStartRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	pending, err := h.RegistrationService.Start(ctx, req.Email, req.Password, req.Nickname)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			httpx.WriteJSON(w, http.StatusBadRequest, httpx.ErrorResponse{
				Error:            "invalid_request",
				ErrorDescription: "Invalid registration parameters",
			})
		case errors.Is(err, service.ErrEmailTaken):
			httpx.WriteJSON(w, http.StatusConflict, httpx.ErrorResponse{
				Error:            "conflict",
				ErrorDescription: "Email is already registered or pending",
			})
		default:
			log.Error("failed to start registration", "err", err)
			httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
				Error:            "server_error",
				ErrorDescription: "Failed to start registration",
			})
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, RegisterStartResponse{
		Email:    pending.Email,
		Nickname: pending.Nickname,
	})
}
