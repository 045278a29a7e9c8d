package http

import (
	"net/http"

	"github.com/planitee/identity/internal/identity/service"
	"github.com/planitee/identity/pkg/httpx"
	"github.com/planitee/identity/pkg/slogx"
)

type RegisterVerifyHandler struct {
	VerificationService *service.VerificationService
}

// ServeHTTP godoc
//
//	@Summary		Verify Registration Code Endpoint
//	@Description	Check a submitted verification code against the pending registration.
//	@Description	A mismatch burns one attempt and reports verified=false; the attempt cap
//	@Description	and expiry are reported as errors.
//	@Tags			Registration
//	@Accept			json
//	@Produce		json
//	@Param			request	body		VerifyCodeRequest	true	"email, code"
//	@Success		200		{object}	VerifyCodeResponse	"verified"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		404		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		410		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		429		{object}	httpx.ErrorResponse	"error, error_description"
//	@Router			/v1/register/verify [post].
func (h *RegisterVerifyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req VerifyCodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	verified, err := h.VerificationService.CheckRegistrationCode(ctx, req.Email, req.Code)
	if err != nil {
		writeVerificationError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, VerifyCodeResponse{Verified: verified})
}
