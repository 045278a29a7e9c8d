package http

import (
	"errors"
	"net/http"

	"github.com/planitee/identity/internal/identity/service"
	"github.com/planitee/identity/pkg/httpx"
	"github.com/planitee/identity/pkg/slogx"
)

type LoginHandler struct {
	UserService  *service.UserService
	TokenService *service.TokenService

	CookieName   string
	CookieSecure bool
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Authenticate with email and password. On success the access token is
//	@Description	set as an HttpOnly cookie and the profile is returned in the body.
//	@Tags			Session
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest		true	"email, password"
//	@Success		200		{object}	UserResponse		"id, email, nickname, profile"
//	@Failure		400		{object}	httpx.ErrorResponse	"error, error_description"
//	@Failure		401		{object}	httpx.ErrorResponse	"error, error_description"
//	@Router			/v1/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	user, err := h.UserService.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorResponse{
				Error:            "invalid_credentials",
				ErrorDescription: "Email or password is incorrect",
			})
			return
		}
		log.Error("login failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to log in",
		})
		return
	}

	token, err := h.TokenService.Issue(user)
	if err != nil {
		log.Error("failed to issue access token", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to issue access token",
		})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(user))
}
