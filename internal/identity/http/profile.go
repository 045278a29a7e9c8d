package http

import (
	"net/http"

	"github.com/planitee/identity/internal/identity/service"
	"github.com/planitee/identity/pkg/httpx"
	"github.com/planitee/identity/pkg/slogx"
)

type ProfileHandler struct {
	UserService *service.UserService
}

// ServeHTTP godoc
//
//	@Summary		Profile Endpoint
//	@Description	Return the authenticated user's profile. Requires the session cookie.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	UserResponse		"id, email, nickname, profile"
//	@Failure		401	{object}	httpx.ErrorResponse	"error, error_description"
//	@Router			/v1/profile [get].
func (h *ProfileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	identity, ok := httpx.IdentityFromContext(ctx)
	if !ok {
		// RequireIdentity guards this route; reaching here anonymously means
		// a wiring mistake.
		httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorResponse{
			Error:            "unauthorized",
			ErrorDescription: "Authentication required",
		})
		return
	}

	user, err := h.UserService.GetByID(ctx, identity.UserID)
	if err != nil {
		log.Error("failed to load profile", "user_id", identity.UserID, "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, httpx.ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "Failed to load profile",
		})
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, newUserResponse(user))
}
