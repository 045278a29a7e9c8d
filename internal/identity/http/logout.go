package http

import (
	"net/http"

	"github.com/planitee/identity/pkg/httpx"
)

type LogoutHandler struct {
	CookieName   string
	CookieSecure bool
}

// ServeHTTP godoc
//
//	@Summary		Logout Endpoint
//	@Description	Clear the access token cookie. Always succeeds, authenticated or not.
//	@Tags			Session
//	@Produce		json
//	@Success		204	"cookie cleared"
//	@Router			/v1/logout [post].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.NoCache(w)
	w.WriteHeader(http.StatusNoContent)
}
