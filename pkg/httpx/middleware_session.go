package httpx

import (
	"context"
	"net/http"
	"strings"

	"github.com/planitee/identity/pkg/jwtx"
	"github.com/planitee/identity/pkg/slogx"
)

// IdentityResolver turns a token subject into an authenticated identity by
// checking it against live account state. It must reject subjects whose
// account is missing, disabled, or no longer matches the token.
type IdentityResolver interface {
	Resolve(ctx context.Context, claims jwtx.Claims) (Identity, error)
}

// SessionConfig configures the cookie-based authentication gate.
type SessionConfig struct {
	// CookieName is the cookie carrying the bearer token, e.g. "access_token".
	CookieName string

	// SkipPrefixes lists path prefixes that bypass the gate entirely
	// (public registration endpoints, health checks, API docs).
	SkipPrefixes []string

	Verifier jwtx.Verifier
	Resolver IdentityResolver
}

// SessionMiddleware resolves the caller's identity from the token cookie and
// publishes it into the request context. The gate itself is fail-open: a
// missing, malformed, expired, or unresolvable token means the request simply
// proceeds unauthenticated. It never writes a response and never halts the
// chain; downstream authorization is what requires a present identity.
func SessionMiddleware(cfg SessionConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			for _, prefix := range cfg.SkipPrefixes {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			cookie, err := r.Cookie(cfg.CookieName)
			if err != nil || strings.TrimSpace(cookie.Value) == "" {
				// Anonymous request.
				next.ServeHTTP(w, r)
				return
			}

			claims, err := cfg.Verifier.Verify(cookie.Value)
			if err != nil {
				log.Debug("session token rejected", "err", err)
				next.ServeHTTP(w, r)
				return
			}

			// The gate may run more than once in a chain; the first resolved
			// identity wins.
			if _, ok := IdentityFromContext(ctx); ok {
				next.ServeHTTP(w, r)
				return
			}

			identity, err := cfg.Resolver.Resolve(ctx, claims)
			if err != nil {
				log.Warn("session identity resolution failed", "subject", claims.Subject, "err", err)
				next.ServeHTTP(w, r)
				return
			}

			ctx = ContextWithIdentity(ctx, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireIdentity rejects requests that reach it without an authenticated
// identity. Place it after SessionMiddleware on protected routes.
func RequireIdentity() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); !ok {
				WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
					Error:            "unauthorized",
					ErrorDescription: "Authentication required",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
