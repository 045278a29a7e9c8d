package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/planitee/identity/internal/identity/service"
	"github.com/planitee/identity/internal/identity/store"
	"github.com/planitee/identity/pkg/httpx"
	"github.com/planitee/identity/pkg/jwtx"
	"github.com/planitee/identity/pkg/slogx"

	_ "github.com/planitee/identity/api/identity" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// Session cookie settings shared by the gate, login, and logout.
	CookieName   string
	CookieSecure bool
	SkipPrefixes []string

	RegistrationService *service.RegistrationService
	VerificationService *service.VerificationService
	TokenService        *service.TokenService
	UserService         *service.UserService
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	return &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}
}

// ApplyRoutes registers all routes and builds the global middleware chain.
// Call after the service fields are set.
func (r *Router) ApplyRoutes() {
	r.registerRegistration()
	r.registerPasswordReset()
	r.registerSession()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())

	// The session gate runs on every request: it resolves the cookie into an
	// identity (or leaves the request anonymous) and never blocks on its own.
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.SessionMiddleware(httpx.SessionConfig{
			CookieName:   r.CookieName,
			SkipPrefixes: r.SkipPrefixes,
			Verifier:     r.verifier,
			Resolver:     r.UserService,
		}),
	}
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Identity Service API
//	@version		0.1.0
//	@description	Staged email-verification registration and cookie-based session
//	@description	authentication. Access tokens are EdDSA-signed JWTs carried in an
//	@description	HttpOnly cookie.
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerRegistration() {
	start := &RegisterStartHandler{RegistrationService: r.RegistrationService}
	sendCode := &RegisterSendCodeHandler{VerificationService: r.VerificationService}
	verify := &RegisterVerifyHandler{VerificationService: r.VerificationService}
	finalize := &RegisterFinalizeHandler{RegistrationService: r.RegistrationService}

	// All registration endpoints are public signup surface: strict IP limits.
	r.Mux.Handle("POST /v1/register/start",
		httpx.Chain(start, httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/register/send-code",
		httpx.Chain(sendCode, httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/register/verify",
		httpx.Chain(verify, httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/register/finalize",
		httpx.Chain(finalize, httpx.RateLimitByIP(httpx.StrictLimit)))
}

func (r *Router) registerPasswordReset() {
	h := &PasswordResetHandler{
		VerificationService: r.VerificationService,
		UserService:         r.UserService,
	}

	r.Mux.Handle("POST /v1/password-reset/send-code",
		httpx.Chain(http.HandlerFunc(h.HandleSendCode), httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/password-reset/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify), httpx.RateLimitByIP(httpx.StrictLimit)))
}

func (r *Router) registerSession() {
	login := &LoginHandler{
		UserService:  r.UserService,
		TokenService: r.TokenService,
		CookieName:   r.CookieName,
		CookieSecure: r.CookieSecure,
	}
	logout := &LogoutHandler{
		CookieName:   r.CookieName,
		CookieSecure: r.CookieSecure,
	}
	profile := &ProfileHandler{UserService: r.UserService}

	// POST /login - strict rate limit by IP (authentication attempts)
	r.Mux.Handle("POST /v1/login",
		httpx.Chain(login, httpx.RateLimitByIP(httpx.StrictLimit)))
	r.Mux.Handle("POST /v1/logout",
		httpx.Chain(logout, httpx.RateLimitByIP(httpx.ModerateLimit)))

	// Authenticated endpoint - the global gate resolved the identity already,
	// RequireIdentity turns its absence into a 401.
	r.Mux.Handle("GET /v1/profile",
		httpx.Chain(profile,
			httpx.RequireIdentity(),
			httpx.RateLimitByIdentity(httpx.ModerateLimit),
		))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		))
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		))
}
