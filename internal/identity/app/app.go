package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/planitee/identity/internal/identity/http"
	"github.com/planitee/identity/internal/identity/mail"
	"github.com/planitee/identity/internal/identity/service"
	"github.com/planitee/identity/internal/identity/store"
	"github.com/planitee/identity/internal/identity/store/drivers/sqlite"
	"github.com/planitee/identity/pkg/cryptox"
	"github.com/planitee/identity/pkg/jwtx"
	"github.com/planitee/identity/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the identity service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	signer   *jwtx.EdDSASigner
	keys     *jwtx.KeySet
	verifier jwtx.Verifier

	registrationService *service.RegistrationService
	verificationService *service.VerificationService
	tokenService        *service.TokenService
	userService         *service.UserService
	cleanupService      *service.CleanupService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "identity-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initKeys(); err != nil {
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.cleanupService.Start()

	app.logger.Info("identity service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down identity service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.cleanupService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("identity service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initKeys generates an ephemeral EdDSA signing key for this process. Tokens
// do not survive a restart, so a restart logs everyone out.
func (app *Application) initKeys() error {
	signer, err := jwtx.GenerateSignerEdDSA("identity-" + BuildVersion)
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)

	app.signer = signer
	app.keys = keys
	app.verifier = jwtx.NewVerifierEdDSA(keys, app.cfg.Issuer)

	app.logger.Info("signing key generated", "kid", signer.KID(), "alg", signer.Alg())
	return nil
}

func (app *Application) initServices() {
	dispatcher := mail.NewDispatcher(mail.Config{
		Host:     app.cfg.SMTPHost,
		Port:     app.cfg.SMTPPort,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
	})

	app.registrationService = &service.RegistrationService{Store: app.db}
	app.verificationService = &service.VerificationService{
		Store:       app.db,
		Mailer:      dispatcher,
		CodeTTL:     app.cfg.VerificationCodeTTL,
		MaxAttempts: app.cfg.VerificationMaxAttempts,
	}
	app.tokenService = &service.TokenService{
		Signer:   app.signer,
		Verifier: app.verifier,
		Issuer:   app.cfg.Issuer,
		TTL:      app.cfg.AccessTokenTTL,
	}
	app.userService = &service.UserService{Store: app.db}

	app.cleanupService = service.NewCleanupService(
		app.db,
		app.logger,
		app.cfg.CleanupInterval,
		app.cfg.PendingRetention,
	)
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		app.verifier,
		BuildVersion,
		app.db,
		app.logger,
	)

	router.CookieName = app.cfg.CookieName
	router.CookieSecure = app.cfg.CookieSecure
	router.SkipPrefixes = app.cfg.SkipPrefixes

	router.RegistrationService = app.registrationService
	router.VerificationService = app.verificationService
	router.TokenService = app.tokenService
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
