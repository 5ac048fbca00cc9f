package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/discord"
	httpapi "github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/http"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/service"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store"
	"github.com/lsrpnetwork/gatekeeper/internal/gatekeeper/store/drivers/sqlite"
	"github.com/lsrpnetwork/gatekeeper/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application encapsulates the gatekeeper service with all its dependencies.
// The chat gateway (out of process) drives the questionnaire and review
// flows through the exported service accessors; the HTTP server owns the
// redemption surface.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	client *discord.Client

	sessionService      *service.SessionService
	questionService     *service.QuestionService
	reviewService       *service.ReviewService
	codeService         *service.CodeService
	redeemService       *service.RedeemService
	provisionService    *service.ProvisionService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "gatekeeper",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.client = discord.NewClient(cfg.BotToken, cfg.ClientID, cfg.ClientSecret, cfg.RedirectURI)

	app.initServices()
	if err := app.initHTTP(); err != nil {
		return nil, err
	}

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("gatekeeper starting", "port", app.cfg.Port, "version", BuildVersion)

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
	app.logger.Info("shutting down gatekeeper...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("gatekeeper stopped")
	return nil
}

// Sessions exposes session creation to the chat gateway.
func (app *Application) Sessions() *service.SessionService { return app.sessionService }

// Questions exposes the questionnaire flow to the chat gateway.
func (app *Application) Questions() *service.QuestionService { return app.questionService }

// Review exposes staff decisions to the chat gateway.
func (app *Application) Review() *service.ReviewService { return app.reviewService }

// Codes exposes code issuance so the chat gateway can implement
// staff-initiated grants and re-issues.
func (app *Application) Codes() *service.CodeService { return app.codeService }

// initDatabase initializes the database and applies migrations.
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

// initServices initializes all business logic services.
func (app *Application) initServices() {
	notifier := &service.DiscordNotifier{
		Client:            app.client,
		OperatorChannelID: app.cfg.OperatorChannelID,
	}
	authorizer := &service.RoleAuthorizer{
		Client:       app.client,
		GuildID:      app.cfg.HomeGuildID,
		StaffRoleIDs: app.cfg.StaffRoleIDs,
	}

	app.sessionService = &service.SessionService{
		Store:  app.db,
		Window: app.cfg.SessionWindow,
	}
	app.codeService = &service.CodeService{
		Store:     app.db,
		Notifier:  notifier,
		RedeemURL: app.cfg.RedirectURI,
		TTL:       app.cfg.CodeTTL,
	}
	app.reviewService = &service.ReviewService{
		Store:        app.db,
		Notifier:     notifier,
		Auth:         authorizer,
		Codes:        app.codeService,
		DenyCooldown: app.cfg.DenyCooldown,
	}
	app.questionService = &service.QuestionService{
		Store:       app.db,
		Notifier:    notifier,
		Review:      app.reviewService,
		QuestionCap: app.cfg.QuestionCap,
	}
	app.provisionService = &service.ProvisionService{
		Guild:    app.client,
		Notifier: notifier,
		Table:    app.cfg.Roles,
		Guilds:   app.cfg.Guilds,
	}
	app.redeemService = &service.RedeemService{
		Store:     app.db,
		Provider:  app.client,
		Provision: app.provisionService,
		Notifier:  notifier,
		Guilds:    app.cfg.Guilds,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() error {
	secret := []byte(app.cfg.StateSecret)
	if len(secret) == 0 {
		// A per-boot random secret only invalidates in-flight consent
		// round trips on restart, which is acceptable.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate state secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
		app.logger.Warn("STATE_SECRET not set, using a random per-boot secret")
	}

	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)
	router.RedeemService = app.redeemService
	router.Consent = app.client
	router.State = &httpapi.StateSigner{Secret: secret}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
