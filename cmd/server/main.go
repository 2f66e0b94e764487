// Package main is the entry point of the group habit tracker. It loads the
// configuration, connects to PostgreSQL, applies migrations and serves the
// JSON API, the identity webhook and the pages.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/mlopezgez/group-habits-tracking/internal/clerk"
	"github.com/mlopezgez/group-habits-tracking/internal/config"
	"github.com/mlopezgez/group-habits-tracking/internal/database"
	"github.com/mlopezgez/group-habits-tracking/internal/handlers"
	"github.com/mlopezgez/group-habits-tracking/internal/middleware"
	"github.com/mlopezgez/group-habits-tracking/internal/repository"
	"github.com/mlopezgez/group-habits-tracking/internal/security"
	"github.com/mlopezgez/group-habits-tracking/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := security.NewLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Critical("server stopped with error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *security.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================
	// Database
	// ========================================

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := database.Connect(connectCtx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	}, logger.Zap()); err != nil {
		return err
	}
	defer database.Close()

	if err := database.RunMigrations(cfg.DatabaseURL, logger.Zap()); err != nil {
		return err
	}

	// ========================================
	// Identity provider
	// ========================================

	if cfg.ClerkJWTKey == "" {
		return errors.New("CLERK_JWT_KEY is required to verify session tokens")
	}
	tokens, err := clerk.NewTokenVerifier(cfg.ClerkJWTKey)
	if err != nil {
		return err
	}

	// Without a backend key, users only appear through the webhook.
	var profiles services.ProfileFetcher
	if cfg.ClerkSecretKey != "" {
		profiles = clerk.NewClient(cfg.ClerkAPIURL, cfg.ClerkSecretKey, nil)
	} else {
		logger.Warn("CLERK_SECRET_KEY not set; users without a webhook delivery cannot sign in")
	}

	var webhook *clerk.WebhookVerifier
	if cfg.ClerkWebhookSecret != "" {
		if webhook, err = clerk.NewWebhookVerifier(cfg.ClerkWebhookSecret); err != nil {
			return err
		}
	} else {
		logger.Warn("CLERK_WEBHOOK_SECRET not set; identity webhooks will be refused")
	}

	// ========================================
	// Services and middleware
	// ========================================

	svc := services.New(services.NewPostgresStore(), profiles, services.NewCalendar(cfg.Location()), logger.Zap())

	secCfg := security.DefaultSecurityConfig()
	secCfg.StrictTransport = cfg.IsProduction()

	sm := middleware.NewSecurityMiddleware(logger, secCfg, nil)
	defer sm.Stop()

	auth := middleware.NewAuthenticator(tokens, svc.Identity, logger)

	h := handlers.New(handlers.Config{
		Services:         svc,
		Audit:            repository.NewAuditRepository(),
		Validation:       security.NewValidationService(secCfg),
		Logger:           logger,
		Webhook:          webhook,
		ChatPollInterval: cfg.ChatPollInterval,
	})

	app := fiber.New(fiber.Config{
		AppName:      "group-habits",
		ErrorHandler: middleware.ErrorHandler(logger),
		BodyLimit:    secCfg.BodyLimit,
		Views:        handlers.NewViews(cfg.TemplateReload),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	// Panics surface as errors inside the metrics and request log.
	app.Use(sm.Metrics())
	app.Use(sm.RequestLogger())
	app.Use(recover.New())
	app.Use(sm.SecureHeaders())

	handlers.Register(app, h, auth, sm, cfg.SignInURL)

	// ========================================
	// Serve
	// ========================================

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Env),
			zap.String("timezone", cfg.Timezone))
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	return app.ShutdownWithTimeout(10 * time.Second)
}
