package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/ketowell/ketowell-backend/internal/analytics"
	"github.com/ketowell/ketowell-backend/internal/config"
	"github.com/ketowell/ketowell-backend/internal/consent"
	"github.com/ketowell/ketowell-backend/internal/database"
	"github.com/ketowell/ketowell-backend/internal/email"
	"github.com/ketowell/ketowell-backend/internal/handlers"
	"github.com/ketowell/ketowell-backend/internal/logging"
	"github.com/ketowell/ketowell-backend/internal/middleware"
	"github.com/ketowell/ketowell-backend/internal/payments"
	"github.com/ketowell/ketowell-backend/internal/routes"
	"github.com/ketowell/ketowell-backend/internal/services"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	_ = godotenv.Load()
	cfg := config.Load()

	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}
	if cfg.StripeSecretKey == "" {
		slog.Error("STRIPE_SECRET_KEY environment variable is required")
		os.Exit(1)
	}
	if cfg.DownloadTokenSecret == "" {
		slog.Error("DOWNLOAD_TOKEN_SECRET environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		pgLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Consent store + analytics
	consentStore := consent.NewFileStore(cfg.ConsentPath)
	var tracker analytics.Tracker = analytics.Noop{}
	if cfg.PostHogAPIKey != "" {
		ph, err := analytics.NewPostHogTracker(cfg)
		if err != nil {
			slog.Error("posthog init failed", "error", err)
		} else {
			tracker = analytics.WithConsent(consentStore, ph)
		}
	}
	defer tracker.Close()

	// External providers
	provider := payments.NewStripeProvider(cfg)
	sender := email.NewResendSender(cfg)

	// Services
	referralService := services.NewReferralService(database.DB)
	downloadService := services.NewDownloadService(database.DB, tracker, cfg)
	emailService := services.NewEmailService(database.DB, sender, downloadService, cfg)
	checkoutService := services.NewCheckoutService(provider, referralService, tracker)
	purchaseService := services.NewPurchaseService(database.DB, provider, referralService, emailService, tracker, cfg)
	newsletterService := services.NewNewsletterService(database.DB, tracker)
	waitlistService := services.NewWaitlistService(database.DB, emailService, tracker)

	// Handlers
	bookHandler := handlers.NewBookHandler(checkoutService, purchaseService, downloadService)
	referralHandler := handlers.NewReferralHandler(referralService)
	signupHandler := handlers.NewSignupHandler(newsletterService, waitlistService)
	consentHandler := handlers.NewConsentHandler(consentStore)
	adminHandler := handlers.NewAdminHandler(referralService, purchaseService)
	healthHandler := handlers.NewHealthHandler()

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      os.Getenv("APP_ENV"),
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, bookHandler, referralHandler, signupHandler, consentHandler, adminHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
