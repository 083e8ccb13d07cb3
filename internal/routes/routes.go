package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/ketowell/ketowell-backend/internal/config"
	"github.com/ketowell/ketowell-backend/internal/handlers"
	"github.com/ketowell/ketowell-backend/internal/middleware"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	bookHandler *handlers.BookHandler,
	referralHandler *handlers.ReferralHandler,
	signupHandler *handlers.SignupHandler,
	consentHandler *handlers.ConsentHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Book purchase flow
	book := api.Group("/book")
	book.Post("/create-checkout-session", strictLimiter(), bookHandler.CreateCheckoutSession)
	book.Get("/verify-purchase/:sessionId", bookHandler.VerifyPurchase)
	book.Get("/download", bookHandler.Download)
	book.Get("/check-purchase", bookHandler.CheckPurchase)

	// Referral codes
	referral := api.Group("/referral")
	referral.Post("/validate", referralHandler.Validate)
	referral.Get("/code/:purchaseId", referralHandler.StatsByPurchase)
	referral.Get("/stats/:email", referralHandler.StatsByEmail)

	// Signups get the stricter limit: they are the spam magnets
	api.Post("/newsletter/subscribe", strictLimiter(), signupHandler.SubscribeNewsletter)
	api.Post("/waitlist/subscribe", strictLimiter(), signupHandler.SubscribeWaitlist)
	api.Post("/waitlist/confirm", signupHandler.ConfirmWaitlist)

	// Consent preferences
	api.Get("/consent", consentHandler.Get)
	api.Post("/consent", consentHandler.Update)
	api.Delete("/consent", consentHandler.Reset)

	// Admin support tooling
	admin := api.Group("/admin", middleware.AdminRequired(cfg))
	admin.Post("/referral/codes", adminHandler.CreateReferralCode)
	admin.Get("/emails/failed", adminHandler.ListFailedEmails)
	admin.Post("/emails/resend/:purchaseId", adminHandler.ResendEmail)
}

// strictLimiter rate-limits write-heavy public endpoints: 10 req/min per IP.
func strictLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
}
