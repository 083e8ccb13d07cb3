package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Stripe
	StripeSecretKey string
	StripePriceID   string
	Currency        string
	SuccessURL      string
	CancelURL       string

	// Resend
	ResendAPIKey string
	EmailFrom    string
	SupportEmail string

	// Download entitlement
	AssetURL            string
	DownloadLimit       int
	DownloadTokenSecret string
	DownloadTokenExpiry time.Duration

	// PostHog
	PostHogAPIKey   string
	PostHogEndpoint string

	// Consent store
	ConsentPath string

	// Admin
	AdminToken string

	// Server
	Port        string
	CORSOrigins string
	SiteURL     string
}

func Load() *Config {
	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "ketowell_db"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		StripePriceID:   getEnv("STRIPE_PRICE_ID", ""),
		Currency:        getEnv("CURRENCY", "usd"),
		SuccessURL:      getEnv("CHECKOUT_SUCCESS_URL", "https://ketowell.app/book/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:       getEnv("CHECKOUT_CANCEL_URL", "https://ketowell.app/book"),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		EmailFrom:    getEnv("EMAIL_FROM", "KetoWell <hello@ketowell.app>"),
		SupportEmail: getEnv("SUPPORT_EMAIL", "support@ketowell.app"),

		AssetURL:            getEnv("ASSET_URL", ""),
		DownloadLimit:       parseInt(getEnv("DOWNLOAD_LIMIT", "10"), 10),
		DownloadTokenSecret: getEnv("DOWNLOAD_TOKEN_SECRET", ""),
		DownloadTokenExpiry: parseDuration(getEnv("DOWNLOAD_TOKEN_EXPIRY", "720h")),

		PostHogAPIKey:   getEnv("POSTHOG_API_KEY", ""),
		PostHogEndpoint: getEnv("POSTHOG_ENDPOINT", "https://app.posthog.com"),

		ConsentPath: getEnv("CONSENT_PATH", "consent.json"),

		AdminToken: getEnv("ADMIN_TOKEN", ""),

		Port:        getEnv("PORT", "8080"),
		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
		SiteURL:     getEnv("SITE_URL", "https://ketowell.app"),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 30 * 24 * time.Hour
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
