package config

import (
	"errors"
	"log"
	"os"
	"time"

	"perfreview/api/middleware"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	HTTPAddr    string

	JWTSecret string
	JWTIssuer string
	// TokenTTL governs both the JWT expiry and the session row expiry; the
	// two must agree. Rotating JWTSecret invalidates every outstanding token.
	TokenTTL time.Duration
	// RefreshTokenTTL is reserved for a refresh flow that does not exist yet.
	RefreshTokenTTL time.Duration

	SessionCheckMode middleware.SessionCheckMode
	BcryptCost       int
	TOTPIssuer       string
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %s", err)
	}

	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		HTTPAddr:         envOr("HTTP_ADDR", ":8080"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTIssuer:        envOr("JWT_ISSUER", "perfreview"),
		TokenTTL:         envDuration("JWT_EXPIRES_IN", 2*time.Hour),
		RefreshTokenTTL:  envDuration("REFRESH_EXPIRES_IN", 7*24*time.Hour),
		SessionCheckMode: middleware.SessionCheckStrict,
		BcryptCost:       10,
		TOTPIssuer:       envOr("TOTP_ISSUER", "Performance Review System"),
	}

	if os.Getenv("SESSION_CHECK_MODE") == string(middleware.SessionCheckTokenOnly) {
		cfg.SessionCheckMode = middleware.SessionCheckTokenOnly
	}

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid duration for %s: %s", key, err)
		return fallback
	}
	return parsed
}
