// Package config loads process configuration from the environment.
//
// A .env file in the working directory is applied first (existing variables
// win), then the environment is decoded into Config using struct tags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the server.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS,default=25"`
	DBMinConns  int32  `env:"DB_MIN_CONNS,default=5"`

	Port     string `env:"PORT,default=8080"`
	Env      string `env:"APP_ENV,default=development"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	// Timezone names the calendar used to decide which day a check-in belongs to.
	Timezone string `env:"APP_TIMEZONE,default=UTC"`

	ClerkSecretKey     string `env:"CLERK_SECRET_KEY"`
	ClerkAPIURL        string `env:"CLERK_API_URL,default=https://api.clerk.com"`
	ClerkJWTKey        string `env:"CLERK_JWT_KEY"`
	ClerkWebhookSecret string `env:"CLERK_WEBHOOK_SECRET"`
	SignInURL          string `env:"SIGN_IN_URL,default=/sign-in"`

	ChatPollInterval time.Duration `env:"CHAT_POLL_INTERVAL,default=3s"`
	TemplateReload   bool          `env:"TEMPLATE_RELOAD,default=false"`
}

// Load reads .env (if present) and decodes the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that decoding alone cannot.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q is not a known timezone: %w", c.Timezone, err)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.ChatPollInterval <= 0 {
		return errors.New("CHAT_POLL_INTERVAL must be positive")
	}
	return nil
}

// Location returns the check-in calendar. Validate guarantees it parses.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
