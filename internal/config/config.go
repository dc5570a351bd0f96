// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/pushctl.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config struct — populated from environment variables.
type Config struct {
	// Database. Empty enables the in-memory store (dev/test only).
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Web push
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	VAPIDSubject    string
	PushTTL         int // seconds the push service may queue a message

	// Privileged endpoints (/notify, /stats)
	NotifyAPIKey string

	// Application origin for deep-link URLs embedded in notifications.
	AppOrigin string

	// Schedule document published by the scraper.
	ScheduleURL      string
	ScheduleCacheTTL time.Duration

	// Gym civil time zone. All window and hour matching uses this zone,
	// never server-local time.
	GymTimezone string

	// Fan-out
	StorePageSize int
	TickInterval  time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		VAPIDPublicKey:  envOr("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey: envOr("VAPID_PRIVATE_KEY", ""),
		VAPIDSubject:    envOr("VAPID_SUBJECT", "mailto:admin@example.com"),
		PushTTL:         envInt("PUSH_TTL_SECONDS", 1800),

		NotifyAPIKey: envOr("NOTIFY_API_KEY", ""),

		AppOrigin: envOr("APP_ORIGIN", "http://localhost:5173"),

		ScheduleURL:      envOr("SCHEDULE_URL", ""),
		ScheduleCacheTTL: time.Duration(envInt("SCHEDULE_CACHE_TTL_SECONDS", 300)) * time.Second,

		GymTimezone: envOr("GYM_TIMEZONE", "America/New_York"),

		StorePageSize: envInt("STORE_PAGE_SIZE", 50),
		TickInterval:  time.Duration(envInt("TICK_INTERVAL_SECONDS", 300)) * time.Second,
	}

	if cfg.StorePageSize < 1 {
		return nil, fmt.Errorf("STORE_PAGE_SIZE must be positive, got %d", cfg.StorePageSize)
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PushConfigured reports whether the VAPID key pair is present.
func (c *Config) PushConfigured() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
