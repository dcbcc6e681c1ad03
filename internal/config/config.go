// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/eventctl.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/albapepper/eventclock/internal/region"
)

// --------------------------------------------------------------------------
// Region registry: built-in server regions
// --------------------------------------------------------------------------

var RegionRegistry = map[string]region.Profile{
	"europe":  {Name: "europe", UTCOffsetHours: 1, ResetHour: 4},
	"america": {Name: "america", UTCOffsetHours: -5, ResetHour: 4},
	"asia":    {Name: "asia", UTCOffsetHours: 8, ResetHour: 4},
}

// LookupRegion returns the built-in profile for name (case-insensitive).
func LookupRegion(name string) (region.Profile, bool) {
	p, ok := RegionRegistry[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// RegionNames returns the built-in region names in sorted order.
func RegionNames() []string {
	names := make([]string, 0, len(RegionRegistry))
	for n := range RegionRegistry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database (optional)
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

	// Events backend
	EventsAPIURL string
	EventsAPIKey string
	EventsAPIRPM int

	// Catalog and state
	CatalogPath   string // empty uses the embedded default
	StateDBPath   string
	DefaultRegion string

	// Schedules
	RefreshCron       string
	RecomputeInterval time.Duration
	CleanupInterval   time.Duration

	// Push delivery
	FirebaseCredentialsFile string
	FirebaseProjectID       string

	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	// Cache
	CacheEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
			"http://localhost:8081",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		EventsAPIURL: envOr("EVENTS_API_URL", ""),
		EventsAPIKey: envOr("EVENTS_API_KEY", ""),
		EventsAPIRPM: envInt("EVENTS_API_RPM", 30),

		CatalogPath:   envOr("CATALOG_PATH", ""),
		StateDBPath:   envOr("STATE_DB_PATH", "eventclock.db"),
		DefaultRegion: strings.ToLower(envOr("DEFAULT_REGION", "europe")),

		RefreshCron:       envOr("REFRESH_CRON", "0 * * * *"),
		RecomputeInterval: time.Duration(envInt("RECOMPUTE_INTERVAL_MINUTES", 60)) * time.Minute,
		CleanupInterval:   time.Duration(envInt("CLEANUP_INTERVAL_MINUTES", 30)) * time.Minute,

		FirebaseCredentialsFile: envOr("FIREBASE_CREDENTIALS_FILE", ""),
		FirebaseProjectID:       envOr("FIREBASE_PROJECT_ID", ""),

		LogLevel:      envOr("LOG_LEVEL", "info"),
		LogFile:       envOr("LOG_FILE", ""),
		LogMaxSizeMB:  envInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: envInt("LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: envInt("LOG_MAX_AGE_DAYS", 28),

		CacheEnabled: envBool("CACHE_ENABLED", true),
	}

	if _, ok := LookupRegion(cfg.DefaultRegion); !ok {
		return nil, fmt.Errorf("DEFAULT_REGION %q is not one of %s",
			cfg.DefaultRegion, strings.Join(RegionNames(), ", "))
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// HasDatabase reports whether the Postgres notification platform is enabled.
func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

// Region returns the configured default region profile.
func (c *Config) Region() region.Profile {
	p, _ := LookupRegion(c.DefaultRegion)
	return p
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
