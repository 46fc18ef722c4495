package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends. SQLite is currently the only backend; the value is
// validated at startup so adding another backend is an explicit change
// rather than an implicit runtime branch.
const (
	StorageSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Host string
	Port int

	// Storage configuration
	StorageBackend string
	DatabasePath   string

	// Strava API configuration
	StravaClientID     string
	StravaClientSecret string

	// Public base URL used to build the OAuth redirect URI
	BaseURL string

	// First date (inclusive, YYYY-MM-DD) for which points are counted
	StartDate string

	// Metrics configuration
	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int

	// Logging configuration
	LogLevel string
}

// Load reads configuration from a .env file (if present) and the environment.
// It fails fast if required variables are missing or invalid.
func Load() (*Config, error) {
	// A missing .env file is fine; the environment alone may be complete.
	_ = godotenv.Load()

	cfg := &Config{
		// Optional values with defaults
		Host:           getEnv("HOST", "localhost"),
		Port:           getEnvInt("PORT", 4200),
		StorageBackend: getEnv("STORAGE_BACKEND", StorageSQLite),
		DatabasePath:   getEnv("DATABASE_PATH", "./vitalite.db"),
		StartDate:      getEnv("START_DATE", "2025-12-01"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		MetricsHost:    getEnv("METRICS_HOST", "localhost"),
		MetricsPort:    getEnvInt("METRICS_PORT", 4201),
	}

	// Required values
	var missingVars []string

	cfg.StravaClientID = os.Getenv("STRAVA_CLIENT_ID")
	if cfg.StravaClientID == "" {
		missingVars = append(missingVars, "STRAVA_CLIENT_ID")
	}

	cfg.StravaClientSecret = os.Getenv("STRAVA_CLIENT_SECRET")
	if cfg.StravaClientSecret == "" {
		missingVars = append(missingVars, "STRAVA_CLIENT_SECRET")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missingVars = append(missingVars, "BASE_URL")
	}

	if len(missingVars) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	if cfg.StorageBackend != StorageSQLite {
		return nil, fmt.Errorf("unknown storage backend: %q (supported: %s)", cfg.StorageBackend, StorageSQLite)
	}

	if _, err := time.Parse("2006-01-02", cfg.StartDate); err != nil {
		return nil, fmt.Errorf("invalid START_DATE %q: %w", cfg.StartDate, err)
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
