package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Placeholder values shipped in the sample .env. Credentials equal to
// these are treated as not configured at all.
const (
	urlPlaceholder = "your_supabase_url_here"
	keyPlaceholder = "your_supabase_anon_key_here"
)

// Config holds the application configuration.
type Config struct {
	ServerPort        int
	LocalStorePath    string // SQLite DSN for the local fallback store
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string // optional; enables local access-token verification
	AllowedOrigins    []string
	SweepSchedule     string // cron spec for the expiry sweeper
}

// Load loads configuration from environment variables or sets defaults.
// A .env file in the working directory is read first if present;
// variables already set in the environment win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	portStr := getEnv("PORT", "8080")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, err
	}

	origins := strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		ServerPort:        port,
		LocalStorePath:    getEnv("LOCAL_STORE_PATH", ":memory:"),
		SupabaseURL:       strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseAnonKey:   getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseJWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		AllowedOrigins:    origins,
		SweepSchedule:     getEnv("SWEEP_SCHEDULE", "@every 10m"),
	}, nil
}

// SupabaseConfigured reports whether real provider credentials are
// present. Placeholder values count as absent.
func (c *Config) SupabaseConfigured() bool {
	if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
		return false
	}
	return c.SupabaseURL != urlPlaceholder && c.SupabaseAnonKey != keyPlaceholder
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
