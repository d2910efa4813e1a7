package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Analytics backend
	BackendURL string

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxRetries       int
	InitialBackoff   time.Duration
	MaxConcurrency   int
	BackendRateLimit int

	// Cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Write protection for instrument mutations; empty disables it.
	JWTSecret string

	// Browser dashboard origins
	CORSAllowedOrigins []string

	// Optional YAML scenario catalog
	ScenariosFile string
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendURL: strings.TrimRight(getEnv("IRRBB_BACKEND_URL", "http://localhost:8000"), "/"),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 15*time.Second),

		MaxRetries:       getEnvInt("MAX_RETRIES", 2),
		InitialBackoff:   getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency:   getEnvInt("MAX_CONCURRENCY", 20),
		BackendRateLimit: getEnvInt("BACKEND_RATE_LIMIT", 20),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		ScenariosFile: getEnv("SCENARIOS_FILE", ""),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
