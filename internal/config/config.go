package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends accepted by STORE_BACKEND.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	CORSAllowedOrigins []string

	// Persistence
	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	DatabaseURL   string
	HistoryKey    string

	// Simulation
	DispatchDelay   time.Duration
	TrackingTick    time.Duration
	TrackingStep    float64
	ETAWindow       time.Duration
	DisplayTimezone string

	// Assistant
	GeminiAPIKey       string
	GeminiModelID      string
	AssistantTimeout   time.Duration
	AssistantRateLimit float64
	AssistantRateBurst int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", nil),

		StoreBackend:  strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StoreMemory))),
		RedisAddr:     getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		HistoryKey:    getEnv("HISTORY_KEY", "bookingHistory"),

		DispatchDelay:   getEnvAsDuration("DISPATCH_DELAY", 2500*time.Millisecond),
		TrackingTick:    getEnvAsDuration("TRACKING_TICK", 200*time.Millisecond),
		TrackingStep:    getEnvAsFloat("TRACKING_STEP", 0.5),
		ETAWindow:       getEnvAsDuration("ETA_WINDOW", 15*time.Minute),
		DisplayTimezone: getEnv("DISPLAY_TIMEZONE", "Asia/Kolkata"),

		GeminiAPIKey:       getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:      getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		AssistantTimeout:   getEnvAsDuration("ASSISTANT_TIMEOUT", 30*time.Second),
		AssistantRateLimit: getEnvAsFloat("ASSISTANT_RATE_LIMIT", 1),
		AssistantRateBurst: getEnvAsInt("ASSISTANT_RATE_BURST", 5),
	}
}

// DisplayLocation resolves DisplayTimezone, falling back to UTC when the
// zone database does not know it.
func (c *Config) DisplayLocation() *time.Location {
	if c == nil || strings.TrimSpace(c.DisplayTimezone) == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
