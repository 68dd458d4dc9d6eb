package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	ServerPort string
	LogLevel   string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// CacheBackend selects where capture results are cached: "memory" or "redis".
	CacheBackend string
	CacheTTL     time.Duration
	CacheSize    int

	// DevToolsURL is the websocket endpoint of the browser the capture agent
	// attaches to, e.g. ws://localhost:9222.
	DevToolsURL    string
	CaptureTimeout time.Duration
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "user"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "password"),
		PostgresDB:       getEnv("POSTGRES_DB", "domcapture"),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvAsInt("REDIS_DB", 0),
		CacheBackend:     getEnv("CACHE_BACKEND", "memory"),
		CacheTTL:         getEnvAsDuration("CACHE_TTL_SECONDS", 30) * time.Second,
		CacheSize:        getEnvAsInt("CACHE_SIZE", 5),
		DevToolsURL:      getEnv("DEVTOOLS_URL", "ws://localhost:9222"),
		CaptureTimeout:   getEnvAsDuration("CAPTURE_TIMEOUT_MS", 5000) * time.Millisecond,
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback int) time.Duration {
	return time.Duration(getEnvAsInt(key, fallback))
}
