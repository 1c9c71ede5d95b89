package config

import (
	"os"
	"strconv"
	"time"
)

// Store backends for session identities and the cart mirror.
const (
	BackendDynamoDB = "dynamodb"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds everything the gateway reads from the environment.
type Config struct {
	AppPort     string
	Environment string
	LogLevel    string

	// Upstream catalog API.
	UpstreamBaseURL string
	UpstreamTimeout time.Duration // zero disables the client timeout

	// Per-client persisted state.
	StoreBackend  string
	SessionTable  string
	CartTable     string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration

	// Tracking delivery.
	TrackQueueURL  string
	TrackQueueSize int

	MetricsNamespace string
}

// Load reads configuration from the environment, applying defaults.
func Load() Config {
	return Config{
		AppPort:     getenv("APP_PORT", "8080"),
		Environment: getenv("APP_ENV", "development"),
		LogLevel:    getenv("LOG_LEVEL", "info"),

		UpstreamBaseURL: os.Getenv("API_BASE_URL"),
		UpstreamTimeout: getduration("UPSTREAM_TIMEOUT", 0),

		StoreBackend:  getenv("STORE_BACKEND", BackendDynamoDB),
		SessionTable:  getenv("SESSION_TABLE", "storefront-sessions"),
		CartTable:     getenv("CART_TABLE", "storefront-carts"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		SessionTTL:    getduration("SESSION_TTL", 48*time.Hour),

		TrackQueueURL:  os.Getenv("TRACK_QUEUE_URL"),
		TrackQueueSize: getint("TRACK_QUEUE_SIZE", 256),

		MetricsNamespace: getenv("METRICS_NAMESPACE", "StorefrontGateway"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
