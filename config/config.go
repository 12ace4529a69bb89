package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Environment string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Queue configuration
	DefaultMaxQueueSize   int
	DefaultLateCapMinutes int
	SeedBatchSize         int

	// Wait estimation
	DefaultAvgServiceMinutes float64

	// Background sweeping
	LateSweepInterval time.Duration

	// Kiosk display
	BoardCacheTTL time.Duration

	// Monitoring
	EnableMetrics   bool
	MetricsInterval time.Duration
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Queue
		DefaultMaxQueueSize:   getEnvAsInt("DEFAULT_MAX_QUEUE_SIZE", 50),
		DefaultLateCapMinutes: getEnvAsInt("DEFAULT_LATE_CAP_MINUTES", 15),
		SeedBatchSize:         getEnvAsInt("SEED_BATCH_SIZE", 50),

		// Wait estimation
		DefaultAvgServiceMinutes: getEnvAsFloat("DEFAULT_AVG_SERVICE_MINUTES", 20),

		// Sweeping
		LateSweepInterval: getEnvAsDuration("LATE_SWEEP_INTERVAL", "1m"),

		// Kiosk
		BoardCacheTTL: getEnvAsDuration("BOARD_CACHE_TTL", "5s"),

		// Monitoring
		EnableMetrics:   getEnvAsBool("ENABLE_METRICS", true),
		MetricsInterval: getEnvAsDuration("METRICS_INTERVAL", "30s"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
