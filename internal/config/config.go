package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	Port                    string
	Env                     string
	LogLevel                string
	DatabaseURL             string
	RedisAddr               string
	RedisPassword           string
	RedisTLS                bool
	CounterBackend          string
	SweepEnabled            bool
	SweepInterval           time.Duration
	SweepBatchSize          int
	CompensationInterval    time.Duration
	CompensationBatchSize   int
	CompensationMaxAttempts int
	CORSAllowedOrigins      string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		DatabaseURL:             getEnv("DATABASE_URL", ""),
		RedisAddr:               getEnv("REDIS_ADDR", "redis:6379"),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisTLS:                getEnvAsBool("REDIS_TLS", false),
		CounterBackend:          getEnv("COUNTER_BACKEND", "redis"),
		SweepEnabled:            getEnvAsBool("SWEEP_ENABLED", true),
		SweepInterval:           getEnvAsDuration("SWEEP_INTERVAL", 1*time.Minute),
		SweepBatchSize:          getEnvAsInt("SWEEP_BATCH_SIZE", 100),
		CompensationInterval:    getEnvAsDuration("COMPENSATION_INTERVAL", 5*time.Second),
		CompensationBatchSize:   getEnvAsInt("COMPENSATION_BATCH_SIZE", 25),
		CompensationMaxAttempts: getEnvAsInt("COMPENSATION_MAX_ATTEMPTS", 10),
		CORSAllowedOrigins:      getEnv("CORS_ALLOWED_ORIGINS", ""),
	}
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
