package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Common
	Environment string
	LogLevel    string

	// Market timezone used to anchor "now" to a trading day
	Timezone string

	Server      ServerConfig
	OTE         OTEConfig
	Redis       RedisConfig
	Expressions ExpressionsConfig
	Tariff      TariffConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// OTEConfig holds day-ahead market API client configuration
type OTEConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns the host:port address for the Redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ExpressionsConfig holds saved-expression store configuration
type ExpressionsConfig struct {
	StoreType string // "memory" or "redis"
}

// TariffConfig holds the distribution fee schedule
type TariffConfig struct {
	HighHours []int
	HighPrice float64
	LowPrice  float64
}

// Load loads configuration from environment variables
// It automatically loads .env file if it exists in the current directory
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Timezone:    getEnv("MARKET_TIMEZONE", "Europe/Prague"),
		Server: ServerConfig{
			Port:            getEnvAsInt("SERVER_PORT", 3000),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		OTE: OTEConfig{
			BaseURL: getEnv("OTE_BASE_URL", ""),
			Timeout: getEnvAsDuration("OTE_TIMEOUT", 30*time.Second),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Expressions: ExpressionsConfig{
			StoreType: getEnv("EXPRESSION_STORE_TYPE", "memory"), // "memory" or "redis"
		},
		Tariff: TariffConfig{
			HighHours: getEnvAsIntSlice("TARIFF_HIGH_HOURS", []int{10, 12, 14, 17}),
			HighPrice: getEnvAsFloat("TARIFF_HIGH_PRICE", 25.62),
			LowPrice:  getEnvAsFloat("TARIFF_LOW_PRICE", 17.32),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be a valid port, got %d", c.Server.Port)
	}
	if c.Expressions.StoreType != "memory" && c.Expressions.StoreType != "redis" {
		return fmt.Errorf("EXPRESSION_STORE_TYPE must be memory or redis, got %q", c.Expressions.StoreType)
	}
	if c.Expressions.StoreType == "redis" && c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required for the redis expression store")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("MARKET_TIMEZONE is not a valid location: %w", err)
	}
	for _, hour := range c.Tariff.HighHours {
		if hour < 0 || hour > 23 {
			return fmt.Errorf("TARIFF_HIGH_HOURS entries must be within 0-23, got %d", hour)
		}
	}
	return nil
}

// Location returns the configured market timezone. Validate guarantees it
// loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return floatValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

func getEnvAsIntSlice(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	result := make([]int, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		intValue, err := strconv.Atoi(trimmed)
		if err != nil {
			return defaultValue
		}
		result = append(result, intValue)
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
