package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port                 string
	Environment          string
	Database             DatabaseConfig
	Platform             PlatformConfig
	Redis                RedisConfig
	NATS                 NATSConfig
	API                  APIConfig
	Catalog              CatalogConfig
	LogLevel             string
	PayloadRetentionDays int
	DrainInterval        time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN returns the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

// PlatformConfig is used to reach the store platform Admin API
type PlatformConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RateLimit    float64 // requests per second, 0 disables limiting
	Timeout      time.Duration
}

type RedisConfig struct {
	URL string // empty means the in-process cache is used
	TTL time.Duration
}

type NATSConfig struct {
	URL     string // empty means payloads are only picked up by the drain loop
	Subject string
}

type APIConfig struct {
	KeyHash string // bcrypt hash of the bearer API key; empty disables auth
}

// CatalogConfig holds defaults used when entities are created on the fly.
type CatalogConfig struct {
	DefaultLocale  string
	CategoryRootID string
	MediaFolder    string
}

func Load() (*Config, error) {
	// godotenv does not override variables already set in the process env
	_ = godotenv.Load()

	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	retention, err := strconv.Atoi(getEnvOrViper("PAYLOAD_RETENTION_DAYS", "7"))
	if err != nil || retention < 0 {
		return nil, fmt.Errorf("PAYLOAD_RETENTION_DAYS must be a non-negative integer")
	}
	rateLimit, err := strconv.ParseFloat(getEnvOrViper("PLATFORM_RATE_LIMIT", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("PLATFORM_RATE_LIMIT must be a number: %w", err)
	}
	timeout, err := time.ParseDuration(getEnvOrViper("PLATFORM_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("PLATFORM_TIMEOUT must be a duration: %w", err)
	}
	cacheTTL, err := time.ParseDuration(getEnvOrViper("LOOKUP_CACHE_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("LOOKUP_CACHE_TTL must be a duration: %w", err)
	}
	drain, err := time.ParseDuration(getEnvOrViper("PAYLOAD_DRAIN_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("PAYLOAD_DRAIN_INTERVAL must be a duration: %w", err)
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "simple_api"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Platform: PlatformConfig{
			BaseURL:      strings.TrimSpace(getEnvOrViper("PLATFORM_URL", "")),
			ClientID:     strings.TrimSpace(getEnvOrViper("PLATFORM_CLIENT_ID", "")),
			ClientSecret: strings.TrimSpace(getEnvOrViper("PLATFORM_CLIENT_SECRET", "")),
			RateLimit:    rateLimit,
			Timeout:      timeout,
		},
		Redis: RedisConfig{
			URL: strings.TrimSpace(getEnvOrViper("REDIS_URL", "")),
			TTL: cacheTTL,
		},
		NATS: NATSConfig{
			URL:     strings.TrimSpace(getEnvOrViper("NATS_URL", "")),
			Subject: getEnvOrViper("NATS_SUBJECT", "simple-api.payload"),
		},
		API: APIConfig{
			KeyHash: strings.TrimSpace(getEnvOrViper("API_KEY_HASH", "")),
		},
		Catalog: CatalogConfig{
			DefaultLocale:  getEnvOrViper("DEFAULT_LOCALE", "en-GB"),
			CategoryRootID: strings.TrimSpace(getEnvOrViper("CATEGORY_ROOT_ID", "")),
			MediaFolder:    getEnvOrViper("MEDIA_FOLDER", "Simple API"),
		},
		LogLevel:             getEnvOrViper("LOG_LEVEL", "info"),
		PayloadRetentionDays: retention,
		DrainInterval:        drain,
	}

	// Validate required fields
	if cfg.Platform.BaseURL == "" {
		return nil, fmt.Errorf("PLATFORM_URL is required")
	}
	if cfg.Platform.ClientID == "" {
		return nil, fmt.Errorf("PLATFORM_CLIENT_ID is required")
	}
	if cfg.Platform.ClientSecret == "" {
		return nil, fmt.Errorf("PLATFORM_CLIENT_SECRET is required")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
