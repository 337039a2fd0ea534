package config

import (
	"os"
	"strconv"
	"time"

	"goclean/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Data     DataConfig
	Session  SessionConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// DatabaseConfig holds the optional audit database settings. When URL is
// empty the audit sink is disabled and operations are only kept in memory.
type DatabaseConfig struct {
	URL string
}

// DataConfig holds data processing settings
type DataConfig struct {
	MaxUploadBytes   int64
	DefaultPageLimit int
	MaxPageLimit     int
	PreviewSampleN   int
}

// SessionConfig holds session lifecycle settings. TTL of zero disables
// automatic eviction; sessions then live until an explicit reset.
type SessionConfig struct {
	TTL             time.Duration
	JanitorInterval time.Duration
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Data: DataConfig{
			MaxUploadBytes:   getEnvInt64("MAX_UPLOAD_BYTES", 50*1024*1024),
			DefaultPageLimit: getEnvInt("DEFAULT_PAGE_LIMIT", 100),
			MaxPageLimit:     getEnvInt("MAX_PAGE_LIMIT", 1000),
			PreviewSampleN:   getEnvInt("PREVIEW_SAMPLE_N", 10),
		},
		Session: SessionConfig{
			TTL:             getEnvDuration("SESSION_TTL", 0),
			JanitorInterval: getEnvDuration("SESSION_JANITOR_INTERVAL", 5*time.Minute),
		},
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	if c.Server.Port == "" {
		return errors.ConfigInvalid("server port must not be empty")
	}
	if c.Data.MaxUploadBytes <= 0 {
		return errors.ConfigInvalid("MAX_UPLOAD_BYTES must be positive")
	}
	if c.Data.DefaultPageLimit <= 0 || c.Data.MaxPageLimit < c.Data.DefaultPageLimit {
		return errors.ConfigInvalid("page limits must be positive and MAX_PAGE_LIMIT >= DEFAULT_PAGE_LIMIT")
	}
	if c.Session.TTL < 0 {
		return errors.ConfigInvalid("SESSION_TTL must not be negative")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt64(key string, fallback int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
