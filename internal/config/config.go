package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Upstream coaching backend configuration
	Upstream UpstreamConfig

	// Razorpay gateway configuration
	Razorpay RazorpayConfig

	// Database configuration
	Database DatabaseConfig

	// NATS event publishing (optional)
	NATS NATSConfig

	// Affairs listing configuration
	Affairs AffairsConfig

	// Logging configuration
	Log LogConfig
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// UpstreamConfig holds settings for the remote coaching backend API
type UpstreamConfig struct {
	BaseURL       string
	APIToken      string
	Timeout       time.Duration
	VerifyTimeout time.Duration
}

// RazorpayConfig holds checkout gateway settings
type RazorpayConfig struct {
	KeyID       string
	KeySecret   string
	ScriptURL   string
	BrandName   string
	ThemeColor  string
	ScriptProbe time.Duration
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// NATSConfig holds event bus settings; empty URL disables publishing
type NATSConfig struct {
	URL     string
	Subject string
}

// AffairsConfig holds current-affairs listing settings
type AffairsConfig struct {
	PageSize  int
	NoticeTTL time.Duration
	// Timezone used for calendar-day classification of publication dates
	DisplayTimezone string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string
	Format string // "json" or "pretty"
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Upstream: UpstreamConfig{
			BaseURL:       getEnv("UPSTREAM_BASE_URL", "http://localhost:4000"),
			APIToken:      getEnv("UPSTREAM_API_TOKEN", ""),
			Timeout:       getDurationEnv("UPSTREAM_TIMEOUT", 15*time.Second),
			VerifyTimeout: getDurationEnv("UPSTREAM_VERIFY_TIMEOUT", 30*time.Second),
		},
		Razorpay: RazorpayConfig{
			KeyID:       getEnv("RAZORPAY_KEY_ID", ""),
			KeySecret:   getEnv("RAZORPAY_KEY_SECRET", ""),
			ScriptURL:   getEnv("RAZORPAY_SCRIPT_URL", "https://checkout.razorpay.com/v1/checkout.js"),
			BrandName:   getEnv("BRAND_NAME", "UPSC Prep Portal"),
			ThemeColor:  getEnv("RAZORPAY_THEME_COLOR", "#b91c1c"),
			ScriptProbe: getDurationEnv("RAZORPAY_SCRIPT_PROBE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Name:         getEnv("DB_NAME", "upsc_portal_gateway"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getIntEnv("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getDurationEnv("DB_MAX_LIFETIME", 5*time.Minute),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", ""),
			Subject: getEnv("NATS_SUBJECT", "payments.events"),
		},
		Affairs: AffairsConfig{
			PageSize:        getIntEnv("AFFAIRS_PAGE_SIZE", 12),
			NoticeTTL:       getDurationEnv("AFFAIRS_NOTICE_TTL", 2500*time.Millisecond),
			DisplayTimezone: getEnv("DISPLAY_TIMEZONE", "Asia/Kolkata"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	if c.Affairs.PageSize <= 0 {
		return fmt.Errorf("AFFAIRS_PAGE_SIZE must be positive")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
