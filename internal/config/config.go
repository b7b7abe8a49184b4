package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Session token configuration
	Session SessionConfig

	// Security configuration
	Security SecurityConfig

	// Outbound email configuration
	Mail MailConfig

	// CORS configuration
	CORS CORSConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string
	Environment string // development, staging, production
	LogLevel    string // debug, info, warn, error
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	URL                string
	MaxConnections     int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
}

// SessionConfig holds session token configuration. Secret has no default:
// startup fails when it is absent rather than falling back to a baked-in key.
type SessionConfig struct {
	Secret string
	Expiry time.Duration
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	BcryptCost int
}

// MailConfig holds transactional email gateway configuration
type MailConfig struct {
	Mode          string // "dev" logs instead of sending
	APIURL        string
	APIKey        string
	FromAddress   string
	LoginURL      string // customer login page linked from welcome emails
	AdminPanelURL string // admin panel linked from subadmin welcome emails
}

// CORSConfig holds CORS-related configuration
type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			MaxConnections:     getEnvAsInt("DATABASE_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("DATABASE_MAX_IDLE_CONNECTIONS", 5),
			ConnMaxLifetime:    time.Duration(getEnvAsInt("DATABASE_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
		Session: SessionConfig{
			Secret: getEnv("SESSION_SECRET", ""),
			Expiry: time.Duration(getEnvAsInt("SESSION_EXPIRY_HOURS", 168)) * time.Hour, // 7 days
		},
		Security: SecurityConfig{
			BcryptCost: getEnvAsInt("BCRYPT_COST", 10),
		},
		Mail: MailConfig{
			Mode:          getEnv("MAIL_MODE", "dev"),
			APIURL:        getEnv("MAIL_API_URL", ""),
			APIKey:        getEnv("MAIL_API_KEY", ""),
			FromAddress:   getEnv("MAIL_FROM_ADDRESS", "no-reply@visagate.example"),
			LoginURL:      getEnv("CUSTOMER_LOGIN_URL", "https://app.visagate.example/login"),
			AdminPanelURL: getEnv("ADMIN_PANEL_URL", "https://admin.visagate.example"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		},
	}

	// Validate required configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	if c.Mail.Mode == "production" {
		if c.Mail.APIURL == "" {
			return fmt.Errorf("MAIL_API_URL is required in production mail mode")
		}
		if c.Mail.APIKey == "" {
			return fmt.Errorf("MAIL_API_KEY is required in production mail mode")
		}
	}

	return nil
}

// Helper functions to get environment variables

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid integer value for %s, using default: %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var result []string
	for _, v := range strings.Split(valueStr, ",") {
		trimmed := strings.TrimSpace(v)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
