package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	AppBaseURL      string
	Debug           bool
	SessionDuration time.Duration

	// Database (document store backend)
	DatabaseType string // sqlite (default), postgres, mysql
	DatabasePath string // sqlite file path
	DatabaseURL  string // postgres/mysql connection string

	// Auth
	JWTSecret string

	// Amazon SES (invite emails)
	AWSRegion    string
	SESFromEmail string
	SESFromName  string

	// OAuth sign-in
	GoogleClientID       string
	GoogleClientSecret   string
	FacebookClientID     string
	FacebookClientSecret string
}

// Load reads configuration from environment variables with sensible
// defaults. A .env file in the working directory is honored if present.
func Load() *Config {
	// Missing .env is fine; env vars win either way
	_ = godotenv.Load()

	return &Config{
		ServerPort:      getEnv("PORT", "8080"),
		AppBaseURL:      getEnv("APP_BASE_URL", "http://localhost:8080"),
		Debug:           getBoolEnv("DEBUG", false),
		SessionDuration: getDurationEnv("SESSION_DURATION", 30*24*time.Hour),

		DatabaseType: getEnv("DB_TYPE", "sqlite"),
		DatabasePath: getEnv("DB_PATH", "./paperpile.db"),
		DatabaseURL:  getEnv("DB_URL", ""),

		JWTSecret: getEnv("JWT_SECRET", ""),

		AWSRegion:    getEnv("AWS_REGION", "eu-west-1"),
		SESFromEmail: getEnv("SES_FROM_EMAIL", ""),
		SESFromName:  getEnv("SES_FROM_NAME", "Paper Pile"),

		GoogleClientID:       getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:   getEnv("GOOGLE_CLIENT_SECRET", ""),
		FacebookClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
		FacebookClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv reads a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getDurationEnv reads a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
