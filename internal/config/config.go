// Package config provides application configuration.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds the application configuration.
type Config struct {
	// Server settings
	Port string
	Host string

	// Order journal settings
	JournalPath string

	// Captcha OCR settings
	OCREndpoint string

	// Broker session settings
	SessionDuration int           // login session duration in minutes
	LoginRetries    int           // login attempts before giving up
	LoginRetryDelay time.Duration // pause between login attempts

	// Vault settings
	VaultSecret string // optional; empty means a random per-process secret
}

// New creates a new Config with values from environment variables or defaults.
func New() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		Host:            getEnv("HOST", "localhost"),
		JournalPath:     getEnv("JOURNAL_PATH", filepath.Join("data", "orders.db")),
		OCREndpoint:     getEnv("OCR_ENDPOINT", "http://localhost:9898/recognize"),
		SessionDuration: getEnvInt("SESSION_DURATION", 30),
		LoginRetries:    getEnvInt("LOGIN_RETRIES", 3),
		LoginRetryDelay: time.Duration(getEnvInt("LOGIN_RETRY_DELAY_MS", 1000)) * time.Millisecond,
		VaultSecret:     getEnv("VAULT_SECRET", ""),
	}
}

// Address returns the full address to bind the server to.
func (c *Config) Address() string {
	return c.Host + ":" + c.Port
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default value.
// Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
