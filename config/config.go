// Package config has the configuration file for the app
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSourceURL is the published location of the CMED price table.
const DefaultSourceURL = "https://dados.anvisa.gov.br/dados/TA_PRECO_MEDICAMENTO.csv"

// Config holds all application configuration
type Config struct {
	Port     string
	Address  string
	Env      string
	LogLevel string
	LogDir   string

	SourceURL      string        // remote CMED price table
	DataDir        string        // staging file and snapshot live here
	CacheTTL       time.Duration // in-memory snapshot freshness window
	FetchTimeout   time.Duration // overall bound on one download
	MaxRequestBody int64         // maximum request body size in bytes
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnvWithDefault("PORT", "8000"),
		Address:        getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:            getEnvWithDefault("ENV", "dev"),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		LogDir:         getEnvWithDefault("LOG_DIR", "logs"),
		SourceURL:      getEnvWithDefault("CMED_SOURCE_URL", DefaultSourceURL),
		DataDir:        getEnvWithDefault("DATA_DIR", "data"),
		CacheTTL:       time.Duration(getIntEnvWithDefault("CACHE_TTL_MINUTES", 60)) * time.Minute,
		FetchTimeout:   time.Duration(getIntEnvWithDefault("FETCH_TIMEOUT_MINUTES", 5)) * time.Minute,
		MaxRequestBody: getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576), // 1MB default
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}
	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}
	if err := validateEnv(cfg.Env); err != nil {
		return fmt.Errorf("invalid ENV: %w", err)
	}
	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if err := validateSourceURL(cfg.SourceURL); err != nil {
		return fmt.Errorf("invalid CMED_SOURCE_URL: %w", err)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("invalid DATA_DIR: cannot be empty")
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("invalid CACHE_TTL_MINUTES: must be positive")
	}
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("invalid FETCH_TIMEOUT_MINUTES: must be positive")
	}
	if cfg.MaxRequestBody <= 0 {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: must be positive")
	}
	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" {
		return nil
	}

	if ip := net.ParseIP(address); ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	return nil
}

// validateEnv validates the ENV environment variable
func validateEnv(env string) error {
	validEnvs := []string{"dev", "staging", "prod", "test"}
	env = strings.ToLower(env)

	for _, validEnv := range validEnvs {
		if env == validEnv {
			return nil
		}
	}

	return fmt.Errorf("ENV must be one of: %v, got: %s", validEnvs, env)
}

// validateLogLevel validates the LOG_LEVEL environment variable
func validateLogLevel(logLevel string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	logLevel = strings.ToLower(logLevel)

	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSourceURL checks the remote price table location
func validateSourceURL(sourceURL string) error {
	u, err := url.Parse(sourceURL)
	if err != nil {
		return fmt.Errorf("CMED_SOURCE_URL must be a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("CMED_SOURCE_URL must use http or https, got: %s", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("CMED_SOURCE_URL is missing a host")
	}
	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
