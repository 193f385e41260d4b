/**
 * Configuration for the ID-Scan Worker
 *
 * Loads configuration from environment variables matching .env.idscan
 */

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds worker configuration
type Config struct {
	// Redis configuration
	RedisURL  string
	QueueName string

	// PostgreSQL configuration
	DatabaseURL string

	// Vision OCR (OpenRouter-compatible) configuration; optional
	OpenRouterAPIKey string
	OpenRouterAPIURL string
	OpenRouterModel  string

	// Tesseract configuration
	TessdataPrefix string
	TessLanguage   string

	// Worker configuration
	WorkerConcurrency int
	MaxImageBytes     int64
	OCRTimeoutMs      int
	ScanTimeoutMs     int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		RedisURL:          getEnvOrDefault("REDIS_URL", "redis://ivisit-redis:6379"),
		QueueName:         getEnvOrDefault("QUEUE_NAME", "idscan:jobs"),
		DatabaseURL:       getEnvOrThrow("DATABASE_URL"),
		OpenRouterAPIKey:  getEnvOrDefault("OPENROUTER_API_KEY", ""),
		OpenRouterAPIURL:  getEnvOrDefault("OPENROUTER_API_URL", "https://openrouter.ai/api/v1/chat/completions"),
		OpenRouterModel:   getEnvOrDefault("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet"),
		TessdataPrefix:    getEnvOrDefault("TESSDATA_PREFIX", "/usr/share/tesseract-ocr/5/tessdata"),
		TessLanguage:      getEnvOrDefault("TESS_LANGUAGE", "eng"),
		WorkerConcurrency: getEnvAsIntOrDefault("WORKER_CONCURRENCY", 4),
		MaxImageBytes:     getEnvAsInt64OrDefault("MAX_IMAGE_BYTES", 20971520), // 20MB
		OCRTimeoutMs:      getEnvAsIntOrDefault("OCR_TIMEOUT_MS", 15000),       // 15 seconds per pass
		ScanTimeoutMs:     getEnvAsIntOrDefault("SCAN_TIMEOUT_MS", 120000),     // 2 minutes per scan
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 64 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 64, got %d", c.WorkerConcurrency)
	}

	if c.MaxImageBytes < 1024 || c.MaxImageBytes > 104857600 { // 1KB to 100MB
		return fmt.Errorf("MAX_IMAGE_BYTES must be between 1KB and 100MB, got %d", c.MaxImageBytes)
	}

	if c.OCRTimeoutMs < 1000 {
		return fmt.Errorf("OCR_TIMEOUT_MS must be at least 1000, got %d", c.OCRTimeoutMs)
	}

	if c.ScanTimeoutMs < c.OCRTimeoutMs {
		return fmt.Errorf("SCAN_TIMEOUT_MS must be at least OCR_TIMEOUT_MS, got %d < %d",
			c.ScanTimeoutMs, c.OCRTimeoutMs)
	}

	return nil
}

// VisionEnabled reports whether the vision OCR path is configured
func (c *Config) VisionEnabled() bool {
	return c.OpenRouterAPIKey != ""
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrThrow gets environment variable or returns error
func getEnvOrThrow(key string) string {
	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("Required environment variable %s is not set", key))
	}
	return value
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvAsInt64OrDefault gets environment variable as int64 or returns default
func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}

	return value
}
