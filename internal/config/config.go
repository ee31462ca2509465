package config

import (
	"os"
	"strconv"

	"gtheory/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Data     DataConfig `validate:"required"`
	Analysis AnalysisConfig
	LogLevel string
}

// DataConfig holds input file settings
type DataConfig struct {
	File           string // CSV or XLSX path
	ResponseColumn string
}

// AnalysisConfig holds analysis defaults
type AnalysisConfig struct {
	Design string  // design string such as "person x item"
	Alpha  float64 // default significance level for intervals
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Data: DataConfig{
			File:           getEnvOrDefault("DATA_FILE", ""),
			ResponseColumn: getEnvOrDefault("RESPONSE_COLUMN", "response"),
		},
		Analysis: AnalysisConfig{
			Design: getEnvOrDefault("DESIGN", ""),
			Alpha:  getEnvFloatOrDefault("ALPHA", 0.05),
		},
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validateConfig(config *Config) error {
	if config.Analysis.Alpha <= 0 || config.Analysis.Alpha >= 1 {
		return errors.ConfigInvalid("ALPHA must be strictly between 0 and 1")
	}
	if config.Data.ResponseColumn == "" {
		return errors.ConfigInvalid("RESPONSE_COLUMN must not be empty")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
