// Copyright 2025 Copyforge Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	// ErrInvalidConfigValue is returned when a configuration value is invalid
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// Config represents the complete application configuration
type Config struct {
	Upstream   UpstreamConfig   `mapstructure:"upstream"`
	Limits     LimitsConfig     `mapstructure:"limits"`
	Store      StoreConfig      `mapstructure:"store"`
	Generation GenerationConfig `mapstructure:"generation"`
	History    HistoryConfig    `mapstructure:"history"`
	Server     ServerConfig     `mapstructure:"server"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// UpstreamConfig contains the text-generation endpoint configuration.
// An empty APIKey is not a load-time error; generation reports it lazily
// on the first call attempt so the service can boot without credentials.
type UpstreamConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// LimitsConfig contains per-tenant rate and quota limits
type LimitsConfig struct {
	PerMinute int `mapstructure:"per_minute"`
	Monthly   int `mapstructure:"monthly"`
}

// StoreConfig contains the cache/quota store configuration
type StoreConfig struct {
	RedisURL string `mapstructure:"redis_url"`
}

// GenerationConfig contains orchestration settings for upstream calls
type GenerationConfig struct {
	TimeoutMillis int `mapstructure:"timeout_ms"`
	MaxRetries    int `mapstructure:"max_retries"`
	CacheTTLHours int `mapstructure:"cache_ttl_hours"`
}

// HistoryConfig contains the generation history store configuration
type HistoryConfig struct {
	DBPath     string `mapstructure:"db_path"`
	MaxEntries int    `mapstructure:"max_entries"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over config file values.
// A missing config file is fine; the service can run from env alone.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := setConfigFile(v, configPath); err != nil {
		return nil, fmt.Errorf("failed to set config file: %w", err)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("COPYFORGE")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// SetConfigFile bypasses the not-found type, so also tolerate
			// a plain missing file when no explicit path was requested
			if configPath != "" || !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	setEnvironmentMappings(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Upstream defaults
	v.SetDefault("upstream.base_url", "https://api.openai.com/v1")
	v.SetDefault("upstream.model", "gpt-4o-mini")
	v.SetDefault("upstream.max_tokens", 1500)
	v.SetDefault("upstream.temperature", 0.7)

	// Limit defaults
	v.SetDefault("limits.per_minute", 30)
	v.SetDefault("limits.monthly", 150)

	// Generation defaults
	v.SetDefault("generation.timeout_ms", 25000)
	v.SetDefault("generation.max_retries", 3)
	v.SetDefault("generation.cache_ttl_hours", 24)

	// History defaults
	v.SetDefault("history.db_path", "./history.db")
	v.SetDefault("history.max_entries", 100)

	// Server defaults
	v.SetDefault("server.listen_addr", ":8080")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// setConfigFile sets the configuration file path with fallback logic
func setConfigFile(v *viper.Viper, configPath string) error {
	// Check for CONFIG_PATH environment variable
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return fmt.Errorf("config file specified by CONFIG_PATH does not exist: %s", envPath)
		}
		v.SetConfigFile(envPath)
		return nil
	}

	// Use provided config path
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		return nil
	}

	// Default fallback locations; absence is fine
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	return nil
}

// setEnvironmentMappings sets explicit environment variable mappings
func setEnvironmentMappings(v *viper.Viper) {
	envMappings := map[string]string{
		"OPENAI_API_KEY":  "upstream.api_key",
		"OPENAI_BASE_URL": "upstream.base_url",
		"OPENAI_MODEL":    "upstream.model",
		"REDIS_URL":       "store.redis_url",
		"HISTORY_DB_PATH": "history.db_path",
		"LOG_LEVEL":       "logging.level",
		"LOG_FORMAT":      "logging.format",
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}
}

// validateConfig validates the configuration for valid values
func validateConfig(config *Config) error {
	var errors []ValidationError

	if config.Upstream.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "upstream.base_url",
			Message: "upstream base URL is required",
		})
	}

	if config.Upstream.MaxTokens <= 0 {
		errors = append(errors, ValidationError{
			Field:   "upstream.max_tokens",
			Message: "max_tokens must be greater than 0",
		})
	}

	if config.Upstream.Temperature < 0 || config.Upstream.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "upstream.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	if config.Limits.PerMinute <= 0 {
		errors = append(errors, ValidationError{
			Field:   "limits.per_minute",
			Message: "per_minute must be greater than 0",
		})
	}

	if config.Limits.Monthly <= 0 {
		errors = append(errors, ValidationError{
			Field:   "limits.monthly",
			Message: "monthly must be greater than 0",
		})
	}

	if config.Generation.TimeoutMillis <= 0 {
		errors = append(errors, ValidationError{
			Field:   "generation.timeout_ms",
			Message: "timeout_ms must be greater than 0",
		})
	}

	if config.Generation.MaxRetries <= 0 {
		errors = append(errors, ValidationError{
			Field:   "generation.max_retries",
			Message: "max_retries must be greater than 0",
		})
	}

	if config.Generation.CacheTTLHours <= 0 {
		errors = append(errors, ValidationError{
			Field:   "generation.cache_ttl_hours",
			Message: "cache_ttl_hours must be greater than 0",
		})
	}

	if config.History.MaxEntries <= 0 {
		errors = append(errors, ValidationError{
			Field:   "history.max_entries",
			Message: "max_entries must be greater than 0",
		})
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, config.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Logging.Format) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("log format must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	if len(errors) > 0 {
		var errorMessages []string
		for _, err := range errors {
			errorMessages = append(errorMessages, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errorMessages, "\n"))
	}

	return nil
}

// MaskSensitiveValues returns a copy of the config with sensitive values masked
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c

	if masked.Upstream.APIKey != "" {
		masked.Upstream.APIKey = maskValue(masked.Upstream.APIKey)
	}
	if masked.Store.RedisURL != "" {
		masked.Store.RedisURL = maskValue(masked.Store.RedisURL)
	}

	return &masked
}

// maskValue masks sensitive values, showing only the first 8 characters
func maskValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}

// contains checks if a slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// WatchConfig enables configuration hot-reloading for development
func WatchConfig(configPath string, callback func(*Config)) error {
	v := viper.New()

	if err := setConfigFile(v, configPath); err != nil {
		return err
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		config, err := Load(configPath)
		if err != nil {
			fmt.Printf("Failed to reload config after change to %s: %v\n", e.Name, err)
			return
		}

		callback(config)
	})

	return nil
}
