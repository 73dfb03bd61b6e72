// Package config provides configuration management using the Singleton pattern.
// It loads configuration from environment variables and config.yaml using Viper.
package config

import (
	"fmt"
	"sync"

	"github.com/llmbridge/llm-bridge/internal/domain"
)

// Configuration holds all application configuration values.
type Configuration struct {
	// Server configuration
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Providers holds one entry per configured LLM backend.
	Providers []ProviderConfig `json:"providers" mapstructure:"providers"`

	// Gateway configuration (failover policy)
	Gateway GatewayConfig `json:"gateway" mapstructure:"gateway"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	// Host is the server bind address.
	Host string `json:"host" mapstructure:"host"`

	// Port is the server port number.
	Port int `json:"port" mapstructure:"port"`

	// ReadTimeoutSeconds is the maximum duration for reading the entire request.
	ReadTimeoutSeconds int `json:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`

	// WriteTimeoutSeconds is the maximum duration before timing out writes of the response.
	WriteTimeoutSeconds int `json:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`

	// ShutdownTimeoutSeconds is the maximum duration to wait for active connections to finish.
	ShutdownTimeoutSeconds int `json:"shutdown_timeout_seconds" mapstructure:"shutdown_timeout_seconds"`
}

// ProviderConfig holds the configuration for one LLM backend adapter.
// The adapter layer assumes these values are already validated.
type ProviderConfig struct {
	// Name is the identifier this provider is registered under.
	Name string `json:"name" mapstructure:"name"`

	// Type selects the adapter implementation (anthropic, openai).
	Type domain.ProviderType `json:"type" mapstructure:"type"`

	// APIKey is the backend credential. Redacted from all log output.
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// Model is the backend model identifier.
	Model string `json:"model" mapstructure:"model"`

	// Temperature is the sampling temperature (0.0-2.0).
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// MaxTokens caps the response length. Must be positive.
	MaxTokens int `json:"max_tokens" mapstructure:"max_tokens"`

	// BaseURL optionally overrides the backend endpoint (proxies, tests).
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// TimeoutSeconds is the per-call HTTP timeout. Zero means the adapter default.
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`

	// Enabled indicates whether this provider participates in the rotation.
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// GatewayConfig holds the failover policy applied by the HTTP gateway.
// This is caller-side policy: adapters themselves never retry.
type GatewayConfig struct {
	// DefaultProvider is used when a request names no provider. Empty
	// means "next in rotation".
	DefaultProvider string `json:"default_provider" mapstructure:"default_provider"`

	// MaxAttempts is the number of providers tried before giving up.
	MaxAttempts int `json:"max_attempts" mapstructure:"max_attempts"`

	// CooldownSeconds is how long a failing provider stays out of rotation.
	CooldownSeconds int `json:"cooldown_seconds" mapstructure:"cooldown_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`

	// OutputPath is the file path for log output (empty for stdout).
	OutputPath string `json:"output_path" mapstructure:"output_path"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfig returns the singleton Configuration instance.
// It initializes the configuration on first call using the default config path.
func GetConfig() (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig("")
	})
	return configInstance, configErr
}

// GetConfigWithPath returns the singleton Configuration instance with a custom config path.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig(configPath)
	})
	return configInstance, configErr
}

// MustGetConfig returns the singleton Configuration instance.
// It panics if the configuration cannot be loaded.
func MustGetConfig() *Configuration {
	cfg, err := GetConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ResetConfig resets the singleton instance.
// This is primarily used for testing purposes.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// Validate validates the configuration and returns an error if required fields are missing.
func (c *Configuration) Validate() error {
	var validationErrors []string

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		validationErrors = append(validationErrors, "server.port must be between 1 and 65535")
	}

	if len(c.EnabledProviders()) == 0 {
		validationErrors = append(validationErrors, "providers cannot be empty, at least one enabled provider is required")
	}

	seen := make(map[string]struct{})
	for i, p := range c.Providers {
		if p.Name == "" {
			validationErrors = append(validationErrors, fmt.Sprintf("providers[%d].name is required", i))
		}
		if _, dup := seen[p.Name]; dup {
			validationErrors = append(validationErrors, fmt.Sprintf("providers[%d].name '%s' is duplicated", i, p.Name))
		}
		seen[p.Name] = struct{}{}

		if !p.Type.IsValid() {
			validationErrors = append(validationErrors, fmt.Sprintf(
				"providers[%d].type '%s' is invalid, must be one of: anthropic, openai", i, p.Type))
		}
		if !p.Enabled {
			continue
		}
		if p.APIKey == "" {
			validationErrors = append(validationErrors, fmt.Sprintf("providers[%d].api_key is required", i))
		}
		if p.Model == "" {
			validationErrors = append(validationErrors, fmt.Sprintf("providers[%d].model is required", i))
		}
		if p.Temperature < 0 || p.Temperature > 2 {
			validationErrors = append(validationErrors, fmt.Sprintf("providers[%d].temperature must be between 0.0 and 2.0", i))
		}
		if p.MaxTokens <= 0 {
			validationErrors = append(validationErrors, fmt.Sprintf("providers[%d].max_tokens must be positive", i))
		}
	}

	if c.Gateway.MaxAttempts <= 0 {
		validationErrors = append(validationErrors, "gateway.max_attempts must be positive")
	}
	if c.Gateway.DefaultProvider != "" {
		if _, ok := c.ProviderByName(c.Gateway.DefaultProvider); !ok {
			validationErrors = append(validationErrors, fmt.Sprintf(
				"gateway.default_provider '%s' does not match any configured provider", c.Gateway.DefaultProvider))
		}
	}

	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error", c.Logging.Level))
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// EnabledProviders returns all enabled provider configurations.
func (c *Configuration) EnabledProviders() []ProviderConfig {
	enabled := make([]ProviderConfig, 0, len(c.Providers))
	for _, p := range c.Providers {
		if p.Enabled {
			enabled = append(enabled, p)
		}
	}
	return enabled
}

// ProviderByName returns the provider configuration registered under name.
func (c *Configuration) ProviderByName(name string) (*ProviderConfig, bool) {
	for i := range c.Providers {
		if c.Providers[i].Name == name {
			return &c.Providers[i], true
		}
	}
	return nil, false
}

// ProvidersByType returns all enabled providers of the given type.
func (c *Configuration) ProvidersByType(t domain.ProviderType) []ProviderConfig {
	out := make([]ProviderConfig, 0)
	for _, p := range c.Providers {
		if p.Type == t && p.Enabled {
			out = append(out, p)
		}
	}
	return out
}
