// Package config provides configuration management using the Singleton pattern.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/llmbridge/llm-bridge/internal/domain"
)

const (
	defaultConfigName = "config"
	defaultConfigType = "yaml"
	envPrefix         = "LLM_BRIDGE"

	// EnvAnthropicAPIKey overrides every anthropic provider's api_key.
	// Env credentials take priority over file configuration so keys
	// never need to live on disk.
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"

	// EnvOpenAIAPIKey overrides every openai provider's api_key.
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// loadConfig loads the configuration from environment variables and files.
// Priority order (highest to lowest):
// 1. ANTHROPIC_API_KEY / OPENAI_API_KEY env vars (credentials)
// 2. Environment variables (prefixed with LLM_BRIDGE_)
// 3. config.yaml - fallback for local development
// 4. Default values
func loadConfig(configPath string) (*Configuration, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/llm-bridge")
		v.AddConfigPath("$HOME/.llm-bridge")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is OK - env vars may carry everything
			fmt.Fprintf(os.Stderr, "config file not found, using environment variables only\n")
		} else {
			return nil, &ConfigError{
				Op:  "read",
				Err: fmt.Errorf("failed to read config file: %w", err),
			}
		}
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Op:  "unmarshal",
			Err: fmt.Errorf("failed to unmarshal config: %w", err),
		}
	}

	applyKeyOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout_seconds", 30)
	v.SetDefault("server.write_timeout_seconds", 30)
	v.SetDefault("server.shutdown_timeout_seconds", 15)

	// Gateway defaults
	v.SetDefault("gateway.max_attempts", 3)
	v.SetDefault("gateway.cooldown_seconds", 60)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "")
}

// applyKeyOverrides fills or replaces provider credentials from the
// standard per-backend environment variables.
func applyKeyOverrides(cfg *Configuration) {
	overrides := map[domain.ProviderType]string{
		domain.ProviderAnthropic: strings.TrimSpace(os.Getenv(EnvAnthropicAPIKey)),
		domain.ProviderOpenAI:    strings.TrimSpace(os.Getenv(EnvOpenAIAPIKey)),
	}

	for i := range cfg.Providers {
		if key := overrides[cfg.Providers[i].Type]; key != "" {
			cfg.Providers[i].APIKey = key
		}
	}
}
