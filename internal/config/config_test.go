package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmbridge/llm-bridge/internal/domain"
)

func validConfig() *Configuration {
	return &Configuration{
		Server: ServerConfig{Host: "127.0.0.1", Port: 8080},
		Providers: []ProviderConfig{
			{
				Name:        "anthropic",
				Type:        domain.ProviderAnthropic,
				APIKey:      "sk-ant-test",
				Model:       "claude-3-haiku",
				Temperature: 0.7,
				MaxTokens:   1024,
				Enabled:     true,
			},
			{
				Name:        "openai",
				Type:        domain.ProviderOpenAI,
				APIKey:      "sk-test",
				Model:       "gpt-4o-mini",
				Temperature: 0.7,
				MaxTokens:   1024,
				Enabled:     true,
			},
		},
		Gateway: GatewayConfig{MaxAttempts: 3, CooldownSeconds: 60},
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestConfiguration_Validate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestConfiguration_Validate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Configuration)
		field  string
	}{
		{"bad port", func(c *Configuration) { c.Server.Port = 0 }, "server.port"},
		{"no providers", func(c *Configuration) { c.Providers = nil }, "providers"},
		{"missing api key", func(c *Configuration) { c.Providers[0].APIKey = "" }, "api_key"},
		{"missing model", func(c *Configuration) { c.Providers[0].Model = "" }, "model"},
		{"temperature too high", func(c *Configuration) { c.Providers[0].Temperature = 2.5 }, "temperature"},
		{"negative temperature", func(c *Configuration) { c.Providers[0].Temperature = -0.1 }, "temperature"},
		{"zero max tokens", func(c *Configuration) { c.Providers[0].MaxTokens = 0 }, "max_tokens"},
		{"unknown provider type", func(c *Configuration) { c.Providers[0].Type = "gemini" }, "type"},
		{"duplicate names", func(c *Configuration) { c.Providers[1].Name = "anthropic" }, "duplicated"},
		{"zero attempts", func(c *Configuration) { c.Gateway.MaxAttempts = 0 }, "max_attempts"},
		{"unknown default provider", func(c *Configuration) { c.Gateway.DefaultProvider = "nope" }, "default_provider"},
		{"bad log level", func(c *Configuration) { c.Logging.Level = "verbose" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			require.True(t, IsValidationError(err))

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.True(t, ve.HasError(tt.field), "expected an error mentioning %q, got %v", tt.field, ve.Errors)
		})
	}
}

func TestConfiguration_Validate_DisabledProvidersSkipped(t *testing.T) {
	cfg := validConfig()
	cfg.Providers[1].Enabled = false
	cfg.Providers[1].APIKey = "" // incomplete but disabled, must not fail
	require.NoError(t, cfg.Validate())
}

func TestConfiguration_Lookups(t *testing.T) {
	cfg := validConfig()
	cfg.Providers[1].Enabled = false

	assert.Len(t, cfg.EnabledProviders(), 1)

	p, ok := cfg.ProviderByName("openai")
	require.True(t, ok)
	assert.Equal(t, domain.ProviderOpenAI, p.Type)

	_, ok = cfg.ProviderByName("missing")
	assert.False(t, ok)

	assert.Len(t, cfg.ProvidersByType(domain.ProviderAnthropic), 1)
	assert.Empty(t, cfg.ProvidersByType(domain.ProviderOpenAI)) // disabled
}
