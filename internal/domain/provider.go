// Package domain contains the core business entities and value objects.
package domain

// ProviderType identifies the kind of LLM backend an adapter talks to.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
)

// IsValid reports whether the provider type is supported.
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderAnthropic, ProviderOpenAI:
		return true
	default:
		return false
	}
}
