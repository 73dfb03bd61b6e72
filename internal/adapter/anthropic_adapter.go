// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/llmbridge/llm-bridge/internal/domain"
)

// DefaultAnthropicBaseURL is the default Anthropic API endpoint.
const DefaultAnthropicBaseURL = "https://api.anthropic.com"

// anthropicVersion is the required API versioning header value.
const anthropicVersion = "2023-06-01"

// maxErrorBodyBytes caps how much of an error response body is retained.
const maxErrorBodyBytes = 32 * 1024

// AnthropicAdapter implements Provider for the Anthropic Messages API.
// Anthropic models system instructions out-of-band: by default, System
// turns are extracted from the turn list and merged into the request's
// dedicated system field.
type AnthropicAdapter struct {
	cfg          Config
	baseURL      string
	httpClient   *http.Client
	inlineSystem bool
}

// NewAnthropicAdapter creates a new AnthropicAdapter with the given configuration.
func NewAnthropicAdapter(cfg Config, opts ...Option) *AnthropicAdapter {
	o := applyOptions(DefaultAnthropicBaseURL, false, opts)
	return &AnthropicAdapter{
		cfg:          cfg,
		baseURL:      o.baseURL,
		httpClient:   o.httpClient,
		inlineSystem: *o.inlineSystem,
	}
}

// Name returns the provider identifier.
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

// Send performs one Messages API call. All call-scoped state (converted
// messages, request body) is local to this invocation, so a single
// adapter instance is safe to use from concurrent goroutines.
func (a *AnthropicAdapter) Send(ctx context.Context, messages []domain.Message) (string, error) {
	system, turns := a.convertMessages(messages)
	if len(turns) == 0 {
		return "", ErrNoMessages
	}

	req := messagesRequest{
		Model:       a.cfg.Model,
		Messages:    turns,
		System:      system,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal anthropic request: %w", err)
	}

	url := a.baseURL + "/v1/messages"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("x-api-key", a.cfg.APIKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", transportError(a.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return "", statusError(a.Name(), resp.StatusCode, respBody)
	}

	var decoded messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &ProviderError{Provider: a.Name(), Kind: KindDeserializationFailure, Err: err}
	}

	if len(decoded.Content) == 0 {
		return "", &ProviderError{Provider: a.Name(), Kind: KindEmptyResponse}
	}

	return decoded.Content[0].Text, nil
}

// convertMessages translates the uniform sequence into Anthropic turns.
// System messages are removed from the turn list and joined into the
// returned system string unless the adapter was configured for inline
// system turns (useful for Anthropic-compatible proxies that accept a
// "system" role in the messages array). Non-system turns are mapped 1:1
// in original order, role and content preserved verbatim.
func (a *AnthropicAdapter) convertMessages(messages []domain.Message) (string, []anthropicMessage) {
	turns := make([]anthropicMessage, 0, len(messages))

	if a.inlineSystem {
		for _, m := range messages {
			turns = append(turns, anthropicMessage{Role: string(m.Role), Content: m.Content})
		}
		return "", turns
	}

	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			continue
		}
		turns = append(turns, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}
	return joinSystem(messages), turns
}

// ============================================================================
// Anthropic API Types
// ============================================================================

// anthropicMessage is a single turn in Messages API format.
type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messagesRequest is the Messages API request body. The system field is
// omitted entirely when no System turn was present.
type messagesRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
}

// messagesResponse is the Messages API response body.
type messagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Content    []contentBlock `json:"content"`
	Model      string         `json:"model"`
	StopReason string         `json:"stop_reason"`
}

// contentBlock is one content item in the response.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
