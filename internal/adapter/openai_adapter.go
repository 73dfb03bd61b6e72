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

// DefaultOpenAIBaseURL is the default OpenAI API endpoint.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIAdapter implements Provider for the OpenAI Chat Completions API.
// OpenAI expects system instructions inline: by default, System turns stay
// in the messages array with role "system".
type OpenAIAdapter struct {
	cfg          Config
	baseURL      string
	httpClient   *http.Client
	inlineSystem bool
}

// NewOpenAIAdapter creates a new OpenAIAdapter with the given configuration.
func NewOpenAIAdapter(cfg Config, opts ...Option) *OpenAIAdapter {
	o := applyOptions(DefaultOpenAIBaseURL, true, opts)
	return &OpenAIAdapter{
		cfg:          cfg,
		baseURL:      o.baseURL,
		httpClient:   o.httpClient,
		inlineSystem: *o.inlineSystem,
	}
}

// Name returns the provider identifier.
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Send performs one Chat Completions call. Call-scoped state is local to
// the invocation; the adapter is safe for concurrent use.
func (a *OpenAIAdapter) Send(ctx context.Context, messages []domain.Message) (string, error) {
	turns := a.convertMessages(messages)
	if len(turns) == 0 {
		return "", ErrNoMessages
	}

	req := chatCompletionRequest{
		Model:       a.cfg.Model,
		Messages:    turns,
		Temperature: a.cfg.Temperature,
		MaxTokens:   a.cfg.MaxTokens,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal openai request: %w", err)
	}

	url := a.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
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

	var decoded chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &ProviderError{Provider: a.Name(), Kind: KindDeserializationFailure, Err: err}
	}

	if len(decoded.Choices) == 0 {
		return "", &ProviderError{Provider: a.Name(), Kind: KindEmptyResponse}
	}

	return decoded.Choices[0].Message.Content, nil
}

// convertMessages translates the uniform sequence into Chat Completions
// turns. With the default inline policy every message maps 1:1 in order,
// role preserved. When inline system is disabled, System turns are merged
// (blank-line separated, encounter order) into a single leading system
// turn instead.
func (a *OpenAIAdapter) convertMessages(messages []domain.Message) []openAIMessage {
	turns := make([]openAIMessage, 0, len(messages))

	if a.inlineSystem {
		for _, m := range messages {
			turns = append(turns, openAIMessage{Role: string(m.Role), Content: m.Content})
		}
		return turns
	}

	system := joinSystem(messages)
	if system != "" {
		turns = append(turns, openAIMessage{Role: string(domain.RoleSystem), Content: system})
	}
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			continue
		}
		turns = append(turns, openAIMessage{Role: string(m.Role), Content: m.Content})
	}
	return turns
}

// ============================================================================
// OpenAI API Types
// ============================================================================

// openAIMessage is a single turn in Chat Completions format.
type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatCompletionRequest is the Chat Completions request body.
type chatCompletionRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

// chatCompletionResponse is the Chat Completions response body.
type chatCompletionResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []openAIChoice `json:"choices"`
}

// openAIChoice is one candidate completion.
type openAIChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}
