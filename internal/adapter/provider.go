// Package adapter provides implementations for external AI provider integrations.
// It uses the Adapter pattern to abstract provider-specific APIs behind a common interface.
package adapter

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/llmbridge/llm-bridge/internal/domain"
)

// DefaultTimeout is the default HTTP client timeout for provider calls.
const DefaultTimeout = 30 * time.Second

// ErrNoMessages is returned by an adapter, before any network call, when
// the input sequence carries no turn the backend would accept.
var ErrNoMessages = errors.New("adapter: no content-bearing messages to send")

// Provider defines the interface for AI provider adapters.
// All provider implementations must satisfy this interface.
type Provider interface {
	// Send translates the uniform message sequence into the backend's
	// schema, issues exactly one HTTP request, and returns the text of
	// the backend's first returned content item. Failures surface as
	// *ProviderError; adapters never retry.
	Send(ctx context.Context, messages []domain.Message) (string, error)

	// Name returns the provider's identifier string.
	Name() string
}

// Config holds the per-adapter configuration supplied at construction time.
// The config layer validates these values before any adapter is built;
// adapters assume they are valid.
type Config struct {
	// APIKey is the backend credential. Treated as sensitive by the
	// logging layer; adapters never include it in error messages.
	APIKey string

	// Model is the backend model identifier.
	Model string

	// Temperature is the sampling temperature (0.0-2.0).
	Temperature float64

	// MaxTokens caps the response length.
	MaxTokens int
}

// options holds the knobs shared by all adapter constructors.
type options struct {
	baseURL      string
	httpClient   *http.Client
	timeout      time.Duration
	inlineSystem *bool
}

// Option is a functional option for configuring an adapter.
type Option func(*options)

// WithBaseURL sets a custom base URL for the backend API.
func WithBaseURL(url string) Option {
	return func(o *options) {
		o.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.timeout = timeout
	}
}

// WithInlineSystem overrides the adapter's system-message policy.
// When true, system turns stay in the translated turn list; when false,
// they are extracted and joined (separated by a blank line, in encounter
// order) into the backend's dedicated system field. Each adapter carries
// its backend's natural default.
func WithInlineSystem(inline bool) Option {
	return func(o *options) {
		o.inlineSystem = &inline
	}
}

// applyOptions resolves options against an adapter's defaults.
func applyOptions(defaultBaseURL string, defaultInline bool, opts []Option) options {
	o := options{
		baseURL: defaultBaseURL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if o.timeout > 0 {
		o.httpClient.Timeout = o.timeout
	}
	if o.inlineSystem == nil {
		o.inlineSystem = &defaultInline
	}
	return o
}

// joinSystem concatenates system-message contents in encounter order,
// separated by a blank line.
func joinSystem(messages []domain.Message) string {
	var parts []string
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n\n")
}
