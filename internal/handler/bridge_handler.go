// Package handler provides HTTP handlers for the LLM bridge gateway.
package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/llmbridge/llm-bridge/internal/adapter"
	"github.com/llmbridge/llm-bridge/internal/domain"
	"github.com/llmbridge/llm-bridge/internal/executor"
	"github.com/llmbridge/llm-bridge/internal/ui"
)

// DefaultMaxAttempts is the default number of providers tried per request.
const DefaultMaxAttempts = 3

// BridgeHandler exposes the provider abstraction over HTTP. A request
// either names a provider explicitly (single call, no failover) or lets
// the rotation pick one, with automatic failover to the next provider on
// retryable errors. Failover is gateway policy; the adapters underneath
// perform exactly one call each.
type BridgeHandler struct {
	providers   map[string]adapter.Provider
	rotation    *domain.Rotation
	runner      *executor.Runner
	logger      *slog.Logger
	maxAttempts int
}

// Option is a functional option for configuring BridgeHandler.
type Option func(*BridgeHandler)

// WithMaxAttempts sets the maximum number of providers tried per request.
func WithMaxAttempts(max int) Option {
	return func(h *BridgeHandler) {
		if max > 0 {
			h.maxAttempts = max
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *BridgeHandler) {
		h.logger = logger
	}
}

// NewBridgeHandler creates a new BridgeHandler.
func NewBridgeHandler(
	providers map[string]adapter.Provider,
	rotation *domain.Rotation,
	runner *executor.Runner,
	opts ...Option,
) *BridgeHandler {
	h := &BridgeHandler{
		providers:   providers,
		rotation:    rotation,
		runner:      runner,
		logger:      slog.Default(),
		maxAttempts: DefaultMaxAttempts,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// chatRequest is the uniform conversation payload accepted by the gateway.
type chatRequest struct {
	// Provider optionally pins the request to one adapter by name.
	Provider string `json:"provider"`

	// Messages is the ordered conversation sequence.
	Messages []domain.Message `json:"messages"`
}

// chatResponse carries the reply together with its recorded step result.
type chatResponse struct {
	Provider string            `json:"provider"`
	Reply    string            `json:"reply"`
	Step     domain.StepResult `json:"step"`
}

// planRequest is an ordered sequence of steps to execute.
type planRequest struct {
	Steps []executor.Step `json:"steps"`
}

// HandleChat handles POST /v1/chat.
func (h *BridgeHandler) HandleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}

	if len(req.Messages) == 0 {
		h.sendError(c, http.StatusBadRequest, "invalid_request", "messages array is required")
		return
	}
	for i, m := range req.Messages {
		if !m.Role.IsValid() {
			h.sendError(c, http.StatusBadRequest, "invalid_request",
				fmt.Sprintf("messages[%d]: unknown role %q", i, m.Role))
			return
		}
	}

	if req.Provider != "" {
		h.chatPinned(c, req)
		return
	}
	h.chatWithFailover(c, req)
}

// chatPinned performs a single call against an explicitly named provider.
func (h *BridgeHandler) chatPinned(c *gin.Context, req chatRequest) {
	provider, ok := h.providers[req.Provider]
	if !ok {
		h.sendError(c, http.StatusNotFound, "unknown_provider", "no provider named "+req.Provider)
		return
	}

	text, err := provider.Send(c.Request.Context(), req.Messages)
	if err != nil {
		h.logger.Error("provider call failed",
			slog.String("provider", req.Provider),
			slog.String("kind", string(adapter.Kind(err))),
			slog.String("error", err.Error()),
		)
		h.sendError(c, statusForError(err), "provider_error", err.Error())
		return
	}

	c.Set("provider_used", req.Provider)
	c.JSON(http.StatusOK, chatResponse{
		Provider: req.Provider,
		Reply:    text,
		Step:     domain.StepSuccess("llm_call", text),
	})
}

// chatWithFailover rotates through providers until one succeeds, marking
// failing providers down so subsequent requests skip them.
func (h *BridgeHandler) chatWithFailover(c *gin.Context, req chatRequest) {
	var lastErr error

	for attempt := 1; attempt <= h.maxAttempts; attempt++ {
		name, err := h.rotation.Next()
		if err != nil {
			h.logger.Warn("no providers available", slog.Int("attempt", attempt))
			h.sendError(c, http.StatusServiceUnavailable, "no_providers", "no providers available")
			return
		}

		provider, ok := h.providers[name]
		if !ok {
			// Rotation and registry are built from the same config;
			// a miss here means a programming error upstream.
			h.rotation.MarkDown(name)
			continue
		}

		c.Set("provider_used", name)
		c.Set("attempts", attempt)

		text, err := provider.Send(c.Request.Context(), req.Messages)
		if err == nil {
			h.logger.Info("request successful",
				slog.Int("attempt", attempt),
				slog.String("provider", name),
			)
			c.JSON(http.StatusOK, chatResponse{
				Provider: name,
				Reply:    text,
				Step:     domain.StepSuccess("llm_call", text),
			})
			return
		}

		if adapter.Retryable(err) {
			h.logger.Warn("retryable error, rotating provider",
				slog.Int("attempt", attempt),
				slog.String("provider", name),
				slog.String("kind", string(adapter.Kind(err))),
				slog.String("error", err.Error()),
			)
			ui.PrintProviderDown(name, string(adapter.Kind(err)))
			h.rotation.MarkDown(name)
			lastErr = err
			continue
		}

		h.logger.Error("non-retryable error",
			slog.Int("attempt", attempt),
			slog.String("provider", name),
			slog.String("kind", string(adapter.Kind(err))),
			slog.String("error", err.Error()),
		)
		h.sendError(c, statusForError(err), "provider_error", err.Error())
		return
	}

	h.logger.Error("all providers exhausted",
		slog.Int("max_attempts", h.maxAttempts),
		slog.String("error", errString(lastErr)),
	)
	h.sendError(c, http.StatusServiceUnavailable, "providers_exhausted",
		"all providers failed, please try again later")
}

// HandlePlan handles POST /v1/plans: runs the steps through the executor
// and returns the aggregated ExecutionResult.
func (h *BridgeHandler) HandlePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, http.StatusBadRequest, "invalid_request", "invalid request body: "+err.Error())
		return
	}
	if len(req.Steps) == 0 {
		h.sendError(c, http.StatusBadRequest, "invalid_request", "steps array is required")
		return
	}

	result := h.runner.Run(c.Request.Context(), req.Steps)
	c.JSON(http.StatusOK, result)
}

// HandleProviders handles GET /v1/providers.
func (h *BridgeHandler) HandleProviders(c *gin.Context) {
	providers := make([]gin.H, 0, len(h.providers))
	for name := range h.providers {
		providers = append(providers, gin.H{
			"name": name,
			"down": h.rotation.IsDown(name),
		})
	}
	c.JSON(http.StatusOK, gin.H{"providers": providers})
}

// HandleHealth handles GET /health.
func (h *BridgeHandler) HandleHealth(c *gin.Context) {
	active := h.rotation.ActiveCount()

	status := "healthy"
	if active == 0 {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           status,
		"active_providers": active,
		"down_providers":   h.rotation.DownCount(),
		"total_providers":  h.rotation.TotalCount(),
	})
}

// sendError sends an error response in the gateway's uniform format.
func (h *BridgeHandler) sendError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"type":    errType,
			"message": message,
		},
	})
}

// statusForError maps a provider failure onto the gateway's response status.
func statusForError(err error) int {
	switch adapter.Kind(err) {
	case adapter.KindTimeout:
		return http.StatusGatewayTimeout
	case adapter.KindRateLimitExceeded:
		return http.StatusTooManyRequests
	case adapter.KindConnectionFailure,
		adapter.KindAuthenticationFailure,
		adapter.KindHTTPFailure,
		adapter.KindDeserializationFailure,
		adapter.KindEmptyResponse:
		return http.StatusBadGateway
	default:
		return http.StatusBadGateway
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
