package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/llmbridge/llm-bridge/internal/adapter"
	"github.com/llmbridge/llm-bridge/internal/domain"
	"github.com/llmbridge/llm-bridge/internal/executor"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

// fakeProvider implements adapter.Provider with a scripted outcome.
type fakeProvider struct {
	name  string
	reply string
	err   error
	calls int
}

func (f *fakeProvider) Send(_ context.Context, _ []domain.Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeProvider) Name() string { return f.name }

func newTestRouter(providers map[string]adapter.Provider, maxAttempts int) (*gin.Engine, *domain.Rotation) {
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	rotation := domain.NewRotation(names, 0)
	runner := executor.NewRunner(providers)

	h := NewBridgeHandler(providers, rotation, runner, WithMaxAttempts(maxAttempts))

	router := gin.New()
	router.POST("/v1/chat", h.HandleChat)
	router.POST("/v1/plans", h.HandlePlan)
	router.GET("/v1/providers", h.HandleProviders)
	router.GET("/health", h.HandleHealth)
	return router, rotation
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func chatBody(provider string) map[string]any {
	return map[string]any{
		"provider": provider,
		"messages": []map[string]string{
			{"role": "user", "content": "hi"},
		},
	}
}

func TestHandleChat_PinnedProvider(t *testing.T) {
	p := &fakeProvider{name: "anthropic", reply: "hello"}
	router, _ := newTestRouter(map[string]adapter.Provider{"anthropic": p}, 3)

	w := postJSON(t, router, "/v1/chat", chatBody("anthropic"))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Provider string            `json:"provider"`
		Reply    string            `json:"reply"`
		Step     domain.StepResult `json:"step"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "anthropic", resp.Provider)
	assert.Equal(t, "hello", resp.Reply)
	assert.True(t, resp.Step.Success)
	assert.Equal(t, "llm_call", resp.Step.StepType)
}

func TestHandleChat_UnknownProvider(t *testing.T) {
	router, _ := newTestRouter(map[string]adapter.Provider{}, 3)

	w := postJSON(t, router, "/v1/chat", chatBody("gemini"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleChat_EmptyMessages(t *testing.T) {
	p := &fakeProvider{name: "anthropic", reply: "hello"}
	router, _ := newTestRouter(map[string]adapter.Provider{"anthropic": p}, 3)

	w := postJSON(t, router, "/v1/chat", map[string]any{"messages": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, p.calls)
}

func TestHandleChat_InvalidRole(t *testing.T) {
	p := &fakeProvider{name: "anthropic", reply: "hello"}
	router, _ := newTestRouter(map[string]adapter.Provider{"anthropic": p}, 3)

	w := postJSON(t, router, "/v1/chat", map[string]any{
		"messages": []map[string]string{{"role": "function", "content": "x"}},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleChat_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			"authentication failure maps to 502",
			&adapter.ProviderError{Provider: "anthropic", Kind: adapter.KindAuthenticationFailure, Status: 401},
			http.StatusBadGateway,
		},
		{
			"rate limit maps to 429",
			&adapter.ProviderError{Provider: "anthropic", Kind: adapter.KindRateLimitExceeded, Status: 429},
			http.StatusTooManyRequests,
		},
		{
			"timeout maps to 504",
			&adapter.ProviderError{Provider: "anthropic", Kind: adapter.KindTimeout},
			http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{name: "anthropic", err: tt.err}
			router, _ := newTestRouter(map[string]adapter.Provider{"anthropic": p}, 3)

			w := postJSON(t, router, "/v1/chat", chatBody("anthropic"))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestHandleChat_FailoverOnRetryable(t *testing.T) {
	// Two providers in rotation; the failing one is rate-limited, so the
	// gateway must mark it down and serve from the other.
	bad := &fakeProvider{name: "p1", err: &adapter.ProviderError{
		Provider: "p1", Kind: adapter.KindRateLimitExceeded, Status: 429,
	}}
	good := &fakeProvider{name: "p2", reply: "served"}

	providers := map[string]adapter.Provider{"p1": bad, "p2": good}
	names := []string{"p1", "p2"} // deterministic rotation order
	rotation := domain.NewRotation(names, 0)
	h := NewBridgeHandler(providers, rotation, executor.NewRunner(providers), WithMaxAttempts(3))

	router := gin.New()
	router.POST("/v1/chat", h.HandleChat)

	w := postJSON(t, router, "/v1/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "served")
	assert.True(t, rotation.IsDown("p1"))
	assert.Equal(t, 1, bad.calls)
	assert.Equal(t, 1, good.calls)
}

func TestHandleChat_AllProvidersExhausted(t *testing.T) {
	bad := &fakeProvider{name: "p1", err: &adapter.ProviderError{
		Provider: "p1", Kind: adapter.KindConnectionFailure,
	}}
	router, _ := newTestRouter(map[string]adapter.Provider{"p1": bad}, 3)

	w := postJSON(t, router, "/v1/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleChat_NonRetryableStopsFailover(t *testing.T) {
	bad := &fakeProvider{name: "p1", err: &adapter.ProviderError{
		Provider: "p1", Kind: adapter.KindAuthenticationFailure, Status: 401,
	}}
	good := &fakeProvider{name: "p2", reply: "never"}

	providers := map[string]adapter.Provider{"p1": bad, "p2": good}
	rotation := domain.NewRotation([]string{"p1", "p2"}, 0)
	h := NewBridgeHandler(providers, rotation, executor.NewRunner(providers), WithMaxAttempts(3))

	router := gin.New()
	router.POST("/v1/chat", h.HandleChat)

	w := postJSON(t, router, "/v1/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "content": "hi"}},
	})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Zero(t, good.calls)
	assert.False(t, rotation.IsDown("p1"))
}

func TestHandlePlan(t *testing.T) {
	p := &fakeProvider{name: "anthropic", reply: "step done"}
	router, _ := newTestRouter(map[string]adapter.Provider{"anthropic": p}, 3)

	w := postJSON(t, router, "/v1/plans", map[string]any{
		"steps": []map[string]any{
			{
				"type":     "llm_call",
				"provider": "anthropic",
				"messages": []map[string]string{{"role": "user", "content": "hi"}},
			},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var result domain.ExecutionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "step done", result.FinalResponse)
	require.Len(t, result.StepResults, 1)
}

func TestHandlePlan_EmptySteps(t *testing.T) {
	router, _ := newTestRouter(map[string]adapter.Provider{}, 3)

	w := postJSON(t, router, "/v1/plans", map[string]any{"steps": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleHealth(t *testing.T) {
	p := &fakeProvider{name: "anthropic", reply: "hello"}
	router, rotation := newTestRouter(map[string]adapter.Provider{"anthropic": p}, 3)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	rotation.MarkDown("anthropic")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, w.Body.String(), "degraded")
}

func TestHandleProviders(t *testing.T) {
	p := &fakeProvider{name: "anthropic", reply: "hello"}
	router, _ := newTestRouter(map[string]adapter.Provider{"anthropic": p}, 3)

	req := httptest.NewRequest(http.MethodGet, "/v1/providers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "anthropic")
}
