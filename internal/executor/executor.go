// Package executor runs plans: ordered sequences of provider calls whose
// outcomes are aggregated into an ExecutionResult. All sequencing and
// continue-vs-abort policy lives here, on the caller side of the provider
// contract; adapters stay single-shot and retry-free.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/llmbridge/llm-bridge/internal/adapter"
	"github.com/llmbridge/llm-bridge/internal/domain"
)

// Step is one planned provider call.
type Step struct {
	// Type labels the step in the recorded results (e.g. "llm_call").
	Type string `json:"type"`

	// Provider names the adapter to use. Empty selects the runner's default.
	Provider string `json:"provider,omitempty"`

	// Messages is the uniform conversation sequence for this call.
	Messages []domain.Message `json:"messages"`
}

// Runner executes plans sequentially against a registry of providers.
type Runner struct {
	providers       map[string]adapter.Provider
	defaultProvider string
	failFast        bool
	logger          *slog.Logger
}

// RunnerOption is a functional option for configuring a Runner.
type RunnerOption func(*Runner)

// WithFailFast makes the runner stop at the first failed step instead of
// continuing through the remainder of the plan.
func WithFailFast(failFast bool) RunnerOption {
	return func(r *Runner) {
		r.failFast = failFast
	}
}

// WithDefaultProvider sets the provider used by steps that name none.
func WithDefaultProvider(name string) RunnerOption {
	return func(r *Runner) {
		r.defaultProvider = name
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner over the given provider registry.
func NewRunner(providers map[string]adapter.Provider, opts ...RunnerOption) *Runner {
	r := &Runner{
		providers: providers,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the steps in order. Each step is recorded as successful
// only if its provider call returned text; failures record the error
// description as the step output. FinalResponse is the output of the
// last successful step. Run never retries a step.
func (r *Runner) Run(ctx context.Context, steps []Step) domain.ExecutionResult {
	result := domain.ExecutionResult{
		Success:     true,
		StepResults: make([]domain.StepResult, 0, len(steps)),
	}

	for i, step := range steps {
		name := step.Provider
		if name == "" {
			name = r.defaultProvider
		}

		provider, ok := r.providers[name]
		if !ok {
			result.Success = false
			result.StepResults = append(result.StepResults,
				domain.StepFailure(step.Type, fmt.Sprintf("unknown provider %q", name)))
			r.logger.Warn("step skipped",
				slog.Int("step", i),
				slog.String("provider", name),
				slog.String("reason", "unknown provider"),
			)
			if r.failFast {
				break
			}
			continue
		}

		text, err := provider.Send(ctx, step.Messages)
		if err != nil {
			result.Success = false
			result.StepResults = append(result.StepResults, domain.StepFailure(step.Type, err.Error()))
			r.logger.Warn("step failed",
				slog.Int("step", i),
				slog.String("provider", name),
				slog.String("kind", string(adapter.Kind(err))),
				slog.String("error", err.Error()),
			)
			if r.failFast {
				break
			}
			continue
		}

		result.StepResults = append(result.StepResults, domain.StepSuccess(step.Type, text))
		result.FinalResponse = text
		r.logger.Debug("step completed",
			slog.Int("step", i),
			slog.String("provider", name),
		)
	}

	return result
}
