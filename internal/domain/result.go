// Package domain contains the core business entities and value objects.
package domain

// StepResult records the outcome of a single provider call as tracked by
// the plan executor. A step is successful only if the provider returned
// text; the text itself is never inspected.
type StepResult struct {
	// StepType identifies the kind of step that was executed.
	StepType string `json:"step_type"`

	// Output is the provider's reply on success, or the error
	// description on failure.
	Output string `json:"output"`

	// Success reports whether the provider call returned text.
	Success bool `json:"success"`
}

// StepSuccess builds a successful step result.
func StepSuccess(stepType, output string) StepResult {
	return StepResult{StepType: stepType, Output: output, Success: true}
}

// StepFailure builds a failed step result.
func StepFailure(stepType, output string) StepResult {
	return StepResult{StepType: stepType, Output: output, Success: false}
}

// ExecutionResult aggregates the outcome of a full plan: one StepResult
// per executed step, in execution order.
type ExecutionResult struct {
	// Success reports whether the plan as a whole executed successfully.
	Success bool `json:"success"`

	// FinalResponse is the response to return to the caller, taken from
	// the last successful step.
	FinalResponse string `json:"final_response"`

	// StepResults holds the per-step outcomes in execution order.
	StepResults []StepResult `json:"step_results"`
}
