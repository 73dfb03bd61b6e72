package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		role    Role
		content string
	}{
		{"system", SystemMessage("be concise"), RoleSystem, "be concise"},
		{"user", UserMessage("hi"), RoleUser, "hi"},
		{"assistant", AssistantMessage("hello"), RoleAssistant, "hello"},
		{"empty content is legal", UserMessage(""), RoleUser, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.role, tt.msg.Role)
			assert.Equal(t, tt.content, tt.msg.Content)
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleSystem.IsValid())
	assert.True(t, RoleUser.IsValid())
	assert.True(t, RoleAssistant.IsValid())
	assert.False(t, Role("function").IsValid())
	assert.False(t, Role("").IsValid())
}

func TestStepResult_Constructors(t *testing.T) {
	ok := StepSuccess("llm_call", "hello")
	assert.True(t, ok.Success)
	assert.Equal(t, "llm_call", ok.StepType)
	assert.Equal(t, "hello", ok.Output)

	fail := StepFailure("llm_call", "rate limit exceeded")
	assert.False(t, fail.Success)
	assert.Equal(t, "rate limit exceeded", fail.Output)
}

func TestExecutionResult_JSONShape(t *testing.T) {
	res := ExecutionResult{
		Success:       true,
		FinalResponse: "done",
		StepResults:   []StepResult{StepSuccess("llm_call", "done")},
	}

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "final_response")
	assert.Contains(t, decoded, "step_results")

	steps, ok := decoded["step_results"].([]any)
	require.True(t, ok)
	require.Len(t, steps, 1)
	step := steps[0].(map[string]any)
	assert.Contains(t, step, "step_type")
	assert.Contains(t, step, "output")
	assert.Contains(t, step, "success")
}
