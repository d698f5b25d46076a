package execution

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flowmesh/flowmesh/model/types"
)

func TestResult_Absorb(t *testing.T) {
	composite := NewResult("")
	composite.Iterations = 0

	first := NewResult("a")
	first.ToolCalls = []ToolCall{{ID: "1", Name: "search"}}
	first.ToolResults = []ToolResult{{CallID: "1", Name: "search", Content: "hit"}}
	first.Iterations = 2
	first.TokenUsage = &TokenUsage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}

	second := NewResult("b")
	second.ToolCalls = []ToolCall{{ID: "2", Name: "fetch"}}
	second.Iterations = 3
	second.TokenUsage = &TokenUsage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2}

	composite.Absorb(first)
	composite.Absorb(second)

	assert.Equal(t, 5, composite.Iterations)
	assert.Equal(t, []ToolCall{{ID: "1", Name: "search"}, {ID: "2", Name: "fetch"}}, composite.ToolCalls)
	assert.Equal(t, 17, composite.TokenUsage.TotalTokens)
}

func TestResult_Clone(t *testing.T) {
	original := NewResult("out")
	original.Metadata["k"] = types.String("v")
	original.ToolCalls = []ToolCall{{ID: "1", Name: "t"}}

	clone := original.Clone()
	clone.Metadata["k"] = types.String("changed")
	clone.ToolCalls[0].Name = "changed"

	assert.True(t, original.Metadata["k"].Equal(types.String("v")))
	assert.Equal(t, "t", original.ToolCalls[0].Name)
}
