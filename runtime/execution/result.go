package execution

import (
	"time"

	"github.com/flowmesh/flowmesh/model/types"
)

// ToolCall records a single tool invocation requested by a unit, in the
// order it was issued.
type ToolCall struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Arguments map[string]types.Value `json:"arguments,omitempty"`
}

// ToolResult records the outcome of a tool call, in completion order.
type ToolResult struct {
	CallID  string `json:"callId"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// TokenUsage aggregates model token consumption for a unit run.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Add accumulates usage from another counter.
func (u *TokenUsage) Add(other *TokenUsage) {
	if other == nil {
		return
	}
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Result is the uniform outcome every execution unit reports back.
type Result struct {
	Output      string         `json:"output"`
	ToolCalls   []ToolCall     `json:"toolCalls,omitempty"`
	ToolResults []ToolResult   `json:"toolResults,omitempty"`
	Iterations  int            `json:"iterations"`
	Duration    time.Duration  `json:"duration"`
	TokenUsage  *TokenUsage    `json:"tokenUsage,omitempty"`
	Metadata    types.Metadata `json:"metadata,omitempty"`
}

// NewResult creates a result with the supplied output and empty metadata.
func NewResult(output string) *Result {
	return &Result{Output: output, Iterations: 1, Metadata: types.NewMetadata()}
}

// Absorb folds a child result into an accumulating composite result: tool
// calls and tool results are appended in order, iteration counts and token
// usage are summed. Metadata is deliberately left to the caller, which
// applies its own namespacing scheme.
func (r *Result) Absorb(child *Result) {
	if child == nil {
		return
	}
	r.ToolCalls = append(r.ToolCalls, child.ToolCalls...)
	r.ToolResults = append(r.ToolResults, child.ToolResults...)
	r.Iterations += child.Iterations
	if child.TokenUsage != nil {
		if r.TokenUsage == nil {
			r.TokenUsage = &TokenUsage{}
		}
		r.TokenUsage.Add(child.TokenUsage)
	}
}

// Clone creates a deep copy of the result so the caller can mutate it
// without affecting the original instance.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	clone := *r
	clone.ToolCalls = append([]ToolCall(nil), r.ToolCalls...)
	clone.ToolResults = append([]ToolResult(nil), r.ToolResults...)
	if r.TokenUsage != nil {
		usage := *r.TokenUsage
		clone.TokenUsage = &usage
	}
	if r.Metadata != nil {
		clone.Metadata = r.Metadata.Clone()
	}
	return &clone
}
