// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "encoding/json"

// MessageRole identifies the author of a session history entry.
type MessageRole string

const (
	RoleHuman MessageRole = "human"
	RoleModel MessageRole = "model"
	RoleTool  MessageRole = "tool"
)

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	// ID correlates the call with its result entry.
	ID string `json:"id" yaml:"id"`

	// Name is the tool name as presented to the model.
	Name string `json:"name" yaml:"name"`

	// Arguments is the raw JSON argument object.
	Arguments json.RawMessage `json:"arguments" yaml:"arguments"`
}

// Message is one entry in a session's ordered history. Human entries carry
// prompts and corrective instructions, model entries carry text or tool
// calls, and tool entries carry results keyed by ToolCallID.
type Message struct {
	Role       MessageRole `json:"role" yaml:"role"`
	Content    string      `json:"content,omitempty" yaml:"content,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty" yaml:"tool_call_id,omitempty"`

	// ToolName and IsError describe tool-result entries. IsError marks a
	// result that carries an error string rather than a success payload.
	ToolName string `json:"tool_name,omitempty" yaml:"tool_name,omitempty"`
	IsError  bool   `json:"is_error,omitempty" yaml:"is_error,omitempty"`
}

// Verdict is the reflection step's judgment of submitted info.
type Verdict struct {
	// Reasons holds at least three textual justifications.
	Reasons []string `json:"reasons" yaml:"reasons"`

	// IsSatisfactory reports whether the info satisfies the schema and topic.
	IsSatisfactory bool `json:"is_satisfactory" yaml:"is_satisfactory"`

	// ImprovementInstructions guides further research when unsatisfactory.
	ImprovementInstructions string `json:"improvement_instructions,omitempty" yaml:"improvement_instructions,omitempty"`
}

// SessionResult is the terminal output of one research session.
type SessionResult struct {
	// SessionID uniquely identifies the run.
	SessionID string `json:"session_id" yaml:"session_id"`

	// Topic is the research subject the session was asked about.
	Topic string `json:"topic" yaml:"topic"`

	// Info is the extracted information matching the caller's schema, or
	// nil when the session ended without a submission.
	Info json.RawMessage `json:"info,omitempty" yaml:"info,omitempty"`

	// Iterations is the number of planning passes consumed.
	Iterations int `json:"iterations" yaml:"iterations"`

	// Verdict is the reflection judgment, when a submission occurred.
	Verdict *Verdict `json:"verdict,omitempty" yaml:"verdict,omitempty"`

	// Messages is the full session history, including the error trail of
	// any failed tool calls.
	Messages []Message `json:"messages" yaml:"messages"`
}
