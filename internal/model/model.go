// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package model is the boundary to the reasoning model. The agent speaks
// to a Model interface; the concrete client implements the widely used
// chat-completions wire format, so any compatible endpoint can serve it.
package model

import (
	"context"
	"encoding/json"

	"github.com/pdiddy/enrich-engine/pkg/types"
)

// ToolDescriptor advertises one callable tool to the model. Parameters is
// a JSON Schema object describing the tool's arguments.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Request is one model invocation: a system instruction, the conversation
// so far, and the tools the model may call. ForceTool, when set, requires
// the model to call that specific tool.
type Request struct {
	System    string
	Messages  []types.Message
	Tools     []ToolDescriptor
	ForceTool string
}

// Response is the model's reply: free text, tool calls, or both.
type Response struct {
	Content   string
	ToolCalls []types.ToolCall
}

// Model generates a response for a conversation.
type Model interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}
