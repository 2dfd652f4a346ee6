// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/enrich-engine/pkg/types"
)

// retryDelay is the base delay between invocation attempts, doubled per
// attempt. Variable so tests can shrink it.
var retryDelay = 2 * time.Second

// ErrMissingAPIKey marks a client constructed without a credential.
var ErrMissingAPIKey = errors.New("model api key is required")

// InvokeError reports a failed invocation after all retries.
type InvokeError struct {
	Status   int
	Attempts int
	Err      error
}

func (e *InvokeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model invocation failed after %d attempts: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("model invocation failed after %d attempts: status %d", e.Attempts, e.Status)
}

func (e *InvokeError) Unwrap() error { return e.Err }

// Client talks to a chat-completions endpoint.
type Client struct {
	cfg types.ModelConfig

	// HTTPClient is overridable for tests.
	HTTPClient *http.Client
}

// NewClient creates a Client with defaults applied. The API key must be
// present; everything else has a sane default.
func NewClient(cfg types.ModelConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Client{
		cfg:        cfg,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Wire format types.

type chatFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type chatToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	Name       string         `json:"name,omitempty"`
}

type chatTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Parameters  json.RawMessage `json:"parameters"`
	} `json:"function"`
}

type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []chatTool    `json:"tools,omitempty"`
	ToolChoice any           `json:"tool_choice,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Invoke sends the conversation and returns the model's reply. Transport
// failures and retryable statuses (429, 5xx) are retried with exponential
// backoff up to MaxRetries.
func (c *Client) Invoke(ctx context.Context, req Request) (Response, error) {
	payload := chatRequest{
		Model:    c.cfg.Model,
		Messages: encodeMessages(req),
		Tools:    encodeTools(req.Tools),
	}
	if req.ForceTool != "" {
		payload.ToolChoice = map[string]any{
			"type":     "function",
			"function": map[string]string{"name": req.ForceTool},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}

	var lastErr error
	lastStatus := 0
	attempts := 0
	delay := retryDelay

	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return Response{}, ctx.Err()
			}
			delay *= 2
		}
		attempts++

		resp, status, err := c.post(ctx, body)
		if err != nil {
			lastErr, lastStatus = err, 0
			continue
		}
		if status == http.StatusTooManyRequests || status >= 500 {
			lastErr, lastStatus = nil, status
			continue
		}
		if status != http.StatusOK {
			return Response{}, decodeFailure(resp, status, attempts)
		}
		return decodeResponse(resp, attempts)
	}

	return Response{}, &InvokeError{Status: lastStatus, Attempts: attempts, Err: lastErr}
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, int, error) {
	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return data, resp.StatusCode, nil
}

func decodeFailure(body []byte, status, attempts int) error {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil {
		return &InvokeError{Status: status, Attempts: attempts, Err: errors.New(resp.Error.Message)}
	}
	return &InvokeError{Status: status, Attempts: attempts}
}

func decodeResponse(body []byte, attempts int) (Response, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("decoding model response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, &InvokeError{Status: http.StatusOK, Attempts: attempts, Err: errors.New("response carried no choices")}
	}

	msg := resp.Choices[0].Message
	out := Response{Content: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, types.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

// encodeMessages maps conversation roles onto the wire roles, prepending
// the system instruction when present.
func encodeMessages(req Request) []chatMessage {
	out := make([]chatMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, chatMessage{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		cm := chatMessage{Content: m.Content}
		switch m.Role {
		case types.RoleHuman:
			cm.Role = "user"
		case types.RoleModel:
			cm.Role = "assistant"
			for _, tc := range m.ToolCalls {
				cm.ToolCalls = append(cm.ToolCalls, chatToolCall{
					ID:   tc.ID,
					Type: "function",
					Function: chatFunction{
						Name:      tc.Name,
						Arguments: string(tc.Arguments),
					},
				})
			}
		case types.RoleTool:
			cm.Role = "tool"
			cm.ToolCallID = m.ToolCallID
			cm.Name = m.ToolName
		}
		out = append(out, cm)
	}
	return out
}

func encodeTools(tools []ToolDescriptor) []chatTool {
	out := make([]chatTool, 0, len(tools))
	for _, t := range tools {
		var ct chatTool
		ct.Type = "function"
		ct.Function.Name = t.Name
		ct.Function.Description = t.Description
		ct.Function.Parameters = t.Parameters
		out = append(out, ct)
	}
	return out
}
