// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package model

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/enrich-engine/pkg/types"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(types.ModelConfig{
		Model:      "test-model",
		BaseURL:    baseURL,
		APIKey:     "sk-test",
		MaxRetries: 2,
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)
	return c
}

func chatBody(t *testing.T, msg chatMessage) []byte {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"choices": []map[string]any{{"message": msg}},
	})
	require.NoError(t, err)
	return data
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(types.ModelConfig{Model: "test-model"})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestInvokeTextResponse(t *testing.T) {
	var gotReq chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write(chatBody(t, chatMessage{Role: "assistant", Content: "hello"}))
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	resp, err := c.Invoke(context.Background(), Request{
		System:   "You are a researcher.",
		Messages: []types.Message{{Role: types.RoleHuman, Content: "hi"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Content)
	assert.Empty(t, resp.ToolCalls)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
	assert.Equal(t, "test-model", gotReq.Model)
}

func TestInvokeToolCalls(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(chatBody(t, chatMessage{
			Role: "assistant",
			ToolCalls: []chatToolCall{{
				ID:       "call_1",
				Type:     "function",
				Function: chatFunction{Name: "search", Arguments: `{"query":"David Bowie"}`},
			}},
		}))
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	resp, err := c.Invoke(context.Background(), Request{
		Messages: []types.Message{{Role: types.RoleHuman, Content: "find Bowie"}},
	})
	require.NoError(t, err)

	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "call_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "search", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"query":"David Bowie"}`, string(resp.ToolCalls[0].Arguments))
}

func TestInvokeEncodesToolHistory(t *testing.T) {
	var gotReq chatRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write(chatBody(t, chatMessage{Role: "assistant", Content: "done"}))
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	_, err := c.Invoke(context.Background(), Request{
		Messages: []types.Message{
			{Role: types.RoleHuman, Content: "find Bowie"},
			{Role: types.RoleModel, ToolCalls: []types.ToolCall{
				{ID: "call_1", Name: "search", Arguments: json.RawMessage(`{"query":"Bowie"}`)},
			}},
			{Role: types.RoleTool, Content: `[]`, ToolCallID: "call_1", ToolName: "search"},
		},
	})
	require.NoError(t, err)

	require.Len(t, gotReq.Messages, 3)
	assert.Equal(t, "assistant", gotReq.Messages[1].Role)
	require.Len(t, gotReq.Messages[1].ToolCalls, 1)
	assert.Equal(t, "call_1", gotReq.Messages[1].ToolCalls[0].ID)
	assert.Equal(t, "tool", gotReq.Messages[2].Role)
	assert.Equal(t, "call_1", gotReq.Messages[2].ToolCallID)
	assert.Equal(t, "search", gotReq.Messages[2].Name)
}

func TestInvokeForceTool(t *testing.T) {
	var raw map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Write(chatBody(t, chatMessage{Role: "assistant", Content: "{}"}))
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	_, err := c.Invoke(context.Background(), Request{
		Messages:  []types.Message{{Role: types.RoleHuman, Content: "judge this"}},
		ForceTool: "verdict",
	})
	require.NoError(t, err)

	choice, ok := raw["tool_choice"].(map[string]any)
	require.True(t, ok)
	fn, ok := choice["function"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "verdict", fn["name"])
}

func TestInvokeRetriesThenSucceeds(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write(chatBody(t, chatMessage{Role: "assistant", Content: "recovered"}))
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	resp, err := c.Invoke(context.Background(), Request{
		Messages: []types.Message{{Role: types.RoleHuman, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "recovered", resp.Content)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestInvokeExhaustsRetries(t *testing.T) {
	old := retryDelay
	retryDelay = time.Millisecond
	defer func() { retryDelay = old }()

	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	_, err := c.Invoke(context.Background(), Request{
		Messages: []types.Message{{Role: types.RoleHuman, Content: "hi"}},
	})

	var invokeErr *InvokeError
	require.ErrorAs(t, err, &invokeErr)
	assert.Equal(t, http.StatusInternalServerError, invokeErr.Status)
	assert.Equal(t, 3, invokeErr.Attempts)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "MaxRetries 2 means 3 attempts")
}

func TestInvokeClientErrorNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad schema","type":"invalid_request_error"}}`))
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	_, err := c.Invoke(context.Background(), Request{
		Messages: []types.Message{{Role: types.RoleHuman, Content: "hi"}},
	})

	var invokeErr *InvokeError
	require.ErrorAs(t, err, &invokeErr)
	assert.Equal(t, http.StatusBadRequest, invokeErr.Status)
	assert.Contains(t, err.Error(), "bad schema")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "client errors are terminal")
}

func TestInvokeEmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	c := testClient(t, ts.URL)
	_, err := c.Invoke(context.Background(), Request{
		Messages: []types.Message{{Role: types.RoleHuman, Content: "hi"}},
	})
	assert.ErrorContains(t, err, "no choices")
}
