// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent runs the research loop: a planner model selects tool calls
// (web search, page scraping, or final submission), an executor appends
// their results to the session history, and a reflection pass judges the
// submitted info. The loop is a small state machine bounded by MaxLoops,
// so it converges for any model behavior.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/pdiddy/enrich-engine/internal/gateway"
	"github.com/pdiddy/enrich-engine/internal/model"
	"github.com/pdiddy/enrich-engine/pkg/types"
)

// state is the controller's position in the loop.
type state int

const (
	statePlanning state = iota
	stateExecutingTool
	stateReflecting
	stateTerminal
)

func (s state) String() string {
	switch s {
	case statePlanning:
		return "planning"
	case stateExecutingTool:
		return "executing_tool"
	case stateReflecting:
		return "reflecting"
	default:
		return "terminal"
	}
}

// Agent drives research sessions.
type Agent struct {
	model  model.Model
	search SearchProvider
	gw     *gateway.Gateway
	cfg    types.AgentConfig
	w      io.Writer
}

// New creates an Agent. Progress lines go to w.
func New(m model.Model, search SearchProvider, gw *gateway.Gateway, cfg types.AgentConfig, w io.Writer) *Agent {
	if cfg.MaxLoops <= 0 {
		cfg.MaxLoops = 6
	}
	if cfg.MaxSearchResults <= 0 {
		cfg.MaxSearchResults = 10
	}
	if w == nil {
		w = io.Discard
	}
	return &Agent{model: m, search: search, gw: gw, cfg: cfg, w: w}
}

// Run executes one research session for topic, extracting info in the
// shape of schema (a JSON Schema object). The session ends on submission,
// on loop exhaustion with whatever info exists, or with an error only when
// the planner model itself fails.
func (a *Agent) Run(ctx context.Context, topic string, schema json.RawMessage) (types.SessionResult, error) {
	session := types.SessionResult{
		SessionID: uuid.NewString(),
		Topic:     topic,
		Messages:  []types.Message{},
	}
	tools := newToolset(a.search, a.gw, a.model, schema, a.cfg.MaxSearchResults)
	system := mainPrompt(string(schema), topic)

	var info json.RawMessage
	var pending []types.ToolCall
	st := statePlanning

	for st != stateTerminal {
		switch st {
		case statePlanning:
			if session.Iterations >= a.cfg.MaxLoops {
				fmt.Fprintf(a.w, "loop limit reached after %d passes\n", session.Iterations)
				st = stateTerminal
				continue
			}
			session.Iterations++

			resp, err := a.model.Invoke(ctx, model.Request{
				System:   system,
				Messages: session.Messages,
				Tools:    tools.Descriptors(),
			})
			if err != nil {
				session.Info = info
				return session, fmt.Errorf("planning pass %d: %w", session.Iterations, err)
			}

			if len(resp.ToolCalls) == 0 {
				// The model answered in prose; steer it back to the tools.
				session.Messages = append(session.Messages,
					types.Message{Role: types.RoleModel, Content: resp.Content},
					types.Message{Role: types.RoleHuman, Content: correctiveMessage},
				)
				continue
			}

			calls := resp.ToolCalls
			if submit, ok := findSubmit(calls); ok {
				// Submission takes precedence: concurrent research calls
				// are discarded.
				calls = []types.ToolCall{submit}
				info = submit.Arguments
			}

			session.Messages = append(session.Messages, types.Message{
				Role:      types.RoleModel,
				Content:   resp.Content,
				ToolCalls: calls,
			})

			if info != nil {
				session.Messages = append(session.Messages, types.Message{
					Role:       types.RoleTool,
					Content:    "Submission received.",
					ToolCallID: calls[0].ID,
					ToolName:   calls[0].Name,
				})
				st = stateReflecting
			} else {
				pending = calls
				st = stateExecutingTool
			}

		case stateExecutingTool:
			for _, call := range pending {
				fmt.Fprintf(a.w, "tool %s\n", call.Name)
				content, isErr := tools.Execute(ctx, call)
				session.Messages = append(session.Messages, types.Message{
					Role:       types.RoleTool,
					Content:    content,
					ToolCallID: call.ID,
					ToolName:   call.Name,
					IsError:    isErr,
				})
			}
			pending = nil
			st = statePlanning

		case stateReflecting:
			verdict := a.reflect(ctx, topic, schema, info)
			session.Verdict = &verdict

			if a.cfg.RequireSatisfactory && !verdict.IsSatisfactory {
				fmt.Fprintf(a.w, "submission rejected, resuming research\n")
				instructions := verdict.ImprovementInstructions
				if instructions == "" {
					instructions = "The submitted info was not satisfactory. Continue researching and improve it."
				}
				session.Messages = append(session.Messages, types.Message{
					Role:    types.RoleHuman,
					Content: instructions,
				})
				info = nil
				st = statePlanning
			} else {
				st = stateTerminal
			}
		}
	}

	session.Info = info
	return session, nil
}

// findSubmit returns the first submission call, if any.
func findSubmit(calls []types.ToolCall) (types.ToolCall, bool) {
	for _, c := range calls {
		if kind, ok := KindOf(c.Name); ok && kind == KindSubmit {
			return c, true
		}
	}
	return types.ToolCall{}, false
}
