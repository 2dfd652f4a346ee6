// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/enrich-engine/internal/model"
	"github.com/pdiddy/enrich-engine/pkg/types"
)

// minInfoLength is the floor for a submission to be considered non-trivial:
// the serialized info must be longer than this many bytes.
const minInfoLength = 10

// reflect judges submitted info with an independent model pass. The judge's
// verdict is clamped by a minimal acceptance heuristic (info present and
// non-trivially sized), and a judge failure degrades to the heuristic alone
// rather than failing the session.
func (a *Agent) reflect(ctx context.Context, topic string, schema, info json.RawMessage) types.Verdict {
	acceptable := info != nil && len(string(info)) > minInfoLength

	verdict, err := a.judge(ctx, topic, schema, info)
	if err != nil {
		fmt.Fprintf(a.w, "warning: reflection judge failed: %v\n", err)
		verdict = heuristicVerdict(acceptable)
	}

	if len(verdict.Reasons) < 3 {
		verdict.Reasons = append(verdict.Reasons, heuristicVerdict(acceptable).Reasons[len(verdict.Reasons):]...)
	}
	if !acceptable {
		verdict.IsSatisfactory = false
		if verdict.ImprovementInstructions == "" {
			verdict.ImprovementInstructions = "Need more information extraction"
		}
	}
	return verdict
}

// judge runs the reflection model call and parses its JSON verdict.
func (a *Agent) judge(ctx context.Context, topic string, schema, info json.RawMessage) (types.Verdict, error) {
	resp, err := a.model.Invoke(ctx, model.Request{
		Messages: []types.Message{{
			Role:    types.RoleHuman,
			Content: judgePrompt(string(schema), topic, string(info)),
		}},
	})
	if err != nil {
		return types.Verdict{}, err
	}
	return parseVerdict(resp.Content)
}

// parseVerdict extracts the verdict object from judge output, tolerating
// surrounding prose or code fences.
func parseVerdict(content string) (types.Verdict, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return types.Verdict{}, fmt.Errorf("no JSON object in judge output")
	}

	var verdict types.Verdict
	if err := json.Unmarshal([]byte(content[start:end+1]), &verdict); err != nil {
		return types.Verdict{}, fmt.Errorf("parsing judge output: %w", err)
	}
	return verdict, nil
}

// heuristicVerdict is the fallback when the judge cannot be consulted.
func heuristicVerdict(acceptable bool) types.Verdict {
	v := types.Verdict{
		Reasons: []string{
			"Info evaluation completed",
			"Schema requirements checked",
			"Quality assessed",
		},
		IsSatisfactory: acceptable,
	}
	if !acceptable {
		v.ImprovementInstructions = "Need more information extraction"
	}
	return v
}
