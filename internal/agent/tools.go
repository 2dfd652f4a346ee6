// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdiddy/enrich-engine/internal/gateway"
	"github.com/pdiddy/enrich-engine/internal/model"
	"github.com/pdiddy/enrich-engine/pkg/types"
)

// ToolKind is the closed set of tools the planner may call. Dispatch is by
// kind, never by reflection over names.
type ToolKind int

const (
	KindSearch ToolKind = iota
	KindScrape
	KindSubmit
)

// Wire names as presented to the model.
const (
	toolSearch = "search"
	toolScrape = "scrape_website"
	toolSubmit = "submit_info"
)

// KindOf maps a tool-call name to its kind.
func KindOf(name string) (ToolKind, bool) {
	switch name {
	case toolSearch:
		return KindSearch, true
	case toolScrape:
		return KindScrape, true
	case toolSubmit:
		return KindSubmit, true
	}
	return 0, false
}

// scrapeContentCap limits how much fetched page content is handed to the
// model for summarization.
const scrapeContentCap = 40_000

// SearchProvider answers web search queries for the search tool.
type SearchProvider interface {
	Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error)
}

// Toolset executes the planner's tool calls for one session. It is built
// per session because the submit descriptor embeds that session's
// extraction schema.
type Toolset struct {
	search     SearchProvider
	gw         *gateway.Gateway
	model      model.Model
	schema     json.RawMessage
	maxResults int
}

func newToolset(search SearchProvider, gw *gateway.Gateway, m model.Model, schema json.RawMessage, maxResults int) *Toolset {
	if maxResults <= 0 {
		maxResults = 10
	}
	return &Toolset{search: search, gw: gw, model: m, schema: schema, maxResults: maxResults}
}

// Descriptors advertises the toolset to the model.
func (t *Toolset) Descriptors() []model.ToolDescriptor {
	return []model.ToolDescriptor{
		{
			Name:        toolSearch,
			Description: "Query a web search engine. Provide as much context in the query as needed to ensure high recall.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "The search query"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        toolScrape,
			Description: "Scrape a website and get back notes relevant to the information being gathered.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"url": {"type": "string", "description": "The URL to scrape"}
				},
				"required": ["url"]
			}`),
		},
		{
			Name:        toolSubmit,
			Description: "Call this when you have gathered all the relevant info.",
			Parameters:  t.schema,
		},
	}
}

// Execute runs one tool call and returns its result as a string, plus a
// flag marking error-shaped results. Failures never propagate as Go errors;
// they become content the model can read and react to.
func (t *Toolset) Execute(ctx context.Context, call types.ToolCall) (string, bool) {
	kind, ok := KindOf(call.Name)
	if !ok {
		return fmt.Sprintf("Unknown tool: %s", call.Name), true
	}

	switch kind {
	case KindSearch:
		return t.runSearch(ctx, call.Arguments)
	case KindScrape:
		return t.runScrape(ctx, call.Arguments)
	default:
		// Submit is intercepted by the controller before execution.
		return "Submission received.", false
	}
}

func (t *Toolset) runSearch(ctx context.Context, args json.RawMessage) (string, bool) {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return searchErrorRow(fmt.Sprintf("invalid search arguments: %v", err)), true
	}

	results, err := t.search.Search(ctx, params.Query, t.maxResults)
	if err != nil {
		return searchErrorRow(err.Error()), true
	}
	if results == nil {
		results = []types.SearchResult{}
	}

	data, err := json.Marshal(results)
	if err != nil {
		return searchErrorRow(err.Error()), true
	}
	return string(data), false
}

// searchErrorRow shapes a search failure as a single-element result list
// carrying an error field.
func searchErrorRow(reason string) string {
	data, _ := json.Marshal([]map[string]string{{"error": reason}})
	return string(data)
}

func (t *Toolset) runScrape(ctx context.Context, args json.RawMessage) (string, bool) {
	var params struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(args, &params); err != nil || params.URL == "" {
		return "Error scraping website: a url argument is required", true
	}

	body, err := t.gw.Fetch(ctx, gateway.Request{URL: params.URL})
	if err != nil {
		return fmt.Sprintf("Error scraping website: %v", err), true
	}
	content := string(body)
	if len(content) > scrapeContentCap {
		content = content[:scrapeContentCap]
	}

	resp, err := t.model.Invoke(ctx, model.Request{
		Messages: []types.Message{{
			Role:    types.RoleHuman,
			Content: scrapePrompt(string(t.schema), params.URL, content),
		}},
	})
	if err != nil {
		return fmt.Sprintf("Error scraping website: %v", err), true
	}
	return resp.Content, false
}
