// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/enrich-engine/internal/resolve"
	"github.com/pdiddy/enrich-engine/pkg/types"
)

// EntitySearcher is the slice of the entity resolver the music provider
// needs.
type EntitySearcher interface {
	Search(ctx context.Context, name string, opts resolve.Options) (types.EntitySearchResponse, error)
}

// MusicProvider serves the search tool from the knowledge graph instead of
// a web search engine. Useful when the research topic is a musical entity
// and structured candidates beat free-text hits.
type MusicProvider struct {
	searcher EntitySearcher
}

func NewMusicProvider(s EntitySearcher) *MusicProvider {
	return &MusicProvider{searcher: s}
}

// Search maps ranked entity candidates onto search result rows.
func (p *MusicProvider) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	resp, err := p.searcher.Search(ctx, query, resolve.Options{Limit: limit})
	if err != nil {
		return nil, err
	}

	rows := make([]types.SearchResult, 0, len(resp.Results))
	for _, c := range resp.Results {
		rows = append(rows, types.SearchResult{
			Title:   c.Name,
			Link:    "https://www.wikidata.org/wiki/" + c.ID,
			Snippet: candidateSnippet(c),
			Source:  "Wikidata",
		})
	}
	return rows, nil
}

// candidateSnippet summarizes a candidate's attributes in one line.
func candidateSnippet(c types.MatchCandidate) string {
	parts := []string{}
	if c.Description != "" {
		parts = append(parts, c.Description)
	}
	if c.Country != "" {
		parts = append(parts, c.Country)
	}
	if c.BirthYear != "" {
		years := c.BirthYear
		if c.DeathYear != "" {
			years += "-" + c.DeathYear
		}
		parts = append(parts, years)
	}
	parts = append(parts, fmt.Sprintf("confidence %.2f", c.Confidence))
	return strings.Join(parts, "; ")
}
