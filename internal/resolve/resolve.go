// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve ranks knowledge-graph entities matching a free-text
// name. Matching escalates through three tiers (exact label, fuzzy
// pattern, substring), each tier tolerating more misspelling at a lower
// base confidence, and each skipped once the accumulated candidate set is
// large enough.
package resolve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pdiddy/enrich-engine/internal/gateway"
	"github.com/pdiddy/enrich-engine/pkg/types"
)

// SearchType selects which attribute the search text is matched against.
type SearchType string

const (
	TypeName    SearchType = "name"
	TypeGenre   SearchType = "genre"
	TypeEra     SearchType = "era"
	TypeCountry SearchType = "country"
)

// ErrMissingInput marks an empty or whitespace-only search term. It is
// returned before any network call is made.
var ErrMissingInput = errors.New("entity name is required")

// ErrUnknownSearchType marks an unsupported SearchType value.
var ErrUnknownSearchType = errors.New("unknown search type")

// Escalation thresholds: a tier runs only while the accumulated candidate
// count is below its threshold.
const (
	fuzzyThreshold   = 3
	partialThreshold = 5
)

// Per-tier base confidence, adjusted upward by attribute completeness.
const (
	exactBase   = 0.95
	fuzzyBase   = 0.85
	partialBase = 0.70
)

// tierLimit caps raw candidates per tier query.
const tierLimit = 10

// Options refines a search.
type Options struct {
	// Type defaults to TypeName.
	Type SearchType

	// Limit caps the ranked candidates returned; zero uses the resolver's
	// configured maximum.
	Limit int
}

// Resolver performs tiered entity searches through the gateway.
type Resolver struct {
	gw  *gateway.Gateway
	cfg types.ResolverConfig
	w   io.Writer
}

// NewResolver creates a Resolver. Tier query failures are logged to w and
// degrade to empty tiers rather than aborting the search.
func NewResolver(gw *gateway.Gateway, cfg types.ResolverConfig, w io.Writer) *Resolver {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://query.wikidata.org/sparql"
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 10
	}
	if w == nil {
		w = io.Discard
	}
	return &Resolver{gw: gw, cfg: cfg, w: w}
}

// Search returns ranked, confidence-scored candidates for name. Candidates
// are unique by entity id and sorted by descending confidence; suggestions
// are attached when the result set is empty or broad. An empty name
// returns ErrMissingInput with an explicit error field and no network
// traffic.
func (r *Resolver) Search(ctx context.Context, name string, opts Options) (types.EntitySearchResponse, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.EntitySearchResponse{
			Results:     []types.MatchCandidate{},
			Suggestions: []string{"Provide an entity name"},
			Error:       ErrMissingInput.Error(),
		}, ErrMissingInput
	}

	searchType := opts.Type
	if searchType == "" {
		searchType = TypeName
	}

	var candidates []types.MatchCandidate
	switch searchType {
	case TypeName:
		candidates = r.nameTiers(ctx, name)
	case TypeGenre, TypeEra, TypeCountry:
		candidates = r.runTier(ctx, attributeQuery(searchType, name, tierLimit), types.TierPartial, partialBase)
	default:
		return types.EntitySearchResponse{
			Results: []types.MatchCandidate{},
			Error:   fmt.Sprintf("%v: %q", ErrUnknownSearchType, string(searchType)),
		}, ErrUnknownSearchType
	}

	ranked := dedupe(candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	total := len(ranked)
	limit := opts.Limit
	if limit <= 0 || limit > r.cfg.MaxResults {
		limit = r.cfg.MaxResults
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	return types.EntitySearchResponse{
		Results:      ranked,
		TotalResults: total,
		Suggestions:  suggestions(name, total),
		SearchTerm:   name,
	}, nil
}

// nameTiers escalates exact → fuzzy → partial, skipping a tier when the
// accumulated set already meets its threshold.
func (r *Resolver) nameTiers(ctx context.Context, name string) []types.MatchCandidate {
	candidates := r.runTier(ctx, exactQuery(name, tierLimit), types.TierExact, exactBase)

	if len(candidates) < fuzzyThreshold {
		candidates = append(candidates, r.runTier(ctx, fuzzyQuery(name, tierLimit), types.TierFuzzy, fuzzyBase)...)
	}
	if len(candidates) < partialThreshold {
		candidates = append(candidates, r.runTier(ctx, containsQuery(name, tierLimit), types.TierPartial, partialBase)...)
	}
	return candidates
}

// runTier executes one SPARQL query through the gateway and scores its
// bindings. A failed query logs a warning and contributes nothing.
func (r *Resolver) runTier(ctx context.Context, query string, tier types.MatchTier, base float64) []types.MatchCandidate {
	key := gateway.Key("sparql", string(tier), query)

	var resp sparqlResponse
	if cached, ok := r.gw.CacheGet(key); ok {
		if err := json.Unmarshal(cached, &resp); err == nil {
			return scoreBindings(resp.Results.Bindings, tier, base)
		}
	}

	body, err := r.gw.Fetch(ctx, gateway.Request{
		Method: http.MethodPost,
		URL:    r.cfg.Endpoint,
		Form:   url.Values{"query": {query}, "format": {"json"}},
		Header: http.Header{"Accept": {"application/sparql-results+json"}},
	})
	if err != nil {
		fmt.Fprintf(r.w, "warning: %s tier query failed: %v\n", tier, err)
		return nil
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		fmt.Fprintf(r.w, "warning: %s tier returned malformed results: %v\n", tier, err)
		return nil
	}

	r.gw.CacheSet(key, body)
	return scoreBindings(resp.Results.Bindings, tier, base)
}

// scoreBindings converts raw bindings into candidates, boosting the base
// confidence for each populated optional attribute.
func scoreBindings(bindings []map[string]sparqlValue, tier types.MatchTier, base float64) []types.MatchCandidate {
	var out []types.MatchCandidate
	for _, b := range bindings {
		c := types.MatchCandidate{
			ID:          entityID(b["entity"].Value),
			Name:        b["entityLabel"].Value,
			Description: b["description"].Value,
			Country:     b["country"].Value,
			ImageURL:    b["image"].Value,
			BirthYear:   b["birthYear"].Value,
			DeathYear:   b["deathYear"].Value,
			Tier:        tier,
		}
		if c.ID == "" {
			continue
		}
		c.Confidence = adjustConfidence(base, c)
		out = append(out, c)
	}
	return out
}

// adjustConfidence boosts base for data completeness, capped at 1.0.
func adjustConfidence(base float64, c types.MatchCandidate) float64 {
	confidence := base
	if c.Description != "" {
		confidence += 0.05
	}
	if c.Country != "" {
		confidence += 0.03
	}
	if c.ImageURL != "" {
		confidence += 0.02
	}
	if c.BirthYear != "" {
		confidence += 0.02
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}

// dedupe keeps the first occurrence of each entity id. Earlier tiers run
// first, so the highest-tier sighting wins.
func dedupe(candidates []types.MatchCandidate) []types.MatchCandidate {
	seen := make(map[string]bool, len(candidates))
	out := make([]types.MatchCandidate, 0, len(candidates))
	for _, c := range candidates {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// suggestions offers refinement hints for empty or overly broad results.
func suggestions(name string, total int) []string {
	switch {
	case total == 0:
		return []string{
			fmt.Sprintf("Try searching for %q with different spelling", name),
			"Check if the entity name is correct",
			"Try searching for just the first or last name",
		}
	case total > 5:
		return []string{
			"Try adding more specific terms",
			"Consider adding the entity's country or genre",
		}
	default:
		return nil
	}
}
