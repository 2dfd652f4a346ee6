// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// MatchTier is the escalation level at which an entity candidate was found.
type MatchTier string

const (
	TierExact   MatchTier = "exact"
	TierFuzzy   MatchTier = "fuzzy"
	TierPartial MatchTier = "partial"
)

// MatchCandidate is one confidence-scored entity match. Within one search
// response candidates are unique by ID and sorted by descending confidence.
type MatchCandidate struct {
	// ID is the stable knowledge-graph identifier (e.g. "Q5383").
	ID string `json:"id" yaml:"id"`

	// Name is the entity's display label.
	Name string `json:"name" yaml:"name"`

	// Description is a short free-text description, when available.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Country is the entity's country label, when available.
	Country string `json:"country,omitempty" yaml:"country,omitempty"`

	// ImageURL points to a representative image, when available.
	ImageURL string `json:"image_url,omitempty" yaml:"image_url,omitempty"`

	// BirthYear and DeathYear are populated for person entities.
	BirthYear string `json:"birth_year,omitempty" yaml:"birth_year,omitempty"`
	DeathYear string `json:"death_year,omitempty" yaml:"death_year,omitempty"`

	// Confidence is a heuristic quality estimate in [0,1], not a
	// calibrated probability.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Tier records the match tier that produced the candidate.
	Tier MatchTier `json:"match_tier" yaml:"match_tier"`
}

// EntitySearchResponse is the entity resolution surface's result envelope.
type EntitySearchResponse struct {
	Results      []MatchCandidate `json:"results" yaml:"results"`
	TotalResults int              `json:"total_results" yaml:"total_results"`
	Suggestions  []string         `json:"search_suggestions,omitempty" yaml:"search_suggestions,omitempty"`
	SearchTerm   string           `json:"search_term,omitempty" yaml:"search_term,omitempty"`

	// Error is set for invalid input; the search itself degrades to zero
	// results rather than erroring.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
