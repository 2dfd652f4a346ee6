// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by services that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "enrich-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// GatewayConfig holds settings for the resource access gateway: rate
// limiting, caching, and retry policy shared by every outbound call.
type GatewayConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// RequestsPerMinute caps admissions within any rolling 60 s window (default 30).
	RequestsPerMinute int `json:"requests_per_minute" yaml:"requests_per_minute" mapstructure:"requests_per_minute"`

	// RequestsPerHour caps admissions within any rolling 3600 s window (default 500).
	RequestsPerHour int `json:"requests_per_hour" yaml:"requests_per_hour" mapstructure:"requests_per_hour"`

	// CacheTTL is the default time-to-live for cached responses (default 1h).
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl" mapstructure:"cache_ttl"`

	// CachePath, when set, stores the cache in a SQLite database at this
	// path instead of in memory.
	CachePath string `json:"cache_path,omitempty" yaml:"cache_path,omitempty" mapstructure:"cache_path"`

	// MaxRetries is the number of retry attempts for failed requests (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// RetryDelay is the delay before the first retry (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay" mapstructure:"retry_delay"`

	// ExponentialBackoff doubles the retry delay on each attempt when true;
	// otherwise the delay is fixed.
	ExponentialBackoff bool `json:"exponential_backoff" yaml:"exponential_backoff" mapstructure:"exponential_backoff"`
}

// ModelConfig holds settings for language model calls.
type ModelConfig struct {
	// Model is the model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// BaseURL is the chat-completions endpoint base. Any OpenAI-compatible
	// server works (default "https://api.openai.com/v1").
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`

	// APIKey is the authentication key for the model API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout is the per-call timeout (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// AgentConfig holds settings for the research loop controller.
type AgentConfig struct {
	// MaxLoops caps planning passes per session (default 6). Reaching the
	// cap terminates the session with whatever info exists.
	MaxLoops int `json:"max_loops" yaml:"max_loops" mapstructure:"max_loops"`

	// MaxSearchResults limits rows returned by the search tool (default 10).
	MaxSearchResults int `json:"max_search_results" yaml:"max_search_results" mapstructure:"max_search_results"`

	// RequireSatisfactory, when true, routes an unsatisfactory reflection
	// verdict back to planning instead of ending the session.
	RequireSatisfactory bool `json:"require_satisfactory" yaml:"require_satisfactory" mapstructure:"require_satisfactory"`
}

// ResolverConfig holds settings for entity resolution against Wikidata.
type ResolverConfig struct {
	// Endpoint is the SPARQL endpoint (default "https://query.wikidata.org/sparql").
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// MaxResults caps the ranked candidates returned (default 10).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`
}

// IndexerConfig holds settings for content indexing against MediaWiki.
type IndexerConfig struct {
	// APIEndpoint is the MediaWiki API (default "https://en.wikipedia.org/w/api.php").
	APIEndpoint string `json:"api_endpoint" yaml:"api_endpoint" mapstructure:"api_endpoint"`

	// PageBase is the canonical page URL prefix (default "https://en.wikipedia.org/wiki/").
	PageBase string `json:"page_base" yaml:"page_base" mapstructure:"page_base"`

	// MaxPrimaryPages caps primary profile pages kept per entity (default 3).
	MaxPrimaryPages int `json:"max_primary_pages" yaml:"max_primary_pages" mapstructure:"max_primary_pages"`

	// MaxAlbums caps album candidates discovered from profile text (default 10).
	MaxAlbums int `json:"max_albums" yaml:"max_albums" mapstructure:"max_albums"`

	// MaxSongs caps song candidates discovered from album text (default 20).
	MaxSongs int `json:"max_songs" yaml:"max_songs" mapstructure:"max_songs"`
}

// EngineConfig groups all component configurations.
type EngineConfig struct {
	Gateway  GatewayConfig  `json:"gateway" yaml:"gateway" mapstructure:"gateway"`
	Model    ModelConfig    `json:"model" yaml:"model" mapstructure:"model"`
	Agent    AgentConfig    `json:"agent" yaml:"agent" mapstructure:"agent"`
	Resolver ResolverConfig `json:"resolver" yaml:"resolver" mapstructure:"resolver"`
	Indexer  IndexerConfig  `json:"indexer" yaml:"indexer" mapstructure:"indexer"`
}
