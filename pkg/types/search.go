// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SearchResult is one row returned by a web search provider.
type SearchResult struct {
	Title   string `json:"title" yaml:"title"`
	Link    string `json:"link" yaml:"link"`
	Snippet string `json:"snippet" yaml:"snippet"`
	Source  string `json:"source" yaml:"source"`
}
