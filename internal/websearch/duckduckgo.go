// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch provides general web search over DuckDuckGo's lite
// HTML interface. The lite page is plain markup with stable class names,
// so regex extraction holds up without a DOM parser.
package websearch

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/enrich-engine/internal/gateway"
	"github.com/pdiddy/enrich-engine/pkg/types"
)

// ErrEmptyQuery marks a blank search query.
var ErrEmptyQuery = errors.New("search query is empty")

const defaultEndpoint = "https://lite.duckduckgo.com/lite/"

// DuckDuckGo searches the lite HTML interface through the gateway, which
// supplies rate limiting, retries, and response caching.
type DuckDuckGo struct {
	gw *gateway.Gateway

	// Endpoint is overridable for tests.
	Endpoint string
}

func NewDuckDuckGo(gw *gateway.Gateway) *DuckDuckGo {
	return &DuckDuckGo{gw: gw, Endpoint: defaultEndpoint}
}

// Search posts the query and parses the result rows. Results are capped
// at limit; zero rows is a valid outcome, not an error.
func (d *DuckDuckGo) Search(ctx context.Context, query string, limit int) ([]types.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 10
	}

	key := gateway.Key("ddg", query)
	if cached, ok := d.gw.CacheGet(key); ok {
		return parseResults(string(cached), limit), nil
	}

	body, err := d.gw.Fetch(ctx, gateway.Request{
		Method: "POST",
		URL:    d.Endpoint,
		Form:   url.Values{"q": {query}},
	})
	if err != nil {
		return nil, err
	}
	d.gw.CacheSet(key, body)

	return parseResults(string(body), limit), nil
}

// Result rows carry class="result-link" anchors and class="result-snippet"
// cells; attribute order varies between renders, so both orders are tried.
var (
	linkPattern    = regexp.MustCompile(`<a[^>]*class=['"]result-link['"][^>]*href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)
	linkPatternAlt = regexp.MustCompile(`<a[^>]*href=['"]([^'"]+)['"][^>]*class=['"]result-link['"][^>]*>([^<]+)</a>`)
	snippetPattern = regexp.MustCompile(`<td[^>]*class=['"]result-snippet['"][^>]*>([^<]+(?:<[^>]+>[^<]*</[^>]+>)*[^<]*)</td>`)
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
)

func parseResults(html string, limit int) []types.SearchResult {
	matches := linkPattern.FindAllStringSubmatch(html, -1)
	if len(matches) == 0 {
		matches = linkPatternAlt.FindAllStringSubmatch(html, -1)
	}
	snippets := snippetPattern.FindAllStringSubmatch(html, -1)

	results := []types.SearchResult{}
	seen := make(map[string]bool)
	for i, m := range matches {
		link := strings.TrimSpace(m[1])
		title := cleanText(m[2])
		if link == "" || title == "" || seen[link] {
			continue
		}
		seen[link] = true

		snippet := ""
		if i < len(snippets) {
			snippet = cleanText(snippets[i][1])
		}

		results = append(results, types.SearchResult{
			Title:   title,
			Link:    link,
			Snippet: snippet,
			Source:  hostOf(link),
		})
		if len(results) >= limit {
			break
		}
	}

	if len(results) == 0 {
		results = fallbackParse(html, limit)
	}
	return results
}

var anyLinkPattern = regexp.MustCompile(`<a[^>]+href=['"]([^'"]+)['"][^>]*>([^<]+)</a>`)

// fallbackParse handles markup drift: when the result-row classes are
// absent, any external-looking link with a plausible title is kept.
func fallbackParse(html string, limit int) []types.SearchResult {
	results := []types.SearchResult{}
	seen := make(map[string]bool)
	for _, m := range anyLinkPattern.FindAllStringSubmatch(html, -1) {
		link := strings.TrimSpace(m[1])
		title := cleanText(m[2])

		if strings.Contains(link, "duckduckgo.com") ||
			strings.HasPrefix(link, "/") ||
			strings.HasPrefix(link, "#") ||
			strings.HasPrefix(link, "javascript:") {
			continue
		}
		if len(title) < 5 || seen[link] {
			continue
		}
		seen[link] = true

		results = append(results, types.SearchResult{
			Title:  title,
			Link:   link,
			Source: hostOf(link),
		})
		if len(results) >= limit {
			break
		}
	}
	return results
}

// hostOf labels a result with its site, dropping a leading "www.".
func hostOf(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(u.Host, "www.")
}

func cleanText(s string) string {
	s = tagPattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", "\"")
	s = strings.ReplaceAll(s, "&#39;", "'")
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	return strings.TrimSpace(s)
}
