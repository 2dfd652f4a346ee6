// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index discovers and extracts encyclopedia pages for an entity
// and its releases. One invocation walks a fixed sequence: discover the
// primary profile pages, extract them, discover album and song candidates
// from the extracted text, extract their pages, and score the bundle.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/enrich-engine/internal/gateway"
	"github.com/pdiddy/enrich-engine/pkg/types"
)

// pageRef identifies a search hit before extraction.
type pageRef struct {
	PageID  int    `json:"pageid"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// searchResponse is the MediaWiki list=search envelope.
type searchResponse struct {
	Query struct {
		Search []pageRef `json:"search"`
	} `json:"query"`
}

// parseResponse is the MediaWiki action=parse envelope.
type parseResponse struct {
	Parse struct {
		Title  string `json:"title"`
		PageID int    `json:"pageid"`
		Text   struct {
			Content string `json:"*"`
		} `json:"text"`
		Categories []struct {
			Name string `json:"*"`
		} `json:"categories"`
	} `json:"parse"`
}

// Indexer extracts page bundles through the gateway.
type Indexer struct {
	gw  *gateway.Gateway
	cfg types.IndexerConfig
	w   io.Writer
}

// NewIndexer creates an Indexer. Per-page failures are logged to w and
// skipped rather than aborting the crawl.
func NewIndexer(gw *gateway.Gateway, cfg types.IndexerConfig, w io.Writer) *Indexer {
	if cfg.APIEndpoint == "" {
		cfg.APIEndpoint = "https://en.wikipedia.org/w/api.php"
	}
	if cfg.PageBase == "" {
		cfg.PageBase = "https://en.wikipedia.org/wiki/"
	}
	if cfg.MaxPrimaryPages <= 0 {
		cfg.MaxPrimaryPages = 3
	}
	if cfg.MaxAlbums <= 0 {
		cfg.MaxAlbums = 10
	}
	if cfg.MaxSongs <= 0 {
		cfg.MaxSongs = 20
	}
	if w == nil {
		w = io.Discard
	}
	return &Indexer{gw: gw, cfg: cfg, w: w}
}

// maxSongPages caps extracted song pages per invocation.
const maxSongPages = 10

// Index extracts the entity's primary pages and, transitively, album and
// song pages discovered from their text. Zero primary pages is still a
// completed result with confidence 0; error status is reserved for invalid
// input or a hard failure before any page was found.
func (ix *Indexer) Index(ctx context.Context, entityName, entityID string) types.IndexResult {
	result := types.IndexResult{
		PrimaryPages: []types.IndexedPage{},
		AlbumPages:   []types.IndexedPage{},
		SongPages:    []types.IndexedPage{},
		Status:       types.IndexCompleted,
		EntityName:   strings.TrimSpace(entityName),
		EntityID:     entityID,
	}

	if result.EntityName == "" {
		result.Status = types.IndexError
		result.Error = "entity name is required"
		return result
	}
	name := result.EntityName

	refs, err := ix.discoverPrimary(ctx, name)
	if err != nil {
		result.Status = types.IndexError
		result.Error = err.Error()
		return result
	}

	for _, ref := range refs {
		page, err := ix.extractPage(ctx, ref, types.ContentProfile)
		if err != nil {
			fmt.Fprintf(ix.w, "warning: extracting %q failed: %v\n", ref.Title, err)
			continue
		}
		result.PrimaryPages = append(result.PrimaryPages, page)
	}

	if len(result.PrimaryPages) > 0 {
		albums := discoverSubEntities(result.PrimaryPages, albumPatterns, ix.cfg.MaxAlbums)
		result.AlbumPages = ix.extractSubPages(ctx, albums, name, types.ContentAlbum, ix.cfg.MaxAlbums)
	}
	if len(result.AlbumPages) > 0 {
		songs := discoverSubEntities(result.AlbumPages, songPatterns, ix.cfg.MaxSongs)
		result.SongPages = ix.extractSubPages(ctx, songs, name, types.ContentSong, maxSongPages)
	}

	result.TotalPages = len(result.PrimaryPages) + len(result.AlbumPages) + len(result.SongPages)
	result.Confidence = score(len(result.PrimaryPages), len(result.AlbumPages), len(result.SongPages))
	return result
}

// discoverPrimary searches the plain name and domain-qualified variants,
// filters for relevance, and keeps the first MaxPrimaryPages hits. It
// fails only when every query fails before producing a single hit.
func (ix *Indexer) discoverPrimary(ctx context.Context, name string) ([]pageRef, error) {
	queries := []string{
		name,
		name + " (musician)",
		name + " (singer)",
		name + " (band)",
	}

	var refs []pageRef
	seen := make(map[int]bool)
	var lastErr error
	failed := 0

	for _, q := range queries {
		hits, err := ix.searchPages(ctx, q, 5)
		if err != nil {
			fmt.Fprintf(ix.w, "warning: page search %q failed: %v\n", q, err)
			failed++
			lastErr = err
			continue
		}
		for _, ref := range hits {
			if seen[ref.PageID] || !relevantPage(ref.Title, ref.Snippet, name) {
				continue
			}
			seen[ref.PageID] = true
			refs = append(refs, ref)
		}
	}

	if failed == len(queries) && len(refs) == 0 {
		return nil, fmt.Errorf("page search unavailable: %w", lastErr)
	}
	if len(refs) > ix.cfg.MaxPrimaryPages {
		refs = refs[:ix.cfg.MaxPrimaryPages]
	}
	return refs, nil
}

// discoverSubEntities scans extracted page text with the given heuristic
// patterns and returns up to max candidate names.
func discoverSubEntities(pages []types.IndexedPage, patterns []*regexp.Regexp, max int) []string {
	var combined strings.Builder
	for _, p := range pages {
		combined.WriteString(p.Content)
		combined.WriteString("\n")
	}
	return extractNames(combined.String(), patterns, max)
}

// extractSubPages runs the search-filter-extract procedure per candidate
// name, tagging each page with contentType and stopping at maxPages.
func (ix *Indexer) extractSubPages(ctx context.Context, names []string, entityName string, contentType types.ContentType, maxPages int) []types.IndexedPage {
	pages := []types.IndexedPage{}
	seen := make(map[int]bool)

	for _, subName := range names {
		if len(pages) >= maxPages {
			break
		}

		var qualifier string
		if contentType == types.ContentAlbum {
			qualifier = "album"
		} else {
			qualifier = "song"
		}
		queries := []string{
			fmt.Sprintf("%s (%s %s)", subName, entityName, qualifier),
			fmt.Sprintf("%s %s", subName, qualifier),
			fmt.Sprintf("%s %s", entityName, subName),
		}

		for _, q := range queries {
			hits, err := ix.searchPages(ctx, q, 3)
			if err != nil {
				fmt.Fprintf(ix.w, "warning: %s search %q failed: %v\n", contentType, q, err)
				continue
			}

			var extracted bool
			for _, ref := range hits {
				if seen[ref.PageID] || !relevantPage(ref.Title, ref.Snippet, subName) {
					continue
				}
				page, err := ix.extractPage(ctx, ref, contentType)
				if err != nil {
					fmt.Fprintf(ix.w, "warning: extracting %q failed: %v\n", ref.Title, err)
					continue
				}
				seen[ref.PageID] = true
				pages = append(pages, page)
				extracted = true
				break
			}
			if extracted {
				break
			}
		}
	}
	return pages
}

// searchPages runs one MediaWiki full-text search through the gateway,
// consulting the cache first.
func (ix *Indexer) searchPages(ctx context.Context, query string, limit int) ([]pageRef, error) {
	key := gateway.Key("mw-search", query, strconv.Itoa(limit))

	var resp searchResponse
	if cached, ok := ix.gw.CacheGet(key); ok {
		if err := json.Unmarshal(cached, &resp); err == nil {
			return resp.Query.Search, nil
		}
	}

	body, err := ix.gw.Fetch(ctx, gateway.Request{
		URL: ix.cfg.APIEndpoint,
		Params: url.Values{
			"action":   {"query"},
			"list":     {"search"},
			"srsearch": {query},
			"srlimit":  {strconv.Itoa(limit)},
			"format":   {"json"},
		},
	})
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", gateway.ErrMalformedResponse, err)
	}

	ix.gw.CacheSet(key, body)
	return resp.Query.Search, nil
}

// extractPage fetches and cleans one page's rendered content.
func (ix *Indexer) extractPage(ctx context.Context, ref pageRef, contentType types.ContentType) (types.IndexedPage, error) {
	key := gateway.Key("mw-parse", strconv.Itoa(ref.PageID))

	var resp parseResponse
	if cached, ok := ix.gw.CacheGet(key); ok {
		if err := json.Unmarshal(cached, &resp); err != nil {
			return types.IndexedPage{}, err
		}
	} else {
		body, err := ix.gw.Fetch(ctx, gateway.Request{
			URL: ix.cfg.APIEndpoint,
			Params: url.Values{
				"action": {"parse"},
				"pageid": {strconv.Itoa(ref.PageID)},
				"prop":   {"text|categories"},
				"format": {"json"},
			},
		})
		if err != nil {
			return types.IndexedPage{}, err
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return types.IndexedPage{}, fmt.Errorf("%w: %v", gateway.ErrMalformedResponse, err)
		}
		ix.gw.CacheSet(key, body)
	}

	content := cleanHTML(resp.Parse.Text.Content)
	categories := make([]string, 0, len(resp.Parse.Categories))
	for _, c := range resp.Parse.Categories {
		categories = append(categories, c.Name)
	}

	title := resp.Parse.Title
	if title == "" {
		title = ref.Title
	}

	return types.IndexedPage{
		PageID:     ref.PageID,
		Title:      title,
		URL:        ix.cfg.PageBase + url.PathEscape(strings.ReplaceAll(title, " ", "_")),
		Type:       contentType,
		Content:    content,
		WordCount:  len(strings.Fields(content)),
		Categories: categories,
	}, nil
}

// score accumulates confidence from page coverage, capped at 1.0: +0.4 for
// any primary page, up to +0.3 from albums, up to +0.2 from songs, and
// +0.1 when the bundle holds at least 5 pages.
func score(primary, albums, songs int) float64 {
	confidence := 0.0
	if primary > 0 {
		confidence += 0.4
	}
	if albums > 0 {
		confidence += min(float64(albums)*0.1, 0.3)
	}
	if songs > 0 {
		confidence += min(float64(songs)*0.05, 0.2)
	}
	if primary+albums+songs >= 5 {
		confidence += 0.1
	}
	if confidence > 1.0 {
		confidence = 1.0
	}
	return confidence
}
