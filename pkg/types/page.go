// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ContentType tags an indexed page with the kind of subject it covers.
type ContentType string

const (
	ContentProfile ContentType = "profile"
	ContentAlbum   ContentType = "album"
	ContentSong    ContentType = "song"
)

// IndexedPage is one extracted encyclopedia page. Produced once per crawl
// step and immutable thereafter.
type IndexedPage struct {
	PageID     int         `json:"page_id" yaml:"page_id"`
	Title      string      `json:"title" yaml:"title"`
	URL        string      `json:"url" yaml:"url"`
	Type       ContentType `json:"content_type" yaml:"content_type"`
	Content    string      `json:"content" yaml:"content"`
	WordCount  int         `json:"word_count" yaml:"word_count"`
	Categories []string    `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// IndexStatus is the terminal outcome of one indexing invocation.
type IndexStatus string

const (
	IndexCompleted IndexStatus = "completed"
	IndexError     IndexStatus = "error"
)

// IndexResult is the content indexing surface's result envelope. Zero
// primary pages is still IndexCompleted with confidence 0; IndexError is
// reserved for invalid input or a hard failure before any page was found.
type IndexResult struct {
	PrimaryPages []IndexedPage `json:"primary_pages" yaml:"primary_pages"`
	AlbumPages   []IndexedPage `json:"album_pages" yaml:"album_pages"`
	SongPages    []IndexedPage `json:"song_pages" yaml:"song_pages"`
	TotalPages   int           `json:"total_pages" yaml:"total_pages"`
	Confidence   float64       `json:"confidence" yaml:"confidence"`
	Status       IndexStatus   `json:"status" yaml:"status"`
	EntityName   string        `json:"entity_name,omitempty" yaml:"entity_name,omitempty"`
	EntityID     string        `json:"entity_id,omitempty" yaml:"entity_id,omitempty"`
	Error        string        `json:"error,omitempty" yaml:"error,omitempty"`
}
