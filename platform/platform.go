// Package platform declares the media platform contract the built-in agents
// are written against. The actual media operations (ingest, indexing,
// playback) live in an external service behind this interface.
package platform

import "context"

// Media describes one ingested asset.
type Media struct {
	ID     string  `json:"id"`
	Kind   string  `json:"kind"` // "video" or "audio"
	Title  string  `json:"title,omitempty"`
	URL    string  `json:"url,omitempty"`
	Length float64 `json:"length,omitempty"` // seconds
}

// SearchResult is one scored fragment match.
type SearchResult struct {
	MediaID string  `json:"media_id"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Client is the media platform the built-in agents call. Implementations
// wrap a hosted service; calls may take arbitrarily long and must honor ctx.
type Client interface {
	// Upload ingests media from a URL and returns the stored asset.
	Upload(ctx context.Context, source, kind string) (*Media, error)

	// Search finds fragments matching the query. An empty mediaID searches
	// the whole collection.
	Search(ctx context.Context, query, mediaID string, limit int) ([]SearchResult, error)

	// StreamURL returns a playback URL for a media range. Zero start and end
	// cover the full asset.
	StreamURL(ctx context.Context, mediaID string, start, end float64) (string, error)

	// Transcript returns the spoken-word transcript of an asset.
	Transcript(ctx context.Context, mediaID string) (string, error)
}
