// Package queue defines message payloads exchanged over the message broker.
package queue

// PagePublishedEvent is published when a page's draft is frozen into a public
// snapshot. It carries enough information for downstream consumers to log,
// invalidate caches or trigger notifications without querying the primary
// database.
type PagePublishedEvent struct {
	PageID      uint64 `json:"page_id"`
	BrandID     uint64 `json:"brand_id"`
	BrandSlug   string `json:"brand_slug"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Version     int    `json:"version"`
	URL         string `json:"url"`
	PublishedBy uint64 `json:"published_by"`
	PublishedAt string `json:"published_at"`
}
