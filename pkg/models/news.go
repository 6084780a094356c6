// Package models defines the core data structures used throughout RAP HeadLine HQ.
package models

import "time"

// Category classifies the kind of event a news item covers.
type Category string

const (
	CategoryFinancial Category = "Financial"
	CategoryMA        Category = "M&A"
	CategoryProduct   Category = "Product"
	CategoryLegal     Category = "Legal"
	CategoryOther     Category = "Other"
)

// RawItem is one source's unprocessed result, exactly as fetched.
type RawItem struct {
	SourceID      string     `json:"source_id"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	PublishedAt   *time.Time `json:"published_at,omitempty"` // nil when the source provides none
	Snippet       string     `json:"snippet,omitempty"`
	RawContentRef string     `json:"raw_content_ref,omitempty"` // opaque handle for full-body extraction
}

// SourceStatus describes the outcome of fetching one source.
type SourceStatus string

const (
	SourceOK      SourceStatus = "ok"
	SourceTimeout SourceStatus = "timeout"
	SourceError   SourceStatus = "error"
	SourceEmpty   SourceStatus = "empty"
)

// SourceResult wraps the outcome of fetching one source. Immutable once created.
type SourceResult struct {
	SourceID    string       `json:"source_id"`
	Status      SourceStatus `json:"status"`
	Items       []RawItem    `json:"items,omitempty"`
	ErrorDetail string       `json:"error_detail,omitempty"` // set iff Status != ok
	FetchedAt   time.Time    `json:"fetched_at"`
}

// CanonicalItem is the deduplicated, provenance-merged representation of one
// underlying news event. Every CanonicalItem has at least one SourceID, and
// AlternateURLs never contains the representative URL.
type CanonicalItem struct {
	ID                     string    `json:"id"`
	Title                  string    `json:"title"`
	URL                    string    `json:"url"`
	AlternateURLs          []string  `json:"alternate_urls,omitempty"`
	PublishedAt            time.Time `json:"published_at"`
	PublishedAtIsEstimated bool      `json:"published_at_is_estimated,omitempty"`
	SourceIDs              []string  `json:"source_ids"`
	CredibilityWeight      float64   `json:"credibility_weight"` // static per-source trust, [0,1]
	ContentSummary         string    `json:"content_summary,omitempty"`
	ImpactScore            float64   `json:"impact_score,omitempty"` // [1,10]; zero until scored
	Category               Category  `json:"category"`
}

// HasSource reports whether the item carries provenance from the given source.
func (c *CanonicalItem) HasSource(sourceID string) bool {
	for _, id := range c.SourceIDs {
		if id == sourceID {
			return true
		}
	}
	return false
}

// ResultBundle is the sole output of the core pipeline, handed to the
// generation collaborator. Items are sorted by impact score descending with
// recency as the tiebreak.
type ResultBundle struct {
	Items               []CanonicalItem `json:"items"`
	Degraded            bool            `json:"degraded"`
	ContributingSources []string        `json:"contributing_sources"`
	FailedSources       []string        `json:"failed_sources,omitempty"`
	FilteredBelow       int             `json:"filtered_below"` // items dropped by the impact threshold
	WindowApplied       string          `json:"window_applied"` // preset actually used after any widening
}

// Empty reports whether the bundle carries no items. An empty bundle is a
// valid outcome, not an error.
func (b *ResultBundle) Empty() bool {
	return len(b.Items) == 0
}
