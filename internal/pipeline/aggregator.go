package pipeline

import (
	"strings"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/source"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
)

// Aggregator normalizes the raw per-source fetch results into canonical
// items: trimmed fields, resolved URLs, estimated timestamps, category
// labels, and source credibility attached.
type Aggregator struct {
	cfg *config.Config
}

// NewAggregator creates an aggregator bound to the source configuration.
func NewAggregator(cfg *config.Config) *Aggregator {
	return &Aggregator{cfg: cfg}
}

// Aggregate converts fetch results into one canonical item per raw item and
// splits the sources into contributing and failed sets. A source that
// fetched fine but had nothing to report counts as neither: empty is a
// successful outcome, not an outage. When every source failed the item list
// is empty and all sources land in failed; that is not an error, the
// pipeline degrades instead.
func (a *Aggregator) Aggregate(results []models.SourceResult) ([]models.CanonicalItem, []string, []string) {
	var items []models.CanonicalItem
	var contributing, failed []string

	for _, res := range results {
		switch res.Status {
		case models.SourceOK:
		case models.SourceEmpty:
			continue
		default:
			failed = append(failed, res.SourceID)
			continue
		}
		contributing = append(contributing, res.SourceID)

		credibility := 0.5
		if src, ok := a.cfg.SourceByID(res.SourceID); ok {
			credibility = src.Credibility
		}

		for _, raw := range res.Items {
			item, ok := a.normalize(raw, res, credibility)
			if !ok {
				continue
			}
			items = append(items, item)
		}
	}

	return items, contributing, failed
}

// normalize builds a canonical item from a raw one. Items without a title or
// a usable URL are dropped.
func (a *Aggregator) normalize(raw models.RawItem, res models.SourceResult, credibility float64) (models.CanonicalItem, bool) {
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		return models.CanonicalItem{}, false
	}

	base := ""
	if src, ok := a.cfg.SourceByID(raw.SourceID); ok {
		base = src.BaseURL
	}
	itemURL := source.ResolveURL(base, raw.URL)
	if itemURL == "" {
		return models.CanonicalItem{}, false
	}

	item := models.CanonicalItem{
		Title:             title,
		URL:               itemURL,
		SourceIDs:         []string{raw.SourceID},
		CredibilityWeight: credibility,
		ContentSummary:    strings.TrimSpace(raw.Snippet),
		Category:          Classify(title, raw.Snippet),
	}

	if raw.PublishedAt != nil {
		item.PublishedAt = *raw.PublishedAt
	} else {
		// No timestamp from the source: estimate as the fetch time and mark
		// it so downstream scoring treats recency as unknown.
		item.PublishedAt = res.FetchedAt
		item.PublishedAtIsEstimated = true
	}

	return item, true
}

// --- Category classification ---

var categoryKeywords = []struct {
	category models.Category
	words    []string
}{
	{models.CategoryMA, []string{
		"merger", "acquisition", "acquire", "acquires", "takeover", "buyout",
		"merge", "all-stock deal", "stake in",
	}},
	{models.CategoryLegal, []string{
		"lawsuit", "sue", "sued", "settlement", "regulator", "regulatory",
		"investigation", "antitrust", "fine", "fined", "probe", "court", "ruling",
	}},
	{models.CategoryFinancial, []string{
		"earnings", "revenue", "profit", "loss", "quarterly", "dividend",
		"guidance", "forecast", "ipo", "shares", "stock price", "results",
	}},
	{models.CategoryProduct, []string{
		"launch", "launches", "unveil", "unveils", "release", "releases",
		"product", "announces new", "rollout", "update",
	}},
}

// Classify assigns a category from keyword matches against the title and
// snippet. Keyword groups are checked in priority order; the first match
// wins, and no match means Other.
func Classify(title, snippet string) models.Category {
	text := strings.ToLower(title + " " + snippet)
	for _, group := range categoryKeywords {
		for _, word := range group.words {
			if strings.Contains(text, word) {
				return group.category
			}
		}
	}
	return models.CategoryOther
}
