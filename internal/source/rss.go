package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

// RSS fetches company news from RSS feeds: a Google News search feed built
// per query, plus any extra feeds configured for the source.
type RSS struct {
	cfg      config.SourceConfig
	maxItems int
	cache    *Cache
	limiter  *RateLimiter
	parser   *gofeed.Parser

	// searchFeedURL builds the per-company search feed. Overridable in tests.
	searchFeedURL func(company string) string
}

// NewRSS creates the RSS source.
func NewRSS(cfg config.SourceConfig, maxItems int) *RSS {
	return &RSS{
		cfg:      cfg,
		maxItems: maxItems,
		cache:    NewCache(10 * time.Minute),
		limiter:  NewRateLimiter(2, time.Second), // conservative: 2 req/s
		parser:   gofeed.NewParser(),
		searchFeedURL: func(company string) string {
			return "https://news.google.com/rss/search?q=" + url.QueryEscape(company) +
				"&hl=en-US&gl=US&ceid=US:en"
		},
	}
}

// ID returns the configured source identifier.
func (r *RSS) ID() string { return r.cfg.ID }

// BaseURL returns the base for relative URL resolution.
func (r *RSS) BaseURL() string { return r.cfg.BaseURL }

// Fetch parses the search feed and any configured extra feeds, keeping items
// that mention the company.
func (r *RSS) Fetch(ctx context.Context, company string, window utils.Window) ([]models.RawItem, error) {
	key := Key(company, window)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	feeds := append([]string{r.searchFeedURL(company)}, r.cfg.Feeds...)

	var items []models.RawItem
	var lastErr error
	for _, feedURL := range feeds {
		parsed, err := r.fetchFeed(ctx, feedURL)
		if err != nil {
			// Non-critical: skip failed feeds, keep the last error for the
			// case where every feed fails.
			lastErr = err
			continue
		}
		items = append(items, r.itemsFromFeed(parsed, company)...)
		if len(items) >= r.maxItems {
			items = items[:r.maxItems]
			break
		}
	}

	if len(items) == 0 {
		if lastErr != nil {
			return nil, lastErr
		}
		return nil, ErrNoResults
	}

	r.cache.Set(key, items)
	return items, nil
}

// fetchFeed parses one RSS feed under the request context.
func (r *RSS) fetchFeed(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	feed, err := r.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", feedURL, err)
	}
	return feed, nil
}

// itemsFromFeed converts feed entries into raw items. Dedicated search feeds
// already match the company; extra configured feeds are filtered by mention.
func (r *RSS) itemsFromFeed(feed *gofeed.Feed, company string) []models.RawItem {
	items := make([]models.RawItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		snippet := CleanHTML(entry.Description)
		if !utils.ContainsFold(entry.Title+" "+snippet, company) {
			continue
		}
		item := models.RawItem{
			SourceID: r.cfg.ID,
			Title:    strings.TrimSpace(entry.Title),
			URL:      entry.Link,
			Snippet:  snippet,
		}
		if entry.PublishedParsed != nil {
			t := *entry.PublishedParsed
			item.PublishedAt = &t
		} else if entry.UpdatedParsed != nil {
			t := *entry.UpdatedParsed
			item.PublishedAt = &t
		}
		items = append(items, item)
	}
	return items
}

// CleanHTML strips HTML tags from a string using goquery.
func CleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
