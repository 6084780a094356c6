package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

// DuckDuckGo scrapes the HTML search endpoint, which does not require an API
// key. Result markup is the lite "html.duckduckgo.com" layout.
type DuckDuckGo struct {
	cfg       config.SourceConfig
	maxItems  int
	userAgent string
	cache     *Cache
	limiter   *RateLimiter
}

// NewDuckDuckGo creates the DuckDuckGo scraping source.
func NewDuckDuckGo(cfg config.SourceConfig, maxItems int, userAgent string) *DuckDuckGo {
	base := cfg.BaseURL
	if base == "" {
		base = "https://html.duckduckgo.com"
	}
	cfg.BaseURL = base
	return &DuckDuckGo{
		cfg:       cfg,
		maxItems:  maxItems,
		userAgent: userAgent,
		cache:     NewCache(10 * time.Minute),
		limiter:   NewRateLimiter(1, 2*time.Second), // scraping: stay polite
	}
}

// ID returns the configured source identifier.
func (d *DuckDuckGo) ID() string { return d.cfg.ID }

// BaseURL returns the search endpoint base.
func (d *DuckDuckGo) BaseURL() string { return d.cfg.BaseURL }

// Fetch scrapes search results for "<company> news".
func (d *DuckDuckGo) Fetch(ctx context.Context, company string, window utils.Window) ([]models.RawItem, error) {
	key := Key(company, window)
	if cached, ok := d.cache.Get(key); ok {
		return cached, nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	searchURL := fmt.Sprintf("%s/html/?q=%s", strings.TrimRight(d.cfg.BaseURL, "/"),
		url.QueryEscape(company+" news"))
	body, err := doGet(ctx, searchURL, d.userAgent, nil)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	items := d.parseResults(doc)
	if len(items) == 0 {
		return nil, ErrNoResults
	}

	d.cache.Set(key, items)
	return items, nil
}

// parseResults walks the result blocks. Links come back through the
// duckduckgo redirect wrapper; the real target sits in the uddg parameter.
func (d *DuckDuckGo) parseResults(doc *goquery.Document) []models.RawItem {
	var items []models.RawItem
	doc.Find("div.result").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		anchor := sel.Find("a.result__a").First()
		title := strings.TrimSpace(anchor.Text())
		href, _ := anchor.Attr("href")
		if title == "" || href == "" {
			return true
		}
		item := models.RawItem{
			SourceID: d.cfg.ID,
			Title:    title,
			URL:      unwrapRedirect(href),
			Snippet:  strings.TrimSpace(sel.Find(".result__snippet").First().Text()),
		}
		items = append(items, item)
		return len(items) < d.maxItems
	})
	return items
}

// unwrapRedirect extracts the destination from a duckduckgo redirect link.
func unwrapRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	if u.Host == "" {
		u.Host = "duckduckgo.com"
	}
	return u.String()
}
