package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

// Searx queries a self-hosted SearxNG metasearch instance through its JSON
// API. The instance must have 'json' in its enabled result formats.
type Searx struct {
	cfg       config.SourceConfig
	maxItems  int
	userAgent string
	cache     *Cache
}

type searxResponse struct {
	Results []searxResult `json:"results"`
}

type searxResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PublishedDate string  `json:"publishedDate"`
	Score         float64 `json:"score"`
}

// NewSearx creates the SearxNG source.
func NewSearx(cfg config.SourceConfig, maxItems int, userAgent string) *Searx {
	return &Searx{
		cfg:       cfg,
		maxItems:  maxItems,
		userAgent: userAgent,
		cache:     NewCache(10 * time.Minute),
	}
}

// ID returns the configured source identifier.
func (s *Searx) ID() string { return s.cfg.ID }

// BaseURL returns the instance base URL.
func (s *Searx) BaseURL() string { return s.cfg.BaseURL }

// Fetch runs a news-category search on the instance.
func (s *Searx) Fetch(ctx context.Context, company string, window utils.Window) ([]models.RawItem, error) {
	key := Key(company, window)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	params := url.Values{}
	params.Set("q", company)
	params.Set("categories", "news")
	params.Set("format", "json")
	searchURL := fmt.Sprintf("%s/search?%s", strings.TrimRight(s.cfg.BaseURL, "/"), params.Encode())

	body, err := doGet(ctx, searchURL, s.userAgent, map[string]string{"Accept": "application/json"})
	if err != nil {
		var httpErr *ErrHTTP
		if errors.As(err, &httpErr) && httpErr.StatusCode == 403 {
			return nil, fmt.Errorf("searx JSON API forbidden, enable 'json' in formats: %w", err)
		}
		return nil, err
	}
	defer body.Close()

	var resp searxResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode searx response: %w", err)
	}

	sort.Slice(resp.Results, func(i, j int) bool {
		return resp.Results[i].Score > resp.Results[j].Score
	})

	items := make([]models.RawItem, 0, len(resp.Results))
	for _, res := range resp.Results {
		if res.Title == "" || res.URL == "" {
			continue
		}
		item := models.RawItem{
			SourceID: s.cfg.ID,
			Title:    strings.TrimSpace(res.Title),
			URL:      res.URL,
			Snippet:  strings.TrimSpace(res.Content),
		}
		if res.PublishedDate != "" {
			if t, err := time.Parse(time.RFC3339, res.PublishedDate); err == nil {
				item.PublishedAt = &t
			}
		}
		items = append(items, item)
		if len(items) >= s.maxItems {
			break
		}
	}

	if len(items) == 0 {
		return nil, ErrNoResults
	}

	s.cache.Set(key, items)
	return items, nil
}
