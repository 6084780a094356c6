package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Acme News</title>
    <item>
      <title>Acme Corp beats earnings expectations</title>
      <link>https://example.com/acme-earnings</link>
      <description>&lt;b&gt;Acme Corp&lt;/b&gt; posted record quarterly revenue.</description>
      <pubDate>Fri, 28 Aug 2026 10:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Unrelated market roundup</title>
      <link>https://example.com/roundup</link>
      <description>General markets dipped on Friday.</description>
      <pubDate>Fri, 28 Aug 2026 09:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

const sampleSearch = `<html><body>
<div class="result">
  <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Facme-merger">Acme announces merger</a>
  <div class="result__snippet">Acme will acquire Beta Inc in an all-stock deal.</div>
</div>
<div class="result">
  <a class="result__a" href="https://example.com/acme-lawsuit">Acme faces lawsuit</a>
  <div class="result__snippet">Regulators filed suit against Acme on Thursday.</div>
</div>
</body></html>`

func TestRSSFetchFiltersAndParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	rss := NewRSS(config.SourceConfig{ID: "rss", Credibility: 0.9}, 15)
	rss.searchFeedURL = func(string) string { return srv.URL }

	items, err := rss.Fetch(context.Background(), "Acme Corp", utils.DefaultWindow)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 matching item, got %d", len(items))
	}
	got := items[0]
	if got.Title != "Acme Corp beats earnings expectations" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Snippet != "Acme Corp posted record quarterly revenue." {
		t.Errorf("snippet not cleaned of HTML: %q", got.Snippet)
	}
	if got.PublishedAt == nil {
		t.Fatal("pubDate not parsed")
	}
	if got.SourceID != "rss" {
		t.Errorf("source id = %q", got.SourceID)
	}
}

func TestRSSFetchCachesResults(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	rss := NewRSS(config.SourceConfig{ID: "rss"}, 15)
	rss.searchFeedURL = func(string) string { return srv.URL }

	for i := 0; i < 3; i++ {
		if _, err := rss.Fetch(context.Background(), "Acme Corp", utils.DefaultWindow); err != nil {
			t.Fatalf("Fetch #%d: %v", i+1, err)
		}
	}
	if hits != 1 {
		t.Errorf("feed fetched %d times, cache expected to serve repeats", hits)
	}
}

func TestDuckDuckGoParseAndUnwrap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleSearch))
	}))
	defer srv.Close()

	ddg := NewDuckDuckGo(config.SourceConfig{ID: "duckduckgo", BaseURL: srv.URL}, 15, "")
	items, err := ddg.Fetch(context.Background(), "Acme", utils.DefaultWindow)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].URL != "https://example.com/acme-merger" {
		t.Errorf("redirect not unwrapped: %q", items[0].URL)
	}
	if items[1].URL != "https://example.com/acme-lawsuit" {
		t.Errorf("direct URL mangled: %q", items[1].URL)
	}
	if items[0].Snippet == "" {
		t.Error("snippet missing")
	}
}

func TestDuckDuckGoMaxItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleSearch))
	}))
	defer srv.Close()

	ddg := NewDuckDuckGo(config.SourceConfig{ID: "duckduckgo", BaseURL: srv.URL}, 1, "")
	items, err := ddg.Fetch(context.Background(), "Acme", utils.DefaultWindow)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("max items not enforced, got %d", len(items))
	}
}

func TestSearxFetchDecodesAndRanks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" {
			t.Errorf("format param missing: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"title":"Low relevance","url":"https://example.com/low","content":"meh","score":0.2},
			{"title":"Acme restructuring","url":"https://example.com/top","content":"Acme announced layoffs.","score":4.5,"publishedDate":"2026-08-28T08:00:00Z"}
		]}`))
	}))
	defer srv.Close()

	sx := NewSearx(config.SourceConfig{ID: "searx", BaseURL: srv.URL}, 15, "")
	items, err := sx.Fetch(context.Background(), "Acme", utils.DefaultWindow)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].URL != "https://example.com/top" {
		t.Errorf("results not ranked by score, first = %q", items[0].URL)
	}
	if items[0].PublishedAt == nil {
		t.Error("publishedDate not parsed")
	}
}

func TestSearxEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	sx := NewSearx(config.SourceConfig{ID: "searx", BaseURL: srv.URL}, 15, "")
	if _, err := sx.Fetch(context.Background(), "Acme", utils.DefaultWindow); err != ErrNoResults {
		t.Fatalf("err = %v, want ErrNoResults", err)
	}
}

func TestCleanHTML(t *testing.T) {
	cases := map[string]string{
		"<b>bold</b> text":             "bold text",
		"plain":                        "plain",
		"":                             "",
		"<a href='x'>link</a> trailer": "link trailer",
	}
	for in, want := range cases {
		if got := CleanHTML(in); got != want {
			t.Errorf("CleanHTML(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveURL(t *testing.T) {
	cases := []struct {
		base, ref, want string
	}{
		{"https://example.com", "/news/1", "https://example.com/news/1"},
		{"https://example.com", "https://other.com/x", "https://other.com/x"},
		{"https://example.com", "", ""},
	}
	for _, tc := range cases {
		if got := ResolveURL(tc.base, tc.ref); got != tc.want {
			t.Errorf("ResolveURL(%q, %q) = %q, want %q", tc.base, tc.ref, got, tc.want)
		}
	}
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(20 * time.Millisecond)
	key := Key("Acme", utils.DefaultWindow)
	c.Set(key, nil)
	if _, ok := c.Get(key); !ok {
		t.Fatal("fresh entry missing")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Fatal("stale entry served past TTL")
	}
}
