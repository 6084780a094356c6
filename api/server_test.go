package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/extract"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/generate"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/llm"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/pipeline"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/session"
	"github.com/ragulg06/RAP-HeadLine-HQ/internal/source"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

type cannedSource struct {
	id    string
	items []models.RawItem
}

func (c *cannedSource) ID() string      { return c.id }
func (c *cannedSource) BaseURL() string { return "https://example.com" }
func (c *cannedSource) Fetch(ctx context.Context, company string, window utils.Window) ([]models.RawItem, error) {
	return c.items, nil
}

type offlineChatter struct{}

func (offlineChatter) Chat(ctx context.Context, messages []llm.Message, opts *llm.ChatOptions) (*llm.Response, error) {
	return nil, errors.New("model offline")
}

func testServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Sources: []config.SourceConfig{
			{ID: "rss", Kind: "rss", Enabled: true, Credibility: 0.9, BaseURL: "https://example.com"},
		},
		Fetch: config.FetchConfig{
			PerSourceTimeout: time.Second,
			PoolDeadline:     2 * time.Second,
			PipelineDeadline: 5 * time.Second,
		},
		Dedup: config.DedupConfig{
			SimilarityThreshold: 0.8,
			ProximityWindow:     48 * time.Hour,
			TitleWeight:         0.6,
			FingerprintWeight:   0.4,
		},
		Scoring: config.ScoringConfig{
			RecencyWeight:     0.35,
			CredibilityWeight: 0.25,
			CategoryWeight:    0.2,
			RelevanceWeight:   0.2,
			CategoryMultipliers: map[string]float64{
				"M&A": 1.0, "Legal": 0.95, "Financial": 0.85, "Product": 0.6, "Other": 0.4,
			},
			DefaultThreshold: 5.0,
			MaxBundleItems:   10,
		},
		Session: config.SessionConfig{HistoryLimit: 10, DefaultStyle: "professional", DefaultRange: "24h"},
	}

	pub := time.Now().Add(-time.Hour)
	pool := source.NewPool([]source.Source{
		&cannedSource{id: "rss", items: []models.RawItem{
			{SourceID: "rss", Title: "Acme announces merger with Beta", URL: "https://example.com/1", PublishedAt: &pub},
		}},
	}, cfg.Fetch.PerSourceTimeout, cfg.Fetch.PoolDeadline)

	gen := generate.NewGenerator(offlineChatter{}, cfg.LLM)
	orch := pipeline.NewOrchestrator(cfg, session.NewManager(cfg.Session), extract.NewHeuristic(nil), pool, gen)
	return NewServer(cfg, orch)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var env APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); !env.Success {
		t.Errorf("envelope = %+v", env)
	}
}

func TestQueryEndpoint(t *testing.T) {
	srv := testServer(t)

	body, _ := json.Marshal(QueryBody{Message: "latest on Acme?", Company: "Acme"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("envelope = %+v", env)
	}
	data, _ := json.Marshal(env.Data)
	var resp models.QueryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.SessionID == "" || resp.Company != "Acme" || resp.Text == "" {
		t.Errorf("response incomplete: %+v", resp)
	}
}

func TestQueryEndpointRejectsEmptyBody(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/query", bytes.NewReader([]byte(`{}`)))
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := testServer(t)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	data, _ := json.Marshal(env.Data)
	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		t.Fatal(err)
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/history", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+sess.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/"+sess.ID+"/history", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("deleted session history status = %d, want 404", rec.Code)
	}
}

func TestSourcesEndpoint(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sources", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	data, _ := json.Marshal(env.Data)
	var infos []SourceInfo
	if err := json.Unmarshal(data, &infos); err != nil {
		t.Fatal(err)
	}
	if len(infos) != 1 || infos[0].ID != "rss" || infos[0].Credibility != 0.9 {
		t.Errorf("sources = %+v", infos)
	}
}
