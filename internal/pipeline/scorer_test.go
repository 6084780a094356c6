package pipeline

import (
	"testing"
	"time"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

func scoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		RecencyWeight:     0.35,
		CredibilityWeight: 0.25,
		CategoryWeight:    0.2,
		RelevanceWeight:   0.2,
		CategoryMultipliers: map[string]float64{
			"M&A":       1.0,
			"Legal":     0.95,
			"Financial": 0.85,
			"Product":   0.6,
			"Other":     0.4,
		},
		DefaultThreshold: 5.0,
	}
}

func newTestScorer(now time.Time) *Scorer {
	s := NewScorer(scoringConfig())
	s.now = func() time.Time { return now }
	return s
}

func TestScoreWithinBounds(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	s := newTestScorer(now)

	items := []models.CanonicalItem{
		{Title: "Acme merger approved", Category: models.CategoryMA, CredibilityWeight: 1.0, PublishedAt: now},
		{Title: "Unrelated roundup", Category: models.CategoryOther, CredibilityWeight: 0.0, PublishedAt: now.Add(-200 * time.Hour)},
	}
	s.Score(items, "Acme", utils.DefaultWindow)

	for _, it := range items {
		if it.ImpactScore < 1 || it.ImpactScore > 10 {
			t.Errorf("%q score %.2f outside [1,10]", it.Title, it.ImpactScore)
		}
	}
	if items[0].ImpactScore <= items[1].ImpactScore {
		t.Errorf("fresh high-credibility merger (%.2f) should outscore stale filler (%.2f)",
			items[0].ImpactScore, items[1].ImpactScore)
	}
}

func TestScoreRecencyDecay(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	s := newTestScorer(now)

	fresh := models.CanonicalItem{Title: "Acme update", Category: models.CategoryFinancial, CredibilityWeight: 0.8, PublishedAt: now}
	stale := fresh
	stale.PublishedAt = now.Add(-23 * time.Hour)

	items := []models.CanonicalItem{fresh, stale}
	s.Score(items, "Acme", utils.DefaultWindow)
	if items[0].ImpactScore <= items[1].ImpactScore {
		t.Errorf("recency decay missing: fresh %.2f vs stale %.2f", items[0].ImpactScore, items[1].ImpactScore)
	}
}

func TestScoreEstimatedTimestampIsNeutral(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	s := newTestScorer(now)

	estimated := models.CanonicalItem{
		Title: "Acme update", Category: models.CategoryFinancial,
		CredibilityWeight: 0.8, PublishedAt: now, PublishedAtIsEstimated: true,
	}
	exactFresh := estimated
	exactFresh.PublishedAtIsEstimated = false
	exactStale := exactFresh
	exactStale.PublishedAt = now.Add(-100 * time.Hour)

	items := []models.CanonicalItem{estimated, exactFresh, exactStale}
	s.Score(items, "Acme", utils.DefaultWindow)

	if items[0].ImpactScore >= items[1].ImpactScore {
		t.Error("estimated timestamp should not score as high as provably fresh")
	}
	if items[0].ImpactScore <= items[2].ImpactScore {
		t.Error("estimated timestamp should not score as low as provably stale")
	}
}

func TestScoreRelevanceTiers(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	s := newTestScorer(now)

	inTitle := models.CanonicalItem{Title: "Acme posts results", Category: models.CategoryFinancial, CredibilityWeight: 0.8, PublishedAt: now}
	inSummary := models.CanonicalItem{Title: "Quarterly results posted", ContentSummary: "Acme reported...", Category: models.CategoryFinancial, CredibilityWeight: 0.8, PublishedAt: now}
	neither := models.CanonicalItem{Title: "Quarterly results posted", Category: models.CategoryFinancial, CredibilityWeight: 0.8, PublishedAt: now}

	items := []models.CanonicalItem{inTitle, inSummary, neither}
	s.Score(items, "Acme", utils.DefaultWindow)

	if !(items[0].ImpactScore > items[1].ImpactScore && items[1].ImpactScore > items[2].ImpactScore) {
		t.Errorf("relevance tiers out of order: %.2f / %.2f / %.2f",
			items[0].ImpactScore, items[1].ImpactScore, items[2].ImpactScore)
	}
}

func TestFilterCountsDropped(t *testing.T) {
	s := NewScorer(scoringConfig())
	items := []models.CanonicalItem{
		{Title: "high", ImpactScore: 8},
		{Title: "low", ImpactScore: 3},
		{Title: "edge", ImpactScore: 5},
	}
	kept, dropped := s.Filter(items, 5)
	if len(kept) != 2 || dropped != 1 {
		t.Fatalf("kept %d dropped %d, want 2/1", len(kept), dropped)
	}
	for _, it := range kept {
		if it.ImpactScore < 5 {
			t.Errorf("item %q below threshold survived", it.Title)
		}
	}
}

func TestFilterZeroThresholdUsesDefault(t *testing.T) {
	s := NewScorer(scoringConfig())
	items := []models.CanonicalItem{
		{Title: "high", ImpactScore: 8},
		{Title: "low", ImpactScore: 3},
	}
	kept, dropped := s.Filter(items, 0)
	if len(kept) != 1 || dropped != 1 {
		t.Fatalf("default threshold 5 not applied: kept %d dropped %d", len(kept), dropped)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		title string
		want  models.Category
	}{
		{"Acme announces merger with Beta", models.CategoryMA},
		{"Acme faces antitrust investigation", models.CategoryLegal},
		{"Acme quarterly earnings beat forecast", models.CategoryFinancial},
		{"Acme launches new widget", models.CategoryProduct},
		{"Acme CEO attends conference", models.CategoryOther},
	}
	for _, tc := range cases {
		if got := Classify(tc.title, ""); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.title, got, tc.want)
		}
	}
}
