package pipeline

import (
	"math"
	"time"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

// Scorer assigns each item an impact score in [1,10] from a weighted blend
// of recency, source credibility, category importance, and relevance to the
// queried company.
type Scorer struct {
	cfg config.ScoringConfig
	now func() time.Time
}

// NewScorer creates a scorer.
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg, now: time.Now}
}

// Score computes impact scores in place. The window is the requested time
// range, used to normalize recency decay.
func (s *Scorer) Score(items []models.CanonicalItem, company string, window utils.Window) {
	weightSum := s.cfg.RecencyWeight + s.cfg.CredibilityWeight + s.cfg.CategoryWeight + s.cfg.RelevanceWeight
	if weightSum <= 0 {
		weightSum = 1
	}
	now := s.now()
	for i := range items {
		item := &items[i]
		blend := (s.cfg.RecencyWeight*s.recency(item, now, window) +
			s.cfg.CredibilityWeight*clamp01(item.CredibilityWeight) +
			s.cfg.CategoryWeight*s.categoryMultiplier(item.Category) +
			s.cfg.RelevanceWeight*relevance(item, company)) / weightSum
		item.ImpactScore = 1 + 9*clamp01(blend)
	}
}

// Filter drops items scoring below the threshold, returning the survivors
// and the count removed.
func (s *Scorer) Filter(items []models.CanonicalItem, threshold float64) ([]models.CanonicalItem, int) {
	if threshold <= 0 {
		threshold = s.cfg.DefaultThreshold
	}
	kept := items[:0]
	removed := 0
	for _, item := range items {
		if item.ImpactScore >= threshold {
			kept = append(kept, item)
		} else {
			removed++
		}
	}
	return kept, removed
}

// recency maps the item age onto (0,1] with exponential decay scaled to the
// requested window: an item published now scores 1, one published a full
// window ago roughly 0.37. Estimated timestamps get a neutral 0.5 since
// their real age is unknown.
func (s *Scorer) recency(item *models.CanonicalItem, now time.Time, window utils.Window) float64 {
	if item.PublishedAtIsEstimated {
		return 0.5
	}
	age := now.Sub(item.PublishedAt)
	if age < 0 {
		age = 0
	}
	return math.Exp(-float64(age) / float64(window.Duration))
}

func (s *Scorer) categoryMultiplier(cat models.Category) float64 {
	if mult, ok := s.cfg.CategoryMultipliers[string(cat)]; ok {
		return mult
	}
	return s.cfg.CategoryMultipliers[string(models.CategoryOther)]
}

// relevance reflects how directly the item is about the queried company:
// named in the title, named only in the summary, or merely surfaced by the
// search.
func relevance(item *models.CanonicalItem, company string) float64 {
	switch {
	case utils.ContainsFold(item.Title, company):
		return 1.0
	case utils.ContainsFold(item.ContentSummary, company):
		return 0.6
	default:
		return 0.3
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
