package pipeline

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/config"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

// Deduplicator merges items that cover the same story across sources. Items
// merge when their URL matches exactly, or when their titles and fingerprints
// are similar enough and they published close together in time.
type Deduplicator struct {
	cfg         config.DedupConfig
	fingerprint Fingerprinter
}

// NewDeduplicator creates a deduplicator with the default token
// fingerprinter.
func NewDeduplicator(cfg config.DedupConfig) *Deduplicator {
	return &Deduplicator{cfg: cfg, fingerprint: TokenFingerprinter{}}
}

// WithFingerprinter swaps the fingerprint implementation.
func (d *Deduplicator) WithFingerprinter(f Fingerprinter) *Deduplicator {
	d.fingerprint = f
	return d
}

// Dedup merges near-duplicate items into canonical representatives. The
// result is independent of input order: merging is transitive through a
// union-find, so A~B and B~C fold into one cluster no matter how the items
// arrived, and the representative of a cluster is chosen by fixed rules
// rather than position.
func (d *Deduplicator) Dedup(items []models.CanonicalItem) []models.CanonicalItem {
	if len(items) <= 1 {
		return d.finalize(items)
	}

	parent := make([]int, len(items))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	// Exact URL matches merge unconditionally.
	byURL := make(map[string]int, len(items))
	for i, item := range items {
		key := normalizeURL(item.URL)
		if j, ok := byURL[key]; ok {
			union(j, i)
		} else {
			byURL[key] = i
		}
	}

	// Similarity pass, blocked by the first salient title token so only
	// plausibly-related pairs are compared.
	blocks := make(map[string][]int)
	for i, item := range items {
		blocks[utils.SalientToken(item.Title)] = append(blocks[utils.SalientToken(item.Title)], i)
	}
	fingerprints := make([]map[string]bool, len(items))
	titles := make([]map[string]bool, len(items))
	for i, item := range items {
		fingerprints[i] = d.fingerprint.Fingerprint(item)
		titles[i] = utils.TokenSet(item.Title)
	}
	for _, block := range blocks {
		for x := 0; x < len(block); x++ {
			for y := x + 1; y < len(block); y++ {
				i, j := block[x], block[y]
				if find(i) == find(j) {
					continue
				}
				if d.similar(items[i], items[j], titles[i], titles[j], fingerprints[i], fingerprints[j]) {
					union(i, j)
				}
			}
		}
	}

	clusters := make(map[int][]int)
	for i := range items {
		root := find(i)
		clusters[root] = append(clusters[root], i)
	}

	merged := make([]models.CanonicalItem, 0, len(clusters))
	for _, members := range clusters {
		merged = append(merged, d.merge(items, members))
	}
	return d.finalize(merged)
}

// similar reports whether two items describe the same story: weighted title
// and fingerprint overlap at or above the threshold, with publish times
// inside the proximity window.
func (d *Deduplicator) similar(a, b models.CanonicalItem, titleA, titleB, fpA, fpB map[string]bool) bool {
	gap := a.PublishedAt.Sub(b.PublishedAt)
	if gap < 0 {
		gap = -gap
	}
	if gap > d.cfg.ProximityWindow {
		return false
	}
	score := d.cfg.TitleWeight*utils.Jaccard(titleA, titleB) +
		d.cfg.FingerprintWeight*utils.Jaccard(fpA, fpB)
	return score >= d.cfg.SimilarityThreshold
}

// merge folds a cluster into its representative. The representative is the
// member with the highest source credibility, then the most recent publish
// time, then the lexically smallest URL, making the choice deterministic.
func (d *Deduplicator) merge(items []models.CanonicalItem, members []int) models.CanonicalItem {
	rep := members[0]
	for _, i := range members[1:] {
		if betterRepresentative(items[i], items[rep]) {
			rep = i
		}
	}

	out := items[rep]
	repEstimated := out.PublishedAtIsEstimated
	out.SourceIDs = append([]string(nil), out.SourceIDs...)
	seenSources := make(map[string]bool, len(members))
	for _, id := range out.SourceIDs {
		seenSources[id] = true
	}
	seenURLs := map[string]bool{normalizeURL(out.URL): true}

	for _, i := range members {
		if i == rep {
			continue
		}
		m := items[i]
		for _, id := range m.SourceIDs {
			if !seenSources[id] {
				seenSources[id] = true
				out.SourceIDs = append(out.SourceIDs, id)
			}
		}
		if key := normalizeURL(m.URL); !seenURLs[key] {
			seenURLs[key] = true
			out.AlternateURLs = append(out.AlternateURLs, m.URL)
		}
		if m.CredibilityWeight > out.CredibilityWeight {
			out.CredibilityWeight = m.CredibilityWeight
		}
		// When the representative only has an estimated timestamp, adopt the
		// most recent exact one from the cluster. Keep the longer summary.
		if repEstimated && !m.PublishedAtIsEstimated &&
			(out.PublishedAtIsEstimated || m.PublishedAt.After(out.PublishedAt)) {
			out.PublishedAt = m.PublishedAt
			out.PublishedAtIsEstimated = false
		}
		if len(m.ContentSummary) > len(out.ContentSummary) {
			out.ContentSummary = m.ContentSummary
		}
	}

	sort.Strings(out.SourceIDs)
	sort.Strings(out.AlternateURLs)
	return out
}

// betterRepresentative reports whether a should represent the cluster over b.
func betterRepresentative(a, b models.CanonicalItem) bool {
	if a.CredibilityWeight != b.CredibilityWeight {
		return a.CredibilityWeight > b.CredibilityWeight
	}
	at, bt := effectiveTime(a), effectiveTime(b)
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return a.URL < b.URL
}

func effectiveTime(item models.CanonicalItem) time.Time {
	if item.PublishedAtIsEstimated {
		return time.Time{}
	}
	return item.PublishedAt
}

// finalize assigns stable IDs and a deterministic order. IDs derive from the
// representative URL so re-running dedup over its own output changes nothing.
func (d *Deduplicator) finalize(items []models.CanonicalItem) []models.CanonicalItem {
	for i := range items {
		items[i].ID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(normalizeURL(items[i].URL))).String()
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].PublishedAt.After(items[j].PublishedAt)
		}
		return items[i].URL < items[j].URL
	})
	return items
}

// normalizeURL canonicalizes a URL for comparison: lowercase scheme and
// host, trailing slash stripped.
func normalizeURL(raw string) string {
	s := strings.TrimSuffix(strings.TrimSpace(raw), "/")
	if i := strings.Index(s, "://"); i > 0 {
		s = strings.ToLower(s[:i+3]) + s[i+3:]
		rest := s[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			s = s[:i+3] + strings.ToLower(rest[:j]) + rest[j:]
		} else {
			s = s[:i+3] + strings.ToLower(rest)
		}
	}
	return s
}
