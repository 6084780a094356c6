package pipeline

import (
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

// Fingerprinter reduces an item to a set of content tokens for similarity
// comparison. Swapping the implementation changes how near-duplicates are
// detected without touching the dedup pass itself.
type Fingerprinter interface {
	Fingerprint(item models.CanonicalItem) map[string]bool
}

// TokenFingerprinter fingerprints an item as the salient-token set of its
// title and summary. It is the default implementation.
type TokenFingerprinter struct{}

// Fingerprint tokenizes title plus summary, dropping stopwords.
func (TokenFingerprinter) Fingerprint(item models.CanonicalItem) map[string]bool {
	return utils.TokenSet(item.Title + " " + item.ContentSummary)
}
