package pipeline

import (
	"time"

	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/models"
	"github.com/ragulg06/RAP-HeadLine-HQ/pkg/utils"
)

// WindowFilter restricts items to the requested time range, widening to the
// next preset at most once when the range comes back empty.
type WindowFilter struct {
	now func() time.Time
}

// NewWindowFilter creates a window filter.
func NewWindowFilter() *WindowFilter {
	return &WindowFilter{now: time.Now}
}

// Apply keeps items published inside the window. If none survive and a wider
// preset exists, it widens one step and retries; the returned window is the
// one actually applied, and widened reports whether a step was taken. Items
// with estimated timestamps always pass, their real publish time is unknown.
func (w *WindowFilter) Apply(items []models.CanonicalItem, window utils.Window) ([]models.CanonicalItem, utils.Window, bool) {
	now := w.now()

	kept := w.filter(items, window, now)
	if len(kept) > 0 || len(items) == 0 {
		return kept, window, false
	}

	wider, ok := utils.WiderWindow(window)
	if !ok {
		return kept, window, false
	}
	return w.filter(items, wider, now), wider, true
}

func (w *WindowFilter) filter(items []models.CanonicalItem, window utils.Window, now time.Time) []models.CanonicalItem {
	var kept []models.CanonicalItem
	for _, item := range items {
		if item.PublishedAtIsEstimated || utils.WithinWindow(item.PublishedAt, now, window) {
			kept = append(kept, item)
		}
	}
	return kept
}
