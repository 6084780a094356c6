// Package utils provides small shared helpers: publish-time window presets
// and text normalization used by deduplication and relevance matching.
package utils

import (
	"fmt"
	"strings"
	"time"
)

// Window is a named publish-time range preset.
type Window struct {
	Name     string
	Duration time.Duration
}

// Ascending preset order. Widening moves one step to the right.
var windowPresets = []Window{
	{Name: "1h", Duration: time.Hour},
	{Name: "6h", Duration: 6 * time.Hour},
	{Name: "24h", Duration: 24 * time.Hour},
	{Name: "1w", Duration: 7 * 24 * time.Hour},
}

// windowAliases maps accepted spellings to preset names.
var windowAliases = map[string]string{
	"1h":       "1h",
	"1 hour":   "1h",
	"hour":     "1h",
	"6h":       "6h",
	"6 hours":  "6h",
	"24h":      "24h",
	"24 hours": "24h",
	"day":      "24h",
	"1d":       "24h",
	"1w":       "1w",
	"1 week":   "1w",
	"week":     "1w",
	"168h":     "1w",
}

// DefaultWindow is the preset used when a request names none.
var DefaultWindow = Window{Name: "24h", Duration: 24 * time.Hour}

// ParseWindow resolves a preset name (or alias) into a Window.
func ParseWindow(s string) (Window, error) {
	name, ok := windowAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return Window{}, fmt.Errorf("unknown time window %q", s)
	}
	for _, w := range windowPresets {
		if w.Name == name {
			return w, nil
		}
	}
	return Window{}, fmt.Errorf("unknown time window %q", s)
}

// WindowNames returns the preset names in ascending order.
func WindowNames() []string {
	names := make([]string, len(windowPresets))
	for i, w := range windowPresets {
		names[i] = w.Name
	}
	return names
}

// WiderWindow returns the next larger preset, or false when w is already the
// largest.
func WiderWindow(w Window) (Window, bool) {
	for i, p := range windowPresets {
		if p.Name == w.Name && i+1 < len(windowPresets) {
			return windowPresets[i+1], true
		}
	}
	return Window{}, false
}

// WithinWindow reports whether t falls inside [now-w, now]. Items timestamped
// slightly in the future (clock skew between feeds) are treated as current.
func WithinWindow(t, now time.Time, w Window) bool {
	return !t.Before(now.Add(-w.Duration))
}
