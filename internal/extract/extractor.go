// Package extract pulls company mentions out of free-form user input.
package extract

import (
	"context"
	"strings"
	"unicode"
)

// Extractor finds the company a piece of user input is asking about. An
// empty result means no company could be identified.
type Extractor interface {
	Company(ctx context.Context, input string) string
}

// Heuristic extracts companies without any model call: known aliases first,
// then capitalized runs ending in a corporate suffix, then the word
// preceding a market indicator like "stock" or "shares".
type Heuristic struct {
	aliases map[string]string
}

// Common tickers and shorthand mapped to canonical names. Lookup keys are
// lowercase.
var defaultAliases = map[string]string{
	"aapl":      "Apple",
	"apple":     "Apple",
	"msft":      "Microsoft",
	"microsoft": "Microsoft",
	"googl":     "Google",
	"goog":      "Google",
	"google":    "Google",
	"alphabet":  "Alphabet",
	"amzn":      "Amazon",
	"amazon":    "Amazon",
	"tsla":      "Tesla",
	"tesla":     "Tesla",
	"meta":      "Meta",
	"nvda":      "Nvidia",
	"nvidia":    "Nvidia",
	"netflix":   "Netflix",
	"nflx":      "Netflix",
	"intel":     "Intel",
	"intc":      "Intel",
	"amd":       "AMD",
	"ibm":       "IBM",
	"oracle":    "Oracle",
	"orcl":      "Oracle",
	"boeing":    "Boeing",
	"ba":        "Boeing",
	"ford":      "Ford",
	"gm":        "General Motors",
	"walmart":   "Walmart",
	"wmt":       "Walmart",
	"disney":    "Disney",
	"dis":       "Disney",
}

var corporateSuffixes = map[string]bool{
	"corp": true, "corporation": true, "inc": true, "incorporated": true,
	"ltd": true, "limited": true, "llc": true, "plc": true, "co": true,
	"group": true, "holdings": true,
}

var marketIndicators = map[string]bool{
	"stock": true, "stocks": true, "shares": true, "share": true,
	"company": true, "ticker": true, "earnings": true,
}

// Words that start a sentence capitalized without naming anything.
var sentenceNoise = map[string]bool{
	"what": true, "whats": true, "how": true, "show": true, "tell": true,
	"give": true, "any": true, "the": true, "latest": true, "news": true,
	"is": true, "are": true, "did": true, "has": true, "have": true,
	"please": true, "can": true, "could": true, "i": true, "me": true,
	"about": true, "on": true, "for": true, "of": true, "in": true,
}

// NewHeuristic creates the rule-based extractor with the default alias
// table. Extra aliases extend or override the defaults.
func NewHeuristic(extraAliases map[string]string) *Heuristic {
	aliases := make(map[string]string, len(defaultAliases)+len(extraAliases))
	for k, v := range defaultAliases {
		aliases[k] = v
	}
	for k, v := range extraAliases {
		aliases[strings.ToLower(k)] = v
	}
	return &Heuristic{aliases: aliases}
}

// Company applies the extraction rules in priority order.
func (h *Heuristic) Company(_ context.Context, input string) string {
	words := fields(input)
	if len(words) == 0 {
		return ""
	}

	// Rule 1: known alias anywhere in the input.
	for _, w := range words {
		if name, ok := h.aliases[strings.ToLower(w)]; ok {
			return name
		}
	}

	// Rule 2: capitalized run ending in a corporate suffix
	// ("Acme Widget Corp" -> "Acme Widget Corp").
	if name := capitalizedRun(words); name != "" {
		return name
	}

	// Rule 3: the word right before a market indicator
	// ("how is Zenith stock doing" -> "Zenith").
	for i := 1; i < len(words); i++ {
		if marketIndicators[strings.ToLower(words[i])] {
			prev := words[i-1]
			if isCapitalized(prev) && !sentenceNoise[strings.ToLower(prev)] {
				return prev
			}
		}
	}

	return ""
}

// capitalizedRun finds a maximal run of capitalized words whose last word is
// a corporate suffix, returning the run including the suffix.
func capitalizedRun(words []string) string {
	for i, w := range words {
		if !corporateSuffixes[strings.ToLower(w)] || i == 0 {
			continue
		}
		start := i
		for start > 0 && isCapitalized(words[start-1]) && !sentenceNoise[strings.ToLower(words[start-1])] {
			start--
		}
		if start < i {
			return strings.Join(words[start:i+1], " ")
		}
	}
	return ""
}

func isCapitalized(w string) bool {
	r := []rune(w)
	return len(r) > 0 && unicode.IsUpper(r[0])
}

// fields splits on whitespace and strips surrounding punctuation so
// "Tesla's" and "Apple," still match.
func fields(s string) []string {
	raw := strings.Fields(s)
	out := make([]string, 0, len(raw))
	for _, w := range raw {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if i := strings.IndexAny(w, "'’"); i > 0 {
			w = w[:i]
		}
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
