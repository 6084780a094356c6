package utils

import (
	"strings"
	"unicode"
)

// stopwords are title tokens that carry no event identity.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true, "be": true,
	"by": true, "for": true, "from": true, "in": true, "is": true, "it": true,
	"its": true, "of": true, "on": true, "or": true, "the": true, "to": true,
	"with": true, "after": true, "amid": true, "over": true, "says": true,
	"news": true, "report": true, "update": true,
}

// NormalizeTitle lowercases a title and strips everything but letters,
// digits and spaces, collapsing runs of whitespace.
func NormalizeTitle(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case !lastSpace:
			b.WriteRune(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokenize splits normalized text into unique tokens, dropping stopwords and
// single-character fragments.
func Tokenize(s string) []string {
	fields := strings.Fields(NormalizeTitle(s))
	seen := make(map[string]bool, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

// TokenSet returns the tokens of s as a set.
func TokenSet(s string) map[string]bool {
	tokens := Tokenize(s)
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}

// Jaccard computes |a∩b| / |a∪b| for two token sets. Two empty sets are
// considered identical.
func Jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// SalientToken returns the first non-stopword token of a title, used as a
// cheap blocking key for deduplication. Empty when the title has none.
func SalientToken(title string) string {
	tokens := Tokenize(title)
	if len(tokens) == 0 {
		return ""
	}
	return tokens[0]
}

// ContainsFold reports whether text contains substr, case-insensitively.
func ContainsFold(text, substr string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(substr))
}
