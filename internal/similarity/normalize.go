// Package similarity computes per-field and overall similarity between a
// local product and an external listing. All functions are pure and
// deterministic and return scores in the closed interval [0, 1].
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent decomposes characters and drops combining marks, so "Bébé" and
// "Bebe" normalize identically.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize case-folds, strips diacritics, replaces punctuation and symbol
// marks (™, ®, hyphens, slashes) with spaces, and collapses whitespace.
func Normalize(s string) string {
	folded, _, err := transform.String(deaccent, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize returns the normalized word tokens of s.
func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// collapse removes all spaces from an already normalized string, for
// character-level comparison that ignores word boundaries.
func collapse(s string) string {
	return strings.ReplaceAll(s, " ", "")
}
