// Package textnorm folds guesses and prompt words into a comparable form:
// trimmed, whitespace-collapsed, case-folded and stripped of diacritics.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns the canonical comparison form of s.
func Normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	// Casers carry state, so each call gets its own.
	return cases.Fold().String(stripped)
}

// Match reports whether guess equals word or one of its variants once both
// sides are normalized. An empty guess never matches.
func Match(guess, word string, variants ...string) bool {
	g := Normalize(guess)
	if g == "" {
		return false
	}
	if g == Normalize(word) {
		return true
	}
	for _, v := range variants {
		if g == Normalize(v) {
			return true
		}
	}
	return false
}
