// Package normalize folds free-form user text into a canonical comparison
// form. The whole app shares this one policy so that answer matching and
// role-label lookup behave identically.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var folder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases, trims, collapses internal whitespace, and strips
// diacritic marks. "  Ángel  DI MARÍA " -> "angel di maria".
func Fold(s string) string {
	folded, _, err := transform.String(folder, s)
	if err != nil {
		// Transform only fails on malformed input; fall back to the raw
		// string rather than losing the submission.
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
