package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeKey folds a street key for comparison: accents are stripped,
// case is lowered and inner whitespace collapsed. "Rue  de l'Église_6000"
// and "rue de l'eglise_6000" normalise to the same key.
func NormalizeKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.Join(strings.Fields(out), " "))
}

// streetKey is the normalised form of model.Street.Key for a name and zip.
func streetKey(name, zip string) string {
	return NormalizeKey(strings.TrimSpace(name) + "_" + strings.TrimSpace(zip))
}
