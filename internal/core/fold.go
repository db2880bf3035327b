package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold reduces s to a comparison key: trimmed, lower-cased, with combining
// marks removed and runs of whitespace collapsed. Turkish dotless ı folds to i,
// so "Ürün Adı" and "urun adi" compare equal.
func Fold(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// Casers and chained transformers keep state; build them per call.
	lowered := cases.Lower(language.Und).String(s)
	stripped, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		lowered,
	)
	if err != nil {
		stripped = lowered
	}
	stripped = strings.ReplaceAll(stripped, "ı", "i")
	return strings.Join(strings.Fields(stripped), " ")
}
