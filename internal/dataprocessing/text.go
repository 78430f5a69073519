package dataprocessing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

func newAccentStripper() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// StripAccents removes combining marks, so "Número" becomes "Numero"
func StripAccents(s string) string {
	out, _, err := transform.String(newAccentStripper(), s)
	if err != nil {
		return s
	}
	return out
}

// FoldText prepares free text for case- and accent-insensitive comparison
func FoldText(s string) string {
	return strings.ToLower(strings.TrimSpace(StripAccents(s)))
}

// HeaderKey reduces a column header to lower-case letters and digits
func HeaderKey(s string) string {
	folded := FoldText(s)
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DigitsOnly keeps the decimal digits of s. Tax IDs are compared this way.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
