// Package slug derives URL-safe identifiers from display names.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make lowercases the name, strips diacritics and turns every run of
// non-alphanumeric characters into a single hyphen.
func Make(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))

	if out, _, err := transform.String(stripMarks, s); err == nil {
		s = out
	}
	// NFD does not decompose the Vietnamese đ.
	s = strings.ReplaceAll(s, "đ", "d")

	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
