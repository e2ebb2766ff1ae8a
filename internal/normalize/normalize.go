// Package normalize canonicalizes free text into the lowercased,
// diacritic-stripped, whitespace-collapsed form used throughout the pipeline
// as the matching substrate and key generator.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize lowercases s, applies Unicode canonical decomposition, strips
// combining marks, collapses any run of whitespace to a single space, and
// trims. It returns "" for empty input. Normalize is idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	lowered := strings.ToLower(s)
	decomposed := norm.NFD.String(lowered)

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	collapsed := whitespaceRun.ReplaceAllString(b.String(), " ")
	return strings.TrimSpace(collapsed)
}

var (
	japaneseAlias = regexp.MustCompile(`\b(jap|jpn|jp|giapponese)\b`)
	englishAlias  = regexp.MustCompile(`\b(eng|en|english|inglese)\b`)
)

// NormalizeQuery applies Normalize, then rewrites language aliases to their
// short form ("jap"/"jpn"/"jp"/"giapponese" -> "ja",
// "eng"/"en"/"english"/"inglese" -> "en"), surrounding each replacement with
// spaces, and re-collapses whitespace. The marketplace title parser does not
// call it; it applies its own alias patterns to Normalize output.
func NormalizeQuery(s string) string {
	n := Normalize(s)
	padded := " " + n + " "
	padded = japaneseAlias.ReplaceAllString(padded, " ja ")
	padded = englishAlias.ReplaceAllString(padded, " en ")
	return Normalize(padded)
}

// ContainsJapanese reports whether s contains a rune from the hiragana,
// katakana, or CJK unified ideograph ranges (U+3040-U+30FF, U+3400-U+9FFF).
func ContainsJapanese(s string) bool {
	for _, r := range s {
		if (r >= 0x3040 && r <= 0x30FF) || (r >= 0x3400 && r <= 0x9FFF) {
			return true
		}
	}
	return false
}
