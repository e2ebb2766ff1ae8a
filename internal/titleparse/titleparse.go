// Package titleparse extracts structured fields — lot detection, price,
// language, set code, local id, and grading bucket — out of noisy
// marketplace listing titles.
package titleparse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkmgraad/pipeline/internal/model"
	"github.com/pkmgraad/pipeline/internal/normalize"
)

var (
	lotPattern = regexp.MustCompile(`\blot\b|\bbundle\b|\bplayset\b|\bchoose\b|\bseleziona\b|\b\d+\s*(cards|carte)\b`)

	eurPricePattern = regexp.MustCompile(`(\d+,\d{1,2}|\d+)(?:\s*€|\s*eur)`)

	japaneseAlias = regexp.MustCompile(`\b(jap|jpn|jp|giapponese)\b`)
	englishAlias  = regexp.MustCompile(`\b(eng|en|english|inglese)\b`)

	setCodePattern = regexp.MustCompile(`\b(sv\d{1,2}[a-z]?|m[a-z]{1,3})\b`)

	fractionPattern = regexp.MustCompile(`\b(\d{1,3})/\d{1,3}\b`)
	promoPattern    = regexp.MustCompile(`\b[A-Z]{1,4}\d{1,4}\b`)
	graadStripPattern = regexp.MustCompile(`(?i)graad\s*\d{1,2}(?:[.,]5)?`)
	numberPattern     = regexp.MustCompile(`\b#?\s*(\d{2,3})\b`)

	graadPattern = regexp.MustCompile(`graad\s*(\d{1,2}(?:[.,]5)?)`)
)

// IsLikelyLot reports whether the normalized title looks like a multi-card
// lot rather than a single listing.
func IsLikelyLot(normalizedTitle string) bool {
	return lotPattern.MatchString(normalizedTitle)
}

// ParseEURPrice extracts a euro price from raw title text, or nil if none
// is present.
func ParseEURPrice(rawText string) *float64 {
	stripped := strings.ReplaceAll(rawText, ".", "")
	lower := strings.ToLower(stripped)

	m := eurPricePattern.FindStringSubmatch(lower)
	if m == nil {
		return nil
	}
	numeric := strings.ReplaceAll(m[1], ",", ".")
	price, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		return nil
	}
	return &price
}

// DetectLanguage returns "ja", "en", or "" based on the normalized title's
// language alias tokens.
func DetectLanguage(normalizedTitle string) model.Lang {
	if japaneseAlias.MatchString(normalizedTitle) {
		return model.LangJA
	}
	if englishAlias.MatchString(normalizedTitle) {
		return model.LangEN
	}
	return ""
}

// ExtractSetCode returns the first set-code-shaped token in the normalized
// title, or "" if none is found.
func ExtractSetCode(normalizedTitle string) string {
	m := setCodePattern.FindString(normalizedTitle)
	return m
}

// ExtractLocalID applies an ordered local-id extraction: fraction
// numerator, then promo/serial code, then a bare 2-3 digit number once any
// graad token is stripped.
func ExtractLocalID(rawText string) string {
	if m := fractionPattern.FindStringSubmatch(rawText); m != nil {
		return m[1]
	}
	for _, candidate := range promoPattern.FindAllString(rawText, -1) {
		// A token shaped like a set code (e.g. "SV3" in "SV3.5") is not a
		// promo/serial local id, even though it also fits [A-Z]{1,4}\d{1,4}.
		if setCodePattern.MatchString(strings.ToLower(candidate)) {
			continue
		}
		return candidate
	}
	stripped := graadStripPattern.ReplaceAllString(rawText, "")
	if m := numberPattern.FindStringSubmatch(stripped); m != nil {
		return m[1]
	}
	return ""
}

// DetectGradingBucket parses a graad token: exact grade hits map to a
// canonical bucket, half-open intervals round down, and
// anything else with a graad token but no recognizable grade is
// graad_unknown. A title with no graad token at all returns "" (the caller
// treats this as "raw").
func DetectGradingBucket(normalizedTitle string) model.Bucket {
	m := graadPattern.FindStringSubmatch(normalizedTitle)
	if m == nil {
		if strings.Contains(normalizedTitle, "graad") {
			return model.BucketGraadUnknown
		}
		return ""
	}

	grade, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return model.BucketGraadUnknown
	}

	switch {
	case grade == 7:
		return model.BucketGraad7
	case grade == 8:
		return model.BucketGraad8
	case grade == 9:
		return model.BucketGraad9
	case grade == 9.5:
		return model.BucketGraad95
	case grade == 10:
		return model.BucketGraad10
	case grade > 7 && grade < 8:
		return model.BucketGraad7
	case grade > 8 && grade < 9:
		return model.BucketGraad8
	case grade > 9 && grade < 9.5:
		return model.BucketGraad9
	default:
		return model.BucketGraadUnknown
	}
}

// Parsed bundles every field extracted from a single listing title.
type Parsed struct {
	IsLot      bool
	PriceEUR   *float64
	Language   model.Lang
	SetCode    string
	LocalID    string
	Bucket     model.Bucket
	Normalized string
}

// Parse runs every extractor over a raw title and returns the bundled
// result.
func Parse(rawTitle string) Parsed {
	normalized := normalize.Normalize(rawTitle)
	return Parsed{
		IsLot:      IsLikelyLot(normalized),
		PriceEUR:   ParseEURPrice(rawTitle),
		Language:   DetectLanguage(normalized),
		SetCode:    ExtractSetCode(normalized),
		LocalID:    ExtractLocalID(rawTitle),
		Bucket:     DetectGradingBucket(normalized),
		Normalized: normalized,
	}
}
