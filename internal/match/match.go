// Package match scores a parsed marketplace listing title against catalog
// candidates and returns the best match with a confidence score.
package match

import (
	"strings"

	"github.com/pkmgraad/pipeline/internal/model"
	"github.com/pkmgraad/pipeline/internal/normalize"
)

// Mode records which matching strategy produced a Result.
type Mode string

const (
	ModeNameOnly Mode = "name_only"
	ModeStrict   Mode = "strict"
	ModeLoose    Mode = "loose"
)

// AcceptanceThreshold is the minimum confidence downstream callers should
// require before treating a Result as a real match.
const AcceptanceThreshold = 0.72

// Query is the parsed-title input to the matcher.
type Query struct {
	NormalizedTitle string
	Language        model.Lang // observed or inferred; "" if unknown
	SetCode         string     // extracted set code; "" if none found
	LocalID         string     // extracted local id; "" triggers name-only mode
}

// Result is the matcher's output. Card is nil and Confidence is 0 when
// nothing matched.
type Result struct {
	Card       *model.Card
	Confidence float64
	Mode       Mode
}

// Match scores candidates against q and returns the best result.
func Match(q Query, candidates []model.Card) Result {
	if q.LocalID == "" {
		return matchNameOnly(q, candidates)
	}

	if r := matchStrict(q, candidates); r.Card != nil {
		return r
	}
	return matchLoose(q, candidates)
}

func matchNameOnly(q Query, candidates []model.Card) Result {
	var best *model.Card
	var bestConfidence float64

	for i, c := range candidates {
		if q.Language != "" && c.PrintingLang != q.Language {
			continue
		}
		if !titleContainsName(q.NormalizedTitle, c) {
			continue
		}

		confidence := 0.72
		if q.SetCode != "" && normalize.Normalize(c.SetID) == normalize.Normalize(q.SetCode) {
			confidence += 0.05
		}
		if q.Language != "" {
			confidence += 0.03
		}
		if confidence > 0.82 {
			confidence = 0.82
		}

		if isBetter(confidence, c.ImageLarge, bestConfidence, imageOf(best)) {
			best = &candidates[i]
			bestConfidence = confidence
		}
	}

	if best == nil {
		return Result{}
	}
	card := *best
	return Result{Card: &card, Confidence: bestConfidence, Mode: ModeNameOnly}
}

func matchStrict(q Query, candidates []model.Card) Result {
	var best *model.Card
	var bestConfidence float64

	for i, c := range candidates {
		// A title with no detected language imposes no language constraint;
		// one that does must equal the candidate's printing language.
		if q.Language != "" && c.PrintingLang != q.Language {
			continue
		}
		if q.SetCode != "" && normalize.Normalize(c.SetID) != normalize.Normalize(q.SetCode) {
			continue
		}
		if normalizeNumber(q.LocalID) != normalizeNumber(c.Number) {
			continue
		}
		if !titleContainsName(q.NormalizedTitle, c) {
			continue
		}

		confidence := 0.86
		if q.Language != "" {
			confidence += 0.04
		}
		if confidence > 1.0 {
			confidence = 1.0
		}

		if isBetter(confidence, c.ImageLarge, bestConfidence, imageOf(best)) {
			best = &candidates[i]
			bestConfidence = confidence
		}
	}

	if best == nil {
		return Result{}
	}
	card := *best
	return Result{Card: &card, Confidence: bestConfidence, Mode: ModeStrict}
}

func matchLoose(q Query, candidates []model.Card) Result {
	familyPrefix := ""
	if len(q.SetCode) >= 2 {
		familyPrefix = q.SetCode[:2]
	}

	var best *model.Card
	var bestConfidence float64
	var bestFamily bool

	for i, c := range candidates {
		if q.Language != "" && c.PrintingLang != q.Language {
			continue
		}
		if normalizeNumber(q.LocalID) != normalizeNumber(c.Number) {
			continue
		}
		if !titleContainsName(q.NormalizedTitle, c) {
			continue
		}

		confidence := 0.80
		if q.Language != "" {
			confidence += 0.05
		}
		if confidence > 0.90 {
			confidence = 0.90
		}
		family := familyPrefix != "" && strings.HasPrefix(normalize.Normalize(c.SetID), familyPrefix)

		switch {
		case best == nil:
			best, bestConfidence, bestFamily = &candidates[i], confidence, family
		case family && !bestFamily:
			best, bestConfidence, bestFamily = &candidates[i], confidence, family
		case family == bestFamily && isBetter(confidence, c.ImageLarge, bestConfidence, imageOf(best)):
			best, bestConfidence, bestFamily = &candidates[i], confidence, family
		}
	}

	if best == nil {
		return Result{}
	}
	card := *best
	return Result{Card: &card, Confidence: bestConfidence, Mode: ModeLoose}
}

func titleContainsName(normalizedTitle string, c model.Card) bool {
	if c.Name != "" && strings.Contains(normalizedTitle, normalize.Normalize(c.Name)) {
		return true
	}
	if c.NameEN != "" && strings.Contains(normalizedTitle, normalize.Normalize(c.NameEN)) {
		return true
	}
	return false
}

func normalizeNumber(number string) string {
	trimmed := strings.TrimLeft(number, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}

// isBetter reports whether a candidate with the given confidence/image
// should replace the current best, tie-breaking toward candidates with a
// non-empty imageLarge when confidences are equal.
func isBetter(confidence float64, image string, bestConfidence float64, bestImage string) bool {
	if confidence != bestConfidence {
		return confidence > bestConfidence
	}
	return image != "" && bestImage == ""
}

func imageOf(c *model.Card) string {
	if c == nil {
		return ""
	}
	return c.ImageLarge
}
