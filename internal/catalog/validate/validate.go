// Package validate implements a sanity check on the reconciled catalog's
// size before it overwrites the previously persisted one.
package validate

import (
	"fmt"
	"log"

	"github.com/pkmgraad/pipeline/internal/errkind"
	"github.com/pkmgraad/pipeline/internal/model"
)

// DefaultMinTotalCards and DefaultMinEnglishCards are the documented
// defaults, used when a caller passes zero for either threshold.
const (
	DefaultMinTotalCards   = 12000
	DefaultMinEnglishCards = 8000
)

// Result reports the counts the validator checked.
type Result struct {
	TotalCards   int
	EnglishCards int
	Passed       bool
}

// Validate checks cards against the given minimum-size thresholds (zero
// selects the package defaults). When the thresholds aren't met and
// strict is true, it returns a non-nil error wrapping *errkind.Validation;
// otherwise it logs the violation and returns a failing Result so the
// caller can retain its previous persisted catalog.
func Validate(cards []model.Card, strict bool, minTotalCards, minEnglishCards int) (Result, error) {
	if minTotalCards == 0 {
		minTotalCards = DefaultMinTotalCards
	}
	if minEnglishCards == 0 {
		minEnglishCards = DefaultMinEnglishCards
	}

	result := Result{TotalCards: len(cards)}
	for _, c := range cards {
		if c.PrintingLang == model.LangEN {
			result.EnglishCards++
		}
	}
	result.Passed = result.TotalCards >= minTotalCards && result.EnglishCards >= minEnglishCards

	if !result.Passed {
		underflow := fmt.Errorf("catalog below thresholds: total=%d (want >=%d), english=%d (want >=%d)",
			result.TotalCards, minTotalCards, result.EnglishCards, minEnglishCards)
		if strict {
			return result, &errkind.Validation{Err: underflow}
		}
		log.Printf("validate: %v, retaining previous catalog", underflow)
	}

	return result, nil
}
