package validate

import (
	"testing"

	"github.com/pkmgraad/pipeline/internal/errkind"
	"github.com/pkmgraad/pipeline/internal/model"
)

func cardsOf(total, english int) []model.Card {
	cards := make([]model.Card, 0, total)
	for i := 0; i < english; i++ {
		cards = append(cards, model.Card{PrintingLang: model.LangEN})
	}
	for i := english; i < total; i++ {
		cards = append(cards, model.Card{PrintingLang: model.LangJA})
	}
	return cards
}

func TestValidate_PassesAboveThresholds(t *testing.T) {
	result, err := Validate(cardsOf(13000, 9000), false, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Passed {
		t.Errorf("expected pass, got %+v", result)
	}
}

func TestValidate_NonStrictBelowThreshold_NoError(t *testing.T) {
	result, err := Validate(cardsOf(100, 50), false, 0, 0)
	if err != nil {
		t.Fatalf("non-strict mode must not return an error: %v", err)
	}
	if result.Passed {
		t.Errorf("expected failure result, got %+v", result)
	}
}

func TestValidate_StrictBelowThreshold_ReturnsError(t *testing.T) {
	_, err := Validate(cardsOf(100, 50), true, 0, 0)
	if err == nil {
		t.Fatal("expected error in strict mode")
	}
	var verr *errkind.Validation
	if !asValidation(err, &verr) {
		t.Errorf("expected *errkind.Validation, got %T", err)
	}
}

func TestValidate_EnglishOnlyThresholdViolation(t *testing.T) {
	result, err := Validate(cardsOf(13000, 100), false, 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Passed {
		t.Errorf("expected failure when english count below threshold despite total passing")
	}
}

func TestValidate_CustomThresholds(t *testing.T) {
	result, err := Validate(cardsOf(50, 20), true, 40, 10)
	if err != nil {
		t.Fatalf("unexpected error with custom thresholds: %v", err)
	}
	if !result.Passed {
		t.Errorf("expected pass against custom thresholds, got %+v", result)
	}
}

func asValidation(err error, target **errkind.Validation) bool {
	v, ok := err.(*errkind.Validation)
	if ok {
		*target = v
	}
	return ok
}
