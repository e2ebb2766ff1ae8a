package titleparse

import (
	"testing"

	"github.com/pkmgraad/pipeline/internal/model"
	"github.com/pkmgraad/pipeline/internal/normalize"
)

func TestIsLikelyLot(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Pokemon lot of 10 cards", true},
		{"bundle of rares", true},
		{"playset 4x", true},
		{"choose your card", true},
		{"seleziona la carta", true},
		{"5 cards mixed", true},
		{"5 carte miste", true},
		{"Charizard VMAX 074/073", false},
	}
	for _, c := range cases {
		got := IsLikelyLot(normalize.Normalize(c.title))
		if got != c.want {
			t.Errorf("IsLikelyLot(%q) = %v, want %v", c.title, got, c.want)
		}
	}
}

func TestParseEURPrice(t *testing.T) {
	cases := []struct {
		text string
		want *float64
	}{
		{"Charizard VMAX 45,50€", f(45.50)},
		{"Pikachu 1.200,00€ rare", f(1200.00)},
		{"Mewtwo 30 eur shipped", f(30)},
		{"no price here", nil},
	}
	for _, c := range cases {
		got := ParseEURPrice(c.text)
		if (got == nil) != (c.want == nil) {
			t.Errorf("ParseEURPrice(%q) = %v, want %v", c.text, got, c.want)
			continue
		}
		if got != nil && *got != *c.want {
			t.Errorf("ParseEURPrice(%q) = %v, want %v", c.text, *got, *c.want)
		}
	}
}

func TestDetectLanguage(t *testing.T) {
	if got := DetectLanguage(normalize.Normalize("Charizard JAP holo")); got != model.LangJA {
		t.Errorf("expected ja, got %q", got)
	}
	if got := DetectLanguage(normalize.Normalize("Charizard ENG holo")); got != model.LangEN {
		t.Errorf("expected en, got %q", got)
	}
	if got := DetectLanguage(normalize.Normalize("Charizard holo")); got != "" {
		t.Errorf("expected unspecified, got %q", got)
	}
}

func TestExtractSetCode(t *testing.T) {
	if got := ExtractSetCode(normalize.Normalize("Pikachu sv1a 001/165")); got != "sv1a" {
		t.Errorf("expected sv1a, got %q", got)
	}
	if got := ExtractSetCode(normalize.Normalize("Charizard no set code")); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

func TestExtractLocalID(t *testing.T) {
	if got := ExtractLocalID("Charizard 074/073"); got != "074" {
		t.Errorf("expected fraction numerator 074, got %q", got)
	}
	if got := ExtractLocalID("Pikachu SWSH290 promo"); got != "SWSH290" {
		t.Errorf("expected promo code SWSH290, got %q", got)
	}
	if got := ExtractLocalID("Mewtwo graad 9 045 rare"); got != "045" {
		t.Errorf("expected 045 after stripping graad token, got %q", got)
	}
	if got := ExtractLocalID("Mew 025 SV3.5 GRAAD 10"); got != "025" {
		t.Errorf("expected 025, not the set code SV3 or the grade 10, got %q", got)
	}
	if got := ExtractLocalID("pokemon graad 9.5 charizard"); got != "" {
		t.Errorf("expected empty (not 9 or 95), got %q", got)
	}
}

func TestDetectGradingBucket(t *testing.T) {
	cases := []struct {
		title string
		want  model.Bucket
	}{
		{"Charizard graad 10 psa", model.BucketGraad10},
		{"Charizard graad 9,5", model.BucketGraad95},
		{"Charizard graad 9", model.BucketGraad9},
		{"Charizard graad 7.5", model.BucketGraad7},
		{"Charizard graad 8.5", model.BucketGraad8},
		{"Charizard graad 9.2", model.BucketGraad9},
		{"Charizard raw no grade token", ""},
		{"Charizard graad weird", model.BucketGraadUnknown},
	}
	for _, c := range cases {
		got := DetectGradingBucket(normalize.Normalize(c.title))
		if got != c.want {
			t.Errorf("DetectGradingBucket(%q) = %q, want %q", c.title, got, c.want)
		}
	}
}

func TestParse_BundlesAllFields(t *testing.T) {
	p := Parse("Charizard VMAX 074/073 graad 9 JAP 45,50€")
	if p.IsLot {
		t.Error("expected not a lot")
	}
	if p.LocalID != "074" {
		t.Errorf("expected local id 074, got %q", p.LocalID)
	}
	if p.Bucket != model.BucketGraad9 {
		t.Errorf("expected graad_9, got %q", p.Bucket)
	}
	if p.Language != model.LangJA {
		t.Errorf("expected ja, got %q", p.Language)
	}
	if p.PriceEUR == nil || *p.PriceEUR != 45.50 {
		t.Errorf("expected price 45.50, got %v", p.PriceEUR)
	}
}

func f(v float64) *float64 { return &v }
