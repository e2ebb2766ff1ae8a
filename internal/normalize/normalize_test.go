package normalize

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"uppercase", "Charizard", "charizard"},
		{"accents", "Pokémon", "pokemon"},
		{"double accents", "Pokémon Café", "pokemon cafe"},
		{"collapses whitespace", "Mew   25  SV3.5", "mew 25 sv3.5"},
		{"trims", "  pikachu  ", "pikachu"},
		{"tabs and newlines", "pika\tchu\n v", "pika chu v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"", "Charizard ex 006/165 SV2A ENG", "Pokémon GRAAD 9.5", "  MIXED   Case Café  ",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: once=%q twice=%q", in, once, twice)
		}
	}
}

func TestNormalizeQueryLanguageAliases(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Meloetta 022/021 JAP", "meloetta 022/021 ja"},
		{"Charizard ex 006/165 SV2A ENG", "charizard ex 006/165 sv2a en"},
		{"pikachu jpn rare", "pikachu ja rare"},
		{"mew giapponese", "mew ja"},
		{"card inglese edition", "card en edition"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := NormalizeQuery(tt.input)
			if got != tt.expected {
				t.Errorf("NormalizeQuery(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestContainsJapanese(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"ピカチュウ", true},
		{"リザードン", true},
		{"Charizard", false},
		{"", false},
		{"Mix ピカ text", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ContainsJapanese(tt.input); got != tt.expected {
				t.Errorf("ContainsJapanese(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}
