// Package model holds the catalog and sales domain types shared across the
// pipeline stages.
package model

import "fmt"

// Lang is the printing language of a Card, distinct from whichever name is
// displayed on it.
type Lang string

const (
	LangEN Lang = "en"
	LangJA Lang = "ja"
)

// Card is the canonical, one-per-printing catalog record.
type Card struct {
	ID           string `json:"id"`
	CardKey      string `json:"cardKey"`
	SetID        string `json:"setId"`
	SetName      string `json:"setName"`
	Number       string `json:"number"`
	NumberFull   string `json:"numberFull,omitempty"`
	PrintingLang Lang   `json:"lang"`
	Name         string `json:"name"`
	NameEN       string `json:"nameEn,omitempty"`
	NameJA       string `json:"nameJa,omitempty"`
	PokemonKey   string `json:"pokemonKey,omitempty"`
	Rarity       string `json:"rarity,omitempty"`
	Features     []string `json:"features,omitempty"`
	ImageLarge   string `json:"imageLarge,omitempty"`
}

// BuildCardKey returns the internal join key {setId}|{number}|{printingLang}.
func BuildCardKey(setID, number string, lang Lang) string {
	return fmt.Sprintf("%s|%s|%s", setID, number, lang)
}

// BuildCardID returns the stable deterministic catalog identifier
// {setId}-{number}-{normalized-preferred-name}-{printingLang}.
func BuildCardID(setID, number, normalizedPreferredName string, lang Lang) string {
	return fmt.Sprintf("%s-%s-%s-%s", setID, number, normalizedPreferredName, lang)
}
