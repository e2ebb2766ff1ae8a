package model

// PartialRecord is the aggregation unit the catalog adapters emit and the
// reconciler merges, one per (setId, number). Source records arrive as
// untyped bags from three different adapters; PartialRecord projects them
// into a small tagged structure so merge precedence is total and auditable
// (see the Reconciler's field-precedence rules).
type PartialRecord struct {
	SetID   string
	SetName string
	Number  string

	NameEN string
	NameJA string
	Rarity string
	Features   []string
	ImageLarge string

	// PokemonKey is the cross-language species key, resolved either from a
	// national-dex number or a normalized name (spec §4.4.2, §4.5.2).
	PokemonKey string

	// DexID is the national Pokédex number, when known from any source.
	DexID *int

	// DetailURLEN/DetailURLJA let the Reconciler fetch a per-language card
	// detail page lazily during enrichment, without re-deriving the URL.
	DetailURLEN string
	DetailURLJA string

	// Provenance flags record which adapters contributed to this record, so
	// precedence rules (first-seen-wins per field) are auditable.
	FromEN    bool
	FromJA    bool
	FromAPI   bool
	FromIndex bool

	// JapaneseExclusiveSet is set by the reconciler when this record's
	// inferred printing language is ja: its set is in a source's
	// Japanese-exclusive set list, or its set id has the Japanese set-id shape.
	JapaneseExclusiveSet bool
}

// Key returns the (setId, number) aggregation key.
func (p PartialRecord) Key() string {
	return p.SetID + "|" + p.Number
}

// MergeFrom folds other's fields into p using first-non-empty precedence,
// except name fields which are tracked per language independently.
func (p *PartialRecord) MergeFrom(other PartialRecord) {
	if p.SetName == "" && other.SetName != "" {
		p.SetName = other.SetName
	}
	if p.NameEN == "" && other.NameEN != "" {
		p.NameEN = other.NameEN
	}
	if p.NameJA == "" && other.NameJA != "" {
		p.NameJA = other.NameJA
	}
	if p.Rarity == "" && other.Rarity != "" {
		p.Rarity = other.Rarity
	}
	if len(p.Features) == 0 && len(other.Features) > 0 {
		p.Features = other.Features
	}
	if p.ImageLarge == "" && other.ImageLarge != "" {
		p.ImageLarge = other.ImageLarge
	}
	if p.PokemonKey == "" && other.PokemonKey != "" {
		p.PokemonKey = other.PokemonKey
	}
	if p.DexID == nil && other.DexID != nil {
		p.DexID = other.DexID
	}
	if p.DetailURLEN == "" && other.DetailURLEN != "" {
		p.DetailURLEN = other.DetailURLEN
	}
	if p.DetailURLJA == "" && other.DetailURLJA != "" {
		p.DetailURLJA = other.DetailURLJA
	}
	p.FromEN = p.FromEN || other.FromEN
	p.FromJA = p.FromJA || other.FromJA
	p.FromAPI = p.FromAPI || other.FromAPI
	p.FromIndex = p.FromIndex || other.FromIndex
	p.JapaneseExclusiveSet = p.JapaneseExclusiveSet || other.JapaneseExclusiveSet
}
