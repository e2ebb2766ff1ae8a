// Package catalog holds the shared types the three source adapters, the
// reconciler, and the validator all depend on.
package catalog

import "github.com/pkmgraad/pipeline/internal/model"

// CardDetail is the per-card detail page/endpoint payload used by the
// Reconciler's enrichment pass to backfill an image or resolve a dex id.
type CardDetail struct {
	DexID      *int
	NameEN     string
	NameJA     string
	ImageLarge string
}

// DetailFetcher is implemented by each source adapter that can resolve a
// per-card detail page lazily, keyed by the URL stashed on a PartialRecord
// during the initial walk.
type DetailFetcher interface {
	FetchDetail(url string) (CardDetail, bool, error)
}

// SourceResult is what each catalog source adapter produces: a partial
// catalog plus the set of setIds observed as Japanese-exclusive (every set
// seen under a `ja` walk or on the Japanese index, whether or not it also
// appears in English), which the reconciler's language-inference rule
// treats as conclusive.
type SourceResult struct {
	Records               map[string]*model.PartialRecord // keyed by PartialRecord.Key()
	JapaneseExclusiveSets map[string]bool
}

// NewSourceResult returns an empty, ready-to-populate SourceResult.
func NewSourceResult() *SourceResult {
	return &SourceResult{
		Records:               make(map[string]*model.PartialRecord),
		JapaneseExclusiveSets: make(map[string]bool),
	}
}

// Upsert merges a PartialRecord into the result, applying first-seen
// per-field precedence via PartialRecord.MergeFrom.
func (r *SourceResult) Upsert(rec model.PartialRecord) {
	key := rec.Key()
	if existing, ok := r.Records[key]; ok {
		existing.MergeFrom(rec)
		return
	}
	copy := rec
	r.Records[key] = &copy
}

// MergeFrom folds other's records and Japanese-exclusive-set markers into
// r, used by the split strategy to combine the English-primary and
// Japanese-index adapters' independent walks into one aggregation map.
func (r *SourceResult) MergeFrom(other *SourceResult) {
	for _, rec := range other.Records {
		r.Upsert(*rec)
	}
	for setID := range other.JapaneseExclusiveSets {
		r.JapaneseExclusiveSets[setID] = true
	}
}
