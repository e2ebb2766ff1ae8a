// Package reconcile turns the aggregated partial records the source
// adapters produce into the final sequence of Card records, inferring each
// record's printing language, enriching missing cross-language fields, and
// exploding each record into one or two language-specific printings.
package reconcile

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/pkmgraad/pipeline/internal/cache"
	"github.com/pkmgraad/pipeline/internal/catalog"
	"github.com/pkmgraad/pipeline/internal/concurrent"
	"github.com/pkmgraad/pipeline/internal/errkind"
	"github.com/pkmgraad/pipeline/internal/model"
	"github.com/pkmgraad/pipeline/internal/normalize"
	"github.com/pkmgraad/pipeline/internal/ratelimit"
)

var japaneseSetPattern = regexp.MustCompile(`^(sv|s|sm|bw|xy)\d{1,3}a$`)

// Config toggles the Reconciler's optional behaviors.
type Config struct {
	// EnableEnglishLinkage turns on step 3 of the enrichment pass — fetching
	// an English card detail to resolve pokemonKey for non-Japanese records.
	// Off by default: most English rows already carry a dex id from the
	// card API, so this is only needed when they don't.
	EnableEnglishLinkage bool

	// Workers bounds how many records are enriched concurrently. Zero uses
	// concurrent.DefaultWorkers.
	Workers int
}

// Reconciler merges partial records into final Card printings.
type Reconciler struct {
	enDetail    catalog.DetailFetcher
	jaDetail    catalog.DetailFetcher
	dexCache    *cache.DexCache
	jaNameCache *cache.JapaneseNameCache
	throttle    *ratelimit.Throttle
	cfg         Config
	pool        *concurrent.Pool
}

func New(enDetail, jaDetail catalog.DetailFetcher, dexCache *cache.DexCache, jaNameCache *cache.JapaneseNameCache, throttle *ratelimit.Throttle, cfg Config) *Reconciler {
	return &Reconciler{
		enDetail:    enDetail,
		jaDetail:    jaDetail,
		dexCache:    dexCache,
		jaNameCache: jaNameCache,
		throttle:    throttle,
		cfg:         cfg,
		pool:        concurrent.New(cfg.Workers),
	}
}

// inferredLang derives a record's printing language from its set id alone,
// before any enrichment or name data is available.
func inferredLang(setID string, japaneseExclusiveSets map[string]bool) model.Lang {
	if japaneseExclusiveSets[setID] {
		return model.LangJA
	}
	if japaneseSetPattern.MatchString(setID) {
		return model.LangJA
	}
	return ""
}

// Reconcile runs the enrichment pass and explosion over every aggregated
// record and returns the final Card sequence. Enrichment (the network-bound
// step) runs with bounded parallelism across records; explosion into final
// Cards stays sequential and runs in a fixed, sorted record-key order so
// the output is deterministic across runs.
func (r *Reconciler) Reconcile(records map[string]*model.PartialRecord, japaneseExclusiveSets map[string]bool) ([]model.Card, error) {
	keys := make([]string, 0, len(records))
	for key := range records {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	recs := make([]*model.PartialRecord, len(keys))
	langs := make([]model.Lang, len(keys))
	for i, key := range keys {
		rec := records[key]
		// Every adapter aggregates by rec.Key() (setId|number), so a record
		// reachable under a map key must carry both components; anything
		// else means an adapter violated its own contract.
		if rec.SetID == "" || rec.Number == "" {
			return nil, &errkind.Programmer{Detail: fmt.Sprintf("record %q missing setId or number", key)}
		}
		lang := inferredLang(rec.SetID, japaneseExclusiveSets)
		rec.JapaneseExclusiveSet = lang == model.LangJA
		recs[i] = rec
		langs[i] = lang
	}

	jobs := make([]concurrent.Job, len(recs))
	for i := range recs {
		i := i
		jobs[i] = func() (interface{}, error) {
			return nil, r.enrich(recs[i], langs[i])
		}
	}
	_, errs := r.pool.RunErr(context.Background(), jobs)
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("reconcile %s: %w", recs[i].Key(), err)
		}
	}

	out := make([]model.Card, 0, len(recs)*2)
	for i, rec := range recs {
		out = append(out, explode(rec, langs[i])...)
	}
	return out, nil
}

func (r *Reconciler) enrich(rec *model.PartialRecord, lang model.Lang) error {
	// 1. Image backfill.
	if rec.ImageLarge == "" {
		if rec.DetailURLEN != "" {
			if d, ok, err := r.fetchDetail(r.enDetail, rec.DetailURLEN); err != nil {
				return err
			} else if ok && d.ImageLarge != "" {
				rec.ImageLarge = d.ImageLarge
			}
		} else if rec.DetailURLJA != "" {
			if d, ok, err := r.fetchDetail(r.jaDetail, rec.DetailURLJA); err != nil {
				return err
			} else if ok && d.ImageLarge != "" {
				rec.ImageLarge = d.ImageLarge
			}
		}
	}

	// 2. Japanese -> English linkage. The species-name map is built once
	// (WalkIndex) precisely so this lookup can be tried before paying for a
	// per-card detail fetch; only fall through to the network when it misses.
	if lang == model.LangJA && (rec.NameEN == "" || rec.PokemonKey == "") && rec.DetailURLJA != "" {
		resolved := false
		if r.jaNameCache != nil && rec.NameJA != "" && normalize.ContainsJapanese(rec.NameJA) {
			if species, found, err := r.jaNameCache.Get(rec.NameJA); err == nil && found {
				if rec.NameEN == "" {
					rec.NameEN = species.EnglishName
				}
				if rec.PokemonKey == "" {
					rec.PokemonKey = fmt.Sprintf("dex:%d", species.DexID)
				}
				resolved = true
			}
		}

		if !resolved {
			d, ok, err := r.fetchDetail(r.jaDetail, rec.DetailURLJA)
			if err != nil {
				return err
			}
			if ok {
				// A romanized placeholder name is replaced by the detail
				// page's Japanese-script name once the fetch resolves it.
				if d.NameJA != "" && !normalize.ContainsJapanese(rec.NameJA) {
					rec.NameJA = d.NameJA
				}
				if d.DexID != nil && r.dexCache != nil {
					if enName, err := r.dexCache.Get(*d.DexID); err == nil && enName != "" {
						if rec.NameEN == "" {
							rec.NameEN = enName
						}
						if rec.PokemonKey == "" {
							rec.PokemonKey = fmt.Sprintf("dex:%d", *d.DexID)
						}
					}
				} else if r.jaNameCache != nil {
					lookupName := rec.NameJA
					if lookupName == "" {
						lookupName = d.NameJA
					}
					if lookupName != "" {
						if species, found, err := r.jaNameCache.Get(lookupName); err == nil && found {
							if rec.NameEN == "" {
								rec.NameEN = species.EnglishName
							}
							if rec.PokemonKey == "" {
								rec.PokemonKey = fmt.Sprintf("dex:%d", species.DexID)
							}
						}
					}
				}
			}
		}
	}

	// 3. Optional English linkage.
	if r.cfg.EnableEnglishLinkage && lang != model.LangJA && rec.PokemonKey == "" && rec.DetailURLEN != "" {
		d, ok, err := r.fetchDetail(r.enDetail, rec.DetailURLEN)
		if err != nil {
			return err
		}
		if ok && d.DexID != nil {
			rec.PokemonKey = fmt.Sprintf("dex:%d", *d.DexID)
		}
	}

	return nil
}

// fetchDetail calls the fetcher and applies the §4.5 throttle floor: every
// detail fetch ticks r.throttle, which counts the ticks itself and pauses
// once per its configured interval (every 40 fetches as the Driver wires
// it). Throttle is safe for the bounded worker pool's concurrent callers.
func (r *Reconciler) fetchDetail(fetcher catalog.DetailFetcher, url string) (catalog.CardDetail, bool, error) {
	if fetcher == nil || url == "" {
		return catalog.CardDetail{}, false, nil
	}

	if r.throttle != nil {
		r.throttle.Tick()
	}
	return fetcher.FetchDetail(url)
}

// explode turns one record into its final language-specific Card printings.
func explode(rec *model.PartialRecord, lang model.Lang) []model.Card {
	if lang == model.LangJA {
		name := rec.NameJA
		if name == "" {
			name = rec.NameEN
		}
		if name == "" {
			return nil
		}
		return []model.Card{newCard(rec, model.LangJA, name)}
	}

	var cards []model.Card
	if rec.NameEN != "" {
		cards = append(cards, newCard(rec, model.LangEN, rec.NameEN))
	}
	if rec.NameJA != "" {
		cards = append(cards, newCard(rec, model.LangJA, rec.NameJA))
	}
	return cards
}

func newCard(rec *model.PartialRecord, lang model.Lang, displayName string) model.Card {
	preferredName := rec.NameEN
	if preferredName == "" {
		preferredName = displayName
	}
	normalizedPreferred := normalize.Normalize(preferredName)

	return model.Card{
		ID:           model.BuildCardID(rec.SetID, rec.Number, normalizedPreferred, lang),
		CardKey:      model.BuildCardKey(rec.SetID, rec.Number, lang),
		SetID:        rec.SetID,
		SetName:      rec.SetName,
		Number:       rec.Number,
		PrintingLang: lang,
		Name:         displayName,
		NameEN:       rec.NameEN,
		NameJA:       rec.NameJA,
		PokemonKey:   rec.PokemonKey,
		Rarity:       rec.Rarity,
		Features:     rec.Features,
		ImageLarge:   rec.ImageLarge,
	}
}
