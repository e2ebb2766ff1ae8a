// Package tcgdex implements the dual-language structured catalog adapter:
// it walks a set-and-card JSON API in both "en" and "ja" and accumulates
// partial catalog records keyed by (setId, number).
package tcgdex

import (
	"fmt"
	"log"
	"strings"

	"github.com/pkmgraad/pipeline/internal/catalog"
	"github.com/pkmgraad/pipeline/internal/httpfetch"
	"github.com/pkmgraad/pipeline/internal/model"
	"github.com/pkmgraad/pipeline/internal/normalize"
	"github.com/pkmgraad/pipeline/internal/ratelimit"
)

// ExcludedSubSeries lists the exact set ids of pocket-edition printings that
// this catalog deliberately omits (they use a disjoint numbering scheme and
// aren't sold in the tracked marketplaces).
var ExcludedSubSeries = map[string]bool{
	"pk-promo-a": true,
	"pk-a1":      true,
	"pk-a1a":     true,
	"pk-a2":      true,
	"pk-a2a":     true,
	"pk-a2b":     true,
	"pk-a3":      true,
}

// Adapter walks the structured card API for both languages.
type Adapter struct {
	fetcher  *httpfetch.Fetcher
	baseURL  string
	limiter  *ratelimit.Limiter
	throttle *ratelimit.Throttle
}

func New(fetcher *httpfetch.Fetcher, baseURL string, limiter *ratelimit.Limiter, throttle *ratelimit.Throttle) *Adapter {
	return &Adapter{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/"), limiter: limiter, throttle: throttle}
}

type setListEnvelope struct {
	Data []setSummary `json:"data"`
}

type setSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type setDetailEnvelope struct {
	Data setDetail `json:"data"`
}

type setDetail struct {
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Cards []apiCardRow `json:"cards"`
}

type apiCardRow struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	LocalID  string   `json:"localId"`
	Image    string   `json:"image"`
	Rarity   string   `json:"rarity"`
	DexID    []int    `json:"dexId"`
	Features []string `json:"features"`
}

// Build walks sets then cards for both "en" and "ja" and returns the merged
// partial catalog.
func (a *Adapter) Build() (*catalog.SourceResult, error) {
	result := catalog.NewSourceResult()

	for _, lang := range []string{"en", "ja"} {
		if err := a.walkLang(lang, result); err != nil {
			return nil, fmt.Errorf("tcgdex: walk %s: %w", lang, err)
		}
	}

	return result, nil
}

// BuildLang restricts the walk to a single language — used by the English
// fallback when the primary card API is unavailable.
func (a *Adapter) BuildLang(lang string) (*catalog.SourceResult, error) {
	result := catalog.NewSourceResult()
	if err := a.walkLang(lang, result); err != nil {
		return nil, fmt.Errorf("tcgdex: walk %s: %w", lang, err)
	}
	return result, nil
}

func (a *Adapter) walkLang(lang string, result *catalog.SourceResult) error {
	a.limiter.Wait()
	var sets setListEnvelope
	ok, err := a.fetcher.FetchJSONInto(fmt.Sprintf("%s/%s/sets", a.baseURL, lang), nil, &sets)
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("tcgdex: no sets returned for lang %s", lang)
		return nil
	}

	for _, s := range sets.Data {
		if ExcludedSubSeries[s.ID] {
			continue
		}

		a.limiter.Wait()
		var detail setDetailEnvelope
		ok, err := a.fetcher.FetchJSONInto(fmt.Sprintf("%s/%s/sets/%s", a.baseURL, lang, s.ID), nil, &detail)
		if err != nil {
			return err
		}
		a.throttle.Tick()
		if !ok {
			continue
		}

		if lang == "ja" {
			result.JapaneseExclusiveSets[s.ID] = true
		}

		for _, c := range detail.Data.Cards {
			rec := model.PartialRecord{
				SetID:      s.ID,
				SetName:    detail.Data.Name,
				Number:     c.LocalID,
				Rarity:     c.Rarity,
				Features:   c.Features,
				ImageLarge: c.Image,
				FromAPI:    true,
			}
			if len(c.DexID) > 0 {
				dex := c.DexID[0]
				rec.DexID = &dex
			}
			name := strings.TrimSpace(c.Name)
			if lang == "en" {
				rec.NameEN = name
				rec.DetailURLEN = fmt.Sprintf("%s/%s/cards/%s", a.baseURL, lang, c.ID)
			} else {
				rec.NameJA = name
				rec.DetailURLJA = fmt.Sprintf("%s/%s/cards/%s", a.baseURL, lang, c.ID)
			}
			result.Upsert(rec)
		}
	}

	return nil
}

// FetchDetail implements catalog.DetailFetcher against a single card's
// structured API endpoint.
func (a *Adapter) FetchDetail(url string) (catalog.CardDetail, bool, error) {
	a.limiter.Wait()
	var env setDetailCardEnvelope
	ok, err := a.fetcher.FetchJSONInto(url, nil, &env)
	if err != nil || !ok {
		return catalog.CardDetail{}, false, err
	}

	var dex *int
	if len(env.Data.DexID) > 0 {
		d := env.Data.DexID[0]
		dex = &d
	}

	detail := catalog.CardDetail{
		DexID:      dex,
		ImageLarge: env.Data.Image,
	}
	if normalize.ContainsJapanese(env.Data.Name) {
		detail.NameJA = env.Data.Name
	} else {
		detail.NameEN = env.Data.Name
	}
	return detail, true, nil
}

type setDetailCardEnvelope struct {
	Data apiCardRow `json:"data"`
}
