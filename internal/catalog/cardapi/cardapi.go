// Package cardapi implements the English primary catalog adapter: a
// paginated card API filtered to the species type, with explicit
// hard-failure detection so the caller can fall back to the structured
// TCGdex adapter's English-only walk.
package cardapi

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkmgraad/pipeline/internal/catalog"
	"github.com/pkmgraad/pipeline/internal/httpfetch"
	"github.com/pkmgraad/pipeline/internal/model"
	"github.com/pkmgraad/pipeline/internal/normalize"
	"github.com/pkmgraad/pipeline/internal/ratelimit"
)

const pageSize = 250

// HardFailure reports an unrecoverable adapter condition: the caller must
// fall back to an alternate English source rather than retry.
type HardFailure struct {
	Reason string
}

func (e *HardFailure) Error() string { return "cardapi: hard failure: " + e.Reason }

// Adapter paginates the English card API.
type Adapter struct {
	fetcher *httpfetch.Fetcher
	baseURL string
	apiKey  string
	limiter *ratelimit.Limiter
}

func New(fetcher *httpfetch.Fetcher, baseURL, apiKey string, limiter *ratelimit.Limiter) *Adapter {
	return &Adapter{fetcher: fetcher, baseURL: baseURL, apiKey: apiKey, limiter: limiter}
}

type pageEnvelope struct {
	Data []cardRow `json:"data"`
	Page int       `json:"page"`
	Count int      `json:"count"`
	TotalCount int  `json:"totalCount"`
}

type cardRow struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Number string `json:"number"`
	Rarity string `json:"rarity"`
	Set    struct {
		ID string `json:"id"`
	} `json:"set"`
	NationalPokedexNumbers []int  `json:"nationalPokedexNumbers"`
	ImageLarge             string `json:"imageLarge"`
}

// Build paginates the card API and returns one English PartialRecord per
// row, or a *HardFailure when the API is unrecoverable.
func (a *Adapter) Build() (*catalog.SourceResult, error) {
	result := catalog.NewSourceResult()

	page := 1
	seen := 0
	for {
		a.limiter.Wait()

		q := url.QueryEscape("supertype:pokemon")
		reqURL := fmt.Sprintf("%s/cards?q=%s&pageSize=%d&page=%d", a.baseURL, q, pageSize, page)
		headers := map[string]string{}
		if a.apiKey != "" {
			headers["X-Api-Key"] = a.apiKey
		}

		var envelope pageEnvelope
		status, err := a.fetcher.FetchJSONIntoWithStatus(reqURL, headers, &envelope)
		if err != nil {
			return nil, err
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			return nil, &HardFailure{Reason: fmt.Sprintf("unrecoverable status %d", status)}
		}
		if status == 0 {
			return nil, &HardFailure{Reason: "exhausted retries with no response"}
		}
		if status/100 != 2 {
			return nil, &HardFailure{Reason: fmt.Sprintf("unexpected status %d", status)}
		}
		if len(envelope.Data) == 0 {
			if envelope.TotalCount > 0 && seen < envelope.TotalCount {
				return nil, &HardFailure{Reason: "empty data page with non-zero declared total"}
			}
			break
		}

		for _, row := range envelope.Data {
			rec := model.PartialRecord{
				SetID:       row.Set.ID,
				Number:      row.Number,
				NameEN:      row.Name,
				Rarity:      row.Rarity,
				ImageLarge:  row.ImageLarge,
				FromEN:      true,
				FromAPI:     true,
				DetailURLEN: fmt.Sprintf("%s/cards/%s", a.baseURL, row.ID),
			}
			if len(row.NationalPokedexNumbers) > 0 {
				dex := row.NationalPokedexNumbers[0]
				rec.DexID = &dex
			}
			rec.PokemonKey = PokemonKey(rec.DexID, row.Name)
			result.Upsert(rec)
		}

		seen += len(envelope.Data)
		if seen >= envelope.TotalCount {
			break
		}
		page++
	}

	return result, nil
}

// PokemonKey derives the cross-language species key for a row: the first
// national-dex number if present, else the normalized name.
func PokemonKey(dexID *int, name string) string {
	if dexID != nil {
		return fmt.Sprintf("dex:%d", *dexID)
	}
	return normalize.Normalize(name)
}

// FetchDetail implements catalog.DetailFetcher against a single card's API
// endpoint, used by the Reconciler's enrichment pass when an English row is
// missing an image or a dex id.
func (a *Adapter) FetchDetail(url string) (catalog.CardDetail, bool, error) {
	a.limiter.Wait()
	var env struct {
		Data cardRow `json:"data"`
	}
	ok, err := a.fetcher.FetchJSONInto(url, nil, &env)
	if err != nil || !ok {
		return catalog.CardDetail{}, false, err
	}

	var dex *int
	if len(env.Data.NationalPokedexNumbers) > 0 {
		d := env.Data.NationalPokedexNumbers[0]
		dex = &d
	}

	return catalog.CardDetail{
		DexID:      dex,
		NameEN:     env.Data.Name,
		ImageLarge: env.Data.ImageLarge,
	}, true, nil
}
