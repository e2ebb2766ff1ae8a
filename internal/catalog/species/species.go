// Package species talks to the paginated species API that backs the two
// enrichment caches: a per-id English-name lookup for
// internal/cache.DexCache, and a one-time paginated index walk that seeds
// internal/cache.JapaneseNameCache.
package species

import (
	"fmt"
	"strings"

	"github.com/pkmgraad/pipeline/internal/httpfetch"
	"github.com/pkmgraad/pipeline/internal/ratelimit"
)

const pageLimit = 100

// Client fetches species detail pages from the species API.
type Client struct {
	fetcher  *httpfetch.Fetcher
	baseURL  string
	limiter  *ratelimit.Limiter
	throttle *ratelimit.Throttle
}

func New(fetcher *httpfetch.Fetcher, baseURL string, limiter *ratelimit.Limiter, throttle *ratelimit.Throttle) *Client {
	return &Client{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/"), limiter: limiter, throttle: throttle}
}

type nameEntry struct {
	Language struct {
		Name string `json:"name"`
	} `json:"language"`
	Name string `json:"name"`
}

type speciesDetail struct {
	ID    int         `json:"id"`
	Name  string      `json:"name"`
	Names []nameEntry `json:"names"`
}

func (d speciesDetail) localizedName(lang string) string {
	for _, n := range d.Names {
		if n.Language.Name == lang {
			return n.Name
		}
	}
	return ""
}

// EnglishName implements internal/cache.DexResolver: it fetches
// /pokemon-species/{id}/ and returns the English-locale display name,
// falling back to the species' API slug if no English entry is present.
func (c *Client) EnglishName(dexID int) (string, error) {
	detail, ok, err := c.fetchDetail(fmt.Sprintf("%s/pokemon-species/%d/", c.baseURL, dexID))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("species: no detail for dex id %d", dexID)
	}
	if name := detail.localizedName("en"); name != "" {
		return name, nil
	}
	return detail.Name, nil
}

func (c *Client) fetchDetail(url string) (speciesDetail, bool, error) {
	c.limiter.Wait()
	var detail speciesDetail
	ok, err := c.fetcher.FetchJSONInto(url, nil, &detail)
	if c.throttle != nil {
		c.throttle.Tick()
	}
	return detail, ok, err
}

// SpeciesFound bundles one walked species record: its dex id, English name,
// and Japanese name (the ja-Hrkt entry, or the ja entry when ja-Hrkt is
// absent).
type SpeciesFound struct {
	DexID       int
	EnglishName string
	JapaneseName string
}

// WalkIndex pages through /pokemon-species once, fetching each species'
// detail and invoking onSpecies for entries that carry a Japanese name.
func (c *Client) WalkIndex(onSpecies func(SpeciesFound)) error {
	url := fmt.Sprintf("%s/pokemon-species?limit=%d&offset=0", c.baseURL, pageLimit)

	for url != "" {
		c.limiter.Wait()
		var page struct {
			Results []struct {
				URL string `json:"url"`
			} `json:"results"`
			Next string `json:"next"`
		}
		ok, err := c.fetcher.FetchJSONInto(url, nil, &page)
		if err != nil {
			return fmt.Errorf("species: walk index: %w", err)
		}
		if !ok {
			break
		}

		for _, result := range page.Results {
			detail, ok, err := c.fetchDetail(result.URL)
			if err != nil {
				return fmt.Errorf("species: fetch detail %s: %w", result.URL, err)
			}
			if !ok {
				continue
			}
			ja := detail.localizedName("ja-Hrkt")
			if ja == "" {
				ja = detail.localizedName("ja")
			}
			if ja == "" {
				continue
			}
			en := detail.localizedName("en")
			if en == "" {
				en = detail.Name
			}
			onSpecies(SpeciesFound{DexID: detail.ID, EnglishName: en, JapaneseName: ja})
		}

		url = page.Next
	}

	return nil
}
