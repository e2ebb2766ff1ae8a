// Package jpindex implements the Japanese HTML index adapter: it scrapes a
// set index page, then each set's card listing, to recover Japanese names,
// images, and detail URLs that the structured APIs don't expose for every
// printing.
package jpindex

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pkmgraad/pipeline/internal/catalog"
	"github.com/pkmgraad/pipeline/internal/httpfetch"
	"github.com/pkmgraad/pipeline/internal/model"
	"github.com/pkmgraad/pipeline/internal/normalize"
	"github.com/pkmgraad/pipeline/internal/ratelimit"
)

var (
	setLinkPattern  = regexp.MustCompile(`^/cards/jp/([A-Za-z0-9_-]+)$`)
	cardLinkPattern = regexp.MustCompile(`^/cards/jp/([A-Za-z0-9_-]+)/([A-Za-z0-9_-]+)$`)
	dexNumberPattern = regexp.MustCompile(`(?:National )?Pok[ée]dex[: #]?(\d+)`)
	imageLikePattern = regexp.MustCompile(`(?i)cards?|image|img`)
)

// Adapter scrapes the Japanese card index.
type Adapter struct {
	fetcher   *httpfetch.Fetcher
	baseURL   string
	limiter   *ratelimit.Limiter
	throttle  *ratelimit.Throttle
	setImages map[string]map[string]string // setId -> number -> image URL, built in bulk
}

func New(fetcher *httpfetch.Fetcher, baseURL string, limiter *ratelimit.Limiter, throttle *ratelimit.Throttle) *Adapter {
	return &Adapter{
		fetcher:   fetcher,
		baseURL:   strings.TrimRight(baseURL, "/"),
		limiter:   limiter,
		throttle:  throttle,
		setImages: make(map[string]map[string]string),
	}
}

// SeedSetImages installs the structured API's per-set image map, used to
// prefer an API-resolved image over the row's own scraped image.
func (a *Adapter) SeedSetImages(setID string, images map[string]string) {
	a.setImages[setID] = images
}

// Build scrapes the set index, then every set's listing, into partial
// catalog records.
func (a *Adapter) Build() (*catalog.SourceResult, error) {
	result := catalog.NewSourceResult()

	a.limiter.Wait()
	indexHTML, err := a.fetcher.FetchHTML(a.baseURL+"/cards/jp", nil)
	if err != nil {
		return nil, fmt.Errorf("jpindex: fetch set index: %w", err)
	}
	if indexHTML == "" {
		return result, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(indexHTML))
	if err != nil {
		return nil, fmt.Errorf("jpindex: parse set index: %w", err)
	}

	setIDs := map[string]bool{}
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if m := setLinkPattern.FindStringSubmatch(href); m != nil {
			setIDs[m[1]] = true
		}
	})

	for setID := range setIDs {
		if err := a.walkSet(setID, result); err != nil {
			return nil, fmt.Errorf("jpindex: walk set %s: %w", setID, err)
		}
		result.JapaneseExclusiveSets[setID] = true
		a.throttle.Tick()
	}

	return result, nil
}

func (a *Adapter) walkSet(setID string, result *catalog.SourceResult) error {
	a.limiter.Wait()
	listingURL := fmt.Sprintf("%s/cards/jp/%s", a.baseURL, setID)
	html, err := a.fetcher.FetchHTML(listingURL, nil)
	if err != nil {
		return err
	}
	if html == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}

	doc.Find("a[href]").Each(func(_ int, link *goquery.Selection) {
		href, _ := link.Attr("href")
		m := cardLinkPattern.FindStringSubmatch(href)
		if m == nil || m[1] != setID {
			return
		}
		number := m[2]

		row := link.Closest("tr")
		if row.Length() == 0 {
			row = link.Parent()
		}

		nameJA := firstJapaneseCandidate(link, row)
		imgSrc, _ := row.Find("img").Attr("src")

		rec := model.PartialRecord{
			SetID:       setID,
			Number:      number,
			NameJA:      nameJA,
			ImageLarge:  a.resolveImage(setID, number, imgSrc),
			FromIndex:   true,
			DetailURLJA: fmt.Sprintf("%s%s", a.baseURL, href),
		}
		result.Upsert(rec)
	})

	return nil
}

func (a *Adapter) resolveImage(setID, number, fallback string) string {
	if bySet, ok := a.setImages[setID]; ok {
		if img, ok := bySet[number]; ok && img != "" {
			return img
		}
	}
	return fallback
}

// firstJapaneseCandidate picks the first candidate among the link's title,
// aria-label, inner text, and the row's adjacent cell text that contains
// actual Japanese script; otherwise it falls back to the romanized text.
func firstJapaneseCandidate(link, row *goquery.Selection) string {
	candidates := []string{}
	if title, ok := link.Attr("title"); ok {
		candidates = append(candidates, title)
	}
	if aria, ok := link.Attr("aria-label"); ok {
		candidates = append(candidates, aria)
	}
	candidates = append(candidates, strings.TrimSpace(link.Text()))
	row.Find("td").Each(func(_ int, cell *goquery.Selection) {
		candidates = append(candidates, strings.TrimSpace(cell.Text()))
	})

	for _, c := range candidates {
		if c != "" && normalize.ContainsJapanese(c) {
			return c
		}
	}
	if len(candidates) > 0 {
		return candidates[0]
	}
	return ""
}

// FetchDetail scrapes a single Japanese card detail page for a name, dex
// number, and image.
func (a *Adapter) FetchDetail(url string) (catalog.CardDetail, bool, error) {
	a.limiter.Wait()
	html, err := a.fetcher.FetchHTML(url, nil)
	if err != nil {
		return catalog.CardDetail{}, false, err
	}
	if html == "" {
		return catalog.CardDetail{}, false, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return catalog.CardDetail{}, false, err
	}

	detail := catalog.CardDetail{}

	doc.Find("body *").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if s.Children().Length() > 0 {
			return true
		}
		text := strings.TrimSpace(s.Text())
		if text == "" || len(text) > 40 || !normalize.ContainsJapanese(text) {
			return true
		}
		detail.NameJA = text
		return false
	})

	bodyText := doc.Find("body").Text()
	if m := dexNumberPattern.FindStringSubmatch(bodyText); m != nil {
		var dex int
		fmt.Sscanf(m[1], "%d", &dex)
		if dex > 0 {
			detail.DexID = &dex
		}
	}

	if og, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok && og != "" {
		detail.ImageLarge = og
	} else {
		doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
			src, _ := img.Attr("src")
			if imageLikePattern.MatchString(src) {
				detail.ImageLarge = src
				return false
			}
			return true
		})
	}

	return detail, true, nil
}
