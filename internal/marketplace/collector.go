// Package marketplace implements the Marketplace Collector: it runs a
// fixed set of keyword queries against a sold/completed listings page,
// classifies and matches each row, and accumulates accepted Sales.
package marketplace

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/pkmgraad/pipeline/internal/httpfetch"
	"github.com/pkmgraad/pipeline/internal/match"
	"github.com/pkmgraad/pipeline/internal/model"
	"github.com/pkmgraad/pipeline/internal/normalize"
	"github.com/pkmgraad/pipeline/internal/ratelimit"
	"github.com/pkmgraad/pipeline/internal/titleparse"
)

// DefaultPages is the default number of result pages requested per query.
const DefaultPages = 2

// Query is one configured keyword search.
type Query struct {
	Keywords   string
	GradedOnly bool
}

// Config configures the collector's source and query list.
type Config struct {
	BaseURL  string
	Category string
	Source   string // recorded on each Sale
	Queries  []Query
	Pages    int // 0 defaults to DefaultPages

	// Threshold is the minimum match confidence required to accept a sale.
	// 0 defaults to match.AcceptanceThreshold.
	Threshold float64
}

// Collector runs the configured queries and matches resulting listings
// against a catalog.
type Collector struct {
	fetcher *httpfetch.Fetcher
	limiter *ratelimit.Limiter
	cfg     Config
}

func New(fetcher *httpfetch.Fetcher, limiter *ratelimit.Limiter, cfg Config) *Collector {
	if cfg.Pages == 0 {
		cfg.Pages = DefaultPages
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = match.AcceptanceThreshold
	}
	return &Collector{fetcher: fetcher, limiter: limiter, cfg: cfg}
}

// Collect runs every configured query against candidates and returns the
// accepted Sales. It never returns a fatal error for an unreachable page —
// network misses are logged and skipped.
func (c *Collector) Collect(candidates []model.Card) ([]model.Sale, error) {
	var sales []model.Sale

	for _, q := range c.cfg.Queries {
		for page := 1; page <= c.cfg.Pages; page++ {
			c.limiter.Wait()

			html, err := c.fetcher.FetchHTML(c.searchURL(q, page), nil)
			if err != nil {
				return nil, fmt.Errorf("marketplace: fetch query %q page %d: %w", q.Keywords, page, err)
			}
			if html == "" {
				log.Printf("marketplace: no listings returned for %q page %d", q.Keywords, page)
				continue
			}

			items, err := parseListings(html)
			if err != nil {
				return nil, fmt.Errorf("marketplace: parse query %q page %d: %w", q.Keywords, page, err)
			}

			for _, item := range items {
				sale, ok := c.classifyAndMatch(q, item, candidates)
				if ok {
					sales = append(sales, sale)
				}
			}
		}
	}

	return sales, nil
}

// searchURL builds the sold/completed-listings query: _nkw, LH_Sold=1,
// LH_Complete=1, rt=nc, _pgn, _sacat=<category>, and LH_ItemCondition=2750
// when the query is graded-only.
func (c *Collector) searchURL(q Query, page int) string {
	params := url.Values{}
	params.Set("_nkw", q.Keywords)
	params.Set("_sacat", c.cfg.Category)
	params.Set("_pgn", fmt.Sprintf("%d", page))
	params.Set("LH_Sold", "1")
	params.Set("LH_Complete", "1")
	params.Set("rt", "nc")
	if q.GradedOnly {
		params.Set("LH_ItemCondition", "2750")
	}
	return fmt.Sprintf("%s?%s", strings.TrimRight(c.cfg.BaseURL, "/"), params.Encode())
}

func (c *Collector) classifyAndMatch(q Query, item listingItem, candidates []model.Card) (model.Sale, bool) {
	parsed := titleparse.Parse(item.Title)
	if parsed.IsLot {
		return model.Sale{}, false
	}

	bucket := parsed.Bucket
	if bucket == model.BucketGraadUnknown {
		return model.Sale{}, false
	}
	if q.GradedOnly && bucket == "" {
		return model.Sale{}, false
	}
	if bucket == "" {
		bucket = model.BucketRaw
	}

	price := item.Price
	if price == nil {
		price = titleparse.ParseEURPrice(item.Title)
	}
	if price == nil {
		return model.Sale{}, false
	}

	mq := match.Query{
		NormalizedTitle: normalize.Normalize(item.Title),
		Language:        parsed.Language,
		SetCode:         parsed.SetCode,
		LocalID:         parsed.LocalID,
	}
	result := match.Match(mq, candidates)
	if result.Card == nil || result.Confidence < c.cfg.Threshold {
		return model.Sale{}, false
	}

	return model.Sale{
		CollectedAt: time.Now().UTC(),
		Source:      c.cfg.Source,
		Title:       item.Title,
		URL:         item.URL,
		PriceEUR:    *price,
		CardID:      result.Card.ID,
		Bucket:      bucket,
	}, true
}

type listingItem struct {
	Title string
	URL   string
	Price *float64
}

// parseListings scrapes listing rows out of a search results page using a
// goquery row-then-cell traversal.
func parseListings(html string) ([]listingItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var items []listingItem
	doc.Find(".listing-item, li.s-item").Each(func(_ int, s *goquery.Selection) {
		titleSel := s.Find(".listing-title, .s-item__title").First()
		title := strings.TrimSpace(titleSel.Text())
		if title == "" {
			return
		}

		linkSel := s.Find("a").First()
		href, _ := linkSel.Attr("href")

		priceText := strings.TrimSpace(s.Find(".listing-price, .s-item__price").First().Text())
		var price *float64
		if priceText != "" {
			price = titleparse.ParseEURPrice(priceText)
		}

		items = append(items, listingItem{Title: title, URL: href, Price: price})
	})

	return items, nil
}
