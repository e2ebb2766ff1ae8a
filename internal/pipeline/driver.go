// Package pipeline implements the Pipeline Driver: it sequences the
// catalog build/validate/persist phases, the sales collect and
// load/prune/merge/persist phases, and the final aggregation, wiring every other package together
// for one end-to-end run.
package pipeline

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkmgraad/pipeline/internal/aggregate"
	"github.com/pkmgraad/pipeline/internal/cache"
	"github.com/pkmgraad/pipeline/internal/catalog"
	"github.com/pkmgraad/pipeline/internal/catalog/cardapi"
	"github.com/pkmgraad/pipeline/internal/catalog/jpindex"
	"github.com/pkmgraad/pipeline/internal/catalog/reconcile"
	"github.com/pkmgraad/pipeline/internal/catalog/species"
	"github.com/pkmgraad/pipeline/internal/catalog/tcgdex"
	"github.com/pkmgraad/pipeline/internal/catalog/validate"
	"github.com/pkmgraad/pipeline/internal/config"
	"github.com/pkmgraad/pipeline/internal/errkind"
	"github.com/pkmgraad/pipeline/internal/httpfetch"
	"github.com/pkmgraad/pipeline/internal/marketplace"
	"github.com/pkmgraad/pipeline/internal/model"
	"github.com/pkmgraad/pipeline/internal/normalize"
	"github.com/pkmgraad/pipeline/internal/ratelimit"
	"github.com/pkmgraad/pipeline/internal/saleswindow"
)

// Driver owns every dependency the pipeline phases share and runs them in
// sequence: catalog build (or load) -> validate -> persist -> collect ->
// sales load+prune+merge+persist -> aggregate -> prices and metadata
// persist.
type Driver struct {
	cfg      config.Config
	fetcher  *httpfetch.Fetcher
	limiters *ratelimit.RateLimiterConfig

	bulkThrottle   *ratelimit.Throttle
	detailThrottle *ratelimit.Throttle

	dexStore     *cache.Cache
	jaNameStore  *cache.Cache
	dexCache     *cache.DexCache
	jaNameCache  *cache.JapaneseNameCache
	speciesClient *species.Client

	salesStore *saleswindow.Store
}

// New wires every dependency from cfg: the shared fetcher, per-host rate
// limiters, the throttle floors used for bulk/detail pacing, and the two
// read-through species caches backed by on-disk JSON stores under
// cfg.CacheDir.
func New(cfg config.Config) (*Driver, error) {
	fetcher := httpfetch.New(httpfetch.Config{})
	limiters := ratelimit.NewDefaultRateLimiters()

	dexStore, err := cache.New(filepath.Join(cfg.CacheDir, "dex_to_english.json"))
	if err != nil {
		return nil, fmt.Errorf("open dex cache: %w", err)
	}
	jaNameStore, err := cache.New(filepath.Join(cfg.CacheDir, "japanese_name_to_species.json"))
	if err != nil {
		return nil, fmt.Errorf("open japanese-name cache: %w", err)
	}

	speciesClient := species.New(fetcher, cfg.SpeciesAPIBaseURL, limiters.SpeciesAPI, ratelimit.NewThrottle(45, 600*time.Millisecond))

	dexCache := cache.NewDexCache(dexStore, speciesClient.EnglishName)
	// No JapaneseResolver is wired: this cache is built once by walking the
	// paginated species index (see buildJapaneseNameCache below); there is
	// no per-name lookup endpoint to fall back to on a live miss, so Get()
	// degrades to "not found" until the next index walk.
	jaNameCache := cache.NewJapaneseNameCache(jaNameStore, nil)

	salesCache, err := cache.New(filepath.Join(cfg.CacheDir, "sales_window.json"))
	if err != nil {
		return nil, fmt.Errorf("open sales cache: %w", err)
	}

	window := saleswindow.DefaultWindow
	if cfg.DaysWindow > 0 {
		window = time.Duration(cfg.DaysWindow) * 24 * time.Hour
	}

	return &Driver{
		cfg:            cfg,
		fetcher:        fetcher,
		limiters:       limiters,
		bulkThrottle:   ratelimit.NewThrottle(9, 250*time.Millisecond),
		detailThrottle: ratelimit.NewThrottle(40, 700*time.Millisecond),
		dexStore:       dexStore,
		jaNameStore:    jaNameStore,
		dexCache:       dexCache,
		jaNameCache:    jaNameCache,
		speciesClient:  speciesClient,
		salesStore:     saleswindow.NewWithWindow(salesCache, window),
	}, nil
}

// Run executes every phase of one pipeline invocation. now is threaded
// through explicitly (rather than read from time.Now())
// so a caller can reproduce a run deterministically.
func (d *Driver) Run(now time.Time) error {
	cards, err := d.catalogPhase()
	if err != nil {
		return err
	}

	if err := d.persistCatalog(cards); err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}

	collector := marketplace.New(d.fetcher, d.limiters.Marketplace, marketplace.Config{
		BaseURL:   d.cfg.MarketplaceBaseURL,
		Category:  d.cfg.MarketplaceCategory,
		Source:    "marketplace",
		Queries:   marketplace.DefaultQueries,
		Pages:     d.cfg.PagesPerQuery,
		Threshold: d.cfg.ConfidenceThreshold,
	})
	newSales, err := collector.Collect(cards)
	if err != nil {
		return fmt.Errorf("collect marketplace sales: %w", err)
	}
	// collectedAt is an ISO-8601 instant truncated to seconds, Z-suffixed —
	// the collector stamps with collection time, not any date parsed out of
	// the listing itself.
	collectedAt := now.UTC().Truncate(time.Second)
	for i := range newSales {
		newSales[i].CollectedAt = collectedAt
	}

	merged, err := d.salesStore.Reconcile(newSales, now)
	if err != nil {
		return fmt.Errorf("reconcile sales window: %w", err)
	}
	if err := d.persistSalesArtifact(merged); err != nil {
		return fmt.Errorf("persist sales artifact: %w", err)
	}

	aggregated := aggregate.Aggregate(merged)
	if err := d.persistPrices(aggregated); err != nil {
		return fmt.Errorf("persist prices: %w", err)
	}
	if err := d.persistMeta(now); err != nil {
		return fmt.Errorf("persist meta: %w", err)
	}

	return nil
}

// catalogPhase implements the "catalog build (or load if skip-mode and
// cache non-empty) -> catalog validate" portion of the pipeline.
func (d *Driver) catalogPhase() ([]model.Card, error) {
	if d.cfg.SkipCatalog {
		if existing, ok, err := d.loadCatalogArtifact(); err != nil {
			return nil, fmt.Errorf("load persisted catalog: %w", err)
		} else if ok && len(existing) > 0 {
			log.Printf("pipeline: skipCatalog set, reusing %d persisted cards", len(existing))
			return existing, nil
		}
		log.Printf("pipeline: skipCatalog set but no persisted catalog found, building fresh")
	}

	cards, err := d.buildCatalog()
	if err != nil {
		var sourceFatal *errkind.SourceFatal
		if !asSourceFatal(err, &sourceFatal) {
			return nil, fmt.Errorf("build catalog: %w", err)
		}
		log.Printf("pipeline: catalog build hit an unrecoverable source failure: %v", sourceFatal)
	}

	result, err := validate.Validate(cards, d.cfg.StrictCatalog, d.cfg.MinCatalogCards, d.cfg.MinEnglishCards)
	if err != nil {
		return nil, err
	}
	if !result.Passed {
		if existing, ok, loadErr := d.loadCatalogArtifact(); loadErr == nil && ok && len(existing) > 0 {
			return existing, nil
		}
		return cards, nil
	}
	return cards, nil
}

func asSourceFatal(err error, target **errkind.SourceFatal) bool {
	v, ok := err.(*errkind.SourceFatal)
	if ok {
		*target = v
	}
	return ok
}

// buildCatalog runs the configured catalog strategy and the Reconciler over
// its output.
func (d *Driver) buildCatalog() ([]model.Card, error) {
	var result *catalog.SourceResult
	var enDetail, jaDetail catalog.DetailFetcher

	switch d.cfg.CatalogStrategy {
	case config.StrategySplit:
		r, enFetcher, jaFetcher, err := d.buildSplitCatalog()
		if err != nil {
			return nil, err
		}
		result, enDetail, jaDetail = r, enFetcher, jaFetcher
	default:
		adapter := tcgdex.New(d.fetcher, d.cfg.TCGdexBaseURL, d.limiters.TCGdex, d.bulkThrottle)
		r, err := adapter.Build()
		if err != nil {
			return nil, fmt.Errorf("tcgdex: %w", err)
		}
		result, enDetail, jaDetail = r, adapter, adapter
	}

	if d.jaNameCache.NeedsBuild() {
		if err := d.buildJapaneseNameCache(); err != nil {
			log.Printf("pipeline: species index walk failed, continuing without it: %v", err)
		}
	}

	reconciler := reconcile.New(enDetail, jaDetail, d.dexCache, d.jaNameCache, d.detailThrottle, reconcile.Config{
		EnableEnglishLinkage: d.cfg.EnrichEnglishPokemonKey,
	})
	return reconciler.Reconcile(result.Records, result.JapaneseExclusiveSets)
}

// buildSplitCatalog implements the "split" strategy: the English primary
// adapter (falling back to TCGdex's English-only walk on hard failure)
// merged with the Japanese HTML index adapter, seeded with the structured
// API's per-set Japanese images so the scraped adapter prefers them.
func (d *Driver) buildSplitCatalog() (*catalog.SourceResult, catalog.DetailFetcher, catalog.DetailFetcher, error) {
	tcgdexAdapter := tcgdex.New(d.fetcher, d.cfg.TCGdexBaseURL, d.limiters.TCGdex, d.bulkThrottle)

	jaStructured, err := tcgdexAdapter.BuildLang("ja")
	if err != nil {
		return nil, nil, nil, fmt.Errorf("tcgdex ja image seed: %w", err)
	}

	jpAdapter := jpindex.New(d.fetcher, d.cfg.JPIndexBaseURL, d.limiters.Marketplace, d.bulkThrottle)
	for setID, images := range setImageMap(jaStructured) {
		jpAdapter.SeedSetImages(setID, images)
	}

	jpResult, err := jpAdapter.Build()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("jpindex: %w", err)
	}
	jpResult.MergeFrom(jaStructured)

	cardapiAdapter := cardapi.New(d.fetcher, d.cfg.CardAPIBaseURL, d.cfg.CardAPIKey, d.limiters.CardAPI)
	enResult, err := cardapiAdapter.Build()
	var enDetail catalog.DetailFetcher = cardapiAdapter
	if err != nil {
		var hardFailure *cardapi.HardFailure
		if !asHardFailure(err, &hardFailure) {
			return nil, nil, nil, fmt.Errorf("cardapi: %w", err)
		}
		log.Printf("pipeline: english primary adapter hard-failed (%v), falling back to tcgdex english-only", hardFailure)
		enResult, err = tcgdexAdapter.BuildLang("en")
		if err != nil {
			return nil, nil, nil, &errkind.SourceFatal{Adapter: "cardapi+tcgdex-fallback", Err: err}
		}
		enDetail = tcgdexAdapter
	}

	enResult.MergeFrom(jpResult)
	return enResult, enDetail, jpAdapter, nil
}

func asHardFailure(err error, target **cardapi.HardFailure) bool {
	v, ok := err.(*cardapi.HardFailure)
	if ok {
		*target = v
	}
	return ok
}

// setImageMap projects a tcgdex ja-lang SourceResult into the per-set
// number->image map jpindex.Adapter.SeedSetImages expects.
func setImageMap(result *catalog.SourceResult) map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, rec := range result.Records {
		if rec.ImageLarge == "" {
			continue
		}
		bySet, ok := out[rec.SetID]
		if !ok {
			bySet = make(map[string]string)
			out[rec.SetID] = bySet
		}
		bySet[rec.Number] = rec.ImageLarge
	}
	return out
}

// buildJapaneseNameCache walks the species index once and seeds the
// JapaneseNameCache. Its caller runs it only when NeedsBuild reports the
// cache missing or empty.
func (d *Driver) buildJapaneseNameCache() error {
	return d.speciesClient.WalkIndex(func(s species.SpeciesFound) {
		entry := cache.JapaneseSpecies{
			DexID:       s.DexID,
			EnglishName: s.EnglishName,
			NormalizedKey: normalize.Normalize(s.EnglishName),
		}
		if err := d.jaNameCache.Put(s.JapaneseName, entry); err != nil {
			log.Printf("pipeline: failed to cache species entry for %q: %v", s.JapaneseName, err)
		}
	})
}

// --- artifact persistence ---

type catalogArtifact struct {
	Cards []model.Card `json:"cards"`
}

type salesArtifact struct {
	Sales []model.Sale `json:"sales"`
}

type priceBucketArtifact struct {
	MedianEUR *float64 `json:"median_eur"`
	N         int      `json:"n"`
}

type pricesArtifact struct {
	ByCard map[string]map[string]priceBucketArtifact `json:"byCard"`
}

type metaArtifact struct {
	UpdatedAt string `json:"updatedAt"`
}

func (d *Driver) artifactPath(name string) string {
	return filepath.Join(d.cfg.DataDir, name)
}

func writeJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0644)
}

func (d *Driver) persistCatalog(cards []model.Card) error {
	return writeJSON(d.artifactPath("catalog.json"), catalogArtifact{Cards: cards})
}

func (d *Driver) loadCatalogArtifact() ([]model.Card, bool, error) {
	path := d.artifactPath("catalog.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var artifact catalogArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", path, err)
	}
	return artifact.Cards, true, nil
}

func (d *Driver) persistSalesArtifact(sales []model.Sale) error {
	return writeJSON(d.artifactPath("sales_30d.json"), salesArtifact{Sales: sales})
}

func (d *Driver) persistPrices(aggregated map[aggregate.Key]model.PriceAggregate) error {
	byCard := make(map[string]map[string]priceBucketArtifact)
	for key, agg := range aggregated {
		buckets, ok := byCard[key.CardID]
		if !ok {
			buckets = make(map[string]priceBucketArtifact)
			byCard[key.CardID] = buckets
		}
		buckets[string(key.Bucket)] = priceBucketArtifact{MedianEUR: agg.MedianEUR, N: agg.N}
	}
	return writeJSON(d.artifactPath("prices.json"), pricesArtifact{ByCard: byCard})
}

func (d *Driver) persistMeta(now time.Time) error {
	return writeJSON(d.artifactPath("meta.json"), metaArtifact{UpdatedAt: now.UTC().Truncate(time.Second).Format(time.RFC3339)})
}
