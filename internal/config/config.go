// Package config loads the recognized run options from the environment,
// defaulting anything unset, using small `os.Getenv(name, default)` helpers
// rather than a struct-tag-driven decoder.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// CatalogStrategy selects which adapter combination builds the catalog.
type CatalogStrategy string

const (
	StrategyTCGdex CatalogStrategy = "tcgdex"
	StrategySplit  CatalogStrategy = "split"
)

// Config holds every recognized run option.
type Config struct {
	SkipCatalog             bool
	CatalogStrategy         CatalogStrategy
	EnrichEnglishPokemonKey bool
	StrictCatalog           bool
	MinCatalogCards         int
	MinEnglishCards         int
	DaysWindow              int
	PagesPerQuery           int
	ConfidenceThreshold     float64

	TCGdexBaseURL     string
	CardAPIBaseURL    string
	CardAPIKey        string
	SpeciesAPIBaseURL string
	JPIndexBaseURL    string
	MarketplaceBaseURL string
	MarketplaceCategory string

	CacheDir string

	// DataDir is where the produced artifacts (catalog.json, sales_30d.json,
	// prices.json, meta.json) are written.
	DataDir string

	// CronSchedule, when non-empty, runs the pipeline on a cron schedule
	// instead of once and exiting.
	CronSchedule string
}

// Load reads an optional .env file (silently ignored if absent) and builds
// a Config from the environment, applying the documented defaults.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		SkipCatalog:             getBool("SKIP_CATALOG", false),
		CatalogStrategy:         CatalogStrategy(getString("CATALOG_STRATEGY", string(StrategyTCGdex))),
		EnrichEnglishPokemonKey: getBool("ENRICH_ENGLISH_POKEMON_KEY", false),
		StrictCatalog:           getBool("STRICT_CATALOG", false),
		MinCatalogCards:         getInt("MIN_CATALOG_CARDS", 12000),
		MinEnglishCards:         getInt("MIN_ENGLISH_CARDS", 8000),
		DaysWindow:              getInt("DAYS_WINDOW", 30),
		PagesPerQuery:           getInt("PAGES_PER_QUERY", 2),
		ConfidenceThreshold:     getFloat("CONFIDENCE_THRESHOLD", 0.72),

		TCGdexBaseURL:       getString("TCGDEX_BASE_URL", "https://api.tcgdex.net/v2"),
		CardAPIBaseURL:      getString("CARDAPI_BASE_URL", "https://api.pokemontcg.io"),
		CardAPIKey:          getString("CARDAPI_KEY", ""),
		SpeciesAPIBaseURL:   getString("SPECIES_API_BASE_URL", "https://pokeapi.co/api/v2"),
		JPIndexBaseURL:      getString("JPINDEX_BASE_URL", "https://www.pokemon-card.com"),
		MarketplaceBaseURL:  getString("MARKETPLACE_BASE_URL", "https://www.ebay.com/sch/i.html"),
		MarketplaceCategory: getString("MARKETPLACE_CATEGORY", "183454"),

		CacheDir: getString("CACHE_DIR", ".cache"),
		DataDir:  getString("DATA_DIR", "data"),

		CronSchedule: getString("CRON_SCHEDULE", ""),
	}
}

func getString(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getBool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

func getInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func getFloat(name string, def float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return parsed
}
