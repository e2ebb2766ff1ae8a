package model

import "time"

// Bucket is a discrete grading category for a sold listing.
type Bucket string

const (
	BucketRaw        Bucket = "raw"
	BucketGraad7     Bucket = "graad_7"
	BucketGraad8     Bucket = "graad_8"
	BucketGraad9     Bucket = "graad_9"
	BucketGraad95    Bucket = "graad_9_5"
	BucketGraad10    Bucket = "graad_10"
	BucketGraadUnknown Bucket = "graad_unknown" // transient; never persisted
)

// CanonicalBuckets are the only six bucket keys ever emitted for a card.
var CanonicalBuckets = []Bucket{BucketRaw, BucketGraad7, BucketGraad8, BucketGraad9, BucketGraad95, BucketGraad10}

// Sale is an observed, matched marketplace listing.
type Sale struct {
	CollectedAt time.Time `json:"collectedAt"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	PriceEUR    float64   `json:"priceEur"`
	CardID      string    `json:"cardId"`
	Bucket      Bucket    `json:"bucket"`
}

// DedupKey returns the composite key (url, priceEur, cardId, bucket) used to
// detect duplicate Sales within the rolling window.
func (s Sale) DedupKey() string {
	return s.URL + "|" + formatPrice(s.PriceEUR) + "|" + s.CardID + "|" + string(s.Bucket)
}

func formatPrice(p float64) string {
	// Shortest round-trip formatting renders the same float64 identically on
	// every run, so a re-observed price yields the same key.
	return trimTrailingZeros(p)
}

// PriceAggregate is the median/sample-count summary for a (cardId, bucket).
type PriceAggregate struct {
	MedianEUR *float64 `json:"median_eur"`
	N         int      `json:"n"`
}
