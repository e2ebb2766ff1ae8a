// Package aggregate implements the Aggregator: it groups retained Sales by
// (cardId, bucket) and computes a median price per group, emitting only
// the six canonical bucket keys.
package aggregate

import (
	"math"
	"sort"

	"github.com/pkmgraad/pipeline/internal/model"
)

// Key identifies one aggregated group.
type Key struct {
	CardID string
	Bucket model.Bucket
}

// Aggregate groups sales by (cardId, bucket) and computes a PriceAggregate
// for each canonical bucket. Every card that has at least one sale gets all
// six canonical buckets in the result, backfilling {nil, 0} for buckets with
// no sales; cards with no sales at all are omitted entirely.
func Aggregate(sales []model.Sale) map[Key]model.PriceAggregate {
	grouped := make(map[Key][]float64)
	cardIDs := make(map[string]struct{})

	for _, sale := range sales {
		if !isCanonicalBucket(sale.Bucket) {
			continue
		}
		cardIDs[sale.CardID] = struct{}{}
		key := Key{CardID: sale.CardID, Bucket: sale.Bucket}
		grouped[key] = append(grouped[key], sale.PriceEUR)
	}

	out := make(map[Key]model.PriceAggregate, len(cardIDs)*len(model.CanonicalBuckets))
	for cardID := range cardIDs {
		for _, bucket := range model.CanonicalBuckets {
			key := Key{CardID: cardID, Bucket: bucket}
			out[key] = medianAggregate(grouped[key])
		}
	}
	return out
}

func isCanonicalBucket(b model.Bucket) bool {
	for _, canonical := range model.CanonicalBuckets {
		if b == canonical {
			return true
		}
	}
	return false
}

// medianAggregate filters non-finite prices, sorts ascending, and returns
// the middle element (or the mean of the two middles for an even count).
func medianAggregate(prices []float64) model.PriceAggregate {
	finite := make([]float64, 0, len(prices))
	for _, p := range prices {
		if !math.IsInf(p, 0) && !math.IsNaN(p) {
			finite = append(finite, p)
		}
	}

	if len(finite) == 0 {
		return model.PriceAggregate{MedianEUR: nil, N: 0}
	}

	sort.Float64s(finite)
	n := len(finite)
	var median float64
	if n%2 == 1 {
		median = finite[n/2]
	} else {
		median = (finite[n/2-1] + finite[n/2]) / 2
	}

	return model.PriceAggregate{MedianEUR: &median, N: n}
}
