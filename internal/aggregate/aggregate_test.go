package aggregate

import (
	"math"
	"testing"

	"github.com/pkmgraad/pipeline/internal/model"
)

func sale(cardID string, bucket model.Bucket, price float64) model.Sale {
	return model.Sale{CardID: cardID, Bucket: bucket, PriceEUR: price}
}

func TestAggregate_OddCountMedian(t *testing.T) {
	sales := []model.Sale{
		sale("c1", model.BucketRaw, 10),
		sale("c1", model.BucketRaw, 30),
		sale("c1", model.BucketRaw, 20),
	}
	agg := Aggregate(sales)
	result := agg[Key{CardID: "c1", Bucket: model.BucketRaw}]
	if result.MedianEUR == nil || *result.MedianEUR != 20 {
		t.Errorf("expected median 20, got %v", result.MedianEUR)
	}
	if result.N != 3 {
		t.Errorf("expected n=3, got %d", result.N)
	}
}

func TestAggregate_EvenCountMedianIsMean(t *testing.T) {
	sales := []model.Sale{
		sale("c1", model.BucketRaw, 10),
		sale("c1", model.BucketRaw, 20),
	}
	agg := Aggregate(sales)
	result := agg[Key{CardID: "c1", Bucket: model.BucketRaw}]
	if result.MedianEUR == nil || *result.MedianEUR != 15 {
		t.Errorf("expected median 15, got %v", result.MedianEUR)
	}
}

func TestAggregate_FiltersNonFinitePrices(t *testing.T) {
	sales := []model.Sale{
		sale("c1", model.BucketRaw, 10),
		sale("c1", model.BucketRaw, math.NaN()),
		sale("c1", model.BucketRaw, math.Inf(1)),
	}
	agg := Aggregate(sales)
	result := agg[Key{CardID: "c1", Bucket: model.BucketRaw}]
	if result.N != 1 {
		t.Errorf("expected n=1 after filtering non-finite, got %d", result.N)
	}
	if result.MedianEUR == nil || *result.MedianEUR != 10 {
		t.Errorf("expected median 10, got %v", result.MedianEUR)
	}
}

func TestAggregate_DropsNonCanonicalBuckets(t *testing.T) {
	sales := []model.Sale{
		sale("c1", model.BucketGraadUnknown, 999),
		sale("c1", model.BucketRaw, 10),
	}
	agg := Aggregate(sales)
	if _, ok := agg[Key{CardID: "c1", Bucket: model.BucketGraadUnknown}]; ok {
		t.Error("expected graad_unknown bucket never emitted")
	}
	if _, ok := agg[Key{CardID: "c1", Bucket: model.BucketRaw}]; !ok {
		t.Error("expected raw bucket emitted")
	}
}

func TestAggregate_GroupsByCardAndBucketSeparately(t *testing.T) {
	sales := []model.Sale{
		sale("c1", model.BucketRaw, 10),
		sale("c1", model.BucketGraad10, 500),
		sale("c2", model.BucketRaw, 8),
	}
	agg := Aggregate(sales)
	if len(agg) != 2*len(model.CanonicalBuckets) {
		t.Errorf("expected %d groups (all six canonical buckets per card), got %d", 2*len(model.CanonicalBuckets), len(agg))
	}
	if result := agg[Key{CardID: "c1", Bucket: model.BucketRaw}]; result.N != 1 {
		t.Errorf("expected c1/raw n=1, got %d", result.N)
	}
	if result := agg[Key{CardID: "c1", Bucket: model.BucketGraad10}]; result.N != 1 {
		t.Errorf("expected c1/graad_10 n=1, got %d", result.N)
	}
	if result := agg[Key{CardID: "c2", Bucket: model.BucketRaw}]; result.N != 1 {
		t.Errorf("expected c2/raw n=1, got %d", result.N)
	}
}

func TestAggregate_BackfillsAllSixBucketsForCardWithOnlyOneBucket(t *testing.T) {
	sales := []model.Sale{
		sale("c1", model.BucketRaw, 10),
	}
	agg := Aggregate(sales)
	for _, bucket := range model.CanonicalBuckets {
		result, ok := agg[Key{CardID: "c1", Bucket: bucket}]
		if !ok {
			t.Fatalf("expected bucket %s to be present", bucket)
		}
		if bucket == model.BucketRaw {
			if result.N != 1 || result.MedianEUR == nil || *result.MedianEUR != 10 {
				t.Errorf("expected raw bucket {median:10, n:1}, got %+v", result)
			}
			continue
		}
		if result.N != 0 || result.MedianEUR != nil {
			t.Errorf("expected backfilled bucket %s to be {nil, 0}, got %+v", bucket, result)
		}
	}
}
