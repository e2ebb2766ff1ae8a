// Package saleswindow implements the rolling-window Sales store: it loads
// the previous run's Sales, prunes entries outside the 30-day window,
// merges in newly collected Sales with dedup, and persists the survivors.
package saleswindow

import (
	"time"

	"github.com/pkmgraad/pipeline/internal/cache"
	"github.com/pkmgraad/pipeline/internal/model"
)

// DefaultWindow is the default rolling retention period (30 days).
const DefaultWindow = 30 * 24 * time.Hour

const salesKey = "sales_window"

// Store persists the rolling Sales window as a single JSON blob.
type Store struct {
	cache  *cache.Cache
	window time.Duration
}

// New returns a Store retaining DefaultWindow. Use NewWithWindow to override
// it with a configurable retention window.
func New(c *cache.Cache) *Store {
	return &Store{cache: c, window: DefaultWindow}
}

// NewWithWindow returns a Store retaining the given rolling window duration.
func NewWithWindow(c *cache.Cache, window time.Duration) *Store {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Store{cache: c, window: window}
}

// Load returns the previously persisted Sales, or an empty slice if none
// were persisted yet.
func (s *Store) Load() ([]model.Sale, error) {
	var sales []model.Sale
	if _, err := s.cache.Get(salesKey, &sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// Prune drops every Sale whose CollectedAt falls outside the given rolling
// window relative to now.
func Prune(sales []model.Sale, now time.Time, window time.Duration) []model.Sale {
	cutoff := now.Add(-window)
	pruned := make([]model.Sale, 0, len(sales))
	for _, sale := range sales {
		if sale.CollectedAt.Before(cutoff) {
			continue
		}
		pruned = append(pruned, sale)
	}
	return pruned
}

// Merge folds incoming Sales into existing, deduplicating on the
// composite key (url, priceEur, cardId, bucket).
func Merge(existing, incoming []model.Sale) []model.Sale {
	seen := make(map[string]bool, len(existing)+len(incoming))
	merged := make([]model.Sale, 0, len(existing)+len(incoming))

	for _, sale := range existing {
		key := sale.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, sale)
	}
	for _, sale := range incoming {
		key := sale.DedupKey()
		if seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, sale)
	}

	return merged
}

// Persist writes sales back to disk, overwriting the previous snapshot.
func (s *Store) Persist(sales []model.Sale) error {
	return s.cache.Put(salesKey, sales, 0)
}

// Reconcile runs the full load-prune-merge-persist cycle for a batch of
// newly collected Sales and returns the surviving window.
func (s *Store) Reconcile(incoming []model.Sale, now time.Time) ([]model.Sale, error) {
	previous, err := s.Load()
	if err != nil {
		return nil, err
	}

	pruned := Prune(previous, now, s.window)
	merged := Merge(pruned, incoming)

	if err := s.Persist(merged); err != nil {
		return nil, err
	}
	return merged, nil
}
