// Package concurrent provides the bounded worker pool that runs the
// Reconciler's per-record enrichment (its detail fetches) with a fixed
// amount of outstanding parallelism. The catalog adapters and the
// marketplace Collector issue their requests sequentially and do not use it.
package concurrent

import (
	"context"
	"sync"
)

// DefaultWorkers is the pool size used when a caller doesn't have a more
// specific number in mind — 4-8 outstanding requests per host is a
// reasonable ceiling for the detail fetches this pool backs.
const DefaultWorkers = 6

// Job is one unit of work submitted to a Pool. It has no arguments because
// callers close over whatever state they need, rather than introducing a
// generic task type.
type Job func() (interface{}, error)

// Pool runs Jobs with bounded parallelism, returning results in the same
// order the Jobs were submitted regardless of completion order, so a
// stage's outputs retain the order in which its jobs were issued.
type Pool struct {
	workers int
}

// New returns a Pool with the given worker count. A non-positive count
// falls back to DefaultWorkers.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Pool{workers: workers}
}

// RunErr executes jobs with bounded parallelism and returns their
// (value, error) results in submission order, regardless of completion
// order. If ctx is cancelled, RunErr stops dispatching new jobs and fills
// the remaining result slots with ctx.Err().
func (p *Pool) RunErr(ctx context.Context, jobs []Job) ([]interface{}, []error) {
	results := make([]interface{}, len(jobs))
	errs := make([]error, len(jobs))

	indices := make(chan int)
	go func() {
		defer close(indices)
		for i := range jobs {
			select {
			case indices <- i:
			case <-ctx.Done():
				for ; i < len(jobs); i++ {
					errs[i] = ctx.Err()
				}
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indices {
				res, err := jobs[i]()
				results[i] = res
				errs[i] = err
			}
		}()
	}
	wg.Wait()

	return results, errs
}
