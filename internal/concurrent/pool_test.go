package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestPool_RunErr_PreservesSubmissionOrder(t *testing.T) {
	pool := New(4)

	jobs := make([]Job, 10)
	for i := 0; i < 10; i++ {
		i := i
		jobs[i] = func() (interface{}, error) { return i * i, nil }
	}

	results, errs := pool.RunErr(context.Background(), jobs)
	for i := range jobs {
		if errs[i] != nil {
			t.Fatalf("job %d: unexpected error %v", i, errs[i])
		}
		if results[i] != i*i {
			t.Errorf("job %d: expected %d, got %v", i, i*i, results[i])
		}
	}
}

func TestPool_RunErr_BoundsConcurrency(t *testing.T) {
	pool := New(2)

	var current, max int64
	jobs := make([]Job, 8)
	for i := range jobs {
		jobs[i] = func() (interface{}, error) {
			n := atomic.AddInt64(&current, 1)
			for {
				m := atomic.LoadInt64(&max)
				if n <= m || atomic.CompareAndSwapInt64(&max, m, n) {
					break
				}
			}
			atomic.AddInt64(&current, -1)
			return nil, nil
		}
	}

	pool.RunErr(context.Background(), jobs)
	if max > 2 {
		t.Errorf("expected at most 2 concurrent jobs, observed %d", max)
	}
}

func TestPool_RunErr_CollectsPerJobErrors(t *testing.T) {
	pool := New(3)
	boom := errors.New("boom")

	jobs := []Job{
		func() (interface{}, error) { return 1, nil },
		func() (interface{}, error) { return nil, boom },
		func() (interface{}, error) { return 3, nil },
	}

	results, errs := pool.RunErr(context.Background(), jobs)
	if errs[1] != boom {
		t.Errorf("expected job 1 error to be boom, got %v", errs[1])
	}
	if results[0] != 1 || results[2] != 3 {
		t.Errorf("unexpected results: %v", results)
	}
}

func TestPool_NewDefaultsNonPositiveWorkers(t *testing.T) {
	pool := New(0)
	if pool.workers != DefaultWorkers {
		t.Errorf("expected DefaultWorkers, got %d", pool.workers)
	}
}

func TestPool_RunErr_CancelledContextReturnsWithoutHanging(t *testing.T) {
	pool := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := make([]Job, 5)
	for i := range jobs {
		jobs[i] = func() (interface{}, error) { return "ran", nil }
	}

	// Each job either ran to completion or was never dispatched because the
	// already-cancelled context stopped further sends; either is a valid
	// interleaving of the dispatch/worker race, but the call must return and
	// every slot must be accounted for: no bare zero-value result/error pair.
	results, errs := pool.RunErr(ctx, jobs)
	for i, err := range errs {
		switch {
		case err == nil && results[i] == "ran":
		case errors.Is(err, context.Canceled) && results[i] == nil:
		default:
			t.Errorf("job %d: expected either a completed run or context.Canceled, got result=%v err=%v", i, results[i], err)
		}
	}
}
