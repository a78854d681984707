// Package fanout maps a collection through a function with bounded
// parallelism and hands the successful results to a single consumer in
// completion order.
package fanout

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// DefaultLimit is used when a non-positive limit is supplied.
const DefaultLimit = 32

// Collect runs fn for every item with at most limit calls in flight. Results
// for which fn reports ok are passed to sink one at a time, in the order the
// calls finish. sink is never called concurrently with itself.
//
// Collect returns ctx.Err() when the context is cancelled before every item
// has been started; items already running are allowed to finish.
func Collect[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, bool), sink func(R)) error {
	if limit <= 0 {
		limit = DefaultLimit
	}

	sem := semaphore.NewWeighted(int64(limit))
	results := make(chan R)
	group, groupCtx := errgroup.WithContext(ctx)

	var drained sync.WaitGroup
	drained.Add(1)
	go func() {
		defer drained.Done()
		for r := range results {
			sink(r)
		}
	}()

	var acquireErr error
	for _, item := range items {
		if err := sem.Acquire(groupCtx, 1); err != nil {
			acquireErr = err
			break
		}
		group.Go(func() error {
			defer sem.Release(1)
			r, ok := fn(groupCtx, item)
			if ok {
				results <- r
			}
			return nil
		})
	}

	waitErr := group.Wait()
	close(results)
	drained.Wait()

	if acquireErr != nil {
		return acquireErr
	}
	return waitErr
}
