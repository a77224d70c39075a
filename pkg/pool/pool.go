package pool

import (
	"context"
	"sync"
)

// WorkerFunc processes one item and returns its result.
type WorkerFunc[T, R any] func(ctx context.Context, item T) (R, error)

// Result pairs an input item with the worker's output.
type Result[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// Run processes items concurrently with numWorkers goroutines. The returned slice
// has one entry per item, in input order. Items never handed to a worker because
// ctx was cancelled carry ctx.Err().
func Run[T, R any](ctx context.Context, items []T, numWorkers int, workerFunc WorkerFunc[T, R]) []Result[T, R] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	results := make([]Result[T, R], len(items))
	for i, item := range items {
		results[i].Item = item
	}

	var wg sync.WaitGroup
	taskChan := make(chan int, numWorkers)

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range taskChan {
				if err := ctx.Err(); err != nil {
					results[idx].Err = err
					continue
				}
				results[idx].Value, results[idx].Err = workerFunc(ctx, results[idx].Item)
			}
		}()
	}

	fed := 0
OUT:
	for ; fed < len(items); fed++ {
		select {
		case taskChan <- fed:
		case <-ctx.Done():
			// Stop feeding tasks if the context is cancelled
			break OUT
		}
	}
	close(taskChan)
	wg.Wait()

	for i := fed; i < len(items); i++ {
		results[i].Err = ctx.Err()
	}
	return results
}

// Errors collects the non-nil errors from results.
func Errors[T, R any](results []Result[T, R]) []error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errs
}
