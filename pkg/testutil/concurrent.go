package testutil

import (
	"errors"
	"sync"
	"sync/atomic"

	"crpstore/pkg/platform/sentinel"
)

// ConcurrentResult tracks outcomes of concurrent test operations.
type ConcurrentResult struct {
	Successes int32
	Conflicts int32
	Errors    int32
}

// Total returns the total number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.Errors
}

// RunConcurrent executes fn in parallel goroutines released together and
// classifies each result as success, conflict (sentinel.ErrConflict anywhere in
// the chain) or generic error.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var wg sync.WaitGroup
	var successes, conflicts, errs atomic.Int32
	start := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start
			err := fn(idx)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, sentinel.ErrConflict):
				conflicts.Add(1)
			default:
				errs.Add(1)
			}
		}(i)
	}

	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Conflicts: conflicts.Load(),
		Errors:    errs.Load(),
	}
}
