package dynamo

import (
	"context"
	"sync"
)

// RunFunc performs one complete, independent run for the given seed.
type RunFunc func(ctx context.Context, seed int64) (*Result, error)

// Ensemble runs the same configuration under consecutive seeds. Every run
// builds its own plant, controller and random source, so runs share nothing.
type Ensemble struct {
	run       RunFunc
	numRuns   int
	seedStart int64
	workers   int
}

func NewEnsemble(run RunFunc, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{run: run, numRuns: numRuns, seedStart: seedStart, workers: 4}
}

// SetWorkers bounds the number of concurrent runs.
func (e *Ensemble) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	e.workers = n
}

// Run returns results indexed by seed offset.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	sem := make(chan struct{}, e.workers)
	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results[idx], errs[idx] = e.run(ctx, e.seedStart+int64(idx))
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
