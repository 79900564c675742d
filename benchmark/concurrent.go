package benchmark

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// WorkerOperation is one timed unit of work inside a worker. The iteration
// argument is the worker-local iteration index.
type WorkerOperation func(iteration int) error

// WorkerFactory builds the operation a single worker runs. Combining the
// worker index with the per-call iteration index gives every invocation in
// the pool a distinct identity, so operations that create keyed resources
// never collide across workers.
type WorkerFactory func(worker int) WorkerOperation

// ConcurrentRunner spreads a fixed iteration total over a fixed pool of
// workers and merges their samples into a single summary, as if one
// MicroBenchmark had run the whole total.
type ConcurrentRunner struct {
	iterations int
	workers    int
}

// NewConcurrentRunner validates the pool shape. The total may be zero but
// never negative, and at least one worker is required.
func NewConcurrentRunner(iterations, workers int) (*ConcurrentRunner, error) {
	if iterations < 0 || workers < 1 {
		return nil, fmt.Errorf("%w: iterations=%d workers=%d", ErrInvalidConfig, iterations, workers)
	}
	return &ConcurrentRunner{iterations: iterations, workers: workers}, nil
}

// Partition returns each worker's iteration share: an even split with the
// remainder going to the earliest workers.
func (r *ConcurrentRunner) Partition() []int {
	shares := make([]int, r.workers)
	base := r.iterations / r.workers
	rest := r.iterations % r.workers
	for w := range shares {
		shares[w] = base
		if w < rest {
			shares[w]++
		}
	}
	return shares
}

// Run executes the full iteration budget across the pool. Every worker runs
// its share sequentially, timing each call; the pool is never torn down
// early, so a failing worker leaves its siblings running to completion. On
// success the merged summary holds exactly the requested total of samples,
// in unspecified order. On failure the whole run is discarded and the first
// observed worker error is returned.
func (r *ConcurrentRunner) Run(factory WorkerFactory) (*Stats, error) {
	shares := r.Partition()
	perWorker := make([][]time.Duration, r.workers)

	start := time.Now()
	var g errgroup.Group
	for w := 0; w < r.workers; w++ {
		g.Go(func() error {
			op := factory(w)
			samples := make([]time.Duration, 0, shares[w])
			for i := 0; i < shares[w]; i++ {
				opStart := time.Now()
				err := op(i)
				elapsed := time.Since(opStart)
				if err != nil {
					return &ConcurrentRunError{Worker: w, Err: err}
				}
				samples = append(samples, elapsed)
			}
			perWorker[w] = samples
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	wall := time.Since(start)

	merged := make([]time.Duration, 0, r.iterations)
	for _, samples := range perWorker {
		merged = append(merged, samples...)
	}

	opsPerSec := float64(0)
	if wall > 0 {
		opsPerSec = float64(len(merged)) / wall.Seconds()
	}
	log.Info().
		Int("workers", r.workers).
		Int("iterations", len(merged)).
		Dur("wall_time", wall).
		Float64("ops_per_sec", opsPerSec).
		Msg("Concurrent run complete")

	return NewStats(merged), nil
}
