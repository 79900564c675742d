package benchmark

import (
	"fmt"
	"time"
)

// Operation is a single timed unit of work. The harness never looks inside:
// it only measures wall-clock duration and success or failure.
type Operation func() error

// MicroBenchmark times one operation over a discarded warmup phase followed
// by a measured phase.
type MicroBenchmark struct {
	warmup     int
	iterations int
}

// NewMicroBenchmark validates the phase sizes. A zero iteration count is
// allowed and produces an empty summary; negative counts are rejected.
func NewMicroBenchmark(warmup, iterations int) (*MicroBenchmark, error) {
	if warmup < 0 || iterations < 0 {
		return nil, fmt.Errorf("%w: warmup=%d iterations=%d", ErrInvalidConfig, warmup, iterations)
	}
	return &MicroBenchmark{warmup: warmup, iterations: iterations}, nil
}

// Run executes op for the warmup phase, discarding timings, then for the
// measured phase, returning a summary over exactly the measured calls.
func (m *MicroBenchmark) Run(op Operation) (*Stats, error) {
	return m.RunWithHooks(nil, op, nil)
}

// RunWithHooks runs the optional before/after hooks around every iteration
// of both phases. Hooks are never timed; only op enters the samples. Any
// failure, from op or a hook, aborts the run immediately with the phase and
// iteration it happened on, and no partial summary is returned.
func (m *MicroBenchmark) RunWithHooks(before, op, after Operation) (*Stats, error) {
	for i := 0; i < m.warmup; i++ {
		if _, err := timedStep(before, op, after); err != nil {
			return nil, &ExecutionError{Phase: PhaseWarmup, Iteration: i, Err: err}
		}
	}

	samples := make([]time.Duration, 0, m.iterations)
	for i := 0; i < m.iterations; i++ {
		elapsed, err := timedStep(before, op, after)
		if err != nil {
			return nil, &ExecutionError{Phase: PhaseMeasure, Iteration: i, Err: err}
		}
		samples = append(samples, elapsed)
	}
	return NewStats(samples), nil
}

// timedStep runs one iteration, timing only op.
func timedStep(before, op, after Operation) (time.Duration, error) {
	if before != nil {
		if err := before(); err != nil {
			return 0, err
		}
	}

	start := time.Now()
	err := op()
	elapsed := time.Since(start)
	if err != nil {
		return 0, err
	}

	if after != nil {
		if err := after(); err != nil {
			return 0, err
		}
	}
	return elapsed, nil
}
