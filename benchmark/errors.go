package benchmark

import (
	"errors"
	"fmt"
)

// Phase marks where in an entry's lifecycle a failure happened.
type Phase string

const (
	PhaseSetup   Phase = "setup"
	PhaseWarmup  Phase = "warmup"
	PhaseMeasure Phase = "measure"
	PhaseCleanup Phase = "cleanup"
)

// Common benchmark errors
var (
	// ErrDuplicateName rejects registration under a name already taken.
	ErrDuplicateName = errors.New("benchmark name already registered")

	// ErrInvalidConfig rejects impossible run shapes, such as negative
	// iteration counts or an empty worker pool.
	ErrInvalidConfig = errors.New("invalid benchmark configuration")
)

// ExecutionError reports a failed benchmark operation or hook together with
// the phase and iteration it failed on.
type ExecutionError struct {
	Benchmark string
	Phase     Phase
	Iteration int
	Err       error
}

func (e *ExecutionError) Error() string {
	subject := "benchmark"
	if e.Benchmark != "" {
		subject = fmt.Sprintf("benchmark %q", e.Benchmark)
	}
	switch e.Phase {
	case PhaseSetup, PhaseCleanup:
		return fmt.Sprintf("%s failed in %s: %v", subject, e.Phase, e.Err)
	default:
		return fmt.Sprintf("%s failed in %s iteration %d: %v", subject, e.Phase, e.Iteration, e.Err)
	}
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// ConcurrentRunError reports the first worker failure observed during a
// concurrent run. The run's samples are discarded when one surfaces.
type ConcurrentRunError struct {
	Benchmark string
	Worker    int
	Err       error
}

func (e *ConcurrentRunError) Error() string {
	if e.Benchmark == "" {
		return fmt.Sprintf("concurrent run failed on worker %d: %v", e.Worker, e.Err)
	}
	return fmt.Sprintf("benchmark %q failed on worker %d: %v", e.Benchmark, e.Worker, e.Err)
}

func (e *ConcurrentRunError) Unwrap() error { return e.Err }

// ReportError reports a report rendering or raw-sample export failure with
// the offending path.
type ReportError struct {
	Path string
	Err  error
}

func (e *ReportError) Error() string {
	return fmt.Sprintf("report output %q: %v", e.Path, e.Err)
}

func (e *ReportError) Unwrap() error { return e.Err }
