// Package benchmark implements a small harness for timing operations against
// a remote service: single-threaded runs with warmup, pooled concurrent runs,
// statistical summaries with optional outlier removal, and tabular, CSV and
// raw-sample output.
package benchmark

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Config shapes every entry a Suite runs. Zero values mean defaults: one
// worker and a millisecond display scale.
type Config struct {
	// Warmup is the number of discarded iterations before measurement.
	Warmup int
	// Iterations is the measured per-entry total, shared by the whole
	// worker pool for concurrent entries.
	Iterations int
	// Threads is the worker pool size for concurrent entries.
	Threads int
	// Scale is the display unit for rendered reports.
	Scale time.Duration
	// Sanitize drops outliers from rendered reports when set. Raw samples
	// are kept either way.
	Sanitize bool
}

// Entry is one registered benchmark: a named operation plus optional
// lifecycle hooks. Exactly one of op and factory is set.
type Entry struct {
	name    string
	op      Operation
	factory WorkerFactory

	setup   Operation
	cleanup Operation
	before  Operation
	after   Operation
}

// Name returns the registered name.
func (e *Entry) Name() string { return e.name }

// Concurrent reports whether the entry runs on the worker pool.
func (e *Entry) Concurrent() bool { return e.factory != nil }

// EntryOption attaches optional lifecycle hooks at registration.
type EntryOption func(*Entry)

// WithSetup runs f once before the entry, untimed. A setup failure skips the
// entry entirely, cleanup included.
func WithSetup(f Operation) EntryOption {
	return func(e *Entry) { e.setup = f }
}

// WithCleanup runs f once after the entry, untimed, whenever setup succeeded.
func WithCleanup(f Operation) EntryOption {
	return func(e *Entry) { e.cleanup = f }
}

// WithBefore runs f before every iteration, warmup included, untimed.
// Ignored for concurrent entries.
func WithBefore(f Operation) EntryOption {
	return func(e *Entry) { e.before = f }
}

// WithAfter runs f after every successful iteration, untimed. Ignored for
// concurrent entries.
func WithAfter(f Operation) EntryOption {
	return func(e *Entry) { e.after = f }
}

// Suite is an ordered registry of benchmark entries sharing one Config.
// Entries run in registration order; results keep that order too.
type Suite struct {
	warmup     int
	iterations int
	threads    int
	scale      time.Duration
	sanitize   bool

	names   []string
	entries map[string]*Entry
	result  *Result
}

// NewSuite builds an empty suite. Negative counts are rejected; a zero
// thread count falls back to one worker and a zero scale to milliseconds.
func NewSuite(cfg Config) (*Suite, error) {
	if cfg.Warmup < 0 || cfg.Iterations < 0 || cfg.Threads < 0 {
		return nil, fmt.Errorf("%w: warmup=%d iterations=%d threads=%d",
			ErrInvalidConfig, cfg.Warmup, cfg.Iterations, cfg.Threads)
	}
	threads := cfg.Threads
	if threads == 0 {
		threads = 1
	}
	scale := cfg.Scale
	if scale == 0 {
		scale = time.Millisecond
	}
	return &Suite{
		warmup:     cfg.Warmup,
		iterations: cfg.Iterations,
		threads:    threads,
		scale:      scale,
		sanitize:   cfg.Sanitize,
		entries:    make(map[string]*Entry),
	}, nil
}

// Threads returns the worker pool size concurrent entries run on.
func (s *Suite) Threads() int { return s.threads }

// Scale returns the display unit reports are rendered in.
func (s *Suite) Scale() time.Duration { return s.scale }

// SetScale overrides the display unit.
func (s *Suite) SetScale(scale time.Duration) *Suite {
	if scale > 0 {
		s.scale = scale
	}
	return s
}

// SetSanitize toggles outlier removal in rendered reports.
func (s *Suite) SetSanitize(on bool) *Suite {
	s.sanitize = on
	return s
}

// Add registers a single-threaded entry under a unique name.
func (s *Suite) Add(name string, op Operation, opts ...EntryOption) error {
	e := &Entry{name: name, op: op}
	for _, opt := range opts {
		opt(e)
	}
	return s.register(e)
}

// AddConcurrent registers a pooled entry under a unique name. Concurrent
// entries have no warmup phase and no per-iteration hooks; setup and cleanup
// still apply.
func (s *Suite) AddConcurrent(name string, factory WorkerFactory, opts ...EntryOption) error {
	e := &Entry{name: name, factory: factory}
	for _, opt := range opts {
		opt(e)
	}
	return s.register(e)
}

// MustAdd is Add for static registration lists; it panics on a duplicate
// name and returns the suite for chaining.
func (s *Suite) MustAdd(name string, op Operation, opts ...EntryOption) *Suite {
	if err := s.Add(name, op, opts...); err != nil {
		panic(err)
	}
	return s
}

// MustAddConcurrent is AddConcurrent for static registration lists.
func (s *Suite) MustAddConcurrent(name string, factory WorkerFactory, opts ...EntryOption) *Suite {
	if err := s.AddConcurrent(name, factory, opts...); err != nil {
		panic(err)
	}
	return s
}

func (s *Suite) register(e *Entry) error {
	if _, ok := s.entries[e.name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateName, e.name)
	}
	s.entries[e.name] = e
	s.names = append(s.names, e.name)
	return nil
}

// ListMatching returns the registered names selected by patterns, in
// registration order. A name is selected when any pattern is a substring of
// it; no patterns selects everything.
func (s *Suite) ListMatching(patterns ...string) []string {
	matched := make([]string, 0, len(s.names))
	for _, name := range s.names {
		if matches(name, patterns) {
			matched = append(matched, name)
		}
	}
	return matched
}

func matches(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// RunMatching executes the selected entries in registration order and
// returns their summaries. A failing entry is logged and excluded from the
// result; it never stops the rest of the run. The result is retained on the
// suite for rendering.
func (s *Suite) RunMatching(patterns ...string) *Result {
	res := newResult()
	for _, name := range s.ListMatching(patterns...) {
		st, err := s.runEntry(s.entries[name])
		if err != nil {
			log.Error().Err(err).Str("benchmark", name).Msg("Benchmark failed")
			continue
		}
		res.add(name, st)
	}
	s.result = res
	return res
}

// Result returns the summaries of the last RunMatching call, or nil before
// any run.
func (s *Suite) Result() *Result { return s.result }

func (s *Suite) runEntry(e *Entry) (*Stats, error) {
	log.Info().
		Str("benchmark", e.name).
		Bool("concurrent", e.Concurrent()).
		Msg("Running benchmark")

	if e.setup != nil {
		if err := e.setup(); err != nil {
			return nil, &ExecutionError{Benchmark: e.name, Phase: PhaseSetup, Err: err}
		}
	}

	st, runErr := s.execute(e)

	// Cleanup always follows a successful setup, even after a failed run,
	// so a crashed entry does not leak state into the next one.
	if e.cleanup != nil {
		if err := e.cleanup(); err != nil {
			if runErr != nil {
				log.Warn().Err(err).Str("benchmark", e.name).Msg("Cleanup failed after benchmark error")
			} else {
				runErr = &ExecutionError{Benchmark: e.name, Phase: PhaseCleanup, Err: err}
			}
		}
	}
	if runErr != nil {
		return nil, runErr
	}

	log.Info().
		Str("benchmark", e.name).
		Int("count", st.Count()).
		Dur("mean", st.Mean()).
		Msg("Benchmark complete")
	return st, nil
}

func (s *Suite) execute(e *Entry) (*Stats, error) {
	if e.Concurrent() {
		r, err := NewConcurrentRunner(s.iterations, s.threads)
		if err != nil {
			return nil, err
		}
		st, err := r.Run(e.factory)
		if err != nil {
			var cre *ConcurrentRunError
			if errors.As(err, &cre) {
				cre.Benchmark = e.name
			}
			return nil, err
		}
		return st, nil
	}

	m, err := NewMicroBenchmark(s.warmup, s.iterations)
	if err != nil {
		return nil, err
	}
	st, err := m.RunWithHooks(e.before, e.op, e.after)
	if err != nil {
		var ee *ExecutionError
		if errors.As(err, &ee) {
			ee.Benchmark = e.name
		}
		return nil, err
	}
	return st, nil
}

// Display renders the retained result as an aligned text table in the
// suite's scale, sanitized if configured.
func (s *Suite) Display(w io.Writer) error {
	return writeTable(w, s.result, s.scale, s.sanitize)
}

// DisplayCSV renders the retained result as CSV with the given field
// separator, sanitized if configured.
func (s *Suite) DisplayCSV(w io.Writer, sep rune) error {
	return writeCSV(w, s.result, s.scale, s.sanitize, sep)
}

// Result is an ordered set of per-benchmark summaries.
type Result struct {
	names []string
	stats map[string]*Stats
}

func newResult() *Result {
	return &Result{stats: make(map[string]*Stats)}
}

func (r *Result) add(name string, st *Stats) {
	if _, ok := r.stats[name]; !ok {
		r.names = append(r.names, name)
	}
	r.stats[name] = st
}

// Names returns the benchmark names in run order.
func (r *Result) Names() []string {
	return append([]string(nil), r.names...)
}

// Get returns the summary recorded under name, or nil.
func (r *Result) Get(name string) *Stats { return r.stats[name] }

// Len returns the number of recorded summaries.
func (r *Result) Len() int { return len(r.names) }
