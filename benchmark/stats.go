package benchmark

import (
	"math"
	"sort"
	"time"
)

// SanitizeThreshold is the outlier cutoff in standard deviations: samples
// deviating from the mean by this many sigmas or more are dropped when
// sanitization is enabled.
const SanitizeThreshold = 2.0

// Stats is a read-only statistical summary of elapsed-duration samples. It
// keeps the samples it was derived from, so raw data stays available for
// export even when a sanitized view is rendered.
type Stats struct {
	samples []time.Duration
	min     time.Duration
	max     time.Duration
	p50     time.Duration
	p90     time.Duration
	p99     time.Duration
	mean    float64 // nanoseconds
	stddev  float64 // nanoseconds, population form
}

// NewStats derives a summary from samples. The input slice is copied, so
// callers keep ownership of theirs. An empty input yields a usable summary
// with count zero and zero aggregates.
func NewStats(samples []time.Duration) *Stats {
	s := &Stats{samples: append([]time.Duration(nil), samples...)}
	if len(s.samples) == 0 {
		return s
	}

	sorted := append([]time.Duration(nil), s.samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	s.min = sorted[0]
	s.max = sorted[len(sorted)-1]
	s.p50 = percentile(sorted, 50)
	s.p90 = percentile(sorted, 90)
	s.p99 = percentile(sorted, 99)

	var sum float64
	for _, d := range s.samples {
		sum += float64(d)
	}
	s.mean = sum / float64(len(s.samples))

	var sqsum float64
	for _, d := range s.samples {
		dev := float64(d) - s.mean
		sqsum += dev * dev
	}
	s.stddev = math.Sqrt(sqsum / float64(len(s.samples)))

	return s
}

// Count is the number of samples behind the summary.
func (s *Stats) Count() int { return len(s.samples) }

// Mean is the arithmetic mean of the samples.
func (s *Stats) Mean() time.Duration { return time.Duration(s.mean) }

// Min is the smallest sample.
func (s *Stats) Min() time.Duration { return s.min }

// Max is the largest sample.
func (s *Stats) Max() time.Duration { return s.max }

// P50 is the median by linear interpolation.
func (s *Stats) P50() time.Duration { return s.p50 }

// P90 is the 90th percentile by linear interpolation.
func (s *Stats) P90() time.Duration { return s.p90 }

// P99 is the 99th percentile by linear interpolation.
func (s *Stats) P99() time.Duration { return s.p99 }

// StdDev is the population standard deviation of the samples.
func (s *Stats) StdDev() time.Duration { return time.Duration(s.stddev) }

// Samples returns a copy of the raw samples in recording order.
func (s *Stats) Samples() []time.Duration {
	return append([]time.Duration(nil), s.samples...)
}

// Sanitize derives a new summary that excludes samples deviating from the
// mean by k standard deviations or more. The receiver is never modified. If
// the rule would discard every sample the receiver is returned as is, so a
// non-empty summary never sanitizes down to an empty one.
func (s *Stats) Sanitize(k float64) *Stats {
	if len(s.samples) == 0 {
		return s
	}
	limit := k * s.stddev
	kept := make([]time.Duration, 0, len(s.samples))
	for _, d := range s.samples {
		if math.Abs(float64(d)-s.mean) < limit {
			kept = append(kept, d)
		}
	}
	if len(kept) == 0 || len(kept) == len(s.samples) {
		return s
	}
	return NewStats(kept)
}

// percentile returns the p-th percentile of the sorted samples, linearly
// interpolated between the two nearest ranks.
func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(rank)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := rank - float64(lower)
	return time.Duration(float64(sorted[lower])*(1-weight) + float64(sorted[upper])*weight)
}
