package benchmark

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func TestNewStats_Empty(t *testing.T) {
	st := NewStats(nil)

	assert.Equal(t, 0, st.Count())
	assert.Equal(t, time.Duration(0), st.Mean())
	assert.Equal(t, time.Duration(0), st.Min())
	assert.Equal(t, time.Duration(0), st.Max())
	assert.Equal(t, time.Duration(0), st.P99())
}

func TestNewStats_Aggregates(t *testing.T) {
	st := NewStats([]time.Duration{ms(30), ms(10), ms(50), ms(20), ms(40)})

	assert.Equal(t, 5, st.Count())
	assert.Equal(t, ms(10), st.Min())
	assert.Equal(t, ms(50), st.Max())
	assert.Equal(t, ms(30), st.Mean())
	// Exact rank: p50 of five samples lands on the middle one.
	assert.Equal(t, ms(30), st.P50())
	// Interpolated ranks land between samples; allow a nanosecond of float
	// rounding.
	assert.InDelta(t, 46e6, float64(st.P90()), 1.0)
	assert.InDelta(t, 49.6e6, float64(st.P99()), 1.0)
	assert.InDelta(t, math.Sqrt(2e14), float64(st.StdDev()), 1.0)
}

func TestNewStats_SingleSample(t *testing.T) {
	st := NewStats([]time.Duration{ms(7)})

	assert.Equal(t, 1, st.Count())
	assert.Equal(t, ms(7), st.Min())
	assert.Equal(t, ms(7), st.Max())
	assert.Equal(t, ms(7), st.P50())
	assert.Equal(t, ms(7), st.P99())
	assert.Equal(t, time.Duration(0), st.StdDev())
}

func TestNewStats_CopiesInput(t *testing.T) {
	samples := []time.Duration{ms(1), ms(2), ms(3)}
	st := NewStats(samples)

	samples[0] = ms(999)
	assert.Equal(t, ms(1), st.Min(), "stats must not alias the caller's slice")

	got := st.Samples()
	got[0] = ms(555)
	assert.Equal(t, ms(1), st.Samples()[0], "Samples must return a copy")
}

func TestNewStats_UnsortedInputKeepsRecordingOrder(t *testing.T) {
	st := NewStats([]time.Duration{ms(3), ms(1), ms(2)})

	assert.Equal(t, []time.Duration{ms(3), ms(1), ms(2)}, st.Samples())
	assert.Equal(t, ms(1), st.Min())
	assert.Equal(t, ms(3), st.Max())
}

func TestSanitize_DropsFarOutlier(t *testing.T) {
	// Four quick samples and one 100x outlier. The outlier sits exactly
	// two standard deviations from the mean, so the strict keep rule
	// drops it.
	raw := NewStats([]time.Duration{ms(1), ms(1), ms(1), ms(1), ms(100)})

	clean := raw.Sanitize(SanitizeThreshold)
	require.NotSame(t, raw, clean)

	assert.Equal(t, 4, clean.Count())
	assert.Equal(t, ms(1), clean.Mean())
	assert.Equal(t, ms(1), clean.Max())

	// The raw summary is untouched.
	assert.Equal(t, 5, raw.Count())
	assert.Equal(t, ms(100), raw.Max())
}

func TestSanitize_IdenticalSamplesUnchanged(t *testing.T) {
	// Zero deviation means the keep rule would drop everything; the raw
	// summary comes back instead.
	raw := NewStats([]time.Duration{ms(5), ms(5), ms(5)})

	clean := raw.Sanitize(SanitizeThreshold)

	assert.Same(t, raw, clean)
	assert.Equal(t, 3, clean.Count())
}

func TestSanitize_NeverGrowsAndNeverEmpties(t *testing.T) {
	inputs := [][]time.Duration{
		{ms(1)},
		{ms(1), ms(2)},
		{ms(1), ms(1), ms(1), ms(1), ms(100)},
		{ms(10), ms(20), ms(30), ms(40), ms(50)},
	}
	for _, samples := range inputs {
		raw := NewStats(samples)
		clean := raw.Sanitize(SanitizeThreshold)

		assert.LessOrEqual(t, clean.Count(), raw.Count())
		assert.Greater(t, clean.Count(), 0)
	}
}

func TestSanitize_Empty(t *testing.T) {
	raw := NewStats(nil)
	assert.Same(t, raw, raw.Sanitize(SanitizeThreshold))
}

func TestPercentile_TwoSamples(t *testing.T) {
	st := NewStats([]time.Duration{ms(10), ms(20)})

	assert.Equal(t, ms(15), st.P50())
	assert.InDelta(t, 18e6, float64(st.P90()), 1.0)
}
