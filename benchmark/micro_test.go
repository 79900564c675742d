package benchmark

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMicroBenchmark_RejectsNegativeCounts(t *testing.T) {
	_, err := NewMicroBenchmark(-1, 10)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewMicroBenchmark(0, -1)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMicroBenchmark_WarmupPlusMeasuredInvocations(t *testing.T) {
	m, err := NewMicroBenchmark(3, 7)
	require.NoError(t, err)

	calls := 0
	st, err := m.Run(func() error {
		calls++
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 10, calls, "op runs warmup+measured times")
	assert.Equal(t, 7, st.Count(), "only measured iterations are sampled")
}

func TestMicroBenchmark_ZeroIterations(t *testing.T) {
	m, err := NewMicroBenchmark(0, 0)
	require.NoError(t, err)

	st, err := m.Run(func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, 0, st.Count())
}

func TestMicroBenchmark_HooksRunEveryIterationUntimed(t *testing.T) {
	m, err := NewMicroBenchmark(2, 3)
	require.NoError(t, err)

	var before, ops, after int
	st, err := m.RunWithHooks(
		func() error { before++; return nil },
		func() error { ops++; return nil },
		func() error { after++; return nil },
	)
	require.NoError(t, err)

	assert.Equal(t, 5, before)
	assert.Equal(t, 5, ops)
	assert.Equal(t, 5, after)
	assert.Equal(t, 3, st.Count())
}

func TestMicroBenchmark_OpFailureDuringWarmup(t *testing.T) {
	m, err := NewMicroBenchmark(2, 3)
	require.NoError(t, err)

	boom := errors.New("boom")
	calls := 0
	st, err := m.Run(func() error {
		calls++
		if calls == 2 {
			return boom
		}
		return nil
	})

	require.Error(t, err)
	assert.Nil(t, st, "no partial stats on failure")
	assert.ErrorIs(t, err, boom)

	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, PhaseWarmup, ee.Phase)
	assert.Equal(t, 1, ee.Iteration)
	assert.Equal(t, 2, calls, "run aborts at the failing iteration")
}

func TestMicroBenchmark_OpFailureDuringMeasure(t *testing.T) {
	m, err := NewMicroBenchmark(1, 5)
	require.NoError(t, err)

	boom := errors.New("boom")
	calls := 0
	st, err := m.Run(func() error {
		calls++
		if calls == 4 { // warmup 1, then measured iterations 0,1,2
			return boom
		}
		return nil
	})

	require.Error(t, err)
	assert.Nil(t, st)

	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, PhaseMeasure, ee.Phase)
	assert.Equal(t, 2, ee.Iteration)
}

func TestMicroBenchmark_BeforeHookFailureAborts(t *testing.T) {
	m, err := NewMicroBenchmark(0, 3)
	require.NoError(t, err)

	boom := errors.New("hook down")
	ops := 0
	st, err := m.RunWithHooks(
		func() error { return boom },
		func() error { ops++; return nil },
		nil,
	)

	require.Error(t, err)
	assert.Nil(t, st)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, ops, "op never runs after its before hook fails")

	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, PhaseMeasure, ee.Phase)
	assert.Equal(t, 0, ee.Iteration)
}

func TestMicroBenchmark_AfterHookFailureAborts(t *testing.T) {
	m, err := NewMicroBenchmark(0, 3)
	require.NoError(t, err)

	boom := errors.New("hook down")
	ops := 0
	st, err := m.RunWithHooks(
		nil,
		func() error { ops++; return nil },
		func() error {
			if ops == 2 {
				return boom
			}
			return nil
		},
	)

	require.Error(t, err)
	assert.Nil(t, st)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, ops)
}
