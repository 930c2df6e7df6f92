package environment

import (
	"errors"
	"testing"

	ts "github.com/samuelfneumann/deepq/timestep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r1"
)

func TestValidateAction(t *testing.T) {
	assert.NoError(t, ValidateAction(0, 2))
	assert.NoError(t, ValidateAction(1, 2))

	for _, action := range []int{-1, 2, 10} {
		err := ValidateAction(action, 2)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrIllegalAction))
	}
}

func TestStepLimit(t *testing.T) {
	limit := NewStepLimit(3)
	assert.Equal(t, 3, limit.EpisodeSteps())

	for n := 0; n < 3; n++ {
		step := ts.New(ts.Mid, 1, []float64{0}, n)
		assert.False(t, limit.End(&step))
		assert.False(t, step.Last())
	}

	step := ts.New(ts.Mid, 1, []float64{0}, 3)
	require.True(t, limit.End(&step))
	assert.True(t, step.Last())
	assert.True(t, step.Truncated())
	assert.False(t, step.Terminated())

	assert.Panics(t, func() { NewStepLimit(0) })
}

func TestIntervalLimit(t *testing.T) {
	limit := NewIntervalLimit(
		[]r1.Interval{{Min: -1, Max: 1}, {Min: 0, Max: 5}},
		[]int{0, 2},
		ts.TerminalStateReached,
	)

	tests := []struct {
		obs  []float64
		ends bool
	}{
		{[]float64{0, 100, 0}, false},
		{[]float64{1, -100, 5}, false},
		{[]float64{1.01, 0, 1}, true},
		{[]float64{0, 0, -0.1}, true},
		{[]float64{-2, 0, 6}, true},
	}

	for _, test := range tests {
		step := ts.New(ts.Mid, 0, test.obs, 1)
		assert.Equal(t, test.ends, limit.End(&step), "%v", test.obs)
		assert.Equal(t, test.ends, step.Last(), "%v", test.obs)
		assert.Equal(t, test.ends, step.Terminated(), "%v", test.obs)
	}

	assert.Panics(t, func() {
		NewIntervalLimit([]r1.Interval{{Min: 0, Max: 1}}, []int{0, 1},
			ts.Timeout)
	})
}

func TestUniformStarter(t *testing.T) {
	bounds := []r1.Interval{{Min: -0.05, Max: 0.05}, {Min: 2, Max: 3}}
	starter := NewUniformStarter(bounds, 11)
	assert.Equal(t, 2, starter.Features())

	for i := 0; i < 1000; i++ {
		start := starter.Start()
		require.Len(t, start, 2)
		for j, interval := range bounds {
			assert.GreaterOrEqual(t, start[j], interval.Min)
			assert.LessOrEqual(t, start[j], interval.Max)
		}
	}

	// Equal seeds produce equal start states
	a, b := NewUniformStarter(bounds, 3), NewUniformStarter(bounds, 3)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Start(), b.Start())
	}
}
