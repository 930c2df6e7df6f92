package deepq

import (
	"math"
	"testing"

	"github.com/samuelfneumann/deepq/expreplay"
	"github.com/samuelfneumann/deepq/network"
	"github.com/samuelfneumann/deepq/timestep"
	"github.com/samuelfneumann/deepq/utils/floatutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func newTestNet(t *testing.T, seed uint64, features, actions int) *network.NeuralNet {
	net, err := network.NewMLP(features, []int{8, actions},
		[]network.Activation{network.ReLU(), network.Identity()}, seed)
	require.NoError(t, err)
	return net
}

// linearNet returns a network with a single identity layer computing
// Q(s) = s·W + b
func linearNet(t *testing.T, w []float64, b []float64) *network.NeuralNet {
	out := len(b)
	layer, err := network.NewLayerFrom(mat.NewDense(len(w)/out, out, w),
		mat.NewVecDense(out, b))
	require.NoError(t, err)

	net := network.New()
	require.NoError(t, net.Add(layer, network.Identity()))
	return net
}

func equalNets(a, b *network.NeuralNet) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !mat.Equal(a.Layer(i).Weights(), b.Layer(i).Weights()) ||
			!mat.Equal(a.Layer(i).Biases(), b.Layer(i).Biases()) {
			return false
		}
	}
	return true
}

func fill(d *DeepQ, n int) {
	for i := 0; i < n; i++ {
		x := float64(i) / float64(n)
		d.Observe(timestep.Transition{
			State:     []float64{x, 1 - x},
			Action:    i % d.NumActions(),
			Reward:    float64(i%5) - 2,
			NextState: []float64{1 - x, x},
			Done:      i%7 == 0,
		})
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig(2).Validate())

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no actions", func(c *Config) { c.ActionSpace = 0 }},
		{"negative discount", func(c *Config) { c.Gamma = -0.1 }},
		{"large discount", func(c *Config) { c.Gamma = 1.5 }},
		{"zero learning rate", func(c *Config) { c.LearningRate = 0 }},
		{"large epsilon", func(c *Config) { c.Epsilon = 1.1 }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"zero capacity", func(c *Config) { c.Capacity = 0 }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			config := DefaultConfig(2)
			test.modify(&config)
			assert.Error(t, config.Validate())

			_, err := New(newTestNet(t, 1, 2, 2), config)
			assert.Error(t, err)
		})
	}
}

func TestNewRejectsInvalidNetwork(t *testing.T) {
	config := DefaultConfig(3)

	_, err := New(nil, config)
	assert.Error(t, err)

	_, err = New(network.New(), config)
	assert.Error(t, err)

	// Output width must equal the number of actions
	_, err = New(newTestNet(t, 1, 2, 2), config)
	assert.Error(t, err)

	assert.Panics(t, func() { MustNew(newTestNet(t, 1, 2, 2), config) })
	assert.NotPanics(t, func() { MustNew(newTestNet(t, 1, 2, 3), config) })
}

func TestNewCopiesNetwork(t *testing.T) {
	net := newTestNet(t, 2, 2, 3)
	original := net.Clone()
	d, err := New(net, DefaultConfig(3))
	require.NoError(t, err)

	assert.True(t, equalNets(original, d.Online()))
	assert.True(t, equalNets(original, d.Target()))
	assert.NotSame(t, net, d.Online())
	assert.NotSame(t, d.Online(), d.Target())

	// Training the caller's network does not touch the agent
	x := mat.NewDense(1, 2, []float64{1, -1})
	net.Forward(x)
	net.Backward(mat.NewDense(1, 3, []float64{1, 1, 1}), 0.5)
	assert.False(t, equalNets(original, net))
	assert.True(t, equalNets(original, d.Online()))
}

func TestSelectActionGreedy(t *testing.T) {
	config := DefaultConfig(3)
	config.Epsilon = 0
	d, err := New(newTestNet(t, 3, 2, 3), config)
	require.NoError(t, err)

	states := [][]float64{{0, 0}, {1, -1}, {-0.5, 2}, {3, 3}}
	for _, state := range states {
		want := floatutils.Argmax(d.Online().Predict(state))
		for i := 0; i < 10; i++ {
			assert.Equal(t, want, d.SelectAction(state))
		}
	}
}

func TestSelectActionGreedyTies(t *testing.T) {
	config := DefaultConfig(3)
	config.Epsilon = 0
	d, err := New(linearNet(t, []float64{0, 0, 0, 0, 0, 0}, []float64{1, 1, 1}),
		config)
	require.NoError(t, err)

	assert.Equal(t, 0, d.SelectAction([]float64{1, 2}))
}

func TestSelectActionUniform(t *testing.T) {
	const (
		actions = 3
		trials  = 30_000
	)
	config := DefaultConfig(actions)
	config.Epsilon = 1
	config.Seed = 7
	d, err := New(newTestNet(t, 4, 2, actions), config)
	require.NoError(t, err)

	counts := make([]int, actions)
	for i := 0; i < trials; i++ {
		action := d.SelectAction([]float64{0.5, 0.5})
		require.GreaterOrEqual(t, action, 0)
		require.Less(t, action, actions)
		counts[action]++
	}

	for a, count := range counts {
		assert.InDelta(t, 1.0/actions, float64(count)/trials, 0.02,
			"action %v", a)
	}
}

func TestTrainingTarget(t *testing.T) {
	predictions := mat.NewDense(2, 3, []float64{
		1, 2, 3,
		4, 5, 6,
	})
	target := TrainingTarget(predictions, []int{2, 0}, []float64{10, -1})

	want := mat.NewDense(2, 3, []float64{
		1, 2, 10,
		-1, 5, 6,
	})
	assert.True(t, mat.Equal(want, target))
	assert.Equal(t, 3.0, predictions.At(0, 2), "predictions modified")

	// The loss gradient is non-zero only at the taken actions
	grad := network.MSE{}.Derivative(target, predictions)
	for i := 0; i < 2; i++ {
		for j := 0; j < 3; j++ {
			taken := (i == 0 && j == 2) || (i == 1 && j == 0)
			if !taken {
				assert.Zero(t, grad.At(i, j), "(%v, %v)", i, j)
			} else {
				assert.NotZero(t, grad.At(i, j), "(%v, %v)", i, j)
			}
		}
	}

	assert.Panics(t, func() {
		TrainingTarget(predictions, []int{3, 0}, []float64{1, 1})
	})
	assert.Panics(t, func() {
		TrainingTarget(predictions, []int{0}, []float64{1, 1})
	})
}

func TestTdErrors(t *testing.T) {
	// Q(s) = [s0, 2*s1]
	config := DefaultConfig(2)
	config.Gamma = 0.9
	d, err := New(linearNet(t, []float64{1, 0, 0, 2}, []float64{0, 0}),
		config)
	require.NoError(t, err)

	batch := expreplay.Batch{
		States:     [][]float64{{1, 1}, {1, 1}, {0, 2}},
		Actions:    []int{0, 0, 1},
		Rewards:    []float64{1, 1, -1},
		NextStates: [][]float64{{3, 1}, {3, 1}, {1, 1}},
		Dones:      []bool{false, true, false},
	}

	errors := d.TdErrors(batch)
	require.Len(t, errors, 3)
	assert.InDelta(t, 1+0.9*3-1, errors[0], 1e-12)
	assert.InDelta(t, 1-1, errors[1], 1e-12, "terminal transition bootstrapped")
	assert.InDelta(t, -1+0.9*2-4, errors[2], 1e-12)

	assert.Empty(t, d.TdErrors(expreplay.Batch{}))
}

func TestGradientIsClippedAndMasked(t *testing.T) {
	config := DefaultConfig(2)
	config.BatchSize = 4
	config.Gamma = 0.5
	d, err := New(linearNet(t, []float64{100, -100, 50, 200}, []float64{0, 0}),
		config)
	require.NoError(t, err)

	batch := expreplay.Batch{
		States:     [][]float64{{1, 0}, {0, 1}, {-1, 1}, {0.001, 0}},
		Actions:    []int{0, 1, 0, 1},
		Rewards:    []float64{-1000, 1000, 0, 0},
		NextStates: [][]float64{{0, 0}, {0, 0}, {0, 0}, {0, 0}},
		Dones:      []bool{true, true, true, true},
	}

	grad := d.gradient(batch)
	r, c := grad.Dims()
	require.Equal(t, 4, r)
	require.Equal(t, 2, c)

	clipped := false
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := grad.At(i, j)
			assert.LessOrEqual(t, math.Abs(v), GradientClip)
			if j != batch.Actions[i] {
				assert.Zero(t, v)
			}
			if math.Abs(v) == GradientClip {
				clipped = true
			}
		}
	}
	assert.True(t, clipped)

	// Row 3 has a small error: 2 * (-0.1 - 0) / 8
	assert.InDelta(t, -0.025, grad.At(3, 1), 1e-12)
}

func TestLearnDoesNotChangeTarget(t *testing.T) {
	config := DefaultConfig(3)
	config.BatchSize = 16
	d, err := New(newTestNet(t, 5, 2, 3), config)
	require.NoError(t, err)
	fill(d, 100)

	target := d.Target().Clone()
	online := d.Online().Clone()
	for i := 0; i < 20; i++ {
		d.Learn()
	}

	assert.True(t, equalNets(target, d.Target()))
	assert.False(t, equalNets(online, d.Online()))
}

func TestLearnOnEmptyBuffer(t *testing.T) {
	d, err := New(newTestNet(t, 6, 2, 3), DefaultConfig(3))
	require.NoError(t, err)

	online := d.Online().Clone()
	assert.NotPanics(t, d.Learn)
	assert.True(t, equalNets(online, d.Online()))
}

func TestUpdateTargetNetwork(t *testing.T) {
	config := DefaultConfig(3)
	config.BatchSize = 8
	d, err := New(newTestNet(t, 8, 2, 3), config)
	require.NoError(t, err)
	fill(d, 50)

	for i := 0; i < 10; i++ {
		d.Learn()
	}
	require.False(t, equalNets(d.Online(), d.Target()))

	d.UpdateTargetNetwork()
	assert.True(t, equalNets(d.Online(), d.Target()))

	state := []float64{0.3, -0.7}
	assert.Equal(t, d.Online().Predict(state), d.Target().Predict(state))

	// Further learning leaves the synced copy independent
	d.Learn()
	assert.False(t, equalNets(d.Online(), d.Target()))
}

func TestLearnReducesTdError(t *testing.T) {
	config := DefaultConfig(2)
	config.BatchSize = 1
	config.LearningRate = 0.1
	net, err := network.NewMLP(2, []int{2}, []network.Activation{network.Identity()}, 9)
	require.NoError(t, err)
	d, err := New(net, config)
	require.NoError(t, err)

	d.Observe(timestep.Transition{
		State:     []float64{1, 0.5},
		Action:    1,
		Reward:    1,
		NextState: []float64{0, 0},
		Done:      true,
	})
	batch := expreplay.Batch{
		States:     [][]float64{{1, 0.5}},
		Actions:    []int{1},
		Rewards:    []float64{1},
		NextStates: [][]float64{{0, 0}},
		Dones:      []bool{true},
	}

	before := math.Abs(d.TdErrors(batch)[0])
	for i := 0; i < 200; i++ {
		d.Learn()
	}
	after := math.Abs(d.TdErrors(batch)[0])

	assert.Less(t, after, before)
	assert.Less(t, after, 1e-3)
}

func BenchmarkLearn(b *testing.B) {
	net, _ := network.NewMLP(4, []int{64, 64, 2}, []network.Activation{
		network.ReLU(), network.ReLU(), network.Identity(),
	}, 1)
	d := MustNew(net, DefaultConfig(2))
	for i := 0; i < 1000; i++ {
		d.Observe(timestep.Transition{
			State:     []float64{1, 2, 3, 4},
			Action:    i % 2,
			Reward:    1,
			NextState: []float64{4, 3, 2, 1},
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Learn()
	}
}
