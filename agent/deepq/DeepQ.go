// Package deepq implements the deep Q-learning algorithm with
// experience replay and a target network
package deepq

import (
	"fmt"

	"github.com/aunum/log"
	"github.com/samuelfneumann/deepq/expreplay"
	"github.com/samuelfneumann/deepq/network"
	"github.com/samuelfneumann/deepq/timestep"
	"github.com/samuelfneumann/deepq/utils/floatutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// GradientClip bounds the magnitude of each element of the loss
// gradient applied to the online network
const GradientClip = 1.0

// DeepQ implements the DQN algorithm. An online network is trained on
// batches sampled from a replay buffer, regressing the action value of
// each taken action towards the TD target
//
//	r + γ * max_a' Q_target(s', a') * (1 - done)
//
// where Q_target is a frozen copy of the online network, synced only
// when UpdateTargetNetwork is called.
//
// The hyperparameters are plain fields. A training driver may change
// them between calls, e.g. to decay Epsilon.
type DeepQ struct {
	Gamma        float64
	Epsilon      float64
	LearningRate float64
	BatchSize    int
	Loss         network.Loss

	// The online network is trained every step and selects actions.
	// The target network provides the bootstrap target. They never
	// share parameter storage.
	online *network.NeuralNet
	target *network.NeuralNet

	replay     *expreplay.Buffer
	numActions int
	rng        *rand.Rand
}

// New creates a new DeepQ agent. The agent keeps a deep copy of net as
// its online network, and net itself is never used after New returns.
// The network's output width must equal config.ActionSpace.
func New(net *network.NeuralNet, config Config) (*DeepQ, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	if net == nil {
		return nil, fmt.Errorf("new: network must be non-nil")
	}
	if err := net.Validate(); err != nil {
		return nil, fmt.Errorf("new: invalid network: %w", err)
	}
	if net.OutputSize() != config.ActionSpace {
		return nil, fmt.Errorf("new: network output width must equal "+
			"the number of actions \n\twant(%v) \n\thave(%v)",
			config.ActionSpace, net.OutputSize())
	}

	rng := rand.New(rand.NewSource(config.Seed))
	replay, err := expreplay.New(config.Capacity, rng.Uint64())
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %w", err)
	}

	loss := config.Loss
	if loss == nil {
		loss = network.MSE{}
	}

	online := net.Clone()
	return &DeepQ{
		Gamma:        config.Gamma,
		Epsilon:      config.Epsilon,
		LearningRate: config.LearningRate,
		BatchSize:    config.BatchSize,
		Loss:         loss,
		online:       online,
		target:       online.Clone(),
		replay:       replay,
		numActions:   config.ActionSpace,
		rng:          rng,
	}, nil
}

// MustNew is like New but panics on an invalid configuration
func MustNew(net *network.NeuralNet, config Config) *DeepQ {
	d, err := New(net, config)
	if err != nil {
		panic(err)
	}
	return d
}

// SelectAction selects an action in state using an ε-greedy policy
// with respect to the online network. Greedy ties go to the lowest
// action index.
func (d *DeepQ) SelectAction(state []float64) int {
	if d.rng.Float64() < d.Epsilon {
		return d.rng.Intn(d.numActions)
	}
	return floatutils.Argmax(d.online.Predict(state))
}

// Observe adds a transition to the replay buffer
func (d *DeepQ) Observe(t timestep.Transition) {
	d.replay.Add(t)
}

// ReplayLen returns the number of transitions in the replay buffer
func (d *DeepQ) ReplayLen() int {
	return d.replay.Len()
}

// NumActions returns the number of actions the agent chooses from
func (d *DeepQ) NumActions() int {
	return d.numActions
}

// Learn samples a batch from the replay buffer and performs a single
// gradient descent step on the online network. The target network is
// not changed.
//
// The replay buffer should hold at least one transition; Learn does
// nothing if it is empty. Drivers usually wait until the buffer holds
// some minimum number of transitions before calling Learn.
func (d *DeepQ) Learn() {
	batch := d.replay.Sample(d.BatchSize)
	if batch.Len() == 0 {
		log.Debugf("learn: replay buffer is empty, skipping update")
		return
	}

	d.online.Backward(d.gradient(batch), d.LearningRate)
}

// gradient computes the clipped loss gradient with respect to the
// online network's predictions on batch. The online network's
// forward cache is left holding batch's states, ready for Backward.
func (d *DeepQ) gradient(batch expreplay.Batch) *mat.Dense {
	targets := d.tdTargets(batch)

	predictions := d.online.Forward(batch.StateMatrix())
	trainingTarget := TrainingTarget(predictions, batch.Actions, targets)

	gradient := d.Loss.Derivative(trainingTarget, predictions)
	floatutils.ClipDense(gradient, -GradientClip, GradientClip)
	return gradient
}

// tdTargets returns r + γ * max_a' Q_target(s', a') * (1 - done) for
// each transition in batch
func (d *DeepQ) tdTargets(batch expreplay.Batch) []float64 {
	nextQ := d.target.Forward(batch.NextStateMatrix())

	targets := make([]float64, batch.Len())
	for i := range targets {
		notDone := 1.0
		if batch.Dones[i] {
			notDone = 0.0
		}
		maxNextQ := floats.Max(nextQ.RawRowView(i))
		targets[i] = batch.Rewards[i] + d.Gamma*maxNextQ*notDone
	}
	return targets
}

// TrainingTarget returns a copy of predictions where, for each row i,
// the column actions[i] is replaced with targets[i]. All other
// columns equal the predictions, so the loss gradient is zero for
// every action that was not taken.
func TrainingTarget(predictions *mat.Dense, actions []int,
	targets []float64) *mat.Dense {
	r, c := predictions.Dims()
	if len(actions) != r || len(targets) != r {
		panic(fmt.Sprintf("trainingTarget: batch sizes differ "+
			"\n\twant(%v) \n\thave(actions: %v, targets: %v)", r,
			len(actions), len(targets)))
	}

	trainingTarget := mat.DenseCopyOf(predictions)
	for i, action := range actions {
		if action < 0 || action >= c {
			panic(fmt.Sprintf("trainingTarget: illegal action %v ∉ "+
				"[0, %v)", action, c))
		}
		trainingTarget.Set(i, action, targets[i])
	}
	return trainingTarget
}

// UpdateTargetNetwork sets the weights of the target network to a copy
// of the current weights of the online network
func (d *DeepQ) UpdateTargetNetwork() {
	if err := d.target.Set(d.online); err != nil {
		panic(fmt.Sprintf("updateTargetNetwork: %v", err))
	}
}

// TdErrors returns the TD error of each transition in batch,
//
//	r + γ * max_a' Q_target(s', a') * (1 - done) - Q_online(s, a)
//
// No weights are changed.
func (d *DeepQ) TdErrors(batch expreplay.Batch) []float64 {
	if batch.Len() == 0 {
		return []float64{}
	}

	errors := d.tdTargets(batch)
	predictions := d.online.Forward(batch.StateMatrix())
	for i, action := range batch.Actions {
		errors[i] -= predictions.At(i, action)
	}
	return errors
}

// Online returns the online network. The network is owned by the
// agent and should only be read.
func (d *DeepQ) Online() *network.NeuralNet {
	return d.online
}

// Target returns the target network. The network is owned by the
// agent and should only be read.
func (d *DeepQ) Target() *network.NeuralNet {
	return d.target
}
