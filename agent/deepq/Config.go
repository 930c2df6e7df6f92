package deepq

import (
	"fmt"

	"github.com/samuelfneumann/deepq/expreplay"
	"github.com/samuelfneumann/deepq/network"
)

// Config implements a configuration for a DeepQ agent
type Config struct {
	ActionSpace int // Number of discrete actions

	Gamma        float64 // Discount factor
	LearningRate float64 // Step size of the online network
	Epsilon      float64 // Behaviour policy epsilon
	BatchSize    int     // Transitions sampled per update
	Capacity     int     // Replay buffer capacity

	Seed uint64

	// Loss is the regression loss minimized by the online network. If
	// nil, the mean squared error is used.
	Loss network.Loss `json:"-"`
}

// DefaultConfig returns the default configuration of a DeepQ agent
// with actionSpace actions
func DefaultConfig(actionSpace int) Config {
	return Config{
		ActionSpace:  actionSpace,
		Gamma:        0.99,
		LearningRate: 0.01,
		Epsilon:      0.2,
		BatchSize:    50,
		Capacity:     expreplay.DefaultCapacity,
		Loss:         network.MSE{},
	}
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent.
func (c Config) Validate() error {
	if c.ActionSpace < 1 {
		return fmt.Errorf("validate: action space must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.ActionSpace)
	}

	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: discount out of range "+
			"\n\twant([0, 1]) \n\thave(%v)", c.Gamma)
	}

	if c.LearningRate <= 0 {
		return fmt.Errorf("validate: learning rate must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.LearningRate)
	}

	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("validate: epsilon out of range "+
			"\n\twant([0, 1]) \n\thave(%v)", c.Epsilon)
	}

	if c.BatchSize < 1 {
		return fmt.Errorf("validate: batch size must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.BatchSize)
	}

	if c.Capacity < 1 {
		return fmt.Errorf("validate: replay capacity must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.Capacity)
	}

	return nil
}
