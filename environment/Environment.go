// Package environment outlines the interfaces and structs needed to
// implement concrete environments with discrete actions
package environment

import (
	"errors"
	"fmt"

	ts "github.com/samuelfneumann/deepq/timestep"
)

// ErrIllegalAction is returned, wrapped, by Step when an action is
// outside an environment's action space
var ErrIllegalAction = errors.New("illegal action")

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() []float64
}

// Ender determines when episodes should end
type Ender interface {
	// End determines whether t ends the episode. If so, End marks t as
	// the last step of the episode and returns true.
	End(t *ts.TimeStep) bool
}

// Environment implements a simulated environment with a discrete
// action space {0, 1, ..., ActionSpace()-1}
type Environment interface {
	// Reset starts a new episode and returns its first TimeStep
	Reset() ts.TimeStep

	// Step takes action in the environment and returns the next
	// TimeStep. An action outside the action space returns an error
	// wrapping ErrIllegalAction and leaves the environment unchanged.
	Step(action int) (ts.TimeStep, error)

	ActionSpace() int
	ObservationSize() int
}

// ValidateAction returns an error wrapping ErrIllegalAction if action
// is not in {0, 1, ..., actions-1}
func ValidateAction(action, actions int) error {
	if action < 0 || action >= actions {
		return fmt.Errorf("%w %v ∉ [0, %v)", ErrIllegalAction, action,
			actions)
	}
	return nil
}
