// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"
)

// StepType denotes the type of step that a TimeStep can be, either  first
// environmental step, a middle step, or a last step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// EndType describes why an episode ended. An episode can end because
// a terminal state was reached, or because it was cut short by a
// timeout.
type EndType int

const (
	Nil EndType = iota
	TerminalStateReached
	Timeout
)

func (e EndType) String() string {
	switch e {
	case TerminalStateReached:
		return "TerminalStateReached"
	case Timeout:
		return "Timeout"
	default:
		return "Nil"
	}
}

// TimeStep packages together a single timestep in an environment
type TimeStep struct {
	StepType
	Reward      float64
	Observation []float64
	Number      int
	endType     EndType
}

// New returns a new TimeStep. The observation is used directly, it
// is not copied.
func New(t StepType, r float64, o []float64, n int) TimeStep {
	return TimeStep{StepType: t, Reward: r, Observation: o, Number: n}
}

// First returns whether a TimeStep is the first in an environment
func (t *TimeStep) First() bool {
	return t.StepType == First
}

// Mid returns whether a TimeStep is a middle step in an environment
func (t *TimeStep) Mid() bool {
	return t.StepType == Mid
}

// Last returns whether a TimeStep is the last step in an environment.
// This is true for both terminated and truncated episodes.
func (t *TimeStep) Last() bool {
	return t.StepType == Last
}

// SetEnd marks the TimeStep as the last in its episode, ending for the
// reason e.
func (t *TimeStep) SetEnd(e EndType) {
	t.StepType = Last
	t.endType = e
}

// EndType returns the reason the episode ended at this TimeStep, or
// Nil if the TimeStep is not the last in its episode
func (t *TimeStep) EndType() EndType {
	if !t.Last() {
		return Nil
	}
	return t.endType
}

// Terminated returns whether the episode ended by reaching a terminal
// state
func (t *TimeStep) Terminated() bool {
	return t.EndType() == TerminalStateReached
}

// Truncated returns whether the episode was cut short before reaching
// a terminal state
func (t *TimeStep) Truncated() bool {
	return t.EndType() == Timeout
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  End: %v  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.StepType, t.Reward, t.EndType(), t.Number)
}
