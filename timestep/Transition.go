package timestep

import "fmt"

// Transition is a single (s, a, r, s', done) tuple of experience.
// Transitions are not modified once they have been created.
type Transition struct {
	State     []float64
	Action    int
	Reward    float64
	NextState []float64

	// Done is set whenever the episode ended on NextState, whether the
	// episode terminated or was truncated
	Done bool
}

// NewTransition creates a Transition from the TimeStep an action was
// taken in, the action, and the TimeStep that followed
func NewTransition(step TimeStep, action int, next TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    next.Reward,
		NextState: next.Observation,
		Done:      next.Last(),
	}
}

// Copy returns a deep copy of the Transition
func (t Transition) Copy() Transition {
	state := make([]float64, len(t.State))
	copy(state, t.State)

	nextState := make([]float64, len(t.NextState))
	copy(nextState, t.NextState)

	return Transition{
		State:     state,
		Action:    t.Action,
		Reward:    t.Reward,
		NextState: nextState,
		Done:      t.Done,
	}
}

func (t Transition) String() string {
	return fmt.Sprintf("Transition | State: %v  |  Action: %v  |  "+
		"Reward: %.2f  |  Next State: %v  |  Done: %v", t.State, t.Action,
		t.Reward, t.NextState, t.Done)
}
