// Package cartpole implements the Cartpole classic control environment
// with the Balance task
package cartpole

import (
	"errors"
	"fmt"
	"math"

	env "github.com/samuelfneumann/deepq/environment"
	ts "github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/spatial/r1"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnification of force applied
	Dt             float64 = 0.02 // seconds between state updates

	// Episodes terminate once the cart or pole leave these bounds (+/-)
	FailPosition float64 = 2.4
	FailAngle    float64 = 12 * 2 * math.Pi / 360

	// StartBounds bounds (+/-) each feature of the default starting
	// state distribution
	StartBounds float64 = 0.05

	DefaultEpisodeSteps int = 500

	ObservationDims int = 4
	Actions         int = 2
)

var errEpisodeEnded = errors.New("episode has ended, call Reset")

// Balance implements the classic control environment Cartpole with the
// Balance task. A pole is attached by an un-actuated joint to a cart,
// which moves along a frictionless track. The agent must keep the pole
// upright for as long as possible.
//
// The state features are continuous and consist of the cart's x
// position and speed, as well as the pole's angle from the positive
// y-axis and the pole's angular velocity.
//
// Actions are discrete and consist of the direction of the force
// applied to the cart:
//
//	Action	Meaning
//	  0		Push left
//	  1		Push right
//
// The reward is +1 for every step taken, including the last. Episodes
// terminate when the pole's angle exceeds FailAngle or the cart's
// position exceeds FailPosition, and are truncated after a step limit.
//
// Balance implements the environment.Environment interface
type Balance struct {
	env.Starter
	enders   []env.Ender
	lastStep ts.TimeStep
}

// New constructs a new Cartpole Balance environment which starts each
// episode in a state drawn from s and truncates episodes after
// episodeSteps steps. The first TimeStep of the first episode is
// returned.
func New(s env.Starter, episodeSteps int) (*Balance, ts.TimeStep, error) {
	if episodeSteps < 1 {
		return nil, ts.TimeStep{}, fmt.Errorf("new: episode steps must "+
			"be positive \n\twant(>0) \n\thave(%v)", episodeSteps)
	}

	// Termination is checked before truncation, so that an episode
	// which terminates on its last allowed step counts as terminated
	limits := []r1.Interval{
		{Min: -FailPosition, Max: FailPosition},
		{Min: -FailAngle, Max: FailAngle},
	}
	enders := []env.Ender{
		env.NewIntervalLimit(limits, []int{0, 2}, ts.TerminalStateReached),
		env.NewStepLimit(episodeSteps),
	}

	cartpole := &Balance{Starter: s, enders: enders}
	if start := s.Start(); len(start) != ObservationDims {
		return nil, ts.TimeStep{}, fmt.Errorf("new: invalid starting "+
			"state dimension \n\twant(%v) \n\thave(%v)", ObservationDims,
			len(start))
	}

	return cartpole, cartpole.Reset(), nil
}

// NewDefault returns a new Cartpole Balance environment with each
// starting state feature drawn uniformly from [-StartBounds,
// StartBounds] and episodes truncated after DefaultEpisodeSteps
func NewDefault(seed uint64) (*Balance, ts.TimeStep) {
	bounds := make([]r1.Interval, ObservationDims)
	for i := range bounds {
		bounds[i] = r1.Interval{Min: -StartBounds, Max: StartBounds}
	}

	cartpole, step, err := New(env.NewUniformStarter(bounds, seed),
		DefaultEpisodeSteps)
	if err != nil {
		panic(fmt.Sprintf("newDefault: %v", err))
	}
	return cartpole, step
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (c *Balance) Reset() ts.TimeStep {
	state := c.Start()
	if len(state) != ObservationDims {
		panic(fmt.Sprintf("reset: invalid starting state dimension "+
			"\n\twant(%v) \n\thave(%v)", ObservationDims, len(state)))
	}

	c.lastStep = ts.New(ts.First, 0, state, 0)
	return c.observe(c.lastStep)
}

// ActionSpace returns the number of actions
func (c *Balance) ActionSpace() int {
	return Actions
}

// ObservationSize returns the dimension of observations
func (c *Balance) ObservationSize() int {
	return ObservationDims
}

// Step takes one environmental step given action a and returns the next
// TimeStep. Illegal actions and steps after the end of an episode
// return an error and leave the environment unchanged.
func (c *Balance) Step(a int) (ts.TimeStep, error) {
	if err := env.ValidateAction(a, Actions); err != nil {
		return ts.TimeStep{}, fmt.Errorf("step: %w", err)
	}
	if c.lastStep.Last() {
		return ts.TimeStep{}, fmt.Errorf("step: %w", errEpisodeEnded)
	}

	force := ForceMag
	if a == 0 {
		force = -ForceMag
	}

	nextState := nextState(c.lastStep.Observation, force)
	nextStep := ts.New(ts.Mid, 1.0, nextState, c.lastStep.Number+1)

	// Check if the step ends the episode
	for _, ender := range c.enders {
		if ender.End(&nextStep) {
			break
		}
	}

	c.lastStep = nextStep
	return c.observe(nextStep), nil
}

// observe returns a copy of t which does not share its observation
// with the environment's internal state
func (c *Balance) observe(t ts.TimeStep) ts.TimeStep {
	t.Observation = append([]float64(nil), t.Observation...)
	return t
}

// nextState returns the state following state when force is applied to
// the cart, using Euler integration of the cart and pole
// dynamics
func nextState(state []float64, force float64) []float64 {
	x, xDot := state[0], state[1]
	th, thDot := state[2], state[3]

	cosTheta := math.Cos(th)
	sinTheta := math.Sin(th)

	poleMassLength := PoleMass * HalfPoleLength

	temp := (force + poleMassLength*thDot*thDot*sinTheta) / TotalMass
	thAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
		(4.0/3.0 - PoleMass*cosTheta*cosTheta/TotalMass))
	xAcc := temp - poleMassLength*thAcc*cosTheta/TotalMass

	// Update state variables using Euler kinematic integration
	x += Dt * xDot
	xDot += Dt * xAcc
	th += Dt * thDot
	thDot += Dt * thAcc

	return []float64{x, xDot, th, thDot}
}

func (c *Balance) String() string {
	msg := "Cartpole  |  Position: %v  | Speed: %v  |  Angle: %v" +
		"  |  Angular Velocity: %v"

	state := c.lastStep.Observation
	return fmt.Sprintf(msg, state[0], state[1], state[2], state[3])
}
