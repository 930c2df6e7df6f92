package experiment

import "fmt"

// Config configures an Online experiment
type Config struct {
	// Episodes is the number of training episodes to run
	Episodes int

	// MaxSteps bounds the total number of environment steps taken over
	// all episodes. If 0, the number of steps is unbounded.
	MaxSteps int

	// The behaviour policy's epsilon starts at InitialEpsilon and, on
	// each learning step, is multiplied by EpsilonDecay while it
	// exceeds FinalEpsilon
	InitialEpsilon float64
	FinalEpsilon   float64
	EpsilonDecay   float64

	// LearningStarts is the number of transitions that must be stored
	// before learning begins. Learning happens on steps where the
	// replay buffer holds strictly more transitions than this.
	LearningStarts int

	// TargetUpdateInterval is the number of environment steps between
	// target network syncs, counted over all episodes
	TargetUpdateInterval int

	// LogEvery is the number of episodes between progress logs. If 0,
	// no progress is logged.
	LogEvery int
}

// DefaultConfig returns the default experiment configuration running
// for episodes episodes
func DefaultConfig(episodes int) Config {
	return Config{
		Episodes:             episodes,
		InitialEpsilon:       1.0,
		FinalEpsilon:         0.01,
		EpsilonDecay:         0.99997,
		LearningStarts:       1000,
		TargetUpdateInterval: 1000,
		LogEvery:             10,
	}
}

// Validate checks a Config to ensure it is a valid configuration
func (c Config) Validate() error {
	if c.Episodes < 1 {
		return fmt.Errorf("validate: episodes must be positive "+
			"\n\twant(>0) \n\thave(%v)", c.Episodes)
	}

	if c.MaxSteps < 0 {
		return fmt.Errorf("validate: max steps must be non-negative "+
			"\n\twant(>=0) \n\thave(%v)", c.MaxSteps)
	}

	if c.InitialEpsilon < 0 || c.InitialEpsilon > 1 {
		return fmt.Errorf("validate: initial epsilon out of range "+
			"\n\twant([0, 1]) \n\thave(%v)", c.InitialEpsilon)
	}

	if c.FinalEpsilon < 0 || c.FinalEpsilon > c.InitialEpsilon {
		return fmt.Errorf("validate: final epsilon out of range "+
			"\n\twant([0, %v]) \n\thave(%v)", c.InitialEpsilon,
			c.FinalEpsilon)
	}

	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("validate: epsilon decay out of range "+
			"\n\twant((0, 1]) \n\thave(%v)", c.EpsilonDecay)
	}

	if c.LearningStarts < 0 {
		return fmt.Errorf("validate: learning starts must be "+
			"non-negative \n\twant(>=0) \n\thave(%v)", c.LearningStarts)
	}

	if c.TargetUpdateInterval < 1 {
		return fmt.Errorf("validate: target update interval must be "+
			"positive \n\twant(>0) \n\thave(%v)", c.TargetUpdateInterval)
	}

	if c.LogEvery < 0 {
		return fmt.Errorf("validate: log interval must be non-negative "+
			"\n\twant(>=0) \n\thave(%v)", c.LogEvery)
	}

	return nil
}
