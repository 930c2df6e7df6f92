// Package experiment implements functionality for running an experiment
package experiment

import (
	"github.com/samuelfneumann/deepq/experiment/checkpointer"
	"github.com/samuelfneumann/deepq/experiment/trackers"
)

// Experiment runs an agent in an environment. Experiments send each
// TimeStep to their Trackers, which determine which data generated
// during the experiment is saved. The Save() method saves all tracked
// data to disk, and is usually called after an experiment has been
// run. Checkpointers are called after every environment step.
type Experiment interface {
	// Run runs all episodes and returns the return of each finished
	// episode
	Run() ([]float64, error)

	// RunEpisode runs a single episode. It returns the episode's
	// return and whether the episode finished before the step budget
	// was exhausted.
	RunEpisode() (float64, bool, error)

	// Register adds a Tracker to the (possibly already running)
	// experiment
	Register(t trackers.Tracker)

	// RegisterCheckpointer adds a Checkpointer to the experiment
	RegisterCheckpointer(c checkpointer.Checkpointer)

	// Save saves all tracked data to disk
	Save() error
}
