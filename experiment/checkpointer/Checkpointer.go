// Package checkpointer implements Checkpointers, which periodically
// save objects to disk during an experiment
package checkpointer

import ts "github.com/samuelfneumann/deepq/timestep"

// Saver is an object that can be saved to a file
type Saver interface {
	Save(filename string) error
}

// Checkpointer checkpoints/saves objects based on timestep.TimeSteps
type Checkpointer interface {
	Checkpoint(ts.TimeStep) error
}
