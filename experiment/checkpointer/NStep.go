package checkpointer

import (
	"fmt"

	ts "github.com/samuelfneumann/deepq/timestep"
)

// nStep implements checkpointing every N environment steps, counted
// across episodes
type nStep struct {
	interval int
	steps    int
	object   Saver // Object to save

	// filename returns the filename of the file to save the object in.
	//
	// If each saved object should be kept in a separate file with an
	// incremented number as a suffix (e.g. file1.bin, file2.bin, ...,
	// fileK.bin), use FilenameEnumerator. If the filename does not
	// matter, use FileTimer. For example:
	//
	//	n := NewNStep(10, object, FileTimer("filename", ".bin"))
	filename func() string
}

// NewNStep returns a checkpointer that checkpoints object every n
// calls to Checkpoint.
func NewNStep(n int, object Saver, filename func() string) (Checkpointer,
	error) {
	if n < 1 {
		return nil, fmt.Errorf("newNStep: interval must be positive "+
			"\n\twant(>0) \n\thave(%v)", n)
	}

	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}, nil
}

// Checkpoint saves the Checkpointer's tracked object if this is the
// n-th step since the last checkpoint
func (n *nStep) Checkpoint(ts.TimeStep) error {
	n.steps++
	if n.steps%n.interval == 0 {
		if err := n.object.Save(n.filename()); err != nil {
			return fmt.Errorf("checkpoint: %w", err)
		}
	}
	return nil
}
