package expreplay

import (
	"github.com/samuelfneumann/deepq/timestep"
	"gonum.org/v1/gonum/mat"
)

// Batch is a batch of transitions stored as parallel slices. Index i
// of each slice refers to the same transition. The state slices are
// shared with the Buffer and must not be modified.
type Batch struct {
	States     [][]float64
	Actions    []int
	Rewards    []float64
	NextStates [][]float64
	Dones      []bool
}

func newBatch(n int) Batch {
	return Batch{
		States:     make([][]float64, n),
		Actions:    make([]int, n),
		Rewards:    make([]float64, n),
		NextStates: make([][]float64, n),
		Dones:      make([]bool, n),
	}
}

func (b Batch) set(i int, t timestep.Transition) {
	b.States[i] = t.State
	b.Actions[i] = t.Action
	b.Rewards[i] = t.Reward
	b.NextStates[i] = t.NextState
	b.Dones[i] = t.Done
}

// Len returns the number of transitions in the batch
func (b Batch) Len() int {
	return len(b.Actions)
}

// StateMatrix returns the states of the batch as a matrix with one
// state per row, or nil if the batch is empty
func (b Batch) StateMatrix() *mat.Dense {
	return stack(b.States)
}

// NextStateMatrix returns the next states of the batch as a matrix
// with one state per row, or nil if the batch is empty
func (b Batch) NextStateMatrix() *mat.Dense {
	return stack(b.NextStates)
}

// stack copies equal length rows into a new matrix
func stack(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return nil
	}

	cols := len(rows[0])
	out := mat.NewDense(len(rows), cols, nil)
	for i, row := range rows {
		out.SetRow(i, row)
	}
	return out
}
