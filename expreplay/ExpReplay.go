// Package expreplay implements a fixed capacity experience replay
// buffer with first-in-first-out eviction and uniform sampling.
package expreplay

import (
	"fmt"

	"github.com/gammazero/deque"
	"github.com/samuelfneumann/deepq/timestep"
	"github.com/samuelfneumann/deepq/utils/intutils"
	"golang.org/x/exp/rand"
)

// DefaultCapacity is the capacity of a replay buffer when none is
// configured
const DefaultCapacity = 50_000

// Buffer stores the most recent transitions of experience, up to a
// fixed capacity. Once the buffer is full, adding a transition evicts
// the oldest one.
//
// A Buffer is not safe for concurrent use.
type Buffer struct {
	memory   *deque.Deque[timestep.Transition]
	capacity int
	rng      *rand.Rand

	// indices is a permutation of [0, len(indices)), partially
	// shuffled in place on each call to Sample
	indices []int
}

// New returns a new, empty Buffer holding at most capacity transitions
func New(capacity int, seed uint64) (*Buffer, error) {
	if capacity < 1 {
		return nil, &ExpReplayError{
			Op:  "new",
			Err: fmt.Errorf("%w \n\twant(>0) \n\thave(%v)", errInvalidCapacity, capacity),
		}
	}

	return &Buffer{
		memory:   deque.New[timestep.Transition](),
		capacity: capacity,
		rng:      rand.New(rand.NewSource(seed)),
	}, nil
}

// Add adds a copy of t to the buffer, first evicting the oldest
// transition if the buffer is full
func (b *Buffer) Add(t timestep.Transition) {
	if b.memory.Len() == b.capacity {
		b.memory.PopFront()
	}
	b.memory.PushBack(t.Copy())
}

// Len returns the number of transitions in the buffer
func (b *Buffer) Len() int {
	return b.memory.Len()
}

// Capacity returns the maximum number of transitions the buffer holds
func (b *Buffer) Capacity() int {
	return b.capacity
}

// At returns the i-th transition in insertion order, where 0 is the
// oldest transition in the buffer. The returned transition must not
// be modified.
func (b *Buffer) At(i int) timestep.Transition {
	return b.memory.At(i)
}

// Sample draws min(batchSize, b.Len()) distinct transitions from the
// buffer uniformly at random. Sampling an empty buffer returns an empty
// Batch; learning from an empty batch is the caller's responsibility
// to avoid.
func (b *Buffer) Sample(batchSize int) Batch {
	n := intutils.Max(intutils.Min(batchSize, b.Len()), 0)

	// Extend the permutation to cover every stored transition
	for i := len(b.indices); i < b.Len(); i++ {
		b.indices = append(b.indices, i)
	}
	indices := b.indices[:b.Len()]

	// Partial Fisher-Yates shuffle of the first n positions
	for i := 0; i < n; i++ {
		j := i + b.rng.Intn(len(indices)-i)
		indices[i], indices[j] = indices[j], indices[i]
	}

	batch := newBatch(n)
	for i, index := range indices[:n] {
		batch.set(i, b.memory.At(index))
	}
	return batch
}

func (b *Buffer) String() string {
	return fmt.Sprintf("Buffer | Length: %v  |  Capacity: %v", b.Len(),
		b.Capacity())
}
