// Package replay implements a fixed-capacity prioritized experience
// replay buffer.
//
// The buffer follows the engine's value-threading rule: a Buffer
// value describes the configuration and never changes, while all
// storage lives in a State. Operations take a State and return the new
// authoritative State; the caller must adopt the returned value and
// discard the old one. State is a copy-on-write handle over its
// storage, so an abandoned old value must not be used for further
// operations.
package replay

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/qvecrl/qvec/prng"
	"github.com/qvecrl/qvec/timestep"
)

// Config describes a replay buffer
type Config struct {
	// Capacity is the fixed number of slots in the circular store
	Capacity int

	// BatchSize is the number of transitions drawn per Sample
	BatchSize int

	// PriorityExponent weights sampling probabilities as
	// priority^PriorityExponent when prioritized sampling is on
	PriorityExponent float64

	// Prioritized selects priority-weighted sampling; when false,
	// indices are drawn uniformly
	Prioritized bool
}

// Buffer is the immutable descriptor of a replay buffer. All storage
// lives in State values produced by Init and threaded through Add,
// Sample, and SetPriorities.
type Buffer struct {
	Config
	features int
}

// New returns a new Buffer for transitions with the given number of
// observation features
func New(c Config, features int) (*Buffer, error) {
	if c.Capacity < 1 {
		return nil, fmt.Errorf("new: capacity must be >= 1")
	}
	if c.BatchSize < 1 {
		return nil, fmt.Errorf("new: batch size must be >= 1")
	}
	if c.BatchSize > c.Capacity {
		return nil, fmt.Errorf("new: cannot have batch size (%v) > "+
			"capacity (%v)", c.BatchSize, c.Capacity)
	}
	if features < 1 {
		return nil, fmt.Errorf("new: features must be >= 1")
	}
	return &Buffer{Config: c, features: features}, nil
}

// State holds the circular storage of a replay buffer: one flat slice
// per transition field, a priority per slot, the next write index, and
// the number of slots written so far.
type State struct {
	lastObs    []float64 // capacity * features
	obs        []float64 // capacity * features
	actions    []float64
	rewards    []float64
	dones      []float64
	priorities []float64
	index      int
	size       int
}

// Index returns the next slot that will be written
func (s State) Index() int {
	return s.index
}

// Size returns the number of slots holding real data. Size grows until
// it reaches capacity and then stays there.
func (s State) Size() int {
	return s.size
}

// Priority returns the priority currently stored at slot i
func (s State) Priority(i int) float64 {
	return s.priorities[i]
}

// Init allocates storage sized to the configured capacity, pre-filled
// by broadcasting one sample timestep so that every slot has the right
// shape from the start. The returned State holds no valid data: Size
// is 0 until transitions are added.
func (b *Buffer) Init(t timestep.TimeStep) State {
	n := b.Capacity
	s := State{
		lastObs:    make([]float64, n*b.features),
		obs:        make([]float64, n*b.features),
		actions:    make([]float64, n),
		rewards:    make([]float64, n),
		dones:      make([]float64, n),
		priorities: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		s.writeSlot(i, t, b.features)
	}
	return s
}

// writeSlot overwrites the storage at slot i with transition t
func (s *State) writeSlot(i int, t timestep.TimeStep, features int) {
	start := i * features
	for j := 0; j < features; j++ {
		s.lastObs[start+j] = t.LastObs.AtVec(j)
		s.obs[start+j] = t.Obs.AtVec(j)
	}
	s.actions[i] = float64(t.Action)
	s.rewards[i] = t.Reward
	if t.Done {
		s.dones[i] = 1.0
	} else {
		s.dones[i] = 0.0
	}
}

// Add writes a batch of transitions starting at the current write
// index, wrapping circularly, and returns the new State together with
// the slot indices that were written. Newly written slots keep their
// previous priority until SetPriorities overwrites it.
func (b *Buffer) Add(s State, batch timestep.Batch) (State, []int) {
	written := make([]int, batch.Len())
	for i := 0; i < batch.Len(); i++ {
		s.writeSlot(s.index, batch.At(i), b.features)
		written[i] = s.index
		s.index = (s.index + 1) % b.Capacity
		if s.size < b.Capacity {
			s.size++
		}
	}
	return s, written
}

// Sample draws BatchSize transitions from the written slots of the
// buffer. When prioritized sampling is configured, slot i is drawn
// with probability proportional to priority(i)^PriorityExponent;
// otherwise slots are drawn uniformly. Sampling requires at least
// BatchSize written slots: the caller must gate on its warm-up
// threshold before sampling.
func (b *Buffer) Sample(s State, stream prng.Stream) (timestep.Batch,
	[]int, error) {

	if s.size < b.BatchSize {
		return timestep.Batch{}, nil, &Error{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
	}

	var indices []int
	if b.Prioritized {
		weights := make([]float64, s.size)
		for i := range weights {
			weights[i] = math.Pow(s.priorities[i], b.PriorityExponent)
		}
		dist := distuv.NewCategorical(weights, stream.Source())

		indices = make([]int, b.BatchSize)
		for i := range indices {
			indices[i] = int(dist.Rand())
		}
	} else {
		rng := stream.Rand()
		indices = make([]int, b.BatchSize)
		for i := range indices {
			indices[i] = rng.Intn(s.size)
		}
	}

	batch := timestep.NewBatch(b.BatchSize, b.features)
	for i, index := range indices {
		start := index * b.features
		for j := 0; j < b.features; j++ {
			batch.LastObs.Set(i, j, s.lastObs[start+j])
			batch.Obs.Set(i, j, s.obs[start+j])
		}
		batch.Actions[i] = int(s.actions[index])
		batch.Rewards[i] = s.rewards[index]
		batch.Dones[i] = s.dones[index] != 0.0
	}
	return batch, indices, nil
}

// SetPriorities overwrites the priority at the given slot indices and
// returns the new State. Every index must reference a previously
// written slot and every weight must be non-negative.
func (b *Buffer) SetPriorities(s State, indices []int,
	weights []float64) (State, error) {

	if len(indices) != len(weights) {
		return s, fmt.Errorf("setpriorities: have %v indices but %v "+
			"weights", len(indices), len(weights))
	}
	for _, index := range indices {
		if index < 0 || index >= s.size {
			return s, &Error{Op: "setpriorities", Err: errUnwrittenSlot}
		}
	}

	priorities := append([]float64(nil), s.priorities...)
	for i, index := range indices {
		priorities[index] = weights[i]
	}
	s.priorities = priorities
	return s, nil
}
