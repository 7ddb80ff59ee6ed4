// Package timestep implements timesteps of the agent-environment interaction
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// TimeStep packages together a single environment transition: the
// observation the action was taken from, the observation it produced,
// the action itself, the reward, and whether the episode ended on this
// step.
type TimeStep struct {
	LastObs mat.Vector
	Obs     mat.Vector
	Action  int
	Reward  float64
	Done    bool
}

func New(lastObs, obs mat.Vector, action int, reward float64,
	done bool) TimeStep {
	return TimeStep{lastObs, obs, action, reward, done}
}

func (t TimeStep) String() string {
	str := "TimeStep | Action: %d  |  Reward:  %.2f  |  Done: %v"

	return fmt.Sprintf(str, t.Action, t.Reward, t.Done)
}

// Batch holds a fixed number of timesteps in struct-of-slices form,
// one row per transition. Batches are ephemeral: they are produced by
// a rollout or a buffer sample and consumed immediately.
type Batch struct {
	LastObs *mat.Dense // Each row is the previous observation
	Obs     *mat.Dense // Each row is the resulting observation
	Actions []int
	Rewards []float64
	Dones   []bool
}

// NewBatch returns an empty Batch with room for n transitions of
// observations with the given number of features.
func NewBatch(n, features int) Batch {
	return Batch{
		LastObs: mat.NewDense(n, features, nil),
		Obs:     mat.NewDense(n, features, nil),
		Actions: make([]int, n),
		Rewards: make([]float64, n),
		Dones:   make([]bool, n),
	}
}

// Len returns the number of transitions in the Batch
func (b Batch) Len() int {
	return len(b.Actions)
}

// Features returns the number of observation features per transition
func (b Batch) Features() int {
	_, c := b.Obs.Dims()
	return c
}

// Set overwrites transition i of the Batch
func (b Batch) Set(i int, t TimeStep) {
	for j := 0; j < t.LastObs.Len(); j++ {
		b.LastObs.Set(i, j, t.LastObs.AtVec(j))
		b.Obs.Set(i, j, t.Obs.AtVec(j))
	}
	b.Actions[i] = t.Action
	b.Rewards[i] = t.Reward
	b.Dones[i] = t.Done
}

// At returns transition i of the Batch
func (b Batch) At(i int) TimeStep {
	return TimeStep{
		LastObs: b.LastObs.RowView(i),
		Obs:     b.Obs.RowView(i),
		Action:  b.Actions[i],
		Reward:  b.Rewards[i],
		Done:    b.Dones[i],
	}
}
