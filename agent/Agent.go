// Package agent defines the algorithm interface shared by value-based
// training algorithms.
//
// An Algorithm carries no training progress of its own: progress lives
// in an opaque State value that Init creates and Train threads through
// every call. The same Algorithm value can drive any number of
// independent runs, each with its own State.
package agent

import (
	"gonum.org/v1/gonum/mat"

	"github.com/qvecrl/qvec/hpo"
	"github.com/qvecrl/qvec/prng"
)

// State is the complete, serializable snapshot of one training run.
// Concrete algorithms define their own State type; callers treat it
// as opaque and hand it back unchanged.
type State interface{}

// Result records what a Train call produced: the global step counter
// after training, one loss per outer iteration, and the rewards of
// every periodic evaluation (one row per evaluation, one value per
// episode).
type Result struct {
	GlobalStep  int
	Losses      []float64
	EvalRewards [][]float64
}

// TrainFunc runs training from a snapshot and returns the new
// snapshot. Objective wrappers compose around this signature.
type TrainFunc func(State) (State, Result, error)

// Algorithm is a value-based training algorithm. Init, Train, and
// Predict are pure with respect to the Algorithm: all run progress is
// threaded through State values.
type Algorithm interface {
	// HPOConfigSpace declares the algorithm's tunable hyperparameters
	HPOConfigSpace() hpo.ConfigSpace

	// DefaultHPOConfig returns the default hyperparameter assignment
	DefaultHPOConfig() hpo.Config

	// NASConfigSpace declares the algorithm's architecture choices
	NASConfigSpace() hpo.ConfigSpace

	// DefaultNASConfig returns the default architecture assignment
	DefaultNASConfig() hpo.Config

	// Init creates the initial snapshot for a fresh run
	Init(stream prng.Stream) (State, error)

	// Train advances a run and returns the new snapshot
	Train(s State) (State, Result, error)

	// Predict returns the greedy action for each observation row
	Predict(s State, obs mat.Matrix, stream prng.Stream) ([]int, error)
}
