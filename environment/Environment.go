// Package environment outlines the interfaces needed to implement
// concrete vectorized environments.
//
// Environments here are functional: they never hold mutable episode
// state. Reset and Step take an explicit State value and return the
// next one, and every call that needs entropy receives its own
// prng.Stream. All observations, rewards, and done flags are batched
// over the environment dimension, one row or element per parallel
// environment.
package environment

import (
	"gonum.org/v1/gonum/mat"

	"github.com/qvecrl/qvec/prng"
)

// State is the opaque, immutable state of a vectorized environment
type State interface{}

// Step packages the result of stepping every parallel environment
// once. Each row of Obs, and each element of Rewards and Dones,
// belongs to one environment.
type Step struct {
	Obs     *mat.Dense
	Rewards []float64
	Dones   []bool
}

// Environment implements a batch of simulated environments stepped in
// lockstep. Environments that finish an episode report Done for that
// step and reset themselves automatically.
type Environment interface {
	// Reset starts every environment in the batch at a fresh episode
	Reset(stream prng.Stream) (State, *mat.Dense)

	// Step applies one action per environment
	Step(state State, actions []int, stream prng.Stream) (State, Step, error)

	// SampleAction draws a single action from the action space
	SampleAction(stream prng.Stream) int

	ActionSpec() Spec
	ObservationSpec() Spec

	// NEnvs returns the number of parallel environments in the batch
	NEnvs() int

	// MaxEpisodeSteps returns the step count at which an episode is
	// truncated
	MaxEpisodeSteps() int
}
