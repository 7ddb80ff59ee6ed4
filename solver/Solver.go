// Package solver implements gradient-based optimizers over network
// parameter values. Solvers are pure: a step takes parameters,
// gradients, and the optimizer's own state, and returns new values for
// the parameters and the state.
package solver

import "github.com/qvecrl/qvec/network"

// State holds an optimizer's internal estimates. State is a value
// threaded through every step; the zero State is not valid, use
// a Solver's Init.
type State struct {
	M     network.Params // First moment estimates
	V     network.Params // Second moment estimates
	Count int            // Steps taken
}

// Solver adapts network parameters using gradients
type Solver interface {
	// Init allocates the optimizer state for parameters of p's shape
	Init(p network.Params) State

	// Step applies one optimization step, returning the updated
	// parameters and optimizer state. No argument is modified.
	Step(p, grads network.Params, s State) (network.Params, State)
}
