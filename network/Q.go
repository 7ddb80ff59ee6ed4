// Package network implements value-function networks as pure functions
// of explicit parameter values. A network object holds only its
// architecture; every weight lives in a Params value threaded through
// the caller's state.
package network

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/qvecrl/qvec/prng"
)

// Network maps (parameters, observation) to action values. Apply must
// be a pure function: the same parameters and observations always
// produce the same values, and nothing is modified in place.
type Network interface {
	// Init allocates fresh parameters. The sample observation is used
	// only to learn the feature dimension.
	Init(stream prng.Stream, sampleObs mat.Vector) Params

	// Apply computes one row of action values per observation row
	Apply(p Params, obs mat.Matrix) *mat.Dense

	// Outputs returns the number of action values per observation
	Outputs() int
}

// Q is a fully connected action-value network with two hidden layers
// of equal width.
type Q struct {
	actions int
	hidden  int
	act     *Activation
}

// NewQ returns a new Q-network architecture with the given number of
// output actions, hidden layer width, and hidden activation.
func NewQ(actions, hidden int, act *Activation) *Q {
	return &Q{actions: actions, hidden: hidden, act: act}
}

// Outputs returns the number of action values the network produces
func (q *Q) Outputs() int {
	return q.actions
}

// Init allocates Glorot-uniform weights and zero biases for every
// layer. The same stream always yields the same parameters.
func (q *Q) Init(stream prng.Stream, sampleObs mat.Vector) Params {
	features := sampleObs.Len()
	dims := []int{features, q.hidden, q.hidden, q.actions}

	rng := stream.Rand()
	weights := make([]*mat.Dense, len(dims)-1)
	biases := make([]*mat.VecDense, len(dims)-1)
	for i := 0; i < len(dims)-1; i++ {
		fanIn, fanOut := dims[i], dims[i+1]
		limit := math.Sqrt(6.0 / float64(fanIn+fanOut))

		data := make([]float64, fanIn*fanOut)
		for j := range data {
			data[j] = (rng.Float64()*2.0 - 1.0) * limit
		}
		weights[i] = mat.NewDense(fanIn, fanOut, data)
		biases[i] = mat.NewVecDense(fanOut, nil)
	}
	return Params{Weights: weights, Biases: biases}
}

// Apply computes the action values for a batch of observations. Each
// row of obs is one observation; each row of the result holds its
// action values.
func (q *Q) Apply(p Params, obs mat.Matrix) *mat.Dense {
	activations, _ := q.forward(p, obs)
	return activations[len(activations)-1]
}

// forward runs the full forward pass, returning the post-activation
// output of every layer (the input counts as layer 0) along with the
// pre-activation values needed by the backward pass.
func (q *Q) forward(p Params, obs mat.Matrix) ([]*mat.Dense, []*mat.Dense) {
	batch, _ := obs.Dims()

	activations := make([]*mat.Dense, p.NumLayers()+1)
	preActivations := make([]*mat.Dense, p.NumLayers())
	activations[0] = mat.DenseCopyOf(obs)

	for i := 0; i < p.NumLayers(); i++ {
		_, out := p.Weights[i].Dims()

		z := mat.NewDense(batch, out, nil)
		z.Mul(activations[i], p.Weights[i])
		for r := 0; r < batch; r++ {
			for c := 0; c < out; c++ {
				z.Set(r, c, z.At(r, c)+p.Biases[i].AtVec(c))
			}
		}
		preActivations[i] = z

		// The output layer is linear
		if i == p.NumLayers()-1 {
			activations[i+1] = z
			continue
		}

		a := mat.NewDense(batch, out, nil)
		a.Apply(func(_, _ int, v float64) float64 {
			return q.act.Fwd(v)
		}, z)
		activations[i+1] = a
	}
	return activations, preActivations
}

// Gradients computes the mean squared error between the action values
// predicted at the taken actions and the regression targets, together
// with the gradient of that loss with respect to p. It returns the
// loss, the predicted value for every transition, and the gradients in
// Params form. p is not modified.
func (q *Q) Gradients(p Params, obs mat.Matrix, actions []int,
	targets []float64) (float64, []float64, Params) {

	batch := len(actions)
	activations, preActivations := q.forward(p, obs)
	output := activations[len(activations)-1]

	// Loss and its derivative with respect to the output layer. Only
	// the value at the taken action contributes for each transition.
	loss := 0.0
	predicted := make([]float64, batch)
	delta := mat.NewDense(batch, q.actions, nil)
	for i := 0; i < batch; i++ {
		predicted[i] = output.At(i, actions[i])
		diff := predicted[i] - targets[i]
		loss += diff * diff / float64(batch)
		delta.Set(i, actions[i], 2.0*diff/float64(batch))
	}

	grads := ZerosLike(p)
	for layer := p.NumLayers() - 1; layer >= 0; layer-- {
		// Hidden layers pass delta through the activation derivative;
		// the output layer is linear so its delta is used as is.
		if layer < p.NumLayers()-1 {
			deriv := mat.NewDense(batch, p.Biases[layer].Len(), nil)
			deriv.Apply(func(_, _ int, v float64) float64 {
				return q.act.Deriv(v)
			}, preActivations[layer])
			delta.MulElem(delta, deriv)
		}

		grads.Weights[layer].Mul(activations[layer].T(), delta)
		r, c := delta.Dims()
		for col := 0; col < c; col++ {
			sum := 0.0
			for row := 0; row < r; row++ {
				sum += delta.At(row, col)
			}
			grads.Biases[layer].SetVec(col, sum)
		}

		if layer > 0 {
			in, _ := p.Weights[layer].Dims()
			next := mat.NewDense(batch, in, nil)
			next.Mul(delta, p.Weights[layer].T())
			delta = next
		}
	}
	return loss, predicted, grads
}
