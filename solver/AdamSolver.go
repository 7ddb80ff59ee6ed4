package solver

import (
	"math"

	"github.com/qvecrl/qvec/network"
)

// Adam implements the Adam optimizer with bias-corrected moment
// estimates.
type Adam struct {
	stepSize float64
	epsilon  float64
	beta1    float64
	beta2    float64
}

// NewAdam returns a new Adam Solver
func NewAdam(stepSize, epsilon, beta1, beta2 float64) *Adam {
	return &Adam{
		stepSize: stepSize,
		epsilon:  epsilon,
		beta1:    beta1,
		beta2:    beta2,
	}
}

// NewDefaultAdam returns a new Adam Solver with default smoothing and
// decay hyperparameters
func NewDefaultAdam(stepSize float64) *Adam {
	return NewAdam(stepSize, 1e-5, 0.9, 0.999)
}

// Init allocates zeroed moment estimates shaped like p
func (a *Adam) Init(p network.Params) State {
	return State{
		M:     network.ZerosLike(p),
		V:     network.ZerosLike(p),
		Count: 0,
	}
}

// Step applies one Adam update. The inputs are left untouched; the
// updated parameters and moments are returned as new values.
func (a *Adam) Step(p, grads network.Params, s State) (network.Params,
	State) {

	updated := p.Clone()
	next := State{M: s.M.Clone(), V: s.V.Clone(), Count: s.Count + 1}

	correction1 := 1.0 - math.Pow(a.beta1, float64(next.Count))
	correction2 := 1.0 - math.Pow(a.beta2, float64(next.Count))

	for i := range p.Weights {
		m := next.M.Weights[i]
		v := next.V.Weights[i]
		g := grads.Weights[i]
		w := updated.Weights[i]

		r, c := w.Dims()
		for row := 0; row < r; row++ {
			for col := 0; col < c; col++ {
				grad := g.At(row, col)
				mNew := a.beta1*m.At(row, col) + (1.0-a.beta1)*grad
				vNew := a.beta2*v.At(row, col) + (1.0-a.beta2)*grad*grad
				m.Set(row, col, mNew)
				v.Set(row, col, vNew)

				mHat := mNew / correction1
				vHat := vNew / correction2
				w.Set(row, col, w.At(row, col)-
					a.stepSize*mHat/(math.Sqrt(vHat)+a.epsilon))
			}
		}

		mb := next.M.Biases[i]
		vb := next.V.Biases[i]
		gb := grads.Biases[i]
		b := updated.Biases[i]
		for j := 0; j < b.Len(); j++ {
			grad := gb.AtVec(j)
			mNew := a.beta1*mb.AtVec(j) + (1.0-a.beta1)*grad
			vNew := a.beta2*vb.AtVec(j) + (1.0-a.beta2)*grad*grad
			mb.SetVec(j, mNew)
			vb.SetVec(j, vNew)

			mHat := mNew / correction1
			vHat := vNew / correction2
			b.SetVec(j, b.AtVec(j)-
				a.stepSize*mHat/(math.Sqrt(vHat)+a.epsilon))
		}
	}
	return updated, next
}
