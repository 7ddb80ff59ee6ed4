package network

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/qvecrl/qvec/prng"
)

func TestInitIsDeterministicPerStream(t *testing.T) {
	q := NewQ(3, 16, TanH())
	obs := mat.NewVecDense(4, []float64{0.1, 0.2, 0.3, 0.4})

	first := q.Init(prng.NewStream(99), obs)
	second := q.Init(prng.NewStream(99), obs)
	assert.True(t, first.Equal(second))

	other := q.Init(prng.NewStream(100), obs)
	assert.False(t, first.Equal(other))
}

func TestInitShapesAndBounds(t *testing.T) {
	q := NewQ(3, 16, TanH())
	obs := mat.NewVecDense(4, nil)

	p := q.Init(prng.NewStream(1), obs)
	require.Equal(t, 3, p.NumLayers())

	dims := []int{4, 16, 16, 3}
	for i := 0; i < p.NumLayers(); i++ {
		r, c := p.Weights[i].Dims()
		assert.Equal(t, dims[i], r)
		assert.Equal(t, dims[i+1], c)
		assert.Equal(t, dims[i+1], p.Biases[i].Len())

		limit := math.Sqrt(6.0 / float64(dims[i]+dims[i+1]))
		for row := 0; row < r; row++ {
			for col := 0; col < c; col++ {
				assert.LessOrEqual(t, math.Abs(p.Weights[i].At(row, col)),
					limit)
			}
		}
		for j := 0; j < p.Biases[i].Len(); j++ {
			assert.Zero(t, p.Biases[i].AtVec(j))
		}
	}
}

func TestApplyDims(t *testing.T) {
	q := NewQ(2, 8, ReLU())
	p := q.Init(prng.NewStream(3), mat.NewVecDense(4, nil))

	obs := mat.NewDense(5, 4, nil)
	values := q.Apply(p, obs)

	r, c := values.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 2, c)
}

// handParams builds a tiny network whose action values can be computed
// by hand: identity activations and weights that copy, sum, and negate
// the two input features.
func handParams() Params {
	return Params{
		Weights: []*mat.Dense{
			mat.NewDense(2, 2, []float64{
				1, 0,
				0, 1,
			}),
			mat.NewDense(2, 2, []float64{
				1, 0,
				0, 1,
			}),
			mat.NewDense(2, 2, []float64{
				1, -1,
				1, 1,
			}),
		},
		Biases: []*mat.VecDense{
			mat.NewVecDense(2, nil),
			mat.NewVecDense(2, nil),
			mat.NewVecDense(2, []float64{0.5, 0.0}),
		},
	}
}

func TestApplyMatchesHandComputation(t *testing.T) {
	q := NewQ(2, 2, Identity())
	p := handParams()

	obs := mat.NewDense(2, 2, []float64{
		1, 2,
		-3, 1,
	})
	values := q.Apply(p, obs)

	// Row one: [1+2+0.5, -1+2] = [3.5, 1]
	assert.InDelta(t, 3.5, values.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, values.At(0, 1), 1e-12)

	// Row two: [-3+1+0.5, 3+1] = [-1.5, 4]
	assert.InDelta(t, -1.5, values.At(1, 0), 1e-12)
	assert.InDelta(t, 4.0, values.At(1, 1), 1e-12)
}

func TestApplyDoesNotModifyParams(t *testing.T) {
	q := NewQ(2, 8, TanH())
	p := q.Init(prng.NewStream(5), mat.NewVecDense(3, nil))
	saved := p.Clone()

	q.Apply(p, mat.NewDense(4, 3, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
		10, 11, 12,
	}))
	assert.True(t, p.Equal(saved))
}

func TestGradientsLossAndPredicted(t *testing.T) {
	q := NewQ(2, 2, Identity())
	p := handParams()

	obs := mat.NewDense(2, 2, []float64{
		1, 2,
		-3, 1,
	})
	actions := []int{0, 1}
	targets := []float64{3.0, 5.0}

	loss, predicted, _ := q.Gradients(p, obs, actions, targets)

	// Predictions at the taken actions are 3.5 and 4
	assert.InDelta(t, 3.5, predicted[0], 1e-12)
	assert.InDelta(t, 4.0, predicted[1], 1e-12)

	// Mean over two squared errors 0.25 and 1
	assert.InDelta(t, 0.625, loss, 1e-12)
}

// TestGradientsMatchFiniteDifferences perturbs every parameter in turn
// and checks the analytic gradient against the centered difference
// quotient of the loss.
func TestGradientsMatchFiniteDifferences(t *testing.T) {
	q := NewQ(3, 5, TanH())
	p := q.Init(prng.NewStream(17), mat.NewVecDense(4, nil))

	stream := prng.NewStream(18)
	rng := stream.Rand()
	obs := mat.NewDense(6, 4, nil)
	obs.Apply(func(_, _ int, _ float64) float64 {
		return rng.Float64()*2 - 1
	}, obs)
	actions := []int{0, 2, 1, 1, 0, 2}
	targets := []float64{0.3, -0.2, 0.7, 0.1, -0.5, 0.9}

	_, _, grads := q.Gradients(p, obs, actions, targets)

	const h = 1e-6
	lossAt := func(p Params) float64 {
		loss, _, _ := q.Gradients(p, obs, actions, targets)
		return loss
	}

	for layer := 0; layer < p.NumLayers(); layer++ {
		r, c := p.Weights[layer].Dims()
		for row := 0; row < r; row++ {
			for col := 0; col < c; col++ {
				orig := p.Weights[layer].At(row, col)

				p.Weights[layer].Set(row, col, orig+h)
				plus := lossAt(p)
				p.Weights[layer].Set(row, col, orig-h)
				minus := lossAt(p)
				p.Weights[layer].Set(row, col, orig)

				numeric := (plus - minus) / (2 * h)
				assert.InDelta(t, numeric, grads.Weights[layer].At(row, col),
					1e-4)
			}
		}

		for j := 0; j < p.Biases[layer].Len(); j++ {
			orig := p.Biases[layer].AtVec(j)

			p.Biases[layer].SetVec(j, orig+h)
			plus := lossAt(p)
			p.Biases[layer].SetVec(j, orig-h)
			minus := lossAt(p)
			p.Biases[layer].SetVec(j, orig)

			numeric := (plus - minus) / (2 * h)
			assert.InDelta(t, numeric, grads.Biases[layer].AtVec(j), 1e-4)
		}
	}
}
