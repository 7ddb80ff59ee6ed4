package network

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/qvecrl/qvec/prng"
)

func TestCloneIsIndependent(t *testing.T) {
	q := NewQ(2, 4, TanH())
	p := q.Init(prng.NewStream(7), mat.NewVecDense(3, nil))

	clone := p.Clone()
	assert.True(t, p.Equal(clone))

	clone.Weights[0].Set(0, 0, 1e6)
	clone.Biases[0].SetVec(0, 1e6)
	assert.False(t, p.Equal(clone))
	assert.NotEqual(t, 1e6, p.Weights[0].At(0, 0))
}

func TestPolyakBlends(t *testing.T) {
	online := Params{
		Weights: []*mat.Dense{mat.NewDense(1, 2, []float64{2, 4})},
		Biases:  []*mat.VecDense{mat.NewVecDense(2, []float64{2, 4})},
	}
	target := Params{
		Weights: []*mat.Dense{mat.NewDense(1, 2, []float64{0, 8})},
		Biases:  []*mat.VecDense{mat.NewVecDense(2, []float64{0, 8})},
	}

	blended := Polyak(online, target, 0.25)
	assert.InDelta(t, 0.5, blended.Weights[0].At(0, 0), 1e-12)
	assert.InDelta(t, 7.0, blended.Weights[0].At(0, 1), 1e-12)
	assert.InDelta(t, 0.5, blended.Biases[0].AtVec(0), 1e-12)
	assert.InDelta(t, 7.0, blended.Biases[0].AtVec(1), 1e-12)

	// Neither argument changes
	assert.Equal(t, 2.0, online.Weights[0].At(0, 0))
	assert.Equal(t, 0.0, target.Weights[0].At(0, 0))
}

func TestPolyakTauOneIsHardCopy(t *testing.T) {
	q := NewQ(3, 8, ReLU())
	online := q.Init(prng.NewStream(11), mat.NewVecDense(4, nil))
	target := q.Init(prng.NewStream(12), mat.NewVecDense(4, nil))
	require.False(t, online.Equal(target))

	blended := Polyak(online, target, 1.0)
	assert.True(t, blended.Equal(online))
}

func TestParamsGobRoundTrip(t *testing.T) {
	q := NewQ(2, 6, TanH())
	p := q.Init(prng.NewStream(23), mat.NewVecDense(5, nil))

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(p))

	var decoded Params
	require.NoError(t, gob.NewDecoder(&buf).Decode(&decoded))
	assert.True(t, p.Equal(decoded))
}
