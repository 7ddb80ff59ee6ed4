package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Params holds the weights and biases of a fully connected network.
// Params is a value: no operation in this package ever modifies a
// Params in place. Weights[i] has shape (fanIn, fanOut) for layer i
// and Biases[i] has length fanOut.
type Params struct {
	Weights []*mat.Dense
	Biases  []*mat.VecDense
}

// NumLayers returns the number of layers described by the Params
func (p Params) NumLayers() int {
	return len(p.Weights)
}

// Clone returns a deep copy of the Params
func (p Params) Clone() Params {
	weights := make([]*mat.Dense, len(p.Weights))
	biases := make([]*mat.VecDense, len(p.Biases))
	for i := range p.Weights {
		weights[i] = mat.DenseCopyOf(p.Weights[i])
		biases[i] = mat.VecDenseCopyOf(p.Biases[i])
	}
	return Params{Weights: weights, Biases: biases}
}

// Equal returns whether two Params hold bit-identical values
func (p Params) Equal(o Params) bool {
	if len(p.Weights) != len(o.Weights) {
		return false
	}
	for i := range p.Weights {
		if !mat.Equal(p.Weights[i], o.Weights[i]) {
			return false
		}
		if !mat.Equal(p.Biases[i], o.Biases[i]) {
			return false
		}
	}
	return true
}

// ZerosLike returns a Params of the same shape as p with every value
// set to 0. Optimizers use this to allocate moment estimates.
func ZerosLike(p Params) Params {
	weights := make([]*mat.Dense, len(p.Weights))
	biases := make([]*mat.VecDense, len(p.Biases))
	for i := range p.Weights {
		r, c := p.Weights[i].Dims()
		weights[i] = mat.NewDense(r, c, nil)
		biases[i] = mat.NewVecDense(p.Biases[i].Len(), nil)
	}
	return Params{Weights: weights, Biases: biases}
}

// Polyak blends online parameters into target parameters:
//
//	target <- tau*online + (1-tau)*target
//
// A tau of 1 is a hard copy. The blend is returned as a new value;
// neither argument is modified.
func Polyak(online, target Params, tau float64) Params {
	blended := make([]*mat.Dense, len(target.Weights))
	biases := make([]*mat.VecDense, len(target.Biases))
	for i := range target.Weights {
		r, c := target.Weights[i].Dims()
		w := mat.NewDense(r, c, nil)
		w.Scale(tau, online.Weights[i])

		old := mat.NewDense(r, c, nil)
		old.Scale(1.0-tau, target.Weights[i])
		w.Add(w, old)
		blended[i] = w

		b := mat.NewVecDense(target.Biases[i].Len(), nil)
		b.AddScaledVec(b, tau, online.Biases[i])
		b.AddScaledVec(b, 1.0-tau, target.Biases[i])
		biases[i] = b
	}
	return Params{Weights: blended, Biases: biases}
}

// paramsDump is the serialized form of Params
type paramsDump struct {
	WeightRows []int
	WeightCols []int
	Weights    [][]float64
	Biases     [][]float64
}

// GobEncode implements the GobEncoder interface
func (p Params) GobEncode() ([]byte, error) {
	dump := paramsDump{
		WeightRows: make([]int, len(p.Weights)),
		WeightCols: make([]int, len(p.Weights)),
		Weights:    make([][]float64, len(p.Weights)),
		Biases:     make([][]float64, len(p.Biases)),
	}
	for i, w := range p.Weights {
		r, c := w.Dims()
		dump.WeightRows[i] = r
		dump.WeightCols[i] = c
		dump.Weights[i] = append([]float64(nil), w.RawMatrix().Data...)
		dump.Biases[i] = append([]float64(nil),
			p.Biases[i].RawVector().Data...)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(dump); err != nil {
		return nil, fmt.Errorf("gobencode: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the GobDecoder interface
func (p *Params) GobDecode(encoded []byte) error {
	var dump paramsDump
	err := gob.NewDecoder(bytes.NewReader(encoded)).Decode(&dump)
	if err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}

	p.Weights = make([]*mat.Dense, len(dump.Weights))
	p.Biases = make([]*mat.VecDense, len(dump.Biases))
	for i := range dump.Weights {
		p.Weights[i] = mat.NewDense(dump.WeightRows[i], dump.WeightCols[i],
			dump.Weights[i])
		p.Biases[i] = mat.NewVecDense(len(dump.Biases[i]), dump.Biases[i])
	}
	return nil
}
