package network

import (
	"fmt"
	"math"
)

type activationType string

const (
	relu     activationType = "relu"
	identity activationType = "identity"
	tanh     activationType = "tanh"
)

// Activation represents an activation function type. An Activation
// carries both the function and its derivative with respect to the
// pre-activation input, so networks can run their own backward pass.
type Activation struct {
	activationType
	f     func(x float64) float64
	deriv func(x float64) float64
}

// Fwd computes the activation at x
func (a *Activation) Fwd(x float64) float64 {
	return a.f(x)
}

// Deriv computes the derivative of the activation with respect to its
// pre-activation input x
func (a *Activation) Deriv(x float64) float64 {
	return a.deriv(x)
}

// String implements the Stringer interface
func (a *Activation) String() string {
	return string(a.activationType)
}

// IsIdentity returns whether or not the Activation is the identity
// function.
func (a *Activation) IsIdentity() bool {
	return a.activationType == identity
}

// GobEncode implements the GobEncoder interface
func (a *Activation) GobEncode() ([]byte, error) {
	return []byte(a.activationType), nil
}

// GobDecode implements the GobDecoder interface
func (a *Activation) GobDecode(encoded []byte) error {
	decoded, err := ActivationFromString(string(encoded))
	if err != nil {
		return fmt.Errorf("gobdecode: illegal Activation type")
	}
	*a = *decoded
	return nil
}

// ActivationFromString returns the Activation named by a configuration
// string
func ActivationFromString(name string) (*Activation, error) {
	switch activationType(name) {
	case relu:
		return ReLU(), nil
	case tanh:
		return TanH(), nil
	case identity:
		return Identity(), nil
	default:
		return nil, fmt.Errorf("activationfromstring: no such "+
			"activation %q", name)
	}
}

// Identity returns an identity *Activation
func Identity() *Activation {
	return &Activation{
		activationType: identity,
		f:              func(x float64) float64 { return x },
		deriv:          func(x float64) float64 { return 1.0 },
	}
}

// ReLU returns a ReLU *Activation
func ReLU() *Activation {
	return &Activation{
		activationType: relu,
		f: func(x float64) float64 {
			return math.Max(x, 0.0)
		},
		deriv: func(x float64) float64 {
			if x > 0.0 {
				return 1.0
			}
			return 0.0
		},
	}
}

// TanH returns a tanh *Activation
func TanH() *Activation {
	return &Activation{
		activationType: tanh,
		f:              math.Tanh,
		deriv: func(x float64) float64 {
			y := math.Tanh(x)
			return 1.0 - y*y
		},
	}
}
