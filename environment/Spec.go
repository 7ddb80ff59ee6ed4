package environment

import "gonum.org/v1/gonum/mat"

// Cardinality indicates whether the associated type is continuous or
// discrete
type Cardinality int

const (
	Discrete Cardinality = iota
	Continuous
)

func (c Cardinality) String() string {
	switch c {
	case Discrete:
		return "Discrete"
	case Continuous:
		return "Continuous"
	default:
		return "Unknown"
	}
}

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an action, an observation, a discount, or a
// reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

// Spec implements a specification, which tells the type, shape, and
// bounds of an action, observation, discount, or reward
type Spec struct {
	Shape      mat.Vector
	Type       SpecType
	LowerBound mat.Vector
	UpperBound mat.Vector
	Cardinality
}

// NumActions returns the number of available actions for a discrete
// action Spec. Actions are enumerated from 0.
func (s Spec) NumActions() int {
	if s.Type != Action || s.Cardinality != Discrete {
		return 0
	}
	return int(s.UpperBound.AtVec(0)) + 1
}
