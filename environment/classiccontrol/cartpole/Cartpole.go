// Package cartpole implements the Cartpole classic control environment
// as a vectorized batch.
//
// A pole is attached to a cart which can be pushed left or right. An
// episode earns reward 1 on every step and ends when the pole falls
// past the failure angle, the cart leaves the track, or the step cap
// is reached. Every environment in the batch that ends an episode
// reports done for that step and restarts itself at a fresh uniform
// start state on the same step.
//
// The environment is functional: Reset and Step take and return
// explicit State values and draw all entropy from the streams they are
// handed.
package cartpole

import (
	"encoding/gob"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	env "github.com/qvecrl/qvec/environment"
	"github.com/qvecrl/qvec/prng"
)

const (
	// Physical constants
	Gravity        float64 = 9.8
	CartMass       float64 = 1.0
	PoleMass       float64 = 0.1
	TotalMass      float64 = CartMass + PoleMass
	HalfPoleLength float64 = 0.5  // half of pole length
	ForceMag       float64 = 10.0 // Magnitude of force applied
	Dt             float64 = 0.02 // Seconds between state updates

	// Episode failure thresholds
	PositionThreshold float64 = 2.4
	AngleThreshold    float64 = 12.0 * 2.0 * math.Pi / 360.0

	// Bound (+/-) on uniformly drawn start state features
	StartBound float64 = 0.05

	// Episodes are truncated at this many steps
	StepLimit int = 500

	numActions  int = 2
	numFeatures int = 4
)

func init() {
	gob.Register(State{})
}

// State is the state of every environment in the batch: the cart
// position and speed, the pole angle and angular velocity, and the
// per-environment episode step counters.
type State struct {
	X        []float64
	XDot     []float64
	Theta    []float64
	ThetaDot []float64
	Steps    []int
}

// clone returns a deep copy of the State
func (s State) clone() State {
	return State{
		X:        append([]float64(nil), s.X...),
		XDot:     append([]float64(nil), s.XDot...),
		Theta:    append([]float64(nil), s.Theta...),
		ThetaDot: append([]float64(nil), s.ThetaDot...),
		Steps:    append([]int(nil), s.Steps...),
	}
}

// Cartpole implements a batch of cartpole environments stepped in
// lockstep
type Cartpole struct {
	nEnvs int
}

// New returns a new Cartpole batch of nEnvs parallel environments
func New(nEnvs int) (*Cartpole, error) {
	if nEnvs < 1 {
		return nil, fmt.Errorf("new: nEnvs must be >= 1")
	}
	return &Cartpole{nEnvs: nEnvs}, nil
}

// NEnvs implements the environment.Environment interface
func (c *Cartpole) NEnvs() int {
	return c.nEnvs
}

// MaxEpisodeSteps implements the environment.Environment interface
func (c *Cartpole) MaxEpisodeSteps() int {
	return StepLimit
}

// Reset starts every environment in the batch at a fresh episode with
// all four state features drawn uniformly from (-StartBound,
// StartBound)
func (c *Cartpole) Reset(stream prng.Stream) (env.State, *mat.Dense) {
	s := State{
		X:        make([]float64, c.nEnvs),
		XDot:     make([]float64, c.nEnvs),
		Theta:    make([]float64, c.nEnvs),
		ThetaDot: make([]float64, c.nEnvs),
		Steps:    make([]int, c.nEnvs),
	}

	streams := prng.SplitN(stream, c.nEnvs)
	for i := 0; i < c.nEnvs; i++ {
		c.startEnv(&s, i, streams[i])
	}
	return s, c.observations(s)
}

// startEnv starts environment i at a uniform start state
func (c *Cartpole) startEnv(s *State, i int, stream prng.Stream) {
	dist := distuv.Uniform{
		Min: -StartBound,
		Max: StartBound,
		Src: stream.Source(),
	}
	s.X[i] = dist.Rand()
	s.XDot[i] = dist.Rand()
	s.Theta[i] = dist.Rand()
	s.ThetaDot[i] = dist.Rand()
	s.Steps[i] = 0
}

// Step pushes every cart with its action's force and integrates the
// dynamics by one Euler step
func (c *Cartpole) Step(state env.State, actions []int,
	stream prng.Stream) (env.State, env.Step, error) {

	s, ok := state.(State)
	if !ok {
		return state, env.Step{}, fmt.Errorf("step: not a cartpole state")
	}
	if len(actions) != c.nEnvs {
		return state, env.Step{}, fmt.Errorf("step: have %v actions for "+
			"%v environments", len(actions), c.nEnvs)
	}

	next := s.clone()
	rewards := make([]float64, c.nEnvs)
	dones := make([]bool, c.nEnvs)

	resetStreams := prng.SplitN(stream, c.nEnvs)
	for i := 0; i < c.nEnvs; i++ {
		force := -ForceMag
		if actions[i] == 1 {
			force = ForceMag
		}

		cosTheta := math.Cos(next.Theta[i])
		sinTheta := math.Sin(next.Theta[i])

		temp := (force + PoleMass*HalfPoleLength*next.ThetaDot[i]*
			next.ThetaDot[i]*sinTheta) / TotalMass
		thetaAcc := (Gravity*sinTheta - cosTheta*temp) / (HalfPoleLength *
			(4.0/3.0 - PoleMass*cosTheta*cosTheta/TotalMass))
		xAcc := temp - PoleMass*HalfPoleLength*thetaAcc*cosTheta/TotalMass

		next.X[i] += Dt * next.XDot[i]
		next.XDot[i] += Dt * xAcc
		next.Theta[i] += Dt * next.ThetaDot[i]
		next.ThetaDot[i] += Dt * thetaAcc
		next.Steps[i]++

		rewards[i] = 1.0
		dones[i] = math.Abs(next.X[i]) > PositionThreshold ||
			math.Abs(next.Theta[i]) > AngleThreshold ||
			next.Steps[i] >= StepLimit

		if dones[i] {
			c.startEnv(&next, i, resetStreams[i])
		}
	}
	return next, env.Step{
		Obs:     c.observations(next),
		Rewards: rewards,
		Dones:   dones,
	}, nil
}

// SampleAction implements the environment.Environment interface
func (c *Cartpole) SampleAction(stream prng.Stream) int {
	return stream.Rand().Intn(numActions)
}

// observations packages the batch state as one observation row per
// environment
func (c *Cartpole) observations(s State) *mat.Dense {
	obs := mat.NewDense(c.nEnvs, numFeatures, nil)
	for i := 0; i < c.nEnvs; i++ {
		obs.Set(i, 0, s.X[i])
		obs.Set(i, 1, s.XDot[i])
		obs.Set(i, 2, s.Theta[i])
		obs.Set(i, 3, s.ThetaDot[i])
	}
	return obs
}

// ActionSpec implements the environment.Environment interface
func (c *Cartpole) ActionSpec() env.Spec {
	return env.Spec{
		Shape:       mat.NewVecDense(1, []float64{1}),
		Type:        env.Action,
		LowerBound:  mat.NewVecDense(1, []float64{0}),
		UpperBound:  mat.NewVecDense(1, []float64{float64(numActions - 1)}),
		Cardinality: env.Discrete,
	}
}

// ObservationSpec implements the environment.Environment interface
func (c *Cartpole) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(numFeatures, nil)
	lower := mat.NewVecDense(numFeatures, []float64{
		-PositionThreshold, math.Inf(-1), -AngleThreshold, math.Inf(-1),
	})
	upper := mat.NewVecDense(numFeatures, []float64{
		PositionThreshold, math.Inf(1), AngleThreshold, math.Inf(1),
	})
	return env.Spec{
		Shape:       shape,
		Type:        env.Observation,
		LowerBound:  lower,
		UpperBound:  upper,
		Cardinality: env.Continuous,
	}
}
