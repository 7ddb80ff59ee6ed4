package dqn

import (
	"gonum.org/v1/gonum/mat"

	"github.com/qvecrl/qvec/environment"
	"github.com/qvecrl/qvec/network"
	"github.com/qvecrl/qvec/prng"
	"github.com/qvecrl/qvec/replay"
	"github.com/qvecrl/qvec/solver"
)

// TrainState holds the learned side of a run: online parameters,
// target parameters, optimizer state, and the number of gradient steps
// taken. TrainState is a value; updates produce a new one.
type TrainState struct {
	Params network.Params
	Target network.Params
	Opt    solver.State
	Step   int
}

// RunnerState is the complete snapshot of training progress outside
// the replay buffer: the RNG stream, the train state, the environment
// state, the last observation batch, and the global environment step
// counter. Together with a replay State it fully determines a run.
type RunnerState struct {
	Stream     prng.Stream
	Train      TrainState
	EnvState   environment.State
	Obs        *mat.Dense
	GlobalStep int
}

// State is the DQN snapshot threaded through Train: the runner state
// plus the replay buffer state. It satisfies agent.State and is
// serializable with encoding/gob.
type State struct {
	Runner RunnerState
	Buffer replay.State
}
