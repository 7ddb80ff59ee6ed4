// Package dqn implements deep Q-learning with prioritized experience
// replay over a vectorized environment.
//
// The engine follows a strict value-threading discipline: every piece
// of run progress (parameters, optimizer moments, replay storage,
// environment state, RNG stream, step counters) lives in an explicit
// State value. Operations take the current State and return the next
// one; nothing is mutated in place and there is no hidden state on the
// DQN value itself, so a single DQN can drive many independent runs.
package dqn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/qvecrl/qvec/agent"
	"github.com/qvecrl/qvec/environment"
	"github.com/qvecrl/qvec/hpo"
	"github.com/qvecrl/qvec/network"
	"github.com/qvecrl/qvec/prng"
	"github.com/qvecrl/qvec/replay"
	"github.com/qvecrl/qvec/solver"
	"github.com/qvecrl/qvec/timestep"
	"github.com/qvecrl/qvec/utils/floatutils"
	"github.com/qvecrl/qvec/utils/intutils"
)

// DQN implements the deep Q-learning algorithm with an epsilon-greedy
// behaviour policy, a prioritized replay buffer, and a periodically
// synchronized target network.
type DQN struct {
	env        environment.Environment
	cfg        config
	opts       Options
	q          *network.Q
	buffer     *replay.Buffer
	solver     solver.Solver
	numActions int
}

// New creates and returns a new DQN on the given environment. A nil
// hyperparameter or architecture Config selects the declared defaults.
// Only discrete action spaces are supported; anything else fails here,
// at construction, with an UnsupportedActionSpaceError.
func New(env environment.Environment, hpoConfig,
	nasConfig hpo.Config, opts Options) (*DQN, error) {

	if hpoConfig == nil {
		hpoConfig = HPOConfigSpace().DefaultConfiguration()
	}
	if nasConfig == nil {
		nasConfig = NASConfigSpace().DefaultConfiguration()
	}

	if env.ActionSpec().Cardinality != environment.Discrete {
		return nil, &environment.UnsupportedActionSpaceError{
			Algorithm:   "dqn",
			Cardinality: env.ActionSpec().Cardinality,
		}
	}
	numActions := env.ActionSpec().NumActions()
	if numActions < 1 {
		return nil, fmt.Errorf("dqn: action space has no actions")
	}

	activation, err := network.ActivationFromString(
		nasConfig.String("activation"))
	if err != nil {
		return nil, fmt.Errorf("dqn: %v", err)
	}
	q := network.NewQ(numActions, nasConfig.Int("hidden_size"), activation)

	// The sampling exponent follows the buffer_beta key when it is
	// assigned, defaulting to 1 otherwise. Stored priorities are
	// already exponentiated by buffer_alpha when computed, so both
	// exponents end up applied to a sampling weight.
	priorityExponent := 1.0
	if hpoConfig.Has("buffer_beta") {
		priorityExponent = hpoConfig.Float("buffer_beta")
	}

	features := env.ObservationSpec().Shape.Len()
	buffer, err := replay.New(replay.Config{
		Capacity:         hpoConfig.Int("buffer_size"),
		BatchSize:        hpoConfig.Int("buffer_batch_size"),
		PriorityExponent: priorityExponent,
		Prioritized:      hpoConfig.Bool("buffer_prio_sampling"),
	}, features)
	if err != nil {
		return nil, fmt.Errorf("dqn: could not create replay buffer: %v",
			err)
	}

	cfg := newConfig(hpoConfig)

	return &DQN{
		env:        env,
		cfg:        cfg,
		opts:       opts.withDefaults(),
		q:          q,
		buffer:     buffer,
		solver:     solver.NewAdam(cfg.lr, 1e-5, 0.9, 0.999),
		numActions: numActions,
	}, nil
}

// HPOConfigSpace implements the agent.Algorithm interface
func (d *DQN) HPOConfigSpace() hpo.ConfigSpace {
	return HPOConfigSpace()
}

// DefaultHPOConfig implements the agent.Algorithm interface
func (d *DQN) DefaultHPOConfig() hpo.Config {
	return HPOConfigSpace().DefaultConfiguration()
}

// NASConfigSpace implements the agent.Algorithm interface
func (d *DQN) NASConfigSpace() hpo.ConfigSpace {
	return NASConfigSpace()
}

// DefaultNASConfig implements the agent.Algorithm interface
func (d *DQN) DefaultNASConfig() hpo.Config {
	return NASConfigSpace().DefaultConfiguration()
}

// Init creates the initial snapshot for a fresh run. A deterministic
// dummy interaction with the environment is used once, here, to learn
// the tensor shapes that size the replay buffer; its stepped
// environment state is discarded.
func (d *DQN) Init(stream prng.Stream) (agent.State, error) {
	runStream, initStream := prng.Split(stream)
	resetStream, shapeStream := prng.Split(initStream)
	paramStream, dummyStream := prng.Split(shapeStream)

	envState, obs := d.env.Reset(resetStream)

	// Dummy interaction: one sampled action per environment. Only the
	// shapes of the results matter.
	actionStream, stepStream := prng.Split(dummyStream)
	actionStreams := prng.SplitN(actionStream, d.env.NEnvs())
	actions := make([]int, d.env.NEnvs())
	for i := range actions {
		actions[i] = d.env.SampleAction(actionStreams[i])
	}
	_, shapeStep, err := d.env.Step(envState, actions, stepStream)
	if err != nil {
		return nil, fmt.Errorf("init: dummy interaction failed: %v", err)
	}

	template := timestep.New(shapeStep.Obs.RowView(0),
		shapeStep.Obs.RowView(0), actions[0], shapeStep.Rewards[0],
		shapeStep.Dones[0])
	bufState := d.buffer.Init(template)

	params := d.q.Init(paramStream, obs.RowView(0))
	target := params.Clone()

	runner := RunnerState{
		Stream: runStream,
		Train: TrainState{
			Params: params,
			Target: target,
			Opt:    d.solver.Init(params),
			Step:   0,
		},
		EnvState:   envState,
		Obs:        mat.DenseCopyOf(obs),
		GlobalStep: 0,
	}
	return State{Runner: runner, Buffer: bufState}, nil
}

// Train advances a run by the configured number of total timesteps,
// performing periodic evaluation, and returns the new snapshot along
// with the per-iteration losses and evaluation rewards.
func (d *DQN) Train(s agent.State) (agent.State, agent.Result, error) {
	st, ok := s.(State)
	if !ok {
		return s, agent.Result{}, fmt.Errorf("train: not a dqn snapshot")
	}

	iters := d.opts.NTotalTimesteps / d.cfg.trainFrequency / d.env.NEnvs()
	if iters < 1 {
		iters = 1
	}
	evalEvery := 0
	if d.opts.EvalEpisodes > 0 {
		evalEvery = intutils.Max(iters/d.opts.NEvalIntervals, 1)
	}

	losses := make([]float64, 0, iters)
	var evalRewards [][]float64
	for i := 1; i <= iters; i++ {
		var loss float64
		var err error
		st, loss, err = d.updateStep(st)
		if err != nil {
			return st, agent.Result{}, err
		}
		losses = append(losses, loss)

		if evalEvery > 0 && (i%evalEvery == 0 || i == iters) {
			rewards, err := d.Evaluate(st.Runner, d.opts.EvalEpisodes)
			if err != nil {
				return st, agent.Result{}, err
			}
			evalRewards = append(evalRewards, rewards)
		}
	}

	result := agent.Result{
		GlobalStep:  st.Runner.GlobalStep,
		Losses:      losses,
		EvalRewards: evalRewards,
	}
	return st, result, nil
}

// Predict returns the greedy action for each observation row. The
// stream argument keeps the signature uniform across algorithms;
// greedy prediction draws nothing from it.
func (d *DQN) Predict(s agent.State, obs mat.Matrix,
	_ prng.Stream) ([]int, error) {
	st, ok := s.(State)
	if !ok {
		return nil, fmt.Errorf("predict: not a dqn snapshot")
	}
	return d.greedyActions(st.Runner.Train.Params, obs), nil
}

// greedyActions returns argmax over the action values of each
// observation row
func (d *DQN) greedyActions(p network.Params, obs mat.Matrix) []int {
	values := d.q.Apply(p, obs)
	rows, _ := values.Dims()

	actions := make([]int, rows)
	for i := range actions {
		actions[i] = floatutils.ArgMax(mat.Row(nil, i, values))
	}
	return actions
}
