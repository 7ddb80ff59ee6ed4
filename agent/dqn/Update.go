package dqn

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/qvecrl/qvec/environment"
	"github.com/qvecrl/qvec/network"
	"github.com/qvecrl/qvec/prng"
	"github.com/qvecrl/qvec/timestep"
	"github.com/qvecrl/qvec/utils/floatutils"
)

// updateStep performs one outer training iteration: a fixed-length
// rollout of trainFrequency environment steps, followed by the update
// and target-sync gates.
//
// Both gates are evaluated on every iteration against the global step
// counter as it stands after the rollout, never against the count the
// rollout started from. An iteration where a gate is closed reports a
// zero loss and leaves the corresponding parameters untouched.
func (d *DQN) updateStep(st State) (State, float64, error) {
	runner := st.Runner
	bufState := st.Buffer
	train := runner.Train

	runStream, iterStream := prng.Split(runner.Stream)
	stepStreams := prng.SplitN(iterStream, d.cfg.trainFrequency+1)
	sampleStream := stepStreams[d.cfg.trainFrequency]

	obs := runner.Obs
	envState := runner.EnvState
	globalStep := runner.GlobalStep

	for k := 0; k < d.cfg.trainFrequency; k++ {
		actionStream, envStream := prng.Split(stepStreams[k])

		actions := d.selectActions(train.Params, obs, actionStream,
			d.cfg.epsilon)

		var step environment.Step
		var err error
		envState, step, err = d.env.Step(envState, actions, envStream)
		if err != nil {
			return st, 0, err
		}

		td := d.tdErrors(train, obs, actions, step)

		batch := rolloutBatch(obs, step, actions)
		var written []int
		bufState, written = d.buffer.Add(bufState, batch)
		bufState, err = d.buffer.SetPriorities(bufState, written,
			d.priorityWeights(td))
		if err != nil {
			return st, 0, err
		}

		globalStep += d.env.NEnvs()
		obs = step.Obs
	}

	// Both gate conditions are computed unconditionally, every
	// iteration, on the advanced counter.
	updateGate := globalStep > d.cfg.learningStarts &&
		globalStep%d.cfg.trainFrequency == 0
	syncGate := globalStep > d.cfg.learningStarts &&
		globalStep%d.cfg.targetUpdateFreq == 0

	loss := 0.0
	if updateGate {
		batch, _, err := d.buffer.Sample(bufState, sampleStream)
		if err != nil {
			return st, 0, err
		}
		train, loss, _, _ = d.update(train, batch)
	}
	if syncGate {
		train.Target = network.Polyak(train.Params, train.Target,
			d.cfg.tau)
	}

	next := State{
		Runner: RunnerState{
			Stream:     runStream,
			Train:      train,
			EnvState:   envState,
			Obs:        obs,
			GlobalStep: globalStep,
		},
		Buffer: bufState,
	}
	return next, loss, nil
}

// update performs one gradient step on the online parameters from a
// sampled batch. The regression target bootstraps from the target
// network when one is in use, and from the online network otherwise.
// update is a pure function of its inputs; it returns the new train
// state together with the loss, predicted values, and gradients for
// instrumentation.
func (d *DQN) update(train TrainState, batch timestep.Batch) (TrainState,
	float64, []float64, network.Params) {

	targets := d.regressionTargets(train, batch.Obs, batch.Rewards,
		batch.Dones)
	loss, predicted, grads := d.q.Gradients(train.Params, batch.LastObs,
		batch.Actions, targets)
	params, opt := d.solver.Step(train.Params, grads, train.Opt)

	next := TrainState{
		Params: params,
		Target: train.Target,
		Opt:    opt,
		Step:   train.Step + 1,
	}
	return next, loss, predicted, grads
}

// regressionTargets computes the bootstrapped TD targets
//
//	r + (1 - done) * gamma * max_a Q(nextObs, a)
//
// for a batch of transitions
func (d *DQN) regressionTargets(train TrainState, nextObs mat.Matrix,
	rewards []float64, dones []bool) []float64 {

	bootstrap := train.Params
	if d.cfg.useTargetNetwork {
		bootstrap = train.Target
	}
	qNext := d.q.Apply(bootstrap, nextObs)

	targets := make([]float64, len(rewards))
	for i := range targets {
		notDone := 1.0
		if dones[i] {
			notDone = 0.0
		}
		maxNext := floatutils.Max(mat.Row(nil, i, qNext)...)
		targets[i] = rewards[i] + notDone*d.cfg.gamma*maxNext
	}
	return targets
}

// tdErrors computes the per-environment TD error of freshly collected
// transitions, used only to seed their priorities
func (d *DQN) tdErrors(train TrainState, lastObs mat.Matrix,
	actions []int, step environment.Step) []float64 {

	targets := d.regressionTargets(train, step.Obs, step.Rewards,
		step.Dones)
	qPred := d.q.Apply(train.Params, lastObs)

	td := make([]float64, len(actions))
	for i := range td {
		td[i] = targets[i] - qPred.At(i, actions[i])
	}
	return td
}

// priorityWeights maps TD errors to storage priorities:
//
//	(|td| + buffer_epsilon) ^ buffer_alpha
func (d *DQN) priorityWeights(td []float64) []float64 {
	weights := make([]float64, len(td))
	for i, e := range td {
		weights[i] = math.Pow(math.Abs(e)+d.cfg.bufferEpsilon,
			d.cfg.bufferAlpha)
	}
	return weights
}

// selectActions chooses one action per environment with an
// epsilon-greedy policy: a single uniform draw gates the whole batch
// between uniformly random actions and the greedy argmax of the online
// network. An epsilon of 0 is the pure-greedy policy the evaluator
// uses.
func (d *DQN) selectActions(p network.Params, obs mat.Matrix,
	stream prng.Stream, epsilon float64) []int {

	gateStream, actionStream := prng.Split(stream)
	if gateStream.Float64() < epsilon {
		streams := prng.SplitN(actionStream, d.env.NEnvs())
		actions := make([]int, d.env.NEnvs())
		for i := range actions {
			actions[i] = d.env.SampleAction(streams[i])
		}
		return actions
	}
	return d.greedyActions(p, obs)
}

// rolloutBatch packages one vectorized environment step as a batch of
// transitions, one per environment
func rolloutBatch(lastObs *mat.Dense, step environment.Step,
	actions []int) timestep.Batch {

	n, features := lastObs.Dims()
	batch := timestep.NewBatch(n, features)
	for i := 0; i < n; i++ {
		batch.Set(i, timestep.New(lastObs.RowView(i), step.Obs.RowView(i),
			actions[i], step.Rewards[i], step.Dones[i]))
	}
	return batch
}
