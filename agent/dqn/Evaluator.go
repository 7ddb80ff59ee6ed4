package dqn

import (
	"github.com/qvecrl/qvec/environment"
	"github.com/qvecrl/qvec/prng"
	"github.com/qvecrl/qvec/utils/intutils"
)

// Evaluate runs the pure-greedy policy for at least numEpisodes
// episodes and returns the accumulated reward of each, truncated to
// exactly numEpisodes values.
//
// Episodes run in vectorized batches of NEnvs environments. A batch
// rollout continues until every environment in it has reported done
// (or the environment's episode cap is reached); an environment that
// finishes early keeps stepping with the rest of the batch, but its
// reward is frozen: per-step reward is accumulated only for
// environments that were not already done and the done mask is folded
// in with a logical OR.
//
// Evaluation derives its entropy from the snapshot's stream without
// consuming it, so evaluating never perturbs the training run.
func (d *DQN) Evaluate(runner RunnerState, numEpisodes int) ([]float64,
	error) {

	if numEpisodes < 1 {
		return nil, nil
	}
	nEnvs := d.env.NEnvs()
	nEvals := intutils.CeilDiv(numEpisodes, nEnvs)

	rewards := make([]float64, 0, nEvals*nEnvs)
	evalStreams := prng.SplitN(runner.Stream, nEvals)
	for _, evalStream := range evalStreams {
		accumulated, err := d.episodeBatch(runner, evalStream)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, accumulated...)
	}
	return rewards[:numEpisodes], nil
}

// episodeBatch rolls one vectorized batch of episodes to completion
// and returns the per-environment accumulated rewards
func (d *DQN) episodeBatch(runner RunnerState,
	stream prng.Stream) ([]float64, error) {

	resetStream, rolloutStream := prng.Split(stream)
	envState, obs := d.env.Reset(resetStream)

	nEnvs := d.env.NEnvs()
	accumulated := make([]float64, nEnvs)
	done := make([]bool, nEnvs)

	stepStreams := prng.SplitN(rolloutStream, d.env.MaxEpisodeSteps())
	for t := 0; t < d.env.MaxEpisodeSteps() && !all(done); t++ {
		actionStream, envStream := prng.Split(stepStreams[t])
		actions := d.selectActions(runner.Train.Params, obs,
			actionStream, 0.0)

		var err error
		var step environment.Step
		envState, step, err = d.env.Step(envState, actions, envStream)
		if err != nil {
			return nil, err
		}

		for i := 0; i < nEnvs; i++ {
			if !done[i] {
				accumulated[i] += step.Rewards[i]
			}
			done[i] = done[i] || step.Dones[i]
		}
		obs = step.Obs
	}
	return accumulated, nil
}

// all reports whether every flag in the mask is set
func all(mask []bool) bool {
	for _, m := range mask {
		if !m {
			return false
		}
	}
	return true
}
