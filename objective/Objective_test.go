package objective

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qvecrl/qvec/agent"
)

// stubTrain returns a train function that yields the given result,
// optionally sleeping first so wall time is measurable
func stubTrain(result agent.Result, sleep time.Duration) agent.TrainFunc {
	return func(s agent.State) (agent.State, agent.Result, error) {
		if sleep > 0 {
			time.Sleep(sleep)
		}
		return s, result, nil
	}
}

func TestRuntimeRecordsSeconds(t *testing.T) {
	results := Results{}
	train := Compose(stubTrain(agent.Result{}, 20*time.Millisecond),
		results, Runtime())

	_, _, err := train(nil)
	require.NoError(t, err)

	runtime, ok := results["runtime"]
	require.True(t, ok)
	assert.GreaterOrEqual(t, runtime, 0.02)
	assert.Less(t, runtime, 5.0)
}

func TestRewardObjectivesUseFinalEvaluation(t *testing.T) {
	result := agent.Result{
		GlobalStep: 100,
		EvalRewards: [][]float64{
			{0.0, 0.0},
			{1.0, 3.0, 5.0},
		},
	}

	results := Results{}
	train := Compose(stubTrain(result, 0), results,
		RewardMean(), RewardStd())

	_, got, err := train(nil)
	require.NoError(t, err)
	assert.Equal(t, 100, got.GlobalStep)

	assert.InDelta(t, 3.0, results["reward_mean"], 1e-12)
	assert.InDelta(t, 2.0, results["reward_std"], 1e-12)
}

func TestRewardObjectivesSkipWithoutEvaluations(t *testing.T) {
	results := Results{}
	train := Compose(stubTrain(agent.Result{}, 0), results,
		RewardMean(), RewardStd())

	_, _, err := train(nil)
	require.NoError(t, err)

	_, ok := results["reward_mean"]
	assert.False(t, ok)
	_, ok = results["reward_std"]
	assert.False(t, ok)
}

func TestComposeOrdersByRank(t *testing.T) {
	var order []string
	tag := func(key string, rank int) Objective {
		return Objective{
			Key:  key,
			Rank: rank,
			Wrap: func(train agent.TrainFunc,
				_ Results) agent.TrainFunc {
				return func(s agent.State) (agent.State, agent.Result,
					error) {
					order = append(order, key)
					return train(s)
				}
			},
		}
	}

	// Listed out of rank order on purpose
	train := Compose(stubTrain(agent.Result{}, 0), Results{},
		tag("second", 2), tag("first", 0), tag("third", 2))

	_, _, err := train(nil)
	require.NoError(t, err)

	// Lowest rank runs outermost, equal ranks keep argument order
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestComposePropagatesErrors(t *testing.T) {
	wantErr := errors.New("boom")
	failing := func(s agent.State) (agent.State, agent.Result, error) {
		return s, agent.Result{}, wantErr
	}

	results := Results{}
	train := Compose(failing, results, Runtime(), RewardMean())

	_, _, err := train(nil)
	assert.ErrorIs(t, err, wantErr)

	// Runtime still records around the failure
	_, ok := results["runtime"]
	assert.True(t, ok)
}
