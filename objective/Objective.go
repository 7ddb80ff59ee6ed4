// Package objective implements instrumentation wrappers for training
// runs.
//
// An Objective decorates a train entry point: the wrapped function
// behaves identically (same snapshot, same result, same error) but
// the measured value is recorded into a caller-supplied Results record
// as a side channel. Multiple objectives compose functionally, in a
// fixed order given by their declared ranks.
package objective

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/qvecrl/qvec/agent"
)

// Sorting ranks. Runtime wraps outermost so that it times everything,
// including the other objectives' bookkeeping.
const (
	RuntimeRank = 0
	RewardRank  = 2
)

// Results is the caller-supplied record that objectives write their
// measurements into
type Results map[string]float64

// Objective wraps a train function to measure one quantity
type Objective struct {
	// Key uniquely identifies the measurement in a Results record
	Key string

	// Rank fixes the composition order; lower ranks wrap outermost
	Rank int

	// Wrap decorates a train function so that it records its
	// measurement into the Results
	Wrap func(train agent.TrainFunc, results Results) agent.TrainFunc
}

// Runtime measures the wall time of the wrapped train call in seconds
func Runtime() Objective {
	return Objective{
		Key:  "runtime",
		Rank: RuntimeRank,
		Wrap: func(train agent.TrainFunc, results Results) agent.TrainFunc {
			return func(s agent.State) (agent.State, agent.Result, error) {
				start := time.Now()
				next, result, err := train(s)
				results["runtime"] = time.Since(start).Seconds()
				return next, result, err
			}
		},
	}
}

// RewardMean records the mean reward of the final evaluation of the
// wrapped train call. Runs that never evaluate record nothing.
func RewardMean() Objective {
	return Objective{
		Key:  "reward_mean",
		Rank: RewardRank,
		Wrap: func(train agent.TrainFunc, results Results) agent.TrainFunc {
			return func(s agent.State) (agent.State, agent.Result, error) {
				next, result, err := train(s)
				if n := len(result.EvalRewards); n > 0 {
					results["reward_mean"] = stat.Mean(
						result.EvalRewards[n-1], nil)
				}
				return next, result, err
			}
		},
	}
}

// RewardStd records the standard deviation of the final evaluation's
// rewards of the wrapped train call. Runs that never evaluate record
// nothing.
func RewardStd() Objective {
	return Objective{
		Key:  "reward_std",
		Rank: RewardRank,
		Wrap: func(train agent.TrainFunc, results Results) agent.TrainFunc {
			return func(s agent.State) (agent.State, agent.Result, error) {
				next, result, err := train(s)
				if n := len(result.EvalRewards); n > 0 {
					results["reward_std"] = stat.StdDev(
						result.EvalRewards[n-1], nil)
				}
				return next, result, err
			}
		},
	}
}

// Compose wraps a train function with every given objective, ordered
// by rank: the lowest rank ends up outermost. Objectives of equal rank
// keep their argument order. The returned function records into
// results on every call and returns exactly what the wrapped train
// returns.
func Compose(train agent.TrainFunc, results Results,
	objectives ...Objective) agent.TrainFunc {

	ordered := append([]Objective(nil), objectives...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Rank < ordered[j].Rank
	})

	// Wrap inside out so the first of the ordered objectives is the
	// outermost layer
	wrapped := train
	for i := len(ordered) - 1; i >= 0; i-- {
		wrapped = ordered[i].Wrap(wrapped, results)
	}
	return wrapped
}
