package main

import (
	"context"
	"fmt"
	"log"

	"gonum.org/v1/gonum/stat"

	agentpkg "github.com/qvecrl/qvec/agent"
	"github.com/qvecrl/qvec/agent/dqn"
	"github.com/qvecrl/qvec/checkpoint"
	"github.com/qvecrl/qvec/environment/classiccontrol/cartpole"
	"github.com/qvecrl/qvec/experiment"
	"github.com/qvecrl/qvec/objective"
	"github.com/qvecrl/qvec/prng"
	"github.com/qvecrl/qvec/progress"
)

func main() {
	var seed uint64 = 192382
	ctx := context.Background()

	// Create the environment
	env, err := cartpole.New(8)
	if err != nil {
		log.Fatal(err)
	}

	// Create the learning algorithm
	hpoConfig := dqn.HPOConfigSpace().DefaultConfiguration()
	hpoConfig["learning_starts"] = 1024

	chunkSteps := 10_000
	numChunks := 10
	opts := dqn.Options{
		NTotalTimesteps: chunkSteps,
		EvalEpisodes:    16,
		NEvalIntervals:  1,
	}

	agent, err := dqn.New(env, hpoConfig, nil, opts)
	if err != nil {
		log.Fatal(err)
	}

	// Experiment
	tracker, err := experiment.Open(ctx, "./runs.db")
	if err != nil {
		log.Fatal(err)
	}
	defer tracker.Close()

	runID, err := tracker.BeginRun(ctx, "dqn", hpoConfig)
	if err != nil {
		log.Fatal(err)
	}

	results := objective.Results{}
	train := objective.Compose(agent.Train, results,
		objective.Runtime(), objective.RewardMean(), objective.RewardStd())

	state, err := agent.Init(prng.NewStream(seed))
	if err != nil {
		log.Fatal(err)
	}

	bar := progress.NewBar(65, chunkSteps*numChunks)
	bar.Display()

	var globalStep int
	for i := 0; i < numChunks; i++ {
		var result agentpkg.Result
		state, result, err = train(state)
		if err != nil {
			log.Fatal(err)
		}
		globalStep = result.GlobalStep

		if len(result.EvalRewards) > 0 {
			rewards := result.EvalRewards[len(result.EvalRewards)-1]
			err = tracker.RecordEvaluation(ctx, globalStep, rewards)
			if err != nil {
				log.Fatal(err)
			}
			bar.SetNote(fmt.Sprintf("return: %.1f", stat.Mean(rewards, nil)))
		}

		bar.Add(chunkSteps)
		bar.Display()
	}
	bar.Finish()

	if err := tracker.FinishRun(ctx, globalStep); err != nil {
		log.Fatal(err)
	}
	fmt.Println(tracker.Summary(globalStep))

	if err := checkpoint.Save("./dqn.ckpt", state); err != nil {
		log.Fatal(err)
	}

	evals, err := tracker.Evaluations(ctx, runID)
	if err != nil {
		log.Fatal(err)
	}
	for _, e := range evals {
		fmt.Printf("step %v: mean return %.2f (std %.2f over %v episodes)\n",
			e.GlobalStep, e.RewardMean, e.RewardStd, e.Episodes)
	}
}
