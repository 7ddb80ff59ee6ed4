package dqn

import "github.com/qvecrl/qvec/hpo"

// HPOConfigSpace declares the tunable hyperparameters of DQN with
// their bounds and defaults
func HPOConfigSpace() hpo.ConfigSpace {
	return hpo.NewConfigSpace("DQNConfigSpace",
		hpo.Integer("buffer_size", 1, 1e7, 1e6),
		hpo.Integer("buffer_batch_size", 1, 1024, 64),
		hpo.Categorical("buffer_prio_sampling",
			[]interface{}{true, false}, false),
		hpo.Float("buffer_alpha", 0.0, 1.0, 0.9),
		hpo.Float("buffer_beta", 0.0, 1.0, 0.9),
		hpo.Float("buffer_epsilon", 0.0, 1e-3, 1e-5),
		hpo.Float("lr", 1e-5, 0.1, 2.5e-4),
		hpo.Categorical("activation", []interface{}{"tanh", "relu"},
			"tanh"),
		hpo.Integer("hidden_size", 1, 1024, 64),
		hpo.Float("gamma", 0.0, 1.0, 0.99),
		hpo.Float("tau", 0.0, 1.0, 1.0),
		hpo.Float("epsilon", 0.0, 1.0, 0.1),
		hpo.Categorical("use_target_network", []interface{}{true, false},
			true),
		hpo.Integer("train_frequency", 1, 1e5, 4),
		hpo.Integer("learning_starts", 1024, 1e5, 10000),
		hpo.Integer("target_network_update_freq", 1, 1e5, 100),
	)
}

// NASConfigSpace declares the architecture choices of the Q-network
func NASConfigSpace() hpo.ConfigSpace {
	return hpo.NewConfigSpace("DQNNASConfigSpace",
		hpo.Categorical("activation", []interface{}{"tanh", "relu"},
			"tanh"),
		hpo.Integer("hidden_size", 1, 1024, 64),
	)
}

// config is the engine's view of a validated hyperparameter Config
type config struct {
	gamma            float64
	tau              float64
	epsilon          float64
	lr               float64
	bufferAlpha      float64
	bufferEpsilon    float64
	useTargetNetwork bool
	trainFrequency   int
	learningStarts   int
	targetUpdateFreq int
}

// newConfig extracts the engine's keys from a Config. The values are
// assumed validated upstream; ranges are not re-checked here.
func newConfig(c hpo.Config) config {
	return config{
		gamma:            c.Float("gamma"),
		tau:              c.Float("tau"),
		epsilon:          c.Float("epsilon"),
		lr:               c.Float("lr"),
		bufferAlpha:      c.Float("buffer_alpha"),
		bufferEpsilon:    c.Float("buffer_epsilon"),
		useTargetNetwork: c.Bool("use_target_network"),
		trainFrequency:   c.Int("train_frequency"),
		learningStarts:   c.Int("learning_starts"),
		targetUpdateFreq: c.Int("target_network_update_freq"),
	}
}

// Options configures the scope of a training run, as opposed to the
// tuned hyperparameters in the Config.
type Options struct {
	// NTotalTimesteps is the total number of environment steps the run
	// is budgeted, across all parallel environments
	NTotalTimesteps int

	// EvalEpisodes is the number of episodes per periodic evaluation.
	// Zero disables evaluation.
	EvalEpisodes int

	// NEvalIntervals is how many evaluations are spread over the run
	NEvalIntervals int
}

// withDefaults fills unset options
func (o Options) withDefaults() Options {
	if o.NTotalTimesteps < 1 {
		o.NTotalTimesteps = 100_000
	}
	if o.EvalEpisodes > 0 && o.NEvalIntervals < 1 {
		o.NEvalIntervals = 10
	}
	return o
}
