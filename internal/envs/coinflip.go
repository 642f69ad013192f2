package envs

import (
	"github.com/janpfeifer/aixigo/internal/parameters"
	"github.com/janpfeifer/aixigo/internal/rng"
	"github.com/pkg/errors"
)

// CoinFlip flips a biased coin and asks the agent to predict the outcome.
// The observation is 1 (heads) with probability p, independent of the
// agent's actions; the reward is 1 for a correct prediction, 0 otherwise.
type CoinFlip struct {
	p           float64
	observation uint64
	reward      uint64
}

func newCoinFlip(params parameters.Params) (Environment, Config, error) {
	p, err := parameters.PopParamOr(params, "coin-flip-p", 1.0)
	if err != nil {
		return nil, Config{}, err
	}
	if p < 0 || p > 1 {
		return nil, Config{}, errors.Errorf("coin-flip-p must be in [0, 1], got %g", p)
	}
	env := &CoinFlip{p: p}
	env.observation = env.flip()
	return env, Config{NumActions: 2, ObservationBits: 1, RewardBits: 1}, nil
}

func (env *CoinFlip) flip() uint64 {
	if rng.Float64() < env.p {
		return 1
	}
	return 0
}

func (env *CoinFlip) Observation() uint64 { return env.observation }
func (env *CoinFlip) Reward() uint64      { return env.reward }
func (env *CoinFlip) IsFinished() bool    { return false }

func (env *CoinFlip) PerformAction(action uint64) {
	env.observation = env.flip()
	if action == env.observation {
		env.reward = 1
	} else {
		env.reward = 0
	}
}
