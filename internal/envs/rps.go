package envs

import (
	"github.com/janpfeifer/aixigo/internal/parameters"
	"github.com/janpfeifer/aixigo/internal/rng"
)

// BiasedRockPaperScissor plays rock-paper-scissors against an exploitable
// opponent: after winning with rock, it always plays rock again; otherwise
// it plays uniformly at random.
//
// Moves are encoded so that each move beats its successor modulo 3:
// rock 0, scissors 1, paper 2. The observation is the opponent's move;
// the reward is 0 for a loss, 1 for a draw, 2 for a win.
type BiasedRockPaperScissor struct {
	wonWithRock bool
	observation uint64
	reward      uint64
}

const (
	rpsRock     = 0
	rpsScissors = 1
	rpsPaper    = 2
)

func newBiasedRockPaperScissor(params parameters.Params) (Environment, Config, error) {
	env := &BiasedRockPaperScissor{observation: rpsScissors}
	return env, Config{NumActions: 3, ObservationBits: 2, RewardBits: 2}, nil
}

func (env *BiasedRockPaperScissor) Observation() uint64 { return env.observation }
func (env *BiasedRockPaperScissor) Reward() uint64      { return env.reward }
func (env *BiasedRockPaperScissor) IsFinished() bool    { return false }

func (env *BiasedRockPaperScissor) PerformAction(action uint64) {
	if env.wonWithRock {
		env.observation = rpsRock
	} else {
		env.observation = uint64(rng.IntN(3))
	}
	env.wonWithRock = false

	switch {
	case env.observation == action:
		env.reward = 1
	case (action+1)%3 == env.observation:
		env.reward = 2
	default:
		env.reward = 0
		if env.observation == rpsRock {
			env.wonWithRock = true
		}
	}
}
