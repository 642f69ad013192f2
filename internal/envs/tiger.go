package envs

import (
	"github.com/janpfeifer/aixigo/internal/parameters"
	"github.com/janpfeifer/aixigo/internal/rng"
)

// Tiger hides a tiger behind one of two doors. Listening reveals the
// tiger's side with probability 0.85; opening a door either escapes or
// meets the tiger, after which the tiger is re-placed at random.
//
// Rewards are translated to be non-negative: listening pays 99 (i.e. -1),
// escaping pays 110 (+10), meeting the tiger pays 0 (-100).
type Tiger struct {
	tigerLeft   bool
	observation uint64
	reward      uint64
}

const (
	tigerListen    = 0
	tigerOpenLeft  = 1
	tigerOpenRight = 2

	tigerHearNothing = 0
	tigerHearLeft    = 1
	tigerHearRight   = 2

	tigerRewardListen = 99
	tigerRewardEaten  = 0
	tigerRewardEscape = 110
)

func newTiger(params parameters.Params) (Environment, Config, error) {
	env := &Tiger{
		tigerLeft:   rng.Float64() < 0.5,
		observation: tigerHearNothing,
	}
	return env, Config{NumActions: 3, ObservationBits: 2, RewardBits: 7}, nil
}

func (env *Tiger) Observation() uint64 { return env.observation }
func (env *Tiger) Reward() uint64      { return env.reward }
func (env *Tiger) IsFinished() bool    { return false }

func (env *Tiger) PerformAction(action uint64) {
	if action == tigerListen {
		truthful := rng.Float64() < 0.85
		if env.tigerLeft == truthful {
			env.observation = tigerHearLeft
		} else {
			env.observation = tigerHearRight
		}
		env.reward = tigerRewardListen
		return
	}

	env.observation = tigerHearNothing
	openedLeft := action == tigerOpenLeft
	if openedLeft == env.tigerLeft {
		env.reward = tigerRewardEaten
	} else {
		env.reward = tigerRewardEscape
	}
	env.tigerLeft = rng.Float64() < 0.5
}
