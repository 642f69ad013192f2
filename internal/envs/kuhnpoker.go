package envs

import (
	"github.com/janpfeifer/aixigo/internal/parameters"
	"github.com/janpfeifer/aixigo/internal/rng"
	"github.com/pkg/errors"
)

// KuhnPoker plays repeated hands of Kuhn poker against an opponent that
// follows the Nash-optimal mixed strategy scaled by nash-parameter: at 1.0
// the opponent is unexploitable, below that it bluffs more and can be
// exploited.
//
// The agent always acts second. The observation packs the agent's card,
// the opponent's visible first action and whether the previous hand ended
// in a showdown: (card << 2) | (bet << 1) | showdown. The reward encodes
// the chip delta of the finished hand shifted by +2: 0 is a two-chip loss,
// 4 a two-chip win.
type KuhnPoker struct {
	nashParameter float64

	agentCard int
	oppCard   int
	oppAction int
	showdown  uint64

	observation uint64
	reward      uint64
}

const (
	kuhnJack  = 0
	kuhnQueen = 1
	kuhnKing  = 2

	kuhnPass = 0
	kuhnBet  = 1
)

func newKuhnPoker(params parameters.Params) (Environment, Config, error) {
	nash, err := parameters.PopParamOr(params, "nash-parameter", 1.0)
	if err != nil {
		return nil, Config{}, err
	}
	if nash < 0 || nash > 1 {
		return nil, Config{}, errors.Errorf("nash-parameter must be in [0, 1], got %g", nash)
	}
	env := &KuhnPoker{nashParameter: nash}
	env.deal()
	return env, Config{NumActions: 2, ObservationBits: 4, RewardBits: 3}, nil
}

func (env *KuhnPoker) Observation() uint64 { return env.observation }
func (env *KuhnPoker) Reward() uint64      { return env.reward }
func (env *KuhnPoker) IsFinished() bool    { return false }

// opponentAct picks the opponent's action for the given betting round from
// its Nash-parameterized strategy.
func (env *KuhnPoker) opponentAct(round int) {
	if round == 0 {
		switch env.oppCard {
		case kuhnJack:
			if rng.Float64() > env.nashParameter/3.0 {
				env.oppAction = kuhnBet
			} else {
				env.oppAction = kuhnPass
			}
		case kuhnQueen:
			env.oppAction = kuhnPass
		default: // King.
			if rng.Float64() > env.nashParameter {
				env.oppAction = kuhnBet
			} else {
				env.oppAction = kuhnPass
			}
		}
		return
	}
	// Second round, reached only through pass-bet.
	switch env.oppCard {
	case kuhnJack:
		env.oppAction = kuhnPass
	case kuhnQueen:
		if rng.Float64() > (1.0+env.nashParameter)/3.0 {
			env.oppAction = kuhnBet
		} else {
			env.oppAction = kuhnPass
		}
	default: // King.
		env.oppAction = kuhnBet
	}
}

// deal starts a new hand: two distinct cards, the opponent's opening action,
// and the observation shown to the agent. The showdown bit reports on the
// hand that just finished.
func (env *KuhnPoker) deal() {
	env.agentCard = rng.IntN(3)
	env.oppCard = (env.agentCard + 1 + rng.IntN(2)) % 3
	env.opponentAct(0)
	env.observation = uint64(env.agentCard)<<2 | uint64(env.oppAction)<<1 | env.showdown
	env.showdown = 0
}

func (env *KuhnPoker) PerformAction(action uint64) {
	if env.oppAction == kuhnBet {
		if action == kuhnBet {
			// Showdown for two chips.
			if env.agentCard > env.oppCard {
				env.reward = 4
			} else {
				env.reward = 0
			}
			env.showdown = 1
		} else {
			// Fold, losing the ante.
			env.reward = 1
		}
	} else {
		if action == kuhnBet {
			env.opponentAct(1)
			if env.oppAction == kuhnBet {
				if env.agentCard > env.oppCard {
					env.reward = 4
				} else {
					env.reward = 0
				}
				env.showdown = 1
			} else {
				// Opponent folds.
				env.reward = 3
			}
		} else {
			// Both pass, showdown for one chip.
			if env.agentCard > env.oppCard {
				env.reward = 3
			} else {
				env.reward = 1
			}
			env.showdown = 1
		}
	}
	env.deal()
}
