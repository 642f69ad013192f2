// Package _default registers the default players that can be included in any
// front-end for hiveGo.
//
// Currently, it includes a linear model + alpha-beta pruning.
package _default

import (
	"github.com/janpfeifer/aixigo/internal/ai/linear"
	"github.com/janpfeifer/aixigo/internal/players"
	"github.com/janpfeifer/aixigo/internal/state"
)

func init() {
	players.RegisterModule("linear", &Linear{})
}

// Linear implements a
type Linear struct{}

// Assert Linear implements Module.
var _ players.Module = (*Linear)(nil)

// NewPlayer implements players.Module.
func (l *Linear) NewPlayer(matchId uint64, matchName string, playerNum state.PlayerNum, params map[string]string) (players.Player, error) {
	return players.NewPlayerFromScorer(linear.PreTrainedBest, matchId, matchName, playerNum, params)
}
