// Package envs provides the toy environments the agent interacts with.
//
// The core depends only on the Environment interface; concrete environments
// register themselves by name and declare the action and percept widths the
// agent must be configured with.
package envs

import (
	"sort"

	"github.com/janpfeifer/aixigo/internal/parameters"
	"github.com/pkg/errors"
)

// Environment is one step of the interaction loop seen from the agent's
// side: the current percept, a way to act on it, and a termination signal.
type Environment interface {
	// Observation returns the current observation index.
	Observation() uint64

	// Reward returns the current reward index.
	Reward() uint64

	// PerformAction receives the agent's action and computes the next
	// percept.
	PerformAction(action uint64)

	// IsFinished reports whether the environment can no longer interact
	// with the agent.
	IsFinished() bool
}

// Config declares the interface widths an environment requires of the agent.
type Config struct {
	NumActions      uint64
	ObservationBits uint
	RewardBits      uint
}

// Builder creates an environment from configuration parameters, popping the
// options it consumes.
type Builder func(params parameters.Params) (Environment, Config, error)

var registered = map[string]Builder{
	"coin-flip":                 newCoinFlip,
	"tiger":                     newTiger,
	"biased-rock-paper-scissor": newBiasedRockPaperScissor,
	"kuhn-poker":                newKuhnPoker,
	"pacman":                    newPacman,
}

// Names returns the registered environment names, sorted.
func Names() []string {
	names := make([]string, 0, len(registered))
	for name := range registered {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the named environment.
func New(name string, params parameters.Params) (Environment, Config, error) {
	builder, ok := registered[name]
	if !ok {
		return nil, Config{}, errors.Errorf("unknown environment %q, registered: %v", name, Names())
	}
	return builder(params)
}
