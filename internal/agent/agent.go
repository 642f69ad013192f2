// Package agent implements the learning agent: an action-conditional CTW
// mixture model over the interleaved action/percept bit history, plus the
// bookkeeping the planner needs to simulate futures and roll them back.
package agent

import (
	"io"

	"github.com/janpfeifer/aixigo/internal/ctw"
	"github.com/janpfeifer/aixigo/internal/parameters"
	"github.com/janpfeifer/aixigo/internal/rng"
	"github.com/janpfeifer/aixigo/internal/symbols"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Agent interacts with an environment in cycles: each cycle it receives an
// (observation, reward) percept, which it learns from, and emits an action,
// which conditions the model but is not predicted by it.
//
// The agent alternates between two states: awaiting a percept and awaiting
// an action. Every model update targets one state and transitions to the
// other; calling an update in the wrong state is a programming error and
// aborts.
type Agent struct {
	numActions uint64
	actionBits uint
	obsBits    uint
	rewBits    uint
	horizon    int

	tree *ctw.Tree

	age               uint64
	totalReward       float64
	lastUpdatePercept bool

	// Scratch buffer for encoded symbols.
	syms []byte
}

// NewFromParams builds an agent from configuration, popping the options it
// consumes: agent-actions, agent-horizon, observation-bits, reward-bits and
// ct-depth.
func NewFromParams(params parameters.Params) (*Agent, error) {
	numActions, err := parameters.PopParamOr(params, "agent-actions", 0)
	if err != nil {
		return nil, err
	}
	if numActions < 1 {
		return nil, errors.Errorf("agent-actions must be at least 1, got %d", numActions)
	}
	obsBits, err := parameters.PopParamOr(params, "observation-bits", 0)
	if err != nil {
		return nil, err
	}
	if obsBits < 1 {
		return nil, errors.Errorf("observation-bits must be at least 1, got %d", obsBits)
	}
	rewBits, err := parameters.PopParamOr(params, "reward-bits", 0)
	if err != nil {
		return nil, err
	}
	if rewBits < 1 {
		return nil, errors.Errorf("reward-bits must be at least 1, got %d", rewBits)
	}
	horizon, err := parameters.PopParamOr(params, "agent-horizon", 3)
	if err != nil {
		return nil, err
	}
	if horizon < 1 {
		return nil, errors.Errorf("agent-horizon must be at least 1, got %d", horizon)
	}
	depth, err := parameters.PopParamOr(params, "ct-depth", 16)
	if err != nil {
		return nil, err
	}
	if depth < 0 {
		return nil, errors.Errorf("ct-depth must not be negative, got %d", depth)
	}
	return &Agent{
		numActions: uint64(numActions),
		actionBits: symbols.Width(uint64(numActions)),
		obsBits:    uint(obsBits),
		rewBits:    uint(rewBits),
		horizon:    horizon,
		tree:       ctw.New(depth),
	}, nil
}

// Age returns the number of completed interaction cycles.
func (a *Agent) Age() uint64 { return a.age }

// Reward returns the total reward accumulated over the agent's lifetime.
func (a *Agent) Reward() float64 { return a.totalReward }

// AverageReward returns the reward received per cycle so far.
func (a *Agent) AverageReward() float64 {
	if a.age == 0 {
		return 0
	}
	return a.totalReward / float64(a.age)
}

// MaxReward returns the largest reward a single percept can carry.
func (a *Agent) MaxReward() float64 { return float64(uint64(1)<<a.rewBits - 1) }

// MinReward returns the smallest reward a single percept can carry.
func (a *Agent) MinReward() float64 { return 0 }

// NumActions returns the action cardinality A.
func (a *Agent) NumActions() uint64 { return a.numActions }

// NumPercepts returns the percept cardinality 2^(O+R).
func (a *Agent) NumPercepts() uint64 { return uint64(1) << (a.obsBits + a.rewBits) }

// NumObsBits returns the observation width O.
func (a *Agent) NumObsBits() uint { return a.obsBits }

// NumRewBits returns the reward width R.
func (a *Agent) NumRewBits() uint { return a.rewBits }

// Horizon returns the planning depth in action/percept pairs.
func (a *Agent) Horizon() int { return a.horizon }

// HistorySize returns the model history length in bits.
func (a *Agent) HistorySize() int { return a.tree.HistorySize() }

// ModelSize returns the number of nodes in the context tree.
func (a *Agent) ModelSize() int { return a.tree.Size() }

// LastUpdatePercept reports whether the most recent model update was a
// percept, i.e. whether the agent is awaiting an action.
func (a *Agent) LastUpdatePercept() bool { return a.lastUpdatePercept }

// IsActionOk reports whether action is within [0, A).
func (a *Agent) IsActionOk(action uint64) bool { return action < a.numActions }

// IsRewardOk reports whether reward is within the representable range.
func (a *Agent) IsRewardOk(reward uint64) bool { return float64(reward) <= a.MaxReward() }

// ModelUpdatePercept folds an observed percept into the mixture model and
// accumulates its reward. The agent must be awaiting a percept.
func (a *Agent) ModelUpdatePercept(obs, rew uint64) {
	if a.lastUpdatePercept {
		klog.Fatalf("ModelUpdatePercept called while awaiting an action")
	}
	a.syms = a.syms[:0]
	a.syms = symbols.Encode(a.syms, obs, a.obsBits)
	a.syms = symbols.Encode(a.syms, rew, a.rewBits)
	a.tree.UpdateSymbols(a.syms)
	a.totalReward += float64(rew)
	a.lastUpdatePercept = true
}

// ModelUpdateAction appends the chosen action to the history without
// updating any node: actions condition the model's predictions but are
// never predicted themselves. The agent must be awaiting an action.
func (a *Agent) ModelUpdateAction(action uint64) {
	if !a.lastUpdatePercept {
		klog.Fatalf("ModelUpdateAction called while awaiting a percept")
	}
	if !a.IsActionOk(action) {
		klog.Fatalf("action %d out of range [0, %d)", action, a.numActions)
	}
	a.syms = a.syms[:0]
	a.syms = symbols.Encode(a.syms, action, a.actionBits)
	a.tree.UpdateHistory(a.syms)
	a.age++
	a.lastUpdatePercept = false
}

// GenRandomAction draws an action uniformly at random.
func (a *Agent) GenRandomAction() uint64 {
	return rng.Uint64N(a.numActions)
}

// GenActionFromModel draws an action from the agent's own history
// statistics, leaving the model unchanged.
func (a *Agent) GenActionFromModel() uint64 {
	if !a.lastUpdatePercept {
		klog.Fatalf("GenActionFromModel called while awaiting a percept")
	}
	a.syms = a.tree.GenRandomSymbols(a.syms[:0], int(a.actionBits))
	return symbols.Decode(a.syms, a.actionBits)
}

// GenPerceptAndUpdate samples a percept from the mixture model and keeps
// the model updated with it, extending the agent's history as if the
// percept had actually been observed. Used by the planner to simulate
// futures; balanced later by ModelRevert.
func (a *Agent) GenPerceptAndUpdate() (obs, rew uint64) {
	if a.lastUpdatePercept {
		klog.Fatalf("GenPerceptAndUpdate called while awaiting an action")
	}
	a.syms = a.tree.GenRandomSymbolsAndUpdate(a.syms[:0], int(a.obsBits))
	obs = symbols.Decode(a.syms, a.obsBits)
	a.syms = a.tree.GenRandomSymbolsAndUpdate(a.syms[:0], int(a.rewBits))
	rew = symbols.Decode(a.syms, a.rewBits)
	a.totalReward += float64(rew)
	a.lastUpdatePercept = true
	return obs, rew
}

// ModelUndo captures the observable agent state needed to roll the model
// back to an earlier point in time.
type ModelUndo struct {
	age               uint64
	reward            float64
	historySize       int
	lastUpdatePercept bool
}

// NewModelUndo snapshots the agent.
func NewModelUndo(a *Agent) ModelUndo {
	return ModelUndo{
		age:               a.age,
		reward:            a.totalReward,
		historySize:       a.HistorySize(),
		lastUpdatePercept: a.lastUpdatePercept,
	}
}

// ModelRevert rolls every symbol appended since the snapshot back out of
// the model, alternating percept reverts (which undo node updates) and
// action history truncations (which do not), following the agent's state
// machine. It fails if the snapshot's age is greater than the agent's current age.
func (a *Agent) ModelRevert(undo ModelUndo) error {
	if a.age < undo.age {
		return errors.Errorf("cannot revert to age %d, agent is only %d cycles old", undo.age, a.age)
	}
	for a.HistorySize() > undo.historySize || a.lastUpdatePercept != undo.lastUpdatePercept {
		if a.lastUpdatePercept {
			a.tree.RevertN(int(a.obsBits + a.rewBits))
			a.lastUpdatePercept = false
		} else {
			a.tree.RevertHistory(int(a.actionBits))
			a.lastUpdatePercept = true
		}
	}
	a.age = undo.age
	a.totalReward = undo.reward
	return nil
}

// Reset clears the model and lifetime statistics.
func (a *Agent) Reset() {
	a.tree.Clear()
	a.age = 0
	a.totalReward = 0
	a.lastUpdatePercept = false
}

// LogModelProbability returns the log mixture probability the model assigns
// to every percept bit observed so far.
func (a *Agent) LogModelProbability() float64 {
	return a.tree.LogBlockProbability()
}

// WriteCT serializes the context tree to w.
func (a *Agent) WriteCT(w io.Writer) error {
	return a.tree.Write(w)
}

// LoadCT replaces the context tree with one deserialized from r. The
// serialized depth must match the configured depth.
func (a *Agent) LoadCT(r io.Reader) error {
	tree, err := ctw.Load(r, a.tree.Depth())
	if err != nil {
		return err
	}
	a.tree = tree
	return nil
}
