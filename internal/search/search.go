// Package search implements the rhoUCT planner: a per-cycle Monte-Carlo
// tree search whose chance nodes sample percepts from the agent's own
// mixture model rather than from the true environment.
//
// Reference: J. Veness, K.S. Ng, M. Hutter, W. Uther and D. Silver,
// A Monte-Carlo AIXI Approximation, Journal of Artificial Intelligence
// Research, 2011.
package search

import (
	"math"

	"github.com/janpfeifer/aixigo/internal/agent"
	"github.com/janpfeifer/aixigo/internal/parameters"
	"github.com/janpfeifer/aixigo/internal/rng"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Searcher runs rhoUCT searches against an agent. The search tree is built
// afresh on every call and discarded when it returns; only the agent's
// model persists across cycles.
type Searcher struct {
	// simulations is the rollout budget per search, a hard counter.
	simulations int

	// explorationConst scales the upper-confidence exploration term.
	explorationConst float64
}

// NewFromParams builds a Searcher from configuration, popping mc-timelimit
// and exploration-const.
func NewFromParams(params parameters.Params) (*Searcher, error) {
	simulations, err := parameters.PopParamOr(params, "mc-timelimit", 500)
	if err != nil {
		return nil, err
	}
	if simulations < 0 {
		return nil, errors.Errorf("mc-timelimit must not be negative, got %d", simulations)
	}
	explorationConst, err := parameters.PopParamOr(params, "exploration-const", 1.0)
	if err != nil {
		return nil, err
	}
	return &Searcher{
		simulations:      simulations,
		explorationConst: explorationConst,
	}, nil
}

// searchNode is one state in the lookahead tree. Decision nodes branch on
// the agent's actions; chance nodes branch on the percepts sampled from the
// model. The two kinds strictly alternate.
type searchNode struct {
	chance bool
	visits uint64
	mean   float64

	// actions indexes chance children of a decision node, nil entries are
	// untried. percepts sparsely indexes decision children of a chance node.
	actions  []*searchNode
	percepts map[uint64]*searchNode
}

func newDecisionNode(numActions uint64) *searchNode {
	return &searchNode{actions: make([]*searchNode, numActions)}
}

func newChanceNode() *searchNode {
	return &searchNode{chance: true, percepts: make(map[uint64]*searchNode)}
}

// Search returns the action with the best estimated expected future reward
// after expending the rollout budget. The agent is snapshotted first and
// restored after every rollout, so its observable state is unchanged.
func (s *Searcher) Search(a *agent.Agent) uint64 {
	undo := agent.NewModelUndo(a)
	root := newDecisionNode(a.NumActions())
	for i := 0; i < s.simulations; i++ {
		s.sample(root, a, a.Horizon())
		if err := a.ModelRevert(undo); err != nil {
			klog.Fatalf("failed to restore agent after rollout: %+v", err)
		}
	}
	if klog.V(1).Enabled() {
		klog.Infof("rhoUCT: %d rollouts, root mean %.4f, model size %d nodes",
			s.simulations, root.mean, a.ModelSize())
	}

	// Ties, and actions never sampled, resolve to the lowest index.
	best, bestMean := uint64(0), math.Inf(-1)
	for action := uint64(0); action < a.NumActions(); action++ {
		child := root.actions[action]
		if child == nil {
			continue
		}
		if child.mean > bestMean {
			best, bestMean = action, child.mean
		}
	}
	return best
}

// sample runs one rollout step through node, returning the sampled future
// reward from here to the horizon. Depth is consumed at chance nodes only:
// an action plus its percept count as one unit.
func (s *Searcher) sample(node *searchNode, a *agent.Agent, dfr int) float64 {
	var reward float64
	switch {
	case dfr == 0:
		return 0
	case node.chance:
		obs, rew := a.GenPerceptAndUpdate()
		idx := rew<<a.NumObsBits() | obs
		child := node.percepts[idx]
		if child == nil {
			child = newDecisionNode(a.NumActions())
			node.percepts[idx] = child
		}
		reward = float64(rew) + s.sample(child, a, dfr-1)
	case node.visits == 0:
		reward = playout(a, dfr)
	default:
		action := s.selectAction(node, a, dfr)
		a.ModelUpdateAction(action)
		reward = s.sample(node.actions[action], a, dfr)
	}
	node.mean = (reward + float64(node.visits)*node.mean) / float64(node.visits+1)
	node.visits++
	return reward
}

// selectAction picks the next action at a decision node: an untried action
// uniformly at random if any remain, otherwise the upper-confidence
// maximizer
//
//	U(a) = mean(a) / (dfr * maxReward) + C * sqrt(log(visits) / visits(a))
func (s *Searcher) selectAction(node *searchNode, a *agent.Agent, dfr int) uint64 {
	var untried []uint64
	for action := uint64(0); action < a.NumActions(); action++ {
		if node.actions[action] == nil {
			untried = append(untried, action)
		}
	}
	if len(untried) > 0 {
		action := untried[rng.IntN(len(untried))]
		node.actions[action] = newChanceNode()
		return action
	}

	normalization := float64(dfr) * a.MaxReward()
	logVisits := math.Log(float64(node.visits))
	best, bestValue := uint64(0), math.Inf(-1)
	for action := uint64(0); action < a.NumActions(); action++ {
		child := node.actions[action]
		value := child.mean/normalization +
			s.explorationConst*math.Sqrt(logVisits/float64(child.visits))
		if value > bestValue {
			best, bestValue = action, value
		}
	}
	return best
}

// playout simulates the remaining depth with uniformly random actions,
// drawing percepts from the agent's model, and returns the accumulated
// reward.
func playout(a *agent.Agent, depth int) float64 {
	var total float64
	for i := 0; i < depth; i++ {
		a.ModelUpdateAction(a.GenRandomAction())
		_, rew := a.GenPerceptAndUpdate()
		total += float64(rew)
	}
	return total
}
