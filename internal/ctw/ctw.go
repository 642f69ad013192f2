// Package ctw implements an action-conditional Context Tree Weighting mixture
// over a binary alphabet.
//
// The tree maintains, for a growing bit history, the weighted mixture
// probability over all variable-order Markov predictors up to a bounded
// depth, updatable in time linear in the depth per bit. All probabilities
// are kept in log-space.
//
// References:
//
//   - F.M.J. Willems, Y.M. Shtarkov and Tj.J. Tjalkens, The Context-Tree
//     Weighting Method: Basic Properties, IEEE Transactions on Information
//     Theory, 1995.
//   - J. Veness, K.S. Ng, M. Hutter, W. Uther and D. Silver, A Monte-Carlo
//     AIXI Approximation, Journal of Artificial Intelligence Research, 2011.
package ctw

import (
	"math"
)

var logHalf = math.Log(0.5)

// logaddexp computes log(exp(x) + exp(y)) without leaving log-space.
// When |x-y| is large the exp underflows to zero and the dominant term
// passes through unchanged, which is the correct limit.
func logaddexp(x, y float64) float64 {
	d := x - y
	switch {
	case d > 0:
		return x + math.Log1p(math.Exp(-d))
	case d <= 0:
		return y + math.Log1p(math.Exp(d))
	default:
		// NaNs involved.
		return x + y
	}
}

// node is a suffix of the context. It owns its children; children are
// materialized lazily by updates and reclaimed by reverts once their
// counts return to zero.
type node struct {
	logProbEst      float64 // KT estimator of the sub-sequence routed here, in log-space.
	logProbWeighted float64 // CTW mixture at this node, in log-space.
	count           [2]uint32
	child           [2]*node
}

func (n *node) visits() uint32 {
	return n.count[0] + n.count[1]
}

// logKTMul returns the log of the KT-estimator multiplier for observing sym
// given the current counts: (count[sym] + 1/2) / (count[0] + count[1] + 1).
func (n *node) logKTMul(sym byte) float64 {
	return math.Log((float64(n.count[sym]) + 0.5) / (float64(n.count[0]+n.count[1]) + 1.0))
}

// updateWeighted recomputes the mixture at an interior node:
// Pw = 1/2 * (Pe + Pw(child0)*Pw(child1)), with absent children
// contributing probability one.
func (n *node) updateWeighted() {
	var logW0, logW1 float64
	if n.child[0] != nil {
		logW0 = n.child[0].logProbWeighted
	}
	if n.child[1] != nil {
		logW1 = n.child[1].logProbWeighted
	}
	n.logProbWeighted = logHalf + logaddexp(n.logProbEst, logW0+logW1)
}

func (n *node) size() int {
	total := 1
	if n.child[0] != nil {
		total += n.child[0].size()
	}
	if n.child[1] != nil {
		total += n.child[1].size()
	}
	return total
}

// Tree is a context tree of bounded depth together with the full bit
// history routed through it. Updates append to the history; reverts undo
// them exactly, including reclaiming nodes whose counts return to zero.
type Tree struct {
	root    *node
	depth   int
	history []byte

	// Scratch for the context path, reused across updates and reverts.
	path []*node
	ctx  []byte
}

// New creates an empty tree of the given maximum depth. The history is
// seeded with depth fictitious zero bits so that the first real update
// already has a full context.
func New(depth int) *Tree {
	t := &Tree{
		root:  &node{},
		depth: depth,
		path:  make([]*node, depth+1),
		ctx:   make([]byte, depth+1),
	}
	for i := 0; i < depth; i++ {
		t.history = append(t.history, 0)
	}
	return t
}

// Clear restores the tree and history to their initial state.
func (t *Tree) Clear() {
	t.root = &node{}
	t.history = t.history[:0]
	for i := 0; i < t.depth; i++ {
		t.history = append(t.history, 0)
	}
}

// Depth returns the configured maximum depth.
func (t *Tree) Depth() int {
	return t.depth
}

// HistorySize returns the history length in bits, fictitious prefix included.
func (t *Tree) HistorySize() int {
	return len(t.history)
}

// Size returns the number of materialized nodes.
func (t *Tree) Size() int {
	return t.root.size()
}

// LogBlockProbability returns the log CTW mixture probability of every bit
// introduced via Update. Bits appended with UpdateHistory condition the
// predictions but do not contribute to this product.
func (t *Tree) LogBlockProbability() float64 {
	return t.root.logProbWeighted
}

// walk fills t.path with the root-to-leaf path selected by the most recent
// depth history bits (most recent first) and t.ctx with the corresponding
// child indices. With create set, missing children are materialized;
// otherwise the caller guarantees the path exists.
func (t *Tree) walk(create bool) {
	t.path[0] = t.root
	h := len(t.history)
	for n := 1; n <= t.depth; n++ {
		sym := t.history[h-n]
		t.ctx[n] = sym
		child := t.path[n-1].child[sym]
		if child == nil && create {
			child = &node{}
			t.path[n-1].child[sym] = child
		}
		t.path[n] = child
	}
}

// Update routes sym through the context path, updates the KT estimates and
// mixtures from the leaf back to the root, and appends sym to the history.
func (t *Tree) Update(sym byte) {
	t.walk(true)
	for n := t.depth; n >= 0; n-- {
		nd := t.path[n]
		nd.logProbEst += nd.logKTMul(sym)
		nd.count[sym]++
		if n == t.depth {
			nd.logProbWeighted = nd.logProbEst
		} else {
			nd.updateWeighted()
		}
	}
	t.history = append(t.history, sym)
}

// UpdateSymbols applies Update to each symbol in order.
func (t *Tree) UpdateSymbols(syms []byte) {
	for _, sym := range syms {
		t.Update(sym)
	}
}

// UpdateHistory appends syms to the history without touching any node.
// This is the action-conditional discipline: action bits select future
// contexts but are never themselves predicted.
func (t *Tree) UpdateHistory(syms []byte) {
	t.history = append(t.history, syms...)
}

// Revert removes the most recent history bit and undoes the corresponding
// node updates. The bit must have been added via Update. Nodes whose counts
// return to zero are detached from the tree.
func (t *Tree) Revert() {
	last := len(t.history) - 1
	sym := t.history[last]
	t.history = t.history[:last]

	t.walk(false)
	for n := t.depth; n >= 0; n-- {
		nd := t.path[n]
		nd.count[sym]--
		if nd.visits() == 0 && n > 0 {
			t.path[n-1].child[t.ctx[n]] = nil
			continue
		}
		nd.logProbEst -= nd.logKTMul(sym)
		if n == t.depth {
			nd.logProbWeighted = nd.logProbEst
		} else {
			nd.updateWeighted()
		}
	}
}

// RevertN applies Revert n times.
func (t *Tree) RevertN(n int) {
	for i := 0; i < n; i++ {
		t.Revert()
	}
}

// RevertHistory truncates the last n history bits without touching the
// tree, the inverse of UpdateHistory.
func (t *Tree) RevertHistory(n int) {
	t.history = t.history[:len(t.history)-n]
}
