package ctw

import (
	"math"
	"strings"
	"testing"

	"github.com/janpfeifer/aixigo/internal/rng"
	"github.com/stretchr/testify/require"
)

// requireTreesClose compares two trees node by node: counts and structure
// must match exactly, log-probabilities within floating point tolerance.
func requireTreesClose(t *testing.T, want, got *Tree) {
	t.Helper()
	require.Equal(t, want.depth, got.depth)
	require.Equal(t, want.history, got.history)
	requireNodesClose(t, want.root, got.root)
}

func requireNodesClose(t *testing.T, want, got *node) {
	t.Helper()
	require.Equal(t, want.count, got.count)
	require.InDelta(t, want.logProbEst, got.logProbEst, 1e-9)
	require.InDelta(t, want.logProbWeighted, got.logProbWeighted, 1e-9)
	for sym := 0; sym < 2; sym++ {
		if want.child[sym] == nil {
			require.Nil(t, got.child[sym])
			continue
		}
		require.NotNil(t, got.child[sym])
		requireNodesClose(t, want.child[sym], got.child[sym])
	}
}

func serialized(t *testing.T, tree *Tree) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, tree.Write(&sb))
	return sb.String()
}

// TestKTLeaf checks that a depth-0 tree degenerates to a single KT
// estimator: P(1,1,0) = 1/2 * 3/4 * 1/6 = 1/16.
func TestKTLeaf(t *testing.T) {
	tree := New(0)
	tree.UpdateSymbols([]byte{1, 1, 0})
	require.InDelta(t, math.Log(1.0/16), tree.LogBlockProbability(), 1e-12)
}

// TestSunehag checks the depth-3 example in the slides by Peter Sunehag and
// Marcus Hutter, http://cs.anu.edu.au/courses/COMP4620/2013/slides-ctw.pdf
func TestSunehag(t *testing.T) {
	tree := New(3)
	tree.UpdateHistory([]byte{1, 1, 0})
	tree.UpdateSymbols([]byte{0, 1, 0, 0, 1, 1, 0})
	require.InDelta(t, math.Log(7.0/2048), tree.LogBlockProbability(), 1e-8)

	tree.Update(0)
	require.InDelta(t, math.Log(153.0/65536), tree.LogBlockProbability(), 1e-8)
}

// TestEIDMA checks the example in the EIDMA report by F.M.J. Willems and
// Tj.J. Tjalkens, Complexity Reduction of the Context-Tree Weighting
// Algorithm: A Study for KPN Research, EIDMA Report RS.97.01.
func TestEIDMA(t *testing.T) {
	tree := New(3)
	tree.UpdateHistory([]byte{0, 1, 0})
	tree.UpdateSymbols([]byte{0, 1, 1, 0, 1, 0, 0})
	require.InDelta(t, math.Log(95.0/32768), tree.LogBlockProbability(), 1e-8)
}

// TestDepthOne works the depth-1 mixture out by hand: from the fictitious
// zero context, the bits 0,1,0,1 give Pw(root) = 7/256.
func TestDepthOne(t *testing.T) {
	tree := New(1)
	tree.UpdateSymbols([]byte{0, 1, 0, 1})
	require.InDelta(t, math.Log(7.0/256), tree.LogBlockProbability(), 1e-12)
}

// TestSplitUpdate checks that updating X then Y is indistinguishable from
// updating the concatenation X·Y.
func TestSplitUpdate(t *testing.T) {
	seq := []byte{1, 1, 0, 1, 0, 0, 1, 1, 0, 1, 1, 1, 0, 1, 0, 1, 1, 1, 0, 0, 0, 1, 0}
	for split := 0; split <= len(seq); split += 5 {
		whole := New(4)
		whole.UpdateSymbols(seq)

		parts := New(4)
		parts.UpdateSymbols(seq[:split])
		parts.UpdateSymbols(seq[split:])

		require.Equal(t, serialized(t, whole), serialized(t, parts))
	}
}

// TestRevertRoundTrip feeds random bits past a snapshot and reverts them,
// checking every node is restored, including reclaimed ones.
func TestRevertRoundTrip(t *testing.T) {
	rng.Seed(42)
	tree := New(4)
	for i := 0; i < 100; i++ {
		tree.Update(byte(rng.IntN(2)))
	}
	snapshot := New(4)
	var err error
	snapshot, err = Load(strings.NewReader(serialized(t, tree)), 4)
	require.NoError(t, err)

	extra := make([]byte, 0, 50)
	for i := 0; i < 50; i++ {
		extra = append(extra, byte(rng.IntN(2)))
	}
	tree.UpdateSymbols(extra)
	tree.RevertN(len(extra))

	requireTreesClose(t, snapshot, tree)
}

// TestRevertAll reverts every update ever made; the tree must return to the
// empty state with probability one.
func TestRevertAll(t *testing.T) {
	tree := New(3)
	tree.UpdateSymbols([]byte{1, 0, 1, 1, 0})
	tree.RevertN(5)
	require.InDelta(t, 0.0, tree.LogBlockProbability(), 1e-9)
	require.Equal(t, 1, tree.Size())
	require.Equal(t, 3, tree.HistorySize())
}

// TestGenRandomSymbolsLeavesTreeUnchanged samples without updating and
// checks the tree is untouched, node by node.
func TestGenRandomSymbolsLeavesTreeUnchanged(t *testing.T) {
	rng.Seed(7)
	tree := New(5)
	for i := 0; i < 80; i++ {
		tree.Update(byte(rng.IntN(2)))
	}
	before, err := Load(strings.NewReader(serialized(t, tree)), 5)
	require.NoError(t, err)

	syms := tree.GenRandomSymbols(nil, 16)
	require.Len(t, syms, 16)
	for _, sym := range syms {
		require.LessOrEqual(t, sym, byte(1))
	}
	requireTreesClose(t, before, tree)
}

// TestGenRandomSymbolsReproducible draws, reverts, reseeds and draws again:
// the same RNG state must yield the same bits.
func TestGenRandomSymbolsReproducible(t *testing.T) {
	tree := New(4)
	rng.Seed(3)
	for i := 0; i < 60; i++ {
		tree.Update(byte(rng.IntN(2)))
	}

	rng.Seed(99)
	first := tree.GenRandomSymbolsAndUpdate(nil, 12)
	tree.RevertN(12)
	rng.Seed(99)
	second := tree.GenRandomSymbolsAndUpdate(nil, 12)
	tree.RevertN(12)
	require.Equal(t, first, second)
}

// TestSerializeRoundTrip checks serialize, load and serialize again is byte
// identical, and that the loaded tree predicts identically.
func TestSerializeRoundTrip(t *testing.T) {
	rng.Seed(11)
	tree := New(8)
	for i := 0; i < 500; i++ {
		tree.Update(byte(rng.IntN(2)))
	}
	text := serialized(t, tree)

	loaded, err := Load(strings.NewReader(text), 8)
	require.NoError(t, err)
	require.Equal(t, text, serialized(t, loaded))
	require.InDelta(t, tree.LogBlockProbability(), loaded.LogBlockProbability(), 1e-12)
}

func TestLoadRejectsDepthMismatch(t *testing.T) {
	tree := New(4)
	tree.UpdateSymbols([]byte{1, 0, 1})
	_, err := Load(strings.NewReader(serialized(t, tree)), 8)
	require.Error(t, err)
}

func TestClear(t *testing.T) {
	tree := New(6)
	tree.UpdateSymbols([]byte{1, 1, 1, 0})
	tree.Clear()
	require.Equal(t, 0.0, tree.LogBlockProbability())
	require.Equal(t, 6, tree.HistorySize())
	require.Equal(t, 1, tree.Size())
}
