package ctw

import (
	"math"

	"github.com/janpfeifer/aixigo/internal/rng"
)

// GenRandomSymbolsAndUpdate draws n bits from the conditional predictive
// distribution given the current history, appends them to out, and leaves
// the tree updated with the drawn bits, as if they had been observed.
//
// Each bit uses the identity P(0 | h) = P(h·0) / P(h): a tentative update
// with 0 yields the conditional in log-space, and the update is replaced
// only when 1 is drawn.
func (t *Tree) GenRandomSymbolsAndUpdate(out []byte, n int) []byte {
	for i := 0; i < n; i++ {
		logJoint := t.root.logProbWeighted
		t.Update(0)
		prob0 := math.Exp(t.root.logProbWeighted - logJoint)

		var sym byte
		if rng.Float64() >= prob0 {
			sym = 1
			t.Revert()
			t.Update(1)
		}
		out = append(out, sym)
	}
	return out
}

// GenRandomSymbols is GenRandomSymbolsAndUpdate followed by reverting the
// drawn bits, leaving the tree unchanged.
func (t *Tree) GenRandomSymbols(out []byte, n int) []byte {
	out = t.GenRandomSymbolsAndUpdate(out, n)
	t.RevertN(n)
	return out
}
