package treestats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// branchGeneralStat sweeps the trees left to right. Within a tree every branch
// (parent u, child v) is visited in child-ID order; the summed
// length-weighted values are then spread over the windows the tree overlaps.
func branchGeneralStat(ts *TreeSequence, nodeWeights *mat.Dense, ev *statEvaluator, windows windowSet, result *mat.Dense) error {
	tree, err := NewTree(ts, TreeConfig{NodeWeights: nodeWeights})
	if err != nil {
		return err
	}
	_, m := result.Dims()
	out := make([]float64, m)
	treeSum := make([]float64, m)

	for ok := tree.First(); ok; ok = tree.Next() {
		clear(treeSum)
		for v := range tree.parent {
			u := tree.parent[v]
			if u == NullNode {
				continue
			}
			if err := ev.eval(tree.Weights(NodeID(v)), out); err != nil {
				return err
			}
			floats.AddScaled(treeSum, ts.NodeTime(u)-ts.NodeTime(NodeID(v)), out)
		}
		left, right := tree.Interval()
		windows.spread(result, left, right, treeSum)
	}
	return nil
}
