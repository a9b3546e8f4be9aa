package treestats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// siteGeneralStat visits sites in position order, moving a single tree cursor
// forward to each one. A mutation's weight vector counts the samples below
// its node minus those below the mutations nested directly under it, so a
// back or recurrent mutation takes its samples away from its parent.
func siteGeneralStat(ts *TreeSequence, nodeWeights *mat.Dense, ev *statEvaluator, windows windowSet, result *mat.Dense) error {
	tree, err := NewTree(ts, TreeConfig{NodeWeights: nodeWeights})
	if err != nil {
		return err
	}
	_, m := result.Dims()
	_, k := nodeWeights.Dims()
	x := make([]float64, k)
	out := make([]float64, m)
	mutations := ts.tables.Mutations

	for j, site := range ts.tables.Sites {
		ids := ts.siteMutations[j]
		if len(ids) == 0 {
			continue
		}
		tree.SeekPosition(site.Position)
		row := result.RawRowView(windows.locate(site.Position))
		for _, id := range ids {
			copy(x, tree.Weights(mutations[id].Node))
			for _, other := range ids {
				if mutations[other].Parent == id {
					floats.Sub(x, tree.Weights(mutations[other].Node))
				}
			}
			if err := ev.eval(x, out); err != nil {
				return err
			}
			floats.Add(row, out)
		}
	}
	return nil
}
