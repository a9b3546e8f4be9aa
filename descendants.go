package treestats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MeanDescendants returns a NumNodes × len(refSets) matrix whose entry (u, k)
// is the number of nodes of refSets[k] at or below u, averaged over the span
// where u is in a tree (has a parent or a child). Nodes never in a tree get a
// zero row.
func MeanDescendants(ts *TreeSequence, refSets [][]NodeID) (*mat.Dense, error) {
	if ts == nil {
		return nil, errorf(ErrBadParamValue, "nil tree sequence")
	}
	indicator, err := nodeSetWeights(ts, refSets, false)
	if err != nil {
		return nil, err
	}
	tree, err := NewTree(ts, TreeConfig{NodeWeights: indicator})
	if err != nil {
		return nil, err
	}
	n, k := ts.NumNodes(), len(refSets)
	result := mat.NewDense(n, k, nil)
	span := make([]float64, n)
	for ok := tree.First(); ok; ok = tree.Next() {
		s := tree.Span()
		for u := 0; u < n; u++ {
			if tree.parent[u] == NullNode && tree.leftChild[u] == NullNode {
				continue
			}
			floats.AddScaled(result.RawRowView(u), s, tree.Weights(NodeID(u)))
			span[u] += s
		}
	}
	for u, s := range span {
		if s > 0 {
			floats.Scale(1/s, result.RawRowView(u))
		}
	}
	return result, nil
}

// GenealogicalNearestNeighbours returns a len(focal) × len(refSets) matrix.
// For each focal node and tree, the walk goes up from the node to the first
// ancestor with reference nodes below it other than the focal node itself;
// the fractions of those reference nodes falling in each set are averaged
// along the genome, weighted by span. Reference sets must be disjoint. Rows
// of focal nodes that never find such an ancestor are zero.
func GenealogicalNearestNeighbours(ts *TreeSequence, focal []NodeID, refSets [][]NodeID) (*mat.Dense, error) {
	if ts == nil {
		return nil, errorf(ErrBadParamValue, "nil tree sequence")
	}
	if len(focal) == 0 {
		return nil, errorf(ErrBadParamValue, "at least one focal node is required")
	}
	for _, u := range focal {
		if err := ts.checkNode(u); err != nil {
			return nil, err
		}
	}
	indicator, err := nodeSetWeights(ts, refSets, true)
	if err != nil {
		return nil, err
	}
	membership := make([]int, ts.NumNodes())
	for u := range membership {
		membership[u] = -1
	}
	for k, set := range refSets {
		for _, u := range set {
			membership[u] = k
		}
	}

	tree, err := NewTree(ts, TreeConfig{NodeWeights: indicator})
	if err != nil {
		return nil, err
	}
	k := len(refSets)
	result := mat.NewDense(len(focal), k, nil)
	length := make([]float64, len(focal))
	for ok := tree.First(); ok; ok = tree.Next() {
		s := tree.Span()
		for j, u := range focal {
			own := membership[u]
			for v := tree.parent[u]; v != NullNode; v = tree.parent[v] {
				w := tree.Weights(v)
				total := floats.Sum(w)
				if own >= 0 {
					total--
				}
				if total <= 0 {
					continue
				}
				row := result.RawRowView(j)
				for c := range row {
					count := w[c]
					if c == own {
						count--
					}
					row[c] += s * count / total
				}
				length[j] += s
				break
			}
		}
	}
	for j, l := range length {
		if l > 0 {
			floats.Scale(1/l, result.RawRowView(j))
		}
	}
	return result, nil
}
