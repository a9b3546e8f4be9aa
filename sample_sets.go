package treestats

import (
	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/mat"
)

// SampleSetWeights returns the NumSamples × len(sets) indicator matrix used as
// the weights of a general statistic: entry (j, k) is 1 when sample j (in the
// order of ts.Samples()) belongs to sets[k].
func SampleSetWeights(ts *TreeSequence, sets [][]NodeID) (*mat.Dense, error) {
	if ts == nil {
		return nil, errorf(ErrBadParamValue, "nil tree sequence")
	}
	if len(sets) == 0 {
		return nil, errorf(ErrBadParamValue, "at least one sample set is required")
	}
	if ts.NumSamples() == 0 {
		return nil, errorf(ErrBadParamValue, "tree sequence has no samples")
	}
	w := mat.NewDense(ts.NumSamples(), len(sets), nil)
	for k, set := range sets {
		if len(set) == 0 {
			return nil, errorf(ErrBadParamValue, "sample set %d is empty", k)
		}
		seen := roaring.New()
		for _, u := range set {
			if err := ts.checkNode(u); err != nil {
				return nil, err
			}
			if !ts.IsSample(u) {
				return nil, errorf(ErrBadSamples, "node %d in sample set %d is not a sample", u, k)
			}
			if !seen.CheckedAdd(uint32(u)) {
				return nil, errorf(ErrDuplicateSample, "node %d listed twice in sample set %d", u, k)
			}
			w.Set(ts.sampleIndex[u], k, 1)
		}
	}
	return w, nil
}

// nodeSetWeights returns the NumNodes × len(sets) indicator matrix of
// arbitrary nodes. With disjoint set, a node may appear in at most one set.
func nodeSetWeights(ts *TreeSequence, sets [][]NodeID, disjoint bool) (*mat.Dense, error) {
	if len(sets) == 0 {
		return nil, errorf(ErrBadParamValue, "at least one reference set is required")
	}
	if ts.NumNodes() == 0 {
		return nil, errorf(ErrBadParamValue, "tree sequence has no nodes")
	}
	w := mat.NewDense(ts.NumNodes(), len(sets), nil)
	all := roaring.New()
	for k, set := range sets {
		seen := roaring.New()
		for _, u := range set {
			if err := ts.checkNode(u); err != nil {
				return nil, err
			}
			if !seen.CheckedAdd(uint32(u)) {
				return nil, errorf(ErrDuplicateSample, "node %d listed twice in reference set %d", u, k)
			}
			if disjoint && !all.CheckedAdd(uint32(u)) {
				return nil, errorf(ErrDuplicateSample, "node %d appears in more than one reference set", u)
			}
			w.Set(int(u), k, 1)
		}
	}
	return w, nil
}

func setSizes(sets [][]NodeID) []float64 {
	sizes := make([]float64, len(sets))
	for k, s := range sets {
		sizes[k] = float64(len(s))
	}
	return sizes
}

// Diversity returns the mean pairwise difference within each sample set, one
// column per set. Each set needs at least two samples.
func Diversity(ts *TreeSequence, sets [][]NodeID, cfg StatConfig) (*mat.Dense, error) {
	w, err := SampleSetWeights(ts, sets)
	if err != nil {
		return nil, err
	}
	n := setSizes(sets)
	for k, size := range n {
		if size < 2 {
			return nil, errorf(ErrBadParamValue, "sample set %d needs at least two samples", k)
		}
	}
	f := func(x, y []float64) error {
		for k := range y {
			y[k] = x[k] * (n[k] - x[k]) / (n[k] * (n[k] - 1))
		}
		return nil
	}
	return GeneralStat(ts, w, len(sets), f, cfg)
}

// Divergence returns the mean pairwise difference between samples drawn from
// two different sets, one column for every pair (i, j) with i < j in
// lexicographic order.
func Divergence(ts *TreeSequence, sets [][]NodeID, cfg StatConfig) (*mat.Dense, error) {
	if len(sets) < 2 {
		return nil, errorf(ErrBadParamValue, "divergence needs at least two sample sets, got %d", len(sets))
	}
	w, err := SampleSetWeights(ts, sets)
	if err != nil {
		return nil, err
	}
	n := setSizes(sets)
	type pair struct{ i, j int }
	var pairs []pair
	for i := range sets {
		for j := i + 1; j < len(sets); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}
	f := func(x, y []float64) error {
		for p, ij := range pairs {
			y[p] = x[ij.i] * (n[ij.j] - x[ij.j]) / (n[ij.i] * n[ij.j])
		}
		return nil
	}
	return GeneralStat(ts, w, len(pairs), f, cfg)
}

// SegregatingSites returns, per sample set, the number of segregating sites
// (site mode) or the total length of branches that split the set (branch
// mode). Under Unpolarised evaluation each split counts once.
func SegregatingSites(ts *TreeSequence, sets [][]NodeID, cfg StatConfig) (*mat.Dense, error) {
	w, err := SampleSetWeights(ts, sets)
	if err != nil {
		return nil, err
	}
	n := setSizes(sets)
	f := func(x, y []float64) error {
		for k := range y {
			y[k] = 0
			if x[k] > 0 {
				y[k] = 1 - x[k]/n[k]
			}
		}
		return nil
	}
	return GeneralStat(ts, w, len(sets), f, cfg)
}

// PairwiseDiversity returns the sum over sites of the probability that two
// samples drawn without replacement from samples differ. It needs between 2
// and NumSamples distinct samples and at most one mutation per site.
func PairwiseDiversity(ts *TreeSequence, samples []NodeID) (float64, error) {
	if ts == nil {
		return 0, errorf(ErrBadParamValue, "nil tree sequence")
	}
	n := len(samples)
	if n < 2 || n > ts.NumSamples() {
		return 0, errorf(ErrBadParamValue, "need between 2 and %d samples, got %d", ts.NumSamples(), n)
	}
	tracked := roaring.New()
	for _, u := range samples {
		if err := ts.checkNode(u); err != nil {
			return 0, err
		}
		if !ts.IsSample(u) {
			return 0, errorf(ErrBadSamples, "node %d is not a sample", u)
		}
		if !tracked.CheckedAdd(uint32(u)) {
			return 0, errorf(ErrDuplicateSample, "node %d listed twice", u)
		}
	}
	if ts.MaxSiteMutations() > 1 {
		return 0, errorf(ErrOnlyInfiniteSites, "a site carries %d mutations", ts.MaxSiteMutations())
	}

	tree, err := NewTree(ts, TreeConfig{})
	if err != nil {
		return 0, err
	}
	if err := tree.SetTrackedSamples(tracked); err != nil {
		return 0, err
	}
	N := float64(n)
	denom := N * (N - 1) / 2
	pi := 0.0
	for j, site := range ts.tables.Sites {
		ids := ts.siteMutations[j]
		if len(ids) == 0 {
			continue
		}
		tree.SeekPosition(site.Position)
		k := float64(tree.NumTrackedSamples(ts.tables.Mutations[ids[0]].Node))
		pi += k * (N - k) / denom
	}
	return pi, nil
}
