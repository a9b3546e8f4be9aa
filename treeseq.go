package treestats

import (
	"math"
	"sort"
)

// TreeSequence is a read-only, indexed view of a TableCollection. It is safe
// to share between goroutines; the trees, evaluators and calculators built on
// top of it are not.
type TreeSequence struct {
	tables *TableCollection

	samples     []NodeID
	sampleIndex []int // node -> position in samples, -1 for non-samples
	breakpoints []float64

	// insertionOrder sorts edges by (left, parent time); removalOrder by
	// (right, descending parent time). These drive the tree cursor.
	insertionOrder []int
	removalOrder   []int

	// siteMutations[s] lists the mutation indexes of site s in table order.
	siteMutations [][]int
}

// NewTreeSequence indexes tables for tree iteration. The tables are checked
// only as far as the tree cursor and the statistics need; the collection must
// not be modified afterwards.
func NewTreeSequence(tables *TableCollection) (*TreeSequence, error) {
	if tables == nil {
		return nil, errorf(ErrBadParamValue, "nil table collection")
	}
	L := tables.SequenceLength
	if !(L > 0) || math.IsInf(L, 0) {
		return nil, errorf(ErrBadParamValue, "sequence length must be positive and finite, got %g", L)
	}
	numNodes := len(tables.Nodes)

	for j, e := range tables.Edges {
		if e.Parent < 0 || int(e.Parent) >= numNodes || e.Child < 0 || int(e.Child) >= numNodes {
			return nil, errorf(ErrNodeOutOfBounds, "edge %d references node outside [0, %d)", j, numNodes)
		}
		if !(e.Left >= 0 && e.Left < e.Right && e.Right <= L) {
			return nil, errorf(ErrBadEdges, "edge %d has interval [%g, %g) outside [0, %g)", j, e.Left, e.Right, L)
		}
		if tables.Nodes[e.Parent].Time <= tables.Nodes[e.Child].Time {
			return nil, errorf(ErrBadEdges, "edge %d: parent %d is not older than child %d", j, e.Parent, e.Child)
		}
	}

	last := 0.0
	for j, s := range tables.Sites {
		if !(s.Position >= 0 && s.Position < L) {
			return nil, errorf(ErrBadSites, "site %d position %g outside [0, %g)", j, s.Position, L)
		}
		if s.Position < last {
			return nil, errorf(ErrBadSites, "site %d position %g is not sorted", j, s.Position)
		}
		last = s.Position
	}

	siteMutations := make([][]int, len(tables.Sites))
	for j, m := range tables.Mutations {
		if m.Site < 0 || m.Site >= len(tables.Sites) {
			return nil, errorf(ErrOutOfBounds, "mutation %d references site %d", j, m.Site)
		}
		if m.Node < 0 || int(m.Node) >= numNodes {
			return nil, errorf(ErrNodeOutOfBounds, "mutation %d references node %d", j, m.Node)
		}
		if m.Parent != NullMutation {
			if m.Parent < 0 || m.Parent >= j || tables.Mutations[m.Parent].Site != m.Site {
				return nil, errorf(ErrOutOfBounds, "mutation %d has invalid parent %d", j, m.Parent)
			}
		}
		siteMutations[m.Site] = append(siteMutations[m.Site], j)
	}

	ts := &TreeSequence{
		tables:        tables,
		sampleIndex:   make([]int, numNodes),
		siteMutations: siteMutations,
	}
	for u, n := range tables.Nodes {
		ts.sampleIndex[u] = -1
		if n.Flags&NodeIsSample != 0 {
			ts.sampleIndex[u] = len(ts.samples)
			ts.samples = append(ts.samples, NodeID(u))
		}
	}
	ts.buildEdgeIndexes()
	ts.buildBreakpoints()

	logger.Debug("tree sequence indexed",
		"nodes", numNodes,
		"edges", len(tables.Edges),
		"trees", ts.NumTrees(),
		"sites", len(tables.Sites),
	)
	return ts, nil
}

func (ts *TreeSequence) buildEdgeIndexes() {
	edges := ts.tables.Edges
	nodes := ts.tables.Nodes
	n := len(edges)
	ts.insertionOrder = make([]int, n)
	ts.removalOrder = make([]int, n)
	for j := range edges {
		ts.insertionOrder[j] = j
		ts.removalOrder[j] = j
	}

	sort.SliceStable(ts.insertionOrder, func(a, b int) bool {
		ea, eb := edges[ts.insertionOrder[a]], edges[ts.insertionOrder[b]]
		if ea.Left != eb.Left {
			return ea.Left < eb.Left
		}
		ta, tb := nodes[ea.Parent].Time, nodes[eb.Parent].Time
		if ta != tb {
			return ta < tb
		}
		if ea.Parent != eb.Parent {
			return ea.Parent < eb.Parent
		}
		return ea.Child < eb.Child
	})
	sort.SliceStable(ts.removalOrder, func(a, b int) bool {
		ea, eb := edges[ts.removalOrder[a]], edges[ts.removalOrder[b]]
		if ea.Right != eb.Right {
			return ea.Right < eb.Right
		}
		ta, tb := nodes[ea.Parent].Time, nodes[eb.Parent].Time
		if ta != tb {
			return ta > tb
		}
		if ea.Parent != eb.Parent {
			return ea.Parent > eb.Parent
		}
		return ea.Child > eb.Child
	})
}

func (ts *TreeSequence) buildBreakpoints() {
	L := ts.tables.SequenceLength
	seen := map[float64]bool{0: true, L: true}
	bp := []float64{0, L}
	for _, e := range ts.tables.Edges {
		for _, x := range [2]float64{e.Left, e.Right} {
			if !seen[x] {
				seen[x] = true
				bp = append(bp, x)
			}
		}
	}
	sort.Float64s(bp)
	ts.breakpoints = bp
}

// Tables returns the underlying table collection. It must not be modified.
func (ts *TreeSequence) Tables() *TableCollection { return ts.tables }

// SequenceLength returns the genome length L.
func (ts *TreeSequence) SequenceLength() float64 { return ts.tables.SequenceLength }

// NumNodes returns the number of nodes.
func (ts *TreeSequence) NumNodes() int { return len(ts.tables.Nodes) }

// NumEdges returns the number of edges.
func (ts *TreeSequence) NumEdges() int { return len(ts.tables.Edges) }

// NumSites returns the number of sites.
func (ts *TreeSequence) NumSites() int { return len(ts.tables.Sites) }

// NumMutations returns the number of mutations.
func (ts *TreeSequence) NumMutations() int { return len(ts.tables.Mutations) }

// NumSamples returns the number of sample nodes.
func (ts *TreeSequence) NumSamples() int { return len(ts.samples) }

// NumTrees returns the number of local trees, one per breakpoint interval.
func (ts *TreeSequence) NumTrees() int { return len(ts.breakpoints) - 1 }

// Breakpoints returns the sorted tree boundaries, from 0 to L inclusive.
// The slice is shared and must not be modified.
func (ts *TreeSequence) Breakpoints() []float64 { return ts.breakpoints }

// Samples returns the sample node IDs in node order. The slice is shared and
// must not be modified.
func (ts *TreeSequence) Samples() []NodeID { return ts.samples }

// IsSample reports whether u is a sample node. Invalid IDs are not samples.
func (ts *TreeSequence) IsSample(u NodeID) bool {
	return u >= 0 && int(u) < len(ts.sampleIndex) && ts.sampleIndex[u] >= 0
}

// NodeTime returns the time of node u, which must be valid.
func (ts *TreeSequence) NodeTime(u NodeID) float64 { return ts.tables.Nodes[u].Time }

// Site returns site j and its mutations in table order.
func (ts *TreeSequence) Site(j int) (Site, []Mutation, error) {
	if j < 0 || j >= len(ts.tables.Sites) {
		return Site{}, nil, errorf(ErrOutOfBounds, "site %d not in [0, %d)", j, len(ts.tables.Sites))
	}
	ids := ts.siteMutations[j]
	muts := make([]Mutation, len(ids))
	for k, id := range ids {
		muts[k] = ts.tables.Mutations[id]
	}
	return ts.tables.Sites[j], muts, nil
}

// MaxSiteMutations returns the largest number of mutations at any site.
func (ts *TreeSequence) MaxSiteMutations() int {
	m := 0
	for _, ids := range ts.siteMutations {
		m = max(m, len(ids))
	}
	return m
}

// checkNode validates a node ID at the API boundary.
func (ts *TreeSequence) checkNode(u NodeID) error {
	if u < 0 || int(u) >= len(ts.tables.Nodes) {
		return errorf(ErrNodeOutOfBounds, "node %d not in [0, %d)", u, len(ts.tables.Nodes))
	}
	return nil
}
