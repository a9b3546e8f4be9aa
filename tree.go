package treestats

import (
	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Direction selects which way a sweep moves along the genome.
type Direction int

const (
	// Forward sweeps towards increasing positions.
	Forward Direction = 1
	// Reverse sweeps towards decreasing positions.
	Reverse Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	default:
		return "invalid"
	}
}

// TreeConfig selects the per-node annotations a Tree maintains.
type TreeConfig struct {
	// SampleCounts enables NumSamples.
	SampleCounts bool

	// NodeWeights, when set, is a NumNodes × K matrix. Each node then carries
	// the sum of its own row and the rows of all its descendants, readable
	// through Weights.
	NodeWeights mat.Matrix
}

// Tree is a cursor over the local trees of a TreeSequence. The topology is
// held in parent/child/sibling arrays indexed by NodeID and updated by
// inserting and removing edges at each breakpoint, so moving to a neighbouring
// tree costs only the edges that change.
//
// A Tree is not safe for concurrent use.
type Tree struct {
	ts *TreeSequence

	parent     []NodeID
	leftChild  []NodeID
	rightChild []NodeID
	leftSib    []NodeID
	rightSib   []NodeID

	numSamples []int
	numTracked []int
	tracked    *roaring.Bitmap

	k          int
	weights    []float64
	initWeight []float64

	index      int
	left       float64
	right      float64
	direction  Direction
	leftIndex  int
	rightIndex int

	inserted int
	removed  int
}

// NewTree returns a cursor positioned before the first tree. Call First,
// Last, Next, Prev or SeekPosition to load a tree.
func NewTree(ts *TreeSequence, cfg TreeConfig) (*Tree, error) {
	if ts == nil {
		return nil, errorf(ErrBadParamValue, "nil tree sequence")
	}
	n := ts.NumNodes()
	t := &Tree{
		ts:         ts,
		parent:     make([]NodeID, n),
		leftChild:  make([]NodeID, n),
		rightChild: make([]NodeID, n),
		leftSib:    make([]NodeID, n),
		rightSib:   make([]NodeID, n),
		index:      -1,
		direction:  Forward,
	}
	if cfg.SampleCounts {
		t.numSamples = make([]int, n)
	}
	if cfg.NodeWeights != nil {
		rows, cols := cfg.NodeWeights.Dims()
		if rows != n || cols == 0 {
			return nil, errorf(ErrBadParamValue, "node weights are %d×%d, want %d×K with K >= 1", rows, cols, n)
		}
		t.k = cols
		t.initWeight = make([]float64, n*cols)
		for u := 0; u < n; u++ {
			mat.Row(t.initWeight[u*cols:(u+1)*cols], u, cfg.NodeWeights)
		}
		t.weights = make([]float64, n*cols)
	}
	t.clear()
	return t, nil
}

// clear resets the topology to the empty forest and the annotations to their
// initial per-node values.
func (t *Tree) clear() {
	for u := range t.parent {
		t.parent[u] = NullNode
		t.leftChild[u] = NullNode
		t.rightChild[u] = NullNode
		t.leftSib[u] = NullNode
		t.rightSib[u] = NullNode
	}
	if t.numSamples != nil {
		for u := range t.numSamples {
			t.numSamples[u] = 0
			if t.ts.sampleIndex[u] >= 0 {
				t.numSamples[u] = 1
			}
		}
	}
	if t.numTracked != nil {
		for u := range t.numTracked {
			t.numTracked[u] = 0
			if t.tracked.Contains(uint32(u)) {
				t.numTracked[u] = 1
			}
		}
	}
	if t.weights != nil {
		copy(t.weights, t.initWeight)
	}
	t.index = -1
	t.left, t.right = 0, 0
}

// SetTrackedSamples makes NumTrackedSamples count the given nodes. The counts
// are rebuilt for the current tree and then maintained across moves.
func (t *Tree) SetTrackedSamples(nodes *roaring.Bitmap) error {
	it := nodes.Iterator()
	for it.HasNext() {
		if err := t.ts.checkNode(NodeID(it.Next())); err != nil {
			return err
		}
	}
	t.tracked = nodes.Clone()
	if t.numTracked == nil {
		t.numTracked = make([]int, len(t.parent))
	}
	clear(t.numTracked)
	it = t.tracked.Iterator()
	for it.HasNext() {
		for v := NodeID(it.Next()); v != NullNode; v = t.parent[v] {
			t.numTracked[v]++
		}
	}
	return nil
}

func (t *Tree) insertEdge(p, c NodeID) {
	t.parent[c] = p
	u := t.rightChild[p]
	if u == NullNode {
		t.leftChild[p] = c
		t.leftSib[c] = NullNode
	} else {
		t.rightSib[u] = c
		t.leftSib[c] = u
	}
	t.rightSib[c] = NullNode
	t.rightChild[p] = c
	t.propagate(p, c, 1)
	t.inserted++
}

func (t *Tree) removeEdge(p, c NodeID) {
	lsib, rsib := t.leftSib[c], t.rightSib[c]
	if lsib == NullNode {
		t.leftChild[p] = rsib
	} else {
		t.rightSib[lsib] = rsib
	}
	if rsib == NullNode {
		t.rightChild[p] = lsib
	} else {
		t.leftSib[rsib] = lsib
	}
	t.parent[c] = NullNode
	t.leftSib[c] = NullNode
	t.rightSib[c] = NullNode
	t.propagate(p, c, -1)
	t.removed++
}

// propagate adds (sign=1) or subtracts (sign=-1) the annotations of c to p
// and every ancestor of p.
func (t *Tree) propagate(p, c NodeID, sign int) {
	var cw []float64
	if t.weights != nil {
		cw = t.weights[int(c)*t.k : int(c+1)*t.k]
	}
	for v := p; v != NullNode; v = t.parent[v] {
		if t.numSamples != nil {
			t.numSamples[v] += sign * t.numSamples[c]
		}
		if t.numTracked != nil {
			t.numTracked[v] += sign * t.numTracked[c]
		}
		if cw != nil {
			floats.AddScaled(t.weights[int(v)*t.k:int(v+1)*t.k], float64(sign), cw)
		}
	}
}

// advance moves one tree in direction, applying the edge removals and then
// the insertions at the shared breakpoint.
func (t *Tree) advance(direction Direction) bool {
	edges := t.ts.tables.Edges
	m := len(edges)
	L := t.ts.SequenceLength()

	var (
		outOrder, inOrder []int
		outIdx, inIdx     *int
		outBP, inBP       func(k int) float64
		x                 float64
	)
	leftOf := func(k int) float64 { return edges[k].Left }
	rightOf := func(k int) float64 { return edges[k].Right }
	if direction == Forward {
		outOrder, outIdx, outBP = t.ts.removalOrder, &t.rightIndex, rightOf
		inOrder, inIdx, inBP = t.ts.insertionOrder, &t.leftIndex, leftOf
		x = t.right
	} else {
		outOrder, outIdx, outBP = t.ts.insertionOrder, &t.leftIndex, leftOf
		inOrder, inIdx, inBP = t.ts.removalOrder, &t.rightIndex, rightOf
		x = t.left
	}

	change := 0
	if direction != t.direction {
		change = int(direction)
	}
	out := *outIdx + change
	in := *inIdx + change
	step := int(direction)
	before := t.inserted + t.removed

	for out >= 0 && out < m && outBP(outOrder[out]) == x {
		e := edges[outOrder[out]]
		out += step
		t.removeEdge(e.Parent, e.Child)
	}
	for in >= 0 && in < m && inBP(inOrder[in]) == x {
		e := edges[inOrder[in]]
		in += step
		t.insertEdge(e.Parent, e.Child)
	}

	t.direction = direction
	t.index += step
	if direction == Forward {
		t.left, t.right = x, L
		if out >= 0 && out < m {
			t.right = min(t.right, outBP(outOrder[out]))
		}
		if in >= 0 && in < m {
			t.right = min(t.right, inBP(inOrder[in]))
		}
	} else {
		t.left, t.right = 0, x
		if out >= 0 && out < m {
			t.left = max(t.left, outBP(outOrder[out]))
		}
		if in >= 0 && in < m {
			t.left = max(t.left, inBP(inOrder[in]))
		}
	}
	*outIdx = out
	*inIdx = in
	recordEdgeOps(t.inserted+t.removed-before, direction)
	return true
}

// First loads the leftmost tree.
func (t *Tree) First() bool {
	t.clear()
	t.direction = Forward
	t.leftIndex, t.rightIndex = 0, 0
	return t.advance(Forward)
}

// Last loads the rightmost tree.
func (t *Tree) Last() bool {
	t.clear()
	L := t.ts.SequenceLength()
	t.index = t.ts.NumTrees()
	t.left, t.right = L, L
	t.direction = Reverse
	t.leftIndex = t.ts.NumEdges() - 1
	t.rightIndex = t.ts.NumEdges() - 1
	return t.advance(Reverse)
}

// Next moves to the next tree. From the null position it loads the first
// tree; past the last tree it returns false and the cursor becomes null.
func (t *Tree) Next() bool {
	switch {
	case t.index == -1:
		return t.First()
	case t.index < t.ts.NumTrees()-1:
		return t.advance(Forward)
	default:
		t.clear()
		return false
	}
}

// Prev moves to the previous tree. From the null position it loads the last
// tree; before the first tree it returns false and the cursor becomes null.
func (t *Tree) Prev() bool {
	switch {
	case t.index == -1:
		return t.Last()
	case t.index > 0:
		return t.advance(Reverse)
	default:
		t.clear()
		return false
	}
}

// SeekPosition loads the tree whose interval contains x, moving from the
// current tree when there is one. It returns false when x is outside [0, L).
func (t *Tree) SeekPosition(x float64) bool {
	L := t.ts.SequenceLength()
	if !(x >= 0 && x < L) {
		return false
	}
	if t.index == -1 {
		if x < L/2 {
			t.First()
		} else {
			t.Last()
		}
	}
	for x >= t.right {
		t.Next()
	}
	for x < t.left {
		t.Prev()
	}
	return true
}

// Index returns the index of the current tree, or -1 at the null position.
func (t *Tree) Index() int { return t.index }

// Interval returns the genomic interval [left, right) of the current tree.
func (t *Tree) Interval() (left, right float64) { return t.left, t.right }

// Span returns right - left for the current tree.
func (t *Tree) Span() float64 { return t.right - t.left }

// Parent returns the parent of u, or NullNode.
func (t *Tree) Parent(u NodeID) NodeID { return t.parent[u] }

// LeftChild returns the leftmost child of u, or NullNode.
func (t *Tree) LeftChild(u NodeID) NodeID { return t.leftChild[u] }

// RightChild returns the rightmost child of u, or NullNode.
func (t *Tree) RightChild(u NodeID) NodeID { return t.rightChild[u] }

// LeftSib returns the sibling to the left of u, or NullNode.
func (t *Tree) LeftSib(u NodeID) NodeID { return t.leftSib[u] }

// RightSib returns the sibling to the right of u, or NullNode.
func (t *Tree) RightSib(u NodeID) NodeID { return t.rightSib[u] }

// Roots returns the roots of the current forest in node order: nodes with no
// parent that have children or are samples.
func (t *Tree) Roots() []NodeID {
	var roots []NodeID
	for u := range t.parent {
		if t.parent[u] == NullNode && (t.leftChild[u] != NullNode || t.ts.sampleIndex[u] >= 0) {
			roots = append(roots, NodeID(u))
		}
	}
	return roots
}

// BranchLength returns the length of the branch above u, 0 for roots.
func (t *Tree) BranchLength(u NodeID) float64 {
	p := t.parent[u]
	if p == NullNode {
		return 0
	}
	return t.ts.NodeTime(p) - t.ts.NodeTime(u)
}

// NumSamples returns the number of samples at or below u, or 0 when the tree
// was built without TreeConfig.SampleCounts.
func (t *Tree) NumSamples(u NodeID) int {
	if t.numSamples == nil {
		return 0
	}
	return t.numSamples[u]
}

// NumTrackedSamples returns the number of tracked samples at or below u, or 0
// before the first SetTrackedSamples.
func (t *Tree) NumTrackedSamples(u NodeID) int {
	if t.numTracked == nil {
		return 0
	}
	return t.numTracked[u]
}

// Weights returns the accumulated node-weight row of u. The slice aliases the
// tree's state and is valid until the cursor moves.
func (t *Tree) Weights(u NodeID) []float64 {
	return t.weights[int(u)*t.k : int(u+1)*t.k]
}

// Samples returns the sample nodes at or below u.
func (t *Tree) Samples(u NodeID) *roaring.Bitmap {
	b := roaring.New()
	stack := []NodeID{u}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t.ts.sampleIndex[v] >= 0 {
			b.Add(uint32(v))
		}
		for c := t.leftChild[v]; c != NullNode; c = t.rightSib[c] {
			stack = append(stack, c)
		}
	}
	return b
}

// EdgeOps returns the number of edge insertions and removals performed since
// the tree was created.
func (t *Tree) EdgeOps() (inserted, removed int) { return t.inserted, t.removed }
