package treestats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func samplesOnlyTables(n int) *TableCollection {
	tables := &TableCollection{SequenceLength: 1}
	for i := 0; i < n; i++ {
		tables.Nodes = append(tables.Nodes, Node{Flags: NodeIsSample})
	}
	return tables
}

func TestEdgeCase_NoEdges(t *testing.T) {
	tables := samplesOnlyTables(3)
	tables.Sites = []Site{{Position: 0}}
	tables.Mutations = []Mutation{{Site: 0, Node: 0, Parent: NullMutation}}
	ts, err := NewTreeSequence(tables)
	require.NoError(t, err)
	assert.Equal(t, 1, ts.NumTrees())

	tree := newCountingTree(t, ts)
	require.True(t, tree.First())
	assert.Equal(t, []NodeID{0, 1, 2}, tree.Roots())
	left, right := tree.Interval()
	assert.Equal(t, 0.0, left)
	assert.Equal(t, 1.0, right)

	sigma, err := GeneralStat(ts, onesWeights(ts), 1, identity, StatConfig{Mode: ModeBranch})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sigma.At(0, 0))

	sigma, err = GeneralStat(ts, onesWeights(ts), 1, identity, StatConfig{Polarisation: Polarised})
	require.NoError(t, err)
	assert.Equal(t, 1.0, sigma.At(0, 0))
}

func TestEdgeCase_NoSites(t *testing.T) {
	ts, _ := randomTreeSequence(t, 4, 6, 3, 0)
	cfg := StatConfig{Windows: []float64{0, 1, 2, 3}}
	sigma, err := GeneralStat(ts, onesWeights(ts), 2, sumScaled, cfg)
	require.NoError(t, err)
	rows, cols := sigma.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 2, cols)
	assert.True(t, mat.Equal(sigma, mat.NewDense(3, 2, nil)))

	pi, err := PairwiseDiversity(ts, allSamples(ts))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pi)
}

func TestEdgeCase_UncoveredInterval(t *testing.T) {
	tables := samplesOnlyTables(2)
	tables.Nodes = append(tables.Nodes, Node{Time: 2})
	tables.Edges = []Edge{
		{Left: 0.5, Right: 1, Parent: 2, Child: 0},
		{Left: 0.5, Right: 1, Parent: 2, Child: 1},
	}
	ts, err := NewTreeSequence(tables)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.5, 1}, ts.Breakpoints())

	tree := newCountingTree(t, ts)
	require.True(t, tree.First())
	assert.Equal(t, []NodeID{0, 1}, tree.Roots())
	require.True(t, tree.Next())
	assert.Equal(t, []NodeID{2}, tree.Roots())

	cfg := StatConfig{Mode: ModeBranch, Polarisation: Polarised, Windows: ts.Breakpoints()}
	sigma, err := GeneralStat(ts, onesWeights(ts), 1, identity, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0.0, sigma.At(0, 0))
	// Two branches of length 2, each above one sample, over a span of 0.5.
	assert.InDelta(t, 2.0, sigma.At(1, 0), floatTol)
}

func TestEdgeCase_MutationAboveRoot(t *testing.T) {
	tables := loadTables(t, "paper_ex.yaml")
	tables.Mutations[1].Node = 6 // root of the tree at 4.5
	ts, err := NewTreeSequence(tables)
	require.NoError(t, err)

	calc := newCalc(t, ts)
	v, err := calc.R2(0, 1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	sigma, err := Diversity(ts, [][]NodeID{allSamples(ts)}, DefaultStatConfig())
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sigma.At(0, 0), floatTol)
}

func TestEdgeCase_SingleSample(t *testing.T) {
	ts, err := NewTreeSequence(samplesOnlyTables(1))
	require.NoError(t, err)
	_, err = Diversity(ts, [][]NodeID{{0}}, DefaultStatConfig())
	assert.ErrorIs(t, err, ErrBadParamValue)

	sigma, err := GeneralStat(ts, onesWeights(ts), 1, identity, StatConfig{Mode: ModeBranch})
	require.NoError(t, err)
	assert.Equal(t, 0.0, sigma.At(0, 0))
}

func TestEdgeCase_NoSamples(t *testing.T) {
	tables := &TableCollection{SequenceLength: 1, Nodes: []Node{{Time: 0}}}
	ts, err := NewTreeSequence(tables)
	require.NoError(t, err)
	_, err = GeneralStat(ts, mat.NewDense(1, 1, nil), 1, identity, DefaultStatConfig())
	assert.ErrorIs(t, err, ErrBadParamValue)
	_, err = SampleSetWeights(ts, [][]NodeID{{0}})
	assert.ErrorIs(t, err, ErrBadParamValue)
}

func TestEdgeCase_ZeroWeights(t *testing.T) {
	ts := loadFixture(t, "nonbinary.yaml")
	w := mat.NewDense(ts.NumSamples(), 2, nil)
	for _, mode := range []Mode{ModeSite, ModeBranch} {
		sigma, err := GeneralStat(ts, w, 2, identity, StatConfig{Mode: mode, SpanNormalise: true})
		require.NoError(t, err)
		assert.Equal(t, []float64{0, 0}, sigma.RawRowView(0))
	}
}

func TestEdgeCase_SiteOnWindowBoundary(t *testing.T) {
	ts := loadFixture(t, "paper_ex.yaml")
	cfg := StatConfig{Polarisation: Polarised, Windows: []float64{0, 1, 4.5, 10}}
	sigma, err := GeneralStat(ts, onesWeights(ts), 1, identity, cfg)
	require.NoError(t, err)
	// Sites at 1 and 4.5 fall into the windows they open.
	assert.Equal(t, []float64{0, 1, 4}, mat.Col(nil, 0, sigma))
}
