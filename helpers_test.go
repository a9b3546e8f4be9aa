package treestats

import (
	"math"
	"math/rand"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

const floatTol = 1e-9

func almostEqual(a, b, tol float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return math.Abs(a-b) <= tol
}

func loadTables(t testing.TB, name string) *TableCollection {
	t.Helper()
	tables, err := LoadTables(filepath.Join("testdata", name))
	require.NoError(t, err)
	return tables
}

func loadFixture(t testing.TB, name string) *TreeSequence {
	t.Helper()
	ts, err := NewTreeSequence(loadTables(t, name))
	require.NoError(t, err)
	return ts
}

// dropSite returns a copy of tables without site j and its mutations.
func dropSite(tables *TableCollection, j int) *TableCollection {
	out := &TableCollection{
		SequenceLength: tables.SequenceLength,
		Nodes:          tables.Nodes,
		Edges:          tables.Edges,
	}
	out.Sites = append(out.Sites, tables.Sites[:j]...)
	out.Sites = append(out.Sites, tables.Sites[j+1:]...)
	remap := make(map[int]int)
	for id, m := range tables.Mutations {
		if m.Site == j {
			continue
		}
		if m.Site > j {
			m.Site--
		}
		if m.Parent != NullMutation {
			m.Parent = remap[m.Parent]
		}
		remap[id] = len(out.Mutations)
		out.Mutations = append(out.Mutations, m)
	}
	return out
}

// randomTables builds numTrees independent random binary trees over n
// samples, tree i covering [i, i+1), and puts numSites single-mutation sites
// on non-root branches. genotypes[s][j] is 1 when sample j carries the
// mutation of site s.
func randomTables(seed int64, n, numTrees, numSites int) (tables *TableCollection, genotypes [][]float64) {
	rng := rand.New(rand.NewSource(seed))
	tables = &TableCollection{SequenceLength: float64(numTrees)}
	for i := 0; i < n; i++ {
		tables.Nodes = append(tables.Nodes, Node{Flags: NodeIsSample})
	}

	below := make(map[NodeID][]NodeID)
	nonRoot := make([][]NodeID, numTrees)
	for i := 0; i < n; i++ {
		below[NodeID(i)] = []NodeID{NodeID(i)}
	}
	for tr := 0; tr < numTrees; tr++ {
		left, right := float64(tr), float64(tr+1)
		lineages := make([]NodeID, n)
		for i := range lineages {
			lineages[i] = NodeID(i)
		}
		t := 0.0
		for len(lineages) > 1 {
			t += 0.1 + rng.Float64()
			i := rng.Intn(len(lineages))
			a := lineages[i]
			lineages = append(lineages[:i], lineages[i+1:]...)
			j := rng.Intn(len(lineages))
			b := lineages[j]
			lineages = append(lineages[:j], lineages[j+1:]...)

			p := NodeID(len(tables.Nodes))
			tables.Nodes = append(tables.Nodes, Node{Time: t})
			tables.Edges = append(tables.Edges,
				Edge{Left: left, Right: right, Parent: p, Child: a},
				Edge{Left: left, Right: right, Parent: p, Child: b},
			)
			below[p] = append(append([]NodeID{}, below[a]...), below[b]...)
			nonRoot[tr] = append(nonRoot[tr], a, b)
			lineages = append(lineages, p)
		}
	}

	positions := make([]float64, numSites)
	for s := range positions {
		positions[s] = rng.Float64() * float64(numTrees)
	}
	sort.Float64s(positions)
	genotypes = make([][]float64, numSites)
	for s, x := range positions {
		candidates := nonRoot[int(x)]
		node := candidates[rng.Intn(len(candidates))]
		tables.Sites = append(tables.Sites, Site{Position: x, AncestralState: "0"})
		tables.Mutations = append(tables.Mutations, Mutation{Site: s, Node: node, DerivedState: "1", Parent: NullMutation})
		genotypes[s] = make([]float64, n)
		for _, u := range below[node] {
			genotypes[s][u] = 1
		}
	}
	return tables, genotypes
}

func randomTreeSequence(t testing.TB, seed int64, n, numTrees, numSites int) (*TreeSequence, [][]float64) {
	t.Helper()
	tables, genotypes := randomTables(seed, n, numTrees, numSites)
	ts, err := NewTreeSequence(tables)
	require.NoError(t, err)
	return ts, genotypes
}

func allSamples(ts *TreeSequence) []NodeID {
	return append([]NodeID(nil), ts.Samples()...)
}
