package treestats

import (
	"math/rand"
	"testing"
)

func benchTreeSequence(b *testing.B, n, numTrees, numSites int) *TreeSequence {
	b.Helper()
	tables, _ := randomTables(42, n, numTrees, numSites)
	ts, err := NewTreeSequence(tables)
	if err != nil {
		b.Fatal(err)
	}
	return ts
}

// --- Tree sweep ---

func benchTreeSweep(b *testing.B, n int) {
	b.Helper()
	ts := benchTreeSequence(b, n, 50, 0)
	tree, err := NewTree(ts, TreeConfig{SampleCounts: true})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for ok := tree.First(); ok; ok = tree.Next() {
		}
	}
}

func BenchmarkTreeSweep_50(b *testing.B)  { benchTreeSweep(b, 50) }
func BenchmarkTreeSweep_500(b *testing.B) { benchTreeSweep(b, 500) }

// --- General statistic ---

func benchGeneralStat(b *testing.B, n int, mode Mode) {
	b.Helper()
	ts := benchTreeSequence(b, n, 20, 200)
	rng := rand.New(rand.NewSource(42))
	w := randomWeights(rng, ts.NumSamples(), 4)
	cfg := StatConfig{Mode: mode, Windows: []float64{0, 5, 10, 15, 20}}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := GeneralStat(ts, w, 4, identity, cfg); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkGeneralStatBranch_100(b *testing.B) { benchGeneralStat(b, 100, ModeBranch) }
func BenchmarkGeneralStatBranch_500(b *testing.B) { benchGeneralStat(b, 500, ModeBranch) }
func BenchmarkGeneralStatSite_100(b *testing.B)   { benchGeneralStat(b, 100, ModeSite) }
func BenchmarkGeneralStatSite_500(b *testing.B)   { benchGeneralStat(b, 500, ModeSite) }

// --- LD ---

func benchR2Array(b *testing.B, numSites int) {
	b.Helper()
	ts := benchTreeSequence(b, 100, 20, numSites)
	calc, err := NewLDCalculator(ts)
	if err != nil {
		b.Fatal(err)
	}
	defer calc.Close()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := calc.R2Array(i%numSites, Forward, numSites, NoMaxDistance); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkR2Array_100(b *testing.B)  { benchR2Array(b, 100) }
func BenchmarkR2Array_1000(b *testing.B) { benchR2Array(b, 1000) }

func benchR2Matrix(b *testing.B, workers int) {
	b.Helper()
	ts := benchTreeSequence(b, 100, 20, 300)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := R2Matrix(ts, workers); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkR2Matrix_Sequential(b *testing.B) { benchR2Matrix(b, 1) }
func BenchmarkR2Matrix_Parallel(b *testing.B)   { benchR2Matrix(b, 0) }
