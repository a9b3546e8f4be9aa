// Package treestats computes population-genetic statistics over a tree
// sequence: a sequence of local genealogies along a genome, stored as node,
// edge, site and mutation tables.
//
// Most statistics are built on one engine. Each sample carries a vector of K
// weights; a summary function maps the summed weights below a branch or a
// mutation to M outputs, and the engine accumulates those outputs over
// genomic windows:
//
//	tables, err := treestats.LoadTables("example.yaml")
//	ts, err := treestats.NewTreeSequence(tables)
//	w := mat.NewDense(ts.NumSamples(), 1, ones)
//	n := float64(ts.NumSamples())
//	f := func(x, y []float64) error {
//		y[0] = x[0] * (n - x[0]) / (n * (n - 1))
//		return nil
//	}
//	cfg := treestats.DefaultStatConfig()
//	cfg.Mode = treestats.ModeBranch
//	cfg.Windows = []float64{0, 5, ts.SequenceLength()}
//	sigma, err := treestats.GeneralStat(ts, w, 1, f, cfg)
//	// sigma.At(i, 0) is the value in window i
//
// Diversity, Divergence and SegregatingSites wrap GeneralStat for sample
// sets.
//
// # Linkage disequilibrium
//
// LDCalculator computes r² between sites carrying a single mutation, sweeping
// a pair of tree cursors outwards from a focal site:
//
//	calc, err := treestats.NewLDCalculator(ts)
//	defer calc.Close()
//	r2, err := calc.R2Array(focal, treestats.Forward, 100, treestats.NoMaxDistance)
//
// R2Matrix fills the full site × site matrix with one calculator per worker.
//
// # Errors
//
// Errors produced by the package carry a Code; use errors.Is or CodeOf to
// branch on it. Errors returned by a SummaryFunc are passed through as is.
package treestats
