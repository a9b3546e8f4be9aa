package treestats

import (
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// R2Matrix computes the full numSites × numSites matrix of pairwise r² values.
// Rows are split into contiguous ranges, one per worker, and every worker
// drives its own LDCalculator over the shared tree sequence. workers <= 0
// means runtime.NumCPU(); workers == 1 runs on the calling goroutine.
//
// Any site with more than one mutation makes the whole call fail with
// ErrOnlyInfiniteSites. A tree sequence without sites gives an empty matrix.
func R2Matrix(ts *TreeSequence, workers int) (*mat.Dense, error) {
	if ts == nil {
		return nil, errorf(ErrBadParamValue, "nil tree sequence")
	}
	n := ts.NumSites()
	if n == 0 {
		return &mat.Dense{}, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, n)

	// Row i is filled for columns j >= i and mirrored into column i of the
	// later rows, so every cell has exactly one writer.
	result := make([]float64, n*n)
	fillRows := func(start, end int) error {
		calc, err := NewLDCalculator(ts)
		if err != nil {
			return err
		}
		defer calc.Close()
		for i := start; i < end; i++ {
			diag, err := calc.R2(i, i)
			if err != nil {
				return err
			}
			result[i*n+i] = diag
			row, err := calc.R2Array(i, Forward, n, NoMaxDistance)
			if err != nil {
				return err
			}
			for k, v := range row {
				j := i + 1 + k
				result[i*n+j] = v
				result[j*n+i] = v
			}
		}
		return nil
	}

	if workers == 1 {
		if err := fillRows(0, n); err != nil {
			return nil, err
		}
		return mat.NewDense(n, n, result), nil
	}

	var g errgroup.Group
	rowsPerWorker := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		startRow := w * rowsPerWorker
		endRow := min(startRow+rowsPerWorker, n)
		if startRow >= n {
			break
		}
		g.Go(func() error { return fillRows(startRow, endRow) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return mat.NewDense(n, n, result), nil
}
