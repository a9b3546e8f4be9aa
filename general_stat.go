package treestats

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Mode selects how a general statistic is evaluated.
type Mode string

const (
	// ModeSite evaluates the summary function once per mutation.
	ModeSite Mode = "site"
	// ModeBranch integrates the summary function over branch lengths.
	ModeBranch Mode = "branch"
)

// Polarisation selects whether the ancestral side of a split contributes.
type Polarisation string

const (
	// Unpolarised evaluates f(X) + f(T - X), where T is the column total of
	// the weights, so a split contributes the same whichever side is derived.
	Unpolarised Polarisation = "unpolarised"
	// Polarised evaluates f(X) on the derived side only.
	Polarised Polarisation = "polarised"
)

// SummaryFunc maps a weight vector x (length K) to an output vector y (length
// M). y is scratch space reused between calls and is not zeroed: the function
// must write every entry it wants counted. A non-nil error stops the
// computation, and GeneralStat returns that exact error value.
type SummaryFunc func(x, y []float64) error

// StatConfig controls GeneralStat. Start with [DefaultStatConfig].
type StatConfig struct {
	// Mode is ModeSite or ModeBranch. Default: ModeSite.
	Mode Mode

	// Polarisation is Unpolarised or Polarised. Default: Unpolarised.
	Polarisation Polarisation

	// SpanNormalise divides each window's value by the window width.
	SpanNormalise bool

	// Windows lists window boundaries from 0 to the sequence length. nil means
	// one window over the whole sequence; a non-nil list with fewer than two
	// entries is an error.
	Windows []float64
}

// DefaultStatConfig returns an unpolarised, unnormalised site statistic over
// a single window.
func DefaultStatConfig() StatConfig {
	return StatConfig{
		Mode:         ModeSite,
		Polarisation: Unpolarised,
	}
}

func applyStatDefaults(cfg *StatConfig) {
	if cfg.Mode == "" {
		cfg.Mode = ModeSite
	}
	if cfg.Polarisation == "" {
		cfg.Polarisation = Unpolarised
	}
}

func validateStatConfig(cfg *StatConfig) error {
	if cfg.Mode != ModeSite && cfg.Mode != ModeBranch {
		return errorf(ErrBadParamValue, "Mode must be %q or %q, got %q", ModeSite, ModeBranch, cfg.Mode)
	}
	if cfg.Polarisation != Unpolarised && cfg.Polarisation != Polarised {
		return errorf(ErrBadParamValue, "Polarisation must be %q or %q, got %q", Unpolarised, Polarised, cfg.Polarisation)
	}
	return nil
}

// GeneralStat evaluates the summary function f over the tree sequence and
// returns a numWindows × m matrix. w holds one row of K weights per sample, in
// the order of ts.Samples().
//
// In ModeBranch each branch of each tree contributes f(weights below it)
// times its length times the genomic span it shares with a window. In
// ModeSite each mutation contributes f(weights of the samples carrying it) to
// the window containing its site.
func GeneralStat(ts *TreeSequence, w mat.Matrix, m int, f SummaryFunc, cfg StatConfig) (*mat.Dense, error) {
	applyStatDefaults(&cfg)
	if err := validateStatConfig(&cfg); err != nil {
		return nil, err
	}
	if ts == nil || f == nil {
		return nil, errorf(ErrBadParamValue, "tree sequence and summary function are required")
	}
	rows, k := 0, 0
	if w != nil {
		rows, k = w.Dims()
	}
	if k == 0 || m <= 0 {
		return nil, errorf(ErrBadParamValue, "input dimension K=%d and output dimension M=%d must be >= 1", k, m)
	}
	if ts.NumSamples() == 0 {
		return nil, errorf(ErrBadParamValue, "tree sequence has no samples")
	}
	if rows != ts.NumSamples() {
		return nil, errorf(ErrBadParamValue, "weights have %d rows, want one per sample (%d)", rows, ts.NumSamples())
	}
	windows, err := newWindowSet(cfg.Windows, ts.SequenceLength())
	if err != nil {
		return nil, err
	}

	nodeWeights := mat.NewDense(ts.NumNodes(), k, nil)
	row := make([]float64, k)
	for j, u := range ts.Samples() {
		nodeWeights.SetRow(int(u), mat.Row(row, j, w))
	}
	ev := newStatEvaluator(f, w, m, cfg.Polarisation)
	result := mat.NewDense(windows.num(), m, nil)

	start := time.Now()
	switch cfg.Mode {
	case ModeBranch:
		err = branchGeneralStat(ts, nodeWeights, ev, windows, result)
	default:
		err = siteGeneralStat(ts, nodeWeights, ev, windows, result)
	}
	recordStat(cfg.Mode, ev.calls, start)
	if err != nil {
		logger.Debug("general statistic aborted", "mode", cfg.Mode, "calls", ev.calls, "error", err)
		return nil, err
	}
	if cfg.SpanNormalise {
		windows.normalise(result)
	}
	logger.Debug("general statistic computed",
		"mode", cfg.Mode,
		"polarisation", cfg.Polarisation,
		"k", k,
		"m", m,
		"windows", windows.num(),
		"calls", ev.calls,
	)
	return result, nil
}

// statEvaluator applies a summary function under one polarisation and counts
// the invocations.
type statEvaluator struct {
	f     SummaryFunc
	total []float64
	comp  []float64
	y     []float64
	calls int
	eval  func(x, out []float64) error
}

func newStatEvaluator(f SummaryFunc, w mat.Matrix, m int, p Polarisation) *statEvaluator {
	rows, k := w.Dims()
	ev := &statEvaluator{
		f:     f,
		total: make([]float64, k),
		comp:  make([]float64, k),
		y:     make([]float64, m),
	}
	col := make([]float64, rows)
	for c := 0; c < k; c++ {
		ev.total[c] = floats.Sum(mat.Col(col, c, w))
	}
	if p == Polarised {
		ev.eval = ev.polarised
	} else {
		ev.eval = ev.unpolarised
	}
	return ev
}

func (ev *statEvaluator) call(x, y []float64) error {
	ev.calls++
	return ev.f(x, y)
}

func (ev *statEvaluator) polarised(x, out []float64) error {
	return ev.call(x, out)
}

func (ev *statEvaluator) unpolarised(x, out []float64) error {
	if err := ev.call(x, out); err != nil {
		return err
	}
	floats.SubTo(ev.comp, ev.total, x)
	if err := ev.call(ev.comp, ev.y); err != nil {
		return err
	}
	floats.Add(out, ev.y)
	return nil
}
