package treestats

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ValidateWindows checks a list of window boundaries against a sequence of
// length L. A nil list stands for the single window [0, L]. Otherwise the list
// must hold at least two boundaries (ErrBadNumWindows), start at 0, end at L
// and increase strictly (ErrBadWindows).
func ValidateWindows(windows []float64, L float64) error {
	if windows == nil {
		return nil
	}
	if len(windows) < 2 {
		return errorf(ErrBadNumWindows, "%d window boundaries give no windows", len(windows))
	}
	n := len(windows) - 1
	if windows[0] != 0 {
		return errorf(ErrBadWindows, "first window boundary is %g, want 0", windows[0])
	}
	if windows[n] != L {
		return errorf(ErrBadWindows, "last window boundary is %g, want sequence length %g", windows[n], L)
	}
	for j := 1; j <= n; j++ {
		if !(windows[j] > windows[j-1]) {
			return errorf(ErrBadWindows, "window boundaries %g, %g are not strictly increasing", windows[j-1], windows[j])
		}
	}
	for j, x := range windows {
		if x < 0 || x > L {
			return errorf(ErrBadWindows, "window boundary %d = %g outside [0, %g]", j, x, L)
		}
	}
	return nil
}

// windowSet is a validated list of boundaries w0 = 0 < w1 < ... < wn = L.
type windowSet struct {
	bounds []float64
}

func newWindowSet(windows []float64, L float64) (windowSet, error) {
	if err := ValidateWindows(windows, L); err != nil {
		return windowSet{}, err
	}
	if windows == nil {
		return windowSet{bounds: []float64{0, L}}, nil
	}
	return windowSet{bounds: windows}, nil
}

func (w windowSet) num() int { return len(w.bounds) - 1 }

// locate returns the index of the window [w_i, w_i+1) containing x. x = L
// falls in the last window.
func (w windowSet) locate(x float64) int {
	i := sort.Search(len(w.bounds), func(i int) bool { return w.bounds[i] > x }) - 1
	return min(max(i, 0), w.num()-1)
}

// spread adds overlap·v to every window row of result intersecting
// [left, right), where overlap is the length of the intersection.
func (w windowSet) spread(result *mat.Dense, left, right float64, v []float64) {
	for i := w.locate(left); i < w.num() && w.bounds[i] < right; i++ {
		overlap := min(right, w.bounds[i+1]) - max(left, w.bounds[i])
		if overlap > 0 {
			floats.AddScaled(result.RawRowView(i), overlap, v)
		}
	}
}

// normalise divides every window row of result by the window width.
func (w windowSet) normalise(result *mat.Dense) {
	for i := 0; i < w.num(); i++ {
		floats.Scale(1/(w.bounds[i+1]-w.bounds[i]), result.RawRowView(i))
	}
}
