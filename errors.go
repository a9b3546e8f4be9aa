package treestats

import (
	"errors"
	"fmt"
)

// Code is the closed set of error kinds returned by this package. Every error
// produced here either is a Code or wraps one, so callers can branch with
// errors.Is or CodeOf. Errors returned by a SummaryFunc are passed through
// untouched and carry no Code.
type Code int

const (
	// ErrBadParamValue reports a structurally invalid argument: a zero
	// dimension, an unknown mode or direction, a bad sample count.
	ErrBadParamValue Code = iota + 1
	// ErrBadNumWindows reports a window list with no windows in it.
	ErrBadNumWindows
	// ErrBadWindows reports window boundaries that are out of range or not
	// strictly increasing.
	ErrBadWindows
	// ErrOutOfBounds reports a site, mutation or tree index outside its range.
	ErrOutOfBounds
	// ErrNodeOutOfBounds reports a node ID that is not valid for the tree sequence.
	ErrNodeOutOfBounds
	// ErrOnlyInfiniteSites reports a site carrying more than one mutation where
	// the operation needs at most one.
	ErrOnlyInfiniteSites
	// ErrBadEdges reports edges the tree cursor cannot sweep over.
	ErrBadEdges
	// ErrBadSites reports unsorted or out-of-range site positions.
	ErrBadSites
	// ErrBadSamples reports a node used as a sample that is not one.
	ErrBadSamples
	// ErrDuplicateSample reports a node listed twice where sets must be disjoint.
	ErrDuplicateSample
	// ErrCalculatorClosed reports use of an LDCalculator after Close.
	ErrCalculatorClosed
)

var codeText = map[Code]string{
	ErrBadParamValue:     "bad parameter value",
	ErrBadNumWindows:     "must have at least one window",
	ErrBadWindows:        "bad window boundaries",
	ErrOutOfBounds:       "object reference out of bounds",
	ErrNodeOutOfBounds:   "node out of bounds",
	ErrOnlyInfiniteSites: "only infinite sites mutations are supported",
	ErrBadEdges:          "bad edges",
	ErrBadSites:          "bad sites",
	ErrBadSamples:        "bad sample",
	ErrDuplicateSample:   "duplicate sample",
	ErrCalculatorClosed:  "ld calculator is closed",
}

func (c Code) Error() string {
	if s, ok := codeText[c]; ok {
		return "treestats: " + s
	}
	return fmt.Sprintf("treestats: unknown error code %d", int(c))
}

// CodeOf returns the Code carried by err, or 0 when err is nil or was not
// produced by this package (for example an error returned by a SummaryFunc).
func CodeOf(err error) Code {
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return 0
}

// detailError carries a Code together with a message naming the offending value.
type detailError struct {
	code Code
	msg  string
}

func (e *detailError) Error() string {
	return "treestats: " + e.msg + ": " + codeText[e.code]
}

func (e *detailError) Unwrap() error { return e.code }

// errorf formats a detailed message that wraps code.
func errorf(code Code, format string, args ...any) error {
	return &detailError{code: code, msg: fmt.Sprintf(format, args...)}
}
