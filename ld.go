package treestats

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"
)

// NoMaxDistance disables the distance limit of R2Array.
const NoMaxDistance = math.MaxFloat64

// ldState is the lifecycle of an LDCalculator.
type ldState int

const (
	// ldUninitialized: trees built, no focal site chosen.
	ldUninitialized ldState = iota
	// ldAnchored: both trees track the samples carrying the focal mutation.
	ldAnchored
	// ldClosed: trees released.
	ldClosed
)

// LDCalculator computes r² between pairs of single-mutation sites.
//
// It keeps two tree cursors, one swept forward and one swept in reverse from a
// focal site. Both track the samples carrying the focal mutation, so for any
// other site the two-locus haplotype count is the tracked count below that
// site's mutation node. Moving between neighbouring sites only applies the
// edges that change, which makes a full sweep from one focal site cost about
// one pass over the edges.
//
// An LDCalculator is not safe for concurrent use; the TreeSequence may be
// shared by several calculators.
type LDCalculator struct {
	ts      *TreeSequence
	forward *Tree
	reverse *Tree
	state   ldState

	focal      int
	focalCount int
}

// NewLDCalculator returns a calculator bound to ts.
func NewLDCalculator(ts *TreeSequence) (*LDCalculator, error) {
	if ts == nil {
		return nil, errorf(ErrBadParamValue, "nil tree sequence")
	}
	forward, err := NewTree(ts, TreeConfig{SampleCounts: true})
	if err != nil {
		return nil, err
	}
	reverse, err := NewTree(ts, TreeConfig{SampleCounts: true})
	if err != nil {
		return nil, err
	}
	return &LDCalculator{
		ts:      ts,
		forward: forward,
		reverse: reverse,
		state:   ldUninitialized,
		focal:   -1,
	}, nil
}

// Close releases the trees. Further calls fail with ErrCalculatorClosed;
// closing twice is a no-op.
func (c *LDCalculator) Close() error {
	c.forward = nil
	c.reverse = nil
	c.state = ldClosed
	c.focal = -1
	return nil
}

// Focal returns the site the calculator is anchored at.
func (c *LDCalculator) Focal() (site int, ok bool) {
	return c.focal, c.state == ldAnchored
}

// EdgeOps returns the total edge insertions and removals performed by both
// trees since the calculator was created.
func (c *LDCalculator) EdgeOps() (inserted, removed int) {
	if c.state == ldClosed {
		return 0, 0
	}
	fi, fr := c.forward.EdgeOps()
	ri, rr := c.reverse.EdgeOps()
	return fi + ri, fr + rr
}

func (c *LDCalculator) checkSite(j int) error {
	if j < 0 || j >= c.ts.NumSites() {
		return errorf(ErrOutOfBounds, "site %d not in [0, %d)", j, c.ts.NumSites())
	}
	return nil
}

// siteNode returns the node of the single mutation at site j, or NullNode
// for a site without mutations.
func (c *LDCalculator) siteNode(j int) (NodeID, error) {
	ids := c.ts.siteMutations[j]
	switch len(ids) {
	case 0:
		return NullNode, nil
	case 1:
		return c.ts.tables.Mutations[ids[0]].Node, nil
	default:
		return NullNode, errorf(ErrOnlyInfiniteSites, "site %d has %d mutations", j, len(ids))
	}
}

// anchor moves the calculator to anchored(site). The samples below the focal
// mutation are collected from the forward tree and become the tracked samples
// of both trees. Re-anchoring at the current focal site does nothing.
func (c *LDCalculator) anchor(site int) error {
	if c.state == ldAnchored && c.focal == site {
		return nil
	}
	node, err := c.siteNode(site)
	if err != nil {
		return err
	}
	c.forward.SeekPosition(c.ts.tables.Sites[site].Position)
	samples := roaring.New()
	if node != NullNode {
		samples = c.forward.Samples(node)
	} else {
		logger.Warn("focal site has no mutation, r2 values are undefined", "site", site)
	}
	if err := c.forward.SetTrackedSamples(samples); err != nil {
		return err
	}
	if err := c.reverse.SetTrackedSamples(samples); err != nil {
		return err
	}
	c.focal = site
	c.focalCount = int(samples.GetCardinality())
	c.state = ldAnchored
	logger.Debug("ld calculator anchored", "site", site, "focal_samples", c.focalCount)
	return nil
}

// r2 computes r² between the focal site and site j using tree, which is moved
// to j's position.
func (c *LDCalculator) r2(tree *Tree, j int) (float64, error) {
	node, err := c.siteNode(j)
	if err != nil {
		return 0, err
	}
	tree.SeekPosition(c.ts.tables.Sites[j].Position)
	nB, nAB := 0, 0
	if node != NullNode {
		nB = tree.NumSamples(node)
		nAB = tree.NumTrackedSamples(node)
	}
	return r2FromCounts(c.focalCount, nB, nAB, c.ts.NumSamples()), nil
}

// r2FromCounts returns D²/(pA(1-pA)pB(1-pB)) for allele counts nA, nB and
// haplotype count nAB out of n samples. The result is NaN when either site
// is fixed or absent.
func r2FromCounts(nA, nB, nAB, n int) float64 {
	N := float64(n)
	fA := float64(nA) / N
	fB := float64(nB) / N
	fAB := float64(nAB) / N
	D := fAB - fA*fB
	denom := fA * (1 - fA) * fB * (1 - fB)
	return D * D / denom
}

// R2 returns r² between sites a and b. A site compared with itself gives
// exactly 1 when it has at most one mutation. Sites with more than one
// mutation fail with ErrOnlyInfiniteSites.
func (c *LDCalculator) R2(a, b int) (float64, error) {
	if c.state == ldClosed {
		return 0, ErrCalculatorClosed
	}
	if err := c.checkSite(a); err != nil {
		return 0, err
	}
	if err := c.checkSite(b); err != nil {
		return 0, err
	}
	if a == b {
		if _, err := c.siteNode(a); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err := c.anchor(a); err != nil {
		return 0, err
	}
	tree := c.forward
	if b < a {
		tree = c.reverse
	}
	v, err := c.r2(tree, b)
	if err != nil {
		return 0, err
	}
	ldComparisons.Inc()
	return v, nil
}

// R2Array returns r² between focal and the sites after it (Forward) or before
// it (Reverse), in sweep order. The sweep stops after maxSites values, at the
// first site further than maxDistance from the focal position, or at the end
// of the sequence.
//
// If a site with more than one mutation is met the whole call fails with
// ErrOnlyInfiniteSites and no values are returned.
func (c *LDCalculator) R2Array(focal int, dir Direction, maxSites int, maxDistance float64) ([]float64, error) {
	if c.state == ldClosed {
		return nil, ErrCalculatorClosed
	}
	if err := c.checkSite(focal); err != nil {
		return nil, err
	}
	if dir != Forward && dir != Reverse {
		return nil, errorf(ErrBadParamValue, "direction must be Forward or Reverse, got %d", int(dir))
	}
	if maxSites < 0 || !(maxDistance >= 0) {
		return nil, errorf(ErrBadParamValue, "maxSites=%d and maxDistance=%g must be non-negative", maxSites, maxDistance)
	}
	if err := c.anchor(focal); err != nil {
		return nil, err
	}

	tree := c.forward
	available := c.ts.NumSites() - 1 - focal
	if dir == Reverse {
		tree = c.reverse
		available = focal
	}
	out := make([]float64, 0, min(maxSites, available))
	x := c.ts.tables.Sites[focal].Position
	for j := focal + int(dir); j >= 0 && j < c.ts.NumSites() && len(out) < maxSites; j += int(dir) {
		if math.Abs(c.ts.tables.Sites[j].Position-x) > maxDistance {
			break
		}
		v, err := c.r2(tree, j)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	ldComparisons.Add(float64(len(out)))
	return out, nil
}
