package grid

import (
	"fmt"
	"math"
	"slices"
)

// RefinementFunctor scores grid points for refinement. Only points with a
// strictly positive indicator are refined.
//
// Indicator is called without the grid lock held.
type RefinementFunctor interface {
	Indicator(seq int, p Point) float64
}

// DimensionFilter is an optional extension of RefinementFunctor that limits
// the dimensions in which a point may be refined. RefineDimension runs under
// the grid's write lock and must not call back into the grid.
type DimensionFilter interface {
	RefineDimension(p Point, d int) bool
}

// SurplusFunctor scores a point by |α_p|.
type SurplusFunctor struct {
	Alpha []float64
}

// Indicator implements RefinementFunctor.
func (f SurplusFunctor) Indicator(seq int, _ Point) float64 {
	if seq >= len(f.Alpha) {
		return 0
	}

	return math.Abs(f.Alpha[seq])
}

// SurplusVolumeFunctor scores a point by |α_p|·∫φ_p, the contribution of the
// basis function to the integral magnitude.
type SurplusVolumeFunctor struct {
	Alpha []float64
	Type  Type
}

// Indicator implements RefinementFunctor.
func (f SurplusVolumeFunctor) Indicator(seq int, p Point) float64 {
	if seq >= len(f.Alpha) {
		return 0
	}

	return math.Abs(f.Alpha[seq]) * integralBasis(f.Type, p)
}

// FuncFunctor adapts a plain function to RefinementFunctor.
type FuncFunctor func(seq int, p Point) float64

// Indicator implements RefinementFunctor.
func (f FuncFunctor) Indicator(seq int, p Point) float64 { return f(seq, p) }

type candidate struct {
	seq   int
	score float64
}

// Refine refines the n refinable points with the largest indicator values.
// A point is refinable when it has at least one missing admissible child
// within MaxLevel in a dimension accepted by the functor. Each refined point
// receives all such children, together with any missing ancestors of those
// children. Ties are broken by seq. Refine returns the seqs of all new points.
//
// Errors: ErrNilFunctor; ErrBadLevel when n < 1.
func (g *Grid) Refine(f RefinementFunctor, n int) ([]int, error) {
	if f == nil {
		return nil, fmt.Errorf("Refine: %w", ErrNilFunctor)
	}
	if n < 1 {
		return nil, fmt.Errorf("Refine: n=%d: %w", n, ErrBadLevel)
	}
	filter, _ := f.(DimensionFilter)

	points := g.Points()
	cands := make([]candidate, 0, len(points))
	for seq, p := range points {
		s := f.Indicator(seq, p)
		if !(s > 0) { // also drops NaN
			continue
		}
		cands = append(cands, candidate{seq: seq, score: s})
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return a.seq - b.seq
		}
	})

	g.mu.Lock()
	defer g.mu.Unlock()
	var added []int
	refined := 0
	for _, c := range cands {
		if refined == n {
			break
		}
		children := g.missingChildren(points[c.seq], filter)
		if len(children) == 0 {
			continue
		}
		for _, child := range children {
			added = g.insertWithAncestors(child, added)
		}
		refined++
	}

	return added, nil
}

// missingChildren lists the admissible children of p not yet stored.
// Caller holds the lock.
func (g *Grid) missingChildren(p Point, filter DimensionFilter) []Point {
	var out []Point
	for d := 0; d < g.dim; d++ {
		if p.Level[d] >= g.opts.MaxLevel {
			continue
		}
		if filter != nil && !filter.RefineDimension(p, d) {
			continue
		}
		for _, c := range p.Children(d) {
			if g.storage.Contains(c) || !g.Admissible(c) {
				continue
			}
			out = append(out, c)
		}
	}

	return out
}

// Refinable reports how many points could still be refined by f.
func (g *Grid) Refinable(f RefinementFunctor) int {
	var filter DimensionFilter
	if f != nil {
		filter, _ = f.(DimensionFilter)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	n := 0
	for seq := 0; seq < g.storage.Len(); seq++ {
		if len(g.missingChildren(g.storage.At(seq), filter)) > 0 {
			n++
		}
	}

	return n
}
