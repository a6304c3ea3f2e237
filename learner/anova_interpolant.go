package learner

import (
	"fmt"

	"github.com/katalvlaran/sparsegrid/anova"
	"github.com/katalvlaran/sparsegrid/grid"
)

// ANOVAInterpolant is an Interpolant that decomposes the model after every
// fit and lets the decomposition steer refinement: the surplus-volume
// indicator of a point is weighted by the Sobol index of the point's
// effective subset, and new points are only added in dimensions whose total
// Sobol index reaches RefinementDescriptor.MinTotalIndex.
type ANOVAInterpolant struct {
	*Interpolant
}

// NewANOVAInterpolant returns an ANOVA-guided interpolant of f.
//
// Errors: ErrNilFunction, ErrBadDescriptor.
func NewANOVAInterpolant(f func([]float64) float64, spec Specification) (*ANOVAInterpolant, error) {
	ip, err := newInterpolant(f, spec, true)
	if err != nil {
		return nil, fmt.Errorf("NewANOVAInterpolant: %w", err)
	}

	return &ANOVAInterpolant{Interpolant: ip}, nil
}

// anovaFunctor implements grid.RefinementFunctor and grid.DimensionFilter.
//
// The weight of a point is 1 for the empty subset, S_u for a decomposed
// subset u and 0 for subsets beyond the decomposition order.
type anovaFunctor struct {
	base     grid.SurplusVolumeFunctor
	t        grid.Type
	dec      *anova.Decomposition
	total    []float64
	minTotal float64
}

func newANOVAFunctor(g *grid.Grid, alpha []float64, dec *anova.Decomposition, minTotal float64) anovaFunctor {
	f := anovaFunctor{
		base:     grid.SurplusVolumeFunctor{Alpha: alpha, Type: g.Type()},
		t:        g.Type(),
		dec:      dec,
		minTotal: minTotal,
	}
	if dec != nil {
		f.total = dec.TotalIndices()
	}

	return f
}

// Indicator implements grid.RefinementFunctor.
func (f anovaFunctor) Indicator(seq int, p grid.Point) float64 {
	s := f.base.Indicator(seq, p)
	if f.dec == nil {
		return s
	}
	u := anova.Subset(p.EffectiveMask(f.t))
	if u == 0 {
		return s
	}
	c, ok := f.dec.Components[u]
	if !ok || c.SobolIndex <= 0 {
		return 0
	}

	return s * c.SobolIndex
}

// RefineDimension implements grid.DimensionFilter.
func (f anovaFunctor) RefineDimension(_ grid.Point, d int) bool {
	if f.total == nil || f.minTotal <= 0 {
		return true
	}

	return d < len(f.total) && f.total[d] >= f.minTotal
}
