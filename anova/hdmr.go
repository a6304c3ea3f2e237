package anova

import (
	"context"
	"errors"
	"fmt"

	"github.com/katalvlaran/sparsegrid/grid"
	"github.com/katalvlaran/sparsegrid/internal/ctxlog"
)

// marginalGrid is a sparse-grid representation of M_v.
type marginalGrid struct {
	g    *grid.Grid
	coef []float64
}

// HDMR computes the exact ANOVA decomposition of the sparse-grid function
// u = Σ α_p φ_p defined by g and alpha.
//
// For every subset v with |v| ≤ MaxOrder the marginal M_v is built with
// grid.Marginalize and its variance computed exactly; component variances
// follow by Möbius inversion. With MaxOrder == dim, Σ_u D_u equals the
// variance of u up to round-off. ctx is checked between subsets.
//
// Errors: ErrNilGrid, ErrCoefficientMismatch, ErrBadDimension, ctx.Err().
func HDMR(ctx context.Context, g *grid.Grid, alpha []float64, opts ...Option) (*Decomposition, error) {
	if g == nil {
		return nil, fmt.Errorf("HDMR: %w", ErrNilGrid)
	}
	dim := g.Dim()
	if dim > MaxDim {
		return nil, fmt.Errorf("HDMR: dim=%d: %w", dim, ErrBadDimension)
	}
	o := buildOptions(dim, opts)
	log := ctxlog.FromContext(ctx)

	mean, err := g.Integrate(alpha)
	if err != nil {
		if errors.Is(err, grid.ErrCoefficientMismatch) {
			return nil, fmt.Errorf("HDMR: %w: %v", ErrCoefficientMismatch, err)
		}
		return nil, fmt.Errorf("HDMR: %w", err)
	}
	total, err := g.Variance(alpha)
	if err != nil {
		return nil, fmt.Errorf("HDMR: %w", err)
	}

	marginals := make(map[Subset]marginalGrid)
	mv := make(map[Subset]float64)
	full := NewSubset(allDims(dim)...)
	for _, v := range EnumerateSubsets(dim, o.MaxOrder) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("HDMR: %w", err)
		}
		if v == full {
			marginals[v] = marginalGrid{g: g, coef: append([]float64(nil), alpha...)}
			mv[v] = total
			continue
		}
		mg, coef, err := g.Marginalize(alpha, v.Dims())
		if err != nil {
			return nil, fmt.Errorf("HDMR: marginal %s: %w", v, err)
		}
		vv, err := mg.Variance(coef)
		if err != nil {
			return nil, fmt.Errorf("HDMR: marginal %s: %w", v, err)
		}
		marginals[v] = marginalGrid{g: mg, coef: coef}
		mv[v] = vv
	}

	eval := func(v Subset, xv []float64) (float64, error) {
		m, ok := marginals[v]
		if !ok {
			return 0, fmt.Errorf("marginal %s: %w", v, ErrBadOrder)
		}
		return m.g.Eval(m.coef, xv)
	}
	dec := newDecomposition(dim, o.MaxOrder, mean, total, mv, o.Threshold, eval)
	log.Debug("HDMR complete",
		"dim", dim, "order", o.MaxOrder, "points", len(alpha),
		"mean", mean, "variance", total, "residual", dec.Residual())

	return dec, nil
}
