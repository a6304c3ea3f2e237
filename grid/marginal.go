package grid

import (
	"fmt"
	"slices"
)

// Marginalize integrates u over every dimension not listed in keep and
// returns the resulting len(keep)-dimensional sparse-grid function
// M(x_keep) = ∫ u dx_rest. Dimensions of the result follow the sorted order
// of keep.
//
// Since the basis is a tensor product, each point p contributes
// α_p·∏_{d∉keep} ∫φ_{l_d,i_d} to the coefficient of its projection.
// An empty keep returns a nil grid and the one-element slice {mean}.
//
// Errors: ErrCoefficientMismatch; ErrBadDimension for an out-of-range or
// repeated dimension.
func (g *Grid) Marginalize(alpha []float64, keep []int) (*Grid, []float64, error) {
	dims := slices.Clone(keep)
	slices.Sort(dims)
	for k, d := range dims {
		if d < 0 || d >= g.dim || (k > 0 && dims[k-1] == d) {
			return nil, nil, fmt.Errorf("Marginalize: dimension %d: %w", d, ErrBadDimension)
		}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkAlpha(alpha); err != nil {
		return nil, nil, fmt.Errorf("Marginalize: %w", err)
	}
	if len(dims) == 0 {
		return nil, []float64{g.integrate(alpha)}, nil
	}

	opts := []Option{WithType(g.opts.Type), WithMaxLevel(g.opts.MaxLevel)}
	if g.opts.Domain != nil {
		lo, hi := make([]float64, len(dims)), make([]float64, len(dims))
		for k, d := range dims {
			lo[k], hi[k] = g.opts.Domain.Lower[d], g.opts.Domain.Upper[d]
		}
		opts = append(opts, WithDomain(lo, hi))
	}
	m, err := New(len(dims), opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("Marginalize: %w", err)
	}

	inKeep := make([]bool, g.dim)
	for _, d := range dims {
		inKeep[d] = true
	}
	t := g.opts.Type
	var coef []float64
	g.storage.Ascend(func(seq int, p Point) bool {
		if alpha[seq] == 0 {
			return true
		}
		w := alpha[seq]
		for d := 0; d < g.dim; d++ {
			if !inKeep[d] {
				w *= Integral1D(t, p.Level[d], p.Index[d])
			}
		}
		q := Point{Level: make([]int, len(dims)), Index: make([]int, len(dims))}
		for k, d := range dims {
			q.Level[k], q.Index[k] = p.Level[d], p.Index[d]
		}
		m.insertWithAncestors(q, nil)
		for len(coef) < m.storage.Len() {
			coef = append(coef, 0)
		}
		s, _ := m.storage.Find(q)
		coef[s] += w
		return true
	})
	for len(coef) < m.storage.Len() {
		coef = append(coef, 0)
	}

	return m, coef, nil
}
