// Package grid - exact quadrature of sparse-grid functions over [0,1]^d.
package grid

import (
	"fmt"

	"github.com/katalvlaran/sparsegrid/matrix"
)

// Integrate returns ∫ u over the unit cube, i.e. the mean of u under the
// uniform distribution. An empty grid integrates to 0.
func (g *Grid) Integrate(alpha []float64) (float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkAlpha(alpha); err != nil {
		return 0, fmt.Errorf("Integrate: %w", err)
	}

	return g.integrate(alpha), nil
}

func (g *Grid) integrate(alpha []float64) float64 {
	t := g.opts.Type
	sum := 0.0
	for seq, a := range alpha {
		if a != 0 {
			sum += a * integralBasis(t, g.storage.At(seq))
		}
	}

	return sum
}

// L2Norm2 returns ∫ u² over the unit cube using exact 1D basis products.
//
// Complexity: O(N²·d); products are memoized.
func (g *Grid) L2Norm2(alpha []float64) (float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkAlpha(alpha); err != nil {
		return 0, fmt.Errorf("L2Norm2: %w", err)
	}

	return g.l2Norm2(alpha), nil
}

func (g *Grid) l2Norm2(alpha []float64) float64 {
	t := g.opts.Type
	sum := 0.0
	for p := range alpha {
		if alpha[p] == 0 {
			continue
		}
		pp := g.storage.At(p)
		sum += alpha[p] * alpha[p] * productBasis(t, pp, pp)
		for q := p + 1; q < len(alpha); q++ {
			if alpha[q] == 0 {
				continue
			}
			sum += 2 * alpha[p] * alpha[q] * productBasis(t, pp, g.storage.At(q))
		}
	}

	return sum
}

// Variance returns ∫u² − (∫u)², clamped at 0 against round-off.
func (g *Grid) Variance(alpha []float64) (float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkAlpha(alpha); err != nil {
		return 0, fmt.Errorf("Variance: %w", err)
	}
	m := g.integrate(alpha)

	return max(0, g.l2Norm2(alpha)-m*m), nil
}

// MassMatrix returns the M×M matrix A with A[p][q] = ∫ φ_p φ_q over the
// unit cube. It is symmetric positive definite for a non-empty grid.
//
// Errors: matrix.ErrInvalidDimensions for an empty grid.
func (g *Grid) MassMatrix() (*matrix.Dense, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	m := g.storage.Len()
	a, err := matrix.NewDense(m, m)
	if err != nil {
		return nil, fmt.Errorf("MassMatrix: %w", err)
	}

	t := g.opts.Type
	data := a.RawData()
	for p := 0; p < m; p++ {
		pp := g.storage.At(p)
		data[p*m+p] = productBasis(t, pp, pp)
		for q := p + 1; q < m; q++ {
			v := productBasis(t, pp, g.storage.At(q))
			data[p*m+q] = v
			data[q*m+p] = v
		}
	}

	return a, nil
}
