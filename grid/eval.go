package grid

import (
	"fmt"

	"github.com/katalvlaran/sparsegrid/matrix"
)

// Eval evaluates u(x) = Σ_p α_p φ_p(x) at x in the unit cube.
// Coordinates outside [0,1] contribute zero. An empty grid evaluates to 0.
func (g *Grid) Eval(alpha, x []float64) (float64, error) {
	if len(x) != g.dim {
		return 0, fmt.Errorf("Eval: len(x)=%d: %w", len(x), ErrDimensionMismatch)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkAlpha(alpha); err != nil {
		return 0, fmt.Errorf("Eval: %w", err)
	}

	return g.eval(alpha, x), nil
}

// EvalDomain evaluates the interpolant at x given in the grid's domain.
//
// Errors: ErrDimensionMismatch, ErrOutOfDomain, ErrCoefficientMismatch.
func (g *Grid) EvalDomain(alpha, x []float64) (float64, error) {
	u, err := g.Domain().ToUnit(x)
	if err != nil {
		return 0, fmt.Errorf("EvalDomain: %w", err)
	}

	return g.Eval(alpha, u)
}

// EvalMany evaluates the interpolant at every row of xs.
func (g *Grid) EvalMany(alpha []float64, xs [][]float64) ([]float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkAlpha(alpha); err != nil {
		return nil, fmt.Errorf("EvalMany: %w", err)
	}

	out := make([]float64, len(xs))
	for i, x := range xs {
		if len(x) != g.dim {
			return nil, fmt.Errorf("EvalMany: row %d has %d values: %w", i, len(x), ErrDimensionMismatch)
		}
		out[i] = g.eval(alpha, x)
	}

	return out, nil
}

// eval sums α_p φ_p(x). Caller holds a lock and has validated alpha.
func (g *Grid) eval(alpha, x []float64) float64 {
	t := g.opts.Type
	sum := 0.0
	for seq, a := range alpha {
		if a == 0 {
			continue
		}
		sum += a * evalBasis(t, g.storage.At(seq), x)
	}

	return sum
}

// BasisMatrix returns the N×M matrix B with B[i][p] = φ_p(xs[i]), the
// evaluation operator of the grid on a sample set.
//
// Errors: ErrDimensionMismatch; matrix.ErrInvalidDimensions for an empty
// sample set or an empty grid.
func (g *Grid) BasisMatrix(xs [][]float64) (*matrix.Dense, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b, err := matrix.NewDense(len(xs), g.storage.Len())
	if err != nil {
		return nil, fmt.Errorf("BasisMatrix: %w", err)
	}

	t := g.opts.Type
	data := b.RawData()
	m := g.storage.Len()
	for i, x := range xs {
		if len(x) != g.dim {
			return nil, fmt.Errorf("BasisMatrix: row %d has %d values: %w", i, len(x), ErrDimensionMismatch)
		}
		row := data[i*m : (i+1)*m]
		for seq := range row {
			row[seq] = evalBasis(t, g.storage.At(seq), x)
		}
	}

	return b, nil
}
