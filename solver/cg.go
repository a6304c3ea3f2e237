package solver

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const opCG = "CG"

// CG solves A x = b for a symmetric positive definite operator A.
//
// Algorithm Outline:
//  1. r = b − A x0, p = r, ρ = rᵀr.
//  2. Repeat: q = A p; α = ρ / pᵀq; x += α p; r −= α q;
//     ρ' = rᵀr; stop when √ρ' ≤ max(Epsilon·‖b‖, Threshold);
//     p = r + (ρ'/ρ) p.
//
// Inputs:
//   - op: LinearOperator of order n.
//   - b:  right-hand side, len n.
//   - x0: initial guess (nil means zero); not mutated.
//
// Errors:
//   - ErrBadOptions, ErrDimensionMismatch (validation).
//   - ErrNotSPD when pᵀAp ≤ 0.
//   - ErrNotConverged when MaxIterations is hit; the Result holds the last iterate.
//   - Operator errors are wrapped with "CG: ".
//
// Complexity:
//
//	Time   = O(k·(cost(A) + n)), k ≤ MaxIterations
//	Memory = O(n)
func CG(op LinearOperator, b, x0 []float64, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, fmt.Errorf("%s: %w", opCG, err)
	}
	n := op.Dim()
	if len(b) != n || (x0 != nil && len(x0) != n) {
		return Result{}, fmt.Errorf("%s: n=%d len(b)=%d: %w", opCG, n, len(b), ErrDimensionMismatch)
	}

	x := make([]float64, n)
	if x0 != nil {
		copy(x, x0)
	}
	bnorm := floats.Norm(b, 2)
	if bnorm == 0 {
		// A x = 0 has the unique solution x = 0 for SPD A.
		return Result{X: make([]float64, n), Converged: true}, nil
	}
	tol := math.Max(opts.Epsilon*bnorm, opts.Threshold)

	r := make([]float64, n)
	q := make([]float64, n)
	if err := op.Apply(x, q); err != nil {
		return Result{}, fmt.Errorf("%s: %w", opCG, err)
	}
	floats.SubTo(r, b, q)
	p := make([]float64, n)
	copy(p, r)
	rho := floats.Dot(r, r)

	res := Result{X: x, Residual: math.Sqrt(rho)}
	if res.Residual <= tol {
		res.Converged = true
		return res, nil
	}

	var alpha, pq, rhoNext float64
	for k := 1; k <= opts.MaxIterations; k++ {
		if err := op.Apply(p, q); err != nil {
			return res, fmt.Errorf("%s: iteration %d: %w", opCG, k, err)
		}
		pq = floats.Dot(p, q)
		if pq <= 0 {
			return res, fmt.Errorf("%s: iteration %d: pᵀAp=%g: %w", opCG, k, pq, ErrNotSPD)
		}
		alpha = rho / pq
		floats.AddScaled(x, alpha, p)
		floats.AddScaled(r, -alpha, q)
		rhoNext = floats.Dot(r, r)

		res.Iterations = k
		res.Residual = math.Sqrt(rhoNext)
		if res.Residual <= tol {
			res.Converged = true
			return res, nil
		}

		// p = r + β p
		floats.Scale(rhoNext/rho, p)
		floats.Add(p, r)
		rho = rhoNext
	}

	return res, fmt.Errorf("%s: residual %g after %d iterations: %w",
		opCG, res.Residual, res.Iterations, ErrNotConverged)
}
