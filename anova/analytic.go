package anova

import (
	"context"
	"fmt"

	"github.com/katalvlaran/sparsegrid/internal/ctxlog"
	"gonum.org/v1/gonum/integrate/quad"
)

// HDMRAnalytic decomposes a closed-form f on [0,1]^dim. All integrals use a
// tensor Gauss–Legendre rule with Points nodes per dimension, so f is
// evaluated Points^dim times up front; component evaluations later integrate
// over the complementary dimensions with the same rule.
//
// Errors: ErrNilFunction, ErrBadDimension, ErrBudgetExceeded, ctx.Err().
func HDMRAnalytic(ctx context.Context, f func([]float64) float64, dim int, opts ...Option) (*Decomposition, error) {
	if f == nil {
		return nil, fmt.Errorf("HDMRAnalytic: %w", ErrNilFunction)
	}
	if dim < 1 || dim > MaxDim {
		return nil, fmt.Errorf("HDMRAnalytic: dim=%d: %w", dim, ErrBadDimension)
	}
	o := buildOptions(dim, opts)
	n, ok := tensorSize(o.Points, dim, o.MaxEvaluations)
	if !ok {
		return nil, fmt.Errorf("HDMRAnalytic: %d^%d nodes > %d: %w", o.Points, dim, o.MaxEvaluations, ErrBudgetExceeded)
	}

	nodes := make([]float64, o.Points)
	weights := make([]float64, o.Points)
	quad.Legendre{}.FixedLocations(nodes, weights, 0, 1)

	// Tensor sweep: digits[d] is the node index in dimension d.
	values := make([]float64, n)
	digits := make([]int, dim)
	x := make([]float64, dim)
	for k := 0; k < n; k++ {
		if k%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("HDMRAnalytic: %w", err)
			}
		}
		for d := range x {
			x[d] = nodes[digits[d]]
		}
		values[k] = f(x)
		increment(digits, o.Points)
	}

	mean, second := 0.0, 0.0
	for k := range digits {
		digits[k] = 0
	}
	fullW := make([]float64, n)
	for k := 0; k < n; k++ {
		w := 1.0
		for _, j := range digits {
			w *= weights[j]
		}
		fullW[k] = w
		mean += w * values[k]
		second += w * values[k] * values[k]
		increment(digits, o.Points)
	}
	total := max(0, second-mean*mean)

	subsets := EnumerateSubsets(dim, o.MaxOrder)
	mv := make(map[Subset]float64, len(subsets))
	for _, v := range subsets {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("HDMRAnalytic: %w", err)
		}
		mv[v] = marginalVariance(v, values, fullW, weights, dim, mean)
	}

	eval := func(v Subset, xv []float64) (float64, error) {
		return integrateRest(f, v, xv, dim, nodes, weights, o.MaxEvaluations)
	}
	dec := newDecomposition(dim, o.MaxOrder, mean, total, mv, o.Threshold, eval)
	ctxlog.FromContext(ctx).Debug("HDMRAnalytic complete",
		"dim", dim, "order", o.MaxOrder, "evaluations", n,
		"mean", mean, "variance", total)

	return dec, nil
}

// tensorSize returns p^dim when it does not exceed limit.
func tensorSize(p, dim, limit int) (int, bool) {
	n := 1
	for d := 0; d < dim; d++ {
		if n > limit/p {
			return 0, false
		}
		n *= p
	}

	return n, n <= limit
}

// increment advances a mixed-radix counter with dimension 0 fastest.
func increment(digits []int, base int) {
	for d := range digits {
		digits[d]++
		if digits[d] < base {
			return
		}
		digits[d] = 0
	}
}

// marginalVariance returns Var(M_v) where M_v(x_v) = ∫ f dx_rest on the
// tensor nodes.
func marginalVariance(v Subset, values, fullW, weights []float64, dim int, mean float64) float64 {
	p := len(weights)
	vd := v.Dims()
	size := 1
	for range vd {
		size *= p
	}
	acc := make([]float64, size)
	digits := make([]int, dim)
	for k := range values {
		j, stride := 0, 1
		for _, d := range vd {
			j += digits[d] * stride
			stride *= p
		}
		acc[j] += fullW[k] * values[k]
		increment(digits, p)
	}

	// M_v[j] = acc[j] / W_v(j); Var = Σ W_v M_v² − mean².
	vdigits := make([]int, len(vd))
	second := 0.0
	for j := range acc {
		wv := 1.0
		for _, jj := range vdigits {
			wv *= weights[jj]
		}
		if wv > 0 {
			second += acc[j] * acc[j] / wv
		}
		increment(vdigits, p)
	}

	return max(0, second-mean*mean)
}

// integrateRest returns ∫ f(x_v, y) dy over the dimensions outside v.
func integrateRest(f func([]float64) float64, v Subset, xv []float64, dim int, nodes, weights []float64, limit int) (float64, error) {
	vd := v.Dims()
	if len(xv) != len(vd) {
		return 0, fmt.Errorf("marginal %s: %w", v, ErrBadDimension)
	}
	rest := make([]int, 0, dim-len(vd))
	for d := 0; d < dim; d++ {
		if !v.Contains(d) {
			rest = append(rest, d)
		}
	}
	n, ok := tensorSize(len(nodes), len(rest), limit)
	if !ok {
		return 0, fmt.Errorf("marginal %s: %w", v, ErrBudgetExceeded)
	}

	x := make([]float64, dim)
	for k, d := range vd {
		x[d] = xv[k]
	}
	digits := make([]int, len(rest))
	sum := 0.0
	for k := 0; k < n; k++ {
		w := 1.0
		for r, d := range rest {
			x[d] = nodes[digits[r]]
			w *= weights[digits[r]]
		}
		sum += w * f(x)
		increment(digits, len(nodes))
	}

	return sum, nil
}
