package anova

import (
	"fmt"
	"slices"
)

// Component is one ANOVA term f_u.
type Component struct {
	Subset     Subset
	Variance   float64 // D_u
	SobolIndex float64 // D_u / D; 0 when D = 0
}

// marginalFunc evaluates the conditional expectation M_v at the coordinates
// x_v (in the order of v.Dims()).
type marginalFunc func(v Subset, xv []float64) (float64, error)

// Decomposition is the ANOVA decomposition of a function on [0,1]^Dim up to
// interaction order Order.
type Decomposition struct {
	Dim        int
	Order      int
	Mean       float64
	Variance   float64
	Components map[Subset]*Component

	threshold float64
	marginal  marginalFunc
}

// newDecomposition turns marginal variances into component variances by
// Möbius inversion. mv must hold Var(M_v) for every v with |v| ≤ order;
// total is Var(f).
func newDecomposition(dim, order int, mean, total float64, mv map[Subset]float64, threshold float64, marginal marginalFunc) *Decomposition {
	dec := &Decomposition{
		Dim:        dim,
		Order:      order,
		Mean:       mean,
		Variance:   total,
		Components: make(map[Subset]*Component),
		threshold:  threshold,
		marginal:   marginal,
	}
	for _, u := range EnumerateSubsets(dim, order) {
		d := 0.0
		for _, v := range u.Subsets() {
			if v == 0 {
				continue // Var(M_∅) = 0
			}
			d += sign(u, v) * mv[v]
		}
		c := &Component{Subset: u, Variance: d}
		if total > 0 {
			c.SobolIndex = d / total
		}
		dec.Components[u] = c
	}

	return dec
}

// Sobol returns S_u = D_u / D.
//
// Errors: ErrZeroVariance; ErrBadOrder when |u| is 0 or exceeds Order.
func (dec *Decomposition) Sobol(u Subset) (float64, error) {
	if dec.Variance <= 0 {
		return 0, fmt.Errorf("Sobol %s: %w", u, ErrZeroVariance)
	}
	c, ok := dec.Components[u]
	if !ok {
		return 0, fmt.Errorf("Sobol %s: %w", u, ErrBadOrder)
	}

	return c.SobolIndex, nil
}

// TotalIndex returns T_d = Σ_{u∋d} D_u / D over the decomposed components.
//
// Errors: ErrZeroVariance, ErrBadDimension.
func (dec *Decomposition) TotalIndex(d int) (float64, error) {
	if d < 0 || d >= dec.Dim {
		return 0, fmt.Errorf("TotalIndex(%d): %w", d, ErrBadDimension)
	}
	if dec.Variance <= 0 {
		return 0, fmt.Errorf("TotalIndex(%d): %w", d, ErrZeroVariance)
	}
	sum := 0.0
	for u, c := range dec.Components {
		if u.Contains(d) {
			sum += c.Variance
		}
	}

	return sum / dec.Variance, nil
}

// TotalIndices returns T_d for every dimension; all zeros for a constant function.
func (dec *Decomposition) TotalIndices() []float64 {
	out := make([]float64, dec.Dim)
	if dec.Variance <= 0 {
		return out
	}
	for d := range out {
		out[d], _ = dec.TotalIndex(d)
	}

	return out
}

// Ranked returns the components with variance ≥ the threshold, largest
// first. Ties keep (order, lexicographic) subset order.
func (dec *Decomposition) Ranked() []*Component {
	out := make([]*Component, 0, len(dec.Components))
	for _, u := range EnumerateSubsets(dec.Dim, dec.Order) {
		c := dec.Components[u]
		if c.Variance >= dec.threshold {
			out = append(out, c)
		}
	}
	slices.SortStableFunc(out, func(a, b *Component) int {
		switch {
		case a.Variance > b.Variance:
			return -1
		case a.Variance < b.Variance:
			return 1
		default:
			return 0
		}
	})

	return out
}

// Residual returns D − Σ_u D_u: the variance carried by interactions above
// Order (up to round-off).
func (dec *Decomposition) Residual() float64 {
	sum := 0.0
	for _, c := range dec.Components {
		sum += c.Variance
	}

	return dec.Variance - sum
}

// Eval evaluates the component function f_u(x_u) = Σ_{v⊆u} (−1)^{|u|−|v|} M_v(x_v)
// at a full-dimensional point x. f_∅ is the mean.
//
// Errors: ErrBadDimension, ErrBadOrder, and quadrature errors from analytic
// decompositions.
func (dec *Decomposition) Eval(u Subset, x []float64) (float64, error) {
	if len(x) != dec.Dim {
		return 0, fmt.Errorf("Eval: len(x)=%d: %w", len(x), ErrBadDimension)
	}
	if u.Len() > dec.Order || !u.IsSubsetOf(NewSubset(allDims(dec.Dim)...)) {
		return 0, fmt.Errorf("Eval %s: %w", u, ErrBadOrder)
	}
	cache := make(map[Subset]float64)
	v, err := dec.component(u, x, cache)
	if err != nil {
		return 0, fmt.Errorf("Eval %s: %w", u, err)
	}

	return v, nil
}

// Truncated evaluates the HDMR expansion Σ_{|u|≤order} f_u(x), including
// the mean. With order == Dim == Order it reproduces the function itself.
func (dec *Decomposition) Truncated(order int, x []float64) (float64, error) {
	if len(x) != dec.Dim {
		return 0, fmt.Errorf("Truncated: len(x)=%d: %w", len(x), ErrBadDimension)
	}
	if order < 0 || order > dec.Order {
		return 0, fmt.Errorf("Truncated: order %d > %d: %w", order, dec.Order, ErrBadOrder)
	}
	cache := make(map[Subset]float64)
	sum := dec.Mean
	for _, u := range EnumerateSubsets(dec.Dim, order) {
		v, err := dec.component(u, x, cache)
		if err != nil {
			return 0, fmt.Errorf("Truncated: %w", err)
		}
		sum += v
	}

	return sum, nil
}

func (dec *Decomposition) component(u Subset, x []float64, cache map[Subset]float64) (float64, error) {
	sum := 0.0
	for _, v := range u.Subsets() {
		m, err := dec.marginalAt(v, x, cache)
		if err != nil {
			return 0, err
		}
		sum += sign(u, v) * m
	}

	return sum, nil
}

func (dec *Decomposition) marginalAt(v Subset, x []float64, cache map[Subset]float64) (float64, error) {
	if v == 0 {
		return dec.Mean, nil
	}
	if m, ok := cache[v]; ok {
		return m, nil
	}
	dims := v.Dims()
	xv := make([]float64, len(dims))
	for k, d := range dims {
		xv[k] = x[d]
	}
	m, err := dec.marginal(v, xv)
	if err != nil {
		return 0, err
	}
	cache[v] = m

	return m, nil
}

func allDims(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}

	return out
}
