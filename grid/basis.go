// Package grid - one-dimensional basis functions.
//
// Every routine here is a pure function of (type, level, index) and is exact:
// integrals are closed forms and products of two basis functions are
// integrated piecewise with Simpson's rule on the merged breakpoints, which is
// exact for the piecewise quadratic integrand.
package grid

import (
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultProductCacheSize bounds the LRU of 1D basis products.
const DefaultProductCacheSize = 1 << 16

// productKey identifies an unordered pair of 1D basis functions.
type productKey struct {
	t      Type
	l1, i1 int
	l2, i2 int
}

var productCache = newProductCache(DefaultProductCacheSize)

func newProductCache(size int) *lru.Cache[productKey, float64] {
	c, err := lru.New[productKey, float64](size)
	if err != nil {
		panic(err)
	}

	return c
}

// Eval1D evaluates φ_{l,i}(x) of basis t. Outside [0,1] all functions are zero.
func Eval1D(t Type, l, i int, x float64) float64 {
	if x < 0 || x > 1 {
		return 0
	}
	if l == 0 { // boundary functions
		if i == 0 {
			return 1 - x
		}
		return x
	}
	scaled := math.Ldexp(x, l) // 2^l x
	if t == ModLinear {
		if l == 1 {
			return 1
		}
		if i == 1 {
			return math.Max(0, 2-scaled)
		}
		if i == (1<<l)-1 {
			return math.Max(0, scaled-float64(i)+1)
		}
	}

	return math.Max(0, 1-math.Abs(scaled-float64(i)))
}

// Integral1D returns ∫₀¹ φ_{l,i}(x) dx.
func Integral1D(t Type, l, i int) float64 {
	if l == 0 {
		return 0.5
	}
	if t == ModLinear {
		if l == 1 {
			return 1
		}
		if i == 1 || i == (1<<l)-1 {
			return math.Ldexp(1, 1-l)
		}
	}

	return math.Ldexp(1, -l)
}

// support returns the interval outside of which φ_{l,i} vanishes, and its
// interior breakpoints (kinks).
func support(t Type, l, i int) (lo, hi float64, kinks []float64) {
	if l == 0 {
		return 0, 1, nil
	}
	h := math.Ldexp(1, -l)
	c := float64(i) * h
	if t == ModLinear {
		if l == 1 {
			return 0, 1, nil
		}
		if i == 1 {
			return 0, 2 * h, nil
		}
		if i == (1<<l)-1 {
			return 1 - 2*h, 1, nil
		}
	}

	return c - h, c + h, []float64{c}
}

// Product1D returns ∫₀¹ φ_{l1,i1}(x) φ_{l2,i2}(x) dx. Results are memoized in
// a bounded, concurrency-safe LRU.
func Product1D(t Type, l1, i1, l2, i2 int) float64 {
	// Normalize the unordered pair so (a,b) and (b,a) share a cache slot.
	if l2 < l1 || (l2 == l1 && i2 < i1) {
		l1, i1, l2, i2 = l2, i2, l1, i1
	}
	key := productKey{t: t, l1: l1, i1: i1, l2: l2, i2: i2}
	if v, ok := productCache.Get(key); ok {
		return v
	}
	v := product1D(t, l1, i1, l2, i2)
	productCache.Add(key, v)

	return v
}

func product1D(t Type, l1, i1, l2, i2 int) float64 {
	lo1, hi1, k1 := support(t, l1, i1)
	lo2, hi2, k2 := support(t, l2, i2)
	lo, hi := math.Max(lo1, lo2), math.Min(hi1, hi2)
	if hi <= lo {
		return 0
	}

	pts := make([]float64, 0, 4+len(k1)+len(k2))
	pts = append(pts, lo, hi)
	for _, k := range append(k1, k2...) {
		if k > lo && k < hi {
			pts = append(pts, k)
		}
	}
	sort.Float64s(pts)

	f := func(x float64) float64 { return Eval1D(t, l1, i1, x) * Eval1D(t, l2, i2, x) }
	sum := 0.0
	for j := 1; j < len(pts); j++ {
		a, b := pts[j-1], pts[j]
		if b <= a {
			continue
		}
		sum += (b - a) / 6 * (f(a) + 4*f((a+b)/2) + f(b))
	}

	return sum
}

// evalBasis evaluates the tensor-product basis function of p at x.
// It stops at the first vanishing factor.
func evalBasis(t Type, p Point, x []float64) float64 {
	v := 1.0
	for d := range p.Level {
		v *= Eval1D(t, p.Level[d], p.Index[d], x[d])
		if v == 0 {
			return 0
		}
	}

	return v
}

// integralBasis returns ∫ φ_p over the unit cube.
func integralBasis(t Type, p Point) float64 {
	v := 1.0
	for d := range p.Level {
		v *= Integral1D(t, p.Level[d], p.Index[d])
	}

	return v
}

// productBasis returns ∫ φ_p φ_q over the unit cube.
func productBasis(t Type, p, q Point) float64 {
	v := 1.0
	for d := range p.Level {
		v *= Product1D(t, p.Level[d], p.Index[d], q.Level[d], q.Index[d])
		if v == 0 {
			return 0
		}
	}

	return v
}
