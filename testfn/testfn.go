// Package testfn provides analytic test functions on the unit cube with
// known moments and Sobol indices, used to validate decompositions and
// learners.
package testfn

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrUnknownFunction is returned by ByName for an unknown name.
var ErrUnknownFunction = errors.New("testfn: unknown function")

// ErrBadDimension is returned by ByName for an unsupported dimension.
var ErrBadDimension = errors.New("testfn: invalid dimension")

// Reference holds the exact statistics of a function under the uniform
// distribution on [0,1]^Dim. Sobol is keyed by subset strings such as
// "{0}" or "{0,2}"; absent keys have index 0.
type Reference struct {
	Mean     float64
	Variance float64
	Sobol    map[string]float64
	Total    []float64
}

// Function is a test function on [0,1]^Dim.
type Function struct {
	Name string
	Dim  int
	F    func(x []float64) float64
	Ref  Reference
}

// Ishigami returns f(z) = sin z1 + a·sin² z2 + b·z3⁴·sin z1 with
// z = 2π·x − π. The usual parameters are a = 7, b = 0.1.
func Ishigami(a, b float64) Function {
	pi4 := math.Pow(math.Pi, 4)
	pi8 := pi4 * pi4
	d1 := b*pi4/5 + b*b*pi8/50 + 0.5
	d2 := a * a / 8
	d13 := 8 * b * b * pi8 / 225
	total := d1 + d2 + d13

	return Function{
		Name: "ishigami",
		Dim:  3,
		F: func(x []float64) float64 {
			z1 := 2*math.Pi*x[0] - math.Pi
			z2 := 2*math.Pi*x[1] - math.Pi
			z3 := 2*math.Pi*x[2] - math.Pi
			s2 := math.Sin(z2)
			return math.Sin(z1) + a*s2*s2 + b*z3*z3*z3*z3*math.Sin(z1)
		},
		Ref: Reference{
			Mean:     a / 2,
			Variance: total,
			Sobol: map[string]float64{
				key(0):    d1 / total,
				key(1):    d2 / total,
				key(0, 2): d13 / total,
			},
			Total: []float64{(d1 + d13) / total, d2 / total, d13 / total},
		},
	}
}

// SobolG returns the Sobol g-function ∏_d (|4x_d − 2| + a_d)/(1 + a_d).
// Small a_d make dimension d important. Sobol indices are listed for every
// subset when len(a) ≤ 10 and for single dimensions otherwise.
func SobolG(a []float64) Function {
	a = append([]float64(nil), a...)
	dim := len(a)
	v := make([]float64, dim)
	prod := 1.0
	for d := range a {
		v[d] = 1 / (3 * (1 + a[d]) * (1 + a[d]))
		prod *= 1 + v[d]
	}
	total := prod - 1

	sobol := make(map[string]float64)
	if dim <= 10 {
		for mask := 1; mask < 1<<dim; mask++ {
			du := 1.0
			var dims []int
			for d := 0; d < dim; d++ {
				if mask&(1<<d) != 0 {
					du *= v[d]
					dims = append(dims, d)
				}
			}
			sobol[key(dims...)] = du / total
		}
	} else {
		for d := range v {
			sobol[key(d)] = v[d] / total
		}
	}
	tot := make([]float64, dim)
	for d := range tot {
		tot[d] = v[d] * prod / (1 + v[d]) / total
	}

	return Function{
		Name: "sobolg",
		Dim:  dim,
		F: func(x []float64) float64 {
			p := 1.0
			for d := range a {
				p *= (math.Abs(4*x[d]-2) + a[d]) / (1 + a[d])
			}
			return p
		},
		Ref: Reference{Mean: 1, Variance: total, Sobol: sobol, Total: tot},
	}
}

// G11Objective returns z1² + (z2 − 1)² with z = 2x − 1, the objective of
// the constrained test problem G11.
func G11Objective() Function {
	return Function{
		Name: "g11",
		Dim:  2,
		F: func(x []float64) float64 {
			z1, z2 := 2*x[0]-1, 2*x[1]-1
			return z1*z1 + (z2-1)*(z2-1)
		},
		Ref: Reference{
			Mean:     5.0 / 3,
			Variance: 68.0 / 45,
			Sobol:    map[string]float64{key(0): 1.0 / 17, key(1): 16.0 / 17},
			Total:    []float64{1.0 / 17, 16.0 / 17},
		},
	}
}

// Additive returns Σ_d c_d·x_d², a function without interactions.
func Additive(c []float64) Function {
	c = append([]float64(nil), c...)
	mean, total := 0.0, 0.0
	for _, cd := range c {
		mean += cd / 3
		total += cd * cd * 4 / 45
	}
	sobol := make(map[string]float64, len(c))
	tot := make([]float64, len(c))
	for d, cd := range c {
		if total > 0 {
			tot[d] = cd * cd * 4 / 45 / total
		}
		sobol[key(d)] = tot[d]
	}

	return Function{
		Name: "additive",
		Dim:  len(c),
		F: func(x []float64) float64 {
			s := 0.0
			for d, cd := range c {
				s += cd * x[d] * x[d]
			}
			return s
		},
		Ref: Reference{Mean: mean, Variance: total, Sobol: sobol, Total: tot},
	}
}

// ByName returns a function with default parameters: "ishigami" (dim 3),
// "g11" (dim 2), "sobolg" (a_d = d, any dim ≥ 1), "additive" (c_d = d + 1,
// any dim ≥ 1). dim is ignored for fixed-dimension functions when 0.
func ByName(name string, dim int) (Function, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ishigami":
		return fixed(Ishigami(7, 0.1), dim)
	case "g11":
		return fixed(G11Objective(), dim)
	case "sobolg", "sobol_g":
		if dim < 1 {
			return Function{}, fmt.Errorf("ByName %q: dim=%d: %w", name, dim, ErrBadDimension)
		}
		a := make([]float64, dim)
		for d := range a {
			a[d] = float64(d)
		}
		return SobolG(a), nil
	case "additive":
		if dim < 1 {
			return Function{}, fmt.Errorf("ByName %q: dim=%d: %w", name, dim, ErrBadDimension)
		}
		c := make([]float64, dim)
		for d := range c {
			c[d] = float64(d + 1)
		}
		return Additive(c), nil
	default:
		return Function{}, fmt.Errorf("ByName %q: %w", name, ErrUnknownFunction)
	}
}

func fixed(f Function, dim int) (Function, error) {
	if dim != 0 && dim != f.Dim {
		return Function{}, fmt.Errorf("ByName %q: dim=%d, want %d: %w", f.Name, dim, f.Dim, ErrBadDimension)
	}

	return f, nil
}

// key renders a subset of dimensions as "{0,2}".
func key(dims ...int) string {
	parts := make([]string, len(dims))
	for i, d := range dims {
		parts[i] = strconv.Itoa(d)
	}

	return "{" + strings.Join(parts, ",") + "}"
}
