// SPDX-License-Identifier: MIT

// Kernels: matrix-vector products, the Gram product and diagonal shifts used
// by least-squares regression and density estimation. All functions
// validate fail-fast and return sentinel errors wrapped with the operation
// tag. *Dense inputs take a flat-slice fast path; other implementations go
// through At in fixed i→j order.

package matrix

import "fmt"

// ZeroSum is the initial sum value for dot products and substitutions.
const ZeroSum = 0.0

// Operation name constants for unified error wrapping.
const (
	opMatVec      = "MatVec"
	opTMatVec     = "TMatVec"
	opGram        = "Gram"
	opAddDiagonal = "AddDiagonal"
	opLU          = "LU"
	opSolve       = "Solve"
	opLUSolve     = "LUSolve"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// toDense returns m as *Dense, copying through At when m is another implementation.
func toDense(m Matrix) (*Dense, error) {
	if d, ok := m.(*Dense); ok {
		return d, nil
	}
	out, err := NewDense(m.Rows(), m.Cols())
	if err != nil {
		return nil, err
	}
	var (
		i, j int
		v    float64
	)
	for i = 0; i < out.r; i++ {
		for j = 0; j < out.c; j++ {
			if v, err = m.At(i, j); err != nil {
				return nil, err
			}
			out.data[i*out.c+j] = v
		}
	}

	return out, nil
}

// MatVec computes y = m * x for a column vector x.
//
// Contract: m non-nil; len(x) == m.Cols().
// Complexity: Time O(r*c), Space O(r) for y.
func MatVec(m Matrix, x []float64) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	if err := ValidateVecLen(x, m.Cols()); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	d, err := toDense(m)
	if err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}

	y := make([]float64, d.r)
	var (
		i, j, base int
		acc, xv    float64
	)
	for i = 0; i < d.r; i++ {
		acc = ZeroSum
		base = i * d.c
		for j = 0; j < d.c; j++ {
			xv = x[j]
			if xv != 0 { // skip zero multiplications
				acc += d.data[base+j] * xv
			}
		}
		y[i] = acc
	}

	return y, nil
}

// TMatVec computes y = mᵀ * x without materializing the transpose.
//
// Contract: m non-nil; len(x) == m.Rows().
// Complexity: Time O(r*c), Space O(c) for y.
func TMatVec(m Matrix, x []float64) ([]float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opTMatVec, err)
	}
	if err := ValidateVecLen(x, m.Rows()); err != nil {
		return nil, matrixErrorf(opTMatVec, err)
	}
	d, err := toDense(m)
	if err != nil {
		return nil, matrixErrorf(opTMatVec, err)
	}

	y := make([]float64, d.c)
	var (
		i, j, base int
		xv         float64
	)
	for i = 0; i < d.r; i++ {
		xv = x[i]
		if xv == 0 {
			continue
		}
		base = i * d.c
		for j = 0; j < d.c; j++ {
			y[j] += d.data[base+j] * xv
		}
	}

	return y, nil
}

// Gram computes G = mᵀ m (c×c, symmetric positive semi-definite).
// Only the upper triangle is accumulated and mirrored afterwards.
//
// Complexity: Time O(r*c²), Space O(c²).
func Gram(m Matrix) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opGram, err)
	}
	d, err := toDense(m)
	if err != nil {
		return nil, matrixErrorf(opGram, err)
	}
	g, err := NewDense(d.c, d.c)
	if err != nil {
		return nil, matrixErrorf(opGram, err)
	}
	var (
		i, j, k, base int
		vj            float64
	)
	for i = 0; i < d.r; i++ {
		base = i * d.c
		for j = 0; j < d.c; j++ {
			vj = d.data[base+j]
			if vj == 0 {
				continue
			}
			for k = j; k < d.c; k++ {
				g.data[j*g.c+k] += vj * d.data[base+k]
			}
		}
	}
	for j = 0; j < g.r; j++ {
		for k = j + 1; k < g.c; k++ {
			g.data[k*g.c+j] = g.data[j*g.c+k]
		}
	}

	return g, nil
}

// AddDiagonal adds diag[i] to m(i,i) in place. len(diag) must equal m.Rows()
// and m must be square.
func AddDiagonal(m *Dense, diag []float64) error {
	if m == nil {
		return matrixErrorf(opAddDiagonal, ErrNilMatrix)
	}
	if err := ValidateSquare(m); err != nil {
		return matrixErrorf(opAddDiagonal, err)
	}
	if err := ValidateVecLen(diag, m.r); err != nil {
		return matrixErrorf(opAddDiagonal, err)
	}
	for i := 0; i < m.r; i++ {
		m.data[i*m.c+i] += diag[i]
	}

	return nil
}
