// SPDX-License-Identifier: MIT

package matrix

// ZeroPivot is the sentinel for detecting a zero pivot in LU.
const ZeroPivot = 0.0

// LU computes the Doolittle factorization A = L*U with unit diagonal on L (no pivoting).
//
// Implementation:
//   - Stage 1: Validate m (not nil, square); allocate L,U; set diag(L)=1.
//   - Stage 2: For i=0..n-1, build row i of U and column i of L in fixed order.
//
// Errors:
//   - ErrNilMatrix, ErrNonSquare, ErrSingular (U[i,i]==0 during factorization).
//
// Complexity:
//   - Time O(n^3), Space O(n^2).
//
// Notes:
//   - No pivoting: the regression systems this package factors are symmetric
//     positive definite, where Doolittle without pivoting is stable.
func LU(m Matrix) (*Dense, *Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, nil, matrixErrorf(opLU, err)
	}
	if err := ValidateSquare(m); err != nil {
		return nil, nil, matrixErrorf(opLU, err)
	}
	a, err := toDense(m)
	if err != nil {
		return nil, nil, matrixErrorf(opLU, err)
	}

	n := a.r
	L, err := Identity(n)
	if err != nil {
		return nil, nil, matrixErrorf(opLU, err)
	}
	U, err := NewDense(n, n)
	if err != nil {
		return nil, nil, matrixErrorf(opLU, err)
	}

	var (
		i, j, k      int
		baseI, baseJ int
		sum, pivot   float64
	)
	for i = 0; i < n; i++ {
		baseI = i * n
		// Row i of U for j >= i.
		for j = i; j < n; j++ {
			sum = ZeroSum
			for k = 0; k < i; k++ {
				sum += L.data[baseI+k] * U.data[k*n+j]
			}
			U.data[baseI+j] = a.data[baseI+j] - sum
		}

		pivot = U.data[baseI+i]
		if pivot == ZeroPivot {
			return nil, nil, matrixErrorf(opLU, ErrSingular)
		}

		// Column i of L for j > i.
		for j = i + 1; j < n; j++ {
			sum = ZeroSum
			baseJ = j * n
			for k = 0; k < i; k++ {
				sum += L.data[baseJ+k] * U.data[k*n+i]
			}
			L.data[baseJ+i] = (a.data[baseJ+i] - sum) / pivot
		}
	}

	return L, U, nil
}

// Solve returns x with A x = b using LU followed by LUSolve.
//
// Errors: those of LU, plus ErrDimensionMismatch when len(b) != A.Rows().
// Complexity: Time O(n^3), Space O(n^2).
func Solve(a Matrix, b []float64) ([]float64, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	if err := ValidateVecLen(b, a.Rows()); err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	L, U, err := LU(a)
	if err != nil {
		return nil, matrixErrorf(opSolve, err)
	}
	x, err := LUSolve(L, U, b)
	if err != nil {
		return nil, matrixErrorf(opSolve, err)
	}

	return x, nil
}

// LUSolve solves L U x = b for factors returned by LU: forward substitution
// with the unit-diagonal L, then backward substitution with U. A factored
// system can be solved for many right-hand sides at O(n^2) each.
//
// Errors: ErrNilMatrix, ErrNonSquare, ErrDimensionMismatch (factor shapes or
// len(b)), ErrSingular (zero on the diagonal of U).
func LUSolve(L, U *Dense, b []float64) ([]float64, error) {
	if L == nil || U == nil {
		return nil, matrixErrorf(opLUSolve, ErrNilMatrix)
	}
	if err := ValidateSquare(L); err != nil {
		return nil, matrixErrorf(opLUSolve, err)
	}
	if U.r != L.r || U.c != L.c {
		return nil, matrixErrorf(opLUSolve, ErrDimensionMismatch)
	}
	if err := ValidateVecLen(b, L.r); err != nil {
		return nil, matrixErrorf(opLUSolve, err)
	}

	n := len(b)
	y := make([]float64, n)
	var (
		i, k int
		sum  float64
	)
	// Forward: L y = b (unit diagonal).
	for i = 0; i < n; i++ {
		sum = b[i]
		for k = 0; k < i; k++ {
			sum -= L.data[i*n+k] * y[k]
		}
		y[i] = sum
	}
	// Backward: U x = y.
	x := make([]float64, n)
	for i = n - 1; i >= 0; i-- {
		if U.data[i*n+i] == ZeroPivot {
			return nil, matrixErrorf(opLUSolve, ErrSingular)
		}
		sum = y[i]
		for k = i + 1; k < n; k++ {
			sum -= U.data[i*n+k] * x[k]
		}
		x[i] = sum / U.data[i*n+i]
	}

	return x, nil
}
