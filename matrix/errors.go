// SPDX-License-Identifier: MIT

package matrix

import "errors"

// Sentinel errors. Kernels return them wrapped with the operation name;
// match with errors.Is. Checks run in the order nil, shape, dimension
// mismatch, numeric.
var (
	// ErrInvalidDimensions: a requested row or column count is not positive.
	ErrInvalidDimensions = errors.New("matrix: dimensions must be > 0")

	// ErrOutOfRange: At or Set outside [0,Rows)×[0,Cols).
	ErrOutOfRange = errors.New("matrix: index out of range")

	// ErrDimensionMismatch: operand shapes do not fit, e.g. LU factors of
	// different sizes or a vector of the wrong length in MatVec.
	ErrDimensionMismatch = errors.New("matrix: dimension mismatch")

	// ErrNonSquare: LU and Solve need a square matrix.
	ErrNonSquare = errors.New("matrix: matrix is not square")

	// ErrNaNInf: a non-finite value reached Set or a kernel input.
	ErrNaNInf = errors.New("matrix: NaN or Inf encountered")

	// ErrNilMatrix: nil receiver or operand.
	ErrNilMatrix = errors.New("matrix: nil receiver")

	// ErrSingular: LU met a zero pivot.
	ErrSingular = errors.New("matrix: singular matrix")

	// ErrRaggedRows: NewDenseFromRows got rows of different lengths.
	ErrRaggedRows = errors.New("matrix: rows have different lengths")
)
