// SPDX-License-Identifier: MIT

// Package matrix: shared validators. They return bare sentinels; facades wrap
// them with the operation tag.
package matrix

// ValidateNotNil returns ErrNilMatrix when m is nil (including a typed nil *Dense).
func ValidateNotNil(m Matrix) error {
	if m == nil {
		return ErrNilMatrix
	}
	if d, ok := m.(*Dense); ok && d == nil {
		return ErrNilMatrix
	}

	return nil
}

// ValidateSquare returns ErrNonSquare when m.Rows() != m.Cols().
func ValidateSquare(m Matrix) error {
	if m.Rows() != m.Cols() {
		return ErrNonSquare
	}

	return nil
}

// ValidateVecLen returns ErrDimensionMismatch when len(x) != n or x is nil.
func ValidateVecLen(x []float64, n int) error {
	if x == nil || len(x) != n {
		return ErrDimensionMismatch
	}

	return nil
}
