// Package anova: sentinel errors. Facades wrap them as fmt.Errorf("Op: %w").

package anova

import "errors"

var (
	// ErrNilGrid is returned when HDMR gets a nil grid.
	ErrNilGrid = errors.New("anova: nil grid")

	// ErrNilFunction is returned when HDMRAnalytic gets a nil function.
	ErrNilFunction = errors.New("anova: nil function")

	// ErrCoefficientMismatch is returned when alpha does not match the grid size.
	ErrCoefficientMismatch = errors.New("anova: coefficient count does not match grid size")

	// ErrBadOrder is returned for a subset larger than the decomposition order
	// or a non-positive order.
	ErrBadOrder = errors.New("anova: invalid interaction order")

	// ErrZeroVariance is returned when indices are requested for a constant function.
	ErrZeroVariance = errors.New("anova: zero variance, indices undefined")

	// ErrBudgetExceeded is returned when a quadrature would need more
	// function evaluations than allowed.
	ErrBudgetExceeded = errors.New("anova: evaluation budget exceeded")

	// ErrBadDimension is returned for a dimension outside 1..64 or an
	// evaluation point of the wrong length.
	ErrBadDimension = errors.New("anova: invalid dimension")
)
