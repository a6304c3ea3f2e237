// Package learner: sentinel errors. Facades wrap them as fmt.Errorf("Op: %w").

package learner

import "errors"

var (
	// ErrNilFunction is returned when an interpolant has no model function.
	ErrNilFunction = errors.New("learner: nil model function")

	// ErrNilDataset is returned when a regressor has no training data.
	ErrNilDataset = errors.New("learner: nil dataset")

	// ErrDimensionMismatch is returned when data, descriptors or evaluation
	// points disagree in dimension.
	ErrDimensionMismatch = errors.New("learner: dimension mismatch")

	// ErrSolverDiverged is returned when CG does not reach the requested
	// residual; it wraps the solver error.
	ErrSolverDiverged = errors.New("learner: solver did not converge")

	// ErrNotFitted is returned when a model is evaluated before Learn.
	ErrNotFitted = errors.New("learner: model not fitted")

	// ErrNonFinite is returned when the model function yields NaN or ±Inf.
	ErrNonFinite = errors.New("learner: model returned a non-finite value")

	// ErrBadDescriptor is returned for an invalid descriptor field.
	ErrBadDescriptor = errors.New("learner: invalid descriptor")
)
