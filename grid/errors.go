// Package grid: sentinel error set.
// Every message is prefixed with "grid: ..."; facades wrap sentinels with
// fmt.Errorf("Op: %w", err) and callers match them with errors.Is.

package grid

import "errors"

var (
	// ErrBadDimension is returned for a non-positive dimension or a dimension
	// index outside [0, dim).
	ErrBadDimension = errors.New("grid: invalid dimension")

	// ErrUnknownType is returned for a basis type outside the supported set.
	ErrUnknownType = errors.New("grid: unknown grid type")

	// ErrBadLevel is returned for a level that the basis type does not allow
	// or that exceeds the configured maximum.
	ErrBadLevel = errors.New("grid: invalid level")

	// ErrBadIndex is returned for an index that is even (level ≥ 1) or outside
	// the level's range.
	ErrBadIndex = errors.New("grid: invalid index")

	// ErrBadT is returned when the generalised sparse-grid parameter T ≥ 1.
	ErrBadT = errors.New("grid: T must be < 1")

	// ErrNotAdmissible is returned when a point violates the grid's interaction set.
	ErrNotAdmissible = errors.New("grid: point not admissible for interactions")

	// ErrCoefficientMismatch is returned when a coefficient or value vector
	// does not have one entry per grid point.
	ErrCoefficientMismatch = errors.New("grid: coefficient count does not match grid size")

	// ErrDimensionMismatch is returned when an evaluation point has the wrong length.
	ErrDimensionMismatch = errors.New("grid: dimension mismatch")

	// ErrOutOfDomain is returned when a point lies outside the grid domain.
	ErrOutOfDomain = errors.New("grid: point outside domain")

	// ErrBadDomain is returned for a domain with Lower ≥ Upper in some dimension.
	ErrBadDomain = errors.New("grid: invalid domain bounds")

	// ErrNilFunctor is returned by Refine when no refinement functor is given.
	ErrNilFunctor = errors.New("grid: nil refinement functor")
)
