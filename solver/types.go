package solver

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/sparsegrid/matrix"
)

// Sentinel errors for solver operations.
var (
	// ErrDimensionMismatch indicates that b, x0 and the operator disagree in size.
	ErrDimensionMismatch = errors.New("solver: dimension mismatch")

	// ErrNotConverged indicates that MaxIterations was reached before the
	// residual fell below the tolerance. The Result is still meaningful.
	ErrNotConverged = errors.New("solver: not converged")

	// ErrNotSPD indicates a non-positive curvature pᵀAp ≤ 0, i.e. the operator
	// is not symmetric positive definite.
	ErrNotSPD = errors.New("solver: operator is not positive definite")

	// ErrBadOptions indicates an invalid option value.
	ErrBadOptions = errors.New("solver: invalid options")
)

// Default solver settings.
const (
	DefaultMaxIterations = 1000
	DefaultEpsilon       = 1e-10
	DefaultThreshold     = 0.0
)

// LinearOperator is a square linear map y = A x.
type LinearOperator interface {
	// Dim returns n for an n×n operator.
	Dim() int
	// Apply writes A x into y; len(x) == len(y) == Dim().
	Apply(x, y []float64) error
}

// Options configures CG.
//
// MaxIterations – hard cap on iterations (> 0).
// Epsilon       – relative residual tolerance ‖r‖/‖b‖ (≥ 0).
// Threshold     – absolute residual tolerance (≥ 0).
type Options struct {
	MaxIterations int
	Epsilon       float64
	Threshold     float64
}

// Option represents a functional option for configuring CG.
type Option func(*Options)

// WithMaxIterations sets the iteration cap. Non-positive values panic.
func WithMaxIterations(n int) Option {
	return func(o *Options) {
		if n <= 0 {
			panic(ErrBadOptions.Error())
		}
		o.MaxIterations = n
	}
}

// WithEpsilon sets the relative residual tolerance. Negative values panic.
func WithEpsilon(eps float64) Option {
	return func(o *Options) {
		if eps < 0 {
			panic(ErrBadOptions.Error())
		}
		o.Epsilon = eps
	}
}

// WithThreshold sets the absolute residual tolerance. Negative values panic.
func WithThreshold(th float64) Option {
	return func(o *Options) {
		if th < 0 {
			panic(ErrBadOptions.Error())
		}
		o.Threshold = th
	}
}

// DefaultOptions returns Options initialized with the package defaults.
func DefaultOptions() Options {
	return Options{
		MaxIterations: DefaultMaxIterations,
		Epsilon:       DefaultEpsilon,
		Threshold:     DefaultThreshold,
	}
}

// NewOptions applies opts on top of DefaultOptions.
func NewOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Validate reports ErrBadOptions for out-of-range fields.
func (o Options) Validate() error {
	if o.MaxIterations <= 0 || o.Epsilon < 0 || o.Threshold < 0 {
		return fmt.Errorf("max_iterations=%d epsilon=%g threshold=%g: %w",
			o.MaxIterations, o.Epsilon, o.Threshold, ErrBadOptions)
	}

	return nil
}

// Result holds the outcome of an iterative solve.
type Result struct {
	// X is the final iterate.
	X []float64
	// Iterations is the number of CG steps performed.
	Iterations int
	// Residual is ‖b − A X‖₂ as tracked by the recurrence.
	Residual float64
	// Converged reports whether the stopping rule was met.
	Converged bool
}

// DenseOperator adapts a square matrix.Matrix to LinearOperator.
type DenseOperator struct {
	M matrix.Matrix
}

// Dim returns the matrix order.
func (d DenseOperator) Dim() int { return d.M.Rows() }

// Apply computes y = M x.
func (d DenseOperator) Apply(x, y []float64) error {
	if len(y) != d.M.Rows() {
		return ErrDimensionMismatch
	}
	out, err := matrix.MatVec(d.M, x)
	if err != nil {
		return err
	}
	copy(y, out)

	return nil
}

// FuncOperator adapts a closure to LinearOperator.
type FuncOperator struct {
	N  int
	Fn func(x, y []float64) error
}

// Dim returns N.
func (f FuncOperator) Dim() int { return f.N }

// Apply delegates to Fn.
func (f FuncOperator) Apply(x, y []float64) error { return f.Fn(x, y) }
