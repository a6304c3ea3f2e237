package sparsegrid

import (
	"context"

	"github.com/katalvlaran/sparsegrid/anova"
	"github.com/katalvlaran/sparsegrid/dataset"
	"github.com/katalvlaran/sparsegrid/grid"
	"github.com/katalvlaran/sparsegrid/learner"
)

// Version of the public interface.
const Version = "0.1.0"

// Learner types.
type (
	Learner          = learner.Learner
	LearnerEvents    = learner.LearnerEvents
	Event            = learner.Event
	Interpolant      = learner.Interpolant
	ANOVAInterpolant = learner.ANOVAInterpolant
	Regressor        = learner.Regressor
	DensityEstimator = learner.DensityEstimator
	StopReason       = learner.StopReason
	Snapshot         = learner.Snapshot
)

// Descriptors.
type (
	Specification                    = learner.Specification
	GridDescriptor                   = learner.GridDescriptor
	CGSolverDescriptor               = learner.CGSolverDescriptor
	RegressorSpecificationDescriptor = learner.RegressorSpecificationDescriptor
	StopPolicyDescriptor             = learner.StopPolicyDescriptor
	RefinementDescriptor             = learner.RefinementDescriptor
)

// ANOVA types.
type (
	Decomposition = anova.Decomposition
	Subset        = anova.Subset
)

// NewSpecification returns a validated specification for a dim-dimensional problem.
func NewSpecification(dim int, opts ...learner.SpecOption) (Specification, error) {
	return learner.NewSpecification(dim, opts...)
}

// NewInterpolant learns f by adaptive sparse-grid interpolation.
func NewInterpolant(f func([]float64) float64, spec Specification) (*Interpolant, error) {
	return learner.NewInterpolant(f, spec)
}

// NewANOVAInterpolant learns f with ANOVA-guided refinement.
func NewANOVAInterpolant(f func([]float64) float64, spec Specification) (*ANOVAInterpolant, error) {
	return learner.NewANOVAInterpolant(f, spec)
}

// NewRegressor fits train by regularised least squares; test may be nil.
func NewRegressor(train, test *dataset.Dataset, spec Specification) (*Regressor, error) {
	return learner.NewRegressor(train, test, spec)
}

// NewDensityEstimator fits a probability density to samples.
func NewDensityEstimator(samples [][]float64, spec Specification) (*DensityEstimator, error) {
	return learner.NewDensityEstimator(samples, spec)
}

// HDMR decomposes the sparse-grid function (g, alpha).
func HDMR(ctx context.Context, g *grid.Grid, alpha []float64, opts ...anova.Option) (*Decomposition, error) {
	return anova.HDMR(ctx, g, alpha, opts...)
}

// HDMRAnalytic decomposes f by tensor Gauss–Legendre quadrature.
func HDMRAnalytic(ctx context.Context, f func([]float64) float64, dim int, opts ...anova.Option) (*Decomposition, error) {
	return anova.HDMRAnalytic(ctx, f, dim, opts...)
}
