// Package learner implements adaptive sparse-grid learning.
//
// A Learner owns a grid and its coefficients and runs the loop
//
//	fit → estimate error → decompose (ANOVA) → check stop policy → refine
//
// until the StopPolicyDescriptor is satisfied. Four strategies share the
// engine:
//
//   - Interpolant samples a model function at the grid points (in parallel,
//     each point at most once) and hierarchises the values.
//   - ANOVAInterpolant additionally decomposes the interpolant after every
//     fit and weights refinement by the Sobol index of each point's
//     interaction subset, refining only in dimensions whose total index is
//     large enough.
//   - Regressor fits scattered data by regularised least squares solved with
//     conjugate gradients or LU, optionally choosing λ by k-fold cross
//     validation.
//   - DensityEstimator projects the empirical measure of samples onto the
//     grid. Its system matrix is factored once per grid.
//
// Regressor and DensityEstimator accept more data through Update, which
// refits the current grid without refining it.
//
// Configuration is carried by descriptors (GridDescriptor,
// CGSolverDescriptor, RegressorSpecificationDescriptor, StopPolicyDescriptor,
// RefinementDescriptor) bundled in a Specification. Progress is published as
// LearnerEvents to subscribers.
package learner
