// Package sparsegrid is the stable public surface of the sparse-grid
// uncertainty-quantification toolkit.
//
// The toolkit has three parts:
//
//	grid/    sparse-grid model: points, bases, generation, refinement,
//	         hierarchisation, evaluation and quadrature
//	anova/   ANOVA decomposition (HDMR) and Sobol sensitivity indices
//	learner/ adaptive learners that alternate refit, decomposition and
//	         refinement until a stop policy is met
//
// This package names the entry points callers should depend on. Everything
// else lives in the subpackages and may change between minor versions.
//
// A typical run builds a Specification, learns a model and reads its
// sensitivity ranking:
//
//	spec, _ := sparsegrid.NewSpecification(3)
//	ip, _ := sparsegrid.NewANOVAInterpolant(f, spec)
//	reason, err := ip.Learn(ctx)
//	dec := ip.Decomposition()
//
// The sguq command (cmd/sguq) drives the same entry points from HCL
// specification files.
package sparsegrid
