// Package grid implements hierarchical sparse grids on the unit cube and the
// operations needed to interpolate, integrate and decompose functions on them.
//
// 🚀 What is a sparse grid?
//
//	A sparse grid spans a hierarchical basis of tensor-product functions
//	φ_{l,i}(x) = ∏_d φ_{l_d,i_d}(x_d). Only level vectors with a small
//	|l|₁ are kept, so the number of points grows like O(2^n · n^{d−1})
//	instead of O(2^{n·d}) for the full grid.
//
// ✨ Key features:
//   - three bases: Linear (zero boundary), LinearBoundary, ModLinear
//     (level 1 is the constant function, which makes ANOVA terms explicit)
//   - regular, generalised (T-parameter), full and anisotropic generators
//   - interaction-aware grids (allowed dimension subsets)
//   - surplus-driven adaptive refinement that keeps the grid consistent
//   - hierarchisation / dehierarchisation, evaluation, basis matrices
//   - exact quadrature: mean, L2 norm, variance and marginalization
//
// ⚙️ Usage:
//
//	g, _ := grid.New(3, grid.WithType(grid.ModLinear))
//	_ = g.Regular(4)
//	alpha, _ := g.Hierarchize(values)           // values[p] = f(x_p)
//	y, _ := g.Eval(alpha, []float64{0.2, 0.5, 0.7})
//	mean, _ := g.Integrate(alpha)
//
// Concurrency:
//
//	*Grid is safe for concurrent use: reads take an RWMutex read lock and
//	generation/refinement take the write lock.
package grid
