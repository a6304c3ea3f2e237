// SPDX-License-Identifier: MIT

// Package matrix offers the dense linear-algebra primitives used by the
// sparse-grid solvers.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with safe accessors (At/Set return
//     errors instead of panicking) and an optional finite-only numeric policy.
//   - Kernels: MatVec, TMatVec, Gram, AddDiagonal.
//   - Doolittle LU factorization, LUSolve for reusing the factors across
//     right-hand sides, and a direct Solve. Density estimation keeps the
//     factors of its system matrix; direct regression solves BᵀB + λC.
//
// Dense matrices are best for the small systems that arise from moderate
// grids (a few thousand points); large least-squares problems should stay
// matrix-free and go through the solver package instead.
package matrix
