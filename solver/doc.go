// Package solver implements iterative solvers for the symmetric positive
// definite systems that appear in sparse-grid regression.
//
// 🚀 What is inside?
//
//	CG: the conjugate-gradient method on a matrix-free LinearOperator.
//	     Each iteration costs one operator application plus O(n) vector work.
//
// ⚙️ Usage:
//
//	op := solver.DenseOperator{M: a}                  // or any LinearOperator
//	res, err := solver.CG(op, b, nil, solver.DefaultOptions())
//	if errors.Is(err, solver.ErrNotConverged) {
//	  // res.X still holds the last iterate
//	}
//
// Stopping rule:
//
//	‖r_k‖ ≤ max(Epsilon·‖b‖, Threshold)  or  k == MaxIterations.
package solver
