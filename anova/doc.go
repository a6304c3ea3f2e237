// Package anova decomposes functions on [0,1]^d into ANOVA (HDMR) terms
//
//	f(x) = f_∅ + Σ_i f_i(x_i) + Σ_{i<j} f_ij(x_i, x_j) + …
//
// and reports the variance of every term together with Sobol and total
// sensitivity indices.
//
// HDMR works on sparse-grid functions and is exact: the conditional
// expectations M_v = E[f | x_v] are obtained by grid.Marginalize and the term
// variances by Möbius inversion D_u = Σ_{v⊆u} (−1)^{|u|−|v|} Var(M_v).
// HDMRAnalytic applies the same inversion to a closed-form function, with
// the integrals replaced by tensor Gauss–Legendre quadrature.
package anova
