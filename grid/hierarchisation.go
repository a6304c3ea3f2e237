package grid

import "fmt"

// Hierarchize converts nodal values (values[seq] = f(x_seq)) into
// hierarchical surpluses α such that the interpolant reproduces every value.
//
// Points are processed in increasing level sum. A basis function whose level
// sum is not smaller than that of p vanishes at x_p, so
// α_p = f(x_p) − Σ_{|l_q|₁ < |l_p|₁} α_q φ_q(x_p).
//
// Complexity: O(N²·d) worst case; most terms stop at the first zero factor.
func (g *Grid) Hierarchize(values []float64) ([]float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkAlpha(values); err != nil {
		return nil, fmt.Errorf("Hierarchize: %w", err)
	}

	alpha := make([]float64, len(values))
	done := make([]int, 0, len(values))  // seqs of finished level sums
	group := make([]int, 0, len(values)) // seqs of the current level sum
	curSum := -1
	t := g.opts.Type
	g.storage.Ascend(func(seq int, p Point) bool {
		if s := p.LevelSum(); s != curSum {
			done = append(done, group...)
			group = group[:0]
			curSum = s
		}
		x := p.Coordinates()
		v := values[seq]
		for _, q := range done {
			if alpha[q] == 0 {
				continue
			}
			v -= alpha[q] * evalBasis(t, g.storage.At(q), x)
		}
		alpha[seq] = v
		group = append(group, seq)
		return true
	})

	return alpha, nil
}

// Dehierarchize evaluates the interpolant at every grid point.
func (g *Grid) Dehierarchize(alpha []float64) ([]float64, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if err := g.checkAlpha(alpha); err != nil {
		return nil, fmt.Errorf("Dehierarchize: %w", err)
	}

	out := make([]float64, len(alpha))
	for seq := range out {
		out[seq] = g.eval(alpha, g.storage.At(seq).Coordinates())
	}

	return out, nil
}
