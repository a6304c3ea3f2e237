// Package grid - grid generators.
//
// Every generator enumerates admissible level vectors, then all index tuples
// of each level vector, and merges the resulting points into the grid. Level
// vectors are visited in (level sum, lexicographic) order, so freshly
// generated grids have coarse-to-fine seqs.
package grid

import (
	"fmt"
	"math"
	"slices"
)

// levelFilter decides whether an effective level vector belongs to the grid.
// Effective levels are max(l_d, 1), so boundary level 0 counts as level 1.
// Filters must be monotone: if l passes, every l' ≤ l passes.
type levelFilter func(eff []int) bool

// Regular adds the classic regular sparse grid of level n:
// {l : |l|₁ ≤ n + d − 1}. Boundary grids additionally contain every level-0
// variant of those points.
//
// Errors: ErrBadLevel for n < 1 or n > MaxLevel.
func (g *Grid) Regular(n int) error {
	return g.RegularT(n, 0)
}

// RegularT adds the generalised sparse grid
// {l : |l|₁ − T·|l|∞ ≤ (n + d − 1) − T·n}. T = 0 is the regular sparse grid;
// T > 0 drops mixed levels (energy-type grids), T < 0 admits more of them.
//
// Errors: ErrBadLevel, ErrBadT (T ≥ 1 or NaN).
func (g *Grid) RegularT(n int, t float64) error {
	if err := g.checkLevel(n); err != nil {
		return fmt.Errorf("RegularT: %w", err)
	}
	if math.IsNaN(t) || t >= 1 {
		return fmt.Errorf("RegularT: T=%g: %w", t, ErrBadT)
	}
	bound := float64(n+g.dim-1) - t*float64(n)
	const eps = 1e-10
	g.generate(n, func(eff []int) bool {
		sum, maxL := 0, 0
		for _, l := range eff {
			sum += l
			if l > maxL {
				maxL = l
			}
		}
		return float64(sum)-t*float64(maxL) <= bound+eps
	})

	return nil
}

// Full adds the full tensor grid with every level l_d ≤ n.
//
// Errors: ErrBadLevel.
func (g *Grid) Full(n int) error {
	if err := g.checkLevel(n); err != nil {
		return fmt.Errorf("Full: %w", err)
	}
	g.generate(n, func([]int) bool { return true })

	return nil
}

// Anisotropic adds the grid {l : Σ_d (l_d − 1)/(n_d − 1) ≤ 1} where n_d =
// levels[d]; a dimension with n_d = 1 stays on its root level.
//
// Errors: ErrDimensionMismatch, ErrBadLevel.
func (g *Grid) Anisotropic(levels []int) error {
	if len(levels) != g.dim {
		return fmt.Errorf("Anisotropic: %d levels for dim %d: %w", len(levels), g.dim, ErrDimensionMismatch)
	}
	maxN := 1
	for _, n := range levels {
		if err := g.checkLevel(n); err != nil {
			return fmt.Errorf("Anisotropic: %w", err)
		}
		maxN = max(maxN, n)
	}
	lv := append([]int(nil), levels...)
	g.generate(maxN, func(eff []int) bool {
		s := 0.0
		for d, l := range eff {
			if l == 1 {
				continue
			}
			if lv[d] == 1 {
				return false
			}
			s += float64(l-1) / float64(lv[d]-1)
		}
		return s <= 1+1e-12
	})

	return nil
}

func (g *Grid) checkLevel(n int) error {
	if n < 1 || n > g.opts.MaxLevel {
		return fmt.Errorf("level %d not in [1, %d]: %w", n, g.opts.MaxLevel, ErrBadLevel)
	}

	return nil
}

// generate enumerates level vectors with every l_d in [root, n] accepted by
// keep and by the interaction constraints, and inserts all their points.
func (g *Grid) generate(n int, keep levelFilter) {
	root := g.opts.Type.RootLevel()
	var levels [][]int

	cur := make([]int, g.dim)
	eff := make([]int, g.dim)
	for d := range cur {
		cur[d], eff[d] = root, 1
	}
	var walk func(d int, mask uint64)
	walk = func(d int, mask uint64) {
		if d == g.dim {
			levels = append(levels, append([]int(nil), cur...))
			return
		}
		for l := root; l <= n; l++ {
			cur[d], eff[d] = l, max(l, 1)
			m := mask
			if l > root && d < 64 {
				m |= 1 << uint(d)
			}
			// Both filters are monotone in l_d, so the first rejection ends the loop.
			if !keep(eff) || !g.admissibleMask(m) {
				break
			}
			walk(d+1, m)
		}
		cur[d], eff[d] = root, 1
	}
	walk(0, 0)

	slices.SortFunc(levels, func(a, b []int) int {
		if sa, sb := sumInts(a), sumInts(b); sa != sb {
			return sa - sb
		}
		return slices.Compare(a, b)
	})

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, lv := range levels {
		forEachIndex(lv, func(idx []int) {
			g.insertWithAncestors(Point{Level: lv, Index: idx}, nil)
		})
	}
}

// forEachIndex calls fn for every valid index tuple of level vector lv. The
// slice passed to fn is reused; Storage.Insert copies it.
func forEachIndex(lv []int, fn func(idx []int)) {
	idx := make([]int, len(lv))
	var rec func(d int)
	rec = func(d int) {
		if d == len(lv) {
			fn(idx)
			return
		}
		if lv[d] == 0 {
			for i := 0; i <= 1; i++ {
				idx[d] = i
				rec(d + 1)
			}
			return
		}
		for i := 1; i < 1<<lv[d]; i += 2 {
			idx[d] = i
			rec(d + 1)
		}
	}
	rec(0)
}

func sumInts(xs []int) int {
	s := 0
	for _, x := range xs {
		s += x
	}

	return s
}
