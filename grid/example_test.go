package grid_test

import (
	"fmt"

	"github.com/katalvlaran/sparsegrid/grid"
)

// ExampleGrid_Regular builds the classic level-3 sparse grid in two
// dimensions and compares it with the full grid of the same level.
func ExampleGrid_Regular() {
	sparse, _ := grid.New(2)
	_ = sparse.Regular(3)

	full, _ := grid.New(2)
	_ = full.Full(3)

	fmt.Printf("sparse=%d full=%d\n", sparse.Len(), full.Len())
	// Output:
	// sparse=17 full=49
}

// ExampleGrid_Hierarchize interpolates f(x) = x0 + x1 on a boundary grid and
// reads off its exact moments.
//
// Scenario:
//
//	x0 + x1 lies in the span of the level-0 boundary functions, so the
//	interpolant is exact: mean 1, variance 2·(1/12).
func ExampleGrid_Hierarchize() {
	g, _ := grid.New(2, grid.WithType(grid.LinearBoundary))
	_ = g.Regular(2)

	values := make([]float64, g.Len())
	for seq, x := range g.Coordinates() {
		values[seq] = x[0] + x[1]
	}
	alpha, _ := g.Hierarchize(values)

	mean, _ := g.Integrate(alpha)
	variance, _ := g.Variance(alpha)
	y, _ := g.Eval(alpha, []float64{0.2, 0.3})
	fmt.Printf("points=%d mean=%.4f variance=%.4f u(0.2,0.3)=%.4f\n", g.Len(), mean, variance, y)
	// Output:
	// points=21 mean=1.0000 variance=0.1667 u(0.2,0.3)=0.5000
}
