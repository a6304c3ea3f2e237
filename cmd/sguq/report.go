package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/katalvlaran/sparsegrid/anova"
)

func formatVector(x []float64) string {
	parts := make([]string, len(x))
	for i, v := range x {
		parts[i] = strconv.FormatFloat(v, 'g', 6, 64)
	}

	return strings.Join(parts, " ")
}

// printDecomposition writes the moments, the ranked Sobol indices (at most
// top entries, all when top <= 0) and the total indices. ref, when not nil,
// holds exact total indices printed alongside.
func printDecomposition(w io.Writer, dec *anova.Decomposition, top int, ref []float64) {
	fmt.Fprintf(w, "mean=%.6g variance=%.6g order=%d\n", dec.Mean, dec.Variance, dec.Order)
	ranked := dec.Ranked()
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	for i, c := range ranked {
		fmt.Fprintf(w, "%3d %-12s S=%.6f\n", i+1, c.Subset, c.SobolIndex)
	}
	for d, st := range dec.TotalIndices() {
		if d < len(ref) {
			fmt.Fprintf(w, "total x%d=%.6f ref=%.6f\n", d, st, ref[d])
			continue
		}
		fmt.Fprintf(w, "total x%d=%.6f\n", d, st)
	}
}
