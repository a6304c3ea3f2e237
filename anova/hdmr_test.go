package anova_test

import (
	"context"
	"math"
	"testing"

	"github.com/katalvlaran/sparsegrid/anova"
	"github.com/katalvlaran/sparsegrid/grid"
	"github.com/katalvlaran/sparsegrid/testfn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// interpolate builds a regular grid and hierarchises f on it.
func interpolate(t *testing.T, dim, level int, typ grid.Type, f func([]float64) float64) (*grid.Grid, []float64) {
	t.Helper()
	g, err := grid.New(dim, grid.WithType(typ))
	require.NoError(t, err)
	require.NoError(t, g.Regular(level))
	xs := g.Coordinates()
	values := make([]float64, len(xs))
	for i, x := range xs {
		values[i] = f(x)
	}
	alpha, err := g.Hierarchize(values)
	require.NoError(t, err)

	return g, alpha
}

func TestHDMRVarianceSplitsExactly(t *testing.T) {
	f := func(x []float64) float64 { return math.Exp(x[0]*x[1]) + math.Sin(3*x[2])*x[0] + x[1] }
	for _, typ := range []grid.Type{grid.Linear, grid.LinearBoundary, grid.ModLinear} {
		t.Run(typ.String(), func(t *testing.T) {
			g, alpha := interpolate(t, 3, 4, typ, f)
			dec, err := anova.HDMR(context.Background(), g, alpha)
			require.NoError(t, err)
			require.Equal(t, 3, dec.Order)
			require.Len(t, dec.Components, 7)

			variance, err := g.Variance(alpha)
			require.NoError(t, err)
			assert.InDelta(t, variance, dec.Variance, 1e-14)
			assert.InDelta(t, 0, dec.Residual(), 1e-10*math.Max(1, variance))

			sum := 0.0
			for _, c := range dec.Components {
				assert.GreaterOrEqual(t, c.SobolIndex, -1e-10)
				assert.LessOrEqual(t, c.SobolIndex, 1+1e-10)
				sum += c.SobolIndex
			}
			assert.InDelta(t, 1, sum, 1e-10)

			x := []float64{0.3, 0.6, 0.85}
			want, err := g.Eval(alpha, x)
			require.NoError(t, err)
			got, err := dec.Truncated(3, x)
			require.NoError(t, err)
			assert.InDelta(t, want, got, 1e-12)
		})
	}
}

func TestHDMRAdditiveHasNoInteractions(t *testing.T) {
	fn := testfn.Additive([]float64{1, 2, 3})
	g, alpha := interpolate(t, 3, 5, grid.ModLinear, fn.F)
	dec, err := anova.HDMR(context.Background(), g, alpha)
	require.NoError(t, err)

	for u, c := range dec.Components {
		if u.Len() > 1 {
			assert.InDelta(t, 0, c.Variance, 1e-12, "component %s", u)
		}
	}
	// x² is interpolated piecewise linearly, so indices are close but not exact.
	for d := 0; d < 3; d++ {
		s, err := dec.Sobol(anova.NewSubset(d))
		require.NoError(t, err)
		assert.InDelta(t, fn.Ref.Sobol[anova.NewSubset(d).String()], s, 5e-3)
	}
	// First-order truncation of an additive interpolant is the interpolant.
	x := []float64{0.2, 0.7, 0.4}
	want, err := g.Eval(alpha, x)
	require.NoError(t, err)
	got, err := dec.Truncated(1, x)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)
}

func TestHDMRIshigamiApproachesReference(t *testing.T) {
	if testing.Short() {
		t.Skip("level-6 grid")
	}
	fn := testfn.Ishigami(7, 0.1)
	g, alpha := interpolate(t, 3, 6, grid.ModLinear, fn.F)
	dec, err := anova.HDMR(context.Background(), g, alpha, anova.WithThreshold(1e-3))
	require.NoError(t, err)

	assert.InDelta(t, fn.Ref.Mean, dec.Mean, 0.05)
	for _, key := range []string{"{0}", "{1}", "{0,2}"} {
		u, err := anova.ParseSubset(key)
		require.NoError(t, err)
		s, err := dec.Sobol(u)
		require.NoError(t, err)
		assert.InDelta(t, fn.Ref.Sobol[key], s, 0.03, key)
	}
	total := dec.TotalIndices()
	for d := range total {
		assert.InDelta(t, fn.Ref.Total[d], total[d], 0.03)
	}

	ranked := dec.Ranked()
	require.NotEmpty(t, ranked)
	assert.Equal(t, "{1}", ranked[0].Subset.String())
}

func TestHDMRMaxOrder(t *testing.T) {
	f := func(x []float64) float64 { return x[0] * x[1] * x[2] }
	g, alpha := interpolate(t, 3, 3, grid.LinearBoundary, f)
	dec, err := anova.HDMR(context.Background(), g, alpha, anova.WithMaxOrder(1))
	require.NoError(t, err)
	assert.Equal(t, 1, dec.Order)
	assert.Len(t, dec.Components, 3)
	assert.Greater(t, dec.Residual(), 0.0)

	_, err = dec.Sobol(anova.NewSubset(0, 1))
	require.ErrorIs(t, err, anova.ErrBadOrder)
	_, err = dec.Truncated(2, []float64{0.1, 0.2, 0.3})
	require.ErrorIs(t, err, anova.ErrBadOrder)
	_, err = dec.Eval(anova.NewSubset(0, 2), []float64{0.1, 0.2, 0.3})
	require.ErrorIs(t, err, anova.ErrBadOrder)
}

func TestHDMRComponentEval(t *testing.T) {
	// On a boundary grid x0 + x0·x1 is exact: f_0 = 1.5·(x0 − ½), f_1 = ½(x1 − ½),
	// f_01 = (x0 − ½)(x1 − ½).
	f := func(x []float64) float64 { return x[0] + x[0]*x[1] }
	g, alpha := interpolate(t, 2, 2, grid.LinearBoundary, f)
	dec, err := anova.HDMR(context.Background(), g, alpha)
	require.NoError(t, err)
	x := []float64{0.9, 0.2}

	f0, err := dec.Eval(anova.NewSubset(0), x)
	require.NoError(t, err)
	assert.InDelta(t, 1.5*0.4, f0, 1e-12)
	f1, err := dec.Eval(anova.NewSubset(1), x)
	require.NoError(t, err)
	assert.InDelta(t, 0.5*(-0.3), f1, 1e-12)
	f01, err := dec.Eval(anova.NewSubset(0, 1), x)
	require.NoError(t, err)
	assert.InDelta(t, 0.4*(-0.3), f01, 1e-12)
	mean, err := dec.Eval(0, x)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, mean, 1e-12)

	_, err = dec.Eval(anova.NewSubset(0), []float64{0.5})
	require.ErrorIs(t, err, anova.ErrBadDimension)
}

func TestHDMRErrors(t *testing.T) {
	ctx := context.Background()
	_, err := anova.HDMR(ctx, nil, nil)
	require.ErrorIs(t, err, anova.ErrNilGrid)

	g, alpha := interpolate(t, 2, 2, grid.Linear, func(x []float64) float64 { return x[0] })
	_, err = anova.HDMR(ctx, g, alpha[:1])
	require.ErrorIs(t, err, anova.ErrCoefficientMismatch)

	constant, calpha := interpolate(t, 2, 2, grid.ModLinear, func([]float64) float64 { return 4 })
	dec, err := anova.HDMR(ctx, constant, calpha)
	require.NoError(t, err)
	assert.InDelta(t, 4, dec.Mean, 1e-14)
	_, err = dec.Sobol(anova.NewSubset(0))
	require.ErrorIs(t, err, anova.ErrZeroVariance)
	_, err = dec.TotalIndex(0)
	require.ErrorIs(t, err, anova.ErrZeroVariance)
	_, err = dec.TotalIndex(5)
	require.ErrorIs(t, err, anova.ErrBadDimension)
	assert.Equal(t, []float64{0, 0}, dec.TotalIndices())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = anova.HDMR(cancelled, g, alpha)
	require.ErrorIs(t, err, context.Canceled)

	assert.Panics(t, func() { anova.WithMaxOrder(0)(&anova.Options{}) })
	assert.Panics(t, func() { anova.WithThreshold(-1)(&anova.Options{}) })
}

func TestRankedThreshold(t *testing.T) {
	fn := testfn.Additive([]float64{1, 10})
	g, alpha := interpolate(t, 2, 4, grid.ModLinear, fn.F)
	dec, err := anova.HDMR(context.Background(), g, alpha, anova.WithThreshold(1e-6))
	require.NoError(t, err)
	ranked := dec.Ranked()
	require.Len(t, ranked, 2, "the vanishing interaction is filtered")
	assert.Equal(t, "{1}", ranked[0].Subset.String())
	assert.Equal(t, "{0}", ranked[1].Subset.String())
}
