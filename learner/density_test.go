package learner_test

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/katalvlaran/sparsegrid/dataset"
	"github.com/katalvlaran/sparsegrid/learner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// midpoints returns the n cell midpoints of [lo, hi].
func midpoints(lo, hi float64, n int) [][]float64 {
	xs := make([][]float64, n)
	for j := range xs {
		xs[j] = []float64{lo + (hi-lo)*(float64(j)+0.5)/float64(n)}
	}

	return xs
}

func densitySpec(t *testing.T, g learner.GridDescriptor, opts ...learner.SpecOption) learner.Specification {
	t.Helper()
	base := []learner.SpecOption{
		learner.WithGrid(g),
		learner.WithRegressor(learner.RegressorSpecificationDescriptor{}),
		learner.WithStopPolicy(learner.StopPolicyDescriptor{MaxIterations: 1}),
	}
	s, err := learner.NewSpecification(g.Dim, append(base, opts...)...)
	require.NoError(t, err)

	return s
}

func TestDensityUniform(t *testing.T) {
	for _, tc := range []struct {
		name   string
		lo, hi float64
		want   float64
	}{
		{"unit", 0, 1, 1},
		{"scaled", 2, 4, 0.5},
	} {
		t.Run(tc.name, func(t *testing.T) {
			spec := densitySpec(t, learner.GridDescriptor{
				Dim: 1, Level: 1, Type: "linearboundary",
				Lower: []float64{tc.lo}, Upper: []float64{tc.hi},
			})
			de, err := learner.NewDensityEstimator(midpoints(tc.lo, tc.hi, 8), spec)
			require.NoError(t, err)
			_, err = de.Learn(context.Background())
			require.NoError(t, err)

			for _, u := range []float64{0, 0.1, 0.5, 0.9, 1} {
				v, err := de.Evaluate([]float64{tc.lo + u*(tc.hi-tc.lo)})
				require.NoError(t, err)
				assert.InDelta(t, tc.want, v, 1e-12)
			}
			snap, err := de.Snapshot()
			require.NoError(t, err)
			assert.Equal(t, "density", snap.Kind)
		})
	}
}

func TestDensityIntegratesToOne(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	xs := make([][]float64, 200)
	for i := range xs {
		// Concentrated towards the lower-left corner.
		xs[i] = []float64{rng.Float64() * rng.Float64(), rng.Float64()}
	}
	spec := densitySpec(t,
		learner.GridDescriptor{Dim: 2, Level: 2, Type: "linearboundary", Lower: []float64{0, 0}, Upper: []float64{1, 1}},
		learner.WithStopPolicy(learner.StopPolicyDescriptor{MaxIterations: 3}),
		learner.WithRefinement(learner.RefinementDescriptor{Points: 2}),
	)
	de, err := learner.NewDensityEstimator(xs, spec)
	require.NoError(t, err)
	_, err = de.Learn(context.Background())
	require.NoError(t, err)

	h := de.History()
	require.Len(t, h, 3)
	assert.Greater(t, h[2].GridSize, h[0].GridSize)

	g, alpha := de.Grid(), de.Alpha()
	mass, err := g.Integrate(alpha)
	require.NoError(t, err)
	assert.InDelta(t, 1, mass, 1e-9)

	lo, err := de.Evaluate([]float64{0.1, 0.5})
	require.NoError(t, err)
	hi, err := de.Evaluate([]float64{0.9, 0.5})
	require.NoError(t, err)
	assert.Greater(t, lo, hi)
}

func TestDensityUpdate(t *testing.T) {
	spec := densitySpec(t,
		learner.GridDescriptor{Dim: 1, Level: 3, Type: "linearboundary", Lower: []float64{0}, Upper: []float64{1}},
		learner.WithRegressor(learner.RegressorSpecificationDescriptor{Lambda: 1e-4}),
	)
	first := midpoints(0, 1, 10)
	more := [][]float64{{0.2}, {0.25}, {0.3}}

	de, err := learner.NewDensityEstimator(first, spec)
	require.NoError(t, err)
	_, err = de.Update(context.Background(), more)
	require.ErrorIs(t, err, learner.ErrNotFitted)
	assert.Equal(t, 10, de.Samples())

	_, err = de.Learn(context.Background())
	require.NoError(t, err)
	size := de.Grid().Len()
	before, err := de.Evaluate([]float64{0.25})
	require.NoError(t, err)

	rec := &recorder{}
	cancel := de.Subscribe(rec.listen)
	est, err := de.Update(context.Background(), more)
	cancel()
	require.NoError(t, err)
	assert.Equal(t, []learner.LearnerEvents{learner.FitComplete}, rec.kinds)
	assert.Equal(t, est, rec.last.Error)
	assert.Equal(t, 13, de.Samples())
	assert.Equal(t, size, de.Grid().Len())
	after, err := de.Evaluate([]float64{0.25})
	require.NoError(t, err)
	assert.Greater(t, after, before)

	union, err := dataset.Concat(
		&dataset.Dataset{Samples: first, Targets: make([]float64, len(first))},
		&dataset.Dataset{Samples: more, Targets: make([]float64, len(more))},
	)
	require.NoError(t, err)
	fresh, err := learner.NewDensityEstimator(union.Samples, spec)
	require.NoError(t, err)
	_, err = fresh.Learn(context.Background())
	require.NoError(t, err)
	assert.InDeltaSlice(t, fresh.Alpha(), de.Alpha(), 1e-12)

	_, err = de.Update(context.Background(), nil)
	require.ErrorIs(t, err, learner.ErrNilDataset)
	_, err = de.Update(context.Background(), [][]float64{{0.1, 0.2}})
	require.ErrorIs(t, err, learner.ErrDimensionMismatch)
	_, err = de.Update(context.Background(), [][]float64{{math.NaN()}})
	require.ErrorIs(t, err, dataset.ErrNaNInf)
	assert.Equal(t, 13, de.Samples())
}

func TestDensityValidation(t *testing.T) {
	spec := densitySpec(t, learner.GridDescriptor{Dim: 1, Level: 1, Type: "linearboundary"})
	_, err := learner.NewDensityEstimator(nil, spec)
	require.ErrorIs(t, err, learner.ErrNilDataset)
	_, err = learner.NewDensityEstimator([][]float64{{0.1, 0.2}}, spec)
	require.ErrorIs(t, err, learner.ErrDimensionMismatch)
	_, err = learner.NewDensityEstimator([][]float64{{0.1}, {0.2, 0.3}}, spec)
	require.ErrorIs(t, err, dataset.ErrShape)

	de, err := learner.NewDensityEstimator([][]float64{{1}, {3}}, spec)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, de.Spec().Grid.Lower, "domain taken from the samples")
	assert.Equal(t, []float64{3}, de.Spec().Grid.Upper)
}
