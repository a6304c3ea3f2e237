package learner_test

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/katalvlaran/sparsegrid/grid"
	"github.com/katalvlaran/sparsegrid/learner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSpec(t *testing.T, opts ...learner.SpecOption) learner.Specification {
	t.Helper()
	dim := 2
	s, err := learner.NewSpecification(dim, opts...)
	require.NoError(t, err)

	return s
}

// recorder collects event kinds in delivery order.
type recorder struct {
	mu    sync.Mutex
	kinds []learner.LearnerEvents
	last  learner.Event
}

func (r *recorder) listen(e learner.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, e.Kind)
	r.last = e
}

func sumOfCoordinates(x []float64) float64 { return x[0] + x[1] }

func TestInterpolantExactForBoundaryLinear(t *testing.T) {
	spec := newSpec(t,
		learner.WithGrid(learner.GridDescriptor{Dim: 2, Level: 2, Type: "linearboundary"}),
		learner.WithStopPolicy(learner.StopPolicyDescriptor{MaxIterations: 1}),
	)
	ip, err := learner.NewInterpolant(sumOfCoordinates, spec)
	require.NoError(t, err)

	_, err = ip.Evaluate([]float64{0.5, 0.5})
	require.ErrorIs(t, err, learner.ErrNotFitted)

	reason, err := ip.Learn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, learner.StopMaxIterations, reason)
	assert.Equal(t, 21, ip.Grid().Len())
	assert.Equal(t, 21, ip.Evaluations())

	v, err := ip.Evaluate([]float64{0.3, 0.7})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, v, 1e-12)

	vs, err := ip.EvaluateMany([][]float64{{0, 0}, {1, 1}, {0.25, 0.5}})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 2, 0.75}, vs, 1e-12)

	_, err = ip.Evaluate([]float64{0.5})
	require.ErrorIs(t, err, learner.ErrDimensionMismatch)
	_, err = ip.Evaluate([]float64{0.5, 1.5})
	require.ErrorIs(t, err, grid.ErrOutOfDomain)

	h := ip.History()
	require.Len(t, h, 1)
	assert.Equal(t, 1, h[0].Iteration)
	assert.Equal(t, 21, h[0].GridSize)
	assert.Equal(t, 0, h[0].Added)
}

func TestInterpolantRefinesAndCachesValues(t *testing.T) {
	var calls sync.Map
	f := func(x []float64) float64 {
		n, _ := calls.LoadOrStore(x[0], new(int))
		*n.(*int)++
		return x[0] * x[0]
	}
	spec, err := learner.NewSpecification(1,
		learner.WithWorkers(3),
		learner.WithGrid(learner.GridDescriptor{Dim: 1, Level: 2}),
		learner.WithStopPolicy(learner.StopPolicyDescriptor{MaxIterations: 4}),
		learner.WithRefinement(learner.RefinementDescriptor{Points: 2}),
	)
	require.NoError(t, err)
	ip, err := learner.NewInterpolant(f, spec)
	require.NoError(t, err)

	reason, err := ip.Learn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, learner.StopMaxIterations, reason)

	h := ip.History()
	require.Len(t, h, 4)
	assert.Equal(t, 3, h[0].GridSize)
	for i := 1; i < len(h); i++ {
		assert.Greater(t, h[i].GridSize, h[i-1].GridSize)
		assert.Equal(t, h[i].GridSize-h[i-1].GridSize, h[i].Added)
	}
	g := ip.Grid()
	assert.Equal(t, g.Len(), ip.Evaluations(), "every point sampled exactly once")
	calls.Range(func(_, v any) bool {
		assert.Equal(t, 1, *v.(*int))
		return true
	})

	for _, x := range []float64{0.25, 0.5, 0.75} {
		v, err := ip.Evaluate([]float64{x})
		require.NoError(t, err)
		assert.InDelta(t, x*x, v, 1e-12, "interpolation at a grid point")
	}
}

func TestLearnerEventsOrder(t *testing.T) {
	spec, err := learner.NewSpecification(1,
		learner.WithGrid(learner.GridDescriptor{Dim: 1, Level: 2}),
		learner.WithStopPolicy(learner.StopPolicyDescriptor{MaxIterations: 2}),
	)
	require.NoError(t, err)
	ip, err := learner.NewInterpolant(func(x []float64) float64 { return x[0] * x[0] }, spec)
	require.NoError(t, err)

	rec := &recorder{}
	ip.Subscribe(rec.listen)
	silent := &recorder{}
	cancel := ip.Subscribe(silent.listen)
	cancel()

	_, err = ip.Learn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []learner.LearnerEvents{
		learner.LearningStarted,
		learner.LearningStepStarted,
		learner.FitComplete,
		learner.LearningStepComplete,
		learner.RefinementComplete,
		learner.LearningStepStarted,
		learner.FitComplete,
		learner.LearningStepComplete,
		learner.LearningComplete,
	}, rec.kinds)
	assert.Equal(t, learner.StopMaxIterations, rec.last.Reason)
	assert.Equal(t, ip.RunID(), rec.last.RunID)
	assert.Empty(t, silent.kinds)
}

func TestLearnerStopReasons(t *testing.T) {
	t.Run("saturated", func(t *testing.T) {
		spec, err := learner.NewSpecification(1,
			learner.WithGrid(learner.GridDescriptor{Dim: 1, Level: 2, Type: "linear", MaxLevel: 2}),
		)
		require.NoError(t, err)
		ip, err := learner.NewInterpolant(func(x []float64) float64 { return x[0] * (1 - x[0]) }, spec)
		require.NoError(t, err)
		reason, err := ip.Learn(context.Background())
		require.NoError(t, err)
		assert.Equal(t, learner.StopSaturated, reason)
		assert.Len(t, ip.History(), 1)
	})

	t.Run("accuracy", func(t *testing.T) {
		spec := newSpec(t, learner.WithStopPolicy(learner.StopPolicyDescriptor{Accuracy: 1e-9}))
		ip, err := learner.NewInterpolant(func([]float64) float64 { return 0 }, spec)
		require.NoError(t, err)
		reason, err := ip.Learn(context.Background())
		require.NoError(t, err)
		assert.Equal(t, learner.StopAccuracy, reason)
	})

	t.Run("grid size", func(t *testing.T) {
		spec := newSpec(t, learner.WithStopPolicy(learner.StopPolicyDescriptor{MaxGridSize: 10}))
		ip, err := learner.NewInterpolant(func(x []float64) float64 { return math.Sin(3 * x[0] * x[1]) }, spec)
		require.NoError(t, err)
		reason, err := ip.Learn(context.Background())
		require.NoError(t, err)
		assert.Equal(t, learner.StopMaxGridSize, reason)
		assert.GreaterOrEqual(t, ip.Grid().Len(), 10)
	})
}

func TestLearnerErrors(t *testing.T) {
	spec := newSpec(t)

	_, err := learner.NewInterpolant(nil, spec)
	require.ErrorIs(t, err, learner.ErrNilFunction)

	bad := spec.Clone()
	bad.Grid.T = 2
	_, err = learner.NewInterpolant(sumOfCoordinates, bad)
	require.ErrorIs(t, err, learner.ErrBadDescriptor)

	ip, err := learner.NewInterpolant(func([]float64) float64 { return math.NaN() }, spec)
	require.NoError(t, err)
	rec := &recorder{}
	ip.Subscribe(rec.listen)
	_, err = ip.Learn(context.Background())
	require.ErrorIs(t, err, learner.ErrNonFinite)
	assert.Equal(t, learner.LearningFailed, rec.last.Kind)
	assert.ErrorIs(t, rec.last.Err, learner.ErrNonFinite)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ip, err = learner.NewInterpolant(sumOfCoordinates, spec)
	require.NoError(t, err)
	_, err = ip.Learn(ctx)
	require.ErrorIs(t, err, context.Canceled)
	_, err = ip.Snapshot()
	require.ErrorIs(t, err, learner.ErrNotFitted)
}

func TestInterpolantDomain(t *testing.T) {
	spec, err := learner.NewSpecification(1,
		learner.WithGrid(learner.GridDescriptor{Dim: 1, Level: 1, Type: "linearboundary", Lower: []float64{2}, Upper: []float64{4}}),
		learner.WithStopPolicy(learner.StopPolicyDescriptor{MaxIterations: 1}),
	)
	require.NoError(t, err)
	var seen []float64
	var mu sync.Mutex
	ip, err := learner.NewInterpolant(func(x []float64) float64 {
		mu.Lock()
		seen = append(seen, x[0])
		mu.Unlock()
		return 3 * x[0]
	}, spec)
	require.NoError(t, err)
	_, err = ip.Learn(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []float64{2, 3, 4}, seen, "model sees domain coordinates")
	v, err := ip.Evaluate([]float64{3.5})
	require.NoError(t, err)
	assert.InDelta(t, 10.5, v, 1e-12)
	_, err = ip.Evaluate([]float64{5})
	require.ErrorIs(t, err, grid.ErrOutOfDomain)
}

func TestLearnerResetAndSnapshot(t *testing.T) {
	spec := newSpec(t, learner.WithStopPolicy(learner.StopPolicyDescriptor{MaxIterations: 3}))
	f := func(x []float64) float64 { return math.Exp(-x[0]) * x[1] }
	ip, err := learner.NewInterpolant(f, spec)
	require.NoError(t, err)

	_, err = ip.Learn(context.Background())
	require.NoError(t, err)
	size, evals := ip.Grid().Len(), ip.Evaluations()

	snap, err := ip.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "interpolant", snap.Kind)
	assert.Equal(t, ip.RunID().String(), snap.RunID)
	assert.Len(t, snap.History, 3)
	g, alpha, err := snap.Model()
	require.NoError(t, err)
	x := []float64{0.3, 0.6}
	want, err := ip.Evaluate(x)
	require.NoError(t, err)
	got, err := g.Eval(alpha, x)
	require.NoError(t, err)
	assert.InDelta(t, want, got, 1e-12)

	ip.Reset()
	assert.Nil(t, ip.Grid())
	assert.Nil(t, ip.Alpha())
	assert.Empty(t, ip.History())
	_, err = ip.Evaluate(x)
	require.ErrorIs(t, err, learner.ErrNotFitted)

	_, err = ip.Learn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, size, ip.Grid().Len(), "same run after reset")
	assert.Equal(t, evals, ip.Evaluations(), "cached values are reused")

	snap.Alpha = snap.Alpha[:1]
	_, _, err = snap.Model()
	require.ErrorIs(t, err, grid.ErrCoefficientMismatch)
}

func TestLearnContinuesRefining(t *testing.T) {
	spec := newSpec(t, learner.WithStopPolicy(learner.StopPolicyDescriptor{MaxIterations: 2}))
	ip, err := learner.NewInterpolant(func(x []float64) float64 { return x[0] * x[0] * x[1] }, spec)
	require.NoError(t, err)

	_, err = ip.Learn(context.Background())
	require.NoError(t, err)
	first := ip.Grid().Len()
	firstRun := ip.RunID()

	_, err = ip.Learn(context.Background())
	require.NoError(t, err)
	assert.Greater(t, ip.Grid().Len(), first)
	assert.NotEqual(t, firstRun, ip.RunID())
	assert.Len(t, ip.History(), 2, "history is per run")
}

func TestEvaluateDuringLearn(t *testing.T) {
	spec := newSpec(t,
		learner.WithStopPolicy(learner.StopPolicyDescriptor{MaxIterations: 40}),
		learner.WithRefinement(learner.RefinementDescriptor{Points: 1}),
	)
	f := func(x []float64) float64 { return math.Exp(-4 * ((x[0]-0.3)*(x[0]-0.3) + (x[1]-0.6)*(x[1]-0.6))) }
	ip, err := learner.NewInterpolant(f, spec)
	require.NoError(t, err)
	_, err = ip.Learn(context.Background())
	require.NoError(t, err)
	first := ip.Grid().Len()

	done := make(chan error, 1)
	go func() {
		_, err := ip.Learn(context.Background())
		done <- err
	}()

	xs := [][]float64{{0.1, 0.2}, {0.5, 0.5}, {0.9, 0.35}}
	reads := 0
	for running := true; running; reads++ {
		select {
		case err := <-done:
			require.NoError(t, err)
			running = false
		default:
		}
		_, err := ip.Evaluate(xs[reads%len(xs)])
		require.NoError(t, err)
		_, err = ip.EvaluateMany(xs)
		require.NoError(t, err)
		snap, err := ip.Snapshot()
		require.NoError(t, err)
		g, alpha, err := snap.Model()
		require.NoError(t, err)
		assert.Equal(t, g.Len(), len(alpha))
	}
	assert.Positive(t, reads)
	assert.Greater(t, ip.Grid().Len(), first)
}
