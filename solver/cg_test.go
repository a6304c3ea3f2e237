package solver_test

import (
	"errors"
	"testing"

	"github.com/katalvlaran/sparsegrid/matrix"
	"github.com/katalvlaran/sparsegrid/solver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spd builds the 1D Laplacian tridiag(-1, 2, -1) of order n, a classic SPD test system.
func spd(t *testing.T, n int) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDense(n, n)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, m.Set(i, i, 2))
		if i > 0 {
			require.NoError(t, m.Set(i, i-1, -1))
		}
		if i+1 < n {
			require.NoError(t, m.Set(i, i+1, -1))
		}
	}

	return m
}

func TestCGMatchesDirectSolve(t *testing.T) {
	a := spd(t, 20)
	b := make([]float64, 20)
	for i := range b {
		b[i] = float64(i%3) - 0.5
	}

	res, err := solver.CG(solver.DenseOperator{M: a}, b, nil, solver.DefaultOptions())
	require.NoError(t, err)
	require.True(t, res.Converged)
	// CG terminates in at most n steps in exact arithmetic.
	assert.LessOrEqual(t, res.Iterations, 25)

	direct, err := matrix.Solve(a, b)
	require.NoError(t, err)
	assert.InDeltaSlice(t, direct, res.X, 1e-8)
}

func TestCGZeroRHS(t *testing.T) {
	res, err := solver.CG(solver.DenseOperator{M: spd(t, 4)}, make([]float64, 4), []float64{1, 2, 3, 4}, solver.DefaultOptions())
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, []float64{0, 0, 0, 0}, res.X)
}

func TestCGNotConverged(t *testing.T) {
	a := spd(t, 50)
	b := make([]float64, 50)
	b[0] = 1
	opts := solver.NewOptions(solver.WithMaxIterations(2), solver.WithEpsilon(1e-14))

	res, err := solver.CG(solver.DenseOperator{M: a}, b, nil, opts)
	require.ErrorIs(t, err, solver.ErrNotConverged)
	assert.Equal(t, 2, res.Iterations)
	assert.False(t, res.Converged)
	assert.Len(t, res.X, 50)
}

func TestCGNotSPD(t *testing.T) {
	neg, err := matrix.NewDenseFromRows([][]float64{{-1, 0}, {0, -1}})
	require.NoError(t, err)

	_, err = solver.CG(solver.DenseOperator{M: neg}, []float64{1, 1}, nil, solver.DefaultOptions())
	require.ErrorIs(t, err, solver.ErrNotSPD)
}

func TestCGValidation(t *testing.T) {
	op := solver.DenseOperator{M: spd(t, 3)}

	_, err := solver.CG(op, []float64{1, 2}, nil, solver.DefaultOptions())
	require.ErrorIs(t, err, solver.ErrDimensionMismatch)

	_, err = solver.CG(op, []float64{1, 2, 3}, nil, solver.Options{})
	require.ErrorIs(t, err, solver.ErrBadOptions)

	assert.Panics(t, func() { solver.WithMaxIterations(0)(&solver.Options{}) })
	assert.Panics(t, func() { solver.WithEpsilon(-1)(&solver.Options{}) })
}

func TestCGOperatorErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	op := solver.FuncOperator{N: 2, Fn: func(x, y []float64) error { return boom }}

	_, err := solver.CG(op, []float64{1, 1}, nil, solver.DefaultOptions())
	require.ErrorIs(t, err, boom)
}
