package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/katalvlaran/sparsegrid/config"
	"github.com/katalvlaran/sparsegrid/learner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	spec, err := config.Load(context.Background(), filepath.Join("testdata", "ishigami.hcl"),
		map[string]string{"level": "3", "points": "10"})
	require.NoError(t, err)

	assert.Equal(t, "ishigami", spec.Name)
	assert.Equal(t, 2, spec.Workers)
	assert.Equal(t, learner.GridDescriptor{Dim: 3, Level: 3, Type: "modlinear"}, spec.Grid)
	assert.Equal(t, learner.CGSolverDescriptor{MaxIterations: 200, Epsilon: 1e-10}, spec.Solver)
	assert.Equal(t, 1e-6, spec.Regressor.Lambda)
	assert.Equal(t, 5, spec.Regressor.Folds)
	assert.Equal(t, []float64{1e-8, 1e-6, 1e-4}, spec.Regressor.Lambdas)
	assert.Equal(t, learner.StopPolicyDescriptor{MaxIterations: 5, MaxGridSize: 2000, Accuracy: 1e-4}, spec.StopPolicy)
	assert.Equal(t, 10, spec.Refinement.Points)
	assert.Equal(t, learner.CriterionANOVA, spec.Refinement.Criterion)
	assert.Equal(t, 0.01, spec.Refinement.MinTotalIndex)
}

func TestParseKeepsDefaults(t *testing.T) {
	src := []byte(`
grid {
  dim = 2
}

refinement {
  min_total_index = 0.05
}
`)
	spec, err := config.Parse(context.Background(), src, "min.hcl", nil)
	require.NoError(t, err)

	want := learner.DefaultSpecification(2)
	want.Refinement.MinTotalIndex = 0.05
	assert.Equal(t, want, spec)
}

func TestParseRegressorDirect(t *testing.T) {
	src := []byte(`
grid {
  dim = 1
}

regressor {
  lambda = 0.001
  direct = true
}
`)
	spec, err := config.Parse(context.Background(), src, "direct.hcl", nil)
	require.NoError(t, err)
	assert.True(t, spec.Regressor.Direct)
	assert.Equal(t, 0.001, spec.Regressor.Lambda)
}

func TestParseInteractionsAndBounds(t *testing.T) {
	src := []byte(`
grid {
  dim          = 3
  level        = 2
  lower        = [-1, 0, 0]
  upper        = [1, 1, var.top]
  interactions = [[0, 1], [2]]
}
`)
	spec, err := config.Parse(context.Background(), src, "box.hcl", map[string]string{"top": "2.5"})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0, 0}, spec.Grid.Lower)
	assert.Equal(t, []float64{1, 1, 2.5}, spec.Grid.Upper)
	assert.Equal(t, [][]int{{0, 1}, {2}}, spec.Grid.Interactions)

	g, err := spec.Grid.CreateGrid()
	require.NoError(t, err)
	for _, p := range g.Points() {
		m := p.EffectiveMask(g.Type())
		assert.False(t, m&0b001 != 0 && m&0b100 != 0, "x0 and x2 never interact")
	}
}

func TestParseErrors(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name string
		src  string
		want error
	}{
		{"syntax", "grid {", config.ErrInvalid},
		{"missing grid", "solver {\n  epsilon = 1e-6\n}\n", config.ErrMissingGrid},
		{"unknown block", "grid {\n  dim = 1\n}\nplot {}\n", config.ErrInvalid},
		{"unknown attribute", "grid {\n  dim = 1\n  colour = 2\n}\n", config.ErrInvalid},
		{"duplicate block", "grid {\n  dim = 1\n}\ngrid {\n  dim = 2\n}\n", config.ErrInvalid},
		{"undefined variable", "grid {\n  dim = var.d\n}\n", config.ErrInvalid},
		{"wrong type", "grid {\n  dim = \"three\"\n}\n", config.ErrInvalid},
		{"bad descriptor", "grid {\n  dim = 2\n  t   = 1\n}\n", learner.ErrBadDescriptor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.Parse(ctx, []byte(tc.src), tc.name+".hcl", nil)
			require.ErrorIs(t, err, tc.want)
		})
	}

	_, err := config.Load(ctx, filepath.Join(t.TempDir(), "nope.hcl"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseVars(t *testing.T) {
	vars, err := config.ParseVars([]string{"dim=3", "name = g11", "x=1", "x=2", "expr=a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"dim": "3", "name": " g11", "x": "2", "expr": "a=b"}, vars)

	_, err = config.ParseVars([]string{"novalue"})
	require.ErrorIs(t, err, config.ErrBadVariable)
	_, err = config.ParseVars([]string{"=1"})
	require.ErrorIs(t, err, config.ErrBadVariable)
}
