package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/katalvlaran/sparsegrid/store"
	"github.com/katalvlaran/sparsegrid/testfn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runArgs executes the CLI with logging silenced and returns its output.
func runArgs(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	err := run(out, append([]string{"--log-level", "error"}, args...))

	return out.String(), err
}

func TestGridSize(t *testing.T) {
	t.Parallel()

	out, err := runArgs(t, "grid", "size", "--dim", "2", "--level", "3", "--type", "linear")
	require.NoError(t, err)
	assert.Equal(t, "dim=2 level=3 t=0 type=linear points=17\n", out)

	out, err = runArgs(t, "grid", "size", "--dim", "1", "--level", "2", "--type", "linear", "--list")
	require.NoError(t, err)
	assert.Equal(t, "dim=1 level=2 t=0 type=linear points=3\n0.5\n0.25\n0.75\n", out)

	_, err = runArgs(t, "grid", "size", "--t", "1")
	require.Error(t, err)
}

func TestLearnStoreAndInspect(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	dbPath := filepath.Join(t.TempDir(), "models.db")

	// --- Act ---
	out, err := runArgs(t, "learn",
		"--function", "additive", "--dim", "2",
		"--iterations", "2",
		"--store", dbPath, "--name", "demo")

	// --- Assert ---
	require.NoError(t, err)
	assert.Contains(t, out, "step=1 ")
	assert.Contains(t, out, "step=2 ")
	assert.Contains(t, out, "stop=max_iterations")
	assert.Contains(t, out, "total x0=")
	m := regexp.MustCompile(`stored id=(\S+)`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	out, err = runArgs(t, "models", "--store", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, id)
	assert.Contains(t, out, "demo")
	assert.Contains(t, out, "interpolant")

	out, err = runArgs(t, "anova", "--store", dbPath, "--id", id)
	require.NoError(t, err)
	assert.Contains(t, out, "model="+id)
	assert.Contains(t, out, "{0}")
	assert.Contains(t, out, "{1}")

	out, err = runArgs(t, "models", "rm", id, "--store", dbPath)
	require.NoError(t, err)
	assert.Equal(t, "deleted "+id+"\n", out)

	out, err = runArgs(t, "models", "--store", dbPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	_, err = runArgs(t, "anova", "--store", dbPath, "--id", id)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLearnFromConfig(t *testing.T) {
	t.Parallel()

	out, err := runArgs(t, "learn",
		"--config", filepath.Join("..", "..", "config", "testdata", "ishigami.hcl"),
		"--var", "level=3", "--var", "points=6",
		"--function", "ishigami", "--anova", "--iterations", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "step=2 ")
	assert.Contains(t, out, "ref=")
	assert.Equal(t, 3, strings.Count(out, "total x"))

	_, err = runArgs(t, "learn",
		"--config", filepath.Join("..", "..", "config", "testdata", "ishigami.hcl"),
		"--var", "level=3", "--var", "points=6",
		"--function", "g11")
	require.Error(t, err, "dimension mismatch")
}

func TestLearnFromData(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var csv strings.Builder
	csv.WriteString("x0,x1,y\n")
	for i := 0; i <= 4; i++ {
		for j := 0; j <= 4; j++ {
			x0, x1 := float64(i)/4, float64(j)/4
			fmt.Fprintf(&csv, "%g,%g,%g\n", x0, x1, x0+2*x1)
		}
	}
	path := filepath.Join(dir, "train.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv.String()), 0o600))

	out, err := runArgs(t, "learn", "--data", path, "--iterations", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "step=1 ")
	assert.Contains(t, out, "stop=max_iterations")
	assert.NotContains(t, out, "ref=")
}

func TestLearnDensity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	var csv strings.Builder
	csv.WriteString("x0,x1,y\n")
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			fmt.Fprintf(&csv, "%g,%g,0\n", (float64(i)+0.5)/10, (float64(j)+0.5)/10)
		}
	}
	path := filepath.Join(dir, "samples.csv")
	require.NoError(t, os.WriteFile(path, []byte(csv.String()), 0o600))
	storePath := filepath.Join(dir, "models.db")

	out, err := runArgs(t, "learn", "--data", path, "--density", "--iterations", "2", "--store", storePath, "--name", "uniform")
	require.NoError(t, err)
	assert.Contains(t, out, "step=2 ")
	assert.Contains(t, out, "stop=max_iterations")
	assert.Contains(t, out, "stored id=")

	out, err = runArgs(t, "models", "--store", storePath)
	require.NoError(t, err)
	assert.Contains(t, out, "density")

	_, err = runArgs(t, "learn", "--function", "ishigami", "--density")
	require.Error(t, err)
}

func TestLearnErrors(t *testing.T) {
	t.Parallel()

	_, err := runArgs(t, "learn")
	require.ErrorIs(t, err, errNoSource)

	_, err = runArgs(t, "learn", "--function", "rosenbrock")
	require.ErrorIs(t, err, testfn.ErrUnknownFunction)

	_, err = runArgs(t, "learn", "--function", "ishigami", "--data", "x.csv")
	require.Error(t, err)

	_, err = runArgs(t, "learn", "--density")
	require.ErrorIs(t, err, errDensityNoData)

	_, err = runArgs(t, "learn", "--data", filepath.Join(t.TempDir(), "missing.csv"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
