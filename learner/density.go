package learner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/katalvlaran/sparsegrid/dataset"
	"github.com/katalvlaran/sparsegrid/grid"
	"github.com/katalvlaran/sparsegrid/internal/ctxlog"
	"github.com/katalvlaran/sparsegrid/matrix"
)

// DensityEstimator fits a probability density to samples by regularised
// L2 projection of their empirical measure onto the grid:
//
//	(A + λ·C) α = (1/N)·Bᵀ1
//
// where A is the mass matrix of the grid, C the regularization diagonal and
// B the basis matrix of the N samples. The left-hand side depends only on
// the grid and λ, so it is factored once per grid and reused by every fit
// on that grid, including Update. Evaluate returns the density in the grid
// domain, i.e. the unit-cube solution divided by the domain volume. The
// error estimate is the largest surplus among the points added last.
type DensityEstimator struct {
	*Learner
	d *density
}

// NewDensityEstimator returns an estimator for samples. Without explicit
// bounds in spec.Grid the domain is the bounding box of the samples. The
// regularization weight and operator come from spec.Regressor.
//
// Errors: ErrNilDataset, ErrDimensionMismatch, ErrBadDescriptor,
// dataset.ErrShape, dataset.ErrNaNInf.
func NewDensityEstimator(samples [][]float64, spec Specification) (*DensityEstimator, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("NewDensityEstimator: %w", ErrNilDataset)
	}
	ds, err := dataset.New(samples, make([]float64, len(samples)))
	if err != nil {
		return nil, fmt.Errorf("NewDensityEstimator: %w", err)
	}
	if ds.Dim() != spec.Grid.Dim {
		return nil, fmt.Errorf("NewDensityEstimator: data dim %d, grid dim %d: %w", ds.Dim(), spec.Grid.Dim, ErrDimensionMismatch)
	}
	spec = spec.Clone()
	if len(spec.Grid.Lower) == 0 && len(spec.Grid.Upper) == 0 {
		spec.Grid.Lower, spec.Grid.Upper = dataBounds(ds)
	}
	d := &density{
		samples: ds,
		lambda:  spec.Regressor.Lambda,
		laplace: strings.EqualFold(spec.Regressor.Regularization, RegularizationLaplace),
	}
	l, err := newLearner(spec, d, false)
	if err != nil {
		return nil, fmt.Errorf("NewDensityEstimator: %w", err)
	}

	return &DensityEstimator{Learner: l, d: d}, nil
}

// Samples returns the number of samples the density is fitted to.
func (de *DensityEstimator) Samples() int {
	de.runMu.Lock()
	defer de.runMu.Unlock()

	return de.d.samples.Len()
}

// Update adds samples and refits the current grid without refining it,
// reusing its factored system. On error the sample set is left unchanged.
//
// Errors: ErrNilDataset, ErrDimensionMismatch, ErrNotFitted,
// dataset.ErrNaNInf, grid.ErrOutOfDomain, ctx.Err().
func (de *DensityEstimator) Update(ctx context.Context, samples [][]float64) (float64, error) {
	de.runMu.Lock()
	defer de.runMu.Unlock()

	if len(samples) == 0 {
		return 0, fmt.Errorf("Update: %w", ErrNilDataset)
	}
	more, err := dataset.New(samples, make([]float64, len(samples)))
	if err != nil {
		return 0, fmt.Errorf("Update: %w", err)
	}
	if more.Dim() != de.d.samples.Dim() {
		return 0, fmt.Errorf("Update: data dim %d, want %d: %w", more.Dim(), de.d.samples.Dim(), ErrDimensionMismatch)
	}
	all, err := dataset.Concat(de.d.samples, more)
	if err != nil {
		return 0, fmt.Errorf("Update: %w", err)
	}
	prev := de.d.samples
	de.d.samples = all
	est, err := de.refit(ctx)
	if err != nil {
		de.d.samples = prev
		return 0, fmt.Errorf("Update: %w", err)
	}
	ctxlog.FromContext(ctx).Info("density updated",
		slog.Int("added", more.Len()),
		slog.Int("samples", all.Len()),
		slog.Float64("error", est))

	return est, nil
}

// density is the density estimation strategy. All fields are guarded by
// Learner.runMu.
type density struct {
	samples *dataset.Dataset
	lambda  float64
	laplace bool

	// Factors of A + λC for the grid of size m.
	m    int
	l, u *matrix.Dense
}

func (d *density) kind() string      { return "density" }
func (d *density) criterion() string { return CriterionSurplus }

func (d *density) fit(ctx context.Context, g *grid.Grid, _ []float64, added []int) ([]float64, float64, error) {
	if err := d.factor(ctx, g); err != nil {
		return nil, 0, err
	}
	us, err := toUnit(g, d.samples.Samples)
	if err != nil {
		return nil, 0, err
	}
	b, err := g.BasisMatrix(us)
	if err != nil {
		return nil, 0, err
	}
	ones := make([]float64, b.Rows())
	for i := range ones {
		ones[i] = 1
	}
	rhs, err := matrix.TMatVec(b, ones)
	if err != nil {
		return nil, 0, err
	}
	n := float64(b.Rows())
	for i := range rhs {
		rhs[i] /= n
	}
	alpha, err := matrix.LUSolve(d.l, d.u, rhs)
	if err != nil {
		return nil, 0, err
	}
	vol := g.Domain().Volume()
	for i := range alpha {
		alpha[i] /= vol
	}

	return alpha, surplusError(alpha, added), nil
}

// factor assembles and factors A + λC unless g has the size of the grid
// factored last. Grids only grow during learning, so the size identifies it.
func (d *density) factor(ctx context.Context, g *grid.Grid) error {
	if d.l != nil && d.m == g.Len() {
		return nil
	}
	sys, err := g.MassMatrix()
	if err != nil {
		return err
	}
	reg := regularizationDiag(g, d.laplace)
	for i := range reg {
		reg[i] *= d.lambda
	}
	if err = matrix.AddDiagonal(sys, reg); err != nil {
		return err
	}
	l, u, err := matrix.LU(sys)
	if err != nil {
		if errors.Is(err, matrix.ErrSingular) {
			return fmt.Errorf("%w: %w", ErrSolverDiverged, err)
		}
		return err
	}
	d.m, d.l, d.u = g.Len(), l, u
	ctxlog.FromContext(ctx).Debug("density system factored", slog.Int("grid_size", d.m))

	return nil
}
