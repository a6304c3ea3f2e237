package learner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/katalvlaran/sparsegrid/dataset"
	"github.com/katalvlaran/sparsegrid/grid"
	"github.com/katalvlaran/sparsegrid/internal/ctxlog"
	"github.com/katalvlaran/sparsegrid/matrix"
	"github.com/katalvlaran/sparsegrid/solver"
)

// Regressor fits scattered data by regularised least squares
//
//	(BᵀB + λ·N·C) α = Bᵀy
//
// where B is the basis matrix of the N training samples and C the diagonal
// regularization operator. The system is solved with CG, warm-started from
// the previous coefficients, or by LU when the descriptor sets Direct. The
// error estimate is the RMSE on the test set when one is given, else on the
// training set.
type Regressor struct {
	*Learner
	r *regression
}

// NewRegressor returns a regressor for train, optionally validated on test.
// Without explicit bounds in spec.Grid the domain is the bounding box of
// all samples.
//
// Errors: ErrNilDataset, ErrDimensionMismatch, ErrBadDescriptor.
func NewRegressor(train, test *dataset.Dataset, spec Specification) (*Regressor, error) {
	if train == nil || train.Len() == 0 {
		return nil, fmt.Errorf("NewRegressor: %w", ErrNilDataset)
	}
	if train.Dim() != spec.Grid.Dim {
		return nil, fmt.Errorf("NewRegressor: data dim %d, grid dim %d: %w", train.Dim(), spec.Grid.Dim, ErrDimensionMismatch)
	}
	if test != nil && test.Dim() != train.Dim() {
		return nil, fmt.Errorf("NewRegressor: test dim %d: %w", test.Dim(), ErrDimensionMismatch)
	}
	spec = spec.Clone()
	if len(spec.Grid.Lower) == 0 && len(spec.Grid.Upper) == 0 {
		spec.Grid.Lower, spec.Grid.Upper = dataBounds(train, test)
	}
	if spec.Regressor.Regularization == "" {
		spec.Regressor.Regularization = RegularizationIdentity
	}
	r := &regression{
		train:   train,
		test:    test,
		lambda:  spec.Regressor.Lambda,
		laplace: strings.EqualFold(spec.Regressor.Regularization, RegularizationLaplace),
		direct:  spec.Regressor.Direct,
		opts:    spec.Solver.Options(),
	}
	l, err := newLearner(spec, r, false)
	if err != nil {
		return nil, fmt.Errorf("NewRegressor: %w", err)
	}

	return &Regressor{Learner: l, r: r}, nil
}

// dataBounds returns the bounding box of the samples, widened where it is
// degenerate.
func dataBounds(sets ...*dataset.Dataset) (lower, upper []float64) {
	for _, ds := range sets {
		if ds == nil {
			continue
		}
		lo, hi := ds.Bounds()
		if lower == nil {
			lower, upper = lo, hi
			continue
		}
		for d := range lower {
			lower[d] = math.Min(lower[d], lo[d])
			upper[d] = math.Max(upper[d], hi[d])
		}
	}
	for d := range lower {
		if upper[d] <= lower[d] {
			lower[d] -= 0.5
			upper[d] += 0.5
		}
	}

	return lower, upper
}

// Lambda returns the regularization weight in use.
func (rg *Regressor) Lambda() float64 {
	rg.runMu.Lock()
	defer rg.runMu.Unlock()

	return rg.r.lambda
}

// SelectLambda chooses λ from candidates (or the descriptor's Lambdas when
// none are given) by k-fold cross validation on the current grid, with k the
// descriptor's Folds. The winner, the λ with the smallest mean test RMSE
// (first on ties), is used by subsequent fits and returned.
//
// Errors: ErrBadDescriptor for no candidates or Folds < 2,
// dataset.ErrBadSplit, ErrSolverDiverged, ctx.Err().
func (rg *Regressor) SelectLambda(ctx context.Context, candidates ...float64) (float64, error) {
	rg.runMu.Lock()
	defer rg.runMu.Unlock()

	spec := rg.Spec()
	if len(candidates) == 0 {
		candidates = spec.Regressor.Lambdas
	}
	if len(candidates) == 0 {
		return 0, fmt.Errorf("SelectLambda: no candidates: %w", ErrBadDescriptor)
	}
	if spec.Regressor.Folds < 2 {
		return 0, fmt.Errorf("SelectLambda: folds=%d: %w", spec.Regressor.Folds, ErrBadDescriptor)
	}
	for _, c := range candidates {
		if c < 0 || math.IsNaN(c) {
			return 0, fmt.Errorf("SelectLambda: lambda=%g: %w", c, ErrBadDescriptor)
		}
	}
	g, err := rg.ensureGrid()
	if err != nil {
		return 0, fmt.Errorf("SelectLambda: %w", err)
	}
	folds, err := rg.r.train.Folds(spec.Regressor.Folds)
	if err != nil {
		return 0, fmt.Errorf("SelectLambda: %w", err)
	}

	log := ctxlog.FromContext(ctx)
	best, bestErr := candidates[0], math.Inf(1)
	for _, lambda := range candidates {
		sum := 0.0
		for _, f := range folds {
			if err = ctx.Err(); err != nil {
				return 0, fmt.Errorf("SelectLambda: %w", err)
			}
			alpha, err := rg.r.solve(g, f.Train, lambda, nil)
			if err != nil {
				return 0, fmt.Errorf("SelectLambda: %w", err)
			}
			e, err := rmse(g, alpha, f.Test)
			if err != nil {
				return 0, fmt.Errorf("SelectLambda: %w", err)
			}
			sum += e
		}
		mean := sum / float64(len(folds))
		log.Debug("cross validation", slog.Float64("lambda", lambda), slog.Float64("rmse", mean))
		if mean < bestErr {
			best, bestErr = lambda, mean
		}
	}

	rg.r.lambda = best
	rg.mu.Lock()
	rg.spec.Regressor.Lambda = best
	rg.mu.Unlock()
	log.Info("lambda selected", slog.Float64("lambda", best), slog.Float64("rmse", bestErr))

	return best, nil
}

// Update appends more to the training data and refits the current grid
// without refining it. The decomposition, if any, is recomputed. It returns
// the new error estimate. On error the training data is left unchanged.
//
// Errors: ErrNilDataset, ErrDimensionMismatch, ErrNotFitted,
// grid.ErrOutOfDomain for samples outside the grid domain,
// ErrSolverDiverged, ctx.Err().
func (rg *Regressor) Update(ctx context.Context, more *dataset.Dataset) (float64, error) {
	rg.runMu.Lock()
	defer rg.runMu.Unlock()

	if more == nil || more.Len() == 0 {
		return 0, fmt.Errorf("Update: %w", ErrNilDataset)
	}
	if more.Dim() != rg.r.train.Dim() {
		return 0, fmt.Errorf("Update: data dim %d, want %d: %w", more.Dim(), rg.r.train.Dim(), ErrDimensionMismatch)
	}
	train, err := dataset.Concat(rg.r.train, more)
	if err != nil {
		return 0, fmt.Errorf("Update: %w", err)
	}
	prev := rg.r.train
	rg.r.train = train
	est, err := rg.refit(ctx)
	if err != nil {
		rg.r.train = prev
		return 0, fmt.Errorf("Update: %w", err)
	}
	ctxlog.FromContext(ctx).Info("regressor updated",
		slog.Int("added", more.Len()),
		slog.Int("samples", train.Len()),
		slog.Float64("error", est))

	return est, nil
}

// regression is the least-squares strategy. train and lambda are guarded by
// Learner.runMu.
type regression struct {
	train, test *dataset.Dataset
	lambda      float64
	laplace     bool
	direct      bool
	opts        solver.Options
}

func (r *regression) kind() string      { return "regressor" }
func (r *regression) criterion() string { return CriterionSurplus }

func (r *regression) fit(_ context.Context, g *grid.Grid, prev []float64, _ []int) ([]float64, float64, error) {
	alpha, err := r.solve(g, r.train, r.lambda, prev)
	if err != nil {
		return nil, 0, err
	}
	ds := r.test
	if ds == nil {
		ds = r.train
	}
	e, err := rmse(g, alpha, ds)
	if err != nil {
		return nil, 0, err
	}

	return alpha, e, nil
}

// solve runs CG on the normal equations for ds. x0 may be shorter than the
// grid; missing entries start at zero.
func (r *regression) solve(g *grid.Grid, ds *dataset.Dataset, lambda float64, x0 []float64) ([]float64, error) {
	us, err := toUnit(g, ds.Samples)
	if err != nil {
		return nil, err
	}
	b, err := g.BasisMatrix(us)
	if err != nil {
		return nil, err
	}
	rhs, err := matrix.TMatVec(b, ds.Targets)
	if err != nil {
		return nil, err
	}

	m := b.Cols()
	weight := lambda * float64(b.Rows())
	reg := regularizationDiag(g, r.laplace)
	if r.direct {
		return solveDirect(b, rhs, weight, reg)
	}
	op := solver.FuncOperator{N: m, Fn: func(x, y []float64) error {
		bx, err := matrix.MatVec(b, x)
		if err != nil {
			return err
		}
		btbx, err := matrix.TMatVec(b, bx)
		if err != nil {
			return err
		}
		for i := range y {
			y[i] = btbx[i] + weight*reg[i]*x[i]
		}
		return nil
	}}

	start := make([]float64, m)
	copy(start, x0)
	res, err := solver.CG(op, rhs, start, r.opts)
	if err != nil {
		if errors.Is(err, solver.ErrNotConverged) || errors.Is(err, solver.ErrNotSPD) {
			return nil, fmt.Errorf("%w: %w", ErrSolverDiverged, err)
		}
		return nil, err
	}

	return res.X, nil
}

// solveDirect assembles BᵀB + weight·C and solves it by LU.
func solveDirect(b *matrix.Dense, rhs []float64, weight float64, reg []float64) ([]float64, error) {
	sys, err := matrix.Gram(b)
	if err != nil {
		return nil, err
	}
	shift := make([]float64, len(reg))
	for i, c := range reg {
		shift[i] = weight * c
	}
	if err = matrix.AddDiagonal(sys, shift); err != nil {
		return nil, err
	}
	x, err := matrix.Solve(sys, rhs)
	if err != nil {
		if errors.Is(err, matrix.ErrSingular) {
			return nil, fmt.Errorf("%w: %w", ErrSolverDiverged, err)
		}
		return nil, err
	}

	return x, nil
}

// regularizationDiag returns the diagonal of C: ones, or (1/d)·Σ_d 4^(l_d−1)
// over effective levels for the Laplace-like operator.
func regularizationDiag(g *grid.Grid, laplace bool) []float64 {
	points := g.Points()
	c := make([]float64, len(points))
	for seq, p := range points {
		if !laplace {
			c[seq] = 1
			continue
		}
		sum := 0.0
		for _, l := range p.Level {
			sum += math.Ldexp(1, 2*(max(l, 1)-1))
		}
		c[seq] = sum / float64(p.Dim())
	}

	return c
}

// rmse is the root mean squared error of the model on ds.
func rmse(g *grid.Grid, alpha []float64, ds *dataset.Dataset) (float64, error) {
	us, err := toUnit(g, ds.Samples)
	if err != nil {
		return 0, err
	}
	pred, err := g.EvalMany(alpha, us)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for i, y := range ds.Targets {
		d := pred[i] - y
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(pred))), nil
}
