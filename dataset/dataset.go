// Package dataset holds regression data (samples with scalar targets) and
// reads it from CSV and JSON.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

var (
	// ErrEmpty is returned for a dataset without samples.
	ErrEmpty = errors.New("dataset: no samples")

	// ErrShape is returned when samples and targets disagree in count or
	// samples disagree in dimension.
	ErrShape = errors.New("dataset: inconsistent shape")

	// ErrNaNInf is returned for a non-finite value.
	ErrNaNInf = errors.New("dataset: NaN or Inf value")

	// ErrBadSplit is returned for a split ratio outside (0,1) or a fold count
	// outside [2, Len].
	ErrBadSplit = errors.New("dataset: invalid split")

	// ErrJSONPath is returned when a JSON path does not resolve to an array.
	ErrJSONPath = errors.New("dataset: JSON path does not resolve to an array")
)

// Dataset is a set of samples x_i ∈ R^Dim with targets y_i.
type Dataset struct {
	Samples [][]float64
	Targets []float64
}

// Fold is one train/test partition of a k-fold split.
type Fold struct {
	Train *Dataset
	Test  *Dataset
}

// New validates and copies samples and targets.
//
// Errors: ErrEmpty, ErrShape, ErrNaNInf.
func New(samples [][]float64, targets []float64) (*Dataset, error) {
	if len(samples) == 0 || len(samples[0]) == 0 {
		return nil, ErrEmpty
	}
	if len(samples) != len(targets) {
		return nil, fmt.Errorf("%d samples, %d targets: %w", len(samples), len(targets), ErrShape)
	}
	dim := len(samples[0])
	ds := &Dataset{
		Samples: make([][]float64, len(samples)),
		Targets: make([]float64, len(targets)),
	}
	for i, x := range samples {
		if len(x) != dim {
			return nil, fmt.Errorf("sample %d has %d values, want %d: %w", i, len(x), dim, ErrShape)
		}
		for _, v := range x {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("sample %d: %w", i, ErrNaNInf)
			}
		}
		if math.IsNaN(targets[i]) || math.IsInf(targets[i], 0) {
			return nil, fmt.Errorf("target %d: %w", i, ErrNaNInf)
		}
		ds.Samples[i] = append([]float64(nil), x...)
	}
	copy(ds.Targets, targets)

	return ds, nil
}

// Len returns the number of samples.
func (ds *Dataset) Len() int { return len(ds.Samples) }

// Dim returns the sample dimension.
func (ds *Dataset) Dim() int {
	if len(ds.Samples) == 0 {
		return 0
	}

	return len(ds.Samples[0])
}

// Bounds returns the per-dimension minimum and maximum of the samples.
func (ds *Dataset) Bounds() (lower, upper []float64) {
	dim := ds.Dim()
	lower, upper = make([]float64, dim), make([]float64, dim)
	for d := 0; d < dim; d++ {
		lower[d], upper[d] = math.Inf(1), math.Inf(-1)
	}
	for _, x := range ds.Samples {
		for d, v := range x {
			lower[d] = math.Min(lower[d], v)
			upper[d] = math.Max(upper[d], v)
		}
	}

	return lower, upper
}

// subset shares the rows listed in idx.
func (ds *Dataset) subset(idx []int) *Dataset {
	out := &Dataset{Samples: make([][]float64, len(idx)), Targets: make([]float64, len(idx))}
	for k, i := range idx {
		out.Samples[k] = ds.Samples[i]
		out.Targets[k] = ds.Targets[i]
	}

	return out
}

// Split shuffles the rows with a seeded PCG source and returns the first
// ratio·Len rows as train and the rest as test. Rows are shared, not copied.
//
// Errors: ErrBadSplit when either side would be empty.
func (ds *Dataset) Split(ratio float64, seed uint64) (train, test *Dataset, err error) {
	if !(ratio > 0 && ratio < 1) {
		return nil, nil, fmt.Errorf("Split: ratio %g: %w", ratio, ErrBadSplit)
	}
	n := ds.Len()
	cut := int(math.Round(ratio * float64(n)))
	if cut == 0 || cut == n {
		return nil, nil, fmt.Errorf("Split: ratio %g of %d rows: %w", ratio, n, ErrBadSplit)
	}
	perm := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)).Perm(n)

	return ds.subset(perm[:cut]), ds.subset(perm[cut:]), nil
}

// Folds partitions the rows, in order, into k contiguous folds.
//
// Errors: ErrBadSplit for k < 2 or k > Len.
func (ds *Dataset) Folds(k int) ([]Fold, error) {
	n := ds.Len()
	if k < 2 || k > n {
		return nil, fmt.Errorf("Folds(%d) of %d rows: %w", k, n, ErrBadSplit)
	}
	folds := make([]Fold, k)
	for f := 0; f < k; f++ {
		lo, hi := f*n/k, (f+1)*n/k
		trainIdx := make([]int, 0, n-(hi-lo))
		testIdx := make([]int, 0, hi-lo)
		for i := 0; i < n; i++ {
			if i >= lo && i < hi {
				testIdx = append(testIdx, i)
			} else {
				trainIdx = append(trainIdx, i)
			}
		}
		folds[f] = Fold{Train: ds.subset(trainIdx), Test: ds.subset(testIdx)}
	}

	return folds, nil
}

// Concat returns the rows of a followed by the rows of b. Rows are shared,
// not copied; a nil or empty side is skipped.
//
// Errors: ErrEmpty when both sides are empty, ErrShape on a dimension
// mismatch.
func Concat(a, b *Dataset) (*Dataset, error) {
	var parts []*Dataset
	for _, ds := range []*Dataset{a, b} {
		if ds != nil && ds.Len() > 0 {
			parts = append(parts, ds)
		}
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("Concat: %w", ErrEmpty)
	}
	if len(parts) == 2 && parts[0].Dim() != parts[1].Dim() {
		return nil, fmt.Errorf("Concat: dims %d and %d: %w", parts[0].Dim(), parts[1].Dim(), ErrShape)
	}
	out := &Dataset{}
	for _, ds := range parts {
		out.Samples = append(out.Samples, ds.Samples...)
		out.Targets = append(out.Targets, ds.Targets...)
	}

	return out, nil
}

// FromFunc samples f at the given points.
func FromFunc(xs [][]float64, f func([]float64) float64) (*Dataset, error) {
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = f(x)
	}

	return New(xs, ys)
}
