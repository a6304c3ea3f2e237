package learner

import (
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/katalvlaran/sparsegrid/grid"
	"golang.org/x/sync/errgroup"
)

// Interpolant learns a model function by sampling it at the grid points and
// hierarchising the values. The error estimate is the largest |α| among the
// points added by the last refinement (all points on the first step).
type Interpolant struct {
	*Learner
	s *sampler
}

// NewInterpolant returns an interpolant of f, a function on the domain of
// spec.Grid. f is called concurrently from up to spec.Workers goroutines and
// never twice for the same grid point.
//
// Errors: ErrNilFunction, ErrBadDescriptor.
func NewInterpolant(f func([]float64) float64, spec Specification) (*Interpolant, error) {
	return newInterpolant(f, spec, false)
}

func newInterpolant(f func([]float64) float64, spec Specification, forceANOVA bool) (*Interpolant, error) {
	if f == nil {
		return nil, fmt.Errorf("NewInterpolant: %w", ErrNilFunction)
	}
	workers := spec.Workers
	if workers == 0 {
		workers = DefaultWorkers
	}
	s := &sampler{f: f, workers: workers, values: make(map[string]float64)}
	if forceANOVA {
		s.name, s.crit = "anova-interpolant", CriterionANOVA
	} else {
		s.name, s.crit = "interpolant", CriterionSurplusVolume
	}
	l, err := newLearner(spec, s, forceANOVA)
	if err != nil {
		return nil, fmt.Errorf("NewInterpolant: %w", err)
	}

	return &Interpolant{Learner: l, s: s}, nil
}

// Evaluations returns how many times the model function has been called.
func (ip *Interpolant) Evaluations() int { return int(ip.s.calls.Load()) }

// sampler evaluates the model at grid points with a per-point value cache.
type sampler struct {
	f       func([]float64) float64
	workers int
	name    string
	crit    string

	mu     sync.Mutex
	values map[string]float64 // point key → f(x)
	calls  atomic.Int64
}

func (s *sampler) kind() string      { return s.name }
func (s *sampler) criterion() string { return s.crit }

func (s *sampler) lookup(key string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]

	return v, ok
}

func (s *sampler) store(key string, v float64) {
	s.mu.Lock()
	s.values[key] = v
	s.mu.Unlock()
}

// fit samples every uncached point and hierarchises.
func (s *sampler) fit(ctx context.Context, g *grid.Grid, _ []float64, added []int) ([]float64, float64, error) {
	points := g.Points()
	dom := g.Domain()
	values := make([]float64, len(points))

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)
	for seq, p := range points {
		key := p.Key()
		if v, ok := s.lookup(key); ok {
			values[seq] = v
			continue
		}
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			x, err := dom.FromUnit(p.Coordinates())
			if err != nil {
				return err
			}
			v := s.f(x)
			s.calls.Add(1)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("f(%v)=%g: %w", x, v, ErrNonFinite)
			}
			values[seq] = v
			s.store(key, v)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, 0, err
	}

	alpha, err := g.Hierarchize(values)
	if err != nil {
		return nil, 0, err
	}

	return alpha, surplusError(alpha, added), nil
}

// surplusError is max |α_p| over the added seqs, or over all seqs when none.
func surplusError(alpha []float64, added []int) float64 {
	e := 0.0
	if len(added) == 0 {
		for _, a := range alpha {
			e = math.Max(e, math.Abs(a))
		}
		return e
	}
	for _, seq := range added {
		e = math.Max(e, math.Abs(alpha[seq]))
	}

	return e
}
