package learner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/katalvlaran/sparsegrid/anova"
	"github.com/katalvlaran/sparsegrid/grid"
	"github.com/katalvlaran/sparsegrid/internal/ctxlog"
)

// strategy is the fitting part of a learner.
type strategy interface {
	// kind names the strategy in logs and snapshots.
	kind() string
	// criterion is the refinement criterion used when the descriptor names none.
	criterion() string
	// fit computes coefficients on g. prev holds the previous coefficients
	// (aligned by seq, possibly shorter than g) and added the seqs inserted
	// by the last refinement (nil on the first step of a run).
	fit(ctx context.Context, g *grid.Grid, prev []float64, added []int) (alpha []float64, errEst float64, err error)
}

// Learner is the engine shared by Interpolant, ANOVAInterpolant,
// Regressor and DensityEstimator. It is safe for concurrent use; Learn
// calls are serialised. Refinement works on a private copy of the grid, so
// readers always see a grid and coefficients from the same step.
type Learner struct {
	strat      strategy
	forceANOVA bool

	runMu sync.Mutex // held by Learn, Reset, SelectLambda, Update

	mu      sync.RWMutex
	spec    Specification
	g       *grid.Grid
	alpha   []float64
	dec     *anova.Decomposition
	history []StepStats
	runID   uuid.UUID

	subMu  sync.RWMutex
	subs   []subscriber
	nextID uint64
}

type subscriber struct {
	id uint64
	fn Listener
}

func newLearner(spec Specification, s strategy, forceANOVA bool) (*Learner, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	return &Learner{spec: spec.Clone(), strat: s, forceANOVA: forceANOVA}, nil
}

// Subscribe registers fn for all future events and returns a function that
// unregisters it. Listeners run synchronously in subscription order.
func (l *Learner) Subscribe(fn Listener) (cancel func()) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	l.nextID++
	id := l.nextID
	l.subs = append(l.subs, subscriber{id: id, fn: fn})

	return func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		for i, s := range l.subs {
			if s.id == id {
				l.subs = append(l.subs[:i:i], l.subs[i+1:]...)
				return
			}
		}
	}
}

func (l *Learner) emit(e Event) {
	l.subMu.RLock()
	subs := append([]subscriber(nil), l.subs...)
	l.subMu.RUnlock()
	for _, s := range subs {
		s.fn(e)
	}
}

// ensureGrid builds the initial grid from the specification if needed.
func (l *Learner) ensureGrid() (*grid.Grid, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.g != nil {
		return l.g, nil
	}
	g, err := l.spec.Grid.CreateGrid()
	if err != nil {
		return nil, err
	}
	l.g = g

	return g, nil
}

// Learn runs the adaptive loop until the stop policy is satisfied, the grid
// saturates, an error occurs or ctx is cancelled. A second call continues
// refining the current grid with a fresh history.
//
// Errors: grid and strategy errors, ErrSolverDiverged, ErrNonFinite, ctx.Err().
func (l *Learner) Learn(ctx context.Context) (StopReason, error) {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	runID := uuid.New()
	log := ctxlog.FromContext(ctx).With(slog.String("run", runID.String()), slog.String("learner", l.strat.kind()))
	l.mu.Lock()
	l.runID = runID
	l.history = nil
	l.mu.Unlock()

	g, err := l.ensureGrid()
	if err != nil {
		l.fail(log, runID, 0, err)
		return StopNone, fmt.Errorf("Learn: %w", err)
	}
	l.emit(Event{Kind: LearningStarted, RunID: runID, GridSize: g.Len()})
	log.Info("learning started", slog.Int("grid_size", g.Len()))

	reason, err := l.run(ctx, log, runID, g)
	if err != nil {
		l.fail(log, runID, len(l.History()), err)
		return StopNone, fmt.Errorf("Learn: %w", err)
	}
	size := l.gridSize()
	l.emit(Event{Kind: LearningComplete, RunID: runID, Iteration: len(l.History()), GridSize: size, Reason: reason})
	log.Info("learning complete", slog.String("reason", string(reason)), slog.Int("grid_size", size))

	return reason, nil
}

func (l *Learner) gridSize() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.g == nil {
		return 0
	}

	return l.g.Len()
}

// publish installs a grid and the coefficients fitted on it.
func (l *Learner) publish(g *grid.Grid, alpha []float64) {
	l.mu.Lock()
	l.g, l.alpha = g, alpha
	l.mu.Unlock()
}

func (l *Learner) fail(log *slog.Logger, runID uuid.UUID, iter int, err error) {
	l.emit(Event{Kind: LearningFailed, RunID: runID, Iteration: iter, Err: err})
	log.Error("learning failed", slog.Int("iteration", iter), slog.Any("err", err))
}

func (l *Learner) run(ctx context.Context, log *slog.Logger, runID uuid.UUID, g *grid.Grid) (StopReason, error) {
	spec := l.Spec()
	prev := l.Alpha()
	var added []int
	for iter := 1; ; iter++ {
		if err := ctx.Err(); err != nil {
			return StopNone, err
		}
		l.emit(Event{Kind: LearningStepStarted, RunID: runID, Iteration: iter, GridSize: g.Len()})
		start := time.Now()

		alpha, est, err := l.strat.fit(ctx, g, prev, added)
		if err != nil {
			return StopNone, err
		}
		l.publish(g, alpha)
		l.emit(Event{Kind: FitComplete, RunID: runID, Iteration: iter, GridSize: len(alpha), Error: est})

		var dec *anova.Decomposition
		if l.decompose(spec) {
			if dec, err = anova.HDMR(ctx, g, alpha, anovaOptions(spec)...); err != nil {
				return StopNone, err
			}
			l.mu.Lock()
			l.dec = dec
			l.mu.Unlock()
			l.emit(Event{Kind: DecompositionComplete, RunID: runID, Iteration: iter, GridSize: len(alpha), Decomposition: dec})
		}

		stats := StepStats{Iteration: iter, GridSize: len(alpha), Added: len(added), Error: est, Duration: time.Since(start)}
		l.mu.Lock()
		l.history = append(l.history, stats)
		history := append([]StepStats(nil), l.history...)
		l.mu.Unlock()
		log.Debug("learning step",
			slog.Int("iteration", iter),
			slog.Int("grid_size", stats.GridSize),
			slog.Int("added", stats.Added),
			slog.Float64("error", est),
			slog.Duration("duration", stats.Duration))
		l.emit(Event{Kind: LearningStepComplete, RunID: runID, Iteration: iter, GridSize: stats.GridSize, Added: stats.Added, Error: est, Decomposition: dec})

		if reason := spec.StopPolicy.Done(history); reason != StopNone {
			return reason, nil
		}

		f := l.functor(spec, g, alpha, dec)
		next := g.Clone()
		if added, err = next.Refine(f, max(spec.Refinement.Points, 1)); err != nil {
			return StopNone, err
		}
		l.emit(Event{Kind: RefinementComplete, RunID: runID, Iteration: iter, GridSize: next.Len(), Added: len(added)})
		if len(added) == 0 {
			return StopSaturated, nil
		}
		g, prev = next, alpha
	}
}

// refit fits the current grid again, e.g. after the data changed, and
// publishes the result. Caller holds runMu.
func (l *Learner) refit(ctx context.Context) (float64, error) {
	l.mu.RLock()
	g, prev, runID := l.g, l.alpha, l.runID
	l.mu.RUnlock()
	if prev == nil {
		return 0, ErrNotFitted
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	alpha, est, err := l.strat.fit(ctx, g, prev, nil)
	if err != nil {
		return 0, err
	}
	l.publish(g, alpha)
	l.emit(Event{Kind: FitComplete, RunID: runID, GridSize: len(alpha), Error: est})

	spec := l.Spec()
	if l.decompose(spec) || l.Decomposition() != nil {
		dec, err := anova.HDMR(ctx, g, alpha, anovaOptions(spec)...)
		if err != nil {
			return 0, err
		}
		l.mu.Lock()
		l.dec = dec
		l.mu.Unlock()
		l.emit(Event{Kind: DecompositionComplete, RunID: runID, GridSize: len(alpha), Decomposition: dec})
	}

	return est, nil
}

func (l *Learner) criterion(spec Specification) string {
	if spec.Refinement.Criterion != "" {
		return spec.Refinement.Criterion
	}

	return l.strat.criterion()
}

func anovaOptions(spec Specification) []anova.Option {
	if spec.Refinement.ANOVAOrder > 0 {
		return []anova.Option{anova.WithMaxOrder(spec.Refinement.ANOVAOrder)}
	}

	return nil
}

func (l *Learner) decompose(spec Specification) bool {
	return l.forceANOVA || spec.Refinement.Decompose || l.criterion(spec) == CriterionANOVA
}

func (l *Learner) functor(spec Specification, g *grid.Grid, alpha []float64, dec *anova.Decomposition) grid.RefinementFunctor {
	switch l.criterion(spec) {
	case CriterionSurplus:
		return grid.SurplusFunctor{Alpha: alpha}
	case CriterionANOVA:
		return newANOVAFunctor(g, alpha, dec, spec.Refinement.MinTotalIndex)
	default:
		return grid.SurplusVolumeFunctor{Alpha: alpha, Type: g.Type()}
	}
}

// Evaluate evaluates the fitted model at x, given in the grid domain.
//
// Errors: ErrNotFitted, ErrDimensionMismatch, grid.ErrOutOfDomain.
func (l *Learner) Evaluate(x []float64) (float64, error) {
	l.mu.RLock()
	g, alpha := l.g, l.alpha
	l.mu.RUnlock()
	if alpha == nil {
		return 0, fmt.Errorf("Evaluate: %w", ErrNotFitted)
	}
	if len(x) != g.Dim() {
		return 0, fmt.Errorf("Evaluate: len(x)=%d: %w", len(x), ErrDimensionMismatch)
	}
	v, err := g.EvalDomain(alpha, x)
	if err != nil {
		return 0, fmt.Errorf("Evaluate: %w", err)
	}

	return v, nil
}

// EvaluateMany evaluates the fitted model at every row of xs.
func (l *Learner) EvaluateMany(xs [][]float64) ([]float64, error) {
	l.mu.RLock()
	g, alpha := l.g, l.alpha
	l.mu.RUnlock()
	if alpha == nil {
		return nil, fmt.Errorf("EvaluateMany: %w", ErrNotFitted)
	}
	us, err := toUnit(g, xs)
	if err != nil {
		return nil, fmt.Errorf("EvaluateMany: %w", err)
	}
	ys, err := g.EvalMany(alpha, us)
	if err != nil {
		return nil, fmt.Errorf("EvaluateMany: %w", err)
	}

	return ys, nil
}

// toUnit maps rows from the grid domain to the unit cube.
func toUnit(g *grid.Grid, xs [][]float64) ([][]float64, error) {
	dom := g.Domain()
	us := make([][]float64, len(xs))
	for i, x := range xs {
		if len(x) != g.Dim() {
			return nil, fmt.Errorf("row %d has %d values: %w", i, len(x), ErrDimensionMismatch)
		}
		u, err := dom.ToUnit(x)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		us[i] = u
	}

	return us, nil
}

// Grid returns a copy of the current grid, or nil before the first Learn.
func (l *Learner) Grid() *grid.Grid {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.g == nil {
		return nil
	}

	return l.g.Clone()
}

// Alpha returns a copy of the current coefficients.
func (l *Learner) Alpha() []float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.alpha == nil {
		return nil
	}

	return append([]float64(nil), l.alpha...)
}

// History returns the step statistics of the current run.
func (l *Learner) History() []StepStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]StepStats(nil), l.history...)
}

// Decomposition returns the latest ANOVA decomposition, or nil.
func (l *Learner) Decomposition() *anova.Decomposition {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.dec
}

// RunID returns the ID of the current or last run.
func (l *Learner) RunID() uuid.UUID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.runID
}

// Spec returns a copy of the learner's specification.
func (l *Learner) Spec() Specification {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.spec.Clone()
}

// Reset discards the grid, coefficients, decomposition and history. The next
// Learn starts again from the initial grid.
func (l *Learner) Reset() {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.g, l.alpha, l.dec, l.history = nil, nil, nil, nil
	l.runID = uuid.Nil
}

// Snapshot is the serialisable state of a fitted learner.
type Snapshot struct {
	Kind    string        `msgpack:"kind"`
	RunID   string        `msgpack:"run_id"`
	Spec    Specification `msgpack:"spec"`
	Grid    grid.Snapshot `msgpack:"grid"`
	Alpha   []float64     `msgpack:"alpha"`
	History []StepStats   `msgpack:"history"`
}

// Snapshot captures the fitted model.
//
// Errors: ErrNotFitted.
func (l *Learner) Snapshot() (Snapshot, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.alpha == nil {
		return Snapshot{}, fmt.Errorf("Snapshot: %w", ErrNotFitted)
	}

	return Snapshot{
		Kind:    l.strat.kind(),
		RunID:   l.runID.String(),
		Spec:    l.spec.Clone(),
		Grid:    l.g.Snapshot(),
		Alpha:   append([]float64(nil), l.alpha...),
		History: append([]StepStats(nil), l.history...),
	}, nil
}

// Model rebuilds the grid and coefficients of a snapshot.
//
// Errors: grid.FromSnapshot errors; grid.ErrCoefficientMismatch.
func (s Snapshot) Model() (*grid.Grid, []float64, error) {
	g, err := grid.FromSnapshot(s.Grid)
	if err != nil {
		return nil, nil, fmt.Errorf("Model: %w", err)
	}
	if len(s.Alpha) != g.Len() {
		return nil, nil, fmt.Errorf("Model: %d coefficients for %d points: %w", len(s.Alpha), g.Len(), grid.ErrCoefficientMismatch)
	}

	return g, append([]float64(nil), s.Alpha...), nil
}
