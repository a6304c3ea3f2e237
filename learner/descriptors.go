package learner

import (
	"fmt"
	"math"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/katalvlaran/sparsegrid/grid"
	"github.com/katalvlaran/sparsegrid/solver"
)

// Descriptor defaults.
const (
	DefaultGridLevel  = 2
	DefaultGridType   = "modlinear"
	DefaultLambda     = 1e-6
	DefaultWorkers    = 4
	DefaultRefinePts  = 5
	DefaultStopIters  = 10
	DefaultANOVAOrder = 2

	// Refinement criteria.
	CriterionSurplus       = "surplus"
	CriterionSurplusVolume = "surplusvolume"
	CriterionANOVA         = "anova"

	// Regularization operators.
	RegularizationIdentity = "identity"
	RegularizationLaplace  = "laplace"
)

// GridDescriptor describes the initial grid: a generalised regular sparse
// grid of Level and parameter T over the box [Lower, Upper].
type GridDescriptor struct {
	Dim                 int       `hcl:"dim" msgpack:"dim"`
	Level               int       `hcl:"level,optional" msgpack:"level"`
	Type                string    `hcl:"type,optional" msgpack:"type"`
	T                   float64   `hcl:"t,optional" msgpack:"t"`
	MaxLevel            int       `hcl:"max_level,optional" msgpack:"max_level"`
	Lower               []float64 `hcl:"lower,optional" msgpack:"lower"`
	Upper               []float64 `hcl:"upper,optional" msgpack:"upper"`
	MaxInteractionOrder int       `hcl:"max_interaction_order,optional" msgpack:"max_interaction_order"`
	Interactions        [][]int   `hcl:"interactions,optional" msgpack:"interactions"`
}

// Validate checks the descriptor without building a grid.
func (d GridDescriptor) Validate() error {
	if d.Dim < 1 {
		return fmt.Errorf("grid: dim=%d: %w", d.Dim, ErrBadDescriptor)
	}
	if d.Level < 1 {
		return fmt.Errorf("grid: level=%d: %w", d.Level, ErrBadDescriptor)
	}
	if d.T >= 1 || math.IsNaN(d.T) {
		return fmt.Errorf("grid: t=%g: %w", d.T, ErrBadDescriptor)
	}
	if _, err := grid.ParseType(d.gridType()); err != nil {
		return fmt.Errorf("grid: %w: %v", ErrBadDescriptor, err)
	}
	if (len(d.Lower) > 0 || len(d.Upper) > 0) && (len(d.Lower) != d.Dim || len(d.Upper) != d.Dim) {
		return fmt.Errorf("grid: bounds for %d/%d dims, want %d: %w", len(d.Lower), len(d.Upper), d.Dim, ErrBadDescriptor)
	}
	if d.MaxInteractionOrder < 0 || d.MaxLevel < 0 || d.MaxLevel > grid.DefaultMaxLevel {
		return fmt.Errorf("grid: %w", ErrBadDescriptor)
	}

	return nil
}

func (d GridDescriptor) gridType() string {
	if d.Type == "" {
		return DefaultGridType
	}

	return d.Type
}

// Options translates the descriptor into grid options.
func (d GridDescriptor) Options() ([]grid.Option, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	t, _ := grid.ParseType(d.gridType())
	opts := []grid.Option{grid.WithType(t), grid.WithMaxInteractionOrder(d.MaxInteractionOrder)}
	if d.MaxLevel > 0 {
		opts = append(opts, grid.WithMaxLevel(d.MaxLevel))
	}
	if len(d.Interactions) > 0 {
		opts = append(opts, grid.WithInteractions(d.Interactions))
	}
	if len(d.Lower) > 0 {
		opts = append(opts, grid.WithDomain(d.Lower, d.Upper))
	}

	return opts, nil
}

// CreateGrid builds the grid the descriptor describes.
func (d GridDescriptor) CreateGrid() (*grid.Grid, error) {
	opts, err := d.Options()
	if err != nil {
		return nil, fmt.Errorf("CreateGrid: %w", err)
	}
	g, err := grid.New(d.Dim, opts...)
	if err != nil {
		return nil, fmt.Errorf("CreateGrid: %w", err)
	}
	if err = g.RegularT(d.Level, d.T); err != nil {
		return nil, fmt.Errorf("CreateGrid: %w", err)
	}

	return g, nil
}

// CGSolverDescriptor configures the conjugate-gradient solver.
type CGSolverDescriptor struct {
	MaxIterations int     `hcl:"max_iterations,optional" msgpack:"max_iterations"`
	Epsilon       float64 `hcl:"epsilon,optional" msgpack:"epsilon"`
	Threshold     float64 `hcl:"threshold,optional" msgpack:"threshold"`
}

// Options returns solver options, falling back to solver defaults for zero fields.
func (d CGSolverDescriptor) Options() solver.Options {
	o := solver.DefaultOptions()
	if d.MaxIterations > 0 {
		o.MaxIterations = d.MaxIterations
	}
	if d.Epsilon > 0 {
		o.Epsilon = d.Epsilon
	}
	if d.Threshold > 0 {
		o.Threshold = d.Threshold
	}

	return o
}

// Validate rejects negative fields.
func (d CGSolverDescriptor) Validate() error {
	if d.MaxIterations < 0 || d.Epsilon < 0 || d.Threshold < 0 {
		return fmt.Errorf("solver: %w", ErrBadDescriptor)
	}

	return nil
}

// RegressorSpecificationDescriptor configures regularised least squares.
//
// Lambda is the regularization weight; Regularization is "identity" or
// "laplace" (level-weighted diagonal); Folds > 1 enables cross validation
// over Lambdas in SelectLambda. Direct assembles BᵀB + λ·N·C and solves it
// by LU instead of matrix-free CG.
type RegressorSpecificationDescriptor struct {
	Lambda         float64   `hcl:"lambda,optional" msgpack:"lambda"`
	Regularization string    `hcl:"regularization,optional" msgpack:"regularization"`
	Folds          int       `hcl:"folds,optional" msgpack:"folds"`
	Lambdas        []float64 `hcl:"lambdas,optional" msgpack:"lambdas"`
	Direct         bool      `hcl:"direct,optional" msgpack:"direct"`
}

// Validate checks λ ≥ 0, a known operator and Folds ∉ {1} ∪ (−∞,0).
func (d RegressorSpecificationDescriptor) Validate() error {
	if d.Lambda < 0 || math.IsNaN(d.Lambda) {
		return fmt.Errorf("regressor: lambda=%g: %w", d.Lambda, ErrBadDescriptor)
	}
	switch strings.ToLower(d.Regularization) {
	case "", RegularizationIdentity, RegularizationLaplace:
	default:
		return fmt.Errorf("regressor: regularization %q: %w", d.Regularization, ErrBadDescriptor)
	}
	if d.Folds < 0 || d.Folds == 1 {
		return fmt.Errorf("regressor: folds=%d: %w", d.Folds, ErrBadDescriptor)
	}
	for _, l := range d.Lambdas {
		if l < 0 || math.IsNaN(l) {
			return fmt.Errorf("regressor: lambdas: %w", ErrBadDescriptor)
		}
	}

	return nil
}

// StopPolicyDescriptor decides when learning ends. Zero fields are inactive,
// except MaxIterations which falls back to DefaultStopIters.
type StopPolicyDescriptor struct {
	MaxIterations  int     `hcl:"max_iterations,optional" msgpack:"max_iterations"`
	MaxGridSize    int     `hcl:"max_grid_size,optional" msgpack:"max_grid_size"`
	Accuracy       float64 `hcl:"accuracy,optional" msgpack:"accuracy"`
	MinImprovement float64 `hcl:"min_improvement,optional" msgpack:"min_improvement"`
	Patience       int     `hcl:"patience,optional" msgpack:"patience"`
}

// Validate rejects negative fields.
func (d StopPolicyDescriptor) Validate() error {
	if d.MaxIterations < 0 || d.MaxGridSize < 0 || d.Accuracy < 0 || d.MinImprovement < 0 || d.Patience < 0 {
		return fmt.Errorf("stop_policy: %w", ErrBadDescriptor)
	}

	return nil
}

// RefinementDescriptor configures adaptivity.
//
// Points is the number of points refined per step; Criterion is "surplus",
// "surplusvolume" or "anova" (empty selects the strategy default);
// MinTotalIndex is the total Sobol index below which ANOVA refinement
// skips a dimension; ANOVAOrder bounds the decomposition order.
type RefinementDescriptor struct {
	Points        int     `hcl:"points,optional" msgpack:"points"`
	Criterion     string  `hcl:"criterion,optional" msgpack:"criterion"`
	MinTotalIndex float64 `hcl:"min_total_index,optional" msgpack:"min_total_index"`
	ANOVAOrder    int     `hcl:"anova_order,optional" msgpack:"anova_order"`
	Decompose     bool    `hcl:"decompose,optional" msgpack:"decompose"`
}

// Validate checks the criterion and ranges.
func (d RefinementDescriptor) Validate() error {
	switch strings.ToLower(d.Criterion) {
	case "", CriterionSurplus, CriterionSurplusVolume, CriterionANOVA:
	default:
		return fmt.Errorf("refinement: criterion %q: %w", d.Criterion, ErrBadDescriptor)
	}
	if d.Points < 0 || d.ANOVAOrder < 0 || d.MinTotalIndex < 0 || d.MinTotalIndex > 1 {
		return fmt.Errorf("refinement: %w", ErrBadDescriptor)
	}

	return nil
}

// Specification bundles all descriptors of a learning run.
type Specification struct {
	Name       string                           `msgpack:"name"`
	Workers    int                              `msgpack:"workers"`
	Grid       GridDescriptor                   `msgpack:"grid"`
	Solver     CGSolverDescriptor               `msgpack:"solver"`
	Regressor  RegressorSpecificationDescriptor `msgpack:"regressor"`
	StopPolicy StopPolicyDescriptor             `msgpack:"stop_policy"`
	Refinement RefinementDescriptor             `msgpack:"refinement"`
}

// SpecOption represents a functional option for NewSpecification.
type SpecOption func(*Specification)

// WithName labels the run.
func WithName(name string) SpecOption {
	return func(s *Specification) { s.Name = name }
}

// WithWorkers bounds parallel model evaluations. Panics if n < 1.
func WithWorkers(n int) SpecOption {
	return func(s *Specification) {
		if n < 1 {
			panic("learner: workers must be ≥ 1")
		}
		s.Workers = n
	}
}

// WithGrid sets the grid descriptor.
func WithGrid(d GridDescriptor) SpecOption {
	return func(s *Specification) { s.Grid = d }
}

// WithSolver sets the CG descriptor.
func WithSolver(d CGSolverDescriptor) SpecOption {
	return func(s *Specification) { s.Solver = d }
}

// WithRegressor sets the regression descriptor.
func WithRegressor(d RegressorSpecificationDescriptor) SpecOption {
	return func(s *Specification) { s.Regressor = d }
}

// WithStopPolicy sets the stop policy.
func WithStopPolicy(d StopPolicyDescriptor) SpecOption {
	return func(s *Specification) { s.StopPolicy = d }
}

// WithRefinement sets the refinement descriptor.
func WithRefinement(d RefinementDescriptor) SpecOption {
	return func(s *Specification) { s.Refinement = d }
}

// DefaultSpecification returns the defaults for a dim-dimensional problem.
func DefaultSpecification(dim int) Specification {
	return Specification{
		Workers: DefaultWorkers,
		Grid: GridDescriptor{
			Dim:   dim,
			Level: DefaultGridLevel,
			Type:  DefaultGridType,
		},
		Solver:     CGSolverDescriptor{MaxIterations: solver.DefaultMaxIterations, Epsilon: solver.DefaultEpsilon},
		Regressor:  RegressorSpecificationDescriptor{Lambda: DefaultLambda, Regularization: RegularizationIdentity},
		StopPolicy: StopPolicyDescriptor{MaxIterations: DefaultStopIters},
		Refinement: RefinementDescriptor{Points: DefaultRefinePts, ANOVAOrder: DefaultANOVAOrder},
	}
}

// NewSpecification applies opts to DefaultSpecification(dim) and validates.
func NewSpecification(dim int, opts ...SpecOption) (Specification, error) {
	s := DefaultSpecification(dim)
	for _, opt := range opts {
		opt(&s)
	}
	if err := s.Validate(); err != nil {
		return Specification{}, fmt.Errorf("NewSpecification: %w", err)
	}

	return s, nil
}

// Validate checks every descriptor.
func (s Specification) Validate() error {
	if s.Workers < 0 {
		return fmt.Errorf("workers=%d: %w", s.Workers, ErrBadDescriptor)
	}
	for _, v := range []interface{ Validate() error }{s.Grid, s.Solver, s.Regressor, s.StopPolicy, s.Refinement} {
		if err := v.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Clone returns a deep copy.
func (s Specification) Clone() Specification {
	var out Specification
	if err := copier.CopyWithOption(&out, &s, copier.Option{DeepCopy: true}); err != nil {
		// copier only fails on mismatched kinds, which cannot happen for a
		// Specification copied onto itself.
		panic(err)
	}

	return out
}
