package grid

import (
	"fmt"
	"strings"
)

// Type selects the one-dimensional basis family of a grid.
//
//   - Linear:         hat functions φ_{l,i}(x) = max(0, 1 − |2^l x − i|),
//     zero on the boundary. Root level 1.
//   - LinearBoundary: hat functions plus the level-0 boundary functions
//     1 − x (index 0) and x (index 1). Root level 0.
//   - ModLinear:      level 1 is the constant 1; the outermost functions of
//     every level l ≥ 2 extrapolate linearly towards the boundary. Root level 1.
type Type int

const (
	// Linear grid: hat functions, zero boundary.
	Linear Type = iota

	// LinearBoundary grid: hat functions plus boundary points on level 0.
	LinearBoundary

	// ModLinear grid: modified hats, constant on level 1.
	ModLinear
)

// String returns the lower-case name used in configuration files.
func (t Type) String() string {
	switch t {
	case Linear:
		return "linear"
	case LinearBoundary:
		return "linearboundary"
	case ModLinear:
		return "modlinear"
	default:
		return fmt.Sprintf("Type(%d)", int(t))
	}
}

// ParseType maps a configuration name (case-insensitive) to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return Linear, nil
	case "linearboundary", "linear_boundary", "boundary":
		return LinearBoundary, nil
	case "modlinear", "mod_linear":
		return ModLinear, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrUnknownType)
	}
}

// valid reports whether t is one of the supported types.
func (t Type) valid() bool { return t >= Linear && t <= ModLinear }

// RootLevel is the coarsest level of the basis: 0 for LinearBoundary, 1 otherwise.
func (t Type) RootLevel() int {
	if t == LinearBoundary {
		return 0
	}

	return 1
}

// Default grid settings.
const (
	// DefaultType is the basis used when no WithType option is given.
	// Learner descriptors without a type select ModLinear instead.
	DefaultType = Linear

	// DefaultMaxLevel caps per-dimension levels so that 2^l stays exact in float64
	// and in int on 32-bit platforms.
	DefaultMaxLevel = 30
)

// Options configures a Grid.
//
// Type                – basis family.
// MaxLevel            – upper bound on any per-dimension level (1..30).
// MaxInteractionOrder – if > 0, points may be refined in at most this many
//
//	dimensions (|effective dims| ≤ order).
//
// Interactions        – if non-empty, the effective dimensions of every point
//
//	must be a subset of one of these dimension lists.
//
// Domain              – physical box mapped to the unit cube (nil = unit cube).
type Options struct {
	Type                Type
	MaxLevel            int
	MaxInteractionOrder int
	Interactions        [][]int
	Domain              *Domain
}

// Option represents a functional option for configuring a Grid.
type Option func(*Options)

// WithType selects the basis family.
func WithType(t Type) Option {
	return func(o *Options) {
		o.Type = t
	}
}

// WithMaxLevel caps per-dimension levels. Values outside 1..DefaultMaxLevel panic.
func WithMaxLevel(n int) Option {
	return func(o *Options) {
		if n < 1 || n > DefaultMaxLevel {
			panic(ErrBadLevel.Error())
		}
		o.MaxLevel = n
	}
}

// WithMaxInteractionOrder limits the number of effective dimensions per point.
// Negative values panic; 0 means unlimited.
func WithMaxInteractionOrder(k int) Option {
	return func(o *Options) {
		if k < 0 {
			panic(ErrNotAdmissible.Error())
		}
		o.MaxInteractionOrder = k
	}
}

// WithInteractions restricts points to the given dimension subsets (and
// their subsets). Dimension indices are validated by New.
func WithInteractions(sets [][]int) Option {
	return func(o *Options) {
		o.Interactions = make([][]int, len(sets))
		for i := range sets {
			o.Interactions[i] = append([]int(nil), sets[i]...)
		}
	}
}

// WithDomain attaches a physical box. Bounds are validated by New.
func WithDomain(lower, upper []float64) Option {
	return func(o *Options) {
		o.Domain = &Domain{
			Lower: append([]float64(nil), lower...),
			Upper: append([]float64(nil), upper...),
		}
	}
}

// DefaultOptions returns the Options used when New gets no option.
func DefaultOptions() Options {
	return Options{
		Type:     DefaultType,
		MaxLevel: DefaultMaxLevel,
	}
}
