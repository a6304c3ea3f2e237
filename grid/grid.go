package grid

import (
	"fmt"
	"math/bits"
	"sync"
)

// Grid is a sparse grid of dimension Dim with a fixed basis Type.
//
// All exported methods are safe for concurrent use.
type Grid struct {
	mu      sync.RWMutex
	dim     int
	opts    Options
	allowed []uint64 // interaction masks; empty = unrestricted
	storage *Storage
}

// New creates an empty dim-dimensional grid.
//
// Errors:
//   - ErrBadDimension  dim ≤ 0, or an interaction names a dimension outside [0, dim).
//   - ErrUnknownType   unsupported basis type.
//   - ErrBadDomain     invalid domain bounds.
func New(dim int, opts ...Option) (*Grid, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("New: dim=%d: %w", dim, ErrBadDimension)
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if !o.Type.valid() {
		return nil, fmt.Errorf("New: %w", ErrUnknownType)
	}
	if o.Domain != nil {
		if err := o.Domain.Validate(dim); err != nil {
			return nil, fmt.Errorf("New: %w", err)
		}
	}
	allowed := make([]uint64, 0, len(o.Interactions))
	for _, set := range o.Interactions {
		var m uint64
		for _, d := range set {
			if d < 0 || d >= dim || d >= 64 {
				return nil, fmt.Errorf("New: interaction dimension %d: %w", d, ErrBadDimension)
			}
			m |= 1 << uint(d)
		}
		allowed = append(allowed, m)
	}

	return &Grid{
		dim:     dim,
		opts:    o,
		allowed: allowed,
		storage: NewStorage(dim),
	}, nil
}

// Dim returns the grid dimension.
func (g *Grid) Dim() int { return g.dim }

// Type returns the basis type.
func (g *Grid) Type() Type { return g.opts.Type }

// MaxLevel returns the per-dimension level cap.
func (g *Grid) MaxLevel() int { return g.opts.MaxLevel }

// Domain returns a copy of the domain, or the unit cube when none was set.
func (g *Grid) Domain() *Domain {
	if g.opts.Domain == nil {
		return UnitDomain(g.dim)
	}

	return g.opts.Domain.Clone()
}

// Len returns the number of grid points.
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.storage.Len()
}

// Point returns a copy of the point at seq.
func (g *Grid) Point(seq int) (Point, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if seq < 0 || seq >= g.storage.Len() {
		return Point{}, fmt.Errorf("Point(%d): %w", seq, ErrBadIndex)
	}

	return g.storage.At(seq).Clone(), nil
}

// Points returns copies of all points in seq order.
func (g *Grid) Points() []Point {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.storage.Points()
}

// Find returns the seq of p.
func (g *Grid) Find(p Point) (int, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.storage.Find(p)
}

// Coordinates returns the unit-cube coordinates of all points in seq order.
func (g *Grid) Coordinates() [][]float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([][]float64, g.storage.Len())
	for i := range out {
		out[i] = g.storage.At(i).Coordinates()
	}

	return out
}

// Admissible reports whether p satisfies the interaction constraints.
func (g *Grid) Admissible(p Point) bool {
	return g.admissibleMask(p.EffectiveMask(g.opts.Type))
}

func (g *Grid) admissibleMask(m uint64) bool {
	if g.opts.MaxInteractionOrder > 0 && bits.OnesCount64(m) > g.opts.MaxInteractionOrder {
		return false
	}
	if len(g.allowed) == 0 || m == 0 {
		return true
	}
	for _, a := range g.allowed {
		if m&^a == 0 { // m ⊆ a
			return true
		}
	}

	return false
}

// Insert adds p together with all of its hierarchical ancestors and returns
// the seqs of the points that were actually added.
//
// Errors: ErrDimensionMismatch, ErrBadLevel, ErrBadIndex, ErrNotAdmissible.
func (g *Grid) Insert(p Point) ([]int, error) {
	if p.Dim() != g.dim {
		return nil, fmt.Errorf("Insert: %w", ErrDimensionMismatch)
	}
	if err := p.Validate(g.opts.Type, g.opts.MaxLevel); err != nil {
		return nil, fmt.Errorf("Insert %s: %w", p.Key(), err)
	}
	if !g.Admissible(p) {
		return nil, fmt.Errorf("Insert %s: %w", p.Key(), ErrNotAdmissible)
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.insertWithAncestors(p, nil), nil
}

// insertWithAncestors inserts p after its ancestors (coarse to fine) and
// appends new seqs to added. Caller holds the write lock; p is valid and
// admissible, hence so are its ancestors.
func (g *Grid) insertWithAncestors(p Point, added []int) []int {
	if g.storage.Contains(p) {
		return added
	}
	for d := 0; d < g.dim; d++ {
		for _, parent := range p.Parents(g.opts.Type, d) {
			added = g.insertWithAncestors(parent, added)
		}
	}
	if seq, ok := g.storage.Insert(p); ok {
		added = append(added, seq)
	}

	return added
}

// IsLeaf reports whether no child of the point at seq is stored.
// Returns ErrBadIndex if seq is out of range.
func (g *Grid) IsLeaf(seq int) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if seq < 0 || seq >= g.storage.Len() {
		return false, fmt.Errorf("IsLeaf(%d): %w", seq, ErrBadIndex)
	}
	p := g.storage.At(seq)
	for d := 0; d < g.dim; d++ {
		for _, c := range p.Children(d) {
			if g.storage.Contains(c) {
				return false, nil
			}
		}
	}

	return true, nil
}

// Clone returns an independent copy of the grid with identical seqs.
func (g *Grid) Clone() *Grid {
	g.mu.RLock()
	defer g.mu.RUnlock()
	o := g.opts
	o.Domain = g.opts.Domain.Clone()
	o.Interactions = make([][]int, len(g.opts.Interactions))
	for i := range g.opts.Interactions {
		o.Interactions[i] = append([]int(nil), g.opts.Interactions[i]...)
	}

	return &Grid{
		dim:     g.dim,
		opts:    o,
		allowed: append([]uint64(nil), g.allowed...),
		storage: g.storage.Clone(),
	}
}

// checkAlpha validates a coefficient vector length. Caller holds a lock.
func (g *Grid) checkAlpha(alpha []float64) error {
	if len(alpha) != g.storage.Len() {
		return fmt.Errorf("len(alpha)=%d, grid size %d: %w", len(alpha), g.storage.Len(), ErrCoefficientMismatch)
	}

	return nil
}
